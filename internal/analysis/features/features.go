package features

// Levels опорные уровни одного периода (день или неделя)
type Levels struct {
	VWAP       float64
	VWAPUpper1 float64
	VWAPLower1 float64
	VWAPUpper2 float64
	VWAPLower2 float64
	POC        float64
	VAH        float64
	VAL        float64
	High       float64
	Low        float64
	Close      float64
}

// Inputs все опорные значения для расчета признаков бара
type Inputs struct {
	Price float64

	Day      Levels
	PrevDay  Levels
	Week     Levels
	PrevWeek Levels

	BBUpper  float64
	BBMiddle float64
	BBLower  float64

	IBHigh    float64
	IBLow     float64
	SwingHigh float64
	SwingLow  float64
	HVN       float64
}

// Set признаки бара: разница между ценой и опорными уровнями
type Set struct {
	PriceCurrentDayVwapDiff             float64 `json:"priceCurrentDayVwapDiff"`
	PriceCurrentDayVwapUpperStdDev1Diff float64 `json:"priceCurrentDayVwapUpperStdDev1Diff"`
	PriceCurrentDayVwapLowerStdDev1Diff float64 `json:"priceCurrentDayVwapLowerStdDev1Diff"`
	PriceCurrentDayVwapUpperStdDev2Diff float64 `json:"priceCurrentDayVwapUpperStdDev2Diff"`
	PriceCurrentDayVwapLowerStdDev2Diff float64 `json:"priceCurrentDayVwapLowerStdDev2Diff"`
	PricePreviousDayVwapDiff            float64 `json:"pricePreviousDayVwapDiff"`
	PricePreviousDayVwapUpperStdDevDiff float64 `json:"pricePreviousDayVwapUpperStdDev1Diff"`
	PricePreviousDayVwapLowerStdDevDiff float64 `json:"pricePreviousDayVwapLowerStdDev1Diff"`

	PriceWeeklyVwapDiff             float64 `json:"priceWeeklyVwapDiff"`
	PriceWeeklyVwapUpperStdDev1Diff float64 `json:"priceWeeklyVwapUpperStdDev1Diff"`
	PriceWeeklyVwapLowerStdDev1Diff float64 `json:"priceWeeklyVwapLowerStdDev1Diff"`
	PriceWeeklyVwapUpperStdDev2Diff float64 `json:"priceWeeklyVwapUpperStdDev2Diff"`
	PriceWeeklyVwapLowerStdDev2Diff float64 `json:"priceWeeklyVwapLowerStdDev2Diff"`
	PricePreviousWeekVwapDiff       float64 `json:"pricePreviousWeekVwapDiff"`

	PriceBBandUpperDiff  float64 `json:"priceBBandUpperDiff"`
	PriceBBandLowerDiff  float64 `json:"priceBBandLowerDiff"`
	PriceBBandMiddleDiff float64 `json:"priceBBandMiddleDiff"`

	PriceCurrDayVAHDiff   float64 `json:"priceCurrDayVAHDiff"`
	PriceCurrDayVALDiff   float64 `json:"priceCurrDayVALDiff"`
	PriceCurrDayPOCDiff   float64 `json:"priceCurrDayPOCDiff"`
	PricePrevDayVAHDiff   float64 `json:"pricePrevDayVAHDiff"`
	PricePrevDayVALDiff   float64 `json:"pricePrevDayVALDiff"`
	PricePrevDayPOCDiff   float64 `json:"pricePrevDayPOCDiff"`
	PriceCurrWeekVAHDiff  float64 `json:"priceCurrWeekVAHDiff"`
	PriceCurrWeekVALDiff  float64 `json:"priceCurrWeekVALDiff"`
	PriceCurrWeekPOCDiff  float64 `json:"priceCurrWeekPOCDiff"`
	PricePrevWeekVAHDiff  float64 `json:"pricePrevWeekVAHDiff"`
	PricePrevWeekVALDiff  float64 `json:"pricePrevWeekVALDiff"`
	PricePrevWeekPOCDiff  float64 `json:"pricePrevWeekPOCDiff"`
	IsPriceInCurrentDayVA bool    `json:"isPriceInCurrentDayVA"`
	IsPriceInPrevDayVA    bool    `json:"isPriceInPrevDayVA"`

	PricePrevDayHighDiff     float64 `json:"pricePrevDayHighDiff"`
	PricePrevDayLowDiff      float64 `json:"pricePrevDayLowDiff"`
	PricePrevDayCloseDiff    float64 `json:"pricePrevDayCloseDiff"`
	PriceCurrentWeekHighDiff float64 `json:"priceCurrentWeekHighDiff"`
	PriceCurrentWeekLowDiff  float64 `json:"priceCurrentWeekLowDiff"`
	PricePrevWeekHighDiff    float64 `json:"pricePrevWeekHighDiff"`
	PricePrevWeekLowDiff     float64 `json:"pricePrevWeekLowDiff"`

	PriceIBHighDiff        float64 `json:"priceIBHighDiff"`
	PriceIBLowDiff         float64 `json:"priceIBLowDiff"`
	PriceLastSwingHighDiff float64 `json:"priceLastSwingHighDiff"`
	PriceLastSwingLowDiff  float64 `json:"priceLastSwingLowDiff"`
	PriceLastHVNDiff       float64 `json:"priceLastHVNDiff"`
}

// Compile считает признаки для текущей цены. Чистая функция.
func Compile(in Inputs) Set {
	p := in.Price
	return Set{
		PriceCurrentDayVwapDiff:             p - in.Day.VWAP,
		PriceCurrentDayVwapUpperStdDev1Diff: p - in.Day.VWAPUpper1,
		PriceCurrentDayVwapLowerStdDev1Diff: p - in.Day.VWAPLower1,
		PriceCurrentDayVwapUpperStdDev2Diff: p - in.Day.VWAPUpper2,
		PriceCurrentDayVwapLowerStdDev2Diff: p - in.Day.VWAPLower2,
		PricePreviousDayVwapDiff:            p - in.PrevDay.VWAP,
		PricePreviousDayVwapUpperStdDevDiff: p - in.PrevDay.VWAPUpper1,
		PricePreviousDayVwapLowerStdDevDiff: p - in.PrevDay.VWAPLower1,

		PriceWeeklyVwapDiff:             p - in.Week.VWAP,
		PriceWeeklyVwapUpperStdDev1Diff: p - in.Week.VWAPUpper1,
		PriceWeeklyVwapLowerStdDev1Diff: p - in.Week.VWAPLower1,
		PriceWeeklyVwapUpperStdDev2Diff: p - in.Week.VWAPUpper2,
		PriceWeeklyVwapLowerStdDev2Diff: p - in.Week.VWAPLower2,
		PricePreviousWeekVwapDiff:       p - in.PrevWeek.VWAP,

		PriceBBandUpperDiff:  p - in.BBUpper,
		PriceBBandLowerDiff:  p - in.BBLower,
		PriceBBandMiddleDiff: p - in.BBMiddle,

		PriceCurrDayVAHDiff:   p - in.Day.VAH,
		PriceCurrDayVALDiff:   p - in.Day.VAL,
		PriceCurrDayPOCDiff:   p - in.Day.POC,
		PricePrevDayVAHDiff:   p - in.PrevDay.VAH,
		PricePrevDayVALDiff:   p - in.PrevDay.VAL,
		PricePrevDayPOCDiff:   p - in.PrevDay.POC,
		PriceCurrWeekVAHDiff:  p - in.Week.VAH,
		PriceCurrWeekVALDiff:  p - in.Week.VAL,
		PriceCurrWeekPOCDiff:  p - in.Week.POC,
		PricePrevWeekVAHDiff:  p - in.PrevWeek.VAH,
		PricePrevWeekVALDiff:  p - in.PrevWeek.VAL,
		PricePrevWeekPOCDiff:  p - in.PrevWeek.POC,
		IsPriceInCurrentDayVA: inside(p, in.Day.VAL, in.Day.VAH),
		IsPriceInPrevDayVA:    inside(p, in.PrevDay.VAL, in.PrevDay.VAH),

		PricePrevDayHighDiff:     p - in.PrevDay.High,
		PricePrevDayLowDiff:      p - in.PrevDay.Low,
		PricePrevDayCloseDiff:    p - in.PrevDay.Close,
		PriceCurrentWeekHighDiff: p - in.Week.High,
		PriceCurrentWeekLowDiff:  p - in.Week.Low,
		PricePrevWeekHighDiff:    p - in.PrevWeek.High,
		PricePrevWeekLowDiff:     p - in.PrevWeek.Low,

		PriceIBHighDiff:        p - in.IBHigh,
		PriceIBLowDiff:         p - in.IBLow,
		PriceLastSwingHighDiff: p - in.SwingHigh,
		PriceLastSwingLowDiff:  p - in.SwingLow,
		PriceLastHVNDiff:       p - in.HVN,
	}
}

// inside строгое попадание цены в value area
func inside(price, val, vah float64) bool {
	return val < price && price < vah
}
