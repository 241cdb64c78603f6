package footprint

import (
	"encoding/json"

	"github.com/google/btree"
	"github.com/skalibog/footprint/pkg/models"
)

// Level одна строка футпринта
type Level struct {
	Tick            int64
	Price           float64
	BidVolume       int64
	AskVolume       int64
	VolumeAtPrice   int64
	DeltaAtPrice    int64
	IsBuyImbalance  bool
	IsSellImbalance bool
}

// Less упорядочивает строки по возрастанию цены
func (l *Level) Less(than btree.Item) bool {
	return l.Tick < than.(*Level).Tick
}

// levelJSON форма строки при сериализации
type levelJSON struct {
	Price           float64 `json:"price"`
	BidVolume       int64   `json:"bidVolume"`
	AskVolume       int64   `json:"askVolume"`
	VolumeAtPrice   int64   `json:"volumeAtPrice"`
	DeltaAtPrice    int64   `json:"deltaAtPrice"`
	IsBuyImbalance  bool    `json:"isBuyImbalance"`
	IsSellImbalance bool    `json:"isSellImbalance"`
}

// Ladder упорядоченная по цене лестница объемов одного бара
type Ladder struct {
	instrument models.Instrument
	levels     *btree.BTree
}

// NewLadder создает пустую лестницу
func NewLadder(instrument models.Instrument) *Ladder {
	return &Ladder{
		instrument: instrument,
		levels:     btree.New(16),
	}
}

// Len количество ценовых уровней
func (l *Ladder) Len() int {
	return l.levels.Len()
}

// Get возвращает уровень по номеру шага
func (l *Ladder) Get(tick int64) (*Level, bool) {
	item := l.levels.Get(&Level{Tick: tick})
	if item == nil {
		return nil, false
	}
	return item.(*Level), true
}

// At возвращает уровень по цене
func (l *Ladder) At(price float64) (*Level, bool) {
	return l.Get(l.instrument.ToTicks(price))
}

// Min нижний уровень или nil
func (l *Ladder) Min() *Level {
	if item := l.levels.Min(); item != nil {
		return item.(*Level)
	}
	return nil
}

// Max верхний уровень или nil
func (l *Ladder) Max() *Level {
	if item := l.levels.Max(); item != nil {
		return item.(*Level)
	}
	return nil
}

// Ascend обходит уровни снизу вверх, пока fn возвращает true
func (l *Ladder) Ascend(fn func(*Level) bool) {
	l.levels.Ascend(func(item btree.Item) bool {
		return fn(item.(*Level))
	})
}

// Descend обходит уровни сверху вниз
func (l *Ladder) Descend(fn func(*Level) bool) {
	l.levels.Descend(func(item btree.Item) bool {
		return fn(item.(*Level))
	})
}

// TotalVolume сумма объемов всех уровней
func (l *Ladder) TotalVolume() int64 {
	var total int64
	l.Ascend(func(lv *Level) bool {
		total += lv.VolumeAtPrice
		return true
	})
	return total
}

// POC уровень с максимальным объемом; при равенстве остается нижний
func (l *Ladder) POC() (price float64, volume int64) {
	var best *Level
	l.Ascend(func(lv *Level) bool {
		if best == nil || lv.VolumeAtPrice > best.VolumeAtPrice {
			best = lv
		}
		return true
	})
	if best == nil {
		return 0, 0
	}
	return best.Price, best.VolumeAtPrice
}

// HighDelta сумма дельты двух верхних уровней
func (l *Ladder) HighDelta() int64 {
	var sum int64
	n := 0
	l.Descend(func(lv *Level) bool {
		sum += lv.DeltaAtPrice
		n++
		return n < 2
	})
	return sum
}

// LowDelta сумма дельты двух нижних уровней
func (l *Ladder) LowDelta() int64 {
	var sum int64
	n := 0
	l.Ascend(func(lv *Level) bool {
		sum += lv.DeltaAtPrice
		n++
		return n < 2
	})
	return sum
}

// ImbalanceCounts пересчитывает флаги дисбаланса по всей лестнице
func (l *Ladder) ImbalanceCounts() (buy, sell int) {
	l.Ascend(func(lv *Level) bool {
		if lv.IsBuyImbalance {
			buy++
		}
		if lv.IsSellImbalance {
			sell++
		}
		return true
	})
	return buy, sell
}

// Update добавляет объем сделки на уровень price и пересчитывает флаги
// дисбаланса затронутых уровней. Возвращает изменение счетчиков
// дисбаланса на покупку и продажу.
func (l *Ladder) Update(price float64, bidVolume, askVolume int64, ratio float64) (buyDelta, sellDelta int) {
	tick := l.instrument.ToTicks(price)
	lv, ok := l.Get(tick)
	if !ok {
		lv = &Level{Tick: tick, Price: l.instrument.ToPrice(tick)}
		l.levels.ReplaceOrInsert(lv)
	}
	lv.BidVolume += bidVolume
	lv.AskVolume += askVolume
	lv.VolumeAtPrice += bidVolume + askVolume
	lv.DeltaAtPrice += askVolume - bidVolume

	if l.levels.Len() < 2 {
		return 0, 0
	}

	// Соседний уровень, которого нет в лестнице, считается нулевым;
	// его собственный флаг не проверяется, так как пустой уровень
	// не может стать дисбалансом.
	up, hasUp := l.Get(tick + 1)
	down, hasDown := l.Get(tick - 1)
	var upAsk, downBid int64
	if hasUp {
		upAsk = up.AskVolume
	}
	if hasDown {
		downBid = down.BidVolume
	}

	isMin := l.Min().Tick == tick
	isMax := l.Max().Tick == tick

	switch {
	case isMin:
		sellDelta += checkAndUpdate(&lv.IsSellImbalance, lv.BidVolume, upAsk, ratio)
		if hasUp {
			buyDelta += checkAndUpdate(&up.IsBuyImbalance, up.AskVolume, lv.BidVolume, ratio)
		}
	case isMax:
		buyDelta += checkAndUpdate(&lv.IsBuyImbalance, lv.AskVolume, downBid, ratio)
		if hasDown {
			sellDelta += checkAndUpdate(&down.IsSellImbalance, down.BidVolume, lv.AskVolume, ratio)
		}
	default:
		buyDelta += checkAndUpdate(&lv.IsBuyImbalance, lv.AskVolume, downBid, ratio)
		sellDelta += checkAndUpdate(&lv.IsSellImbalance, lv.BidVolume, upAsk, ratio)
		if hasUp {
			buyDelta += checkAndUpdate(&up.IsBuyImbalance, up.AskVolume, lv.BidVolume, ratio)
		}
		if hasDown {
			sellDelta += checkAndUpdate(&down.IsSellImbalance, down.BidVolume, lv.AskVolume, ratio)
		}
	}

	return buyDelta, sellDelta
}

// checkAndUpdate выставляет флаг дисбаланса и возвращает +1, -1 или 0
func checkAndUpdate(flag *bool, aggressive, passive int64, ratio float64) int {
	old := *flag
	next := false
	if passive == 0 && aggressive > 0 {
		next = true
	} else if passive > 0 && float64(aggressive)/float64(passive) >= ratio {
		next = true
	}
	*flag = next
	return boolToInt(next) - boolToInt(old)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MarshalJSON сериализует лестницу как массив строк по возрастанию цены
func (l *Ladder) MarshalJSON() ([]byte, error) {
	rows := make([]levelJSON, 0, l.Len())
	l.Ascend(func(lv *Level) bool {
		rows = append(rows, levelJSON{
			Price:           lv.Price,
			BidVolume:       lv.BidVolume,
			AskVolume:       lv.AskVolume,
			VolumeAtPrice:   lv.VolumeAtPrice,
			DeltaAtPrice:    lv.DeltaAtPrice,
			IsBuyImbalance:  lv.IsBuyImbalance,
			IsSellImbalance: lv.IsSellImbalance,
		})
		return true
	})
	return json.Marshal(rows)
}
