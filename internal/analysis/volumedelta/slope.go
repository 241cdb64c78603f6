package volumedelta

import "math"

// Slope наклон линейной регрессии values по индексу 0..n-1
func Slope(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumX, sumX2 := regressionConstants(n)
	var sumY, sumXY float64
	for i, y := range values {
		sumY += y
		sumXY += float64(i) * y
	}
	N := float64(n)
	return (N*sumXY - sumX*sumY) / (N*sumX2 - sumX*sumX)
}

// regressionConstants суммы x и x^2 для x = 0..n-1
func regressionConstants(n int) (sumX, sumX2 float64) {
	N := float64(n)
	sumX = N * (N - 1) / 2
	sumX2 = (N - 1) * N * (2*N - 1) / 6
	return sumX, sumX2
}

// TailSlope наклон по последним n значениям; 0 если значений меньше n
func TailSlope(values []float64, n int) float64 {
	if n < 2 || len(values) < n {
		return 0
	}
	return Slope(values[len(values)-n:])
}

// Divergence расхождение цены и кумулятивной дельты.
// AvgAbsDelta сглаженное среднее |дельты| бара: avg = (avg*9 + |d|) / 10.
type Divergence struct {
	AvgAbsDelta float64
}

// Observe обновляет среднее |дельты| закрытого бара
func (d *Divergence) Observe(delta float64) {
	abs := math.Abs(delta)
	if d.AvgAbsDelta == 0 {
		d.AvgAbsDelta = abs
		return
	}
	d.AvgAbsDelta = (d.AvgAbsDelta*9 + abs) / 10
}

// Score разница углов наклона CVD и цены в градусах по последним n барам.
// Положительное значение означает бычье расхождение, отрицательное медвежье.
func (d *Divergence) Score(closes, cvd []float64, n int, barRange float64) float64 {
	if n < 2 || len(closes) < n || len(cvd) < n {
		return 0
	}
	pSlope := TailSlope(closes, n)
	cSlope := TailSlope(cvd, n)

	priceScale := 1.0
	if barRange > 0 {
		priceScale = 1 / barRange
	}
	cvdScale := 0.001
	if d.AvgAbsDelta > 0 {
		cvdScale = 1 / d.AvgAbsDelta
	}

	pAngle := math.Atan(pSlope*priceScale) * 180 / math.Pi
	cAngle := math.Atan(cSlope*cvdScale) * 180 / math.Pi
	return cAngle - pAngle
}
