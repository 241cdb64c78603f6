package models

import "testing"

func TestInstrumentRoundTrip(t *testing.T) {
	inst := NewInstrument(0.25)
	cases := []struct {
		price float64
		ticks int64
	}{
		{0, 0},
		{0.25, 1},
		{100, 400},
		{4512.75, 18051},
		{-1.5, -6},
	}
	for _, tc := range cases {
		if got := inst.ToTicks(tc.price); got != tc.ticks {
			t.Errorf("ToTicks(%v) = %d, want %d", tc.price, got, tc.ticks)
		}
		if got := inst.ToPrice(tc.ticks); got != tc.price {
			t.Errorf("ToPrice(%d) = %v, want %v", tc.ticks, got, tc.price)
		}
	}
}

func TestInstrumentSnapsFloatNoise(t *testing.T) {
	inst := NewInstrument(0.25)
	a, b := 0.1, 0.2
	price := a + b + 99.95
	if got := inst.Snap(price); got != 100.25 {
		t.Fatalf("Snap = %v, want 100.25", got)
	}
}

func TestZeroInstrumentUsesDefault(t *testing.T) {
	var inst Instrument
	if got := inst.ToTicks(1); got != 4 {
		t.Fatalf("ToTicks(1) = %d, want 4", got)
	}
	if got := inst.Increment(); got != DefaultTickSize {
		t.Fatalf("Increment = %v", got)
	}
}

func TestParsePriceAndQuantity(t *testing.T) {
	inst := NewInstrument(0.1)
	p, err := inst.ParsePrice("65000.10")
	if err != nil {
		t.Fatalf("ParsePrice: %v", err)
	}
	if p != 65000.1 {
		t.Fatalf("ParsePrice = %v", p)
	}
	if _, err := inst.ParsePrice("abc"); err == nil {
		t.Fatal("expected error for malformed price")
	}

	q, err := ScaleQuantity("0.125", 1000)
	if err != nil {
		t.Fatalf("ScaleQuantity: %v", err)
	}
	if q != 125 {
		t.Fatalf("ScaleQuantity = %d, want 125", q)
	}
}

func TestTickVolumeAndDelta(t *testing.T) {
	tk := Tick{AskVolume: 7, BidVolume: 3}
	if tk.Volume() != 10 || tk.Delta() != 4 {
		t.Fatalf("volume=%d delta=%d", tk.Volume(), tk.Delta())
	}
}
