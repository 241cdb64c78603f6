package signal

import "testing"

func TestEmptySlot(t *testing.T) {
	var s Slot
	kind, id, status := s.Fields()
	if kind != 0 || id != -1 || status {
		t.Fatalf("empty slot fields: %d %d %v", kind, id, status)
	}
}

func TestSlotIsOneShot(t *testing.T) {
	var s Slot
	if err := s.Set(Buy, 42); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(Sell, 43); err == nil {
		t.Fatal("second set must fail")
	}
	if s.Kind() != Buy || s.TickIndex() != 42 {
		t.Fatalf("slot changed: %v@%d", s.Kind(), s.TickIndex())
	}
	if err := (&Slot{}).Set(None, 1); err == nil {
		t.Fatal("none must be rejected")
	}
}

func TestRuleEvaluate(t *testing.T) {
	rule := Rule{Enabled: true, MinVolume: 100, MinImbalances: 2, MinDelta: 50}
	tests := []struct {
		name string
		snap Snapshot
		want Kind
	}{
		{"low volume", Snapshot{Volume: 99, Delta: 80, BuyImbalances: 3}, None},
		{"buy", Snapshot{Volume: 150, Delta: 60, BuyImbalances: 2}, Buy},
		{"buy needs imbalances", Snapshot{Volume: 150, Delta: 60, BuyImbalances: 1}, None},
		{"sell", Snapshot{Volume: 150, Delta: -70, SellImbalances: 4}, Sell},
		{"sell needs delta", Snapshot{Volume: 150, Delta: -10, SellImbalances: 4}, None},
	}
	for _, tt := range tests {
		if got := rule.Evaluate(tt.snap); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}

	if (Rule{}).Evaluate(Snapshot{Volume: 1000, Delta: 1000, BuyImbalances: 10}) != None {
		t.Fatal("disabled rule must not fire")
	}
}

func TestRuleApplyOnlyWhileUnset(t *testing.T) {
	rule := Rule{Enabled: true, MinVolume: 1, MinImbalances: 1, MinDelta: 1}
	var s Slot
	if !rule.Apply(&s, Snapshot{Volume: 10, Delta: 5, BuyImbalances: 1}, 7) {
		t.Fatal("expected buy")
	}
	if rule.Apply(&s, Snapshot{Volume: 10, Delta: -5, SellImbalances: 1}, 8) {
		t.Fatal("slot already decided")
	}
	if s.Kind() != Buy || s.TickIndex() != 7 {
		t.Fatalf("slot = %v@%d", s.Kind(), s.TickIndex())
	}
}
