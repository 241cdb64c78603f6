package signal

// Rule пороги правила сигнала
type Rule struct {
	Enabled       bool
	MinVolume     int64
	MinImbalances int
	MinDelta      int64
}

// Snapshot состояние бара, по которому проверяется правило
type Snapshot struct {
	Volume         int64
	Delta          int64
	BuyImbalances  int
	SellImbalances int
}

// Evaluate возвращает направление сигнала или None
func (r Rule) Evaluate(s Snapshot) Kind {
	if !r.Enabled || s.Volume < r.MinVolume {
		return None
	}
	if s.BuyImbalances >= r.MinImbalances && s.Delta >= r.MinDelta && s.Delta > 0 {
		return Buy
	}
	if s.SellImbalances >= r.MinImbalances && -s.Delta >= r.MinDelta && s.Delta < 0 {
		return Sell
	}
	return None
}

// Apply проверяет правило только пока слот пуст
func (r Rule) Apply(slot *Slot, s Snapshot, tickIndex int64) bool {
	if slot.IsSet() {
		return false
	}
	kind := r.Evaluate(s)
	if kind == None {
		return false
	}
	return slot.Set(kind, tickIndex) == nil
}
