package profile

import (
	"github.com/google/btree"
	"github.com/skalibog/footprint/internal/analysis/footprint"
	"github.com/skalibog/footprint/pkg/models"
)

// ValueAreaShare доля объема внутри value area
const ValueAreaShare = 0.70

// Result уровни объемного профиля
type Result struct {
	POC   float64
	VAH   float64
	VAL   float64
	HVN   float64 // второй по объему уровень
	Total int64
}

type node struct {
	tick   int64
	volume int64
}

func (n *node) Less(than btree.Item) bool {
	return n.tick < than.(*node).tick
}

// Accumulator накапливает объем по ценам за день или неделю
type Accumulator struct {
	instrument models.Instrument
	share      float64
	nodes      *btree.BTree
	total      int64
}

// NewAccumulator создает пустой профиль
func NewAccumulator(instrument models.Instrument) *Accumulator {
	return &Accumulator{
		instrument: instrument,
		share:      ValueAreaShare,
		nodes:      btree.New(16),
	}
}

// WithValueArea задает долю value area (0..1]
func (a *Accumulator) WithValueArea(share float64) *Accumulator {
	if share > 0 && share <= 1 {
		a.share = share
	}
	return a
}

// Len количество ценовых уровней профиля
func (a *Accumulator) Len() int {
	return a.nodes.Len()
}

// Total суммарный объем профиля
func (a *Accumulator) Total() int64 {
	return a.total
}

// Add добавляет объем на уровень tick
func (a *Accumulator) Add(tick, volume int64) {
	if item := a.nodes.Get(&node{tick: tick}); item != nil {
		item.(*node).volume += volume
	} else {
		a.nodes.ReplaceOrInsert(&node{tick: tick, volume: volume})
	}
	a.total += volume
}

// Merge добавляет все уровни футпринта бара
func (a *Accumulator) Merge(ladder *footprint.Ladder) {
	if ladder == nil {
		return
	}
	ladder.Ascend(func(lv *footprint.Level) bool {
		a.Add(lv.Tick, lv.BidVolume+lv.AskVolume)
		return true
	})
}

// Solve рассчитывает POC, value area и второй по объему уровень
func (a *Accumulator) Solve() Result {
	if a.nodes.Len() == 0 || a.total == 0 {
		return Result{}
	}

	var (
		maxVolume, secondVolume int64
		poc, hvn                *node
	)
	a.nodes.Ascend(func(item btree.Item) bool {
		n := item.(*node)
		if n.volume > maxVolume {
			secondVolume = maxVolume
			hvn = poc
			maxVolume = n.volume
			poc = n
		} else if n.volume > secondVolume {
			secondVolume = n.volume
			hvn = n
		}
		return true
	})

	target := a.share * float64(a.total)
	current := maxVolume
	vah, val := poc, poc

	for float64(current) < target {
		above := a.next(vah)
		below := a.prev(val)
		if above == nil && below == nil {
			break
		}

		var volAbove, volBelow int64
		if above != nil {
			volAbove = above.volume
		}
		if below != nil {
			volBelow = below.volume
		}

		// при равенстве расширяемся вниз
		if above != nil && (below == nil || volAbove > volBelow) {
			current += volAbove
			vah = above
		} else {
			current += volBelow
			val = below
		}
	}

	res := Result{
		POC:   a.instrument.ToPrice(poc.tick),
		VAH:   a.instrument.ToPrice(vah.tick),
		VAL:   a.instrument.ToPrice(val.tick),
		Total: a.total,
	}
	if hvn != nil {
		res.HVN = a.instrument.ToPrice(hvn.tick)
	}
	return res
}

func (a *Accumulator) next(n *node) *node {
	var out *node
	a.nodes.AscendGreaterOrEqual(&node{tick: n.tick + 1}, func(item btree.Item) bool {
		out = item.(*node)
		return false
	})
	return out
}

func (a *Accumulator) prev(n *node) *node {
	var out *node
	a.nodes.DescendLessOrEqual(&node{tick: n.tick - 1}, func(item btree.Item) bool {
		out = item.(*node)
		return false
	})
	return out
}

// FromLadders строит профиль сразу по набору футпринтов
func FromLadders(instrument models.Instrument, ladders ...*footprint.Ladder) Result {
	acc := NewAccumulator(instrument)
	for _, l := range ladders {
		acc.Merge(l)
	}
	return acc.Solve()
}
