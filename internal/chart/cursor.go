package chart

import "errors"

var (
	// ErrNoOpenWeek день открывается без недели
	ErrNoOpenWeek = errors.New("нет открытой недели")
	// ErrNoOpenDay бар открывается без дня
	ErrNoOpenDay = errors.New("нет открытого дня")
	// ErrNoOpenBar операция требует открытого бара
	ErrNoOpenBar = errors.New("нет открытого бара")
)

// Cursor хранит индексы текущих недели, дня и бара контракта.
// Закрытие и открытие периода выполняются раздельно.
type Cursor struct {
	contract *Contract
	week     int
	day      int
	bar      int
}

// NewCursor курсор на пустой контракт
func NewCursor(c *Contract) *Cursor {
	return &Cursor{contract: c, week: -1, day: -1, bar: -1}
}

// Contract дерево, по которому движется курсор
func (c *Cursor) Contract() *Contract {
	return c.contract
}

// Week текущая неделя или nil
func (c *Cursor) Week() *Week {
	if c.week < 0 {
		return nil
	}
	return c.contract.Weeks[c.week]
}

// Day текущий день или nil
func (c *Cursor) Day() *Day {
	w := c.Week()
	if w == nil || c.day < 0 {
		return nil
	}
	return w.Days[c.day]
}

// Bar текущий бар или nil
func (c *Cursor) Bar() *Bar {
	d := c.Day()
	if d == nil || c.bar < 0 {
		return nil
	}
	return d.Bars[c.bar]
}

// PrevDay предыдущий непустой день, в том числе из прошлой недели
func (c *Cursor) PrevDay() *Day {
	w, d := c.week, c.day-1
	for w >= 0 {
		days := c.contract.Weeks[w].Days
		if d >= len(days) {
			d = len(days) - 1
		}
		for ; d >= 0; d-- {
			if len(days[d].Bars) > 0 {
				return days[d]
			}
		}
		w--
		if w >= 0 {
			d = len(c.contract.Weeks[w].Days) - 1
		}
	}
	return nil
}

// PrevWeek предыдущая неделя или nil
func (c *Cursor) PrevWeek() *Week {
	if c.week < 1 {
		return nil
	}
	return c.contract.Weeks[c.week-1]
}

// OpenWeek добавляет неделю и делает ее текущей
func (c *Cursor) OpenWeek(w *Week) {
	c.contract.Weeks = append(c.contract.Weeks, w)
	c.week = len(c.contract.Weeks) - 1
	c.day, c.bar = -1, -1
}

// OpenDay добавляет день в текущую неделю
func (c *Cursor) OpenDay(d *Day) error {
	w := c.Week()
	if w == nil {
		return ErrNoOpenWeek
	}
	w.Days = append(w.Days, d)
	c.day = len(w.Days) - 1
	c.bar = -1
	return nil
}

// OpenBar добавляет бар в текущий день
func (c *Cursor) OpenBar(b *Bar) error {
	d := c.Day()
	if d == nil {
		return ErrNoOpenDay
	}
	d.Bars = append(d.Bars, b)
	c.bar = len(d.Bars) - 1
	return nil
}

// CloseBar помечает текущий бар закрытым
func (c *Cursor) CloseBar() (*Bar, error) {
	b := c.Bar()
	if b == nil {
		return nil, ErrNoOpenBar
	}
	b.Closed = true
	return b, nil
}

// Finalize удаляет пустые хвостовые дни и недели
func (c *Cursor) Finalize() {
	weeks := c.contract.Weeks
	for len(weeks) > 0 {
		w := weeks[len(weeks)-1]
		for len(w.Days) > 0 && len(w.Days[len(w.Days)-1].Bars) == 0 {
			w.Days = w.Days[:len(w.Days)-1]
		}
		if len(w.Days) > 0 {
			break
		}
		weeks = weeks[:len(weeks)-1]
	}
	c.contract.Weeks = weeks

	c.week = len(weeks) - 1
	c.day, c.bar = -1, -1
	if w := c.Week(); w != nil {
		c.day = len(w.Days) - 1
		if d := c.Day(); d != nil {
			c.bar = len(d.Bars) - 1
		}
	}
}
