package calendar

import (
	"fmt"
	"time"
)

// Week календарная неделя, начинающаяся с понедельника
type Week struct {
	Number int
	Start  time.Time
	End    time.Time
	Days   []time.Time
}

// Day отбрасывает время, оставляя полночь в UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate разбирает дату YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка парсинга даты %q: %w", s, err)
	}
	return t, nil
}

// mondayOf понедельник недели, в которую входит t
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// Weeks разбивает [start, end] на недели по понедельникам.
// Дни вне диапазона в недели не попадают.
func Weeks(start, end time.Time) ([]Week, error) {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("конец диапазона %s раньше начала %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	var weeks []Week
	for monday := mondayOf(start); !monday.After(end); monday = monday.AddDate(0, 0, 7) {
		w := Week{
			Number: len(weeks) + 1,
			Start:  monday,
			End:    monday.AddDate(0, 0, 6),
		}
		for i := 0; i < 7; i++ {
			d := monday.AddDate(0, 0, i)
			if d.Before(start) || d.After(end) {
				continue
			}
			w.Days = append(w.Days, d)
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}
