package volumedelta

const (
	// ShortWindow короткое окно наклона и расхождения
	ShortWindow = 5
	// LongWindow длинное окно расхождения
	LongWindow = 10
)

// Tail хранит последние size значений ряда
type Tail struct {
	ring  []float64
	count int
}

// NewTail создает кольцо на size значений
func NewTail(size int) *Tail {
	if size < 1 {
		size = LongWindow
	}
	return &Tail{ring: make([]float64, size)}
}

// Push добавляет значение, вытесняя самое старое
func (t *Tail) Push(v float64) {
	t.ring[t.count%len(t.ring)] = v
	t.count++
}

// Len количество хранимых значений
func (t *Tail) Len() int {
	return min(t.count, len(t.ring))
}

// Values значения от старого к новому
func (t *Tail) Values() []float64 {
	n := t.Len()
	out := make([]float64, n)
	start := t.count - n
	for i := range out {
		out[i] = t.ring[(start+i)%len(t.ring)]
	}
	return out
}
