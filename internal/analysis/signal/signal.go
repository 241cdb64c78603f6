package signal

import "fmt"

// Kind направление сигнала бара
type Kind int

const (
	None Kind = 0
	Sell Kind = 1
	Buy  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "none"
}

// Slot одноразовый слот сигнала бара: либо пуст, либо содержит
// направление и индекс тика, на котором сигнал возник
type Slot struct {
	set    bool
	kind   Kind
	tickID int64
}

// Set заполняет слот; повторный вызов возвращает ошибку
func (s *Slot) Set(kind Kind, tickIndex int64) error {
	if s.set {
		return fmt.Errorf("сигнал бара уже выставлен: %s@%d", s.kind, s.tickID)
	}
	if kind == None {
		return fmt.Errorf("пустой сигнал не может быть выставлен")
	}
	s.set = true
	s.kind = kind
	s.tickID = tickIndex
	return nil
}

// IsSet true, если сигнал уже решен
func (s Slot) IsSet() bool {
	return s.set
}

// Kind направление или None
func (s Slot) Kind() Kind {
	return s.kind
}

// TickIndex индекс тика сигнала или -1
func (s Slot) TickIndex() int64 {
	if !s.set {
		return -1
	}
	return s.tickID
}

// Fields поля для сериализации: signal, signalID, signalStatus
func (s Slot) Fields() (kind int, id int64, status bool) {
	return int(s.kind), s.TickIndex(), s.set
}
