package aggregator

// Recorder получает события прогона для метрик
type Recorder interface {
	TickProcessed()
	BarClosed()
	DayProcessed()
	DaySkipped()
	SignalSet(kind string)
}

type nopRecorder struct{}

func (nopRecorder) TickProcessed()   {}
func (nopRecorder) BarClosed()       {}
func (nopRecorder) DayProcessed()    {}
func (nopRecorder) DaySkipped()      {}
func (nopRecorder) SignalSet(string) {}
