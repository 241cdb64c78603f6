package exchange

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/skalibog/footprint/pkg/logger"
	"github.com/skalibog/footprint/pkg/models"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

func TestAggTradeTickSides(t *testing.T) {
	inst := models.NewInstrument(0.1)
	ts := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)

	sell, err := aggTradeTick(&futures.AggTrade{
		AggTradeID: 7, Price: "84012.37", Quantity: "0.015", Timestamp: ts.UnixMilli(), IsBuyerMaker: true,
	}, inst, 1000)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if sell.Price != 84012.4 || sell.BidVolume != 15 || sell.AskVolume != 0 || !sell.Timestamp.Equal(ts) {
		t.Fatalf("unexpected sell tick %+v", sell)
	}

	buy, err := aggTradeTick(&futures.AggTrade{AggTradeID: 8, Price: "84012.30", Quantity: "2", Timestamp: ts.UnixMilli()}, inst, 1000)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if buy.AskVolume != 2000 || buy.BidVolume != 0 || buy.Delta() != 2000 {
		t.Fatalf("unexpected buy tick %+v", buy)
	}

	if _, err := aggTradeTick(&futures.AggTrade{Price: "n/a", Quantity: "1"}, inst, 1); err == nil {
		t.Fatal("expected price error")
	}
}

// fakeFeed отдает сделки из памяти с учетом окна и лимита
type fakeFeed struct {
	trades []*futures.AggTrade
	calls  int
}

func (f *fakeFeed) fetch(_ context.Context, start, end time.Time, limit int) ([]*futures.AggTrade, error) {
	f.calls++
	var out []*futures.AggTrade
	for _, tr := range f.trades {
		if tr.Timestamp < start.UnixMilli() || tr.Timestamp >= end.UnixMilli() {
			continue
		}
		out = append(out, tr)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func TestFetchDayPagesThroughWindows(t *testing.T) {
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	feed := &fakeFeed{}
	for i := 0; i < 10; i++ {
		feed.trades = append(feed.trades, &futures.AggTrade{
			AggTradeID: int64(i + 1),
			Price:      "100.0",
			Quantity:   "1",
			Timestamp:  day.Add(time.Duration(i) * 25 * time.Minute).UnixMilli(),
		})
	}
	c := &BinanceClient{fetch: feed.fetch, instrument: models.NewInstrument(0.25), scale: 1, limit: 2}

	ticks, err := c.FetchDay(context.Background(), day.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("fetch day: %v", err)
	}
	if len(ticks) != 10 {
		t.Fatalf("got %d ticks, want 10", len(ticks))
	}
	for i, tick := range ticks {
		if tick.ID != int64(i+1) {
			t.Fatalf("tick %d has id %d", i, tick.ID)
		}
	}
	if feed.calls < 24 {
		t.Fatalf("expected hourly windows, got %d calls", feed.calls)
	}

	first, err := c.FetchFirstTick(context.Background(), day.Add(30*time.Minute))
	if err != nil || first == nil || first.ID != 3 {
		t.Fatalf("first tick %+v, err %v", first, err)
	}
}
