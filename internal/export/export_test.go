package export

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/skalibog/footprint/internal/chart"
)

func TestEncodeContract(t *testing.T) {
	data, err := Encode(chart.NewContract("ESZ5"), false)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["contractName"] != "ESZ5" {
		t.Fatalf("unexpected payload %s", data)
	}

	indented, err := Encode(chart.NewContract("ESZ5"), true)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(indented), "\n  ") {
		t.Fatalf("expected indented output: %s", indented)
	}
}

func TestFileSinkWritesAtomically(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := FileSink{Dir: dir, File: "contract.json"}
	p := Payload{RunID: "r1", Contract: chart.NewContract("ESZ5"), JSON: []byte(`{"contractName":"ESZ5"}`)}

	if err := sink.Write(context.Background(), p); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(sink.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != string(p.JSON) {
		t.Fatalf("file content %s", data)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

type fakeSink struct {
	name  string
	err   error
	calls *atomic.Int32
}

func (s fakeSink) Name() string { return s.name }

func (s fakeSink) Write(ctx context.Context, _ Payload) error {
	s.calls.Add(1)
	return s.err
}

func TestExportRunsAllSinks(t *testing.T) {
	var calls atomic.Int32
	p := Payload{RunID: "r1", Contract: chart.NewContract("ESZ5")}

	err := Export(context.Background(), p, fakeSink{name: "a", calls: &calls}, fakeSink{name: "b", calls: &calls})
	if err != nil || calls.Load() != 2 {
		t.Fatalf("err %v, calls %d", err, calls.Load())
	}

	boom := errors.New("boom")
	err = Export(context.Background(), p, fakeSink{name: "bad", err: boom, calls: &calls})
	if !errors.Is(err, boom) || !strings.HasPrefix(err.Error(), "bad: ") {
		t.Fatalf("got %v", err)
	}
}

type recordingWriter struct {
	measurement, runID string
}

func (w *recordingWriter) WriteBars(_ context.Context, _ *chart.Contract, measurement, runID string) error {
	w.measurement, w.runID = measurement, runID
	return nil
}

func TestBarSinkPassesRunID(t *testing.T) {
	w := &recordingWriter{}
	sink := BarSink{Writer: w, Measurement: "range_bars"}
	if err := sink.Write(context.Background(), Payload{RunID: "r9", Contract: chart.NewContract("ESZ5")}); err != nil {
		t.Fatal(err)
	}
	if w.measurement != "range_bars" || w.runID != "r9" {
		t.Fatalf("writer got %+v", w)
	}
}

func TestObjectKeyAndRunID(t *testing.T) {
	if got := objectKey("footprint", "ESZ5", "abc"); got != "footprint/ESZ5/abc.json" {
		t.Fatalf("key %s", got)
	}
	if got := objectKey("", "ESZ5", "abc"); got != "ESZ5/abc.json" {
		t.Fatalf("key %s", got)
	}
	if _, err := uuid.Parse(NewRunID()); err != nil {
		t.Fatalf("run id: %v", err)
	}
}
