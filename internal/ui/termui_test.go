package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/skalibog/footprint/internal/analysis/aggregator"
	"github.com/skalibog/footprint/internal/chart"
	"github.com/skalibog/footprint/pkg/models"
)

func sampleSummary() Summary {
	inst := models.NewInstrument(0.25)
	c := chart.NewContract("ESZ5")
	mon := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	w := chart.NewWeek(inst, mon, 100)
	for i := 0; i < 2; i++ {
		d := chart.NewDay(inst, mon.AddDate(0, 0, i), 100, 20, time.Hour, mon)
		d.TotalVolume = int64(100 * (i + 1))
		d.CumulativeDelta = int64(-5 + 10*i)
		bar := chart.NewBar(inst, 100, mon)
		bar.TotalVolume = 7
		d.Bars = append(d.Bars, bar)
		w.Days = append(w.Days, d)
	}
	c.Weeks = append(c.Weeks, w)
	return Summary{RunID: "run-1", Contract: c, Stats: aggregator.Stats{Ticks: 42, SkippedDays: 1}, Elapsed: time.Second}
}

func TestRenderReport(t *testing.T) {
	out := RenderReport(sampleSummary())
	for _, want := range []string{"Footprint ESZ5", "run-1", "2025-03-03", "2025-03-04", "Тиков: 42"} {
		if !strings.Contains(out, want) {
			t.Errorf("report lacks %q", want)
		}
	}
}

func TestRenderReportWithoutData(t *testing.T) {
	out := RenderReport(Summary{Contract: chart.NewContract("ESZ5")})
	if !strings.Contains(out, "Нет данных") {
		t.Fatalf("expected empty marker:\n%s", out)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowserNavigation(t *testing.T) {
	b := NewBrowser(sampleSummary(), "")

	b.Update(key("up"))
	if b.selected != 0 {
		t.Fatalf("selected %d after up at top", b.selected)
	}
	b.Update(key("down"))
	b.Update(key("down"))
	if b.selected != 1 {
		t.Fatalf("selected %d, want clamp at 1", b.selected)
	}

	if strings.Contains(b.View(), "БАРЫ") {
		t.Fatal("detail shown before enter")
	}
	b.Update(key("enter"))
	if !strings.Contains(b.View(), "БАРЫ 2025-03-04") {
		t.Fatalf("detail for selected day missing:\n%s", b.View())
	}

	_, cmd := b.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should produce QuitMsg")
	}
}

func TestTailLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.json.log")
	lines := []string{
		`{"level":"info","ts":"03.03.2025 - 09:30:00.000000000+00:00","msg":"Начат новый день"}`,
		`plain text`,
		`{"level":"warn","ts":"03.03.2025 - 09:31:00.000000000+00:00","msg":"день пропущен"}`,
	}
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	logs, err := tailLogs(path, 2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if len(logs) != 2 || logs[0] != "plain text" || logs[1] != "[09:31:00] [WARN] день пропущен" {
		t.Fatalf("unexpected logs %q", logs)
	}

	missing, err := tailLogs(filepath.Join(t.TempDir(), "none.log"), 5)
	if err != nil || missing != nil {
		t.Fatalf("missing file: %v %v", missing, err)
	}

	b := NewBrowser(sampleSummary(), path)
	b.Update(key("l"))
	if !strings.Contains(b.View(), "день пропущен") {
		t.Fatal("logs section missing")
	}
}
