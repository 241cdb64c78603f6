package ui

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/skalibog/footprint/internal/analysis/aggregator"
	"github.com/skalibog/footprint/internal/chart"
)

// Стили UI
var (
	primaryColor   = lipgloss.Color("#0077cc")
	secondaryColor = lipgloss.Color("#333333")
	errorColor     = lipgloss.Color("#cc3300")
	successColor   = lipgloss.Color("#33cc33")
	warningColor   = lipgloss.Color("#cccc00")

	appStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(primaryColor).
			Padding(0, 1).
			Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(secondaryColor).
			Padding(0, 1)
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondaryColor).
			Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("#222222"))
	footerStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#999999")).
			Padding(0, 1)

	ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

// maxLogLines сколько строк лога держит браузер
const maxLogLines = 50

// detailBars сколько последних баров показывать в карточке дня
const detailBars = 12

// Summary итог прогона для отчета
type Summary struct {
	RunID    string
	Contract *chart.Contract
	Stats    aggregator.Stats
	Elapsed  time.Duration
}

type dayRow struct {
	week int
	day  *chart.Day
}

func flattenDays(c *chart.Contract) []dayRow {
	var rows []dayRow
	if c == nil {
		return rows
	}
	for wi, w := range c.Weeks {
		for _, d := range w.Days {
			rows = append(rows, dayRow{week: wi + 1, day: d})
		}
	}
	return rows
}

// RenderReport статический отчет по контракту
func RenderReport(s Summary) string {
	return appStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			renderTitle(s),
			"",
			renderStats(s),
			"",
			renderDays(flattenDays(s.Contract), -1),
		),
	)
}

func renderTitle(s Summary) string {
	name := ""
	if s.Contract != nil {
		name = s.Contract.Name
	}
	return titleStyle.Render(fmt.Sprintf("Footprint %s", name))
}

func renderStats(s Summary) string {
	weeks, days, bars := 0, 0, 0
	if s.Contract != nil {
		weeks, days, bars = s.Contract.Counts()
	}
	content := strings.Builder{}
	fmt.Fprintf(&content, "  Прогон:     %s\n", s.RunID)
	fmt.Fprintf(&content, "  Недель:     %d  Дней: %d  Пропущено: %d\n", weeks, days, s.Stats.SkippedDays)
	fmt.Fprintf(&content, "  Баров:      %d  Тиков: %d  Сигналов: %d\n", bars, s.Stats.Ticks, s.Stats.Signals)
	fmt.Fprintf(&content, "  Время:      %s", s.Elapsed.Round(time.Millisecond))
	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render("ПРОГОН"),
			content.String(),
		),
	)
}

func renderDays(rows []dayRow, selected int) string {
	content := strings.Builder{}
	if len(rows) == 0 {
		content.WriteString("  Нет данных\n")
	} else {
		content.WriteString(fmt.Sprintf("  %-4s %-10s %5s %9s %8s %10s %10s %10s %10s %6s\n",
			"Нед", "Дата", "Баров", "Объем", "Дельта", "VWAP", "POC", "VAH", "VAL", "RSI"))
	}
	for i, r := range rows {
		d := r.day
		rsi := "-"
		if v := d.RSIValue(); v != nil {
			rsi = fmt.Sprintf("%.1f", *v)
		}
		line := fmt.Sprintf("  %-4d %-10s %5d %9d %s %10.2f %10.2f %10.2f %10.2f %6s",
			r.week, d.Date.Format(time.DateOnly), len(d.Bars), d.TotalVolume,
			formatDelta(d.CumulativeDelta, 8), d.VWAP.Value, d.TPO.POC, d.TPO.VAH, d.TPO.VAL, rsi)
		if i == selected {
			line = selectedStyle.Render("> " + line[2:])
		}
		content.WriteString(line + "\n")
	}
	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render("ДНИ"),
			content.String(),
		),
	)
}

// formatDelta дельта с цветом по знаку
func formatDelta(delta int64, width int) string {
	text := fmt.Sprintf("%*d", width, delta)
	switch {
	case delta > 0:
		return lipgloss.NewStyle().Foreground(successColor).Render(text)
	case delta < 0:
		return lipgloss.NewStyle().Foreground(errorColor).Render(text)
	}
	return text
}

func formatSignal(b *chart.Bar) string {
	if !b.Signal.IsSet() {
		return ""
	}
	kind := b.Signal.Kind().String()
	style := lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	if kind == "buy" {
		style = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	}
	return style.Render(fmt.Sprintf("%s@%d", kind, b.Signal.TickIndex()))
}

func renderBars(d *chart.Day) string {
	content := strings.Builder{}
	start := 0
	if len(d.Bars) > detailBars {
		start = len(d.Bars) - detailBars
	}
	for _, b := range d.Bars[start:] {
		fmt.Fprintf(&content, "  %s %9.2f %9.2f %9.2f %9.2f %7d %s %3d/%-3d %s\n",
			b.EndTime.Format("15:04:05"), b.Open, b.High, b.Low, b.Close, b.TotalVolume,
			formatDelta(b.Delta, 6), b.BuyImbalanceCount, b.SellImbalanceCount, formatSignal(b))
	}
	if len(d.Bars) == 0 {
		content.WriteString("  Нет баров\n")
	}
	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render(fmt.Sprintf("БАРЫ %s", d.Date.Format(time.DateOnly))),
			content.String(),
		),
	)
}

func renderLogsSection(logs []string) string {
	content := strings.Builder{}
	for _, log := range logs {
		switch {
		case strings.Contains(log, "[ERROR]"):
			log = lipgloss.NewStyle().Foreground(errorColor).Render(log)
		case strings.Contains(log, "[INFO]"):
			log = lipgloss.NewStyle().Foreground(successColor).Render(log)
		case strings.Contains(log, "[WARN]"):
			log = lipgloss.NewStyle().Foreground(warningColor).Render(log)
		case strings.Contains(log, "[DEBUG]"):
			log = lipgloss.NewStyle().Foreground(lipgloss.Color("#9999ff")).Render(log)
		}
		content.WriteString("  " + log + "\n")
	}
	return sectionStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			headerStyle.Render("ЛОГИ"),
			content.String(),
		),
	)
}

// formatLogLine приводит строку JSON-лога zap к виду [время] [уровень] сообщение
func formatLogLine(line string) string {
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		return line
	}
	level, _ := entry["level"].(string)
	ts, _ := entry["ts"].(string)
	msg, _ := entry["msg"].(string)
	level = strings.ToUpper(ansiRegex.ReplaceAllString(level, ""))

	timestamp := ""
	if t, err := time.Parse("02.01.2006 - 15:04:05.999999999Z07:00", ts); err == nil {
		timestamp = t.Format("15:04:05")
	}
	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, msg)
}

// tailLogs последние n строк JSON-лога
func tailLogs(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var logs []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		logs = append(logs, formatLogLine(scanner.Text()))
		if len(logs) > n {
			logs = logs[1:]
		}
	}
	return logs, scanner.Err()
}

// Browser интерактивный просмотр дней контракта
type Browser struct {
	summary  Summary
	rows     []dayRow
	selected int
	detail   bool
	showLogs bool
	logs     []string
	logFile  string
}

// NewBrowser создает модель просмотра. logFile может быть пустым.
func NewBrowser(s Summary, logFile string) *Browser {
	b := &Browser{summary: s, rows: flattenDays(s.Contract), logFile: logFile}
	b.reloadLogs()
	return b
}

func (b *Browser) reloadLogs() {
	if b.logFile == "" {
		return
	}
	if logs, err := tailLogs(b.logFile, maxLogLines); err == nil {
		b.logs = logs
	}
}

// Start запускает интерфейс и блокируется до выхода
func (b *Browser) Start() error {
	if _, err := tea.NewProgram(b, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("ошибка запуска UI: %w", err)
	}
	return nil
}

// Методы для bubbletea
func (b *Browser) Init() tea.Cmd {
	return nil
}

func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return b, tea.Quit
		case "up", "k":
			b.selected = max(0, b.selected-1)
		case "down", "j":
			b.selected = max(0, min(len(b.rows)-1, b.selected+1))
		case "enter":
			b.detail = !b.detail
		case "l":
			b.showLogs = !b.showLogs
		case "r":
			b.reloadLogs()
		}
	}
	return b, nil
}

func (b *Browser) View() string {
	parts := []string{
		renderTitle(b.summary),
		renderStats(b.summary),
		renderDays(b.rows, b.selected),
	}
	if b.detail && b.selected < len(b.rows) {
		parts = append(parts, renderBars(b.rows[b.selected].day))
	}
	if b.showLogs {
		parts = append(parts, renderLogsSection(b.logs))
	}
	parts = append(parts, footerStyle.Render("Клавиши: ↑/↓ - навигация, Enter - бары дня, L - логи, R - перезагрузить логи, Q - выход"))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
