package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/sysmonitor/internal/config"
	"github.com/Dicklesworthstone/sysmonitor/internal/history"
	"github.com/Dicklesworthstone/sysmonitor/internal/model"
	"github.com/Dicklesworthstone/sysmonitor/internal/sampler"
)

// Model renders live samples from the sampler.
type Model struct {
	cfg       config.Config
	latest    model.Sample
	history   *history.Buffer
	stream    <-chan model.Sample
	ctxCancel context.CancelFunc
	width     int
	height    int
}

// New starts s streaming and returns a model consuming it. The model owns
// the CPU history. The stream stops when ctx is done or the user quits.
func New(ctx context.Context, cfg config.Config, s *sampler.Sampler) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		cfg:       cfg,
		latest:    model.Zero(),
		history:   history.New(cfg.HistorySize),
		stream:    s.Stream(ctx),
		ctxCancel: cancel,
		width:     120,
		height:    40,
	}
}

// Messages
type (
	sampleMsg  model.Sample
	streamDone struct{}
)

func waitForSample(ch <-chan model.Sample) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return streamDone{}
		}
		return sampleMsg(s)
	}
}

func (m *Model) Init() tea.Cmd { return waitForSample(m.stream) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.ctxCancel()
			return m, tea.Quit
		}
	case sampleMsg:
		m.record(model.Sample(msg))
		return m, waitForSample(m.stream)
	case streamDone:
		return m, tea.Quit
	}
	return m, nil
}

// record stores s as the latest sample and appends available CPU readings
// to the history.
func (m *Model) record(s model.Sample) {
	m.latest = s
	if s.CPU.Available() {
		m.history.Push(s.CPU.UsagePercent)
	}
}

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	sparkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	hotStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warmStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	coolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	fastStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	plainStyle  = lipgloss.NewStyle()
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("System Monitor") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006"))

	line1 := lipgloss.JoinHorizontal(lipgloss.Top,
		m.cpuCard(s), memoryCard(s.Memory))
	line2 := lipgloss.JoinHorizontal(lipgloss.Top,
		gpuCard(s.GPU), m.temperatureCard(s.CPU.TemperatureC))

	rows := []string{header, line1, line2}
	if cores := m.coresCard(s.CPU.CoreFreqMHz); cores != "" {
		rows = append(rows, cores)
	}
	rows = append(rows, subtleStyle.Render("q to quit"))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) cpuCard(s model.Sample) string {
	usage := "--"
	if s.CPU.Available() {
		usage = gaugeBar(s.CPU.UsagePercent, 28)
	}
	lines := []string{usage}

	meta := fmt.Sprintf("source %s", s.CPU.Source)
	if s.CPU.Source == model.SourceProcess {
		meta += " (approx.)"
	}
	if s.Processes > 0 {
		meta += fmt.Sprintf("  procs %d", s.Processes)
	}
	lines = append(lines, subtleStyle.Render(meta))

	if spark := sparkline(m.history.Values()); spark != "" {
		lines = append(lines, sparkStyle.Render(spark))
	}
	return card("CPU", strings.Join(lines, "\n"))
}

func memoryCard(mem model.Memory) string {
	if mem.TotalMB == 0 {
		return card("Memory", "N/A")
	}
	return card("Memory",
		fmt.Sprintf("%s\nused %d MB  total %d MB  free %d MB",
			gaugeBar(mem.Percent(), 28), mem.UsedMB, mem.TotalMB, mem.FreeMB()))
}

func gpuCard(gpu model.GPU) string {
	if gpu.FrequencyMHz <= 0 {
		return card("GPU", "Offline")
	}
	return card("GPU", fmt.Sprintf("%d MHz\n%s", gpu.FrequencyMHz, subtleStyle.Render("current frequency")))
}

func (m *Model) temperatureCard(tempC float64) string {
	if tempC <= 0 {
		return card("CPU Temperature", "N/A")
	}
	return card("CPU Temperature", m.tempStyle(tempC).Render(fmt.Sprintf("%.1f°C", tempC)))
}

func (m *Model) tempStyle(tempC float64) lipgloss.Style {
	switch {
	case tempC > m.cfg.Thresholds.HotC:
		return hotStyle
	case tempC > m.cfg.Thresholds.WarmC:
		return warmStyle
	default:
		return coolStyle
	}
}

// coreStyle highlights cores clocked above the fast-core threshold.
func (m *Model) coreStyle(mhz int) lipgloss.Style {
	if mhz > m.cfg.Thresholds.FastCoreMHz {
		return fastStyle
	}
	return plainStyle
}

func (m *Model) coresCard(freqs []int) string {
	if len(freqs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range freqs {
		val := "Offline"
		if f > 0 {
			val = fmt.Sprintf("%d MHz", f)
		}
		fmt.Fprintf(&b, "core %-2d %s", i, m.coreStyle(f).Render(fmt.Sprintf("%-9s", val)))
		if i%2 == 1 || i == len(freqs)-1 {
			b.WriteString("\n")
		} else {
			b.WriteString("  ")
		}
	}
	return card("Core Frequencies", strings.TrimRight(b.String(), "\n"))
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

// RunTUI starts the Bubble Tea program. Cancelling ctx stops sampling and
// ends the program.
func RunTUI(ctx context.Context, cfg config.Config, s *sampler.Sampler) error {
	m := New(ctx, cfg, s)
	defer m.ctxCancel()
	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
