package collector

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Verbosity is the console output level.
type Verbosity int

const (
	// VerbosityQuiet shows only warnings, errors and the final summary
	VerbosityQuiet Verbosity = iota
	// VerbosityNormal shows capture progress (default)
	VerbosityNormal
	// VerbosityVerbose adds per-step details
	VerbosityVerbose
	// VerbosityDebug shows everything
	VerbosityDebug
)

// ParseVerbosity maps a configured name to a level.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return VerbosityQuiet, true
	case "", "normal":
		return VerbosityNormal, true
	case "verbose":
		return VerbosityVerbose, true
	case "debug":
		return VerbosityDebug, true
	}
	return VerbosityNormal, false
}

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	mintGreen   = lipgloss.Color("#A8E6CF")
	amber       = lipgloss.Color("#FFD479")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")

	headerStyle  = lipgloss.NewStyle().Foreground(brightWhite).Bold(true)
	sectionStyle = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(mintGreen).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(salmonPink)
	warnStyle    = lipgloss.NewStyle().Foreground(amber)
	errorStyle   = lipgloss.NewStyle().Foreground(salmonPink).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(mutedGray)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 2)
)

// Console prints human-facing progress. It is separate from the run log:
// everything printed here is also logged, but not the other way round.
type Console struct {
	level  Verbosity
	writer io.Writer

	mu        sync.Mutex
	stepCount int
}

// NewConsole creates a console writing to w (stdout when nil).
func NewConsole(w io.Writer, level Verbosity) *Console {
	if w == nil {
		w = os.Stdout
	}
	return &Console{level: level, writer: w}
}

// Level returns the console verbosity.
func (c *Console) Level() Verbosity {
	return c.level
}

func (c *Console) println(min Verbosity, s string) {
	if c.level < min {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, s)
}

// Header prints a prominent header
func (c *Console) Header(message string) {
	rule := strings.Repeat("=", 60)
	c.println(VerbosityNormal, "\n"+headerStyle.Render(rule)+"\n"+headerStyle.Render("  "+message)+"\n"+headerStyle.Render(rule))
}

// Section prints a section divider
func (c *Console) Section(title string) {
	c.println(VerbosityNormal, "\n"+sectionStyle.Render("▶ "+title)+"\n"+dimStyle.Render(strings.Repeat("─", 50)))
}

// Step prints a numbered step
func (c *Console) Step(message string) {
	if c.level < VerbosityNormal {
		return
	}
	c.mu.Lock()
	c.stepCount++
	n := c.stepCount
	c.mu.Unlock()
	c.println(VerbosityNormal, sectionStyle.Render(fmt.Sprintf("[%d] %s", n, message)))
}

// Successf prints a success line
func (c *Console) Successf(format string, args ...interface{}) {
	c.println(VerbosityNormal, successStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Infof prints an informational line
func (c *Console) Infof(format string, args ...interface{}) {
	c.println(VerbosityNormal, infoStyle.Render(fmt.Sprintf(format, args...)))
}

// Printf prints an unstyled line at normal verbosity.
func (c *Console) Printf(format string, args ...interface{}) {
	c.println(VerbosityNormal, fmt.Sprintf(format, args...))
}

// Warningf prints a warning; shown at every level
func (c *Console) Warningf(format string, args ...interface{}) {
	c.println(VerbosityQuiet, warnStyle.Render("⚠ Warning: "+fmt.Sprintf(format, args...)))
}

// Errorf prints an error; shown at every level
func (c *Console) Errorf(format string, args ...interface{}) {
	c.println(VerbosityQuiet, errorStyle.Render("✗ Error: "+fmt.Sprintf(format, args...)))
}

// Verbosef prints details in verbose mode
func (c *Console) Verbosef(format string, args ...interface{}) {
	c.println(VerbosityVerbose, dimStyle.Render("→ "+fmt.Sprintf(format, args...)))
}

// Debugf prints internals in debug mode
func (c *Console) Debugf(format string, args ...interface{}) {
	c.println(VerbosityDebug, dimStyle.Render("[DEBUG] "+fmt.Sprintf(format, args...)))
}

// Summary prints the end-of-run box. It is shown at every level.
func (c *Console) Summary(outputDir string, m *Metadata) {
	var b strings.Builder
	b.WriteString(successStyle.Render("Collection finished"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Output:     %s\n", outputDir)
	fmt.Fprintf(&b, "Pages:      %d of %d\n", len(m.CollectedPages), m.TotalPages)
	fmt.Fprintf(&b, "Recordings: %d", len(m.Recordings))
	if len(m.Errors) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("Errors:     %d", len(m.Errors))))
	}
	if m.LogFile != "" {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Log:        " + m.LogFile))
	}
	c.println(VerbosityQuiet, "\n"+summaryBoxStyle.Render(b.String())+"\n")
}
