// Package ui holds the terminal pieces shared by the commands: a one-line
// prompt, syntax highlighting, clipboard access and table styles.
package ui

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned by Ask when the user presses Ctrl+C or Esc.
var ErrCancelled = errors.New("prompt cancelled")

// Prompter asks one question at a time on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// NewPrompter returns a prompter on stdin and stdout.
func NewPrompter() *Prompter {
	return &Prompter{In: os.Stdin, Out: os.Stdout}
}

// Ask shows question and returns the trimmed answer.
func (p *Prompter) Ask(question string) (string, error) {
	prog := tea.NewProgram(newPromptModel(question), tea.WithInput(p.In), tea.WithOutput(p.Out))
	final, err := prog.Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok {
		return "", fmt.Errorf("prompt failed: unexpected model %T", final)
	}
	if m.cancelled {
		return "", ErrCancelled
	}
	// The program clears its view on exit; echo the exchange so it stays
	// in the scrollback.
	fmt.Fprintf(p.Out, "%s%s\n", QuestionStyle.Render(question), m.answer)
	return m.answer, nil
}

type promptModel struct {
	question  string
	input     textinput.Model
	answer    string
	done      bool
	cancelled bool
}

func newPromptModel(question string) promptModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 1024
	ti.Width = 60
	ti.PromptStyle = PromptStyle
	ti.Focus()
	return promptModel{question: question, input: ti}
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.answer = strings.TrimSpace(m.input.Value())
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.done {
		return ""
	}
	return QuestionStyle.Render(m.question) + "\n" + m.input.View() + "\n"
}
