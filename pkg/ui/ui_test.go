package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeRunes(t *testing.T, m tea.Model, s string) tea.Model {
	t.Helper()
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestPromptModel_Enter(t *testing.T) {
	var m tea.Model = newPromptModel("Page name: ")
	m = typeRunes(t, m, "  01-login ")
	assert.Contains(t, m.View(), "Page name:")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())

	pm := m.(promptModel)
	assert.Equal(t, "01-login", pm.answer)
	assert.False(t, pm.cancelled)
	assert.Empty(t, pm.View())
}

func TestPromptModel_Cancel(t *testing.T) {
	for _, key := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		var m tea.Model = newPromptModel("q")
		m = typeRunes(t, m, "abc")
		m, cmd := m.Update(tea.KeyMsg{Type: key})
		require.NotNil(t, cmd)
		assert.True(t, m.(promptModel).cancelled)
	}
}

func TestPrompter_Ask(t *testing.T) {
	var out bytes.Buffer
	p := &Prompter{In: strings.NewReader("r\r"), Out: &out}

	answer, err := p.Ask("next? ")
	require.NoError(t, err)
	assert.Equal(t, "r", answer)
	assert.Contains(t, out.String(), "next? r")
}

func TestHighlight(t *testing.T) {
	var buf bytes.Buffer
	src := "await page.fill('#pw', process.env.RECORDING_PASSWORD);\n"
	require.NoError(t, Highlight(&buf, src, "javascript"))
	assert.Contains(t, buf.String(), "RECORDING_PASSWORD")
	assert.Contains(t, buf.String(), "\x1b[")
}

func TestCopyToClipboard(t *testing.T) {
	old := clipboardWriteAll
	defer func() { clipboardWriteAll = old }()

	var got string
	clipboardWriteAll = func(s string) error { got = s; return nil }
	require.NoError(t, CopyToClipboard("snapshot"))
	assert.Equal(t, "snapshot", got)

	clipboardWriteAll = func(string) error { return errors.New("no clipboard") }
	assert.Error(t, CopyToClipboard("x"))
}

func TestTable(t *testing.T) {
	out := Table([]string{"Run", "Pages"}, [][]string{{"abc", "3"}})
	assert.Contains(t, out, "Run")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "╭")
}
