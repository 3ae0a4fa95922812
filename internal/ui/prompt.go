package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompt is a single-line input with a styled prefix
type Prompt struct {
	input   textinput.Model
	focused bool
}

// NewPrompt creates a focused prompt. Signatures run to a few hundred
// characters, so the limit is generous.
func NewPrompt(placeholder string, width int) Prompt {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 2000
	ti.Width = width - 4 // prompt symbol and spacing
	ti.Focus()

	return Prompt{
		input:   ti,
		focused: true,
	}
}

func (p *Prompt) Focus() tea.Cmd {
	p.focused = true
	return p.input.Focus()
}

func (p *Prompt) Blur() {
	p.focused = false
	p.input.Blur()
}

func (p *Prompt) Value() string {
	return p.input.Value()
}

func (p *Prompt) SetValue(s string) {
	p.input.SetValue(s)
}

func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p *Prompt) View() string {
	style := DimStyle
	if p.focused {
		style = PromptStyle
	}
	return style.Render(SymbolPrompt) + " " + p.input.View()
}
