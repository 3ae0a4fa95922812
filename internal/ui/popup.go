package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yolodolo42/ledgers/internal/popup"
)

// popupModel asks the user to complete a popup page out of band and report
// the outcome: paste a signature, press enter to confirm, or esc to cancel.
type popupModel struct {
	url    string
	width  int
	height int
	prompt Prompt

	result popup.Message
	done   bool
}

func newPopupModel(url string, width, height int) popupModel {
	return popupModel{
		url:    url,
		width:  width,
		height: height,
		prompt: NewPrompt("paste signature, or leave empty to confirm", 80),
	}
}

func (m popupModel) Init() tea.Cmd {
	return nil
}

func (m popupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.result = popup.Message{Kind: popup.KindClose}
			m.done = true
			return m, tea.Quit
		case tea.KeyEnter:
			if sig := strings.TrimSpace(m.prompt.Value()); sig != "" {
				m.result = popup.Message{Kind: popup.KindSignature, Signature: sig}
			} else {
				m.result = popup.Message{Kind: popup.KindOK}
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	_, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m popupModel) View() string {
	if m.done {
		if m.result.Kind == popup.KindClose {
			return ErrorStyle.Render(SymbolCross+" cancelled") + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" done") + "\n"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Action required"))
	b.WriteString(DimStyle.Render(fmt.Sprintf("  (%dx%d)", m.width, m.height)))
	b.WriteString("\n\n")
	b.WriteString(SymbolArrow + " open " + URLStyle.Render(m.url) + "\n\n")
	b.WriteString(m.prompt.View())
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("enter submit, esc cancel"))
	return BoxStyle.Render(b.String()) + "\n"
}

// TerminalSurface shows popup pages as a prompt in the terminal, for hosts
// without a browser. The user visits the page elsewhere and reports back here.
type TerminalSurface struct {
	deliver func(popup.Message)
	in      io.Reader
	out     io.Writer

	mu      sync.Mutex
	program *tea.Program
}

// NewTerminalSurface renders to out and reads keys from in; nil means the
// process's stdin and stdout.
func NewTerminalSurface(deliver func(popup.Message), in io.Reader, out io.Writer) *TerminalSurface {
	return &TerminalSurface{deliver: deliver, in: in, out: out}
}

func (t *TerminalSurface) Show(ctx context.Context, url string, width, height int) error {
	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.in != nil {
		opts = append(opts, tea.WithInput(t.in))
	}
	if t.out != nil {
		opts = append(opts, tea.WithOutput(t.out))
	}
	p := tea.NewProgram(newPopupModel(url, width, height), opts...)

	t.mu.Lock()
	t.program = p
	t.mu.Unlock()

	// Delivery happens after Run returns so Hide, called from Deliver, never
	// waits on a program that is still shutting down.
	go func() {
		final, err := p.Run()

		t.mu.Lock()
		if t.program == p {
			t.program = nil
		}
		t.mu.Unlock()

		m, _ := final.(popupModel)
		switch {
		case m.done:
			t.deliver(m.result)
		case err != nil && ctx.Err() == nil:
			t.deliver(popup.Message{Kind: popup.KindError, Detail: err.Error()})
		}
	}()
	return nil
}

func (t *TerminalSurface) Hide() {
	t.mu.Lock()
	p := t.program
	t.program = nil
	t.mu.Unlock()

	if p != nil {
		p.Quit()
	}
}
