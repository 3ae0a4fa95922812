// Package setup runs the first-run wizard: it saves the bearer token, picks
// the default network mode and optionally creates an ohledger key.
package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/ui"
)

// WizardStep represents the current step in the wizard
type WizardStep int

const (
	StepWelcome WizardStep = iota
	StepToken
	StepMode
	StepKeyChoice
	StepKeyPassword
	StepComplete
)

const totalSteps = 3 // Token, Key, Ready

const (
	choiceGenerate = 0
	choiceSkip     = 1
)

// SetupResult contains the result of the setup wizard
type SetupResult struct {
	// Token is empty when an existing token was kept.
	Token      string
	Mode       network.Mode
	KeyCreated bool
	KeyAddress string
	Cancelled  bool
}

// WizardModel is the main wizard Bubbletea model
type WizardModel struct {
	step     WizardStep
	status   *SetupStatus
	dataDir  string
	quitting bool

	// Token step
	tokenInput textinput.Model
	tokenError string
	token      string

	// Mode step
	modes choiceList
	mode  network.Mode

	// Key step
	keyChoices    choiceList
	passwordInput textinput.Model
	confirmInput  textinput.Model
	passwordStep  int // 0=enter, 1=confirm
	passwordError string
	creatingKey   bool
	keyCreated    bool
	keyAddress    string

	// UI
	spinner  spinner.Model
	progress progress.Model

	// Result
	result *SetupResult
}

type keyCreatedMsg struct {
	address string
	err     error
}

// choiceList is a vertical list moved with the arrow keys.
type choiceList struct {
	title  string
	items  []string
	cursor int
}

func (c *choiceList) move(msg tea.KeyMsg) {
	switch msg.String() {
	case "up", "k":
		if c.cursor > 0 {
			c.cursor--
		}
	case "down", "j":
		if c.cursor < len(c.items)-1 {
			c.cursor++
		}
	}
}

func (c choiceList) View() string {
	var b strings.Builder
	b.WriteString(ui.TitleStyle.Render("  " + c.title))
	b.WriteString("\n\n")
	for i, item := range c.items {
		if i == c.cursor {
			b.WriteString(ui.CursorStyle.Render("  "+ui.SymbolArrow+" ") + ui.SelectedStyle.Render(item) + "\n")
		} else {
			b.WriteString("    " + ui.NormalStyle.Render(item) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("  ↑/↓ to move • Enter to select • Esc back"))
	return b.String()
}

func newPasswordInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.EchoMode = textinput.EchoPassword
	in.EchoCharacter = '•'
	in.CharLimit = 100
	in.Width = 40
	return in
}

// NewWizard creates a new wizard model
func NewWizard(dataDir string) WizardModel {
	status, _ := DetectSetupStatus(dataDir)
	if status == nil {
		status = &SetupStatus{}
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 40

	tokenInput := newPasswordInput("Paste your overhide token here...")
	tokenInput.CharLimit = 400
	tokenInput.Width = 50

	return WizardModel{
		step:    StepWelcome,
		status:  status,
		dataDir: dataDir,

		tokenInput: tokenInput,
		modes: choiceList{
			title: "Default network",
			items: []string{
				"test - testnets, no real value",
				"prod - production ledgers",
			},
		},
		mode: network.ModeTest,
		keyChoices: choiceList{
			title: "Key for the ohledger imparter (optional)",
			items: []string{
				"Generate a new key",
				"Continue without a key",
			},
		},
		passwordInput: newPasswordInput("Enter password (8+ chars)"),
		confirmInput:  newPasswordInput("Confirm password"),
		keyAddress:    status.KeyAddress,

		spinner:  sp,
		progress: prog,
	}
}

// Init initializes the wizard
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textinput.Blink)
}

// Update handles messages
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.result = &SetupResult{Cancelled: true}
			m.quitting = true
			return m, tea.Quit
		}

		switch m.step {
		case StepWelcome:
			if msg.Type == tea.KeyEnter {
				m.step = StepToken
				return m, m.tokenInput.Focus()
			}
			return m, nil

		case StepToken:
			if msg.Type == tea.KeyEsc {
				m.tokenInput.Blur()
				m.tokenError = ""
				m.step = StepWelcome
				return m, nil
			}
			if msg.Type == tea.KeyEnter {
				return m.updateToken()
			}
			// Fall through to let input update happen

		case StepMode:
			return m.updateMode(msg)

		case StepKeyChoice:
			return m.updateKeyChoice(msg)

		case StepKeyPassword:
			if m.creatingKey {
				return m, nil
			}
			if msg.Type == tea.KeyEsc {
				m.passwordStep = 0
				m.passwordError = ""
				m.passwordInput.Reset()
				m.confirmInput.Reset()
				m.step = StepKeyChoice
				return m, nil
			}
			if msg.Type == tea.KeyEnter {
				return m.updateKeyPassword()
			}
			// Fall through to let input update happen

		case StepComplete:
			if msg.Type == tea.KeyEnter {
				m.result = &SetupResult{
					Token:      m.token,
					Mode:       m.mode,
					KeyCreated: m.keyCreated,
					KeyAddress: m.keyAddress,
				}
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.progress.Width = min(40, msg.Width-20)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case keyCreatedMsg:
		m.creatingKey = false
		if msg.err != nil {
			m.passwordError = msg.err.Error()
			m.passwordStep = 0
			m.passwordInput.Reset()
			m.confirmInput.Reset()
			return m, m.passwordInput.Focus()
		}
		m.keyCreated = true
		m.keyAddress = msg.address
		m.step = StepComplete
		return m, nil
	}

	if m.step == StepToken {
		var cmd tea.Cmd
		m.tokenInput, cmd = m.tokenInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	if m.step == StepKeyPassword && !m.creatingKey {
		var cmd tea.Cmd
		if m.passwordStep == 0 {
			m.passwordInput, cmd = m.passwordInput.Update(msg)
		} else {
			m.confirmInput, cmd = m.confirmInput.Update(msg)
		}
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m WizardModel) updateToken() (tea.Model, tea.Cmd) {
	token := strings.TrimSpace(m.tokenInput.Value())
	if token == "" && !m.status.HasToken {
		m.tokenError = "A token is required"
		return m, nil
	}
	m.token = token
	m.tokenError = ""
	m.tokenInput.Blur()
	m.step = StepMode
	return m, nil
}

func (m WizardModel) updateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.step = StepToken
		return m, m.tokenInput.Focus()
	case tea.KeyEnter:
		m.mode = network.ModeTest
		if m.modes.cursor == 1 {
			m.mode = network.ModeProd
		}
		// A key already in the keystore is kept.
		if m.status.HasKey {
			m.step = StepComplete
		} else {
			m.step = StepKeyChoice
		}
		return m, nil
	}
	m.modes.move(msg)
	return m, nil
}

func (m WizardModel) updateKeyChoice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.step = StepMode
		return m, nil
	case tea.KeyEnter:
		if m.keyChoices.cursor == choiceGenerate {
			m.passwordStep = 0
			m.step = StepKeyPassword
			return m, m.passwordInput.Focus()
		}
		m.step = StepComplete
		return m, nil
	}
	m.keyChoices.move(msg)
	return m, nil
}

func (m WizardModel) updateKeyPassword() (tea.Model, tea.Cmd) {
	if m.passwordStep == 0 {
		if len(m.passwordInput.Value()) < 8 {
			m.passwordError = "Password must be at least 8 characters"
			return m, nil
		}
		m.passwordStep = 1
		m.passwordError = ""
		m.passwordInput.Blur()
		return m, m.confirmInput.Focus()
	}

	if m.passwordInput.Value() != m.confirmInput.Value() {
		m.passwordError = "Passwords do not match. Try again."
		m.confirmInput.Reset()
		return m, m.confirmInput.Focus()
	}

	m.passwordError = ""
	m.creatingKey = true
	return m, tea.Batch(m.spinner.Tick, m.createKey(m.passwordInput.Value()))
}

// View renders the wizard
func (m WizardModel) View() string {
	if m.quitting {
		if m.result != nil && m.result.Cancelled {
			return ui.DimStyle.Render("\n  Setup cancelled.\n\n")
		}
		return ""
	}

	var b strings.Builder

	if m.step > StepWelcome && m.step < StepComplete {
		b.WriteString("\n")
		b.WriteString(m.renderProgress())
		b.WriteString("\n")
	}

	switch m.step {
	case StepWelcome:
		b.WriteString(m.viewWelcome())
	case StepToken:
		b.WriteString(m.viewToken())
	case StepMode:
		b.WriteString("\n" + m.modes.View())
	case StepKeyChoice:
		b.WriteString("\n" + m.keyChoices.View())
	case StepKeyPassword:
		b.WriteString(m.viewKeyPassword())
	case StepComplete:
		b.WriteString(m.viewComplete())
	}

	return b.String()
}

func (m WizardModel) renderProgress() string {
	currentStep := 1
	switch m.step {
	case StepKeyChoice, StepKeyPassword:
		currentStep = 2
	case StepComplete:
		currentStep = 3
	}

	percent := float64(currentStep) / float64(totalSteps)
	bar := m.progress.ViewAs(percent)

	labels := "  Token         Key          Ready"
	return fmt.Sprintf("  %s\n%s", bar, ui.DimStyle.Render(labels))
}

func (m WizardModel) viewWelcome() string {
	var b strings.Builder
	b.WriteString("\n\n")
	b.WriteString(ui.BoxStyle.Render(
		ui.TitleStyle.Render("Welcome to ledgers") + "\n" +
			ui.DimStyle.Render("Pay and prove payment across overhide ledgers") + "\n\n" +
			"You need an overhide token to talk to the remuneration APIs.",
	))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("  Press Enter to continue..."))
	return b.String()
}

func (m WizardModel) viewToken() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(ui.TitleStyle.Render("  Enter your overhide token"))
	b.WriteString("\n\n")
	if m.status.HasToken {
		b.WriteString(ui.DimStyle.Render("  A token is already saved; leave empty to keep it.\n\n"))
	}

	b.WriteString("  ")
	b.WriteString(m.tokenInput.View())
	b.WriteString("\n")

	if m.tokenError != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", ui.ErrorStyle.Render(ui.SymbolCross+" "+m.tokenError)))
	}

	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("  Enter to continue • Esc back"))
	return b.String()
}

func (m WizardModel) viewKeyPassword() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(ui.TitleStyle.Render("  Create Key Password"))
	b.WriteString("\n\n")

	b.WriteString(ui.DimStyle.Render("  This encrypts your ohledger key on disk.\n"))
	b.WriteString(ui.DimStyle.Render("  Requirements: 8+ characters\n\n"))

	if m.creatingKey {
		b.WriteString(fmt.Sprintf("  %s Encrypting key...\n", m.spinner.View()))
		return b.String()
	}

	if m.passwordStep == 0 {
		b.WriteString("  ")
		b.WriteString(m.passwordInput.View())
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("  Password: %s\n\n", ui.SuccessStyle.Render(ui.SymbolCheck+" set")))
		b.WriteString("  ")
		b.WriteString(m.confirmInput.View())
		b.WriteString("\n")
	}

	if m.passwordError != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", ui.ErrorStyle.Render(ui.SymbolCross+" "+m.passwordError)))
	}

	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("  Enter to continue • Esc back"))
	return b.String()
}

func (m WizardModel) viewComplete() string {
	var b strings.Builder
	b.WriteString("\n\n")

	keyInfo := ui.DimStyle.Render("Not configured")
	if m.keyAddress != "" {
		short := m.keyAddress
		if len(short) > 10 {
			short = short[:6] + "..." + short[len(short)-4:]
		}
		keyInfo = short
	}

	content := fmt.Sprintf(
		"%s\n\n"+
			"Network: %s\n"+
			"Key:     %s\n\n"+
			"%s\n"+
			"  %s\n"+
			"  %s",
		ui.TitleStyle.Render("You're all set!"),
		m.mode,
		keyInfo,
		ui.DimStyle.Render("Try these:"),
		"ledgers tags",
		"ledgers is-on-ledger ohledger --unlock",
	)

	b.WriteString(ui.BoxStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(ui.HelpStyle.Render("  Press Enter to finish..."))
	return b.String()
}

// RunWizard runs the setup wizard and saves what it collected under dataDir.
func RunWizard(dataDir string) (*SetupResult, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	p := tea.NewProgram(NewWizard(dataDir), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result := finalModel.(WizardModel).result
	if result == nil || result.Cancelled {
		return result, nil
	}
	return result, Save(dataDir, result)
}

// PrintEnvInstructions prints setup instructions for non-interactive environments
func PrintEnvInstructions() {
	fmt.Println("ledgers needs an overhide token to reach the remuneration APIs.")
	fmt.Println("")
	fmt.Println("Set it in the environment:")
	fmt.Println("  LEDGERS_TOKEN=...")
	fmt.Println("")
	fmt.Println("Or run 'ledgers enable' or 'ledgers setup' interactively.")
}

// IsInteractive returns true if running in a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
