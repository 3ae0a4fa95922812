package setup

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/config"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/testutil"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m WizardModel, msgs ...tea.Msg) WizardModel {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(WizardModel)
	}
	return m
}

func TestNewWizard_Initialization(t *testing.T) {
	m := NewWizard(testutil.TempDir(t))

	assert.Equal(t, StepWelcome, m.step)
	assert.Equal(t, "", m.tokenInput.Prompt)
	assert.Equal(t, "", m.passwordInput.Prompt)
	assert.Equal(t, "", m.confirmInput.Prompt)
	assert.Len(t, m.modes.items, 2)
	assert.Len(t, m.keyChoices.items, 2)
	assert.Equal(t, network.ModeTest, m.mode)
}

func TestWizard_TokenRequired(t *testing.T) {
	m := send(t, NewWizard(testutil.TempDir(t)), enter)
	require.Equal(t, StepToken, m.step)

	m = send(t, m, enter)
	assert.Equal(t, StepToken, m.step)
	assert.Equal(t, "A token is required", m.tokenError)

	m = send(t, m, esc)
	assert.Equal(t, StepWelcome, m.step)
}

func TestWizard_Walkthrough(t *testing.T) {
	dir := testutil.TempDir(t)

	m := send(t, NewWizard(dir), enter, typeText("tok-123"), enter)
	require.Equal(t, StepMode, m.step)
	assert.Equal(t, "tok-123", m.token)

	m = send(t, m, down, enter)
	require.Equal(t, StepKeyChoice, m.step)
	assert.Equal(t, network.ModeProd, m.mode)

	m = send(t, m, down, enter)
	require.Equal(t, StepComplete, m.step)
	assert.Contains(t, m.View(), "You're all set!")

	m = send(t, m, enter)
	require.NotNil(t, m.result)
	assert.False(t, m.result.Cancelled)
	assert.Equal(t, "tok-123", m.result.Token)
	assert.Equal(t, network.ModeProd, m.result.Mode)
	assert.False(t, m.result.KeyCreated)

	require.NoError(t, Save(dir, m.result))

	store, err := profile.NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", store.Token())

	v := viper.New()
	v.SetConfigFile(filepath.Join(dir, ConfigFileName))
	require.NoError(t, v.ReadInConfig())
	cfg, err := config.Load(v)
	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.DefaultMode)
}

func TestWizard_PasswordChecks(t *testing.T) {
	m := send(t, NewWizard(testutil.TempDir(t)), enter, typeText("tok"), enter, enter, enter)
	require.Equal(t, StepKeyPassword, m.step)

	m = send(t, m, typeText("short"), enter)
	assert.Equal(t, "Password must be at least 8 characters", m.passwordError)

	m = send(t, m, esc)
	assert.Equal(t, StepKeyChoice, m.step)

	m = send(t, m, enter, typeText("password123"), enter, typeText("password124"), enter)
	assert.Equal(t, StepKeyPassword, m.step)
	assert.Equal(t, "Passwords do not match. Try again.", m.passwordError)
	assert.False(t, m.creatingKey)
}

func TestWizard_KeyCreated(t *testing.T) {
	dir := testutil.TempDir(t)
	m := NewWizard(dir)

	msg := m.createKey("password123")()
	created, ok := msg.(keyCreatedMsg)
	require.True(t, ok)
	require.NoError(t, created.err)

	m.step = StepKeyPassword
	m.creatingKey = true
	m = send(t, m, created, enter)
	require.NotNil(t, m.result)
	assert.True(t, m.result.KeyCreated)
	assert.Equal(t, created.address, m.result.KeyAddress)

	km, err := wallet.NewKeystoreManager(dir)
	require.NoError(t, err)
	accounts := km.ListAccounts()
	require.Len(t, accounts, 1)
	assert.True(t, wallet.SameAddress(created.address, accounts[0].Address.Hex()))

	require.NoError(t, Save(dir, m.result))
	store, err := profile.NewStore(dir)
	require.NoError(t, err)
	st, ok := store.Tag("ohledger")
	require.True(t, ok)
	assert.Equal(t, created.address, st.Address)
}

func TestWizard_ExistingSetupSkipsSteps(t *testing.T) {
	dir := testutil.TempDir(t)
	store, err := profile.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("saved"))

	km, err := wallet.NewKeystoreManager(dir)
	require.NoError(t, err)
	_, err = km.CreateAccount("password123")
	require.NoError(t, err)

	// Empty token keeps the saved one; the existing key skips the key step.
	m := send(t, NewWizard(dir), enter, enter)
	require.Equal(t, StepMode, m.step)
	m = send(t, m, enter)
	require.Equal(t, StepComplete, m.step)

	m = send(t, m, enter)
	require.NotNil(t, m.result)
	assert.Empty(t, m.result.Token)
	assert.NotEmpty(t, m.result.KeyAddress)
}

func TestWizard_CtrlCCancels(t *testing.T) {
	m := send(t, NewWizard(testutil.TempDir(t)), tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, m.result)
	assert.True(t, m.result.Cancelled)
	assert.Contains(t, m.View(), "Setup cancelled")
}

func TestSave_KeepsOtherSettings(t *testing.T) {
	dir := testutil.TempDir(t)
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\ndefault_mode: prod\n"), 0600))

	require.NoError(t, Save(dir, &SetupResult{Mode: network.ModeTest}))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	assert.Equal(t, "debug", v.GetString("log_level"))
	assert.Equal(t, "test", v.GetString("default_mode"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
