package login

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/dmorales/projectboard/internal/model"
	"github.com/dmorales/projectboard/internal/theme"
)

// LoginSubmittedMsg is dispatched when the login form is completed.
type LoginSubmittedMsg struct {
	Credentials model.Credentials
}

// RegisterSubmittedMsg is dispatched when the registration form is
// completed.
type RegisterSubmittedMsg struct {
	Data model.RegisterData
}

// mode selects which form variant is shown.
type mode int

const (
	modeLogin mode = iota
	modeRegister
)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	username        string
	password        string
	email           string
	firstName       string
	lastName        string
	passwordConfirm string
}

// Model is the Bubble Tea model for the login / register screen.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	mode   mode
	errMsg string
	busy   bool
	width  int
	height int
}

// New creates a login screen model.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{},
		mode:   modeLogin,
		width:  width,
		height: height,
	}
	m.form = m.buildForm()
	return m
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError shows a session error under the form and re-enables it.
func (m *Model) SetError(msg string) {
	m.errMsg = msg
	m.busy = false
}

// SetBusy marks the form as waiting on a pending auth request.
func (m *Model) SetBusy(busy bool) {
	m.busy = busy
}

// Reset returns the screen to a fresh login form.
func (m *Model) Reset() {
	*m.fb = formBindings{}
	m.mode = modeLogin
	m.errMsg = ""
	m.busy = false
	m.form = m.buildForm()
}

// Init starts the embedded form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles key events and form progression.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "tab" && !m.busy {
		// Toggle between login and registration.
		if m.form.State != huh.StateCompleted {
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.errMsg = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	if m.busy {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.busy = true
		submitted := m.submitMsg()

		// A fresh form replaces the completed one so a failed attempt
		// can be retried.
		m.form = m.buildForm()
		return m, tea.Batch(cmd, func() tea.Msg { return submitted })
	}

	return m, cmd
}

// View renders the form with the application banner and any error.
func (m Model) View() string {
	var b strings.Builder

	title := "projectboard / sign in"
	if m.mode == modeRegister {
		title = "projectboard / create account"
	}
	b.WriteString(theme.HeaderStyle.Render(title))
	b.WriteString("\n\n")

	if m.busy {
		b.WriteString(theme.HelpStyle.Render("signing in..."))
	} else {
		b.WriteString(m.form.View())
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(theme.ErrorStyle.Render(m.errMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(theme.HelpStyle.Render("tab: switch login/register • ctrl+c: quit"))

	return lipgloss.Place(
		m.width, m.height,
		lipgloss.Center, lipgloss.Center,
		theme.PanelStyle.Render(b.String()),
	)
}

// submitMsg builds the completion message for the current mode.
func (m Model) submitMsg() tea.Msg {
	if m.mode == modeLogin {
		return LoginSubmittedMsg{
			Credentials: model.Credentials{
				Username: m.fb.username,
				Password: m.fb.password,
			},
		}
	}
	return RegisterSubmittedMsg{
		Data: model.RegisterData{
			Username:        m.fb.username,
			Email:           m.fb.email,
			FirstName:       m.fb.firstName,
			LastName:        m.fb.lastName,
			Role:            model.RoleCollaborator,
			Password:        m.fb.password,
			PasswordConfirm: m.fb.passwordConfirm,
		},
	}
}

// buildForm constructs the huh form for the current mode.
func (m Model) buildForm() *huh.Form {
	if m.mode == modeLogin {
		return huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Username").
					Value(&m.fb.username),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&m.fb.password),
			),
		).WithShowHelp(false)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email),
			huh.NewInput().
				Title("First name").
				Value(&m.fb.firstName),
			huh.NewInput().
				Title("Last name").
				Value(&m.fb.lastName),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.passwordConfirm),
		),
	).WithShowHelp(false)
}
