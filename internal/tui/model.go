package tui

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

// state represents the current phase of the session flow.
type state int

const (
	stateInit    state = iota
	stateLogin         // OTP sent, waiting for the user to re-run with -code
	stateLoading       // profile / nearby books in flight
	stateSuccess       // all done
	stateError         // fatal error
)

// statusKind distinguishes line types in the status log.
type statusKind int

const (
	statusOK   statusKind = iota
	statusWarn            // warning / non-fatal
	statusInfo            // neutral info
)

// statusLine is one row in the scrolling status log.
type statusLine struct {
	kind statusKind
	text string
}

// Model is the BubbleTea model for the BookLoop session TUI.
type Model struct {
	state   state
	spinner spinner.Model
	width   int
	height  int

	// Login prompt info
	otpPhone string

	// Success display
	user  models.User
	books []models.Book

	// Fatal error display
	errMsg string

	// Scrolling status log shown below the main panel
	statusLines []statusLine
}

// Package-level lipgloss styles.
var (
	styleTitleBox = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("36")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("36")).
			Padding(0, 2)

	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleErr  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleDim  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleBold = lipgloss.NewStyle().Bold(true)
)

// NewModel creates the initial TUI model.
func NewModel() Model {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("36"))),
	)
	return Model{
		state:   stateInit,
		spinner: s,
	}
}

// Init starts the spinner animation.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	// ── Session flow messages ────────────────────────────────────────────────

	case MsgBanner:
		return m, nil

	case MsgSessionFound:
		if msg.Name != "" {
			m.addStatus(statusOK, "Welcome back, "+msg.Name)
		} else {
			m.addStatus(statusOK, "Found existing session")
		}
		return m, nil

	case MsgSessionNotFound:
		m.addStatus(statusInfo, "No session found, login required")
		return m, nil

	case MsgOTPSent:
		m.otpPhone = msg.Phone
		m.state = stateLogin
		m.addStatus(statusOK, "One-time code sent to "+msg.Phone)
		return m, nil

	case MsgLoginOK:
		m.addStatus(statusOK, "Logged in as "+msg.Name)
		return m, nil

	case MsgLoadingProfile:
		m.state = stateLoading
		m.addStatus(statusInfo, "Loading profile...")
		return m, nil

	case MsgProfileLoaded:
		m.user = msg.User
		m.addStatus(statusOK, "Profile loaded")
		return m, nil

	case MsgLoadingBooks:
		m.state = stateLoading
		m.addStatus(statusInfo, "Finding books nearby...")
		return m, nil

	case MsgBooksListed:
		m.books = msg.Books
		m.addStatus(statusOK, fmt.Sprintf("%d books nearby", len(msg.Books)))
		return m, nil

	case MsgSessionExpired:
		m.addStatus(statusWarn, "Session expired, login again with -phone")
		return m, nil

	case MsgLoggedOut:
		m.addStatus(statusOK, "Logged out")
		m.state = stateSuccess
		return m, nil

	case MsgAPICallFailed:
		m.addStatus(statusWarn, fmt.Sprintf("API call failed: %v", msg.Err))
		return m, nil

	case MsgDone:
		m.state = stateSuccess
		return m, nil

	case MsgFatal:
		m.errMsg = msg.Err.Error()
		m.state = stateError
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() tea.View {
	switch m.state {
	case stateSuccess:
		return tea.NewView(m.viewSuccess())
	case stateError:
		return tea.NewView(m.viewError())
	default:
		return tea.NewView(m.viewMain())
	}
}

// viewMain is shown during init, login and loading.
func (m Model) viewMain() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  BookLoop  "))
	b.WriteString("\n\n")

	switch m.state {
	case stateLogin:
		b.WriteString(styleBold.Render("Check your phone"))
		b.WriteString("\n")
		b.WriteString("A one-time code was sent to " + m.otpPhone)
		b.WriteString("\n\n")
		b.WriteString(styleDim.Render("Re-run with -code=<code> to finish logging in"))
		b.WriteString("\n")

	case stateLoading:
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading...\n")

	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" Initializing...\n")
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewSuccess shows the profile and the nearby listings.
func (m Model) viewSuccess() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleTitleBox.Render("  BookLoop  "))
	b.WriteString("\n\n")

	if m.user.Name != "" {
		b.WriteString(styleBold.Render(m.user.Name))
		b.WriteString(styleDim.Render(
			fmt.Sprintf("  karma %d · %d exchanges", m.user.Karma, m.user.Exchanges),
		))
		b.WriteString("\n\n")
	}

	if len(m.books) > 0 {
		b.WriteString(styleBold.Render("Books nearby"))
		b.WriteString("\n")
		for _, book := range m.books {
			b.WriteString(fmt.Sprintf("  %-30s %-20s", truncate(book.Title, 30), truncate(book.Author, 20)))
			if book.DistanceKm > 0 {
				b.WriteString(styleDim.Render(fmt.Sprintf(" %.1f km", book.DistanceKm)))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewError is shown when a fatal error occurs.
func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(styleErr.Render("  ✗ Something went wrong"))
	b.WriteString("\n\n")
	b.WriteString(styleDim.Render("  " + m.errMsg))
	b.WriteString("\n")

	b.WriteString(m.viewStatusLog())
	return b.String()
}

// viewStatusLog renders the scrolling status log.
func (m Model) viewStatusLog() string {
	if len(m.statusLines) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")

	for _, line := range m.statusLines {
		switch line.kind {
		case statusOK:
			b.WriteString(styleOK.Render("  ✓ " + line.text))
		case statusWarn:
			b.WriteString(styleWarn.Render("  ⚠ " + line.text))
		default:
			b.WriteString(styleDim.Render("  · " + line.text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// addStatus appends a line to the status log.
func (m *Model) addStatus(kind statusKind, text string) {
	m.statusLines = append(m.statusLines, statusLine{kind: kind, text: text})
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
