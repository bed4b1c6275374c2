package tui

import (
	"fmt"
	"io"

	tea "charm.land/bubbletea/v2"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/models"
)

// Displayer abstracts all output from the session flow.
type Displayer interface {
	Banner()
	SessionFound(name string)
	SessionNotFound()
	OTPSent(phone string)
	LoginOK(name string)
	LoadingProfile()
	ProfileLoaded(user models.User)
	LoadingBooks()
	BooksListed(books []models.Book)
	SessionExpired()
	LoggedOut()
	APICallFailed(err error)
	Done()
	Fatal(err error)
}

// PlainDisplayer writes plain text output to w. Used when stderr is not
// a TTY (pipes, CI, SSH without pty).
type PlainDisplayer struct {
	w io.Writer
}

// NewPlainDisplayer creates a PlainDisplayer that writes to w.
func NewPlainDisplayer(w io.Writer) *PlainDisplayer {
	return &PlainDisplayer{w: w}
}

func (p *PlainDisplayer) Banner() {
	fmt.Fprintln(p.w, "=== BookLoop ===")
	fmt.Fprintln(p.w)
}

func (p *PlainDisplayer) SessionFound(name string) {
	if name != "" {
		fmt.Fprintf(p.w, "Welcome back, %s!\n", name)
		return
	}
	fmt.Fprintln(p.w, "Found existing session")
}

func (p *PlainDisplayer) SessionNotFound() {
	fmt.Fprintln(p.w, "No session found, login required")
}

func (p *PlainDisplayer) OTPSent(phone string) {
	fmt.Fprintf(p.w, "One-time code sent to %s\n", phone)
	fmt.Fprintln(p.w, "Re-run with -code=<code> to finish logging in")
}

func (p *PlainDisplayer) LoginOK(name string) {
	fmt.Fprintf(p.w, "Logged in as %s\n", name)
}

func (p *PlainDisplayer) LoadingProfile() {
	fmt.Fprintln(p.w, "Loading profile...")
}

func (p *PlainDisplayer) ProfileLoaded(user models.User) {
	fmt.Fprintln(p.w, "----------------------------------------")
	fmt.Fprintf(p.w, "%s  (karma %d, %d exchanges)\n", user.Name, user.Karma, user.Exchanges)
	if user.City != "" {
		fmt.Fprintf(p.w, "City: %s\n", user.City)
	}
	fmt.Fprintln(p.w, "----------------------------------------")
}

func (p *PlainDisplayer) LoadingBooks() {
	fmt.Fprintln(p.w, "Finding books nearby...")
}

func (p *PlainDisplayer) BooksListed(books []models.Book) {
	if len(books) == 0 {
		fmt.Fprintln(p.w, "No books offered nearby")
		return
	}
	fmt.Fprintf(p.w, "%d books nearby:\n", len(books))
	for _, b := range books {
		fmt.Fprintf(p.w, "  %-30s %-20s %.1f km\n", b.Title, b.Author, b.DistanceKm)
	}
}

func (p *PlainDisplayer) SessionExpired() {
	fmt.Fprintln(p.w, "Session expired, please login again with -phone")
}

func (p *PlainDisplayer) LoggedOut() {
	fmt.Fprintln(p.w, "Logged out")
}

func (p *PlainDisplayer) APICallFailed(err error) {
	fmt.Fprintf(p.w, "API call failed: %v\n", err)
}

func (p *PlainDisplayer) Done() {
	fmt.Fprintln(p.w, "Done")
}

func (p *PlainDisplayer) Fatal(err error) {
	fmt.Fprintf(p.w, "Error: %v\n", err)
}

// NoopDisplayer is a no-op implementation used in tests.
type NoopDisplayer struct{}

func (NoopDisplayer) Banner()                     {}
func (NoopDisplayer) SessionFound(_ string)       {}
func (NoopDisplayer) SessionNotFound()            {}
func (NoopDisplayer) OTPSent(_ string)            {}
func (NoopDisplayer) LoginOK(_ string)            {}
func (NoopDisplayer) LoadingProfile()             {}
func (NoopDisplayer) ProfileLoaded(_ models.User) {}
func (NoopDisplayer) LoadingBooks()               {}
func (NoopDisplayer) BooksListed(_ []models.Book) {}
func (NoopDisplayer) SessionExpired()             {}
func (NoopDisplayer) LoggedOut()                  {}
func (NoopDisplayer) APICallFailed(_ error)       {}
func (NoopDisplayer) Done()                       {}
func (NoopDisplayer) Fatal(_ error)               {}

// ProgramDisplayer sends BubbleTea messages to a running tea.Program.
type ProgramDisplayer struct {
	p *tea.Program
}

// NewProgramDisplayer creates a ProgramDisplayer that sends messages to p.
func NewProgramDisplayer(p *tea.Program) *ProgramDisplayer {
	return &ProgramDisplayer{p: p}
}

func (t *ProgramDisplayer) Banner() {
	t.p.Send(MsgBanner{})
}

func (t *ProgramDisplayer) SessionFound(name string) {
	t.p.Send(MsgSessionFound{Name: name})
}

func (t *ProgramDisplayer) SessionNotFound() {
	t.p.Send(MsgSessionNotFound{})
}

func (t *ProgramDisplayer) OTPSent(phone string) {
	t.p.Send(MsgOTPSent{Phone: phone})
}

func (t *ProgramDisplayer) LoginOK(name string) {
	t.p.Send(MsgLoginOK{Name: name})
}

func (t *ProgramDisplayer) LoadingProfile() {
	t.p.Send(MsgLoadingProfile{})
}

func (t *ProgramDisplayer) ProfileLoaded(user models.User) {
	t.p.Send(MsgProfileLoaded{User: user})
}

func (t *ProgramDisplayer) LoadingBooks() {
	t.p.Send(MsgLoadingBooks{})
}

func (t *ProgramDisplayer) BooksListed(books []models.Book) {
	t.p.Send(MsgBooksListed{Books: books})
}

func (t *ProgramDisplayer) SessionExpired() {
	t.p.Send(MsgSessionExpired{})
}

func (t *ProgramDisplayer) LoggedOut() {
	t.p.Send(MsgLoggedOut{})
}

func (t *ProgramDisplayer) APICallFailed(err error) {
	t.p.Send(MsgAPICallFailed{Err: err})
}

func (t *ProgramDisplayer) Done() {
	t.p.Send(MsgDone{})
}

func (t *ProgramDisplayer) Fatal(err error) {
	t.p.Send(MsgFatal{Err: err})
}
