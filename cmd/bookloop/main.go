package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/api"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/auth"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/books"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/config"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/credentials"
	"github.com/AdibaEmma/bookloop-mobile-sub000/internal/tui"
)

var (
	flagServerURL   = flag.String("server-url", "", "API base URL (default: BOOKLOOP_API_URL env or local fallback)")
	flagSessionFile = flag.String("session-file", "", "Session storage file (default: .bookloop-session.json or BOOKLOOP_SESSION_FILE env)")
	flagPhone       = flag.String("phone", "", "Phone number to login with (requests a one-time code)")
	flagCode        = flag.String("code", "", "One-time code received by SMS (finishes login)")
	flagLogout      = flag.Bool("logout", false, "End the current session and exit")
	flagLat         = flag.Float64("lat", 5.6037, "Latitude for nearby search")
	flagLng         = flag.Float64("lng", -0.187, "Longitude for nearby search")
	flagRadius      = flag.Float64("radius", 5, "Nearby search radius in km")
	flagVerbose     = flag.Bool("v", false, "Verbose logging")
)

// app bundles everything run() needs.
type app struct {
	auth  *auth.Service
	books *books.Service
}

// isTTY reports whether stderr is a character device (interactive terminal).
// We check stderr because the TUI renders to stderr, allowing stdout to be piped.
func isTTY() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

func main() {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Priority: flag > env > default
	if *flagServerURL != "" {
		cfg.BaseURL = *flagServerURL
		if err := config.ValidateBaseURL(cfg.BaseURL); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -server-url: %v\n", err)
			os.Exit(1)
		}
	}
	if *flagSessionFile != "" {
		cfg.SessionFile = *flagSessionFile
	}

	if cfg.Insecure() {
		fmt.Fprintln(os.Stderr, "⚠️  WARNING: Using HTTP instead of HTTPS. Tokens will be transmitted in plaintext!")
		fmt.Fprintln(os.Stderr, "⚠️  This is only safe for local development. Use HTTPS in production.")
		fmt.Fprintln(os.Stderr)
	}

	level := zerolog.WarnLevel
	if *flagVerbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	store := credentials.NewFileStore(cfg.SessionFile, logger)

	client, err := api.New(api.Config{
		BaseURL:        cfg.BaseURL,
		DeviceID:       cfg.DeviceID,
		RequestTimeout: cfg.RequestTimeout,
		RefreshTimeout: cfg.RefreshTimeout,
	}, store, api.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		auth:  auth.NewService(client, store, logger),
		books: books.NewService(client),
	}

	if isTTY() {
		// Run TUI program on stderr so stdout pipes are not corrupted
		m := tui.NewModel()
		// WithInput(nil): disable stdin/keyboard input so BubbleTea skips terminal
		// capability queries. Ctrl+C is handled by signal.NotifyContext.
		p := tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil))

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
			}
		}()

		d := tui.NewProgramDisplayer(p)
		d.Banner()
		runErr := a.run(d)
		p.Quit() // let BubbleTea drain terminal query responses before exiting
		wg.Wait()
		if runErr != nil {
			os.Exit(1)
		}
	} else {
		d := tui.NewPlainDisplayer(os.Stderr)
		d.Banner()
		if err := a.run(d); err != nil {
			os.Exit(1)
		}
	}
}

func (a *app) run(d tui.Displayer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *flagLogout {
		a.auth.Logout(ctx)
		d.LoggedOut()
		return nil
	}

	// Restore the stored session, or walk the two-step OTP login.
	if a.auth.HasSession() {
		name := ""
		if cached, err := a.auth.CachedUser(); err == nil && cached != nil {
			name = cached.Name
		}
		d.SessionFound(name)
	} else {
		d.SessionNotFound()

		if *flagPhone == "" {
			err := errors.New("no session: login with -phone=<number>")
			d.Fatal(err)
			return err
		}

		if *flagCode == "" {
			if err := a.auth.RequestOTP(ctx, *flagPhone); err != nil {
				d.Fatal(err)
				return err
			}
			d.OTPSent(*flagPhone)
			return nil
		}

		user, err := a.auth.VerifyOTP(ctx, *flagPhone, *flagCode)
		if err != nil {
			d.Fatal(err)
			return err
		}
		name := ""
		if user != nil {
			name = user.Name
		}
		d.LoginOK(name)
	}

	// Fetch the fresh profile; the dispatcher refreshes the token
	// transparently if the stored one has expired.
	d.LoadingProfile()
	user, err := a.auth.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			d.SessionExpired()
			return err
		}
		d.Fatal(err)
		return err
	}
	d.ProfileLoaded(*user)

	d.LoadingBooks()
	nearby, err := a.books.Nearby(ctx, *flagLat, *flagLng, *flagRadius)
	if err != nil {
		// Non-fatal: the session is fine, only discovery failed.
		d.APICallFailed(err)
	} else {
		d.BooksListed(nearby)
	}

	d.Done()
	return nil
}
