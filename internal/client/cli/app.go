package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/tamperscan/internal/client/client"
	"github.com/dmitrijs2005/tamperscan/internal/client/config"
	"github.com/dmitrijs2005/tamperscan/internal/client/services"
	"github.com/dmitrijs2005/tamperscan/internal/client/session"
	"github.com/dmitrijs2005/tamperscan/internal/client/tokens"
	"github.com/dmitrijs2005/tamperscan/internal/filex"
	"github.com/dmitrijs2005/tamperscan/internal/logging"
	"golang.org/x/term"
)

// databaseFile is the name of the local database inside the data directory.
const databaseFile = "tamperscan.db"

type App struct {
	config           *config.Config
	log              logging.Logger
	db               *sql.DB
	authService      services.AuthService
	detectionService services.DetectionService
	reader           *bufio.Reader
	out              io.Writer
	// quiet disables spinners, e.g. when stdout is not a terminal.
	quiet bool

	// pendingView is the protected command an anonymous user tried to open.
	// It is kept for reference only; login does not jump back to it.
	pendingView string
	// loggingOut marks a logout requested by the user, so the session
	// observer does not report it as an expiry.
	loggingOut bool
	lastKind   session.Kind

	unsubscribe func()
}

// NewApp opens local storage and wires the session and API services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDataDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("prepare data directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	store, err := newTokenStore(c, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiClient, err := client.New(c.ServerURL,
		client.WithTimeout(c.RequestTimeout),
		client.WithLogger(log.With("component", "http")),
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctrl := session.NewController(store, apiClient, session.WithLogger(log.With("component", "session")))
	apiClient.Attach(ctrl)

	a := &App{
		config:           c,
		log:              log,
		db:               db,
		authService:      services.NewAuthService(apiClient, ctrl, db),
		detectionService: services.NewDetectionService(apiClient),
		reader:           bufio.NewReader(os.Stdin),
		out:              os.Stdout,
		quiet:            !term.IsTerminal(int(os.Stdout.Fd())),
	}
	a.unsubscribe = ctrl.Subscribe(a.onSessionChange)
	return a, nil
}

func newTokenStore(c *config.Config, db *sql.DB) (tokens.Store, error) {
	switch c.TokenStore {
	case config.StoreSQLite:
		return tokens.NewSQLiteStore(db), nil
	case config.StoreKeyring:
		return tokens.NewKeyringStore(c.KeyringService), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", c.TokenStore)
	}
}

// Run restores the previous session and blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to tamperscan (type 'help' for commands)")

	var st session.State
	_ = a.withSpinner("Restoring session...", func() error {
		st = a.authService.Initialize(ctx)
		return nil
	})
	if st.IsAuthenticated() {
		fmt.Fprintf(a.out, "Logged in as %s\n", st.User.Username)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

// Close releases local resources.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	if a.db != nil {
		_ = a.db.Close()
		a.db = nil
	}
}

func (a *App) state() session.State {
	return a.authService.State()
}

func (a *App) isLoggedIn() bool {
	return a.state().IsAuthenticated()
}

// getStatus is the prompt suffix: the username when logged in.
func (a *App) getStatus() string {
	st := a.state()
	if !st.IsAuthenticated() {
		return ""
	}
	return fmt.Sprintf("(%s)", st.User.Username)
}

// onSessionChange reports a session that ended without the user asking,
// typically a refresh rejected by the server.
func (a *App) onSessionChange(s session.State) {
	if s.Kind == session.Unauthenticated && a.lastKind == session.Authenticated && !a.loggingOut {
		fmt.Fprintln(a.out, "Your session has expired. Please log in again.")
	}
	a.lastKind = s.Kind
}
