package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tamperscan/internal/client/client"
	"github.com/dmitrijs2005/tamperscan/internal/client/guard"
	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/upload"
	"github.com/dmitrijs2005/tamperscan/internal/common"
)

// Upload sends a document for analysis and prints the result. The path is
// taken from args or asked for. For PDFs a document password is asked for
// without echo; an empty answer means none.
func (a *App) Upload(ctx context.Context, args []string) error {
	path := strings.Join(args, " ")
	if path == "" {
		var err error
		path, err = getSimpleText(a.reader, "Path to JPEG, PNG or PDF document", a.out)
		if err != nil {
			return err
		}
		if path == "" {
			fmt.Fprintln(a.out, "Usage: upload <path>")
			return nil
		}
	}

	doc, err := a.detectionService.Prepare(path)
	if err != nil {
		a.reportUploadError(ctx, path, err)
		return nil
	}

	if doc.IsPDF() {
		password, err := getSecret(a.out, "Document password (Enter for none): ")
		if err != nil {
			return err
		}
		doc.Password = string(password)
		common.WipeByteArray(password)
	}

	var res models.DetectionResult
	err = a.withSpinner("Analyzing document...", func() error {
		var serr error
		res, serr = a.detectionService.Submit(ctx, doc)
		return serr
	})
	if err != nil {
		a.reportUploadError(ctx, path, err)
		return nil
	}

	renderResult(a.out, res, a.isLoggedIn())
	return nil
}

func (a *App) reportUploadError(ctx context.Context, path string, err error) {
	a.log.Info(ctx, "detection failed", "path", path, "error", err)
	var verr *upload.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Fprintln(a.out, verr.Message)
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, msgUnavailable)
	default:
		if reason := serverMessage(err); reason != "" && !errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, reason)
		} else {
			fmt.Fprintln(a.out, msgUploadFailed)
		}
	}
}

// History prints past detections of the logged-in user. When the server
// rejects the session for good the user is sent back to the login prompt.
func (a *App) History(ctx context.Context) error {
	var records []models.DetectionRecord
	err := a.withSpinner("Loading history...", func() error {
		var herr error
		records, herr = a.detectionService.History(ctx)
		return herr
	})
	if err != nil {
		a.log.Info(ctx, "history failed", "error", err)
		switch {
		case errors.Is(err, client.ErrUnauthorized) && !a.isLoggedIn():
			a.allow(ctx, "history")
		case errors.Is(err, client.ErrUnavailable):
			fmt.Fprintln(a.out, msgUnavailable)
		default:
			fmt.Fprintln(a.out, msgHistoryFailed)
		}
		return nil
	}

	renderHistory(a.out, records)
	return nil
}

// Status prints who is logged in.
func (a *App) Status(context.Context) error {
	u, err := a.authService.User()
	if err != nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s (id %s)\n", u.Username, u.ID)
	return nil
}

// allow applies the route guard to a protected command. An anonymous user
// is sent to the login prompt and the command is not run.
func (a *App) allow(ctx context.Context, view string) bool {
	d := guard.Check(a.state(), view)
	switch d.Action {
	case guard.Allow:
		return true
	case guard.Wait:
		_ = a.withSpinner("Loading...", func() error { return nil })
		return false
	default:
		a.pendingView = d.From
		fmt.Fprintf(a.out, "Please log in to use %q.\n", d.From)
		if d.To == guard.LoginView {
			if err := a.Login(ctx); err != nil {
				a.log.Debug(ctx, "login prompt aborted", "error", err)
			}
		}
		return false
	}
}
