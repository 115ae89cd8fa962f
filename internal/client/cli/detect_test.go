package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/tamperscan/internal/client/client"
	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/dmitrijs2005/tamperscan/internal/client/session"
	"github.com/dmitrijs2005/tamperscan/internal/client/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDetect struct {
	prepPath string
	prepDoc  models.Document
	prepErr  error

	submitted []models.Document
	checkRet  models.DetectionResult
	checkErr  error

	historyRet []models.DetectionRecord
	historyErr error
	historyN   int
}

func (f *fakeDetect) Prepare(path string) (models.Document, error) {
	f.prepPath = path
	if f.prepErr != nil {
		return models.Document{}, f.prepErr
	}
	if f.prepDoc.Name != "" {
		return f.prepDoc, nil
	}
	return models.Document{Name: filepath.Base(path), ContentType: "image/png", Data: []byte("png")}, nil
}

func (f *fakeDetect) Submit(_ context.Context, doc models.Document) (models.DetectionResult, error) {
	f.submitted = append(f.submitted, doc)
	return f.checkRet, f.checkErr
}

func (f *fakeDetect) History(context.Context) ([]models.DetectionRecord, error) {
	f.historyN++
	return f.historyRet, f.historyErr
}

func TestUpload_RendersResult(t *testing.T) {
	ds := &fakeDetect{
		prepDoc: models.Document{Name: "id.pdf", ContentType: "application/pdf", Data: []byte("%PDF")},
		checkRet: models.DetectionResult{
			Status: "Tampered", Confidence: 87.5, FileName: "id.pdf",
			Details: map[string]any{"ela_score": 0.42},
		},
	}
	a, out := newTestApp(&fakeAuth{state: session.State{Kind: session.Unauthenticated}}, ds)
	stubInputs(t, nil, []byte("pdfpw"))

	require.NoError(t, a.Upload(context.Background(), []string{"/tmp/id.pdf"}))
	assert.Equal(t, "/tmp/id.pdf", ds.prepPath)
	require.Len(t, ds.submitted, 1)
	assert.Equal(t, "pdfpw", ds.submitted[0].Password)

	s := out.String()
	assert.Contains(t, s, "Results for: id.pdf")
	assert.Contains(t, s, "Tampered Document")
	assert.Contains(t, s, "Confidence Level: 87.5%")
	assert.Contains(t, s, "Potential tampering detected")
	assert.Contains(t, s, "Please verify with additional checks.")
	assert.Contains(t, s, "Detection Breakdown")
	assert.Contains(t, s, `"ela_score": 0.42`)
	assert.Contains(t, s, msgSaveResults)
}

func TestUpload_ImageSkipsPasswordPrompt(t *testing.T) {
	ds := &fakeDetect{checkRet: models.DetectionResult{Status: "Original", Confidence: 93}}
	a, out := newTestApp(&fakeAuth{state: session.State{Kind: session.Unauthenticated}}, ds)
	stubInputs(t, nil, nil)
	asked := 0
	getSecret = func(io.Writer, string) ([]byte, error) {
		asked++
		return nil, errors.New("not a terminal")
	}

	require.NoError(t, a.Upload(context.Background(), []string{"scan.png"}))
	assert.Zero(t, asked)
	require.Len(t, ds.submitted, 1)
	assert.Empty(t, ds.submitted[0].Password)
	assert.Contains(t, out.String(), "Original Document")
}

func TestUpload_PDFPasswordPromptFails(t *testing.T) {
	ds := &fakeDetect{prepDoc: models.Document{Name: "a.pdf", ContentType: "application/pdf"}}
	a, _ := newTestApp(&fakeAuth{}, ds)
	stubInputs(t, nil, nil)
	getSecret = func(io.Writer, string) ([]byte, error) { return nil, errors.New("not a terminal") }

	assert.Error(t, a.Upload(context.Background(), []string{"a.pdf"}))
	assert.Empty(t, ds.submitted)
}

func TestUpload_AuthenticatedHidesRegisterHint(t *testing.T) {
	ds := &fakeDetect{checkRet: models.DetectionResult{Status: "original", Confidence: 99}}
	a, out := newTestApp(&fakeAuth{state: session.State{Kind: session.Authenticated}}, ds)
	stubInputs(t, nil, nil)

	require.NoError(t, a.Upload(context.Background(), []string{"doc.png"}))
	s := out.String()
	assert.Contains(t, s, "Original Document")
	assert.Contains(t, s, "No signs of tampering detected")
	assert.Contains(t, s, "authentic with no signs of manipulation.")
	assert.NotContains(t, s, "Detection Breakdown")
	assert.NotContains(t, s, msgSaveResults)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name    string
		prepErr error
		sendErr error
		want    string
	}{
		{"validation", &upload.ValidationError{Message: upload.MsgTooLarge}, nil, "File size must be less than 5MB"},
		{"missing file", errors.New("open document: no such file"), nil, msgUploadFailed},
		{"unavailable", nil, fmt.Errorf("upload x: %w", client.ErrUnavailable), msgUnavailable},
		{"server reason", nil, &client.HTTPError{StatusCode: http.StatusBadRequest, Message: "Unsupported or missing file type"}, "Unsupported or missing file type"},
		{"unauthorized", nil, &client.HTTPError{StatusCode: http.StatusUnauthorized, Message: "token_not_valid"}, msgUploadFailed},
		{"other", nil, errors.New("weird"), msgUploadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := &fakeDetect{prepErr: tt.prepErr, checkErr: tt.sendErr}
			a, out := newTestApp(&fakeAuth{}, ds)
			stubInputs(t, nil, nil)

			require.NoError(t, a.Upload(context.Background(), []string{"f"}))
			assert.Contains(t, out.String(), tt.want)
			if tt.prepErr != nil {
				assert.Empty(t, ds.submitted)
			}
		})
	}
}

func TestUpload_AsksForPath(t *testing.T) {
	ds := &fakeDetect{checkRet: models.DetectionResult{Status: "Original"}}
	a, out := newTestApp(&fakeAuth{}, ds)

	stubInputs(t, []string{""}, nil)
	require.NoError(t, a.Upload(context.Background(), nil))
	assert.Contains(t, out.String(), "Usage: upload <path>")
	assert.Empty(t, ds.prepPath)

	stubInputs(t, []string{"/data/scan.jpg"}, nil)
	require.NoError(t, a.Upload(context.Background(), nil))
	assert.Equal(t, "/data/scan.jpg", ds.prepPath)
}

func TestHistory_Table(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ds := &fakeDetect{historyRet: []models.DetectionRecord{
		{ID: 2, Result: "Tampered", Confidence: 70, Timestamp: ts, ImageURL: "http://h/media/uploads/b.png"},
		{ID: 1, Result: "Original", Confidence: 95.5, Timestamp: ts, Image: "uploads/a.jpg"},
	}}
	a, out := newTestApp(&fakeAuth{state: session.State{Kind: session.Authenticated}}, ds)

	require.NoError(t, a.History(context.Background()))
	s := out.String()
	assert.Contains(t, s, "b.png")
	assert.Contains(t, s, "a.jpg")
	assert.Contains(t, s, "95.5% confidence")
	assert.Contains(t, s, ts.Local().Format("2006-01-02 15:04:05"))
}

func TestHistory_EmptyAndFailure(t *testing.T) {
	a, out := newTestApp(&fakeAuth{}, &fakeDetect{})
	require.NoError(t, a.History(context.Background()))
	assert.Contains(t, out.String(), msgNoHistory)
	assert.Contains(t, out.String(), msgNoHistoryHint)

	a, out = newTestApp(&fakeAuth{state: session.State{Kind: session.Authenticated}},
		&fakeDetect{historyErr: errors.New("history: http 500")})
	require.NoError(t, a.History(context.Background()))
	assert.Contains(t, out.String(), msgHistoryFailed)
}

func TestHistory_SessionEndedRedirectsToLogin(t *testing.T) {
	// the session was dropped while the request was in flight
	f := &fakeAuth{state: session.State{Kind: session.Unauthenticated}}
	ds := &fakeDetect{historyErr: fmt.Errorf("history: %w", &client.HTTPError{StatusCode: http.StatusUnauthorized})}
	a, out := newTestApp(f, ds)
	stubInputs(t, []string{"erin"}, []byte("pw"))

	require.NoError(t, a.History(context.Background()))
	s := out.String()
	assert.NotContains(t, s, msgHistoryFailed)
	assert.Contains(t, s, `Please log in to use "history".`)
	assert.Equal(t, "history", a.pendingView)
	assert.Equal(t, "erin", f.loginUser)
}

func TestAllow_RedirectsToLogin(t *testing.T) {
	f := &fakeAuth{state: session.State{Kind: session.Unauthenticated}}
	ds := &fakeDetect{}
	a, out := newTestApp(f, ds)
	stubInputs(t, []string{"erin"}, []byte("pw"))

	ok := a.allow(context.Background(), "history")
	assert.False(t, ok)
	assert.Equal(t, "history", a.pendingView)
	assert.Contains(t, out.String(), `Please log in to use "history".`)
	// the login prompt ran, but the original command is not resumed
	assert.Equal(t, "erin", f.loginUser)
	assert.Zero(t, ds.historyN)
	assert.True(t, a.isLoggedIn())

	assert.True(t, a.allow(context.Background(), "history"))
}

func TestAllow_WaitsWhileLoading(t *testing.T) {
	f := &fakeAuth{state: session.State{Kind: session.Loading}}
	a, out := newTestApp(f, nil)

	assert.False(t, a.allow(context.Background(), "history"))
	assert.Empty(t, a.pendingView)
	assert.Empty(t, out.String())
}

func TestStatus(t *testing.T) {
	a, out := newTestApp(&fakeAuth{state: session.State{Kind: session.Unauthenticated}}, nil)
	require.NoError(t, a.Status(context.Background()))
	assert.Equal(t, "Not logged in.\n", out.String())

	a, out = newTestApp(&fakeAuth{state: session.State{
		Kind: session.Authenticated, User: models.User{ID: "7", Username: "alice"},
	}}, nil)
	require.NoError(t, a.Status(context.Background()))
	assert.Equal(t, "Logged in as alice (id 7)\n", out.String())
}

func TestFormatConfidence(t *testing.T) {
	assert.Equal(t, "90", formatConfidence(90))
	assert.Equal(t, "87.5", formatConfidence(87.5))
}

func TestRenderHistory_NoTableWhenEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderHistory(&buf, nil)
	assert.NotContains(t, buf.String(), "Result")
}
