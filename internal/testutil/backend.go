package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
)

type account struct {
	id       int
	email    string
	password string
}

type historyItem struct {
	ID         int64     `json:"id"`
	Result     string    `json:"result"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Image      string    `json:"image"`
}

// Backend is an in-process fake of the detection service. It issues real
// HS256 tokens, enforces bearer credentials on the history endpoint and on
// uploads that carry one, and counts calls per path.
type Backend struct {
	Server *httptest.Server

	mu           sync.Mutex
	accessTTL    time.Duration
	verdict      string
	confidence   float64
	accounts     map[string]*account
	history      map[int][]historyItem
	calls        map[string]int
	forced       map[string]int
	lastUpload   *UploadRecord
	lastAuthz    map[string]string
	refreshDelay time.Duration
	nextID       int64
}

// UploadRecord is what the fake saw in the last upload.
type UploadRecord struct {
	FileName    string
	ContentType string
	Data        []byte
	Password    string
}

// NewBackend starts the fake and stops it when t finishes.
func NewBackend(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accessTTL:  5 * time.Minute,
		verdict:    "Original",
		confidence: 95,
		accounts:   map[string]*account{},
		history:    map[int][]historyItem{},
		calls:      map[string]int{},
		forced:     map[string]int{},
		lastAuthz:  map[string]string{},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/login/", b.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register/", b.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh/", b.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/history/", b.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/upload/", b.handleUpload).Methods(http.MethodPost)
	r.Use(b.countingMiddleware)

	b.Server = httptest.NewServer(r)
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base URL of the fake.
func (b *Backend) URL() string { return b.Server.URL }

// SetVerdict changes the answer of subsequent uploads.
func (b *Backend) SetVerdict(verdict string, confidence float64) {
	b.mu.Lock()
	b.verdict, b.confidence = verdict, confidence
	b.mu.Unlock()
}

// AddUser registers an account directly and returns its numeric id.
func (b *Backend) AddUser(username, password string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, "", password)
}

func (b *Backend) addUserLocked(username, email, password string) int {
	id := len(b.accounts) + 1
	b.accounts[username] = &account{id: id, email: email, password: password}
	return id
}

// Pair issues a valid token pair for an existing user.
func (b *Backend) Pair(username string) (access, refresh string) {
	b.mu.Lock()
	acc := b.accounts[username]
	ttl := b.accessTTL
	b.mu.Unlock()
	if acc == nil {
		panic("unknown user " + username)
	}
	return AccessToken(acc.id, username, time.Now().Add(ttl)), RefreshToken(acc.id, time.Now().Add(24*time.Hour))
}

// ForceStatus makes path answer status for every call until cleared with 0.
func (b *Backend) ForceStatus(path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.forced, path)
		return
	}
	b.forced[path] = status
}

// SlowRefresh delays every refresh answer by d.
func (b *Backend) SlowRefresh(d time.Duration) {
	b.mu.Lock()
	b.refreshDelay = d
	b.mu.Unlock()
}

// Calls returns how many requests reached path.
func (b *Backend) Calls(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

// TotalCalls returns the number of requests received on any path.
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

// LastAuthorization returns the Authorization header of the last request to path.
func (b *Backend) LastAuthorization(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastAuthz[path]
}

// LastUpload returns the last upload received, or nil.
func (b *Backend) LastUpload() *UploadRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUpload
}

// HistoryOf returns how many records are stored for username.
func (b *Backend) HistoryOf(username string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accounts[username]
	if acc == nil {
		return 0
	}
	return len(b.history[acc.id])
}

func (b *Backend) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.calls[r.URL.Path]++
		b.lastAuthz[r.URL.Path] = r.Header.Get("Authorization")
		status := b.forced[r.URL.Path]
		b.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

var errTokenInvalid = errors.New("token invalid")

func (b *Backend) parse(token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, errTokenInvalid
	}
	return claims, nil
}

// bearer returns the user id of a valid bearer credential. ok is false when
// no credential was sent; err is set when one was sent but is not valid.
func (b *Backend) bearer(r *http.Request) (id int, ok bool, err error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return 0, false, nil
	}
	token, found := strings.CutPrefix(h, "Bearer ")
	if !found {
		return 0, true, errTokenInvalid
	}
	claims, err := b.parse(token, "access")
	if err != nil {
		return 0, true, err
	}
	switch v := claims.UserID.(type) {
	case float64:
		return int(v), true, nil
	default:
		return 0, true, errTokenInvalid
	}
}

func notAuthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]any{
		"detail": "Given token not valid for any token type",
		"code":   "token_not_valid",
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Username == "" || in.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password required"})
		return
	}

	b.mu.Lock()
	acc := b.accounts[in.Username]
	b.mu.Unlock()
	if acc == nil || acc.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	access, refresh := b.Pair(in.Username)
	writeJSON(w, http.StatusOK, map[string]any{
		"access":   access,
		"refresh":  refresh,
		"user_id":  acc.id,
		"username": in.Username,
	})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if !strings.Contains(in.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Enter a valid email address."}})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[in.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username already exists"})
		return
	}
	b.addUserLocked(in.Username, in.Email, in.Password)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delay := b.refreshDelay
	b.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}
	claims, err := b.parse(in.Refresh, "refresh")
	if err != nil {
		notAuthenticated(w)
		return
	}

	id, _ := claims.UserID.(float64)
	username := ""
	b.mu.Lock()
	for name, acc := range b.accounts {
		if acc.id == int(id) {
			username = name
		}
	}
	ttl := b.accessTTL
	b.mu.Unlock()
	if username == "" {
		notAuthenticated(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access": AccessToken(int(id), username, time.Now().Add(ttl)),
	})
}

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok, err := b.bearer(r)
	if !ok || err != nil {
		notAuthenticated(w)
		return
	}

	b.mu.Lock()
	items := append([]historyItem{}, b.history[id]...)
	b.mu.Unlock()

	// newest first
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	writeJSON(w, http.StatusOK, items)
}

func (b *Backend) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok, err := b.bearer(r)
	if ok && err != nil {
		notAuthenticated(w)
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported or missing file type"})
		return
	}
	defer f.Close()
	data, _ := io.ReadAll(f)

	contentType := hdr.Header.Get("Content-Type")
	switch contentType {
	case "image/jpeg", "image/png", "application/pdf":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Unsupported or missing file type"})
		return
	}

	b.mu.Lock()
	b.lastUpload = &UploadRecord{
		FileName:    hdr.Filename,
		ContentType: contentType,
		Data:        data,
		Password:    r.FormValue("password"),
	}
	verdict, confidence := b.verdict, b.confidence
	if ok {
		b.nextID++
		b.history[id] = append(b.history[id], historyItem{
			ID:         b.nextID,
			Result:     verdict,
			Confidence: confidence,
			Timestamp:  time.Now().UTC().Truncate(time.Second),
			Image:      "uploads/" + hdr.Filename,
		})
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     verdict,
		"confidence": confidence,
		"file_name":  hdr.Filename,
		"timestamp":  time.Now().Format(time.RFC3339),
		"details": map[string]any{
			"is_authentic": verdict == "Original",
			"reasons":      []string{fmt.Sprintf("checked %d bytes", len(data))},
		},
	})
}
