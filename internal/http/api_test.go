package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/devinder777/to-do-backend-service/internal/auth"
	"github.com/devinder777/to-do-backend-service/internal/domain"
	"github.com/devinder777/to-do-backend-service/internal/repository/sqlite"
	"github.com/devinder777/to-do-backend-service/internal/service"
	"github.com/devinder777/to-do-backend-service/internal/storage"
)

type testServer struct {
	router *gin.Engine
	now    time.Time
}

func (s *testServer) advance(d time.Duration) {
	s.now = s.now.Add(d)
}

func newTestServer(t *testing.T, store storage.Service) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	users := sqlite.NewUserRepository(db)
	todos := sqlite.NewTodoRepository(db)
	if err := sqlite.InitSchema(context.Background(), users, todos); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	srv := &testServer{now: time.Now()}
	tokens, err := auth.NewTokenService("api-test-secret", auth.DefaultTokenTTL, auth.WithClock(func() time.Time { return srv.now }))
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	handler := NewHandler(
		service.NewAuthService(users, tokens, bcrypt.MinCost),
		service.NewTodoService(todos),
		service.NewExportService(todos, store, service.ExportOptions{Bucket: "exports-bucket"}),
		tokens,
		logger,
	)
	srv.router = gin.New()
	handler.RegisterRoutes(srv.router)
	return srv
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		payload, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

type messageBody struct {
	Message string `json:"message"`
}

type todoList struct {
	Todos []todoResponse `json:"todos"`
}

func (s *testServer) register(t *testing.T, email, password string) sessionResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
	session := decode[sessionResponse](t, w)
	if session.Token == "" || session.UserID <= 0 {
		t.Fatalf("unexpected session %+v", session)
	}
	return session
}

func (s *testServer) listTodos(t *testing.T, token string) []todoResponse {
	t.Helper()
	w := s.do(t, http.MethodGet, "/todos", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list todos: status %d body %s", w.Code, w.Body.String())
	}
	return decode[todoList](t, w).Todos
}

func TestRegisterSeedsWelcomeTodo(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	todos := srv.listTodos(t, session.Token)
	if len(todos) != 1 {
		t.Fatalf("expected exactly one todo, got %d", len(todos))
	}
	seed := todos[0]
	if seed.Task != domain.SeedTodoText || seed.Completed != 0 || seed.UserID != session.UserID {
		t.Fatalf("unexpected seed todo %+v", seed)
	}
}

func TestTodoCRUDFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	w := srv.do(t, http.MethodPost, "/todos", session.Token, gin.H{"task": "buy milk"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	created := decode[todoResponse](t, w)
	if created.Task != "buy milk" || created.Completed != 0 || created.UserID != session.UserID {
		t.Fatalf("unexpected created todo %+v", created)
	}

	path := "/todos/" + itoa(created.ID)
	w = srv.do(t, http.MethodPut, path, session.Token, gin.H{"task": "buy milk", "completed": true})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", w.Code, w.Body.String())
	}
	if updated := decode[todoResponse](t, w); updated.Completed != 1 {
		t.Fatalf("expected completed 1, got %+v", updated)
	}

	w = srv.do(t, http.MethodDelete, path, session.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", w.Code, w.Body.String())
	}
	if msg := decode[messageBody](t, w); msg.Message != "Todo deleted" {
		t.Fatalf("unexpected delete message %q", msg.Message)
	}

	for _, todo := range srv.listTodos(t, session.Token) {
		if todo.ID == created.ID {
			t.Fatalf("deleted todo %d still listed", created.ID)
		}
	}
}

func TestCreateTodoRequiresStringTask(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	for name, body := range map[string]any{
		"missing":    gin.H{},
		"not string": `{"task": 42}`,
		"bad json":   `{"task":`,
	} {
		t.Run(name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/todos", session.Token, body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
	if n := len(srv.listTodos(t, session.Token)); n != 1 {
		t.Fatalf("expected only the seed todo, got %d", n)
	}
}

func TestUpdateKeepsOmittedCompleted(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")
	seed := srv.listTodos(t, session.Token)[0]
	path := "/todos/" + itoa(seed.ID)

	if w := srv.do(t, http.MethodPut, path, session.Token, gin.H{"completed": true}); w.Code != http.StatusOK {
		t.Fatalf("complete: status %d body %s", w.Code, w.Body.String())
	}
	w := srv.do(t, http.MethodPut, path, session.Token, gin.H{"task": "renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename: status %d body %s", w.Code, w.Body.String())
	}
	updated := decode[todoResponse](t, w)
	if updated.Task != "renamed" || updated.Completed != 1 {
		t.Fatalf("expected renamed completed todo, got %+v", updated)
	}

	if w := srv.do(t, http.MethodPut, path, session.Token, `{"completed": "yes"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-boolean completed, got %d", w.Code)
	}
}

func TestLoginFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.register(t, "alice@x.com", "secret1")

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{"unknown email", gin.H{"email": "bob@x.com", "password": "secret1"}, http.StatusNotFound, "User not found"},
		{"wrong password", gin.H{"email": "alice@x.com", "password": "nope"}, http.StatusUnauthorized, "Invalid password"},
		{"missing password", gin.H{"email": "alice@x.com"}, http.StatusBadRequest, "Email and password are required"},
		{"empty body", `{}`, http.StatusBadRequest, "Email and password are required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := srv.do(t, http.MethodPost, "/auth/login", "", tc.body)
			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d body %s", tc.status, w.Code, w.Body.String())
			}
			if msg := decode[messageBody](t, w); msg.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, msg.Message)
			}
		})
	}

	w := srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "alice@x.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	srv := newTestServer(t, nil)
	first := srv.register(t, "alice@x.com", "secret1")

	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "alice@x.com", "password": "other"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}

	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "alice@x.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login with original password: status %d", w.Code)
	}
	if session := decode[sessionResponse](t, w); session.UserID != first.UserID {
		t.Fatalf("expected user %d, got %d", first.UserID, session.UserID)
	}
}

func TestEmailsAreCaseInsensitive(t *testing.T) {
	srv := newTestServer(t, nil)
	first := srv.register(t, "Mixed@X.com", "secret1")

	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "mixed@x.com", "password": "other"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected duplicate register to fail with 500, got %d", w.Code)
	}

	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": " MIXED@x.com", "password": "secret1"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
	if session := decode[sessionResponse](t, w); session.UserID != first.UserID {
		t.Fatalf("expected user %d, got %d", first.UserID, session.UserID)
	}
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	srv := newTestServer(t, nil)
	password := strings.Repeat("p", 80)

	w := srv.do(t, http.MethodPost, "/auth/register", "", gin.H{"email": "long@x.com", "password": password})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", w.Code, w.Body.String())
	}
	if msg := decode[messageBody](t, w); msg.Message != "Password must be at most 72 bytes" {
		t.Fatalf("unexpected message %q", msg.Message)
	}

	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "long@x.com", "password": password})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on login, got %d body %s", w.Code, w.Body.String())
	}

	// the longest accepted password still round-trips
	srv.register(t, "long@x.com", password[:72])
	w = srv.do(t, http.MethodPost, "/auth/login", "", gin.H{"email": "long@x.com", "password": password[:72]})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", w.Code, w.Body.String())
	}
}

func TestTodosAreOwnerScoped(t *testing.T) {
	srv := newTestServer(t, nil)
	alice := srv.register(t, "alice@x.com", "secret1")
	bob := srv.register(t, "bob@x.com", "secret2")

	aliceTodo := srv.listTodos(t, alice.Token)[0]
	for _, todo := range srv.listTodos(t, bob.Token) {
		if todo.ID == aliceTodo.ID {
			t.Fatal("bob can see alice's todo")
		}
	}

	foreign := "/todos/" + itoa(aliceTodo.ID)
	missing := "/todos/999999"
	body := gin.H{"task": "hijacked", "completed": true}

	foreignPut := srv.do(t, http.MethodPut, foreign, bob.Token, body)
	missingPut := srv.do(t, http.MethodPut, missing, bob.Token, body)
	foreignDel := srv.do(t, http.MethodDelete, foreign, bob.Token, nil)
	missingDel := srv.do(t, http.MethodDelete, missing, bob.Token, nil)

	for _, w := range []*httptest.ResponseRecorder{foreignPut, missingPut, foreignDel, missingDel} {
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	}
	if foreignPut.Body.String() != missingPut.Body.String() || foreignDel.Body.String() != missingDel.Body.String() {
		t.Fatalf("foreign and missing responses differ: %s / %s", foreignPut.Body.String(), missingPut.Body.String())
	}

	after := srv.listTodos(t, alice.Token)
	if len(after) != 1 || after[0].Task != aliceTodo.Task || after[0].Completed != 0 {
		t.Fatalf("alice's todo was modified: %+v", after)
	}
}

func TestNonNumericTodoIDIsNotFound(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	w := srv.do(t, http.MethodPut, "/todos/abc", session.Token, gin.H{"completed": true})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if msg := decode[messageBody](t, w); msg.Message != "Todo not found or unauthorized" {
		t.Fatalf("unexpected message %q", msg.Message)
	}
}

func TestAccessGuard(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/todos"},
		{http.MethodPost, "/todos"},
		{http.MethodPut, "/todos/1"},
		{http.MethodDelete, "/todos/1"},
		{http.MethodGet, "/auth/me"},
	}

	t.Run("missing token", func(t *testing.T) {
		for _, r := range routes {
			w := srv.do(t, r.method, r.path, "", gin.H{"task": "x"})
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s: expected 401, got %d", r.method, r.path, w.Code)
			}
			if w.Header().Get("WWW-Authenticate") == "" {
				t.Fatalf("%s %s: missing WWW-Authenticate header", r.method, r.path)
			}
			if msg := decode[messageBody](t, w); msg.Message != "No token provided" {
				t.Fatalf("unexpected message %q", msg.Message)
			}
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/todos", "not-a-jwt", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("bearer prefix", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/todos", "Bearer "+session.Token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		srv.advance(25 * time.Hour)
		for _, r := range routes {
			w := srv.do(t, r.method, r.path, session.Token, gin.H{"task": "x"})
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("%s %s: expected 401, got %d", r.method, r.path, w.Code)
			}
			if msg := decode[messageBody](t, w); msg.Message != "Invalid or expired token" {
				t.Fatalf("unexpected message %q", msg.Message)
			}
		}
	})
}

func TestMe(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	w := srv.do(t, http.MethodGet, "/auth/me", session.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d body %s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Fatalf("response leaks password field: %s", w.Body.String())
	}
	user := decode[userResponse](t, w)
	if user.ID != session.UserID || user.Email != "alice@x.com" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestHealthAndRoot(t *testing.T) {
	srv := newTestServer(t, nil)

	w := srv.do(t, http.MethodGet, "/", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "Welcome to the server" {
		t.Fatalf("unexpected root response %d %q", w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	w := srv.do(t, http.MethodOptions, "/todos", "", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("missing CORS header")
	}
}

func TestExportsDisabled(t *testing.T) {
	srv := newTestServer(t, nil)
	session := srv.register(t, "alice@x.com", "secret1")

	w := srv.do(t, http.MethodPost, "/exports", session.Token, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestExportsRoundTrip(t *testing.T) {
	store := &fakeStorage{objects: map[string]int{}}
	srv := newTestServer(t, store)
	alice := srv.register(t, "alice@x.com", "secret1")
	bob := srv.register(t, "bob@x.com", "secret2")

	w := srv.do(t, http.MethodPost, "/exports", alice.Token, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("export: status %d body %s", w.Code, w.Body.String())
	}
	export := decode[exportResponse](t, w)
	if export.Count != 1 || export.URL == "" || !strings.Contains(export.Key, "user-"+itoa(alice.UserID)+"/") {
		t.Fatalf("unexpected export %+v", export)
	}

	type exportList struct {
		Exports []exportObjectResponse `json:"exports"`
	}
	if list := decode[exportList](t, srv.do(t, http.MethodGet, "/exports", alice.Token, nil)); len(list.Exports) != 1 {
		t.Fatalf("expected 1 export for alice, got %d", len(list.Exports))
	}
	if list := decode[exportList](t, srv.do(t, http.MethodGet, "/exports", bob.Token, nil)); len(list.Exports) != 0 {
		t.Fatalf("expected no exports for bob, got %d", len(list.Exports))
	}

	if w := srv.do(t, http.MethodDelete, "/exports", alice.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete exports: status %d", w.Code)
	}
	if list := decode[exportList](t, srv.do(t, http.MethodGet, "/exports", alice.Token, nil)); len(list.Exports) != 0 {
		t.Fatalf("expected exports removed, got %d", len(list.Exports))
	}
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string]int
}

func (f *fakeStorage) PutObject(_ context.Context, body io.Reader, opts storage.PutOptions) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[opts.Key] = len(data)
	return "s3://" + opts.Bucket + "/" + opts.Key, nil
}

func (f *fakeStorage) ListObjects(_ context.Context, _ string, prefix string) ([]storage.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []storage.ObjectInfo
	for key, size := range f.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(size)})
		}
	}
	return out, nil
}

func (f *fakeStorage) DeletePrefix(_ context.Context, _ string, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

func (f *fakeStorage) GetObjectURL(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://storage.test/" + bucket + "/" + key, nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
