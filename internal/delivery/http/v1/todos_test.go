package v1

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/internal/models"
	"github.com/adanyl0v/go-todo-api/internal/services"
	"github.com/adanyl0v/go-todo-api/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	db     *sql.DB
	router *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := storage.OpenSQLite(ctx, filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	err = storage.NewMigrationRunner(zerolog.Nop(), db, storage.DialectSQLite).Run(ctx)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	clock := func() time.Time { return time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC) }
	service := services.NewSQLiteTodoService(zerolog.Nop(), db, clock)

	return &testServer{
		t:      t,
		db:     db,
		router: newTestRouter(service),
	}
}

func newTestRouter(service services.TodoService) *gin.Engine {
	router := gin.New()
	RegisterRoutes(router, New(zerolog.Nop(), service))
	return router
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	return serve(s.router, method, path, body)
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeTodo(t *testing.T, w *httptest.ResponseRecorder) getTodoResponse {
	t.Helper()
	var todo getTodoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &todo); err != nil {
		t.Fatalf("decode todo %q: %v", w.Body.String(), err)
	}
	return todo
}

func decodeTodos(t *testing.T, w *httptest.ResponseRecorder) []getTodoResponse {
	t.Helper()
	var todos []getTodoResponse
	if err := json.Unmarshal(w.Body.Bytes(), &todos); err != nil {
		t.Fatalf("decode todos %q: %v", w.Body.String(), err)
	}
	return todos
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestTodoLifecycle(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/todo/", `{"name":"Buy milk"}`)
	expectStatus(t, w, http.StatusCreated)
	want := getTodoResponse{ID: 1, Name: "Buy milk", Done: false, CreateAt: "2024-01-01"}
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	w = s.do(http.MethodGet, "/todo/1", "")
	expectStatus(t, w, http.StatusOK)
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	w = s.do(http.MethodPut, "/todo/1", `{"done":true}`)
	expectStatus(t, w, http.StatusOK)
	want.Done = true
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	w = s.do(http.MethodDelete, "/todo/1", "")
	expectStatus(t, w, http.StatusNoContent)
	if w.Body.Len() != 0 {
		t.Errorf("expected an empty body, got %q", w.Body.String())
	}

	w = s.do(http.MethodGet, "/todo/1", "")
	expectStatus(t, w, http.StatusNotFound)
}

func TestHandleCreateTodo_IgnoresServerFields(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/todo/", `{"id":99,"name":"Read","done":true,"create_at":"1999-12-31"}`)
	expectStatus(t, w, http.StatusCreated)

	got := decodeTodo(t, w)
	if got.ID == 99 {
		t.Error("expected client id to be ignored")
	}
	if got.CreateAt != "2024-01-01" {
		t.Errorf("expected create_at 2024-01-01, got %q", got.CreateAt)
	}
	if !got.Done {
		t.Error("expected done to be true")
	}
}

func TestHandleCreateTodo_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"missing name", `{"done":true}`},
		{"empty name", `{"name":""}`},
		{"null name", `{"name":null}`},
		{"name too long", `{"name":"` + strings.Repeat("a", 121) + `"}`},
		{"name not a string", `{"name":42}`},
		{"done not a bool", `{"name":"Buy milk","done":"yes"}`},
		{"malformed json", `{"name":`},
		{"trailing data", `{"name":"a"} trailing`},
		{"two json values", `{"name":"a"}{"name":"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)

			w := s.do(http.MethodPost, "/todo/", tt.body)
			expectStatus(t, w, http.StatusBadRequest)

			w = s.do(http.MethodGet, "/todo/", "")
			expectStatus(t, w, http.StatusOK)
			if todos := decodeTodos(t, w); len(todos) != 0 {
				t.Errorf("expected nothing persisted, got %d todos", len(todos))
			}
		})
	}
}

func TestHandleGetTodos(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/todo/", "")
	expectStatus(t, w, http.StatusOK)
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("expected an empty array, got %s", body)
	}

	names := map[string]bool{"one": true, "two": true, "three": true}
	for name := range names {
		w = s.do(http.MethodPost, "/todo/", `{"name":"`+name+`"}`)
		expectStatus(t, w, http.StatusCreated)
	}

	w = s.do(http.MethodGet, "/todo/", "")
	expectStatus(t, w, http.StatusOK)
	todos := decodeTodos(t, w)
	if len(todos) != len(names) {
		t.Fatalf("expected %d todos, got %d", len(names), len(todos))
	}
	for _, todo := range todos {
		if !names[todo.Name] {
			t.Errorf("unexpected todo %+v", todo)
		}
	}
}

func TestHandleGetTodo_InvalidID(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/todo/abc", "/todo/0", "/todo/-1", "/todo/1.5"} {
		w := s.do(http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, w.Code)
		}
	}
}

func TestHandleUpdateTodo(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(http.MethodPost, "/todo/", `{"name":"Buy milk"}`), http.StatusCreated)

	w := s.do(http.MethodPatch, "/todo/1", `{"name":"Buy bread"}`)
	expectStatus(t, w, http.StatusOK)
	want := getTodoResponse{ID: 1, Name: "Buy bread", Done: false, CreateAt: "2024-01-01"}
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	w = s.do(http.MethodPut, "/todo/1", `{"name":"Buy eggs","done":true,"create_at":"2000-01-01"}`)
	expectStatus(t, w, http.StatusOK)
	want = getTodoResponse{ID: 1, Name: "Buy eggs", Done: true, CreateAt: "2024-01-01"}
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}

	w = s.do(http.MethodPatch, "/todo/1", "")
	expectStatus(t, w, http.StatusOK)
	if got := decodeTodo(t, w); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestHandleUpdateTodo_Errors(t *testing.T) {
	s := newTestServer(t)
	expectStatus(t, s.do(http.MethodPost, "/todo/", `{"name":"Buy milk"}`), http.StatusCreated)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"missing todo", "/todo/2", `{"done":true}`, http.StatusNotFound},
		{"missing todo with invalid body", "/todo/2", `{"done":"yes"}`, http.StatusNotFound},
		{"missing todo with invalid name", "/todo/2", `{"name":""}`, http.StatusNotFound},
		{"empty name", "/todo/1", `{"name":""}`, http.StatusBadRequest},
		{"name too long", "/todo/1", `{"name":"` + strings.Repeat("a", 121) + `"}`, http.StatusBadRequest},
		{"done not a bool", "/todo/1", `{"done":"yes"}`, http.StatusBadRequest},
		{"malformed json", "/todo/1", `{`, http.StatusBadRequest},
		{"trailing data", "/todo/1", `{"done":true} trailing`, http.StatusBadRequest},
		{"null name", "/todo/1", `{"name":null}`, http.StatusBadRequest},
		{"null done", "/todo/1", `{"done":null}`, http.StatusBadRequest},
		{"missing todo with null name", "/todo/2", `{"name":null}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, tt.path, tt.body)
			expectStatus(t, w, tt.want)
		})
	}

	w := s.do(http.MethodGet, "/todo/1", "")
	expectStatus(t, w, http.StatusOK)
	if got := decodeTodo(t, w); got.Name != "Buy milk" || got.Done {
		t.Errorf("expected todo unchanged, got %+v", got)
	}
}

func TestHandleDeleteTodo_NotFound(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodDelete, "/todo/5", "")
	expectStatus(t, w, http.StatusNotFound)

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["error"] != services.ErrTodoNotFound.Error() {
		t.Errorf("expected error %q, got %q", services.ErrTodoNotFound.Error(), body["error"])
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/healthz", "")
	expectStatus(t, w, http.StatusOK)

	_ = s.db.Close()

	w = s.do(http.MethodGet, "/healthz", "")
	expectStatus(t, w, http.StatusServiceUnavailable)
}

// brokenTodoService fails every call as if the storage were down.
type brokenTodoService struct{}

var errStorageDown = errors.New("storage is down")

func (brokenTodoService) CreateTodo(context.Context, services.CreateTodoParams) (*models.Todo, error) {
	return nil, errStorageDown
}

func (brokenTodoService) GetTodo(context.Context, int64) (*models.Todo, error) {
	return nil, errStorageDown
}

func (brokenTodoService) GetTodos(context.Context) ([]*models.Todo, error) {
	return nil, errStorageDown
}

func (brokenTodoService) UpdateTodo(context.Context, services.UpdateTodoParams) (*models.Todo, error) {
	return nil, errStorageDown
}

func (brokenTodoService) DeleteTodo(context.Context, int64) error {
	return errStorageDown
}

func (brokenTodoService) Ping(context.Context) error {
	return errStorageDown
}

func TestHandlers_StorageFailure(t *testing.T) {
	router := newTestRouter(brokenTodoService{})

	tests := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/todo/", ""},
		{http.MethodPost, "/todo/", `{"name":"Buy milk"}`},
		{http.MethodGet, "/todo/1", ""},
		{http.MethodPut, "/todo/1", `{"done":true}`},
		{http.MethodDelete, "/todo/1", ""},
	}

	for _, tt := range tests {
		w := serve(router, tt.method, tt.path, tt.body)
		if w.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: expected 500, got %d", tt.method, tt.path, w.Code)
		}
	}
}
