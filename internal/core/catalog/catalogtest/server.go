// Package catalogtest provides an in-memory catalog service for tests.
package catalogtest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yndnr/booklend-go/internal/core/domain"
)

// Default credentials accepted by a new Server.
const (
	Token    = "abc123"
	Email    = "reader@example.com"
	Password = "secret"
)

// Request is one request received by the Server.
type Request struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
}

type forced struct {
	status int
	body   string
}

// Server is a fake catalog service mounted under /api.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	books    map[string]domain.Book
	order    []string
	requests []Request
	forced   map[string]forced
}

// NewServer starts a Server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		token:  Token,
		books:  make(map[string]domain.Book),
		forced: make(map[string]forced),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL returns the catalog base URL, including the /api prefix.
func (s *Server) BaseURL() string {
	return s.URL + "/api"
}

// SetToken changes the bearer token the server accepts.
func (s *Server) SetToken(tok string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = tok
}

// Seed adds books. Books without an ID get one assigned.
func (s *Server) Seed(books ...domain.Book) []domain.Book {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Book, 0, len(books))
	for _, b := range books {
		if b.ID == "" {
			b.ID = s.newID()
		}
		s.put(b)
		out = append(out, b)
	}
	return out
}

// Book returns a stored book.
func (s *Server) Book(id string) (domain.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	return b, ok
}

// Force makes every request matching method and path (under /api)
// answer status with body.
func (s *Server) Force(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[method+" "+path] = forced{status: status, body: body}
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path (under /api).
// An empty method matches any method.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if (method == "" || r.Method == method) && r.Path == "/api"+path {
			n++
		}
	}
	return n
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/signin", s.handleSignIn).Methods(http.MethodPost)

	api.Handle("/books", s.authenticate(s.handleList)).Methods(http.MethodGet)
	api.Handle("/books", s.authenticate(s.handleCreate)).Methods(http.MethodPost)
	api.Handle("/books/{id}", s.authenticate(s.handleGet)).Methods(http.MethodGet)
	api.Handle("/books/{id}", s.authenticate(s.handleUpdate)).Methods(http.MethodPut)
	api.Handle("/books/{id}", s.authenticate(s.handleDelete)).Methods(http.MethodDelete)
	return r
}

// record logs the request and applies forced responses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Auth:   r.Header.Get("Authorization"),
			Body:   body,
		})
		f, ok := s.forced[r.Method+" "+strings.TrimPrefix(r.URL.Path, "/api")]
		s.mu.Unlock()

		if ok {
			w.WriteHeader(f.status)
			io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		want := "Bearer " + s.token
		s.mu.Unlock()

		if r.Header.Get("Authorization") != want {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "bad request"})
		return
	}
	if req.Email != Email || req.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}

	s.mu.Lock()
	tok := s.token
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	books := make([]domain.Book, 0, len(s.order))
	for _, id := range s.order {
		books = append(books, s.books[id])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	b, ok := s.Book(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in domain.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	b := fromInput(s.newID(), in)
	s.put(b)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"book": b})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var in domain.BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	_, ok := s.books[id]
	b := fromInput(id, in)
	if ok {
		s.books[id] = b
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"book": b})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	_, ok := s.books[id]
	if ok {
		delete(s.books, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted"})
}

// newID returns a 24-character hex id shaped like a document id.
func (s *Server) newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// put must be called with mu held.
func (s *Server) put(b domain.Book) {
	if _, exists := s.books[b.ID]; !exists {
		s.order = append(s.order, b.ID)
	}
	s.books[b.ID] = b
}

func fromInput(id string, in domain.BookInput) domain.Book {
	return domain.Book{
		ID:          id,
		Title:       in.Title,
		Author:      in.Author,
		Description: in.Description,
		Genre:       in.Genre,
		Year:        in.Year,
		Price:       in.Price,
		Available:   in.Available,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
