package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/booksearch/internal/models"
	"github.com/desertthunder/booksearch/internal/shared"
	"github.com/desertthunder/booksearch/internal/tasks"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SearchResponse is the body of GET /api/search.
type SearchResponse struct {
	Query      string        `json:"query"`
	Count      int           `json:"count"`
	Books      []models.Book `json:"books"`
	DurationMS int64         `json:"duration_ms"`
}

// BooksResponse is the body of GET /api/books.
type BooksResponse struct {
	Version   uint64        `json:"version"`
	Count     int           `json:"count"`
	Books     []models.Book `json:"books"`
	UpdatedAt *time.Time    `json:"updated_at,omitempty"`
}

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	State     string `json:"state"`
	Busy      bool   `json:"busy"`
	Catalog   string `json:"catalog"`
	Version   uint64 `json:"version"`
	Count     int    `json:"count"`
	LastQuery string `json:"last_query,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind,omitempty"`
	Status int    `json:"status,omitempty"` // upstream HTTP status, when one was received
}

// APIHandler serves the JSON API over a shared search engine.
// Implements the Handler interface for registration with a Router.
type APIHandler struct {
	engine *tasks.SearchEngine
	logger *log.Logger
	mux    *http.ServeMux
}

// NewAPIHandler creates the API handler for engine.
func NewAPIHandler(engine *tasks.SearchEngine, logger *log.Logger) *APIHandler {
	h := &APIHandler{engine: engine, logger: logger, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /api/search", h.search)
	h.mux.HandleFunc("GET /api/books", h.books)
	h.mux.HandleFunc("GET /api/books/{index}", h.book)
	h.mux.HandleFunc("GET /api/status", h.status)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *APIHandler) Routes() []string {
	return []string{"/api/"}
}

// ServeHTTP dispatches to the individual endpoints.
func (h *APIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *APIHandler) search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q parameter is required", "", 0)
		return
	}

	out, err := h.engine.Search(r.Context(), query)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, SearchResponse{
			Query:      out.Query,
			Count:      len(out.Books),
			Books:      out.Books,
			DurationMS: out.Duration.Milliseconds(),
		})
	case errors.Is(err, shared.ErrSuperseded):
		writeError(w, http.StatusConflict, "search superseded by a newer query", "", 0)
	case r.Context().Err() != nil:
		// client went away; nothing useful to write
	default:
		if f, ok := shared.AsFailure(err); ok {
			writeError(w, http.StatusBadGateway, f.Error(), f.Kind.String(), f.StatusCode)
			return
		}
		if errors.Is(err, shared.ErrServiceUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error(), "", 0)
			return
		}
		writeError(w, http.StatusBadGateway, err.Error(), "", 0)
	}
}

func (h *APIHandler) books(w http.ResponseWriter, r *http.Request) {
	list := h.engine.List()
	books := list.Current()
	resp := BooksResponse{Version: list.Version(), Count: len(books), Books: books}
	if resp.Version > 0 {
		updated := list.UpdatedAt()
		resp.UpdatedAt = &updated
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) book(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer", "", 0)
		return
	}

	book, ok := h.engine.List().At(index)
	if !ok {
		writeError(w, http.StatusNotFound, shared.ErrBookNotFound.Error(), "", 0)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *APIHandler) status(w http.ResponseWriter, r *http.Request) {
	list := h.engine.List()
	resp := StatusResponse{
		State:     h.engine.State().String(),
		Busy:      h.engine.Busy(),
		Catalog:   h.engine.Catalog().Name(),
		Version:   list.Version(),
		Count:     list.Len(),
		LastQuery: h.engine.LastQuery(),
	}
	if err := h.engine.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// NewAPIRouter wires the API, health and metrics endpoints with logging, metrics and recovery middleware.
func NewAPIRouter(engine *tasks.SearchEngine, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger), Instrument)

	router.Handler(NewAPIHandler(engine, logger))
	router.HandleFunc(http.MethodGet, "/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	router.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	return router
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, kind string, upstream int) {
	writeJSON(w, status, ErrorResponse{Error: msg, Kind: kind, Status: upstream})
}
