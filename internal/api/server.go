package api

import (
	"encoding/json"
	"net/http"

	"graft/internal/errors"
	"graft/internal/logging"
	"graft/internal/repo"
)

// Server exposes repository operations over HTTP for a single open
// workspace. Mutating endpoints go through the repository transaction
// layer, so concurrent requests observe consistent snapshots.
type Server struct {
	repo   *repo.Repo
	logger *logging.Logger
}

func NewServer(r *repo.Repo, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{repo: r, logger: logger}
}

// Routes builds the request mux for the API surface.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health checks
	mux.HandleFunc("GET /health", s.Health)

	// History endpoints
	mux.HandleFunc("GET /api/log", s.Log)
	mux.HandleFunc("GET /api/operations", s.Operations)
	mux.HandleFunc("GET /api/status", s.Status)

	// Diff endpoints
	mux.HandleFunc("GET /api/diff", s.Diff)
	mux.HandleFunc("GET /api/revisions/{prefix}/diff", s.RevisionDiff)
	mux.HandleFunc("GET /api/file", s.FileContents)

	// Bookmark endpoints
	mux.HandleFunc("GET /api/bookmarks", s.Bookmarks)
	mux.HandleFunc("POST /api/bookmarks", s.SetBookmark)

	// Workspace endpoints
	mux.HandleFunc("GET /api/workspaces", s.Workspaces)
	mux.HandleFunc("POST /api/workspaces", s.AddWorkspace)
	mux.HandleFunc("DELETE /api/workspaces/{name}", s.ForgetWorkspace)

	// Working-copy endpoints
	mux.HandleFunc("POST /api/changes", s.NewChange)
	mux.HandleFunc("POST /api/describe", s.Describe)
	mux.HandleFunc("POST /api/snapshot", s.Snapshot)

	return mux
}

type errorResponse struct {
	Error *errors.Error `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	e := errors.FromError(err)
	writeJSON(w, e.HTTPStatus(), errorResponse{Error: e})
}

func writeText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(text))
}
