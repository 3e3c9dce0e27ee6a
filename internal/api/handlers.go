package api

import (
	"encoding/json"
	"net/http"

	"graft/internal/repo"
)

type statusResponse struct {
	Workspace string            `json:"workspace"`
	Changes   []repo.FileChange `json:"changes"`
}

type setBookmarkRequest struct {
	Name            string `json:"name"`
	Revision        string `json:"revision"`
	AllowBackwards  bool   `json:"allow_backwards"`
	IgnoreImmutable bool   `json:"ignore_immutable"`
}

type addWorkspaceRequest struct {
	Destination string `json:"destination"`
	Name        string `json:"name"`
	Revisions   string `json:"revisions"`
}

type newChangeRequest struct {
	Revision string `json:"revision"`
}

type describeRequest struct {
	Revision string `json:"revision"`
	Message  string `json:"message"`
}

type snapshotResponse struct {
	Changed bool `json:"changed"`
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) Log(w http.ResponseWriter, r *http.Request) {
	entries, err := s.repo.Log(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) Operations(w http.ResponseWriter, r *http.Request) {
	ops, err := s.repo.Operations(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ops)
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	changes, err := s.repo.WorkingCopyChanges(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Workspace: s.repo.CurrentWorkspace(),
		Changes:   changes,
	})
}

// Diff renders the whole working-copy diff, or a single file's diff when
// the path query parameter is set.
func (s *Server) Diff(w http.ResponseWriter, r *http.Request) {
	var (
		text string
		err  error
	)
	if path := r.URL.Query().Get("path"); path != "" {
		text, err = s.repo.FileDiff(r.Context(), path)
	} else {
		text, err = s.repo.Diff(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeText(w, text)
}

func (s *Server) RevisionDiff(w http.ResponseWriter, r *http.Request) {
	text, err := s.repo.RevisionDiff(r.Context(), r.PathValue("prefix"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeText(w, text)
}

func (s *Server) FileContents(w http.ResponseWriter, r *http.Request) {
	result, err := s.repo.FileContents(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) Bookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.repo.Bookmarks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bookmarks)
}

func (s *Server) SetBookmark(w http.ResponseWriter, r *http.Request) {
	var req setBookmarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.SetBookmark(r.Context(), req.Name, req.Revision, req.AllowBackwards, req.IgnoreImmutable); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Workspaces(w http.ResponseWriter, r *http.Request) {
	workspaces, err := s.repo.Workspaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspaces)
}

func (s *Server) AddWorkspace(w http.ResponseWriter, r *http.Request) {
	var req addWorkspaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.WorkspaceAdd(r.Context(), req.Destination, req.Name, req.Revisions); err != nil {
		writeError(w, err)
		return
	}

	workspaces, err := s.repo.Workspaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, workspaces)
}

func (s *Server) ForgetWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.WorkspaceForget(r.Context(), r.PathValue("name")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) NewChange(w http.ResponseWriter, r *http.Request) {
	var req newChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.NewChange(r.Context(), req.Revision); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Describe(w http.ResponseWriter, r *http.Request) {
	var req describeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.repo.Describe(r.Context(), req.Revision, req.Message); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) Snapshot(w http.ResponseWriter, r *http.Request) {
	changed, err := s.repo.SnapshotWorkingCopy(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Changed: changed})
}
