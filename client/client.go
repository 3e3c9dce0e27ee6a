package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"graft/internal/repo"
)

// Client talks to a graft API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 10,
		},
	}
}

// Status is the working-copy state reported by the server.
type Status struct {
	Workspace string            `json:"workspace"`
	Changes   []repo.FileChange `json:"changes"`
}

type errorPayload struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	var payload errorPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("%s: %s", payload.Error.Kind, payload.Error.Message)
	}
	return fmt.Errorf("unexpected status: %s", resp.Status)
}

func (c *Client) get(path string, expect int) (*http.Response, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != expect {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.get(path, http.StatusOK)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) getText(path string) (string, error) {
	resp, err := c.get(path, http.StatusOK)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Client) post(path string, body any, expect int, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != expect {
		return decodeError(resp)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) del(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return decodeError(resp)
	}
	return nil
}

func (c *Client) Health() error {
	resp, err := c.get("/health", http.StatusOK)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// History operations
func (c *Client) Log() ([]repo.RevisionInfo, error) {
	var entries []repo.RevisionInfo
	if err := c.getJSON("/api/log", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) Operations() ([]repo.OperationInfo, error) {
	var ops []repo.OperationInfo
	if err := c.getJSON("/api/operations", &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (c *Client) Status() (*Status, error) {
	var status Status
	if err := c.getJSON("/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Diff operations
func (c *Client) Diff() (string, error) {
	return c.getText("/api/diff")
}

func (c *Client) FileDiff(path string) (string, error) {
	return c.getText("/api/diff?path=" + url.QueryEscape(path))
}

func (c *Client) RevisionDiff(revision string) (string, error) {
	return c.getText("/api/revisions/" + url.PathEscape(revision) + "/diff")
}

func (c *Client) FileContents(path string) (*repo.FileContentsResult, error) {
	var result repo.FileContentsResult
	if err := c.getJSON("/api/file?path="+url.QueryEscape(path), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Bookmark operations
func (c *Client) Bookmarks() ([]repo.BookmarkInfo, error) {
	var bookmarks []repo.BookmarkInfo
	if err := c.getJSON("/api/bookmarks", &bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func (c *Client) SetBookmark(name, revision string, allowBackwards, ignoreImmutable bool) error {
	body := map[string]any{
		"name":             name,
		"revision":         revision,
		"allow_backwards":  allowBackwards,
		"ignore_immutable": ignoreImmutable,
	}
	return c.post("/api/bookmarks", body, http.StatusNoContent, nil)
}

// Workspace operations
func (c *Client) Workspaces() ([]repo.WorkspaceInfo, error) {
	var workspaces []repo.WorkspaceInfo
	if err := c.getJSON("/api/workspaces", &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func (c *Client) AddWorkspace(destination, name, revisions string) ([]repo.WorkspaceInfo, error) {
	body := map[string]string{
		"destination": destination,
		"name":        name,
		"revisions":   revisions,
	}

	var workspaces []repo.WorkspaceInfo
	if err := c.post("/api/workspaces", body, http.StatusCreated, &workspaces); err != nil {
		return nil, err
	}
	return workspaces, nil
}

func (c *Client) ForgetWorkspace(name string) error {
	return c.del("/api/workspaces/" + url.PathEscape(name))
}

// Working-copy operations
func (c *Client) NewChange(revision string) error {
	return c.post("/api/changes", map[string]string{"revision": revision}, http.StatusNoContent, nil)
}

func (c *Client) Describe(revision, message string) error {
	body := map[string]string{
		"revision": revision,
		"message":  message,
	}
	return c.post("/api/describe", body, http.StatusNoContent, nil)
}

func (c *Client) Snapshot() (bool, error) {
	var result struct {
		Changed bool `json:"changed"`
	}
	if err := c.post("/api/snapshot", struct{}{}, http.StatusOK, &result); err != nil {
		return false, err
	}
	return result.Changed, nil
}
