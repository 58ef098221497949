package github

import "fmt"

// fileContent is the GitHub contents API representation of a file.
// Content is base64 with embedded newlines, Sha is the blob revision
// marker used for optimistic-concurrency writes.
type fileContent struct {
	Path    string `json:"path"`
	Sha     string `json:"sha"`
	Content string `json:"content"`
}

// putResponse wraps the content object returned by a PUT.
type putResponse struct {
	Content fileContent `json:"content"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	Sha     string `json:"sha,omitempty"`
}

type deleteRequest struct {
	Message string `json:"message"`
	Sha     string `json:"sha"`
	Branch  string `json:"branch"`
}

// File is the decoded result of GetFile. A missing file is reported
// with Exists=false rather than an error.
type File struct {
	Exists  bool
	Content []byte
	Sha     string
}

// APIError is any non-2xx answer from the store, carrying the remote
// status and message verbatim so callers can pass them through.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github: status %d: %s", e.Status, e.Message)
}
