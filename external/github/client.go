package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "shelfadmin"

// ContentStore is the slice of the hosted-repository content API the
// upload flow needs: read a file, create or update it guarded by a
// revision marker, and delete it again when compensating.
type ContentStore interface {
	GetFile(ctx context.Context, path string, ref string) (File, error)
	PutFile(ctx context.Context, path string, content []byte, message string, branch string, prevSha string) (string, error)
	DeleteFile(ctx context.Context, path string, message string, branch string, sha string) error
}

type Client struct {
	http    *http.Client
	baseURL string
	token   string
	owner   string
	repo    string
}

func NewClient(token string, owner string, repo string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.github.com",
		token:   token,
		owner:   owner,
		repo:    repo,
	}
}

func (c *Client) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, url.PathEscape(path))
}

// do runs one request and decodes the body into out. Non-2xx answers
// come back as *APIError with the store's own status and message.
func (c *Client) do(ctx context.Context, method string, url string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("json.Marshal(body). %w", err)
		}
		reqBody = bytes.NewReader(jsonBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext(). %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("c.http.Do(req). %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("io.ReadAll(res.Body). %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := APIError{Status: res.StatusCode}
		var remote struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(raw, &remote); err == nil && remote.Message != "" {
			apiErr.Message = remote.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return &apiErr
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("json.Unmarshal(raw, out). %w", err)
		}
	}
	return nil
}

// GetFile fetches the file at path on ref. A 404 means the file does
// not exist and is not an error.
func (c *Client) GetFile(ctx context.Context, path string, ref string) (File, error) {
	var file File

	var content fileContent
	err := c.do(ctx, http.MethodGet, c.contentsURL(path)+"?ref="+url.QueryEscape(ref), nil, &content)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return file, nil
		}
		return file, err
	}

	// GitHub wraps the base64 payload across lines.
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content.Content, "\n", ""))
	if err != nil {
		return file, fmt.Errorf("base64.StdEncoding.DecodeString(content). %w", err)
	}

	file.Exists = true
	file.Content = decoded
	file.Sha = content.Sha
	return file, nil
}

// PutFile creates or updates the file at path and returns the new
// revision marker. An empty prevSha asks the store to create the file
// and fail if it already exists; a non-empty one makes the store
// reject the write when the remote revision has advanced.
func (c *Client) PutFile(ctx context.Context, path string, content []byte, message string, branch string, prevSha string) (string, error) {
	body := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  branch,
		Sha:     prevSha,
	}

	var res putResponse
	err := c.do(ctx, http.MethodPut, c.contentsURL(path), body, &res)
	if err != nil {
		return "", err
	}
	return res.Content.Sha, nil
}

// DeleteFile removes the file at path, identified by its current
// revision marker.
func (c *Client) DeleteFile(ctx context.Context, path string, message string, branch string, sha string) error {
	body := deleteRequest{
		Message: message,
		Sha:     sha,
		Branch:  branch,
	}
	return c.do(ctx, http.MethodDelete, c.contentsURL(path), body, nil)
}
