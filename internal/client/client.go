// Package client talks to a running minirag HTTP server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"minirag/internal/domain"
)

// APIError is a non-2xx response. Error returns the server's detail message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return e.Detail
}

// UploadResult is the server's reply to a file or text upload.
type UploadResult struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary"`
}

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: &http.Client{Timeout: timeout}}
}

// Status returns the server's health line.
func (c *Client) Status(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/", "", nil, &out); err != nil {
		return "", err
	}
	return out.Status, nil
}

// UploadFile sends a .txt or .pdf file as multipart form data.
func (c *Client) UploadFile(ctx context.Context, path string) (UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return UploadResult{}, err
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := part.Write(data); err != nil {
		return UploadResult{}, err
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, err
	}
	var out UploadResult
	err = c.do(ctx, http.MethodPost, "/upload", w.FormDataContentType(), &buf, &out)
	return out, err
}

// UploadText indexes pasted text under source.
func (c *Client) UploadText(ctx context.Context, text, source string) (UploadResult, error) {
	body, err := json.Marshal(map[string]string{"text": text, "source_name": source})
	if err != nil {
		return UploadResult{}, err
	}
	var out UploadResult
	err = c.do(ctx, http.MethodPost, "/upload-text", "application/json", bytes.NewReader(body), &out)
	return out, err
}

// Query asks a question about the indexed document.
func (c *Client) Query(ctx context.Context, query string) (domain.AnswerResult, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	var out domain.AnswerResult
	err = c.do(ctx, http.MethodPost, "/query", "application/json", bytes.NewReader(body), &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Detail string `json:"detail"`
		}
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(msg, &e) != nil {
			e.Detail = string(bytes.TrimSpace(msg))
		}
		return &APIError{Status: resp.StatusCode, Detail: e.Detail}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
