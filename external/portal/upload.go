package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"strings"
)

// uploadResponse carries the server-assigned location of an uploaded file at
// the top level, next to the success flag.
type uploadResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	FilePath string `json:"filePath"`
}

// Upload sends one file as multipart form data and returns the
// server-assigned file path.
func (c *client) Upload(ctx context.Context, token, fileName string, content io.Reader) (string, error) {
	var body bytes.Buffer

	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("create multipart form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("copy %s into form: %w", fileName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/upload", &body)
	if err != nil {
		return "", fmt.Errorf("new upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("POST /api/upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", ErrUnauthorized
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}

	if resp.StatusCode >= 400 || !ur.Success || ur.FilePath == "" {
		return "", &APIError{
			StatusCode: resp.StatusCode,
			Message:    ur.Message,
		}
	}

	return ur.FilePath, nil
}

// Download fetches an uploaded attachment by its server path. Fetched bytes
// are kept in a small LRU cache so repeated previews of the same attachment
// skip the network.
func (c *client) Download(ctx context.Context, token, filePath string) ([]byte, error) {
	if content, ok := c.downloads.Get(filePath); ok {
		return content, nil
	}

	if !strings.HasPrefix(filePath, "/") {
		filePath = "/" + filePath
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+filePath, nil)
	if err != nil {
		return nil, fmt.Errorf("new download request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", filePath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthorized
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	content, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filePath, err)
	}

	c.downloads.Add(filePath, content)

	return content, nil
}
