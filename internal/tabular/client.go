// Package tabular is the HTTP client for the tabular-data service that
// ingests uploaded files and runs the cleaning and analysis pipelines.
package tabular

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type UploadFileResponse struct {
	FileUUID string `json:"file_uuid"`
}

// Archive is a pipeline result bundle. A non-nil Archive means the stage
// reported success; the bytes themselves are only needed by download proxies.
type Archive struct {
	Filename string
	Data     []byte
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// UploadFile sends the raw file bytes as multipart field "file" and returns
// the opaque file_uuid the service assigns. The file_uuid is assigned exactly
// once here, before any metadata row exists.
func (c *Client) UploadFile(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/upload-file", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to upload file: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var result UploadFileResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
	}

	if result.FileUUID == "" {
		return "", fmt.Errorf("file_uuid is empty in response, body: %s", string(respBody))
	}

	return result.FileUUID, nil
}

// CleanData runs the cleaning stage for a file. A 2xx response signals
// cleaning completion; the archive carries the cleaned data bundle.
func (c *Client) CleanData(ctx context.Context, fileUUID string) (*Archive, error) {
	return c.downloadArchive(ctx, "/download_cleaned_data/"+fileUUID, fileUUID+".zip")
}

// AnalyzeData runs the analysis stage for a file. Must only be called after
// CleanData reported success for the same file.
func (c *Client) AnalyzeData(ctx context.Context, fileUUID string) (*Archive, error) {
	return c.downloadArchive(ctx, "/download_data_analysis/"+fileUUID, fileUUID+"_analysis.zip")
}

func (c *Client) downloadArchive(ctx context.Context, path, fallbackName string) (*Archive, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pipeline call %s failed: status %d, body: %s", path, resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Archive{
		Filename: filenameFromDisposition(resp.Header.Get("Content-Disposition"), fallbackName),
		Data:     data,
	}, nil
}

func filenameFromDisposition(disposition, fallback string) string {
	if disposition == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Some services emit unquoted filenames that ParseMediaType rejects.
	if idx := strings.Index(disposition, "filename="); idx != -1 {
		name := strings.TrimSpace(disposition[idx+len("filename="):])
		name = strings.Trim(name, `"`)
		if name != "" {
			return name
		}
	}
	return fallback
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func (c *Client) RetryWithBackoff(fn func() error, maxRetries int) error {
	backoffs := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(backoffs) {
			time.Sleep(backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
