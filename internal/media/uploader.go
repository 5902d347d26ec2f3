package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/aquaticpose/aquaticpose-backend/pkg/config"
)

// UploadResult is what the image host returns for a stored file.
type UploadResult struct {
	URL      string
	PublicID string
	Bytes    int64
}

// Uploader pushes files to and removes files from the external image host.
type Uploader interface {
	Upload(ctx context.Context, fileName, contentType, folder string, r io.Reader) (*UploadResult, error)
	Remove(ctx context.Context, publicID string) error
}

type httpUploader struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPUploader builds an Uploader backed by the configured image host.
func NewHTTPUploader(cfg config.MediaConfig) (Uploader, error) {
	if cfg.UploadURL == "" {
		return nil, fmt.Errorf("media upload url required")
	}
	return &httpUploader{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.UploadURL, "/"),
		apiKey:  cfg.UploadKey,
	}, nil
}

type uploadResponse struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
	Bytes    int64  `json:"bytes"`
}

func (u *httpUploader) Upload(ctx context.Context, fileName, contentType, folder string, r io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			return nil, fmt.Errorf("writing folder field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copying upload body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("image host returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding upload response: %w", err)
	}
	if parsed.URL == "" || parsed.PublicID == "" {
		return nil, fmt.Errorf("image host response missing url or public_id")
	}
	return &UploadResult{URL: parsed.URL, PublicID: parsed.PublicID, Bytes: parsed.Bytes}, nil
}

func (u *httpUploader) Remove(ctx context.Context, publicID string) error {
	endpoint := u.baseURL + "/media/" + url.PathEscape(publicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building delete request: %w", err)
	}
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	defer resp.Body.Close()

	// A 404 from the host means the file is already gone.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("image host returned %d", resp.StatusCode)
	}
	return nil
}
