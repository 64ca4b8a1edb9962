package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"ariya-backend/config"
)

var ErrNoAPIKey = errors.New("image host API key is not configured")

// ImageHost uploads banner images to an imgbb-style host.
type ImageHost struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewImageHost(cfg config.ImageHostConfig, hc *http.Client) *ImageHost {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &ImageHost{endpoint: cfg.URL, apiKey: cfg.APIKey, http: hc}
}

type imageHostResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the image as the "image" form field and returns its public URL.
func (h *ImageHost) Upload(ctx context.Context, filename string, image io.Reader) (string, error) {
	if h.apiKey == "" {
		return "", ErrNoAPIKey
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(image, MaxUploadBytes)); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("failed to close form: %w", err)
	}

	endpoint := h.endpoint + "?" + url.Values{"key": {h.apiKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create image request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := h.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: image host: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	var out imageHostResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: image host returned %d: %s", ErrUploadFailed, resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedResponse, decodeErr)
	}
	if out.Data.URL == "" {
		return "", fmt.Errorf("%w: no image url", ErrUnexpectedResponse)
	}
	return out.Data.URL, nil
}
