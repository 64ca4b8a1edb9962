// Package uploads stores event banners and profile pictures off chain.
package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ariya-backend/config"
)

// MaxUploadBytes caps a single upload.
const MaxUploadBytes = 10 << 20

var (
	ErrUploadFailed       = errors.New("upload failed")
	ErrUnexpectedResponse = errors.New("unexpected upload response")
)

// Blob is a stored Walrus blob.
type Blob struct {
	BlobID      string `json:"blob_id"`
	URL         string `json:"url"`
	SuiObjectID string `json:"sui_object_id,omitempty"`
}

// Walrus uploads blobs through a publisher and serves them from an
// aggregator.
type Walrus struct {
	publisher  string
	aggregator string
	epochs     int
	http       *http.Client
}

// NewWalrus creates a client. A nil hc gets a client with a 60s timeout.
func NewWalrus(cfg config.WalrusConfig, hc *http.Client) *Walrus {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Walrus{
		publisher:  strings.TrimRight(cfg.PublisherURL, "/"),
		aggregator: strings.TrimRight(cfg.AggregatorURL, "/"),
		epochs:     cfg.Epochs,
		http:       hc,
	}
}

// walrusResponse covers the shapes publishers have returned over time.
type walrusResponse struct {
	NewlyCreated *struct {
		BlobObject *struct {
			ID     string `json:"id"`
			BlobID string `json:"blobId"`
		} `json:"blobObject"`
		BlobID string `json:"blobId"`
		ID     string `json:"id"`
	} `json:"newlyCreated"`
	AlreadyCertified *struct {
		BlobID string `json:"blobId"`
	} `json:"alreadyCertified"`
	BlobID string `json:"blobId"`
	Blob   *struct {
		ID string `json:"id"`
	} `json:"blob"`
	ID string `json:"id"`
}

func (r walrusResponse) blob() (Blob, bool) {
	var b Blob
	switch {
	case r.NewlyCreated != nil && r.NewlyCreated.BlobObject != nil && r.NewlyCreated.BlobObject.BlobID != "":
		b.BlobID = r.NewlyCreated.BlobObject.BlobID
		b.SuiObjectID = r.NewlyCreated.BlobObject.ID
	case r.NewlyCreated != nil && r.NewlyCreated.BlobID != "":
		b.BlobID = r.NewlyCreated.BlobID
		b.SuiObjectID = r.NewlyCreated.ID
	case r.AlreadyCertified != nil && r.AlreadyCertified.BlobID != "":
		b.BlobID = r.AlreadyCertified.BlobID
	case r.BlobID != "":
		b.BlobID = r.BlobID
	case r.Blob != nil && r.Blob.ID != "":
		b.BlobID = r.Blob.ID
	case r.ID != "":
		b.BlobID = r.ID
	default:
		return Blob{}, false
	}
	return b, true
}

// Upload stores body for epochs (the configured default when zero) and
// sends the blob object to owner.
func (w *Walrus) Upload(ctx context.Context, body io.Reader, owner string, epochs int) (*Blob, error) {
	if epochs <= 0 {
		epochs = w.epochs
	}
	q := url.Values{}
	q.Set("epochs", strconv.Itoa(epochs))
	if owner != "" {
		q.Set("send_object_to", owner)
	}
	endpoint := w.publisher + "/v1/blobs?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, io.LimitReader(body, MaxUploadBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create walrus request: %w", err)
	}
	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: walrus: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: walrus returned %d: %s", ErrUploadFailed, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out walrusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
	}
	b, ok := out.blob()
	if !ok {
		return nil, fmt.Errorf("%w: no blob id", ErrUnexpectedResponse)
	}
	b.URL = w.BlobURL(b.BlobID)
	log.Printf("Walrus upload stored blob %s", b.BlobID)
	return &b, nil
}

// BlobURL is where the aggregator serves a blob.
func (w *Walrus) BlobURL(blobID string) string {
	return w.aggregator + "/v1/blobs/" + blobID
}

// IsWalrusURL reports whether u points at this aggregator.
func (w *Walrus) IsWalrusURL(u string) bool {
	return w.aggregator != "" && strings.HasPrefix(u, w.aggregator+"/")
}

// ExtractBlobID returns the blob id of an aggregator URL.
func (w *Walrus) ExtractBlobID(u string) (string, bool) {
	if !w.IsWalrusURL(u) {
		return "", false
	}
	rest, ok := strings.CutPrefix(u, w.aggregator+"/v1/blobs/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}
