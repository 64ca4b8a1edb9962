package handlers

import (
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/uploads"
)

// multipart framing allowance on top of the file itself
const formOverhead = 1 << 20

type UploadHandler struct {
	walrus *uploads.Walrus
	images *uploads.ImageHost
}

func NewUploadHandler(walrus *uploads.Walrus, images *uploads.ImageHost) *UploadHandler {
	return &UploadHandler{walrus: walrus, images: images}
}

// formFile reads a size-checked file part, responding on failure.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, uploads.MaxUploadBytes+formOverhead)
	fh, err := c.FormFile(field)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing %q file: %v", field, err), "kind": "invalid_request"})
		return nil, false
	}
	if fh.Size > uploads.MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", uploads.MaxUploadBytes), "kind": "too_large"})
		return nil, false
	}
	return fh, true
}

// UploadBlob stores a file on Walrus. The optional owner form field receives
// the blob object and epochs overrides the configured storage duration.
func (h *UploadHandler) UploadBlob(c *gin.Context) {
	fh, ok := formFile(c, "file")
	if !ok {
		return
	}
	owner := c.PostForm("owner")
	if owner != "" {
		a, err := contracts.ParseAddress(owner)
		if err != nil {
			respondError(c, err)
			return
		}
		owner = a.String()
	}
	var epochs int
	if v := c.PostForm("epochs"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "epochs must be a positive integer", "kind": "invalid_argument"})
			return
		}
		epochs = n
	}

	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	log.Printf("Uploading %s (%d bytes) to Walrus", fh.Filename, fh.Size)
	blob, err := h.walrus.Upload(c.Request.Context(), f, owner, epochs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blob)
}

// ResolveBlob extracts the blob id from an aggregator URL.
func (h *UploadHandler) ResolveBlob(c *gin.Context) {
	u := c.Query("url")
	id, ok := h.walrus.ExtractBlobID(u)
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "not a walrus blob url", "kind": "invalid_argument"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"blob_id": id, "url": h.walrus.BlobURL(id)})
}

// UploadImage sends a banner image to the image host.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	fh, ok := formFile(c, "image")
	if !ok {
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	url, err := h.images.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
