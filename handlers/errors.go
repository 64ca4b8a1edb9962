package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"ariya-backend/contracts"
	"ariya-backend/flows"
	"ariya-backend/models"
	"ariya-backend/uploads"
)

// errorStatus maps an error to an HTTP status and a machine-readable kind.
func errorStatus(err error) (int, string) {
	var abort *contracts.AbortError
	var transport *contracts.TransportError

	switch {
	// ===== Bad input → 400 =====
	case errors.Is(err, contracts.ErrInvalidAddress):
		return http.StatusBadRequest, "invalid_address"
	case errors.Is(err, contracts.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, models.ErrMalformedQR):
		return http.StatusBadRequest, "malformed_qr"
	case errors.Is(err, flows.ErrNoDigest):
		return http.StatusBadRequest, "missing_digest"

	// ===== Pass rejected at the door → 422 =====
	case errors.Is(err, contracts.ErrForgedPass):
		return http.StatusUnprocessableEntity, "forged_pass"
	case errors.Is(err, models.ErrExpiredPass):
		return http.StatusUnprocessableEntity, "expired_pass"
	case errors.Is(err, flows.ErrEventMismatch):
		return http.StatusUnprocessableEntity, "event_mismatch"
	case errors.Is(err, flows.ErrPassNotFound):
		return http.StatusUnprocessableEntity, "pass_not_found"
	case errors.Is(err, contracts.ErrNoCoin):
		return http.StatusUnprocessableEntity, "no_coin"

	// ===== Contract aborts =====
	case errors.As(err, &abort):
		switch abort.Kind {
		case contracts.AbortNotOrganizer, contracts.AbortAccessDenied:
			return http.StatusForbidden, string(abort.Kind)
		case contracts.AbortInvalidTimestamp, contracts.AbortInvalidCapacity:
			return http.StatusBadRequest, string(abort.Kind)
		case contracts.AbortUnknown:
			return http.StatusUnprocessableEntity, "transaction_failed"
		default:
			return http.StatusConflict, string(abort.Kind)
		}

	// ===== Not found → 404 =====
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound, "not_found"

	// ===== Upstream → 5xx =====
	case errors.Is(err, contracts.ErrFinalityTimeout):
		return http.StatusGatewayTimeout, "finality_timeout"
	case errors.As(err, &transport):
		return http.StatusBadGateway, "transport"
	case errors.Is(err, uploads.ErrNoAPIKey), errors.Is(err, errNoCheckinLog):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, uploads.ErrUploadFailed), errors.Is(err, uploads.ErrUnexpectedResponse):
		return http.StatusBadGateway, "upload_failed"
	}
	return http.StatusInternalServerError, "internal"
}

// respondError is the one reporting path for every handler.
func respondError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	body := gin.H{"error": err.Error(), "kind": kind}

	var stepErr *flows.StepError
	if errors.As(err, &stepErr) {
		body["step"] = string(stepErr.Step)
	}
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, body)
}

// respondResult renders a read-model result: the value on OK, 404 on
// NotFound and 502 when the node could not be reached.
func respondResult[T any](c *gin.Context, r contracts.Result[T]) {
	switch r.Status {
	case contracts.StatusOK:
		c.JSON(http.StatusOK, r.Value)
	case contracts.StatusNotFound:
		msg := "not found"
		if r.Err != nil {
			msg = r.Err.Error()
		}
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": msg, "kind": "not_found"})
	default:
		_, err := r.Unwrap()
		respondError(c, err)
	}
}

// respondTransaction returns an unsigned transaction for the wallet to sign.
func respondTransaction(c *gin.Context, tx *contracts.Transaction) {
	c.JSON(http.StatusOK, gin.H{"transaction": tx})
}

// addressParam parses a path parameter, responding 400 when it is not an
// address.
func addressParam(c *gin.Context, name string) (contracts.Address, bool) {
	a, err := contracts.ParseAddress(c.Param(name))
	if err != nil {
		respondError(c, err)
		return contracts.Address{}, false
	}
	return a, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_request"})
		return false
	}
	return true
}
