// Package handler holds the HTTP handlers of the mock API. Each constructor
// takes the narrow service interface it needs and returns an http.HandlerFunc.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/kiranshivaraju/hiretrack/internal/api/middleware"
	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/assessment"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/kiranshivaraju/hiretrack/internal/store"
)

const maxBodyBytes = 1 << 20

// decodeStrict decodes a single JSON object from the body, rejecting unknown
// fields and trailing data.
func decodeStrict(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func badRequest(w http.ResponseWriter, message string) {
	response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", message, nil)
}

func invalidBody(w http.ResponseWriter, err error) {
	badRequest(w, fmt.Sprintf("Invalid JSON body: %v", err))
}

// pathID parses the named chi URL param as a UUID, writing a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, fmt.Sprintf("%s must be a valid UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. Missing means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func pageParams(r *http.Request) (page, pageSize int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if pageSize, err = queryInt(r, "pageSize"); err != nil {
		return 0, 0, err
	}
	page, pageSize, _ = store.Paginate(page, pageSize)
	return page, pageSize, nil
}

// writeServiceError maps service and store errors onto status codes.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *assessment.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", verr.Errors)
	case errors.Is(err, service.ErrInvalid):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", invalidMessage(err), nil)
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "CONFLICT", "Resource already exists", nil)
	case errors.Is(err, context.Canceled):
		// client went away
	default:
		id, _ := mw.GetRequestID(r)
		slog.Error("request failed", "request_id", id, "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

func invalidMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, service.ErrInvalid.Error()+": "); i >= 0 {
		msg = msg[i+len(service.ErrInvalid.Error())+2:]
	}
	return msg
}
