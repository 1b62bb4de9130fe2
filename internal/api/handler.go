package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/capsule-manager/capsule-manager/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// CertificateSource exposes the capsule manager certificate.
type CertificateSource interface {
	CertPEM() []byte
}

// ServiceInfo describes the running instance in health responses.
type ServiceInfo struct {
	Mode   string
	Scheme string
}

// Handler wires storage and identity dependencies into HTTP handlers.
type Handler struct {
	storage storage.Storage
	certs   CertificateSource
	info    ServiceInfo
	logger  *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger sets the logger that records internal errors hidden from clients.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(store storage.Storage, certs CertificateSource, info ServiceInfo, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		certs:   certs,
		info:    info,
		logger:  zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:    "ok",
		Mode:      h.info.Mode,
		Scheme:    h.info.Scheme,
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetCert(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.certs.CertPEM())
}

func (h *Handler) handlePutDataKey(w http.ResponseWriter, r *http.Request) {
	var req dataKeyPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	key := storage.DataKey{
		ResourceURI: strings.TrimSpace(req.ResourceURI),
		Owner:       req.Owner,
		Key:         req.DataKey,
	}
	if err := h.storage.PutDataKey(r.Context(), key); err != nil {
		if errors.Is(err, storage.ErrInvalidDataKey) {
			writeError(w, http.StatusBadRequest, "Invalid data key", err.Error())
			return
		}
		h.writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dataKeyStoredResponse{
		ResourceURI: key.ResourceURI,
		Owner:       key.Owner,
		StoredAt:    h.clock(),
	})
}

func (h *Handler) handleGetDataKey(w http.ResponseWriter, r *http.Request) {
	uri, ok := resourceURIParam(w, r)
	if !ok {
		return
	}

	key, err := h.storage.GetDataKey(r.Context(), uri)
	if err != nil {
		h.writeStorageError(w, r, uri, err)
		return
	}

	writeJSON(w, http.StatusOK, dataKeyPayload{
		ResourceURI: key.ResourceURI,
		Owner:       key.Owner,
		DataKey:     key.Key,
	})
}

func (h *Handler) handleDeleteDataKey(w http.ResponseWriter, r *http.Request) {
	uri, ok := resourceURIParam(w, r)
	if !ok {
		return
	}

	if err := h.storage.DeleteDataKey(r.Context(), uri); err != nil {
		h.writeStorageError(w, r, uri, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeStorageError(w http.ResponseWriter, r *http.Request, uri string, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Data key not found", "no data key stored for "+uri)
		return
	}
	h.writeInternalError(w, r, err)
}

// writeInternalError logs err and answers with a generic message; storage
// and driver details never reach the client.
func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
}

func resourceURIParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	uri := strings.TrimSpace(r.URL.Query().Get("resourceUri"))
	if uri == "" {
		writeError(w, http.StatusBadRequest, "Invalid request", "resourceUri query parameter is required")
		return "", false
	}
	return uri, true
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// dataKeyPayload carries the key as base64 in JSON.
type dataKeyPayload struct {
	ResourceURI string `json:"resourceUri"`
	Owner       string `json:"owner"`
	DataKey     []byte `json:"dataKey"`
}

type dataKeyStoredResponse struct {
	ResourceURI string    `json:"resourceUri"`
	Owner       string    `json:"owner"`
	StoredAt    time.Time `json:"storedAt"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Mode      string    `json:"mode"`
	Scheme    string    `json:"scheme"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
