package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"clinic-content-gateway/internal/domain/accessgrants"
	"clinic-content-gateway/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// GrantResolver es lo que el handler necesita de accessgrants.
type GrantResolver interface {
	Resolve(ctx context.Context, token string) (accessgrants.Resolution, error)
}

type Handler struct {
	grants     GrantResolver
	analyzer   *Analyzer
	retriever  *Retriever
	transcoder *Transcoder
	prober     *Prober
	log        logger.Logger
	metrics    *Metrics
}

func NewHandler(grants GrantResolver, analyzer *Analyzer, retriever *Retriever, transcoder *Transcoder, prober *Prober, log logger.Logger, metrics *Metrics) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		grants:     grants,
		analyzer:   analyzer,
		retriever:  retriever,
		transcoder: transcoder,
		prober:     prober,
		log:        log.With(map[string]any{"component": "content_handler"}),
		metrics:    metrics,
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/content", h.getContent)
	// cualquier método: el handler responde 405 si no es GET
	r.HandleFunc("/content/diagnostics", h.diagnostics)
}

type errorResponse struct {
	Error             string   `json:"error"`
	Message           string   `json:"message,omitempty"`
	ContentIdentifier string   `json:"contentIdentifier,omitempty"`
	AttemptedURLs     []string `json:"attemptedUrls,omitempty"`
}

// notFoundResponse siempre serializa attemptedUrls, aunque esté vacío.
type notFoundResponse struct {
	Error             string   `json:"error"`
	Message           string   `json:"message"`
	ContentIdentifier string   `json:"contentIdentifier"`
	AttemptedURLs     []string `json:"attemptedUrls"`
}

type protectedResponse struct {
	AccessToken       string    `json:"accessToken"`
	ContentIdentifier string    `json:"contentIdentifier"`
	HasPassword       bool      `json:"hasPassword"`
	ExpiryTime        time.Time `json:"expiryTime"`
	Message           string    `json:"message"`
}

// getContent godoc
// @Summary  Retrieve shared content
// @Tags     content
// @Param    contentIdentifier query string false "CID (optional if accessToken is given)"
// @Param    accessToken       query string false "public access token"
// @Param    format            query string false "content type hint (raw, json, text or a MIME type)" default(raw)
// @Param    responseType      query string false "auto, json or text" default(auto)
// @Success  200 {file} binary
// @Failure  400 {object} errorResponse
// @Failure  403 {object} errorResponse
// @Failure  404 {object} notFoundResponse
// @Failure  500 {object} errorResponse
// @Router   /content [get]
func (h *Handler) getContent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	token := strings.TrimSpace(q.Get("accessToken"))
	rawID := strings.TrimSpace(q.Get("contentIdentifier"))
	hint := HintContentType(q.Get("format"))
	want := ParseRepresentation(q.Get("responseType"))

	if token == "" && rawID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing parameter",
			Message: ErrMissingParameter.Error(),
		})
		return
	}

	cidForLogs := Normalize(rawID)
	// chimw.Recoverer sólo responde 500 vacío; acá el body lleva el JSON de
	// error con contentIdentifier.
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("content request panicked", map[string]any{"cid": cidForLogs, "panic": fmt.Sprint(rec)})
			h.internalError(w, cidForLogs, fmt.Errorf("%v", rec))
		}
	}()

	if token != "" {
		res, err := h.grants.Resolve(r.Context(), token)
		if err != nil {
			h.grantError(w, rawID, err)
			return
		}
		// el conteo tiene que quedar aplicado antes de terminar el request
		defer func() {
			_ = res.WaitCounted(context.WithoutCancel(r.Context()))
		}()

		if res.MetadataOnly() {
			h.metrics.resolution("protected")
			writeJSON(w, http.StatusOK, protectedResponse{
				AccessToken:       res.Grant.AccessToken,
				ContentIdentifier: res.ContentIdentifier(),
				HasPassword:       true,
				ExpiryTime:        res.Grant.ExpiryTime,
				Message:           "This content is password protected. Decrypt it with the shared password.",
			})
			return
		}
		h.metrics.resolution("resolved")
		// el CID del grant gana sobre el de la query
		rawID = res.ContentIdentifier()
	}

	id := h.analyzer.Classify(rawID)
	cidForLogs = id.Identifier
	if id.Identifier == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing parameter",
			Message: ErrMissingParameter.Error(),
		})
		return
	}

	up, err := h.retriever.Retrieve(r.Context(), id)
	if err != nil {
		var failed *AllAttemptsFailedError
		if errors.As(err, &failed) {
			writeJSON(w, http.StatusNotFound, notFoundResponse{
				Error:             "IPFS content not found",
				Message:           err.Error(),
				ContentIdentifier: id.Identifier,
				AttemptedURLs:     failed.AttemptedURLs(),
			})
			return
		}
		h.internalError(w, id.Identifier, err)
		return
	}

	p := h.transcoder.Transcode(up, want, hint)
	w.Header().Set("Content-Type", p.ContentType)
	w.Header().Set("X-Content-Identifier", id.Identifier)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.Body)
}

func (h *Handler) grantError(w http.ResponseWriter, rawID string, err error) {
	switch {
	case errors.Is(err, accessgrants.ErrNotFound):
		h.metrics.resolution("not_found")
		writeJSON(w, http.StatusNotFound, notFoundResponse{
			Error:             "Shared data not found or access has been revoked",
			Message:           "The access token is unknown or the owner revoked it",
			ContentIdentifier: Normalize(rawID),
			AttemptedURLs:     []string{},
		})
	case errors.Is(err, accessgrants.ErrExpired):
		h.metrics.resolution("expired")
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "Access has expired"})
	case errors.Is(err, accessgrants.ErrInvalidInput):
		h.metrics.resolution("invalid")
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing parameter",
			Message: ErrMissingParameter.Error(),
		})
	default:
		h.metrics.resolution("error")
		h.internalError(w, Normalize(rawID), err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, id string, err error) {
	h.log.Error("content request failed", map[string]any{"cid": id, "err": err})
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:             "Failed to retrieve IPFS content",
		Message:           err.Error(),
		ContentIdentifier: id,
	})
}

// diagnostics godoc
// @Summary  Probe provider pin status and gateway availability
// @Tags     content
// @Param    contentIdentifier query string true "CID"
// @Success  200 {object} ProbeReport
// @Failure  400 {object} errorResponse
// @Failure  405 {object} errorResponse
// @Router   /content/diagnostics [get]
func (h *Handler) diagnostics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("contentIdentifier"))
	if Normalize(raw) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Missing parameter",
			Message: "contentIdentifier is required",
		})
		return
	}

	writeJSON(w, http.StatusOK, h.prober.Probe(r.Context(), raw))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
