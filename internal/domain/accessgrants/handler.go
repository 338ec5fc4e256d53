package accessgrants

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"clinic-content-gateway/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	// Owner: revocar por id interno (no por token)
	r.Route("/grants/{grantID}", func(gr chi.Router) {
		gr.Post("/revoke", revokeGrantHandler(svc))
	})
}

type grantResponse struct {
	ID                string    `json:"id"`
	OwnerUserID       string    `json:"owner_user_id"`
	AccessToken       string    `json:"access_token"`
	ContentIdentifier string    `json:"content_identifier"`
	ExpiryTime        time.Time `json:"expiry_time"`
	IsActive          bool      `json:"is_active"`
	HasPassword       bool      `json:"has_password"`
	AccessCount       int64     `json:"access_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// revokeGrantHandler godoc
// @Summary  Revoke an access grant
// @Tags     grants
// @Param    grantID path string true "store id of the grant"
// @Success  200 {object} grantResponse
// @Failure  401 {string} string
// @Failure  403 {string} string
// @Failure  404 {string} string
// @Router   /grants/{grantID}/revoke [post]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		grantID := chi.URLParam(r, "grantID")
		g, err := svc.Revoke(r.Context(), grantID, claims.UserID)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:                g.ID,
		OwnerUserID:       g.OwnerUserID,
		AccessToken:       g.AccessToken,
		ContentIdentifier: g.ContentIdentifier,
		ExpiryTime:        g.ExpiryTime,
		IsActive:          g.IsActive,
		HasPassword:       g.HasPassword,
		AccessCount:       g.AccessCount,
		CreatedAt:         g.CreatedAt,
		UpdatedAt:         g.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
