package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-content-gateway/internal/platform/logger"
	"clinic-content-gateway/internal/ports/auth"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// claimsEcho escribe el user id visto por el handler ("" si no hay claims).
var claimsEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	c, _ := GetClaims(r.Context())
	_, _ = w.Write([]byte(c.UserID))
})

func serve(h http.Handler, headers map[string]string) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Body.String()
}

func TestAuthContext_DevMode(t *testing.T) {
	h := AuthContext(nil, nil)(claimsEcho)
	assert.Equal(t, "vet-1", serve(h, map[string]string{DebugUserHeader: " vet-1 "}))
	assert.Equal(t, "", serve(h, nil))
	// sin verifier el bearer se ignora
	assert.Equal(t, "", serve(h, map[string]string{"Authorization": "Bearer abc"}))
}

func TestAuthContext_Verifier(t *testing.T) {
	v := auth.VerifierFunc(func(ctx context.Context, token string) (auth.Claims, error) {
		if token != "good" {
			return auth.Claims{}, errors.New("bad token")
		}
		return auth.Claims{UserID: "owner-1"}, nil
	})
	h := AuthContext(v, nil)(claimsEcho)

	assert.Equal(t, "owner-1", serve(h, map[string]string{"Authorization": "bearer good"}))
	assert.Equal(t, "", serve(h, map[string]string{"Authorization": "Bearer nope"}))
	assert.Equal(t, "", serve(h, map[string]string{"Authorization": "Basic good"}))
	assert.Equal(t, "", serve(h, map[string]string{DebugUserHeader: "vet-1"}))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.FromZap(zap.New(core))

	h := chimw.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("nope"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/content?accessToken=x", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "/content", ctx["path"])
	assert.EqualValues(t, http.StatusNotFound, ctx["status"])
	assert.EqualValues(t, 4, ctx["bytes"])
	assert.NotEmpty(t, ctx["request_id"])
	assert.Equal(t, "http", ctx["component"])
}
