package odin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-content-gateway/internal/ports/auth"
)

var (
	ErrTokenEmpty    = errors.New("token is empty")
	ErrMissingUserID = errors.New("odin claims missing user id")
)

// Verifier implementa auth.AuthVerifier contra Odin. El router lo usa
// solo cuando ODIN_BASE_URL y ODIN_API_KEY están definidos.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || !v.client.IsConfigured() {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("odin verify failed: %w", err)
	}
	return checkClaims(claims)
}

// checkClaims: sin user id no hay identidad, sea cual sea la respuesta de Odin.
func checkClaims(c auth.Claims) (auth.Claims, error) {
	c.UserID = strings.TrimSpace(c.UserID)
	if c.UserID == "" {
		return auth.Claims{}, ErrMissingUserID
	}
	return c, nil
}
