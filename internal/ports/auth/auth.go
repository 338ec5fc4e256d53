package auth

import "context"

// Claims es lo que el IAM externo garantiza del caller.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}

// AuthVerifier verifica un bearer token y devuelve sus claims.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// VerifierFunc adapta una función a AuthVerifier.
type VerifierFunc func(ctx context.Context, token string) (Claims, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Claims, error) {
	return f(ctx, token)
}
