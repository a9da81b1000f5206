package auth

import "context"

// AuthVerifier resuelve un bearer token a Claims. Token inválido => error (401).
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
