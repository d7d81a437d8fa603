package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := &Service{Secret: []byte("test-secret"), TokenTTL: time.Hour}

	tok, err := svc.IssueToken(User{ID: 42, Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	claims, err := svc.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.Equal(t, "42", claims.Subject)
}

func TestTokenExpired(t *testing.T) {
	svc := &Service{Secret: []byte("test-secret"), TokenTTL: -time.Minute}

	tok, err := svc.IssueToken(User{ID: 1, Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = svc.VerifyToken(tok)
	assert.Error(t, err)
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := &Service{Secret: []byte("secret-a"), TokenTTL: time.Hour}
	verifier := &Service{Secret: []byte("secret-b"), TokenTTL: time.Hour}

	tok, err := issuer.IssueToken(User{ID: 1, Username: "admin", Role: RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.VerifyToken(tok)
	assert.Error(t, err)
}
