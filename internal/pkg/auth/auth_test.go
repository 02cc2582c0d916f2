package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testJWT() *JWTManager {
	return NewJWTManager(config.JWTConfig{
		Secret:             "0123456789abcdef0123456789abcdef",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}, "sagaline-test")
}

func TestAccessTokenRoundTrip(t *testing.T) {
	j := testJWT()

	token, err := j.GenerateAccessToken(42, "kim@example.com", "ROLE_ADMIN")
	require.NoError(t, err)

	claims, err := j.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "kim@example.com", claims.Email)
	assert.Equal(t, "ROLE_ADMIN", claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "sagaline-test", claims.Issuer)

	_, err = j.ValidateRefreshToken(token)
	assert.ErrorContains(t, err, "expected refresh")
}

func TestRefreshTokensAreDistinct(t *testing.T) {
	j := testJWT()

	a, err := j.GenerateRefreshToken(1, "a@example.com", "ROLE_USER")
	require.NoError(t, err)
	b, err := j.GenerateRefreshToken(1, "a@example.com", "ROLE_USER")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	claims, err := j.ValidateRefreshToken(a)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	j := testJWT()
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := j.GenerateAccessToken(1, "a@example.com", "ROLE_USER")
	require.NoError(t, err)

	j.now = func() time.Time { return time.Now().UTC() }
	_, err = j.ValidateAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	other := NewJWTManager(config.JWTConfig{Secret: "another-secret-another-secret-xx", AccessTokenExpiry: time.Hour}, "x")
	token, err := other.GenerateAccessToken(1, "a@example.com", "ROLE_USER")
	require.NoError(t, err)

	_, err = testJWT().ValidateAccessToken(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestExtractTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromHeader("bearer abc"))
	assert.Empty(t, ExtractTokenFromHeader("Basic abc"))
	assert.Empty(t, ExtractTokenFromHeader(""))
}

func TestValidatePassword(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost)

	tests := []struct {
		password string
		wantErr  string
	}{
		{"secret12", ""},
		{"비밀번호abc1", ""},
		{"short1", "at least 8"},
		{"onlyletters", "number"},
		{"12345678", "letter"},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := p.ValidatePassword(tt.password)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHashAndVerify(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost)

	hash, err := p.HashPassword("secret12")
	require.NoError(t, err)
	assert.NotEqual(t, "secret12", hash)

	assert.NoError(t, p.VerifyPassword("secret12", hash))
	assert.ErrorIs(t, p.VerifyPassword("secret13", hash), ErrPasswordMismatch)

	_, err = p.HashPassword("weak")
	assert.Error(t, err)
}
