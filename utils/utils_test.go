package utils

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "Rp 18.800", FormatAmount(18800, "Rp"))
	assert.Equal(t, "0", FormatAmount(0, ""))
	assert.Equal(t, "999", FormatAmount(999, ""))
	assert.Equal(t, "1.000.000", FormatAmount(1000000, ""))
	assert.Equal(t, "$ -1.500", FormatAmount(-1500, "$"))
}

func TestNewSessionToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := NewSessionToken()
		require.NoError(t, err)
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		require.NoError(t, err)
		assert.Len(t, raw, SessionTokenBytes)
		assert.False(t, seen[tok])
		seen[tok] = true
	}
}

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Generate(3, 9, "chef")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(3), claims.UserID)
	assert.Equal(t, uint(9), claims.TenantID)
	assert.Equal(t, "chef", claims.Role)

	_, err = NewTokenIssuer("other", time.Hour).Parse(token)
	assert.Error(t, err)
}

func TestTokenIssuerRejectsExpiredAndTenantless(t *testing.T) {
	ti := NewTokenIssuer("secret", time.Hour)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &StaffClaims{
		UserID: 1, TenantID: 1, Role: "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			Issuer:    issuer,
		},
	})
	s, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ti.Parse(s)
	assert.Error(t, err)

	tenantless := jwt.NewWithClaims(jwt.SigningMethodHS256, &StaffClaims{
		UserID: 1, Role: "staff",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			Issuer:    issuer,
		},
	})
	s, err = tenantless.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ti.Parse(s)
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	InitLogger("debug")
	assert.Equal(t, "debug", InfoLogger.GetLevel().String())
	InitLogger("nonsense")
	assert.Equal(t, "info", InfoLogger.GetLevel().String())
	InitLogger("info")
}
