package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndResolve(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)

	token, expiresAt, err := m.Issue("675a1f", RoleAdmin)
	req.NoError(err)
	req.NotEmpty(token)
	req.WithinDuration(time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	identity, err := m.Resolve(token)
	req.NoError(err)
	req.Equal("675a1f", identity.ParticipantID)
	req.Equal(RoleAdmin, identity.Role)
	req.True(identity.IsAdmin())
}

func TestManager_ResolveExpired(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Minute, "villages")
	req.NoError(err)

	issuedAt := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issuedAt }
	token, _, err := m.Issue("42", RoleUser)
	req.NoError(err)

	m.now = time.Now
	_, err = m.Resolve(token)
	req.ErrorIs(err, ErrExpiredToken)
}

func TestManager_ResolveRejectsForeignSignature(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)
	other, err := NewManager("another-secret", time.Hour, "villages")
	req.NoError(err)

	token, _, err := other.Issue("42", RoleUser)
	req.NoError(err)

	_, err = m.Resolve(token)
	req.ErrorIs(err, ErrInvalidToken)

	_, err = m.Resolve("not-a-token")
	req.ErrorIs(err, ErrInvalidToken)
}

func TestManager_ResolveRequiresID(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "villages",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleUser,
	}).SignedString([]byte("secretKey"))
	req.NoError(err)

	_, err = m.Resolve(token)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestManager_ResolveNumericID(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":  "villages",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"id":   1042,
		"role": RoleAdmin,
	}).SignedString([]byte("secretKey"))
	req.NoError(err)

	identity, err := m.Resolve(token)
	req.NoError(err)
	req.Equal("1042", identity.ParticipantID)
	req.True(identity.IsAdmin())
}

func TestManager_ResolveRejectsForeignIssuer(t *testing.T) {
	req := require.New(t)
	m, err := NewManager("secretKey", time.Hour, "villages")
	req.NoError(err)
	other, err := NewManager("secretKey", time.Hour, "elsewhere")
	req.NoError(err)

	token, _, err := other.Issue("42", RoleUser)
	req.NoError(err)

	_, err = m.Resolve(token)
	req.ErrorIs(err, ErrInvalidToken)
}

func TestNewManager_EmptySecret(t *testing.T) {
	_, err := NewManager("", time.Hour, "villages")
	require.ErrorIs(t, err, ErrEmptySecret)
}
