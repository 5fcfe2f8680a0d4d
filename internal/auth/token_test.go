package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vidtube/internal/domain"
)

func testTokenConfig() TokenConfig {
	return TokenConfig{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
		Issuer:        "vidtube-test",
	}
}

func newTestIssuer(t *testing.T) *jwtIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer(testTokenConfig())
	require.NoError(t, err)
	return issuer.(*jwtIssuer)
}

func TestNewTokenIssuer_RequiresSecrets(t *testing.T) {
	cfg := testTokenConfig()
	cfg.RefreshSecret = " "
	_, err := NewTokenIssuer(cfg)
	require.Error(t, err)

	cfg = testTokenConfig()
	cfg.AccessTTL = 0
	_, err = NewTokenIssuer(cfg)
	require.Error(t, err)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newTestIssuer(t)
	user := &domain.User{ID: "u-1", Username: "alice", Email: "alice@example.com", Fullname: "Alice"}

	access, err := issuer.IssueAccess(user)
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh(user.ID)
	require.NoError(t, err)

	sub, err := issuer.Verify(access, AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sub)

	sub, err = issuer.Verify(refresh, RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "u-1", sub)
}

func TestVerify_RejectsWrongKind(t *testing.T) {
	issuer := newTestIssuer(t)
	access, err := issuer.IssueAccess(&domain.User{ID: "u-1"})
	require.NoError(t, err)
	refresh, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)

	_, err = issuer.Verify(access, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Verify(refresh, AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsExpired(t *testing.T) {
	issuer := newTestIssuer(t)
	issued := time.Now().Add(-2 * time.Hour)
	issuer.now = func() time.Time { return issued }
	token, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsForeignSignature(t *testing.T) {
	issuer := newTestIssuer(t)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Kind: RefreshToken.String(),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
	require.NoError(t, err)

	_, err = issuer.Verify(forged, RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Verify("", RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = issuer.Verify("garbage", AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssueRefresh_UniquePerCall(t *testing.T) {
	issuer := newTestIssuer(t)
	first, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)
	second, err := issuer.IssueRefresh("u-1")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
