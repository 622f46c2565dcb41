package utils

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
    at, err := NewAccessToken("secret", 42, 7, "ADMIN", "sess-1", 15)
    require.NoError(t, err)
    require.NotEmpty(t, at.Token)
    assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), at.Exp, 2*time.Second)

    c, err := ParseAccessToken("secret", at.Token)
    require.NoError(t, err)
    assert.Equal(t, uint64(42), c.AccountID)
    assert.Equal(t, uint64(7), c.OrgID)
    assert.Equal(t, "ADMIN", c.Role)
    assert.Equal(t, "sess-1", c.SessionID)
    assert.NotEmpty(t, c.TokenID)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
    at, err := NewAccessToken("secret", 42, 7, "ADMIN", "sess-1", 15)
    require.NoError(t, err)

    _, err = ParseAccessToken("other-secret", at.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsGarbage(t *testing.T) {
    _, err := ParseAccessToken("secret", "not-a-token")
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
    at, err := NewAccessToken("secret", 42, 7, "ADMIN", "sess-1", -1)
    require.NoError(t, err)

    _, err = ParseAccessToken("secret", at.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokensAreUnique(t *testing.T) {
    a, err := NewRefreshToken(7)
    require.NoError(t, err)
    b, err := NewRefreshToken(7)
    require.NoError(t, err)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.Len(t, a.Raw, 96)
}

func TestHashTokenIsStable(t *testing.T) {
    assert.Equal(t, HashToken("abc"), HashToken("abc"))
    assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
    assert.Len(t, HashToken("abc"), 64)
}

func TestPasswordHashAndVerify(t *testing.T) {
    hash, err := HashPassword("hunter22", bcrypt.MinCost)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "hunter22"))
    assert.False(t, VerifyPassword(hash, "hunter23"))
}

func TestPasswordZeroCostUsesDefault(t *testing.T) {
    hash, err := HashPassword("hunter22", 0)
    require.NoError(t, err)
    cost, err := bcrypt.Cost([]byte(hash))
    require.NoError(t, err)
    assert.Equal(t, bcrypt.DefaultCost, cost)
    assert.True(t, VerifyPassword(hash, "hunter22"))
}
