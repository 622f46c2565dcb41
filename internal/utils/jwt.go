package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA-256 hashing for token storage
    "encoding/hex"  // hex encoding for random tokens and digests
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling protected endpoints.  Besides the usual subject/expiry claims the
// token carries the org, role and session id so the middleware can scope
// requests and touch the owning session without a database lookup.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  Raw is the value returned to the client; only its SHA-256 hash
// is persisted.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// AccessClaims is the decoded view of an access token that the middleware
// and handlers care about.
type AccessClaims struct {
    AccountID uint64
    OrgID     uint64
    Role      string
    SessionID string
    TokenID   string
    Exp       time.Time
}

// ErrInvalidToken is returned by ParseAccessToken for malformed, expired or
// wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT.  The session id ties the
// token to a row in the session registry; the jti gives the revocation store
// a stable identifier independent of the serialized form.
func NewAccessToken(secret string, accountID, orgID uint64, role, sessionID string, ttlMin int) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(time.Duration(ttlMin) * time.Minute)
    jti, err := randomHex(16)
    if err != nil {
        return AccessToken{}, err
    }
    claims := jwt.MapClaims{
        "sub":  accountID,
        "org":  orgID,
        "role": role,
        "sid":  sessionID,
        "jti":  jti,
        "exp":  exp.Unix(),
        "iat":  now.Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken validates signature and expiry and extracts the claims
// the application uses.  Revocation is not checked here; that is the
// middleware's job so the pure parse stays cache-friendly.
func ParseAccessToken(secret, raw string) (AccessClaims, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return AccessClaims{}, ErrInvalidToken
    }
    mc, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return AccessClaims{}, ErrInvalidToken
    }
    var c AccessClaims
    if v, ok := mc["sub"].(float64); ok {
        c.AccountID = uint64(v)
    }
    if v, ok := mc["org"].(float64); ok {
        c.OrgID = uint64(v)
    }
    c.Role, _ = mc["role"].(string)
    c.SessionID, _ = mc["sid"].(string)
    c.TokenID, _ = mc["jti"].(string)
    if v, ok := mc["exp"].(float64); ok {
        c.Exp = time.Unix(int64(v), 0).UTC()
    }
    if c.AccountID == 0 || c.SessionID == "" {
        return AccessClaims{}, ErrInvalidToken
    }
    return c, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  The ttlDays parameter controls how many days the
// refresh token stays valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.  Only
// hashes are persisted (session rows and the revocation store) so a leaked
// database cannot be replayed against the API.
func HashToken(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
