// Package storage provides the document store behind a narrow interface:
// put bytes, get bytes back, sign an expiring download URL.  The service
// treats the store as a black box, so swapping the local-disk
// implementation for an object store only touches this package.
package storage

import (
    "context"
    "crypto/hmac"
    "crypto/rand"
    "crypto/sha256"
    "encoding/hex"
    "errors"
    "fmt"
    "io"
    "os"
    "path/filepath"
    "strconv"
    "time"
)

// Store is the narrow surface handlers depend on.
type Store interface {
    // Put streams the content into the store and returns an opaque key and
    // the number of bytes written.
    Put(ctx context.Context, r io.Reader) (key string, size int64, err error)
    // Get opens the stored content for reading.
    Get(ctx context.Context, key string) (io.ReadCloser, error)
    // Sign produces a signature binding key to an expiry (unix seconds).
    Sign(key string, exp int64) string
    // Verify checks a signature produced by Sign and that exp is still in
    // the future.
    Verify(key string, exp int64, sig string) bool
}

// ErrNotFound is returned by Get for unknown keys.
var ErrNotFound = errors.New("document not found")

// Local is a disk-backed Store.  Keys are random hex, sharded by their
// first two characters to keep directories small.
type Local struct {
    root   string
    secret []byte
    now    func() time.Time
}

// NewLocal builds a Local store rooted at dir.  The directory is created
// on first Put.
func NewLocal(dir, urlSecret string) *Local {
    return &Local{root: dir, secret: []byte(urlSecret), now: time.Now}
}

func (s *Local) path(key string) string {
    if len(key) < 2 {
        return filepath.Join(s.root, key)
    }
    return filepath.Join(s.root, key[:2], key)
}

// Put streams r to disk under a fresh random key.
func (s *Local) Put(_ context.Context, r io.Reader) (string, int64, error) {
    buf := make([]byte, 16)
    if _, err := rand.Read(buf); err != nil {
        return "", 0, err
    }
    key := hex.EncodeToString(buf)
    p := s.path(key)
    if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
        return "", 0, err
    }
    f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
    if err != nil {
        return "", 0, err
    }
    n, err := io.Copy(f, r)
    if cerr := f.Close(); err == nil {
        err = cerr
    }
    if err != nil {
        _ = os.Remove(p)
        return "", 0, err
    }
    return key, n, nil
}

// Get opens the stored content for reading.
func (s *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
    f, err := os.Open(s.path(key))
    if err != nil {
        if os.IsNotExist(err) {
            return nil, ErrNotFound
        }
        return nil, err
    }
    return f, nil
}

// Sign produces an HMAC over key and expiry, hex-encoded.
func (s *Local) Sign(key string, exp int64) string {
    mac := hmac.New(sha256.New, s.secret)
    _, _ = fmt.Fprintf(mac, "%s:%s", key, strconv.FormatInt(exp, 10))
    return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks the signature and that the expiry has not passed.
func (s *Local) Verify(key string, exp int64, sig string) bool {
    if s.now().UTC().Unix() > exp {
        return false
    }
    expect := s.Sign(key, exp)
    return hmac.Equal([]byte(expect), []byte(sig))
}
