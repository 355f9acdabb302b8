package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"server/internal/domain"
)

// Memory is an in-process Store for development and tests. Its signed URLs
// are HMAC tokens checked against an injectable clock so expiry behaviour is
// testable without a real bucket.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]domain.StoredObject
	secret  []byte
	baseURL string
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string]domain.StoredObject),
		secret:  []byte("local-dev-signing-secret"),
		baseURL: "memory://store",
		now:     time.Now,
	}
}

// WithClock swaps the time source; tests use it to drive URL expiry.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindStoreUnavailable, "put "+key, err)
	}
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.objects[key] = domain.StoredObject{Key: key, ContentType: contentType, Bytes: cp}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, "get "+key, err)
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.Ef(domain.KindNotFound, "no object for key %s", key)
	}
	cp := make([]byte, len(obj.Bytes))
	copy(cp, obj.Bytes)
	return cp, nil
}

func (m *Memory) SignedURL(ctx context.Context, key string, ttl time.Duration) (domain.AccessLink, error) {
	if err := ctx.Err(); err != nil {
		return domain.AccessLink{}, domain.Wrap(domain.KindStoreUnavailable, "sign "+key, err)
	}
	expiresAt := m.now().Add(ttl)
	sig := m.sign(key, expiresAt.Unix())
	return domain.AccessLink{
		URL:       fmt.Sprintf("%s/%s?expires=%d&sig=%s", m.baseURL, url.PathEscape(key), expiresAt.Unix(), sig),
		ExpiresAt: expiresAt,
	}, nil
}

// Resolve dereferences a signed URL the way a bucket endpoint would: bad
// signature or elapsed expiry fails, anything else returns the bytes.
func (m *Memory) Resolve(rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, domain.Wrap(domain.KindNotFound, "malformed url", err)
	}
	key, err := url.PathUnescape(u.Path)
	if err != nil {
		return nil, domain.Wrap(domain.KindNotFound, "malformed key", err)
	}
	key = trimLeadingSlash(key)

	expires, err := strconv.ParseInt(u.Query().Get("expires"), 10, 64)
	if err != nil {
		return nil, domain.E(domain.KindNotFound, "missing expiry")
	}
	if !hmac.Equal([]byte(u.Query().Get("sig")), []byte(m.sign(key, expires))) {
		return nil, domain.E(domain.KindNotFound, "bad signature")
	}
	if m.now().Unix() >= expires {
		return nil, domain.Ef(domain.KindNotFound, "url for %s expired", key)
	}
	return m.Get(context.Background(), key)
}

// Len reports the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Memory) sign(key string, expires int64) string {
	mac := hmac.New(sha256.New, m.secret)
	fmt.Fprintf(mac, "%s\n%d", key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}

var _ Store = (*Memory)(nil)
