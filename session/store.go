package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmcleod/redpost/internal/util"
)

const (
	cookieFileName = "xiaohongshu_cookies.json"
	tokenFileName  = "xiaohongshu_token.json"

	// TokenLifetime is how long a freshly stamped access token stays valid.
	TokenLifetime = 30 * 24 * time.Hour
)

// tokenRecord is the on-disk shape of the token file.
type tokenRecord struct {
	Token      string `json:"token"`
	ExpireTime int64  `json:"expire_time"`
}

// FileStore persists one account's session as a cookie file and a token file
// under a data directory. Writes are atomic so concurrent readers never see
// a partially written cookie set.
type FileStore struct {
	cookiePath string
	tokenPath  string
	domain     string
	now        func() time.Time

	mu sync.Mutex
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithCookieDomain overrides the domain used to normalize cookie records.
func WithCookieDomain(domain string) StoreOption {
	return func(s *FileStore) { s.domain = domain }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *FileStore) { s.now = now }
}

// NewFileStore creates a FileStore rooted at dir, creating dir if needed.
func NewFileStore(dir string, opts ...StoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	s := &FileStore{
		cookiePath: filepath.Join(dir, cookieFileName),
		tokenPath:  filepath.Join(dir, tokenFileName),
		domain:     DefaultCookieDomain,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads the persisted session. Missing files yield an empty Session,
// never an error. Cookie records missing domain or path are normalized.
func (s *FileStore) Load() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{}

	data, err := os.ReadFile(s.cookiePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading cookie file: %w", err)
	default:
		var cookies []Cookie
		if err := json.Unmarshal(data, &cookies); err != nil {
			return nil, fmt.Errorf("parsing cookie file: %w", err)
		}
		sess.Cookies = NormalizeCookies(cookies, s.domain)
	}

	data, err = os.ReadFile(s.tokenPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading token file: %w", err)
	default:
		var rec tokenRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("parsing token file: %w", err)
		}
		sess.Token = rec.Token
		if rec.ExpireTime > 0 {
			sess.TokenExpiry = time.Unix(rec.ExpireTime, 0)
		}
	}

	return sess, nil
}

// Save atomically persists the session's cookies and token.
func (s *FileStore) Save(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveCookiesLocked(sess.Cookies); err != nil {
		return err
	}
	return s.saveTokenLocked(sess.Token, sess.TokenExpiry)
}

// IsTokenValid reports whether the session's token is present and unexpired.
func (s *FileStore) IsTokenValid(sess *Session) bool {
	return sess.TokenValid(s.now())
}

// SetToken stamps a new token with a 30-day expiry relative to now and persists it.
func (s *FileStore) SetToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTokenLocked(token, s.now().Add(TokenLifetime))
}

// ReplaceCookies overwrites the persisted cookie set and drops the token,
// since a fresh cookie set invalidates whatever was stamped before.
func (s *FileStore) ReplaceCookies(cookies []Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.saveCookiesLocked(NormalizeCookies(cookies, s.domain)); err != nil {
		return err
	}
	return s.saveTokenLocked("", time.Time{})
}

// Clear removes all persisted credentials.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.cookiePath, s.tokenPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func (s *FileStore) saveCookiesLocked(cookies []Cookie) error {
	if cookies == nil {
		cookies = []Cookie{}
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	if err := util.WriteFileAtomic(s.cookiePath, data, 0o600); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}
	return nil
}

func (s *FileStore) saveTokenLocked(token string, expiry time.Time) error {
	rec := tokenRecord{Token: token}
	if !expiry.IsZero() {
		rec.ExpireTime = expiry.Unix()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	if err := util.WriteFileAtomic(s.tokenPath, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}
