// Package accounts keeps the multi-account cookie registry. Cookie bundles
// are live platform credentials, so records are sealed at rest with
// AES-256-GCM under per-account keys derived from a local master key file.
package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/jmcleod/redpost/internal/util"
	"github.com/jmcleod/redpost/storage"
)

const (
	accountScope      = "accounts"
	accountRecordType = "ACCOUNT"

	keyInfoPrefix = "redpost:account:"
	aadPrefix     = "account:"
)

// requiredCookieFields must all be present in an account's cookie header for
// the platform to accept it.
var requiredCookieFields = []string{"a1", "web_session", "xsecappid"}

// ErrInvalidCookieFormat is returned when a cookie header is missing one of
// the fields the platform requires.
var ErrInvalidCookieFormat = errors.New("cookie header missing required fields")

// Account is one named platform account and its cookie header.
type Account struct {
	Name      string    `json:"name"`
	Cookies   string    `json:"cookies"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists sealed accounts in a storage.Repository.
type Store struct {
	repo      storage.Repository
	masterKey []byte
	now       func() time.Time
}

// NewStore creates a Store sealing records under masterKey (32 bytes).
func NewStore(repo storage.Repository, masterKey []byte) (*Store, error) {
	if len(masterKey) != util.AESKeySize {
		return nil, fmt.Errorf("master key must be exactly %d bytes, got %d", util.AESKeySize, len(masterKey))
	}
	key := make([]byte, util.AESKeySize)
	copy(key, masterKey)
	return &Store{repo: repo, masterKey: key, now: time.Now}, nil
}

// ValidateCookieHeader checks that all platform-required cookie fields are
// present in the "name=value; name=value" header string.
func ValidateCookieHeader(header string) error {
	present := make(map[string]bool)
	for _, part := range strings.Split(header, ";") {
		name, _, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok {
			present[strings.TrimSpace(name)] = true
		}
	}

	var missing []string
	for _, field := range requiredCookieFields {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCookieFormat, strings.Join(missing, ", "))
	}
	return nil
}

// Put validates and stores the account's cookie header under its name.
func (s *Store) Put(name, cookieHeader string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if err := ValidateCookieHeader(cookieHeader); err != nil {
		return err
	}

	account := Account{Name: name, Cookies: cookieHeader, UpdatedAt: s.now().UTC()}
	plaintext, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encoding account: %w", err)
	}

	key, err := s.recordKey(name)
	if err != nil {
		return err
	}
	env, err := storage.SealRecord(key, plaintext, s.aad(name))
	if err != nil {
		return fmt.Errorf("sealing account: %w", err)
	}
	return s.repo.Put(accountScope, accountRecordType, name, env)
}

// Get returns the named account.
func (s *Store) Get(name string) (*Account, error) {
	env, err := s.repo.Get(accountScope, accountRecordType, name)
	if err != nil {
		return nil, err
	}

	key, err := s.recordKey(name)
	if err != nil {
		return nil, err
	}
	plaintext, err := storage.OpenRecord(key, env, s.aad(name))
	if err != nil {
		return nil, fmt.Errorf("opening account record: %w", err)
	}

	var account Account
	if err := json.Unmarshal(plaintext, &account); err != nil {
		return nil, fmt.Errorf("decoding account: %w", err)
	}
	return &account, nil
}

// List returns all account names, sorted.
func (s *Store) List() ([]string, error) {
	names, err := s.repo.List(accountScope, accountRecordType)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the named account.
func (s *Store) Delete(name string) error {
	return s.repo.Delete(accountScope, accountRecordType, name)
}

func (s *Store) recordKey(name string) ([]byte, error) {
	return util.DeriveKey(s.masterKey, nil, []byte(keyInfoPrefix+name))
}

func (s *Store) aad(name string) []byte {
	return []byte(aadPrefix + name)
}

// LoadOrCreateMasterKey reads the 32-byte master key at path, creating and
// persisting a fresh one when the file does not exist.
func LoadOrCreateMasterKey(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		key, err := util.RandomBytes(util.AESKeySize)
		if err != nil {
			return nil, err
		}
		if err := util.WriteFileAtomic(path, key, 0o600); err != nil {
			return nil, fmt.Errorf("writing master key: %w", err)
		}
		return key, nil
	case err != nil:
		return nil, fmt.Errorf("reading master key: %w", err)
	}

	if len(data) != util.AESKeySize {
		return nil, fmt.Errorf("master key at %s has %d bytes, want %d", path, len(data), util.AESKeySize)
	}
	return data, nil
}
