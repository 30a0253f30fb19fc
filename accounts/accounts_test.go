package accounts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/redpost/internal/util"
	"github.com/jmcleod/redpost/storage"
	"github.com/jmcleod/redpost/storage/memory"
)

const validHeader = "a1=abc123; web_session=sess456; xsecappid=xhs-pc-web; gid=extra"

func setupStore(t *testing.T) *Store {
	t.Helper()
	key, err := util.RandomBytes(util.AESKeySize)
	require.NoError(t, err)
	store, err := NewStore(memory.NewRepository(), key)
	require.NoError(t, err)
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Put("main", validHeader))

	account, err := store.Get("main")
	require.NoError(t, err)
	assert.Equal(t, "main", account.Name)
	assert.Equal(t, validHeader, account.Cookies)
	assert.False(t, account.UpdatedAt.IsZero())
}

func TestPutRejectsMissingFields(t *testing.T) {
	store := setupStore(t)

	err := store.Put("main", "a1=abc123; gid=extra")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCookieFormat)
	assert.Contains(t, err.Error(), "web_session")
	assert.Contains(t, err.Error(), "xsecappid")
}

func TestPutRejectsEmptyName(t *testing.T) {
	store := setupStore(t)
	assert.Error(t, store.Put("  ", validHeader))
}

func TestGetUnknownAccount(t *testing.T) {
	store := setupStore(t)

	_, err := store.Get("nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListSorted(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Put("zeta", validHeader))
	require.NoError(t, store.Put("alpha", validHeader))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestDelete(t *testing.T) {
	store := setupStore(t)

	require.NoError(t, store.Put("main", validHeader))
	require.NoError(t, store.Delete("main"))

	_, err := store.Get("main")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRecordsSealedPerAccount(t *testing.T) {
	// The same repo opened with a different master key must refuse to
	// decrypt existing records.
	repo := memory.NewRepository()
	keyA, err := util.RandomBytes(util.AESKeySize)
	require.NoError(t, err)
	keyB, err := util.RandomBytes(util.AESKeySize)
	require.NoError(t, err)

	storeA, err := NewStore(repo, keyA)
	require.NoError(t, err)
	require.NoError(t, storeA.Put("main", validHeader))

	storeB, err := NewStore(repo, keyB)
	require.NoError(t, err)
	_, err = storeB.Get("main")
	assert.Error(t, err)
}

func TestNewStoreRejectsShortKey(t *testing.T) {
	_, err := NewStore(memory.NewRepository(), []byte("short"))
	assert.Error(t, err)
}

func TestValidateCookieHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"complete", validHeader, false},
		{"minimal", "a1=x;web_session=y;xsecappid=z", false},
		{"missing a1", "web_session=y; xsecappid=z", true},
		{"empty", "", true},
		{"garbage", "not a cookie header", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCookieHeader(tc.header)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCookieFormat)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadOrCreateMasterKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")

	key, err := LoadOrCreateMasterKey(path)
	require.NoError(t, err)
	assert.Len(t, key, util.AESKeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrCreateMasterKey(path)
	require.NoError(t, err)
	assert.Equal(t, key, again)
}

func TestLoadOrCreateMasterKeyBadLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.key")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0o600))

	_, err := LoadOrCreateMasterKey(path)
	assert.Error(t, err)
}
