package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/redpost/storage"
)

func testEnvelope(body string) *storage.Envelope {
	return &storage.Envelope{
		Ver:        1,
		Scheme:     "aes256gcm",
		Nonce:      make([]byte, 12),
		Ciphertext: []byte(body),
	}
}

func TestPutGetDelete(t *testing.T) {
	r := NewRepository()

	require.NoError(t, r.Put("accounts", "ACCOUNT", "main", testEnvelope("x")))

	env, err := r.Get("accounts", "ACCOUNT", "main")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), env.Ciphertext)

	require.NoError(t, r.Delete("accounts", "ACCOUNT", "main"))
	_, err = r.Get("accounts", "ACCOUNT", "main")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGetReturnsClone(t *testing.T) {
	r := NewRepository()
	require.NoError(t, r.Put("accounts", "ACCOUNT", "main", testEnvelope("x")))

	env, err := r.Get("accounts", "ACCOUNT", "main")
	require.NoError(t, err)
	env.Ciphertext[0] = 'y'

	again, err := r.Get("accounts", "ACCOUNT", "main")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), again.Ciphertext)
}

func TestList(t *testing.T) {
	r := NewRepository()
	require.NoError(t, r.Put("accounts", "ACCOUNT", "a", testEnvelope("1")))
	require.NoError(t, r.Put("accounts", "ACCOUNT", "b", testEnvelope("2")))
	require.NoError(t, r.Put("accounts", "META", "c", testEnvelope("3")))

	ids, err := r.List("accounts", "ACCOUNT")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}
