package secret

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := testKey(t)

	for _, plaintext := range []string{
		"hunter2",
		"",
		"pässwörd with ütf-8 ✓",
		"a very long password that spans more than one AES block just to be sure",
	} {
		ep, err := Encrypt(key, plaintext)
		require.NoError(t, err)

		got, err := Decrypt(key, ep)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptFreshNonce(t *testing.T) {
	key := testKey(t)

	a, err := Encrypt(key, "same")
	require.NoError(t, err)
	b, err := Encrypt(key, "same")
	require.NoError(t, err)

	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Enc, b.Enc)
}

func TestDecryptWrongKey(t *testing.T) {
	ep, err := Encrypt(testKey(t), "secret")
	require.NoError(t, err)

	_, err = Decrypt(testKey(t), ep)
	assert.Error(t, err)
}

func TestDecryptTampered(t *testing.T) {
	key := testKey(t)
	ep, err := Encrypt(key, "secret")
	require.NoError(t, err)

	ep.Enc = "AAAA" + ep.Enc[4:]
	_, err = Decrypt(key, ep)
	assert.Error(t, err)
}

func TestDecryptBadEncoding(t *testing.T) {
	key := testKey(t)

	_, err := Decrypt(key, EncryptedPassword{Enc: "not base64!!", Nonce: "AAAA"})
	assert.Error(t, err)

	_, err = Decrypt(key, EncryptedPassword{Enc: "AAAA", Nonce: "not base64!!"})
	assert.Error(t, err)
}

func TestEncryptKeyLength(t *testing.T) {
	_, err := Encrypt([]byte("short"), "secret")
	assert.Error(t, err)

	_, err = Decrypt(make([]byte, 16), EncryptedPassword{})
	assert.Error(t, err)
}

func TestEncryptedPasswordIsZero(t *testing.T) {
	assert.True(t, EncryptedPassword{}.IsZero())

	ep, err := Encrypt(testKey(t), "x")
	require.NoError(t, err)
	assert.False(t, ep.IsZero())
}
