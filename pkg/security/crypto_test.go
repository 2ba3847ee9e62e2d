package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	secret := "test-secret"

	cases := []string{
		"password123",
		"",
		"päss wörd with spaces",
		"a-very-long-password-that-exceeds-one-aes-block-size-easily-0123456789",
	}

	for _, plaintext := range cases {
		ct, err := Encrypt(secret, plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, ct)

		got, err := Decrypt(secret, ct)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	a, err := Encrypt("s", "same-input")
	require.NoError(t, err)
	b, err := Encrypt("s", "same-input")
	require.NoError(t, err)

	// Fresh nonce every call.
	assert.NotEqual(t, a, b)
}

func TestDecryptWithWrongSecretFails(t *testing.T) {
	ct, err := Encrypt("right-secret", "password123")
	require.NoError(t, err)

	_, err = Decrypt("wrong-secret", ct)
	assert.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := Decrypt("s", "not-base64!!!")
	assert.Error(t, err)

	_, err = Decrypt("s", "c2hvcnQ=")
	assert.Error(t, err)
}

func TestGeneratePassword(t *testing.T) {
	p1, err := GeneratePassword()
	require.NoError(t, err)
	p2, err := GeneratePassword()
	require.NoError(t, err)

	assert.Len(t, p1, 16)
	assert.NotEqual(t, p1, p2)
}
