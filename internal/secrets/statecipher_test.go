package secrets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateCipher_EncryptDecryptRoundTrip(t *testing.T) {
	c := NewStateCipher("correct-horse-battery-staple")
	plaintext := []byte(`{"id":1,"subject":"ship the thing"}`)

	sealed, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, sealed)

	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, opened)
}

func TestStateCipher_DecryptFailsWithWrongPassphrase(t *testing.T) {
	c1 := NewStateCipher("passphrase-one")
	c2 := NewStateCipher("passphrase-two")

	sealed, err := c1.Encrypt([]byte("secret payload"))
	require.NoError(t, err)

	_, err = c2.Decrypt(sealed)
	require.Error(t, err)
}

func TestStateCipher_EncryptProducesDistinctNoncesPerCall(t *testing.T) {
	c := NewStateCipher("same-passphrase")
	plaintext := []byte("same plaintext")

	sealed1, err := c.Encrypt(plaintext)
	require.NoError(t, err)
	sealed2, err := c.Encrypt(plaintext)
	require.NoError(t, err)

	require.NotEqual(t, sealed1, sealed2, "nonces must differ across calls")
}

func TestStateCipher_DecryptRejectsTruncatedCiphertext(t *testing.T) {
	c := NewStateCipher("whatever")
	_, err := c.Decrypt([]byte("too short"))
	require.Error(t, err)
}

func TestStateCipher_DecryptRejectsCorruptedCiphertext(t *testing.T) {
	c := NewStateCipher("whatever")
	sealed, err := c.Encrypt([]byte("hello world"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xFF

	_, err = c.Decrypt(sealed)
	require.Error(t, err)
}

func TestStateCipherFromEnv_DisabledByDefault(t *testing.T) {
	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	require.Nil(t, StateCipherFromEnv(getenv))
}

func TestStateCipherFromEnv_DisabledWithoutPassphrase(t *testing.T) {
	env := map[string]string{EncryptStateEnvVar: "1"}
	getenv := func(k string) string { return env[k] }

	require.Nil(t, StateCipherFromEnv(getenv))
}

func TestStateCipherFromEnv_EnabledWithPassphrase(t *testing.T) {
	env := map[string]string{
		EncryptStateEnvVar:       "1",
		"ANURIS_STATE_PASSPHRASE": "my-passphrase",
	}
	getenv := func(k string) string { return env[k] }

	c := StateCipherFromEnv(getenv)
	require.NotNil(t, c)

	sealed, err := c.Encrypt([]byte("round trip via env-built cipher"))
	require.NoError(t, err)
	opened, err := c.Decrypt(sealed)
	require.NoError(t, err)
	require.Equal(t, "round trip via env-built cipher", string(opened))
}
