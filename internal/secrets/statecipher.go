package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

// EncryptStateEnvVar, when set to "1", enables passphrase-based encryption
// of on-disk task/team state (internal/tasks, internal/team) via StateCipher.
// This is an optional hardening layer with no spec-mandated default.
const EncryptStateEnvVar = "ANURIS_ENCRYPT_STATE"

const nonceSize = 24

// StateCipher encrypts/decrypts small JSON blobs at rest using
// NaCl secretbox, keyed by a SHA-256-derived key from a passphrase. It is
// used by internal/tasks and internal/team when ANURIS_ENCRYPT_STATE=1.
type StateCipher struct {
	key [32]byte
}

// NewStateCipher derives a secretbox key from passphrase. The derivation is
// a plain SHA-256 hash rather than a memory-hard KDF (argon2/scrypt):
// the threat model is encryption-at-rest for local task/team files, not
// resistance to offline brute force of a weak passphrase.
func NewStateCipher(passphrase string) *StateCipher {
	return &StateCipher{key: sha256.Sum256([]byte(passphrase))}
}

// Encrypt seals plaintext behind a random nonce, prefixing the nonce to the
// returned ciphertext.
func (c *StateCipher) Encrypt(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &c.key)
	return sealed, nil
}

// Decrypt reverses Encrypt, reading the nonce from the first nonceSize
// bytes of ciphertext.
func (c *StateCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &c.key)
	if !ok {
		return nil, fmt.Errorf("decrypt: authentication failed (wrong passphrase or corrupt data)")
	}
	return plaintext, nil
}

// StateCipherFromEnv returns a StateCipher built from ANURIS_STATE_PASSPHRASE
// when EncryptStateEnvVar is "1", or nil when encryption is disabled or no
// passphrase is configured.
func StateCipherFromEnv(getenv func(string) string) *StateCipher {
	if getenv(EncryptStateEnvVar) != "1" {
		return nil
	}
	passphrase := getenv("ANURIS_STATE_PASSPHRASE")
	if passphrase == "" {
		return nil
	}
	return NewStateCipher(passphrase)
}
