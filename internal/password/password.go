package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// ErrInvalidHash is returned when a stored hash is not in "salt:key" hex form.
var ErrInvalidHash = errors.New("invalid hash format")

// Params defines the scrypt cost parameters
type Params struct {
	N          int
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultParams returns the parameters stored hashes are produced with.
func DefaultParams() Params {
	return Params{
		N:          16384,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  64,
	}
}

// Hasher derives and checks scrypt password hashes.
type Hasher struct {
	params Params
}

// NewHasher creates a Hasher. Zero-valued params fall back to DefaultParams.
func NewHasher(params Params) *Hasher {
	if params.N == 0 {
		params = DefaultParams()
	}
	return &Hasher{params: params}
}

// Hash derives a salted hash encoded as hex(salt):hex(key)
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := h.derive(password, salt)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify checks password against an encoded hash in constant time.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	saltHex, keyHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return false, ErrInvalidHash
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false, ErrInvalidHash
	}
	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) == 0 {
		return false, ErrInvalidHash
	}

	got, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, len(want))
	if err != nil {
		return false, fmt.Errorf("failed to derive key: %w", err)
	}

	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func (h *Hasher) derive(password string, salt []byte) ([]byte, error) {
	key, err := scrypt.Key([]byte(password), salt, h.params.N, h.params.R, h.params.P, h.params.KeyLength)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}
