// Package crypto implements the ed25519 key handling used to sign sandbox
// transactions, in the textual "ed25519:<base58>" form the node expects.
package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/nftgas/gastest/params"
)

// KeyType is the curve tag carried by keys and signatures on the wire.
type KeyType uint8

const (
	ED25519 KeyType = params.KeyTypeED25519

	ed25519Prefix = "ed25519:"
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrUnsupportedCurve = errors.New("unsupported key curve")
	ErrKeyMismatch      = errors.New("public key does not match secret key")
)

func (t KeyType) String() string {
	switch t {
	case ED25519:
		return "ed25519"
	default:
		return fmt.Sprintf("keytype(%d)", uint8(t))
	}
}

// PublicKey is a public key in the layout used by borsh encoded transactions.
type PublicKey struct {
	KeyType uint8
	Data    [ed25519.PublicKeySize]byte
}

// ParsePublicKey decodes a key of the form "ed25519:<base58>". A key without
// the curve prefix is taken to be ed25519.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := decodeKeyString(s)
	if err != nil {
		return PublicKey{}, err
	}
	if len(raw) != ed25519.PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: public key is %d bytes", ErrInvalidKey, len(raw))
	}
	pk := PublicKey{KeyType: uint8(ED25519)}
	copy(pk.Data[:], raw)
	return pk, nil
}

func (pk PublicKey) String() string {
	return KeyType(pk.KeyType).String() + ":" + base58.Encode(pk.Data[:])
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// Verify reports whether sig is a valid signature of msg by pk.
func (pk PublicKey) Verify(msg, sig []byte) bool {
	if KeyType(pk.KeyType) != ED25519 {
		return false
	}
	return ed25519.Verify(pk.Data[:], msg, sig)
}

// KeyPair is an ed25519 signing key.
type KeyPair struct {
	priv ed25519.PrivateKey
}

// GenerateKey creates a new random key pair.
func GenerateKey() (*KeyPair, error) {
	return generateKey(rand.Reader)
}

func generateKey(r io.Reader) (*KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return nil, err
	}
	return &KeyPair{priv: priv}, nil
}

// NewKeyPairFromSeed derives a key pair from a 32 byte seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed is %d bytes", ErrInvalidKey, len(seed))
	}
	return &KeyPair{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

// ParseSecretKey decodes a secret key of the form "ed25519:<base58>". Both the
// 64 byte expanded form and a bare 32 byte seed are accepted.
func ParseSecretKey(s string) (*KeyPair, error) {
	raw, err := decodeKeyString(s)
	if err != nil {
		return nil, err
	}
	switch len(raw) {
	case ed25519.PrivateKeySize:
		kp, err := NewKeyPairFromSeed(raw[:ed25519.SeedSize])
		if err != nil {
			return nil, err
		}
		// The trailing half is the public key; reject inconsistent encodings.
		if string(kp.priv[ed25519.SeedSize:]) != string(raw[ed25519.SeedSize:]) {
			return nil, ErrKeyMismatch
		}
		return kp, nil
	case ed25519.SeedSize:
		return NewKeyPairFromSeed(raw)
	default:
		return nil, fmt.Errorf("%w: secret key is %d bytes", ErrInvalidKey, len(raw))
	}
}

// Public returns the public half of the key pair.
func (kp *KeyPair) Public() PublicKey {
	pk := PublicKey{KeyType: uint8(ED25519)}
	copy(pk.Data[:], kp.priv[ed25519.SeedSize:])
	return pk
}

// Sign signs msg and returns the 64 byte signature.
func (kp *KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.priv, msg)
}

// String returns the secret key in textual form.
func (kp *KeyPair) String() string {
	return ed25519Prefix + base58.Encode(kp.priv)
}

func decodeKeyString(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		if s[:i] != KeyType(ED25519).String() {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, s[:i])
		}
		s = s[i+1:]
	}
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	raw := base58.Decode(s)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: bad base58 encoding", ErrInvalidKey)
	}
	return raw, nil
}
