package crypto

import (
	"encoding/json"
	"fmt"
	"os"
)

// KeyFile is the credentials document written by the node for its validator
// key and by the CLI tools for account keys.
type KeyFile struct {
	AccountID  string `json:"account_id"`
	PublicKey  string `json:"public_key"`
	SecretKey  string `json:"secret_key,omitempty"`
	PrivateKey string `json:"private_key,omitempty"`
}

// AccountKey binds an account to the key that signs for it.
type AccountKey struct {
	AccountID string
	Key       *KeyPair
}

// LoadKeyFile reads a credentials file and checks that its public key matches
// the secret.
func LoadKeyFile(path string) (*AccountKey, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf KeyFile
	if err := json.Unmarshal(blob, &kf); err != nil {
		return nil, fmt.Errorf("invalid key file %s: %w", path, err)
	}
	return kf.AccountKey()
}

// AccountKey decodes the key material of the file.
func (kf *KeyFile) AccountKey() (*AccountKey, error) {
	if kf.AccountID == "" {
		return nil, fmt.Errorf("%w: key file has no account_id", ErrInvalidKey)
	}
	secret := kf.SecretKey
	if secret == "" {
		secret = kf.PrivateKey
	}
	kp, err := ParseSecretKey(secret)
	if err != nil {
		return nil, err
	}
	if kf.PublicKey != "" {
		pk, err := ParsePublicKey(kf.PublicKey)
		if err != nil {
			return nil, err
		}
		if pk != kp.Public() {
			return nil, ErrKeyMismatch
		}
	}
	return &AccountKey{AccountID: kf.AccountID, Key: kp}, nil
}

// WriteKeyFile stores the account key as a credentials file readable only by
// the current user.
func WriteKeyFile(path string, ak *AccountKey) error {
	blob, err := json.MarshalIndent(KeyFile{
		AccountID: ak.AccountID,
		PublicKey: ak.Key.Public().String(),
		SecretKey: ak.Key.String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0600)
}
