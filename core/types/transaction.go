// Package types contains the transaction and execution outcome model of the
// sandbox node.
package types

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/big"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/near/borsh-go"
	"github.com/nftgas/gastest/crypto"
)

// CryptoHash is a sha256 digest, shown in base58 on the wire.
type CryptoHash [sha256.Size]byte

var ErrInvalidHash = errors.New("invalid crypto hash")

// HashFromBase58 decodes a base58 encoded block or transaction hash.
func HashFromBase58(s string) (CryptoHash, error) {
	var h CryptoHash
	raw := base58.Decode(s)
	if len(raw) != len(h) {
		return h, ErrInvalidHash
	}
	copy(h[:], raw)
	return h, nil
}

func (h CryptoHash) String() string {
	return base58.Encode(h[:])
}

// Signature is an ed25519 signature in borsh layout.
type Signature struct {
	KeyType uint8
	Data    [64]byte
}

// Transaction is the unsigned transaction body. Field order is the borsh
// encoding order.
type Transaction struct {
	SignerID   string
	PublicKey  crypto.PublicKey
	Nonce      uint64
	ReceiverID string
	BlockHash  CryptoHash
	Actions    []Action
}

// SignedTransaction is a transaction together with the signature over its
// hash.
type SignedTransaction struct {
	Transaction Transaction
	Signature   Signature
}

// Encode returns the borsh encoding of the transaction.
func (tx *Transaction) Encode() ([]byte, error) {
	return borsh.Serialize(*tx)
}

// Hash returns the sha256 of the borsh encoding, which is both the signed
// message and the transaction id.
func (tx *Transaction) Hash() (CryptoHash, error) {
	enc, err := tx.Encode()
	if err != nil {
		return CryptoHash{}, err
	}
	return sha256.Sum256(enc), nil
}

// Encode returns the borsh encoding of the signed transaction.
func (stx *SignedTransaction) Encode() ([]byte, error) {
	return borsh.Serialize(*stx)
}

// Base64 returns the encoding accepted by the broadcast RPC methods.
func (stx *SignedTransaction) Base64() (string, error) {
	enc, err := stx.Encode()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(enc), nil
}

// Hash returns the id of the signed transaction.
func (stx *SignedTransaction) Hash() (CryptoHash, error) {
	return stx.Transaction.Hash()
}

// Deposit returns the sum of all deposits attached by the actions.
func (tx *Transaction) Deposit() *big.Int {
	total := new(big.Int)
	for i := range tx.Actions {
		if d := tx.Actions[i].deposit(); d != nil {
			total.Add(total, d)
		}
	}
	return total
}

// Gas returns the prepaid gas of all function call actions.
func (tx *Transaction) Gas() uint64 {
	var gas uint64
	for i := range tx.Actions {
		if tx.Actions[i].Enum == ActionFunctionCall {
			gas += tx.Actions[i].FunctionCall.Gas
		}
	}
	return gas
}
