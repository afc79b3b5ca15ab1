package types

import (
	"errors"

	"github.com/nftgas/gastest/crypto"
)

var (
	ErrSignerKeyMismatch = errors.New("transaction public key does not belong to the signing key")
	ErrInvalidSignature  = errors.New("invalid transaction signature")
)

// SignTx signs the transaction with key. The transaction's public key must be
// the public half of key.
func SignTx(tx *Transaction, key *crypto.KeyPair) (*SignedTransaction, error) {
	if tx.PublicKey != key.Public() {
		return nil, ErrSignerKeyMismatch
	}
	hash, err := tx.Hash()
	if err != nil {
		return nil, err
	}
	sig := Signature{KeyType: uint8(crypto.ED25519)}
	copy(sig.Data[:], key.Sign(hash[:]))
	return &SignedTransaction{Transaction: *tx, Signature: sig}, nil
}

// SignNewTx creates a transaction from key's public half and signs it.
func SignNewTx(key *crypto.KeyPair, signerID string, nonce uint64, receiverID string, blockHash CryptoHash, actions ...Action) (*SignedTransaction, error) {
	return SignTx(NewTx(signerID, key.Public(), nonce, receiverID, blockHash, actions...), key)
}

// Verify checks the signature against the transaction's public key.
func (stx *SignedTransaction) Verify() error {
	hash, err := stx.Transaction.Hash()
	if err != nil {
		return err
	}
	if stx.Signature.KeyType != stx.Transaction.PublicKey.KeyType {
		return ErrInvalidSignature
	}
	if !stx.Transaction.PublicKey.Verify(hash[:], stx.Signature.Data[:]) {
		return ErrInvalidSignature
	}
	return nil
}
