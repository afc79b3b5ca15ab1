package types

import (
	"math/big"

	"github.com/nftgas/gastest/crypto"
)

// NewTx creates an unsigned transaction.
func NewTx(signerID string, pk crypto.PublicKey, nonce uint64, receiverID string, blockHash CryptoHash, actions ...Action) *Transaction {
	return &Transaction{
		SignerID:   signerID,
		PublicKey:  pk,
		Nonce:      nonce,
		ReceiverID: receiverID,
		BlockHash:  blockHash,
		Actions:    actions,
	}
}

// NewCreateAccount creates the action opening the receiver account.
func NewCreateAccount() Action {
	return Action{Enum: ActionCreateAccount}
}

// NewDeployContract creates an action installing code on the receiver.
func NewDeployContract(code []byte) Action {
	return Action{
		Enum:           ActionDeployContract,
		DeployContract: DeployContract{Code: code},
	}
}

// NewFunctionCall creates a call of method on the receiver. A nil deposit
// attaches nothing.
func NewFunctionCall(method string, args []byte, gas uint64, deposit *big.Int) Action {
	a := Action{
		Enum: ActionFunctionCall,
		FunctionCall: FunctionCall{
			MethodName: method,
			Args:       args,
			Gas:        gas,
		},
	}
	if deposit != nil {
		a.FunctionCall.Deposit.Set(deposit)
	}
	return a
}

// NewTransfer creates an action moving amount yoctoNEAR to the receiver.
func NewTransfer(amount *big.Int) Action {
	a := Action{Enum: ActionTransfer}
	if amount != nil {
		a.Transfer.Deposit.Set(amount)
	}
	return a
}

// NewAddFullAccessKey creates an action registering pk with full access on
// the receiver.
func NewAddFullAccessKey(pk crypto.PublicKey) Action {
	return Action{
		Enum: ActionAddKey,
		AddKey: AddKey{
			PublicKey: pk,
			AccessKey: AccessKey{
				Permission: AccessKeyPermission{Enum: PermissionFullAccess},
			},
		},
	}
}

// NewDeleteAccount creates an action removing the receiver and sending its
// balance to beneficiary.
func NewDeleteAccount(beneficiary string) Action {
	return Action{
		Enum:          ActionDeleteAccount,
		DeleteAccount: DeleteAccount{BeneficiaryID: beneficiary},
	}
}
