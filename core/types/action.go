package types

import (
	"fmt"
	"math/big"

	"github.com/near/borsh-go"
	"github.com/nftgas/gastest/crypto"
)

// Action variants, in the order of the runtime's action enum.
const (
	ActionCreateAccount borsh.Enum = iota
	ActionDeployContract
	ActionFunctionCall
	ActionTransfer
	ActionStake
	ActionAddKey
	ActionDeleteKey
	ActionDeleteAccount
)

// Action is one step of a transaction. Only the field selected by Enum is
// encoded.
type Action struct {
	Enum           borsh.Enum `borsh_enum:"true"`
	CreateAccount  CreateAccount
	DeployContract DeployContract
	FunctionCall   FunctionCall
	Transfer       Transfer
	Stake          Stake
	AddKey         AddKey
	DeleteKey      DeleteKey
	DeleteAccount  DeleteAccount
}

type CreateAccount struct{}

type DeployContract struct {
	Code []byte
}

type FunctionCall struct {
	MethodName string
	Args       []byte
	Gas        uint64
	Deposit    big.Int // u128
}

type Transfer struct {
	Deposit big.Int // u128
}

type Stake struct {
	Stake     big.Int // u128
	PublicKey crypto.PublicKey
}

type AddKey struct {
	PublicKey crypto.PublicKey
	AccessKey AccessKey
}

type DeleteKey struct {
	PublicKey crypto.PublicKey
}

type DeleteAccount struct {
	BeneficiaryID string
}

// Access key permission variants.
const (
	PermissionFunctionCall borsh.Enum = iota
	PermissionFullAccess
)

type AccessKey struct {
	Nonce      uint64
	Permission AccessKeyPermission
}

type AccessKeyPermission struct {
	Enum         borsh.Enum `borsh_enum:"true"`
	FunctionCall FunctionCallPermission
	FullAccess   struct{}
}

type FunctionCallPermission struct {
	Allowance   *big.Int // Option<u128>
	ReceiverID  string
	MethodNames []string
}

func (a *Action) deposit() *big.Int {
	switch a.Enum {
	case ActionFunctionCall:
		return &a.FunctionCall.Deposit
	case ActionTransfer:
		return &a.Transfer.Deposit
	}
	return nil
}

// Name returns the action kind as the node names it in outcomes.
func (a *Action) Name() string {
	switch a.Enum {
	case ActionCreateAccount:
		return "CreateAccount"
	case ActionDeployContract:
		return "DeployContract"
	case ActionFunctionCall:
		return "FunctionCall"
	case ActionTransfer:
		return "Transfer"
	case ActionStake:
		return "Stake"
	case ActionAddKey:
		return "AddKey"
	case ActionDeleteKey:
		return "DeleteKey"
	case ActionDeleteAccount:
		return "DeleteAccount"
	default:
		return fmt.Sprintf("Action(%d)", a.Enum)
	}
}
