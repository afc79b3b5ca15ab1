package params

import "math/big"

const (
	DefaultFunctionCallGas uint64 = 10 * TGas  // Prepaid gas attached to a function call when none is given.
	MaxFunctionCallGas     uint64 = 300 * TGas // Upper bound the runtime accepts for a single function call.

	SandboxRootAccount = "test.near" // Account owning the validator key of a fresh sandbox.
	DevAccountPrefix   = "dev"       // Prefix of accounts created by DevDeploy.

	KeyTypeED25519 = 0 // Borsh tag of ed25519 keys and signatures.
)

var (
	OneNear = new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil) // Near does not fit an int64.

	DevAccountBalance  = new(big.Int).Mul(big.NewInt(10), OneNear)            // 10 NEAR funded into every dev account.
	DefaultMintDeposit = new(big.Int).Mul(big.NewInt(1e10), big.NewInt(1e12)) // 0.01 NEAR attached to nft_mint.
)
