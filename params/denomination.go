package params

// These are the multipliers for NEAR denominations.
// Example: To get the yocto value of an amount in 'milliNEAR', use
//
//	new(big.Int).Mul(value, big.NewInt(params.MilliNear))
const (
	YoctoNear = 1
	MilliNear = 1e21
	Near      = 1e24
)

// Gas units. The sandbox reports gas as a raw count of Gas.
const (
	Gas  = 1
	GGas = 1e9
	TGas = 1e12

	// GasPerNear is the display scale used when a gas count is shown as NEAR.
	GasPerNear = 1e15
)
