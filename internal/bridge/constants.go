package bridge

// Validator set size bounds and the PDA seeds fixed by the protocol.
const (
	MinValidators = 4
	MaxValidators = 19

	// ReceiverLength is the fixed size of a bridge_request receiver address.
	ReceiverLength = 32

	validatorSetSeed    = "validator-set"
	bridgingRequestSeed = "bridging_request"
)
