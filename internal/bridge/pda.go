package bridge

import "github.com/gagliardetto/solana-go"

// ValidatorSetAddress derives the singleton ValidatorSet PDA for program.
func ValidatorSetAddress(program solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(validatorSetSeed)}, program)
}

// BridgingRequestAddress derives the per-sender BridgingRequest PDA for program.
func BridgingRequestAddress(program, sender solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(bridgingRequestSeed), sender.Bytes()},
		program,
	)
}
