package bridge

import "github.com/gagliardetto/solana-go"

// ValidatorSet is the durable record of authorized signers, the quorum
// threshold derived from them, and the PDA bump used to re-derive its
// address.
type ValidatorSet struct {
	Signers   []solana.PublicKey
	Threshold uint8
	Bump      uint8
}

// threshold computes ceil(2n/3) using integer arithmetic: ceil(a/b) == (a+b-1)/b.
func threshold(n int) uint8 {
	return uint8((2*n + 2) / 3)
}

// validateSignerList checks the three structural preconditions shared by
// initialize and validator_set_change: minimum size, maximum size, then
// uniqueness, in that order.
func validateSignerList(signers []solana.PublicKey) error {
	if len(signers) < MinValidators {
		return newErr(CodeMinValidatorsNotMet)
	}
	if len(signers) > MaxValidators {
		return newErr(CodeMaxValidatorsExceeded)
	}

	seen := make(map[solana.PublicKey]struct{}, len(signers))
	for _, s := range signers {
		if _, ok := seen[s]; ok {
			return newErr(CodeValidatorsNotUnique)
		}
		seen[s] = struct{}{}
	}
	return nil
}

// newValidatorSet validates candidate and builds the ValidatorSet state that
// results from accepting it, recomputing the threshold.
func newValidatorSet(candidate []solana.PublicKey, bump uint8) (*ValidatorSet, error) {
	if err := validateSignerList(candidate); err != nil {
		return nil, err
	}
	signers := make([]solana.PublicKey, len(candidate))
	copy(signers, candidate)
	return &ValidatorSet{
		Signers:   signers,
		Threshold: threshold(len(signers)),
		Bump:      bump,
	}, nil
}

func (vs *ValidatorSet) contains(pk solana.PublicKey) bool {
	for _, s := range vs.Signers {
		if s == pk {
			return true
		}
	}
	return false
}
