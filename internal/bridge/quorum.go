package bridge

import (
	"crypto/ed25519"

	"github.com/gagliardetto/solana-go"
)

// CoSignature is one trailing co-signer account supplied to a privileged
// instruction: the validator's public key and its ed25519 signature over
// the instruction's canonical message. This stands in for the runtime's
// per-account is_signer flag; since there is no host runtime to have
// pre-verified it, the signature is checked directly.
type CoSignature struct {
	Signer    solana.PublicKey
	Signature [ed25519.SignatureSize]byte
}

// verifyQuorum is the quorum verifier reused by every privileged action.
// Checks run in order:
//  1. raw co-signer count against threshold (NotEnoughSigners)
//  2. each co-signer's set membership and signature (InvalidSigner)
//  3. re-check distinct, valid signers still meet threshold
//
// Step 3 closes a gap that step 1 alone leaves open: without it, one
// validator's signature repeated threshold times would satisfy the count
// check. Duplicate co-signers are deduplicated into a single vote rather
// than rejected outright.
func verifyQuorum(vs *ValidatorSet, message []byte, cosigners []CoSignature) error {
	if len(cosigners) < int(vs.Threshold) {
		return newErr(CodeNotEnoughSigners)
	}

	distinct := make(map[solana.PublicKey]struct{}, len(cosigners))
	for _, cs := range cosigners {
		if !vs.contains(cs.Signer) {
			return newErr(CodeInvalidSigner)
		}
		if !ed25519.Verify(cs.Signer.Bytes(), message, cs.Signature[:]) {
			return newErr(CodeInvalidSigner)
		}
		distinct[cs.Signer] = struct{}{}
	}

	if len(distinct) < int(vs.Threshold) {
		return newErr(CodeNotEnoughSigners)
	}
	return nil
}
