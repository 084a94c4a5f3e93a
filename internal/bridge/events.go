package bridge

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// auditFingerprint stamps a committed state transition with a deterministic
// hash over its domain-separated fields, logged so operators can correlate
// the same mutation across nodes without re-deriving it from account bytes.
func auditFingerprint(domain string, parts ...[]byte) common.Hash {
	buf := []byte(domain)
	for _, p := range parts {
		buf = append(buf, p...)
	}
	return crypto.Keccak256Hash(buf)
}

func u64le(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func u32le(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func validatorSetFingerprint(vs *ValidatorSet) common.Hash {
	parts := make([][]byte, 0, len(vs.Signers)+1)
	for _, s := range vs.Signers {
		b := s // copy
		parts = append(parts, b[:])
	}
	parts = append(parts, []byte{vs.Threshold})
	return auditFingerprint("validator-set", parts...)
}

func bridgingRequestFingerprint(br *BridgingRequest) common.Hash {
	sender := br.Sender
	mint := br.Mint
	return auditFingerprint("bridging-request",
		sender[:], u64le(br.Amount), br.Receiver[:], u32le(br.DestinationChain), mint[:])
}

// BridgeTokensMessage is the canonical message co-signers sign over to
// authorize a bridge_tokens call.
func BridgeTokensMessage(mint, recipient solana.PublicKey, amount uint64) []byte {
	m := mint
	r := recipient
	return append(append([]byte("bridge_tokens"), m[:]...), append(r[:], u64le(amount)...)...)
}

// CloseRequestMessage is the canonical message co-signers sign over to
// authorize closing sender's bridging request.
func CloseRequestMessage(sender solana.PublicKey) []byte {
	s := sender
	return append([]byte("close_request"), s[:]...)
}

// ValidatorSetChangeMessage is the canonical message the *current* signers
// sign over to authorize rotating to newSet.
func ValidatorSetChangeMessage(newSet []solana.PublicKey) []byte {
	msg := []byte("validator_set_change")
	for _, s := range newSet {
		b := s
		msg = append(msg, b[:]...)
	}
	return msg
}
