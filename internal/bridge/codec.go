package bridge

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Wire layout: fixed field order, little-endian integers, length-prefixed
// variable-length fields.
//
// ValidatorSet:  u32 signer count | signers (32 bytes each) | u8 threshold | u8 bump
// BridgingRequest: sender (32) | amount (u64 LE) | receiver (32) | destination_chain (u32 LE) | mint (32)

// Marshal serializes the validator set to its canonical account bytes.
func (vs *ValidatorSet) Marshal() []byte {
	buf := make([]byte, 4+len(vs.Signers)*32+1+1)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(vs.Signers)))
	off := 4
	for _, s := range vs.Signers {
		copy(buf[off:off+32], s.Bytes())
		off += 32
	}
	buf[off] = vs.Threshold
	buf[off+1] = vs.Bump
	return buf
}

// UnmarshalValidatorSet parses the canonical account bytes produced by Marshal.
func UnmarshalValidatorSet(data []byte) (*ValidatorSet, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("bridge: validator set data too short")
	}
	n := int(binary.LittleEndian.Uint32(data[0:4]))
	want := 4 + n*32 + 2
	if len(data) != want {
		return nil, fmt.Errorf("bridge: validator set data has wrong length: got %d want %d", len(data), want)
	}

	signers := make([]solana.PublicKey, n)
	off := 4
	for i := 0; i < n; i++ {
		signers[i] = solana.PublicKeyFromBytes(data[off : off+32])
		off += 32
	}

	return &ValidatorSet{
		Signers:   signers,
		Threshold: data[off],
		Bump:      data[off+1],
	}, nil
}

// Marshal serializes the bridging request to its canonical account bytes.
func (br *BridgingRequest) Marshal() []byte {
	buf := make([]byte, 32+8+ReceiverLength+4+32)
	off := 0
	copy(buf[off:off+32], br.Sender.Bytes())
	off += 32
	binary.LittleEndian.PutUint64(buf[off:off+8], br.Amount)
	off += 8
	copy(buf[off:off+ReceiverLength], br.Receiver[:])
	off += ReceiverLength
	binary.LittleEndian.PutUint32(buf[off:off+4], br.DestinationChain)
	off += 4
	copy(buf[off:off+32], br.Mint.Bytes())
	return buf
}

// UnmarshalBridgingRequest parses the canonical account bytes produced by Marshal.
func UnmarshalBridgingRequest(data []byte) (*BridgingRequest, error) {
	want := 32 + 8 + ReceiverLength + 4 + 32
	if len(data) != want {
		return nil, fmt.Errorf("bridge: bridging request data has wrong length: got %d want %d", len(data), want)
	}

	br := &BridgingRequest{}
	off := 0
	br.Sender = solana.PublicKeyFromBytes(data[off : off+32])
	off += 32
	br.Amount = binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	copy(br.Receiver[:], data[off:off+ReceiverLength])
	off += ReceiverLength
	br.DestinationChain = binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	br.Mint = solana.PublicKeyFromBytes(data[off : off+32])
	return br, nil
}
