package bridge

import "github.com/gagliardetto/solana-go"

// BridgingRequest is the per-sender outbound escrow record. Mint records
// which wrapped mint the request was denominated in, so close_request and
// any downstream reconciliation don't have to guess it from context.
type BridgingRequest struct {
	Sender           solana.PublicKey
	Amount           uint64
	Receiver         [ReceiverLength]byte
	DestinationChain uint32
	Mint             solana.PublicKey
}
