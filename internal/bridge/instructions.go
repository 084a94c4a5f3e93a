// Package bridge implements the validator set store, the quorum verifier,
// and the five privileged instructions that mutate it or act under its
// authority. It operates against an internal/ledger.Ledger rather than real
// Solana accounts, so it can be exercised directly by Go tests instead of a
// deployed program.
package bridge

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/skyline-labs/bridgecore/internal/ledger"
)

// Program is a bound instance of the bridge core for one program ID.
type Program struct {
	ID     solana.PublicKey
	logger *zap.Logger
}

// New returns a Program bound to id. A nil logger is replaced with a no-op one.
func New(id solana.PublicKey, logger *zap.Logger) *Program {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Program{ID: id, logger: logger.With(zap.String("component", "bridge"))}
}

func loadValidatorSet(l *ledger.Ledger, program solana.PublicKey) (*ValidatorSet, solana.PublicKey, error) {
	addr, _, err := ValidatorSetAddress(program)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	data, err := l.ReadAccount(addr)
	if err != nil {
		return nil, addr, err
	}
	vs, err := UnmarshalValidatorSet(data)
	if err != nil {
		return nil, addr, err
	}
	return vs, addr, nil
}

// Initialize performs the single-shot, unauthenticated creation of the
// ValidatorSet singleton for this program.
func (p *Program) Initialize(l *ledger.Ledger, payer solana.PublicKey, candidate []solana.PublicKey) (*ValidatorSet, error) {
	addr, bump, err := ValidatorSetAddress(p.ID)
	if err != nil {
		return nil, err
	}

	vs, err := newValidatorSet(candidate, bump)
	if err != nil {
		return nil, err
	}

	if err := l.CreateAccount(addr, p.ID, payer, vs.Marshal()); err != nil {
		// ledger.ErrAccountExists surfaces unchanged rather than being
		// recast as a Code: initialize only ever runs once per program.
		return nil, err
	}

	p.logger.Info("validator set initialized",
		zap.Int("signers", len(vs.Signers)),
		zap.Uint8("threshold", vs.Threshold),
		zap.String("fingerprint", validatorSetFingerprint(vs).Hex()))

	return vs, nil
}

// BridgeTokensParams are the arguments and co-signers for bridge_tokens.
type BridgeTokensParams struct {
	Payer     solana.PublicKey
	Mint      solana.PublicKey
	Recipient solana.PublicKey
	Amount    uint64
	CoSigners []CoSignature
}

// BridgeTokens is the quorum-authorized inbound mint: it verifies the
// co-signers against the current validator set, then mints amount to the
// recipient's associated token account, creating it if needed.
func (p *Program) BridgeTokens(l *ledger.Ledger, params BridgeTokensParams) error {
	vs, vsAddr, err := loadValidatorSet(l, p.ID)
	if err != nil {
		return err
	}

	msg := BridgeTokensMessage(params.Mint, params.Recipient, params.Amount)
	if err := verifyQuorum(vs, msg, params.CoSigners); err != nil {
		return err
	}

	ata, created, err := l.EnsureAssociatedTokenAccount(params.Payer, params.Recipient, params.Mint)
	if err != nil {
		return err
	}

	// The mint authority is expected to be the ValidatorSet PDA; a mismatch
	// here is a token-layer failure and bubbles up unmodified.
	if err := l.MintTo(params.Mint, ata, vsAddr, params.Amount); err != nil {
		return err
	}

	p.logger.Info("bridge_tokens minted",
		zap.Uint64("amount", params.Amount),
		zap.String("recipient", params.Recipient.String()),
		zap.String("recipientATA", ata.String()),
		zap.Bool("ataCreated", created),
		zap.String("fingerprint", auditFingerprint("bridge-tokens",
			params.Mint.Bytes(), params.Recipient.Bytes(), u64le(params.Amount)).Hex()))

	return nil
}

// BridgeRequestParams are the arguments for bridge_request.
type BridgeRequestParams struct {
	Signer           solana.PublicKey
	SignerATA        solana.PublicKey
	Mint             solana.PublicKey
	Amount           uint64
	Receiver         []byte
	DestinationChain uint32
}

// BridgeRequest escrows amount by burning it from the sender's associated
// token account and opens a per-sender BridgingRequest recording the
// outbound destination.
func (p *Program) BridgeRequest(l *ledger.Ledger, params BridgeRequestParams) (*BridgingRequest, error) {
	ata, err := l.GetTokenAccount(params.SignerATA)
	if err != nil {
		return nil, newErr(CodeAccountNotInitialized)
	}
	if ata.Owner != params.Signer || ata.Mint != params.Mint {
		return nil, newErr(CodeAccountNotInitialized)
	}

	addr, _, err := BridgingRequestAddress(p.ID, params.Signer)
	if err != nil {
		return nil, err
	}
	// An already-open request for this sender is reported as
	// ledger.ErrAccountExists before the balance is checked.
	if l.AccountExists(addr) {
		return nil, ledger.ErrAccountExists
	}

	if ata.Amount < params.Amount {
		return nil, newErr(CodeInsufficientFunds)
	}

	if len(params.Receiver) != ReceiverLength {
		return nil, fmt.Errorf("bridge: receiver must be %d bytes, got %d", ReceiverLength, len(params.Receiver))
	}

	br := &BridgingRequest{
		Sender:           params.Signer,
		Amount:           params.Amount,
		DestinationChain: params.DestinationChain,
		Mint:             params.Mint,
	}
	copy(br.Receiver[:], params.Receiver)

	// CreateAccount fails with ledger.ErrAccountExists if a request is
	// already open for this sender: the runtime enforces at most one live
	// BridgingRequest per sender by refusing to re-create an occupied PDA.
	if err := l.CreateAccount(addr, p.ID, params.Signer, br.Marshal()); err != nil {
		return nil, err
	}

	if err := l.Burn(params.Mint, params.SignerATA, params.Signer, params.Amount); err != nil {
		return nil, err
	}

	p.logger.Info("bridge_request opened",
		zap.String("sender", params.Signer.String()),
		zap.Uint64("amount", params.Amount),
		zap.Uint32("destinationChain", params.DestinationChain),
		zap.String("fingerprint", bridgingRequestFingerprint(br).Hex()))

	return br, nil
}

// CloseRequestParams are the arguments for close_request.
type CloseRequestParams struct {
	// Sender identifies which BridgingRequest to close and is also the rent
	// refundee.
	Sender    solana.PublicKey
	CoSigners []CoSignature
}

// CloseRequest is the quorum-gated deallocation of a BridgingRequest,
// refunding its rent to Sender. No further token movement occurs: the
// escrowed amount was already burned when the request was opened.
func (p *Program) CloseRequest(l *ledger.Ledger, params CloseRequestParams) error {
	vs, _, err := loadValidatorSet(l, p.ID)
	if err != nil {
		return err
	}

	msg := CloseRequestMessage(params.Sender)
	if err := verifyQuorum(vs, msg, params.CoSigners); err != nil {
		return err
	}

	addr, _, err := BridgingRequestAddress(p.ID, params.Sender)
	if err != nil {
		return err
	}

	data, err := l.ReadAccount(addr)
	if err != nil {
		return err
	}
	br, err := UnmarshalBridgingRequest(data)
	if err != nil {
		return err
	}

	if err := l.CloseAccount(addr, params.Sender); err != nil {
		return err
	}

	p.logger.Info("close_request closed bridging request",
		zap.String("sender", params.Sender.String()),
		zap.String("fingerprint", bridgingRequestFingerprint(br).Hex()))

	return nil
}

// ValidatorSetChangeParams are the arguments for validator_set_change.
type ValidatorSetChangeParams struct {
	NewSigners []solana.PublicKey
	CoSigners  []CoSignature // co-signed by the *current* set
	RentPayer  solana.PublicKey
}

// ValidatorSetChange is the quorum-gated replacement of the signer list.
// Quorum is checked against the current set first, then the new signer
// list is validated against the same structural rules as Initialize.
func (p *Program) ValidatorSetChange(l *ledger.Ledger, params ValidatorSetChangeParams) (*ValidatorSet, error) {
	vs, addr, err := loadValidatorSet(l, p.ID)
	if err != nil {
		return nil, err
	}

	msg := ValidatorSetChangeMessage(params.NewSigners)
	if err := verifyQuorum(vs, msg, params.CoSigners); err != nil {
		return nil, err
	}

	if err := validateSignerList(params.NewSigners); err != nil {
		return nil, err
	}

	newVS := &ValidatorSet{
		Signers:   append([]solana.PublicKey(nil), params.NewSigners...),
		Threshold: threshold(len(params.NewSigners)),
		Bump:      vs.Bump, // the PDA address does not move on rotation
	}

	if err := l.WriteAccount(addr, params.RentPayer, params.RentPayer, newVS.Marshal()); err != nil {
		return nil, err
	}

	p.logger.Info("validator_set_change rotated",
		zap.Int("signers", len(newVS.Signers)),
		zap.Uint8("threshold", newVS.Threshold),
		zap.String("fingerprint", validatorSetFingerprint(newVS).Hex()))

	return newVS, nil
}
