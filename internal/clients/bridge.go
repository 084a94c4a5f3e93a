package clients

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/skyline-labs/bridgecore/internal/bridge"
	"github.com/skyline-labs/bridgecore/internal/ledger"
)

// BridgeClient is the operator-facing handle for a running bridge program
// instance. It owns the ledger the program mutates, the bound Program, and
// a payer keypair used to fund rent for the accounts that initialize,
// bridge_tokens and validator_set_change create or grow. bridge_request's
// account is paid for by its own signer.
type BridgeClient struct {
	ledger  *ledger.Ledger
	program *bridge.Program
	payer   solana.PrivateKey
	logger  *zap.Logger
}

// NewBridgeClient builds a client around l, bound to programID, paying rent
// from the keypair decoded from payerBase58. If l is nil, a fresh empty
// ledger is created.
func NewBridgeClient(logger *zap.Logger, l *ledger.Ledger, programID solana.PublicKey, payerBase58 string) (*BridgeClient, error) {
	if l == nil {
		l = ledger.New()
	}

	payer, err := solana.PrivateKeyFromBase58(payerBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid payer private key: %w", err)
	}

	c := &BridgeClient{
		ledger:  l,
		program: bridge.New(programID, logger),
		payer:   payer,
		logger:  logger.With(zap.String("component", "BridgeClient")),
	}

	c.logger.Info("bridge client initialized",
		zap.String("payer", c.payer.PublicKey().String()),
		zap.String("programID", programID.String()))

	return c, nil
}

// PayerAddress returns the client's rent-paying keypair's public key.
func (c *BridgeClient) PayerAddress() solana.PublicKey {
	return c.payer.PublicKey()
}

// ProgramID returns the bound program ID.
func (c *BridgeClient) ProgramID() solana.PublicKey {
	return c.program.ID
}

// Ledger returns the underlying ledger, for callers that need direct access
// (funding accounts, creating mints for a devnet bootstrap).
func (c *BridgeClient) Ledger() *ledger.Ledger {
	return c.ledger
}

// ValidatorSetAddress derives the program's singleton ValidatorSet PDA.
func (c *BridgeClient) ValidatorSetAddress() (solana.PublicKey, uint8, error) {
	return bridge.ValidatorSetAddress(c.program.ID)
}

// BridgingRequestAddress derives the BridgingRequest PDA for sender.
func (c *BridgeClient) BridgingRequestAddress(sender solana.PublicKey) (solana.PublicKey, uint8, error) {
	return bridge.BridgingRequestAddress(c.program.ID, sender)
}

// GetValidatorSet reads and decodes the current validator set.
func (c *BridgeClient) GetValidatorSet(ctx context.Context) (*bridge.ValidatorSet, error) {
	addr, _, err := c.ValidatorSetAddress()
	if err != nil {
		return nil, err
	}
	data, err := c.ledger.ReadAccount(addr)
	if err != nil {
		return nil, err
	}
	return bridge.UnmarshalValidatorSet(data)
}

// Initialize submits the initialize instruction, creating the ValidatorSet
// singleton with candidate as its initial signers.
func (c *BridgeClient) Initialize(ctx context.Context, candidate []solana.PublicKey) (*bridge.ValidatorSet, error) {
	c.logger.Info("submitting initialize", zap.Int("candidateSigners", len(candidate)))
	return c.program.Initialize(c.ledger, c.payer.PublicKey(), candidate)
}

// BridgeTokens submits the bridge_tokens instruction.
func (c *BridgeClient) BridgeTokens(ctx context.Context, params bridge.BridgeTokensParams) error {
	if params.Payer == (solana.PublicKey{}) {
		params.Payer = c.payer.PublicKey()
	}
	c.logger.Info("submitting bridge_tokens",
		zap.String("mint", params.Mint.String()),
		zap.String("recipient", params.Recipient.String()),
		zap.Uint64("amount", params.Amount))
	return c.program.BridgeTokens(c.ledger, params)
}

// BridgeRequest submits the bridge_request instruction.
func (c *BridgeClient) BridgeRequest(ctx context.Context, params bridge.BridgeRequestParams) (*bridge.BridgingRequest, error) {
	c.logger.Info("submitting bridge_request",
		zap.String("sender", params.Signer.String()),
		zap.Uint64("amount", params.Amount),
		zap.Uint32("destinationChain", params.DestinationChain))
	return c.program.BridgeRequest(c.ledger, params)
}

// CloseRequest submits the close_request instruction.
func (c *BridgeClient) CloseRequest(ctx context.Context, params bridge.CloseRequestParams) error {
	c.logger.Info("submitting close_request", zap.String("sender", params.Sender.String()))
	return c.program.CloseRequest(c.ledger, params)
}

// ValidatorSetChange submits the validator_set_change instruction.
func (c *BridgeClient) ValidatorSetChange(ctx context.Context, params bridge.ValidatorSetChangeParams) (*bridge.ValidatorSet, error) {
	if params.RentPayer == (solana.PublicKey{}) {
		params.RentPayer = c.payer.PublicKey()
	}
	c.logger.Info("submitting validator_set_change", zap.Int("newSigners", len(params.NewSigners)))
	return c.program.ValidatorSetChange(c.ledger, params)
}

// Sign produces a CoSignature over message using priv, convenience for
// callers assembling co-signer lists outside of a real multi-party signing
// ceremony (tests, devnet tooling).
func Sign(priv solana.PrivateKey, message []byte) (bridge.CoSignature, error) {
	sig, err := priv.Sign(message)
	if err != nil {
		return bridge.CoSignature{}, fmt.Errorf("sign message: %w", err)
	}
	var cs bridge.CoSignature
	cs.Signer = priv.PublicKey()
	copy(cs.Signature[:], sig[:])
	return cs, nil
}
