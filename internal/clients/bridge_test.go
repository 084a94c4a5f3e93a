package clients

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/skyline-labs/bridgecore/internal/bridge"
	"github.com/skyline-labs/bridgecore/internal/ledger"
)

func newTestClient(t *testing.T) *BridgeClient {
	t.Helper()
	payer, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate payer: %v", err)
	}
	programID, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate program id: %v", err)
	}

	l := ledger.New()
	l.Fund(payer.PublicKey(), 1_000_000_000)

	c, err := NewBridgeClient(zap.NewNop(), l, programID.PublicKey(), payer.String())
	if err != nil {
		t.Fatalf("new bridge client: %v", err)
	}
	return c
}

func TestBridgeClientInitializeAndRead(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	validators := make([]solana.PrivateKey, 6)
	candidate := make([]solana.PublicKey, 6)
	for i := range validators {
		priv, err := solana.NewRandomPrivateKey()
		if err != nil {
			t.Fatalf("generate validator: %v", err)
		}
		validators[i] = priv
		candidate[i] = priv.PublicKey()
	}

	if _, err := c.Initialize(ctx, candidate); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	vs, err := c.GetValidatorSet(ctx)
	if err != nil {
		t.Fatalf("get validator set: %v", err)
	}
	if vs.Threshold != 4 {
		t.Fatalf("threshold = %d, want 4", vs.Threshold)
	}
}

func TestBridgeClientBridgeTokensWithSignHelper(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	validators := make([]solana.PrivateKey, 4)
	candidate := make([]solana.PublicKey, 4)
	for i := range validators {
		priv, err := solana.NewRandomPrivateKey()
		if err != nil {
			t.Fatalf("generate validator: %v", err)
		}
		validators[i] = priv
		candidate[i] = priv.PublicKey()
	}
	if _, err := c.Initialize(ctx, candidate); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	vsAddr, _, err := c.ValidatorSetAddress()
	if err != nil {
		t.Fatalf("derive validator set address: %v", err)
	}
	mint := solana.NewWallet().PublicKey()
	if err := c.Ledger().CreateMint(mint, vsAddr, 9); err != nil {
		t.Fatalf("create mint: %v", err)
	}

	recipient := solana.NewWallet().PublicKey()
	amount := uint64(500)
	msg := bridge.BridgeTokensMessage(mint, recipient, amount)

	cosigners := make([]bridge.CoSignature, 3)
	for i := 0; i < 3; i++ {
		cs, err := Sign(validators[i], msg)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		cosigners[i] = cs
	}

	if err := c.BridgeTokens(ctx, bridge.BridgeTokensParams{
		Mint:      mint,
		Recipient: recipient,
		Amount:    amount,
		CoSigners: cosigners,
	}); err != nil {
		t.Fatalf("bridge tokens: %v", err)
	}

	ata, err := ledger.AssociatedTokenAddress(recipient, mint)
	if err != nil {
		t.Fatalf("derive ata: %v", err)
	}
	acc, err := c.Ledger().GetTokenAccount(ata)
	if err != nil {
		t.Fatalf("get token account: %v", err)
	}
	if acc.Amount != amount {
		t.Fatalf("balance = %d, want %d", acc.Amount, amount)
	}
}
