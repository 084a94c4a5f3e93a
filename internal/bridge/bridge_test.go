package bridge

import (
	"crypto/ed25519"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/skyline-labs/bridgecore/internal/ledger"
)

func newKey(t *testing.T) solana.PrivateKey {
	t.Helper()
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return priv
}

func keys(t *testing.T, n int) []solana.PrivateKey {
	t.Helper()
	out := make([]solana.PrivateKey, n)
	for i := range out {
		out[i] = newKey(t)
	}
	return out
}

func pubkeys(privs []solana.PrivateKey) []solana.PublicKey {
	out := make([]solana.PublicKey, len(privs))
	for i, p := range privs {
		out[i] = p.PublicKey()
	}
	return out
}

func cosign(t *testing.T, privs []solana.PrivateKey, message []byte) []CoSignature {
	t.Helper()
	out := make([]CoSignature, len(privs))
	for i, priv := range privs {
		sig, err := priv.Sign(message)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		out[i] = CoSignature{Signer: priv.PublicKey(), Signature: [ed25519.SignatureSize]byte(sig)}
	}
	return out
}

func newProgram(t *testing.T) (*Program, solana.PublicKey) {
	t.Helper()
	id := newKey(t).PublicKey()
	return New(id, nil), id
}

// initialize with a valid candidate set succeeds and computes the right threshold.
func TestInitializeHappyPath(t *testing.T) {
	l := ledger.New()
	p, _ := newProgram(t)

	validators := keys(t, 10)
	payer := newKey(t).PublicKey()
	l.Fund(payer, 10_000_000)

	vs, err := p.Initialize(l, payer, pubkeys(validators))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if vs.Threshold != 7 {
		t.Fatalf("threshold = %d, want 7", vs.Threshold)
	}
	if len(vs.Signers) != 10 {
		t.Fatalf("signers = %d, want 10", len(vs.Signers))
	}
	want := make(map[solana.PublicKey]bool, 10)
	for _, k := range validators {
		want[k.PublicKey()] = true
	}
	for _, s := range vs.Signers {
		if !want[s] {
			t.Fatalf("unexpected signer in set: %s", s)
		}
		delete(want, s)
	}
	if len(want) != 0 {
		t.Fatalf("missing %d expected signers", len(want))
	}
}

// initialize rejects structurally invalid candidate sets.
func TestInitializeRejectionCascade(t *testing.T) {
	cases := []struct {
		name string
		n    int
		dup  bool
		want Code
	}{
		{"too few", 3, false, CodeMinValidatorsNotMet},
		{"too many", 20, false, CodeMaxValidatorsExceeded},
		{"duplicate", 5, true, CodeValidatorsNotUnique},
		{"empty", 0, false, CodeMinValidatorsNotMet},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l := ledger.New()
			p, _ := newProgram(t)
			payer := newKey(t).PublicKey()
			l.Fund(payer, 10_000_000)

			var candidate []solana.PublicKey
			if c.dup {
				base := pubkeys(keys(t, c.n-1))
				candidate = append(append([]solana.PublicKey{}, base...), base[0])
			} else {
				candidate = pubkeys(keys(t, c.n))
			}

			_, err := p.Initialize(l, payer, candidate)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !Is(err, c.want) {
				t.Fatalf("got error %v, want code %s", err, c.want)
			}
		})
	}
}

type fixture struct {
	t          *testing.T
	l          *ledger.Ledger
	p          *Program
	programID  solana.PublicKey
	validators []solana.PrivateKey
	mint       solana.PublicKey
	payer      solana.PublicKey
	vsAddr     solana.PublicKey
}

func setupTenValidators(t *testing.T) *fixture {
	t.Helper()
	l := ledger.New()
	p, programID := newProgram(t)
	validators := keys(t, 10)
	payer := newKey(t).PublicKey()
	l.Fund(payer, 1_000_000_000)

	if _, err := p.Initialize(l, payer, pubkeys(validators)); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	vsAddr, _, err := ValidatorSetAddress(programID)
	if err != nil {
		t.Fatalf("derive validator set address: %v", err)
	}

	mint := newKey(t).PublicKey()
	if err := l.CreateMint(mint, vsAddr, 9); err != nil {
		t.Fatalf("create mint: %v", err)
	}

	return &fixture{t: t, l: l, p: p, programID: programID, validators: validators, mint: mint, payer: payer, vsAddr: vsAddr}
}

// bridge_tokens mints to a fresh recipient ATA when quorum is met.
func TestBridgeTokensSuccess(t *testing.T) {
	f := setupTenValidators(t)
	recipient := newKey(t).PublicKey()

	msg := BridgeTokensMessage(f.mint, recipient, 1_000_000_000)
	cosigs := cosign(t, f.validators[:7], msg)

	err := f.p.BridgeTokens(f.l, BridgeTokensParams{
		Payer:     f.payer,
		Mint:      f.mint,
		Recipient: recipient,
		Amount:    1_000_000_000,
		CoSigners: cosigs,
	})
	if err != nil {
		t.Fatalf("bridge_tokens: %v", err)
	}

	ata, err := ledger.AssociatedTokenAddress(recipient, f.mint)
	if err != nil {
		t.Fatalf("derive ata: %v", err)
	}
	acc, err := f.l.GetTokenAccount(ata)
	if err != nil {
		t.Fatalf("get token account: %v", err)
	}
	if acc.Amount != 1_000_000_000 {
		t.Fatalf("recipient ATA balance = %d, want 1_000_000_000", acc.Amount)
	}
}

// bridge_tokens rejects bad quorum and a mint authority that isn't the validator set PDA.
func TestBridgeTokensQuorumFailures(t *testing.T) {
	f := setupTenValidators(t)
	recipient := newKey(t).PublicKey()
	amount := uint64(1_000_000_000)
	msg := BridgeTokensMessage(f.mint, recipient, amount)

	t.Run("non-member signer", func(t *testing.T) {
		outsider := newKey(t)
		cosigs := append(cosign(t, f.validators[:6], msg), cosign(t, []solana.PrivateKey{outsider}, msg)...)
		err := f.p.BridgeTokens(f.l, BridgeTokensParams{Payer: f.payer, Mint: f.mint, Recipient: recipient, Amount: amount, CoSigners: cosigs})
		if !Is(err, CodeInvalidSigner) {
			t.Fatalf("got %v, want InvalidSigner", err)
		}
	})

	t.Run("too few signers", func(t *testing.T) {
		cosigs := cosign(t, f.validators[:2], msg)
		err := f.p.BridgeTokens(f.l, BridgeTokensParams{Payer: f.payer, Mint: f.mint, Recipient: recipient, Amount: amount, CoSigners: cosigs})
		if !Is(err, CodeNotEnoughSigners) {
			t.Fatalf("got %v, want NotEnoughSigners", err)
		}
	})

	t.Run("mint authority not PDA", func(t *testing.T) {
		badMint := newKey(t).PublicKey()
		if err := f.l.CreateMint(badMint, newKey(t).PublicKey(), 9); err != nil {
			t.Fatalf("create mint: %v", err)
		}
		badMsg := BridgeTokensMessage(badMint, recipient, amount)
		cosigs := cosign(t, f.validators[:7], badMsg)
		err := f.p.BridgeTokens(f.l, BridgeTokensParams{Payer: f.payer, Mint: badMint, Recipient: recipient, Amount: amount, CoSigners: cosigs})
		if err != ledger.ErrMintAuthorityMismatch {
			t.Fatalf("got %v, want ledger.ErrMintAuthorityMismatch", err)
		}
	})
}

// bridge_request escrows funds and close_request releases the account afterward.
func TestOutboundRoundTrip(t *testing.T) {
	f := setupTenValidators(t)
	user := newKey(t).PublicKey()
	// the user signs bridge_request and pays its request account's rent
	f.l.Fund(user, 10_000_000)
	amount := uint64(1_000_000_000)

	bridgeMsg := BridgeTokensMessage(f.mint, user, amount)
	if err := f.p.BridgeTokens(f.l, BridgeTokensParams{
		Payer: f.payer, Mint: f.mint, Recipient: user, Amount: amount,
		CoSigners: cosign(t, f.validators[:7], bridgeMsg),
	}); err != nil {
		t.Fatalf("bridge_tokens: %v", err)
	}

	userATA, err := ledger.AssociatedTokenAddress(user, f.mint)
	if err != nil {
		t.Fatalf("derive ata: %v", err)
	}

	receiver := make([]byte, ReceiverLength)
	for i := range receiver {
		receiver[i] = byte(i)
	}

	br, err := f.p.BridgeRequest(f.l, BridgeRequestParams{
		Signer: user, SignerATA: userATA, Mint: f.mint,
		Amount: amount, Receiver: receiver, DestinationChain: 1,
	})
	if err != nil {
		t.Fatalf("bridge_request: %v", err)
	}
	if br.Sender != user || br.Amount != amount || br.DestinationChain != 1 {
		t.Fatalf("unexpected bridging request: %+v", br)
	}

	acc, err := f.l.GetTokenAccount(userATA)
	if err != nil {
		t.Fatalf("get token account: %v", err)
	}
	if acc.Amount != 0 {
		t.Fatalf("user ATA balance = %d, want 0", acc.Amount)
	}

	// a second request while one is open must fail
	if _, err := f.p.BridgeRequest(f.l, BridgeRequestParams{
		Signer: user, SignerATA: userATA, Mint: f.mint,
		Amount: 1, Receiver: receiver, DestinationChain: 1,
	}); err != ledger.ErrAccountExists {
		t.Fatalf("second bridge_request: got %v, want ledger.ErrAccountExists", err)
	}

	closeMsg := CloseRequestMessage(user)
	if err := f.p.CloseRequest(f.l, CloseRequestParams{
		Sender: user, CoSigners: cosign(t, f.validators[:7], closeMsg),
	}); err != nil {
		t.Fatalf("close_request: %v", err)
	}

	addr, _, err := BridgingRequestAddress(f.programID, user)
	if err != nil {
		t.Fatalf("derive request address: %v", err)
	}
	if _, err := f.l.ReadAccount(addr); err != ledger.ErrAccountNotFound {
		t.Fatalf("got %v, want ledger.ErrAccountNotFound after close", err)
	}
}

// validator_set_change rotates the signer list and invalidates stale co-signers.
func TestRotationStaleSigners(t *testing.T) {
	f := setupTenValidators(t)
	newSet := append(append([]solana.PrivateKey{}, f.validators[5:10]...), keys(t, 5)...)

	rotateMsg := ValidatorSetChangeMessage(pubkeys(newSet))
	if _, err := f.p.ValidatorSetChange(f.l, ValidatorSetChangeParams{
		NewSigners: pubkeys(newSet),
		CoSigners:  cosign(t, f.validators[:7], rotateMsg),
		RentPayer:  f.payer,
	}); err != nil {
		t.Fatalf("validator_set_change: %v", err)
	}

	recipient := newKey(t).PublicKey()
	amount := uint64(42)
	msg := BridgeTokensMessage(f.mint, recipient, amount)

	// old signers V0..V6 are no longer members
	err := f.p.BridgeTokens(f.l, BridgeTokensParams{
		Payer: f.payer, Mint: f.mint, Recipient: recipient, Amount: amount,
		CoSigners: cosign(t, f.validators[:7], msg),
	})
	if !Is(err, CodeInvalidSigner) {
		t.Fatalf("stale signers: got %v, want InvalidSigner", err)
	}

	// new signers V5..V11 (first 7 of newSet) succeed
	err = f.p.BridgeTokens(f.l, BridgeTokensParams{
		Payer: f.payer, Mint: f.mint, Recipient: recipient, Amount: amount,
		CoSigners: cosign(t, newSet[:7], msg),
	})
	if err != nil {
		t.Fatalf("new signers: %v", err)
	}
}

// validator_set_change rejects bad new sets and bad current-set quorum.
func TestValidatorSetChangeRejections(t *testing.T) {
	t.Run("too few new validators", func(t *testing.T) {
		f := setupTenValidators(t)
		newSet := pubkeys(keys(t, 3))
		msg := ValidatorSetChangeMessage(newSet)
		_, err := f.p.ValidatorSetChange(f.l, ValidatorSetChangeParams{
			NewSigners: newSet, CoSigners: cosign(t, f.validators[:7], msg), RentPayer: f.payer,
		})
		if !Is(err, CodeMinValidatorsNotMet) {
			t.Fatalf("got %v, want MinValidatorsNotMet", err)
		}
	})

	t.Run("duplicate in new set", func(t *testing.T) {
		f := setupTenValidators(t)
		base := pubkeys(keys(t, 4))
		newSet := append(append([]solana.PublicKey{}, base...), base[0])
		msg := ValidatorSetChangeMessage(newSet)
		_, err := f.p.ValidatorSetChange(f.l, ValidatorSetChangeParams{
			NewSigners: newSet, CoSigners: cosign(t, f.validators[:7], msg), RentPayer: f.payer,
		})
		if !Is(err, CodeValidatorsNotUnique) {
			t.Fatalf("got %v, want ValidatorsNotUnique", err)
		}
	})

	t.Run("too few current co-signers", func(t *testing.T) {
		f := setupTenValidators(t)
		newSet := pubkeys(keys(t, 5))
		msg := ValidatorSetChangeMessage(newSet)
		_, err := f.p.ValidatorSetChange(f.l, ValidatorSetChangeParams{
			NewSigners: newSet, CoSigners: cosign(t, f.validators[:2], msg), RentPayer: f.payer,
		})
		if !Is(err, CodeNotEnoughSigners) {
			t.Fatalf("got %v, want NotEnoughSigners", err)
		}
	})

	t.Run("current co-signer not a member", func(t *testing.T) {
		f := setupTenValidators(t)
		newSet := pubkeys(keys(t, 5))
		msg := ValidatorSetChangeMessage(newSet)
		outsider := newKey(t)
		cosigs := append(cosign(t, f.validators[:6], msg), cosign(t, []solana.PrivateKey{outsider}, msg)...)
		_, err := f.p.ValidatorSetChange(f.l, ValidatorSetChangeParams{
			NewSigners: newSet, CoSigners: cosigs, RentPayer: f.payer,
		})
		if !Is(err, CodeInvalidSigner) {
			t.Fatalf("got %v, want InvalidSigner", err)
		}
	})
}
