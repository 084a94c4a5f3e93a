package ledger

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// Mint and TokenAccount model the slice of the SPL-token-program contract
// the core actually touches: mint-authority-gated mint-to, owner-gated burn,
// and associated-token-account derivation/creation. These are external
// primitives the bridge program orchestrates but never reimplements; this
// package stands in for that external program within the test harness.
type Mint struct {
	MintAuthority solana.PublicKey
	Decimals      uint8
	Supply        uint64
}

type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

var (
	ErrMintNotFound           = errors.New("token: mint not found")
	ErrMintAuthorityMismatch  = errors.New("token: mint authority mismatch")
	ErrTokenAccountNotFound   = errors.New("token: account not initialized")
	ErrTokenAccountExists     = errors.New("token: account already initialized")
	ErrTokenOwnerMismatch     = errors.New("token: owner mismatch")
	ErrTokenMintMismatch      = errors.New("token: mint mismatch")
	ErrTokenInsufficientFunds = errors.New("token: insufficient funds")
)

// CreateMint registers a new mint with the given authority. Tests use this to
// stand up the wrapped-token mint and bind its authority to the ValidatorSet
// PDA before exercising bridge_tokens.
func (l *Ledger) CreateMint(addr, authority solana.PublicKey, decimals uint8) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.mints[addr]; ok {
		return ErrTokenAccountExists
	}
	l.mints[addr] = &Mint{MintAuthority: authority, Decimals: decimals}
	return nil
}

// GetMint returns a copy of the mint state at addr.
func (l *Ledger) GetMint(addr solana.PublicKey) (Mint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.mints[addr]
	if !ok {
		return Mint{}, ErrMintNotFound
	}
	return *m, nil
}

// AssociatedTokenAddress derives the canonical ATA for (owner, mint), the
// same derivation the real associated-token-account program performs.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}

// EnsureAssociatedTokenAccount returns the ATA for (owner, mint), creating it
// (rent paid by payer) if it does not already exist. Returns whether it had
// to create the account, mirroring the on-demand creation in bridge_tokens.
func (l *Ledger) EnsureAssociatedTokenAccount(payer, owner, mint solana.PublicKey) (solana.PublicKey, bool, error) {
	ata, err := AssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, false, err
	}

	l.mu.Lock()
	_, exists := l.tokens[ata]
	l.mu.Unlock()
	if exists {
		return ata, false, nil
	}

	if err := l.CreateTokenAccount(ata, payer, owner, mint); err != nil {
		return solana.PublicKey{}, false, err
	}
	return ata, true, nil
}

// CreateTokenAccount explicitly initializes a token account at addr for
// (owner, mint), debiting payer for its rent.
func (l *Ledger) CreateTokenAccount(addr, payer, owner, mint solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.tokens[addr]; ok {
		return ErrTokenAccountExists
	}

	const tokenAccountSize = 165 // SPL token account on-wire size
	if err := l.debit(payer, RentExemptMinimum(tokenAccountSize)); err != nil {
		return err
	}

	l.tokens[addr] = &TokenAccount{Mint: mint, Owner: owner}
	return nil
}

// GetTokenAccount returns a copy of the token account state at addr.
func (l *Ledger) GetTokenAccount(addr solana.PublicKey) (TokenAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ta, ok := l.tokens[addr]
	if !ok {
		return TokenAccount{}, ErrTokenAccountNotFound
	}
	return *ta, nil
}

// MintTo mints amount units of mint to destination, signed by authority.
// Fails with ErrMintAuthorityMismatch if authority does not match the mint's
// stored authority; this is a token-layer failure and bubbles up unmodified
// rather than being recast as a core validation error.
func (l *Ledger) MintTo(mintAddr, destination, authority solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mint, ok := l.mints[mintAddr]
	if !ok {
		return ErrMintNotFound
	}
	if mint.MintAuthority != authority {
		return ErrMintAuthorityMismatch
	}

	dest, ok := l.tokens[destination]
	if !ok {
		return ErrTokenAccountNotFound
	}
	if dest.Mint != mintAddr {
		return ErrTokenMintMismatch
	}

	mint.Supply += amount
	dest.Amount += amount
	return nil
}

// Burn burns amount units from the token account at addr, authorized by its
// owner. Fails with ErrTokenInsufficientFunds if the balance is short.
// Callers in internal/bridge check this ahead of time too, so this guards
// against a stale balance read rather than serving as the primary check.
func (l *Ledger) Burn(mintAddr, addr, authority solana.PublicKey, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	mint, ok := l.mints[mintAddr]
	if !ok {
		return ErrMintNotFound
	}

	acc, ok := l.tokens[addr]
	if !ok {
		return ErrTokenAccountNotFound
	}
	if acc.Mint != mintAddr {
		return ErrTokenMintMismatch
	}
	if acc.Owner != authority {
		return ErrTokenOwnerMismatch
	}
	if acc.Amount < amount {
		return ErrTokenInsufficientFunds
	}

	acc.Amount -= amount
	mint.Supply -= amount
	return nil
}
