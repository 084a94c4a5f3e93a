// Package ledger emulates the base-chain runtime primitives the bridge core
// consumes but never reimplements: account storage, rent accounting, and the
// SPL-token-style contract (mints, associated token accounts, mint-to/burn).
//
// It stands in for the host ledger so internal/bridge's instruction handlers
// have something to mutate and internal/bridge's tests have something to
// assert against.
package ledger

import (
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Solana's real rent-exemption constants: two years of storage at 3,480
// lamports per byte-year, plus a 128-byte per-account overhead.
const (
	lamportsPerByteYear = 3480
	rentExemptionYears  = 2
	accountOverheadSize = 128
)

// RentExemptMinimum returns the lamport balance an account of dataLen bytes
// must carry to be rent-exempt.
func RentExemptMinimum(dataLen int) uint64 {
	return uint64(dataLen+accountOverheadSize) * lamportsPerByteYear * rentExemptionYears
}

var (
	ErrAccountNotFound      = errors.New("ledger: account not found")
	ErrAccountExists        = errors.New("ledger: account already initialized")
	ErrInsufficientLamports = errors.New("ledger: insufficient lamports")
)

// programAccount is a generic program-owned account: an owner program ID plus
// an opaque, serialized data payload. ValidatorSet and BridgingRequest are
// stored here in their wire-encoded form, mirroring how the real runtime
// only ever sees account bytes.
type programAccount struct {
	owner solana.PublicKey
	data  []byte
}

// Ledger is an in-memory account store standing in for the base-chain
// runtime. It is safe for concurrent use; the real runtime serializes
// conflicting transactions, we serialize with a mutex instead.
type Ledger struct {
	mu       sync.Mutex
	lamports map[solana.PublicKey]uint64
	accounts map[solana.PublicKey]*programAccount
	mints    map[solana.PublicKey]*Mint
	tokens   map[solana.PublicKey]*TokenAccount
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		lamports: make(map[solana.PublicKey]uint64),
		accounts: make(map[solana.PublicKey]*programAccount),
		mints:    make(map[solana.PublicKey]*Mint),
		tokens:   make(map[solana.PublicKey]*TokenAccount),
	}
}

// Fund credits an address with lamports, as if it had received a transfer
// from the test harness's faucet. Used to seed payers/signers in tests.
func (l *Ledger) Fund(addr solana.PublicKey, lamports uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lamports[addr] += lamports
}

// Balance returns the lamport balance of addr.
func (l *Ledger) Balance(addr solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lamports[addr]
}

func (l *Ledger) debit(addr solana.PublicKey, amount uint64) error {
	if l.lamports[addr] < amount {
		return ErrInsufficientLamports
	}
	l.lamports[addr] -= amount
	return nil
}

func (l *Ledger) credit(addr solana.PublicKey, amount uint64) {
	l.lamports[addr] += amount
}

// CreateAccount allocates a program-owned account at addr, debiting the
// rent-exempt minimum for len(data) bytes from payer. Fails with
// ErrAccountExists if addr is already allocated (first-writer-wins, matching
// the runtime's own account-already-initialized semantics).
func (l *Ledger) CreateAccount(addr, owner, payer solana.PublicKey, data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[addr]; ok {
		return ErrAccountExists
	}

	rent := RentExemptMinimum(len(data))
	if err := l.debit(payer, rent); err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	l.accounts[addr] = &programAccount{owner: owner, data: buf}
	return nil
}

// AccountExists reports whether a program account has been allocated at addr.
func (l *Ledger) AccountExists(addr solana.PublicKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[addr]
	return ok
}

// ReadAccount returns the raw bytes stored at addr.
func (l *Ledger) ReadAccount(addr solana.PublicKey) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	acc, ok := l.accounts[addr]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := make([]byte, len(acc.data))
	copy(out, acc.data)
	return out, nil
}

// WriteAccount replaces the bytes stored at addr. If newData is a different
// length than the account's current size, the rent difference is settled
// against payer (debited on growth) or refunded to refundee (on shrink),
// mirroring a Solana account realloc.
func (l *Ledger) WriteAccount(addr, payer, refundee solana.PublicKey, newData []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}

	oldRent := RentExemptMinimum(len(acc.data))
	newRent := RentExemptMinimum(len(newData))

	switch {
	case newRent > oldRent:
		if err := l.debit(payer, newRent-oldRent); err != nil {
			return err
		}
	case newRent < oldRent:
		l.credit(refundee, oldRent-newRent)
	}

	buf := make([]byte, len(newData))
	copy(buf, newData)
	acc.data = buf
	return nil
}

// CloseAccount deallocates addr and refunds its rent lamports to refundee.
func (l *Ledger) CloseAccount(addr, refundee solana.PublicKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return ErrAccountNotFound
	}

	rent := RentExemptMinimum(len(acc.data))
	l.credit(refundee, rent)
	delete(l.accounts, addr)
	return nil
}
