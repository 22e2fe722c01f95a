package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Polarity tells which side of a balance is net positive. The single-letter
// codes are the ones stored in the database: 'A' (alacak, receivable — the
// counterparty owes the business) and 'B' (borç, payable — the business owes
// the counterparty).
type Polarity string

const (
	PolarityReceivable Polarity = "A"
	PolarityPayable    Polarity = "B"
)

func (p Polarity) Valid() bool {
	return p == PolarityReceivable || p == PolarityPayable
}

// Flip returns the opposite polarity.
func (p Polarity) Flip() Polarity {
	if p == PolarityReceivable {
		return PolarityPayable
	}
	return PolarityReceivable
}

// Convention selects which of debit/credit grows which side of a ledger.
type Convention int

const (
	// ConventionCounterparty is the cari convention: debit grows the payable
	// side, credit grows the receivable side.
	ConventionCounterparty Convention = iota
	// ConventionMirror is used by asset-like ledgers (cash register,
	// instrument portfolio): debit means value coming in.
	ConventionMirror
)

// Balance is a signed-magnitude monetary value: a non-negative decimal
// amount plus a polarity tag. The zero value is not canonical; use
// ZeroBalance.
type Balance struct {
	Amount   decimal.Decimal
	Polarity Polarity
}

// ZeroBalance is the canonical "no net position": zero amount, receivable.
func ZeroBalance() Balance {
	return Balance{Amount: decimal.Zero, Polarity: PolarityReceivable}
}

func (b Balance) signed() decimal.Decimal {
	if b.Polarity == PolarityPayable {
		return b.Amount.Neg()
	}
	return b.Amount
}

// Apply adds one debit/credit movement to the balance and re-decomposes the
// signed net into (magnitude, polarity). A net of exactly zero resolves to
// receivable, so equal-and-opposite representations cannot oscillate.
func (b Balance) Apply(debit, credit decimal.Decimal, conv Convention) Balance {
	delta := credit.Sub(debit)
	if conv == ConventionMirror {
		delta = delta.Neg()
	}

	net := b.signed().Add(delta)
	if net.IsNegative() {
		return Balance{Amount: net.Neg(), Polarity: PolarityPayable}
	}
	return Balance{Amount: net, Polarity: PolarityReceivable}
}

func (b Balance) Equal(other Balance) bool {
	return b.Polarity == other.Polarity && b.Amount.Equal(other.Amount)
}

func (b Balance) IsZero() bool {
	return b.Amount.IsZero()
}

func (b Balance) String() string {
	return fmt.Sprintf("%s %s", b.Amount.String(), string(b.Polarity))
}
