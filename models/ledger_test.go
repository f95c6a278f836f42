package models_test

import (
	"math/rand"
	"testing"

	"bitbucket.org/mmdatafocus/cafe_backend/models"
	"github.com/shopspring/decimal"
)

func charge(amount int64) *models.LedgerEntry {
	return &models.LedgerEntry{Kind: models.LedgerEntryKindCharge, Amount: decimal.NewFromInt(amount)}
}

func payment(amount int64) *models.LedgerEntry {
	return &models.LedgerEntry{Kind: models.LedgerEntryKindPayment, Amount: decimal.NewFromInt(amount)}
}

func TestBalanceOf_ChargesMinusPayments(t *testing.T) {
	entries := []*models.LedgerEntry{charge(200), payment(50), charge(30), payment(80)}

	if got := models.BalanceOf(entries); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected balance=100, got %s", got)
	}
}

func TestBalanceOf_EmptyLedgerIsZero(t *testing.T) {
	if got := models.BalanceOf(nil); !got.Equal(decimal.Zero) {
		t.Fatalf("expected balance=0, got %s", got)
	}
}

func TestBalanceOf_CanGoNegative(t *testing.T) {
	// An overpaying customer is in credit with the café; the ledger keeps
	// the negative balance rather than clamping it.
	entries := []*models.LedgerEntry{charge(40), payment(100)}

	if got := models.BalanceOf(entries); !got.Equal(decimal.NewFromInt(-60)) {
		t.Fatalf("expected balance=-60, got %s", got)
	}
}

func TestBalanceOf_OrderIndependent(t *testing.T) {
	entries := []*models.LedgerEntry{charge(120), payment(30), charge(75), payment(75), charge(10)}
	want := models.BalanceOf(entries)

	rng := rand.New(rand.NewSource(1))
	for run := 0; run < 50; run++ {
		shuffled := make([]*models.LedgerEntry, len(entries))
		copy(shuffled, entries)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		if got := models.BalanceOf(shuffled); !got.Equal(want) {
			t.Fatalf("run=%d balance depends on entry order: want %s got %s", run, want, got)
		}
	}
}
