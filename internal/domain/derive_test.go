package domain

import (
	"errors"
	"math/big"
	"testing"
)

func TestEndDate(t *testing.T) {
	got, err := EndDate("1000", 10)
	if err != nil {
		t.Fatalf("EndDate: %v", err)
	}
	if got != 1140 {
		t.Errorf("EndDate(1000, 10) = %d, want 1140", got)
	}
}

func TestEndDate_ZeroDuration(t *testing.T) {
	got, err := EndDate("1700000000", 0)
	if err != nil {
		t.Fatalf("EndDate: %v", err)
	}
	if got != 1700000000 {
		t.Errorf("EndDate = %d, want 1700000000", got)
	}
}

func TestEndDate_MalformedTimestamp(t *testing.T) {
	for _, s := range []string{"", "abc", "10.5", "0x10"} {
		_, err := EndDate(s, 1)
		if !errors.Is(err, ErrMalformedTimestamp) {
			t.Errorf("EndDate(%q): expected ErrMalformedTimestamp, got %v", s, err)
		}
	}
}

func TestBidDelta(t *testing.T) {
	delta, err := BidDelta(big.NewInt(100), big.NewInt(30))
	if err != nil {
		t.Fatalf("BidDelta: %v", err)
	}
	if delta.Cmp(big.NewInt(70)) != 0 {
		t.Errorf("BidDelta(100, 30) = %s, want 70", delta)
	}
}

func TestBidDelta_NilEscrowed(t *testing.T) {
	delta, err := BidDelta(big.NewInt(50), nil)
	if err != nil {
		t.Fatalf("BidDelta: %v", err)
	}
	if delta.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("BidDelta(50, nil) = %s, want 50", delta)
	}
}

func TestBidDelta_Insufficient(t *testing.T) {
	// Negative and zero deltas must never turn into a transaction value.
	_, err := BidDelta(big.NewInt(50), big.NewInt(80))
	if !errors.Is(err, ErrInsufficientNewBid) {
		t.Errorf("BidDelta(50, 80): expected ErrInsufficientNewBid, got %v", err)
	}

	_, err = BidDelta(big.NewInt(80), big.NewInt(80))
	if !errors.Is(err, ErrInsufficientNewBid) {
		t.Errorf("BidDelta(80, 80): expected ErrInsufficientNewBid, got %v", err)
	}

	_, err = BidDelta(nil, big.NewInt(1))
	if !errors.Is(err, ErrInsufficientNewBid) {
		t.Errorf("BidDelta(nil, 1): expected ErrInsufficientNewBid, got %v", err)
	}
}

func TestBidDelta_DoesNotMutateInputs(t *testing.T) {
	target := big.NewInt(100)
	escrowed := big.NewInt(30)
	if _, err := BidDelta(target, escrowed); err != nil {
		t.Fatalf("BidDelta: %v", err)
	}
	if target.Cmp(big.NewInt(100)) != 0 || escrowed.Cmp(big.NewInt(30)) != 0 {
		t.Errorf("inputs mutated: target=%s escrowed=%s", target, escrowed)
	}
}

func TestFormatWei(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	if got := FormatWei(wei); got != "1.5 ETH" {
		t.Errorf("FormatWei = %q, want %q", got, "1.5 ETH")
	}
	if got := FormatWei(nil); got != "0 ETH" {
		t.Errorf("FormatWei(nil) = %q, want %q", got, "0 ETH")
	}
}
