package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/treasury/domain"
)

type recordingFunder struct {
	received []decimal.Decimal
	fail     error
}

func (f *recordingFunder) AddPoolFunds(_ context.Context, amount decimal.Decimal) error {
	if f.fail != nil {
		return f.fail
	}
	f.received = append(f.received, amount)
	return nil
}

func newTestService(funder PoolFunder) *TreasuryService {
	return NewTreasuryService(funder, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestAllocateForwardsLendingShare(t *testing.T) {
	funder := &recordingFunder{}
	svc := newTestService(funder)
	ctx := context.Background()

	if _, err := svc.CollectFees(ctx, dec(t, "200")); err != nil {
		t.Fatalf("collect: %v", err)
	}

	alloc, err := svc.Allocate(ctx)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if !alloc.LendingPool.Equal(dec(t, "100")) {
		t.Errorf("lending share = %s, want 100", alloc.LendingPool)
	}
	if len(funder.received) != 1 || !funder.received[0].Equal(dec(t, "100")) {
		t.Errorf("pool funder received %v, want one credit of 100", funder.received)
	}

	status := svc.GetTreasuryStatus(ctx)
	if status.FeeAccumulator != "0" {
		t.Errorf("accumulator = %s, want 0", status.FeeAccumulator)
	}
	if status.RewardPool != "50" {
		t.Errorf("reward pool = %s, want 50", status.RewardPool)
	}
	if status.AllocationCount != 1 {
		t.Errorf("allocation count = %d, want 1", status.AllocationCount)
	}
}

func TestAllocateEmptyAccumulator(t *testing.T) {
	svc := newTestService(&recordingFunder{})
	if _, err := svc.Allocate(context.Background()); !errors.Is(err, domain.ErrNothingToAllocate) {
		t.Errorf("err = %v, want ErrNothingToAllocate", err)
	}
}

func TestAllocateFunderFailure(t *testing.T) {
	funder := &recordingFunder{fail: errors.New("pool unavailable")}
	svc := newTestService(funder)
	ctx := context.Background()

	if _, err := svc.CollectFees(ctx, dec(t, "100")); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, err := svc.Allocate(ctx); err == nil {
		t.Fatal("expected funder failure to surface")
	}
}

func TestBuybackFundsStatus(t *testing.T) {
	svc := newTestService(&recordingFunder{})
	ctx := context.Background()

	if _, err := svc.AddBuybackFunds(ctx, dec(t, "75.50")); err != nil {
		t.Fatalf("add buyback: %v", err)
	}
	status := svc.GetTreasuryStatus(ctx)
	if status.BuybackFund != "75.5" {
		t.Errorf("buyback fund = %s, want 75.5", status.BuybackFund)
	}
	if _, err := svc.AddBuybackFunds(ctx, dec(t, "-1")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative err = %v, want ErrInvalidAmount", err)
	}
}
