package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func newLoan(t *testing.T) *LoanAccount {
	return NewLoanAccount(
		"LOAN_1", "borrower_1",
		dec(t, "5000"), dec(t, "10.0"),
		dec(t, "100000"), dec(t, "0.10"),
		dec(t, "60"), 180,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	)
}

func TestNewLoanAccountDefaults(t *testing.T) {
	loan := newLoan(t)

	if loan.Status != StatusPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
	wantDue := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	if !loan.RepaymentDueDate.Equal(wantDue) {
		t.Errorf("due date = %s, want %s", loan.RepaymentDueDate, wantDue)
	}
	if !loan.BorrowedReceived.IsZero() || !loan.RepaidAmount.IsZero() || !loan.AccruedInterest.IsZero() {
		t.Error("new loan must start with zero balances")
	}
}

func TestAttachCollateralOnlyFromPending(t *testing.T) {
	loan := newLoan(t)
	deposit := NewCollateralDeposit("DEPOSIT_1", loan, loan.CollateralAmountExen, dec(t, "0.10"), time.Now())

	if err := loan.AttachCollateral(deposit); err != nil {
		t.Fatalf("first deposit: %v", err)
	}
	if loan.Status != StatusCollateralLocked {
		t.Errorf("status = %s, want collateral_locked", loan.Status)
	}

	if err := loan.AttachCollateral(deposit); err != ErrCollateralAlreadyLocked {
		t.Errorf("second deposit err = %v, want ErrCollateralAlreadyLocked", err)
	}
}

func TestAttachCollateralRefusesTerminalStates(t *testing.T) {
	for _, status := range []LoanStatus{StatusCompleted, StatusFailed} {
		loan := newLoan(t)
		loan.Status = status
		deposit := NewCollateralDeposit("DEPOSIT_1", loan, loan.CollateralAmountExen, dec(t, "0.10"), time.Now())

		if err := loan.AttachCollateral(deposit); err != ErrInvalidLoanState {
			t.Errorf("deposit on %s loan err = %v, want ErrInvalidLoanState", status, err)
		}
	}
}

func TestCollateralDepositLockWindow(t *testing.T) {
	loan := newLoan(t)
	deposit := NewCollateralDeposit("DEPOSIT_1", loan, loan.CollateralAmountExen, dec(t, "0.10"), time.Now())

	// 锁定期 = 到期日 + 30 天缓冲
	wantLocked := loan.RepaymentDueDate.AddDate(0, 0, 30)
	if !deposit.LockedUntil.Equal(wantLocked) {
		t.Errorf("locked until = %s, want %s", deposit.LockedUntil, wantLocked)
	}
	if !deposit.CollateralValueUSD.Equal(dec(t, "10000")) {
		t.Errorf("collateral value = %s, want 10000", deposit.CollateralValueUSD)
	}
}

func TestMarkDisbursedRequiresLockedCollateral(t *testing.T) {
	loan := newLoan(t)
	transfer := NewFundsTransfer("TRANSFER_1", loan.LoanID, "pool", loan.WalletAddress, loan.LoanAmountUSD, time.Now())

	if err := loan.MarkDisbursed(transfer); err != ErrInvalidLoanState {
		t.Fatalf("disburse from pending err = %v, want ErrInvalidLoanState", err)
	}

	deposit := NewCollateralDeposit("DEPOSIT_1", loan, loan.CollateralAmountExen, dec(t, "0.10"), time.Now())
	if err := loan.AttachCollateral(deposit); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if err := loan.MarkDisbursed(transfer); err != nil {
		t.Fatalf("disburse: %v", err)
	}

	if loan.Status != StatusFundsDisbursed {
		t.Errorf("status = %s, want funds_disbursed", loan.Status)
	}
	if !loan.BorrowedReceived.Equal(loan.LoanAmountUSD) {
		t.Errorf("borrowed received = %s, want %s", loan.BorrowedReceived, loan.LoanAmountUSD)
	}

	if err := loan.MarkDisbursed(transfer); err != ErrInvalidLoanState {
		t.Errorf("double disburse err = %v, want ErrInvalidLoanState", err)
	}
}

func TestFundsTransferHashDeterministic(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := NewFundsTransfer("TRANSFER_1", "LOAN_1", "pool", "borrower", decimal.NewFromInt(100), at)
	b := NewFundsTransfer("TRANSFER_1", "LOAN_1", "pool", "borrower", decimal.NewFromInt(100), at)

	if a.TxHash == "" || len(a.TxHash) != 64 {
		t.Fatalf("tx hash = %q, want 64 hex chars", a.TxHash)
	}
	if a.TxHash != b.TxHash {
		t.Error("same transfer id and timestamp must yield same hash")
	}

	c := NewFundsTransfer("TRANSFER_2", "LOAN_1", "pool", "borrower", decimal.NewFromInt(100), at)
	if a.TxHash == c.TxHash {
		t.Error("different transfer ids must yield different hashes")
	}
}

func TestHealthFactor(t *testing.T) {
	loan := newLoan(t)

	// 100000 × 0.10 / 5000 = 2.0
	if hf := loan.HealthFactor(dec(t, "0.10")); !hf.Equal(dec(t, "2")) {
		t.Errorf("health factor = %s, want 2", hf)
	}
	// 价格腰斩后 1.0，仍然健康
	if hf := loan.HealthFactor(dec(t, "0.05")); !hf.Equal(dec(t, "1")) {
		t.Errorf("health factor = %s, want 1", hf)
	}
	// 再跌触发清算线以下
	if hf := loan.HealthFactor(dec(t, "0.04")); !hf.LessThan(dec(t, "1")) {
		t.Errorf("health factor = %s, want < 1", hf)
	}
}

func TestAccrueInterestSimple(t *testing.T) {
	loan := newLoan(t)

	// 5000 × 10% × 73/365 = 100
	at := loan.OriginatedAt.AddDate(0, 0, 73)
	if got := loan.AccrueInterest(at); !got.Equal(dec(t, "100")) {
		t.Errorf("interest = %s, want 100", got)
	}

	// 原点当天无利息
	if got := loan.AccrueInterest(loan.OriginatedAt); !got.IsZero() {
		t.Errorf("interest at origination = %s, want 0", got)
	}
}

func TestSettleRepayment(t *testing.T) {
	loan := newLoan(t)
	deposit := NewCollateralDeposit("DEPOSIT_1", loan, loan.CollateralAmountExen, dec(t, "0.10"), time.Now())
	_ = loan.AttachCollateral(deposit)
	transfer := NewFundsTransfer("TRANSFER_1", loan.LoanID, "pool", loan.WalletAddress, loan.LoanAmountUSD, time.Now())
	_ = loan.MarkDisbursed(transfer)

	at := loan.OriginatedAt.AddDate(0, 0, 73) // 应计利息 100

	// 差一分钱拒绝
	if err := loan.SettleRepayment(dec(t, "5099.99"), at); err != ErrInsufficientRepayment {
		t.Fatalf("short repayment err = %v, want ErrInsufficientRepayment", err)
	}
	if loan.Status != StatusFundsDisbursed {
		t.Errorf("status after failed repayment = %s, want funds_disbursed", loan.Status)
	}

	// 足额还款
	if err := loan.SettleRepayment(dec(t, "5100"), at); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if loan.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", loan.Status)
	}
	if !loan.AccruedInterest.Equal(dec(t, "100")) {
		t.Errorf("accrued interest = %s, want 100", loan.AccruedInterest)
	}
}

func TestMarkFailedRefusesTerminal(t *testing.T) {
	loan := newLoan(t)

	if err := loan.MarkFailed(); err != nil {
		t.Fatalf("fail from pending: %v", err)
	}
	if loan.Status != StatusFailed {
		t.Errorf("status = %s, want failed", loan.Status)
	}
	if err := loan.MarkFailed(); err != ErrInvalidLoanState {
		t.Errorf("fail from terminal err = %v, want ErrInvalidLoanState", err)
	}
}
