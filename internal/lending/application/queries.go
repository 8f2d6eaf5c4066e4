package application

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/lending/domain"
)

// 快照查询的金额字段一律字符串化，跨进程边界不丢精度

// LoanDetails 贷款明细快照
type LoanDetails struct {
	LoanID           string `json:"loan_id"`
	Status           string `json:"status"`
	Borrower         string `json:"borrower"`
	LoanAmount       string `json:"loan_amount"`
	InterestRate     string `json:"interest_rate"`
	CollateralAmount string `json:"collateral_amount"`
	CollateralValue  string `json:"collateral_value"`
	LTVRatio         string `json:"ltv_ratio"`
	Originated       string `json:"originated"`
	DueDate          string `json:"due_date"`
	BorrowedReceived string `json:"borrowed_received"`
	Repaid           string `json:"repaid"`
	AccruedInterest  string `json:"accrued_interest"`
}

// DepositSnapshot 托管入金快照
type DepositSnapshot struct {
	LoanID      string `json:"loan_id"`
	ExenAmount  string `json:"exen_amount"`
	ValueUSD    string `json:"value_usd"`
	Status      string `json:"status"`
	LockedUntil string `json:"locked_until"`
}

// EscrowSnapshot 托管金库快照
type EscrowSnapshot struct {
	VaultID        string                     `json:"vault_id"`
	Status         string                     `json:"status"`
	TotalLocked    string                     `json:"total_collateral_locked"`
	ActiveDeposits int                        `json:"active_deposits"`
	Deposits       map[string]DepositSnapshot `json:"deposits"`
}

// PoolSnapshot 资金池快照
type PoolSnapshot struct {
	Balance            string `json:"lending_pool_balance"`
	TotalDisbursed     string `json:"total_disbursed"`
	ActiveLoans        int    `json:"active_loans"`
	CompletedLoans     int    `json:"completed_loans"`
	TransfersProcessed int    `json:"transfers_processed"`
}

// GetLoanDetails 查询贷款明细
func (s *LoanLedgerService) GetLoanDetails(ctx context.Context, loanID string) (LoanDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return LoanDetails{}, err
	}

	return LoanDetails{
		LoanID:           loan.LoanID,
		Status:           string(loan.Status),
		Borrower:         loan.WalletAddress,
		LoanAmount:       loan.LoanAmountUSD.String(),
		InterestRate:     loan.InterestRate.String(),
		CollateralAmount: loan.CollateralAmountExen.String(),
		CollateralValue:  loan.CollateralAmountExen.Mul(loan.CollateralPriceUSD).String(),
		LTVRatio:         loan.LTVRatio.String(),
		Originated:       loan.OriginatedAt.Format(time.RFC3339),
		DueDate:          loan.RepaymentDueDate.Format(time.RFC3339),
		BorrowedReceived: loan.BorrowedReceived.String(),
		Repaid:           loan.RepaidAmount.String(),
		AccruedInterest:  loan.AccruedInterest.String(),
	}, nil
}

// GetEscrowStatus 查询托管金库状态
func (s *LoanLedgerService) GetEscrowStatus(ctx context.Context) EscrowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	deposits := make(map[string]DepositSnapshot, len(s.vault.Deposits))
	for id, d := range s.vault.Deposits {
		deposits[id] = DepositSnapshot{
			LoanID:      d.LoanID,
			ExenAmount:  d.ExenAmount.String(),
			ValueUSD:    d.CollateralValueUSD.String(),
			Status:      string(d.Status),
			LockedUntil: d.LockedUntil.Format(time.RFC3339),
		}
	}

	return EscrowSnapshot{
		VaultID:        s.vault.VaultID,
		Status:         string(s.vault.Status),
		TotalLocked:    s.vault.TotalLocked.String(),
		ActiveDeposits: s.vault.ActiveDeposits(),
		Deposits:       deposits,
	}
}

// GetPoolStatus 查询资金池状态
func (s *LoanLedgerService) GetPoolStatus(ctx context.Context) (PoolSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loans, err := s.loans.List(ctx)
	if err != nil {
		return PoolSnapshot{}, err
	}

	totalDisbursed := decimal.Zero
	active, completed, transfers := 0, 0, 0
	for _, loan := range loans {
		if loan.FundsTransfer != nil {
			transfers++
			if loan.FundsTransfer.Status == domain.TransferDisbursed {
				totalDisbursed = totalDisbursed.Add(loan.FundsTransfer.AmountUSD)
			}
		}
		switch {
		case loan.Status == domain.StatusCompleted:
			completed++
		case !loan.Status.IsTerminal():
			active++
		}
	}

	return PoolSnapshot{
		Balance:            s.pool.Balance.String(),
		TotalDisbursed:     totalDisbursed.String(),
		ActiveLoans:        active,
		CompletedLoans:     completed,
		TransfersProcessed: transfers,
	}, nil
}
