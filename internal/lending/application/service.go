// Package application 贷款台账应用服务
package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/lending/domain"
	"github.com/wyfcoding/exenlending/pkg/idgen"
	"github.com/wyfcoding/exenlending/pkg/metrics"
)

// LoanLedgerService 贷款台账服务。单把互斥锁串行化所有对贷款、
// 托管金库和资金池的变更，保证跨实体不变式在每次操作后都成立
type LoanLedgerService struct {
	mu sync.Mutex

	loans     domain.LoanRepository
	vault     *domain.EscrowVault
	pool      *domain.LendingPool
	publisher domain.EventPublisher
	idgen     idgen.Generator
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// 测试注入时间源
	nowFn func() time.Time
}

// NewLoanLedgerService 创建贷款台账服务
func NewLoanLedgerService(
	loans domain.LoanRepository,
	vault *domain.EscrowVault,
	pool *domain.LendingPool,
	publisher domain.EventPublisher,
	gen idgen.Generator,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LoanLedgerService {
	return &LoanLedgerService{
		loans:     loans,
		vault:     vault,
		pool:      pool,
		publisher: publisher,
		idgen:     gen,
		metrics:   m,
		logger:    logger.With("module", "lending"),
		nowFn:     time.Now,
	}
}

// CreateLoanCmd 建立贷款账户命令
type CreateLoanCmd struct {
	WalletAddress      string
	LoanAmountUSD      decimal.Decimal
	InterestRate       decimal.Decimal
	CollateralExen     decimal.Decimal
	CollateralPriceUSD decimal.Decimal
	LTVRatio           decimal.Decimal
	RepaymentDays      int
}

// CreateLoanAccount 为已批准的借款人建立贷款账户
func (s *LoanLedgerService) CreateLoanAccount(ctx context.Context, cmd CreateLoanCmd) (*domain.LoanAccount, error) {
	if !cmd.LoanAmountUSD.IsPositive() || !cmd.CollateralExen.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	loan := domain.NewLoanAccount(
		s.idgen.Next("LOAN"),
		cmd.WalletAddress,
		cmd.LoanAmountUSD,
		cmd.InterestRate,
		cmd.CollateralExen,
		cmd.CollateralPriceUSD,
		cmd.LTVRatio,
		cmd.RepaymentDays,
		s.nowFn(),
	)

	if err := s.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	s.metrics.ActiveLoans.Inc()
	s.metrics.LoanTransitionsTotal.WithLabelValues(string(domain.StatusPending)).Inc()

	s.logger.Info("loan account created",
		"loan_id", loan.LoanID,
		"wallet", loan.WalletAddress,
		"amount_usd", loan.LoanAmountUSD.String(),
		"rate", loan.InterestRate.String(),
	)
	s.publish(ctx, domain.EventLoanCreated, loan)

	return loan, nil
}

// DepositCollateral 将抵押品存入托管金库并锁定。
// 金额必须与贷款要求完全一致，同一贷款只允许入金一次
func (s *LoanLedgerService) DepositCollateral(ctx context.Context, loanID string, amount, price decimal.Decimal) (*domain.CollateralDeposit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !amount.Equal(loan.CollateralAmountExen) {
		s.logger.Warn("collateral amount mismatch",
			"loan_id", loanID,
			"deposited", amount.String(),
			"required", loan.CollateralAmountExen.String(),
		)
		return nil, domain.ErrCollateralMismatch
	}

	deposit := domain.NewCollateralDeposit(s.idgen.Next("DEPOSIT"), loan, amount, price, s.nowFn())

	if err := loan.AttachCollateral(deposit); err != nil {
		return nil, err
	}
	s.vault.Lock(deposit)

	if err := s.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	s.syncVaultMetrics()
	s.metrics.LoanTransitionsTotal.WithLabelValues(string(domain.StatusCollateralLocked)).Inc()

	s.logger.Info("collateral deposited to escrow",
		"deposit_id", deposit.DepositID,
		"loan_id", loanID,
		"amount_exen", amount.String(),
		"value_usd", deposit.CollateralValueUSD.String(),
		"total_locked", s.vault.TotalLocked.String(),
	)
	s.publish(ctx, domain.EventCollateralLocked, loan)

	return deposit, nil
}

// VerifyCollateralHealth 只读健康检查，健康因子 = 抵押市值 / 本金，
// 低于 1.0 需要触发清算
func (s *LoanLedgerService) VerifyCollateralHealth(ctx context.Context, loanID string, currentPrice decimal.Decimal) (bool, decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return false, decimal.Zero, err
	}
	if loan.CollateralDeposit == nil {
		return false, decimal.Zero, domain.ErrCollateralNotDeposited
	}

	healthFactor := loan.HealthFactor(currentPrice)
	healthy := healthFactor.GreaterThanOrEqual(decimal.NewFromInt(1))

	if !healthy {
		s.logger.Warn("collateral health below liquidation threshold",
			"loan_id", loanID,
			"health_factor", healthFactor.StringFixed(2),
			"loan_amount", loan.LoanAmountUSD.String(),
		)
	}

	return healthy, healthFactor, nil
}

// DisburseFunds 从资金池向借款人放款。
// 抵押未锁定或池余额不足时拒绝，失败不留下任何状态变化
func (s *LoanLedgerService) DisburseFunds(ctx context.Context, loanID string) (*domain.FundsTransfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != domain.StatusCollateralLocked {
		return nil, domain.ErrInvalidLoanState
	}

	if err := s.pool.Debit(loan.LoanAmountUSD); err != nil {
		s.logger.Warn("disbursement refused",
			"loan_id", loanID,
			"pool_balance", s.pool.Balance.String(),
			"requested", loan.LoanAmountUSD.String(),
		)
		return nil, err
	}

	transfer := domain.NewFundsTransfer(
		s.idgen.Next("TRANSFER"),
		loanID,
		s.pool.Address,
		loan.WalletAddress,
		loan.LoanAmountUSD,
		s.nowFn(),
	)

	if err := loan.MarkDisbursed(transfer); err != nil {
		// 状态在上面已校验，这里只可能是并发误用；退回池资金
		s.pool.Credit(loan.LoanAmountUSD)
		return nil, err
	}

	if err := s.loans.Save(ctx, loan); err != nil {
		return nil, err
	}

	amount, _ := loan.LoanAmountUSD.Float64()
	s.metrics.DisbursedTotal.Add(amount)
	s.syncPoolMetrics()
	s.metrics.LoanTransitionsTotal.WithLabelValues(string(domain.StatusFundsDisbursed)).Inc()

	s.logger.Info("funds disbursed",
		"transfer_id", transfer.TransferID,
		"loan_id", loanID,
		"amount_usd", transfer.AmountUSD.String(),
		"tx_hash", transfer.TxHash,
		"pool_balance", s.pool.Balance.String(),
	)
	s.publish(ctx, domain.EventFundsDisbursed, loan)

	return transfer, nil
}

// CompleteLoanSetup 顺序执行入金、健康检查与放款，任一步失败即中止。
// 成功后贷款停在 funds_disbursed，最终完成只能由还款达成
func (s *LoanLedgerService) CompleteLoanSetup(ctx context.Context, loanID string, amount, price decimal.Decimal) error {
	if _, err := s.DepositCollateral(ctx, loanID, amount, price); err != nil {
		return err
	}

	healthy, healthFactor, err := s.VerifyCollateralHealth(ctx, loanID, price)
	if err != nil {
		return err
	}
	if !healthy {
		s.logger.Warn("loan setup aborted on health check",
			"loan_id", loanID, "health_factor", healthFactor.StringFixed(2))
		return domain.ErrInvalidLoanState
	}

	if _, err := s.DisburseFunds(ctx, loanID); err != nil {
		return err
	}

	s.logger.Info("loan setup workflow completed", "loan_id", loanID)
	return nil
}

// ProcessRepayment 处理足额还款：释放抵押、资金回池、贷款转入 completed
func (s *LoanLedgerService) ProcessRepayment(ctx context.Context, loanID string, amount decimal.Decimal, fromAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return err
	}

	if err := loan.SettleRepayment(amount, s.nowFn()); err != nil {
		if err == domain.ErrInsufficientRepayment {
			s.logger.Warn("repayment below total owed",
				"loan_id", loanID,
				"amount", amount.String(),
				"from", fromAddress,
			)
		}
		return err
	}

	if loan.CollateralDeposit != nil {
		if err := s.vault.Release(loan.CollateralDeposit.DepositID); err != nil {
			return err
		}
	}
	if err := s.pool.Credit(amount); err != nil {
		return err
	}

	if err := s.loans.Save(ctx, loan); err != nil {
		return err
	}

	repaid, _ := amount.Float64()
	s.metrics.RepaidTotal.Add(repaid)
	s.metrics.ActiveLoans.Dec()
	s.syncPoolMetrics()
	s.syncVaultMetrics()
	s.metrics.LoanTransitionsTotal.WithLabelValues(string(domain.StatusCompleted)).Inc()

	s.logger.Info("loan repayment processed",
		"loan_id", loanID,
		"principal", loan.LoanAmountUSD.String(),
		"interest", loan.AccruedInterest.StringFixed(2),
		"repaid", amount.String(),
		"pool_balance", s.pool.Balance.String(),
	)
	s.publish(ctx, domain.EventLoanRepaid, loan)

	return nil
}

// MarkLiquidation 外部清算触发：抵押转入清算流程，贷款转入 failed。
// 终态贷款拒绝重复清算
func (s *LoanLedgerService) MarkLiquidation(ctx context.Context, loanID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return err
	}

	if err := loan.MarkFailed(); err != nil {
		return err
	}
	if loan.CollateralDeposit != nil {
		if err := s.vault.BeginLiquidation(loan.CollateralDeposit.DepositID); err != nil {
			return err
		}
	}

	if err := s.loans.Save(ctx, loan); err != nil {
		return err
	}

	s.metrics.ActiveLoans.Dec()
	s.syncVaultMetrics()
	s.metrics.LoanTransitionsTotal.WithLabelValues(string(domain.StatusFailed)).Inc()

	s.logger.Warn("loan liquidation started",
		"loan_id", loanID,
		"wallet", loan.WalletAddress,
	)
	s.publish(ctx, domain.EventLoanLiquidation, loan)

	return nil
}

// AddPoolFunds 外部资金注入（费用分配等），简单累加
func (s *LoanLedgerService) AddPoolFunds(ctx context.Context, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pool.Credit(amount); err != nil {
		return err
	}
	s.syncPoolMetrics()

	s.logger.Info("pool funds added",
		"amount", amount.String(),
		"pool_balance", s.pool.Balance.String(),
	)
	return nil
}

func (s *LoanLedgerService) publish(ctx context.Context, eventType string, loan *domain.LoanAccount) {
	event := domain.LifecycleEvent{
		EventType: eventType,
		LoanID:    loan.LoanID,
		Wallet:    loan.WalletAddress,
		Status:    loan.Status,
		Detail:    loan,
	}
	if err := s.publisher.PublishLifecycle(ctx, event); err != nil {
		s.logger.Warn("publish lifecycle event failed",
			"event", eventType, "loan_id", loan.LoanID, "error", err)
	}
}

func (s *LoanLedgerService) syncPoolMetrics() {
	balance, _ := s.pool.Balance.Float64()
	s.metrics.PoolBalance.Set(balance)
}

func (s *LoanLedgerService) syncVaultMetrics() {
	locked, _ := s.vault.TotalLocked.Float64()
	s.metrics.EscrowLockedValue.Set(locked)
}
