// Package domain 贷款台账领域模型
//
// LoanAccount 是系统的权威记录：抵押托管、放款、还款都只能按状态机
// 顺序推进，池余额与托管总额的一致性由应用层在单一互斥区内维护。
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrCollateralMismatch      = errors.New("collateral amount mismatch")
	ErrCollateralAlreadyLocked = errors.New("collateral already locked for loan")
	ErrCollateralNotDeposited  = errors.New("no collateral deposited for loan")
	ErrInvalidLoanState        = errors.New("operation not allowed in current loan state")
	ErrInsufficientPoolFunds   = errors.New("insufficient lending pool funds")
	ErrInsufficientRepayment   = errors.New("repayment amount below total owed")
	ErrDepositNotFound         = errors.New("escrow deposit not found")
	ErrInvalidAmount           = errors.New("amount must be positive")
)

// LoanStatus 贷款状态
type LoanStatus string

const (
	StatusPending          LoanStatus = "pending"
	StatusCollateralLocked LoanStatus = "collateral_locked"
	StatusFundsDisbursed   LoanStatus = "funds_disbursed"
	StatusCompleted        LoanStatus = "completed"
	StatusFailed           LoanStatus = "failed"
)

// IsTerminal 状态是否终态
func (s LoanStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// EscrowStatus 抵押品托管状态
type EscrowStatus string

const (
	EscrowEmpty                 EscrowStatus = "empty"
	EscrowLocked                EscrowStatus = "locked"
	EscrowLiquidationInProgress EscrowStatus = "liquidation_in_progress"
	EscrowReleased              EscrowStatus = "released"
)

// TransferStatus 资金划转状态
type TransferStatus string

const (
	TransferInProgress TransferStatus = "in_progress"
	TransferDisbursed  TransferStatus = "funds_disbursed"
)

// CollateralDeposit 抵押品入金记录
type CollateralDeposit struct {
	DepositID          string          `json:"deposit_id"`
	LoanID             string          `json:"loan_id"`
	WalletAddress      string          `json:"wallet_address"`
	ExenAmount         decimal.Decimal `json:"exen_amount"`
	ExenPrice          decimal.Decimal `json:"exen_price"`
	CollateralValueUSD decimal.Decimal `json:"collateral_value_usd"`
	DepositedAt        time.Time       `json:"deposited_at"`
	Status             EscrowStatus    `json:"status"`
	LockedUntil        time.Time       `json:"locked_until"`
	HealthFactor       decimal.Decimal `json:"health_factor"`
}

// NewCollateralDeposit 创建锁定状态的抵押记录。锁定期为还款期加 30 天缓冲
func NewCollateralDeposit(depositID string, loan *LoanAccount, amount, price decimal.Decimal, now time.Time) *CollateralDeposit {
	return &CollateralDeposit{
		DepositID:          depositID,
		LoanID:             loan.LoanID,
		WalletAddress:      loan.WalletAddress,
		ExenAmount:         amount,
		ExenPrice:          price,
		CollateralValueUSD: amount.Mul(price),
		DepositedAt:        now,
		Status:             EscrowLocked,
		LockedUntil:        loan.RepaymentDueDate.AddDate(0, 0, 30),
		HealthFactor:       decimal.NewFromFloat(1.5),
	}
}

// FundsTransfer 稳定币放款划转记录
type FundsTransfer struct {
	TransferID    string          `json:"transfer_id"`
	LoanID        string          `json:"loan_id"`
	FromAddress   string          `json:"from_address"`
	ToAddress     string          `json:"to_address"`
	AmountUSD     decimal.Decimal `json:"amount_usd"`
	TransferredAt time.Time       `json:"transferred_at"`
	Status        TransferStatus  `json:"status"`
	TxHash        string          `json:"tx_hash"`
}

// NewFundsTransfer 创建划转记录并生成确定性的模拟交易哈希
func NewFundsTransfer(transferID, loanID, from, to string, amount decimal.Decimal, now time.Time) *FundsTransfer {
	t := &FundsTransfer{
		TransferID:    transferID,
		LoanID:        loanID,
		FromAddress:   from,
		ToAddress:     to,
		AmountUSD:     amount,
		TransferredAt: now,
		Status:        TransferInProgress,
	}
	t.TxHash = t.generateTxHash()
	t.Status = TransferDisbursed
	return t
}

// generateTxHash 以划转 ID 与时间戳拼接后做 sha256，非真实链上哈希
func (t *FundsTransfer) generateTxHash() string {
	data := t.TransferID + t.TransferredAt.Format(time.RFC3339Nano)
	sum := sha256.Sum256([]byte(data))
	return hex.EncodeToString(sum[:])
}

// LoanAccount 借款人贷款账户，状态机:
// pending -> collateral_locked -> funds_disbursed -> completed
// 任意非终态可被外部清算触发转入 failed
type LoanAccount struct {
	LoanID               string             `json:"loan_id"`
	WalletAddress        string             `json:"wallet_address"`
	LoanAmountUSD        decimal.Decimal    `json:"loan_amount_usd"`
	InterestRate         decimal.Decimal    `json:"interest_rate"`
	CollateralAmountExen decimal.Decimal    `json:"collateral_amount_exen"`
	CollateralPriceUSD   decimal.Decimal    `json:"collateral_price_usd"`
	LTVRatio             decimal.Decimal    `json:"ltv_ratio"`
	RepaymentPeriodDays  int                `json:"repayment_period_days"`
	OriginatedAt         time.Time          `json:"originated_at"`
	RepaymentDueDate     time.Time          `json:"repayment_due_date"`
	Status               LoanStatus         `json:"status"`
	CollateralDeposit    *CollateralDeposit `json:"collateral_deposit,omitempty"`
	FundsTransfer        *FundsTransfer     `json:"funds_transfer,omitempty"`
	BorrowedReceived     decimal.Decimal    `json:"borrowed_received"`
	RepaidAmount         decimal.Decimal    `json:"repaid_amount"`
	AccruedInterest      decimal.Decimal    `json:"accrued_interest"`
}

// NewLoanAccount 创建待处理状态的贷款账户
func NewLoanAccount(loanID, wallet string, amountUSD, rate, collateralExen, collateralPrice, ltv decimal.Decimal, repaymentDays int, now time.Time) *LoanAccount {
	return &LoanAccount{
		LoanID:               loanID,
		WalletAddress:        wallet,
		LoanAmountUSD:        amountUSD,
		InterestRate:         rate,
		CollateralAmountExen: collateralExen,
		CollateralPriceUSD:   collateralPrice,
		LTVRatio:             ltv,
		RepaymentPeriodDays:  repaymentDays,
		OriginatedAt:         now,
		RepaymentDueDate:     now.AddDate(0, 0, repaymentDays),
		Status:               StatusPending,
		BorrowedReceived:     decimal.Zero,
		RepaidAmount:         decimal.Zero,
		AccruedInterest:      decimal.Zero,
	}
}

// AttachCollateral 关联抵押记录并推进到 collateral_locked。
// 只允许从 pending 推进，重复入金直接拒绝
func (l *LoanAccount) AttachCollateral(deposit *CollateralDeposit) error {
	if l.Status.IsTerminal() {
		return ErrInvalidLoanState
	}
	if l.Status != StatusPending {
		return ErrCollateralAlreadyLocked
	}
	l.CollateralDeposit = deposit
	l.Status = StatusCollateralLocked
	return nil
}

// HealthFactor 当前抵押健康因子 = 抵押市值 / 本金
func (l *LoanAccount) HealthFactor(currentPrice decimal.Decimal) decimal.Decimal {
	if l.LoanAmountUSD.IsZero() {
		return decimal.Zero
	}
	return l.CollateralAmountExen.Mul(currentPrice).Div(l.LoanAmountUSD)
}

// MarkDisbursed 记录放款划转并推进到 funds_disbursed
func (l *LoanAccount) MarkDisbursed(transfer *FundsTransfer) error {
	if l.Status != StatusCollateralLocked {
		return ErrInvalidLoanState
	}
	l.FundsTransfer = transfer
	l.BorrowedReceived = transfer.AmountUSD
	l.Status = StatusFundsDisbursed
	return nil
}

// AccrueInterest 按天计算单利：本金 × 利率/100 × 天数/365
func (l *LoanAccount) AccrueInterest(now time.Time) decimal.Decimal {
	daysOutstanding := int64(now.Sub(l.OriginatedAt).Hours() / 24)
	if daysOutstanding < 0 {
		daysOutstanding = 0
	}
	return l.LoanAmountUSD.
		Mul(l.InterestRate.Div(decimal.NewFromInt(100))).
		Mul(decimal.NewFromInt(daysOutstanding).Div(decimal.NewFromInt(365)))
}

// SettleRepayment 校验还款足额后记账并转入 completed。
// 不支持部分还款，金额必须覆盖本金加应计利息
func (l *LoanAccount) SettleRepayment(amount decimal.Decimal, now time.Time) error {
	if l.Status != StatusFundsDisbursed {
		return ErrInvalidLoanState
	}

	interest := l.AccrueInterest(now)
	totalOwed := l.LoanAmountUSD.Add(interest)
	if amount.LessThan(totalOwed) {
		return ErrInsufficientRepayment
	}

	l.RepaidAmount = amount
	l.AccruedInterest = interest
	l.Status = StatusCompleted
	return nil
}

// MarkFailed 外部清算触发，任意非终态转入 failed
func (l *LoanAccount) MarkFailed() error {
	if l.Status.IsTerminal() {
		return ErrInvalidLoanState
	}
	l.Status = StatusFailed
	return nil
}
