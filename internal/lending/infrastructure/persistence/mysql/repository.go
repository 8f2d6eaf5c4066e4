// Package mysql 贷款仓储 MySQL 实现，按配置启用替换内存存储
package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyfcoding/exenlending/internal/lending/domain"
)

// loanModel 贷款账户表，抵押与划转记录展平为可空列
type loanModel struct {
	ID                   uint            `gorm:"primaryKey;autoIncrement"`
	LoanID               string          `gorm:"uniqueIndex;size:64"`
	WalletAddress        string          `gorm:"index;size:128"`
	LoanAmountUSD        decimal.Decimal `gorm:"type:decimal(32,8)"`
	InterestRate         decimal.Decimal `gorm:"type:decimal(10,4)"`
	CollateralAmountExen decimal.Decimal `gorm:"type:decimal(32,8)"`
	CollateralPriceUSD   decimal.Decimal `gorm:"type:decimal(32,8)"`
	LTVRatio             decimal.Decimal `gorm:"type:decimal(10,4)"`
	RepaymentPeriodDays  int
	OriginatedAt         time.Time
	RepaymentDueDate     time.Time
	Status               string          `gorm:"index;size:32"`
	BorrowedReceived     decimal.Decimal `gorm:"type:decimal(32,8)"`
	RepaidAmount         decimal.Decimal `gorm:"type:decimal(32,8)"`
	AccruedInterest      decimal.Decimal `gorm:"type:decimal(32,8)"`

	DepositID          *string          `gorm:"size:64"`
	DepositExenAmount  *decimal.Decimal `gorm:"type:decimal(32,8)"`
	DepositExenPrice   *decimal.Decimal `gorm:"type:decimal(32,8)"`
	DepositValueUSD    *decimal.Decimal `gorm:"type:decimal(32,8)"`
	DepositedAt        *time.Time
	DepositStatus      *string `gorm:"size:32"`
	DepositLockedUntil *time.Time
	DepositHealth      *decimal.Decimal `gorm:"type:decimal(10,4)"`

	TransferID     *string          `gorm:"size:64"`
	TransferFrom   *string          `gorm:"size:128"`
	TransferTo     *string          `gorm:"size:128"`
	TransferAmount *decimal.Decimal `gorm:"type:decimal(32,8)"`
	TransferredAt  *time.Time
	TransferStatus *string `gorm:"size:32"`
	TransferTxHash *string `gorm:"size:128"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (loanModel) TableName() string {
	return "loan_accounts"
}

// LoanRepository MySQL 贷款仓储
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository 创建仓储并迁移表结构
func NewLoanRepository(db *gorm.DB) (*LoanRepository, error) {
	if err := db.AutoMigrate(&loanModel{}); err != nil {
		return nil, err
	}
	return &LoanRepository{db: db}, nil
}

// Save 按 loan_id upsert
func (r *LoanRepository) Save(ctx context.Context, loan *domain.LoanAccount) error {
	model := toModel(loan)

	var existing loanModel
	err := r.db.WithContext(ctx).Where("loan_id = ?", loan.LoanID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return r.db.WithContext(ctx).Create(model).Error
	case err != nil:
		return err
	default:
		model.ID = existing.ID
		model.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(model).Error
	}
}

// FindByID 按 loan_id 查找
func (r *LoanRepository) FindByID(ctx context.Context, loanID string) (*domain.LoanAccount, error) {
	var model loanModel
	err := r.db.WithContext(ctx).Where("loan_id = ?", loanID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&model), nil
}

// List 返回全部贷款账户
func (r *LoanRepository) List(ctx context.Context) ([]*domain.LoanAccount, error) {
	var models []loanModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]*domain.LoanAccount, 0, len(models))
	for i := range models {
		out = append(out, toDomain(&models[i]))
	}
	return out, nil
}

func toModel(loan *domain.LoanAccount) *loanModel {
	m := &loanModel{
		LoanID:               loan.LoanID,
		WalletAddress:        loan.WalletAddress,
		LoanAmountUSD:        loan.LoanAmountUSD,
		InterestRate:         loan.InterestRate,
		CollateralAmountExen: loan.CollateralAmountExen,
		CollateralPriceUSD:   loan.CollateralPriceUSD,
		LTVRatio:             loan.LTVRatio,
		RepaymentPeriodDays:  loan.RepaymentPeriodDays,
		OriginatedAt:         loan.OriginatedAt,
		RepaymentDueDate:     loan.RepaymentDueDate,
		Status:               string(loan.Status),
		BorrowedReceived:     loan.BorrowedReceived,
		RepaidAmount:         loan.RepaidAmount,
		AccruedInterest:      loan.AccruedInterest,
	}

	if d := loan.CollateralDeposit; d != nil {
		status := string(d.Status)
		m.DepositID = &d.DepositID
		m.DepositExenAmount = &d.ExenAmount
		m.DepositExenPrice = &d.ExenPrice
		m.DepositValueUSD = &d.CollateralValueUSD
		m.DepositedAt = &d.DepositedAt
		m.DepositStatus = &status
		m.DepositLockedUntil = &d.LockedUntil
		m.DepositHealth = &d.HealthFactor
	}

	if t := loan.FundsTransfer; t != nil {
		status := string(t.Status)
		m.TransferID = &t.TransferID
		m.TransferFrom = &t.FromAddress
		m.TransferTo = &t.ToAddress
		m.TransferAmount = &t.AmountUSD
		m.TransferredAt = &t.TransferredAt
		m.TransferStatus = &status
		m.TransferTxHash = &t.TxHash
	}

	return m
}

func toDomain(m *loanModel) *domain.LoanAccount {
	loan := &domain.LoanAccount{
		LoanID:               m.LoanID,
		WalletAddress:        m.WalletAddress,
		LoanAmountUSD:        m.LoanAmountUSD,
		InterestRate:         m.InterestRate,
		CollateralAmountExen: m.CollateralAmountExen,
		CollateralPriceUSD:   m.CollateralPriceUSD,
		LTVRatio:             m.LTVRatio,
		RepaymentPeriodDays:  m.RepaymentPeriodDays,
		OriginatedAt:         m.OriginatedAt,
		RepaymentDueDate:     m.RepaymentDueDate,
		Status:               domain.LoanStatus(m.Status),
		BorrowedReceived:     m.BorrowedReceived,
		RepaidAmount:         m.RepaidAmount,
		AccruedInterest:      m.AccruedInterest,
	}

	if m.DepositID != nil {
		loan.CollateralDeposit = &domain.CollateralDeposit{
			DepositID:          *m.DepositID,
			LoanID:             m.LoanID,
			WalletAddress:      m.WalletAddress,
			ExenAmount:         *m.DepositExenAmount,
			ExenPrice:          *m.DepositExenPrice,
			CollateralValueUSD: *m.DepositValueUSD,
			DepositedAt:        *m.DepositedAt,
			Status:             domain.EscrowStatus(*m.DepositStatus),
			LockedUntil:        *m.DepositLockedUntil,
			HealthFactor:       *m.DepositHealth,
		}
	}

	if m.TransferID != nil {
		loan.FundsTransfer = &domain.FundsTransfer{
			TransferID:    *m.TransferID,
			LoanID:        m.LoanID,
			FromAddress:   *m.TransferFrom,
			ToAddress:     *m.TransferTo,
			AmountUSD:     *m.TransferAmount,
			TransferredAt: *m.TransferredAt,
			Status:        domain.TransferStatus(*m.TransferStatus),
			TxHash:        *m.TransferTxHash,
		}
	}

	return loan
}
