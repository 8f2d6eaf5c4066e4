package domain

import "context"

// LifecycleEvent 贷款生命周期事件
type LifecycleEvent struct {
	EventType string       `json:"event_type"`
	LoanID    string       `json:"loan_id"`
	Wallet    string       `json:"wallet"`
	Status    LoanStatus   `json:"status"`
	Detail    *LoanAccount `json:"detail,omitempty"`
}

// 生命周期事件类型
const (
	EventLoanCreated      = "loan.created"
	EventCollateralLocked = "loan.collateral_locked"
	EventFundsDisbursed   = "loan.funds_disbursed"
	EventLoanRepaid       = "loan.repaid"
	EventLoanLiquidation  = "loan.liquidation"
)

// EventPublisher 贷款生命周期事件发布接口
type EventPublisher interface {
	PublishLifecycle(ctx context.Context, event LifecycleEvent) error
}
