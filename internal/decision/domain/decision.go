// Package domain 自动授信决策领域模型
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome 授信决策结果
type Outcome string

const (
	OutcomeApproved            Outcome = "approved"
	OutcomeConditionalApproval Outcome = "conditional_approval"
	OutcomeDenied              Outcome = "denied"
	OutcomePendingReview       Outcome = "pending_review"
)

// RiskTier 风险等级
type RiskTier string

const (
	RiskMinimal  RiskTier = "minimal"   // 0-15
	RiskLow      RiskTier = "low"       // 15-30
	RiskModerate RiskTier = "moderate"  // 30-50
	RiskHigh     RiskTier = "high"      // 50-75
	RiskVeryHigh RiskTier = "very_high" // 75+
)

// LoanRequest 借款申请，携带评分阶段产出的钱包画像快照
type LoanRequest struct {
	RequestID            string          `json:"request_id"`
	WalletAddress        string          `json:"wallet_address"`
	CollateralAmount     decimal.Decimal `json:"collateral_amount"` // Exen 代币数量
	BorrowAmountUSD      decimal.Decimal `json:"borrow_amount_usd"`
	CollateralTokenPrice decimal.Decimal `json:"collateral_token_price"`
	CreditScore          decimal.Decimal `json:"credit_score"`
	CreditRating         string          `json:"credit_rating"`
	TotalInflow          decimal.Decimal `json:"total_inflow"`
	TotalOutflow         decimal.Decimal `json:"total_outflow"`
	NetFlow              decimal.Decimal `json:"net_flow"`
	CurrentBalance       decimal.Decimal `json:"current_balance"`
	SuccessRate          decimal.Decimal `json:"success_rate"`
	TransactionCount     int             `json:"transaction_count"`
	AvgInflow            decimal.Decimal `json:"avg_inflow"`
	RequestedAt          time.Time       `json:"requested_at"`
}

// RiskAssessment 四维风险评估，各维度 0-100，越低越好
type RiskAssessment struct {
	CollateralRisk   decimal.Decimal `json:"collateral_risk"`
	CreditRisk       decimal.Decimal `json:"credit_risk"`
	LiquidityRisk    decimal.Decimal `json:"liquidity_risk"`
	BehavioralRisk   decimal.Decimal `json:"behavioral_risk"`
	OverallRiskScore decimal.Decimal `json:"overall_risk_score"`
	RiskTier         RiskTier        `json:"risk_tier"`
	KeyRiskFactors   []string        `json:"key_risk_factors,omitempty"`
}

// LoanTerms 拟议贷款条款
type LoanTerms struct {
	LoanAmount           decimal.Decimal `json:"loan_amount"` // USD
	InterestRate         decimal.Decimal `json:"interest_rate"`
	LTVRatio             decimal.Decimal `json:"ltv_ratio"`
	CollateralRequired   decimal.Decimal `json:"collateral_required"`
	LiquidationThreshold decimal.Decimal `json:"liquidation_threshold"` // 健康因子阈值
	RepaymentPeriodDays  int             `json:"repayment_period_days"`
	MonthlyPayment       decimal.Decimal `json:"monthly_payment"`
	TotalInterest        decimal.Decimal `json:"total_interest"`
}

// LoanDecision 最终授信决策。创建后不可变，只追加到决策日志
type LoanDecision struct {
	DecisionID           string          `json:"decision_id"`
	RequestID            string          `json:"request_id"`
	WalletAddress        string          `json:"wallet_address"`
	Outcome              Outcome         `json:"outcome"`
	DecidedAt            time.Time       `json:"decided_at"`
	RiskAssessment       RiskAssessment  `json:"risk_assessment"`
	ProposedTerms        *LoanTerms      `json:"proposed_terms,omitempty"` // Denied 时为空
	ApprovalReason       string          `json:"approval_reason,omitempty"`
	DenialReason         string          `json:"denial_reason,omitempty"`
	Conditions           []string        `json:"conditions,omitempty"`
	CollateralRequired   decimal.Decimal `json:"collateral_required"`
	MaxLTV               decimal.Decimal `json:"max_ltv"`
	ConfidenceScore      decimal.Decimal `json:"confidence_score"`
	ManualReviewRequired bool            `json:"manual_review_required"`
	ManualReviewReason   string          `json:"manual_review_reason,omitempty"`
}

// Config 决策引擎阈值配置
type Config struct {
	BaseLTV         decimal.Decimal
	MinCreditScore  decimal.Decimal
	MinTransactions int
	MinSuccessRate  decimal.Decimal
	MaxLoanUSD      decimal.Decimal
	MinLoanUSD      decimal.Decimal
}

// DefaultConfig 默认阈值
func DefaultConfig() Config {
	return Config{
		BaseLTV:         decimal.NewFromInt(60),
		MinCreditScore:  decimal.NewFromInt(400),
		MinTransactions: 3,
		MinSuccessRate:  decimal.NewFromInt(80),
		MaxLoanUSD:      decimal.NewFromInt(500000),
		MinLoanUSD:      decimal.NewFromInt(100),
	}
}
