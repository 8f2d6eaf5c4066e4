package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Engine 自动授信决策引擎。引擎本身无状态，决策日志由应用层维护
type Engine struct {
	cfg Config
}

// NewEngine 创建决策引擎
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// AssessCollateralRisk 抵押风险：LTV 越高风险越高
func (e *Engine) AssessCollateralRisk(req LoanRequest) decimal.Decimal {
	collateralValue := req.CollateralAmount.Mul(req.CollateralTokenPrice)
	if collateralValue.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(100)
	}

	ltv := req.BorrowAmountUSD.Div(collateralValue).Mul(decimal.NewFromInt(100))

	switch {
	case ltv.LessThanOrEqual(decimal.NewFromInt(30)):
		return decimal.NewFromInt(5)
	case ltv.LessThanOrEqual(decimal.NewFromInt(50)):
		return decimal.NewFromInt(15)
	case ltv.LessThanOrEqual(decimal.NewFromInt(60)):
		return decimal.NewFromInt(25)
	case ltv.LessThanOrEqual(decimal.NewFromInt(75)):
		return decimal.NewFromInt(50)
	default:
		return decimal.NewFromInt(80)
	}
}

// AssessCreditRisk 信用风险：信用评分直接映射
func (e *Engine) AssessCreditRisk(req LoanRequest) decimal.Decimal {
	switch {
	case req.CreditScore.GreaterThanOrEqual(decimal.NewFromInt(750)):
		return decimal.NewFromInt(5)
	case req.CreditScore.GreaterThanOrEqual(decimal.NewFromInt(650)):
		return decimal.NewFromInt(15)
	case req.CreditScore.GreaterThanOrEqual(decimal.NewFromInt(550)):
		return decimal.NewFromInt(30)
	case req.CreditScore.GreaterThanOrEqual(decimal.NewFromInt(450)):
		return decimal.NewFromInt(60)
	default:
		return decimal.NewFromInt(85)
	}
}

// AssessLiquidityRisk 流动性风险：余额对月度支出估算的覆盖倍数
func (e *Engine) AssessLiquidityRisk(req LoanRequest) decimal.Decimal {
	// 月度支出按平均流入的 80% 估算
	estimatedMonthlyOutflow := req.AvgInflow.Mul(decimal.NewFromFloat(0.8))

	var coverage decimal.Decimal
	if estimatedMonthlyOutflow.IsZero() {
		coverage = decimal.NewFromInt(100)
	} else {
		coverage = req.CurrentBalance.Div(estimatedMonthlyOutflow)
	}

	switch {
	case coverage.GreaterThanOrEqual(decimal.NewFromInt(6)):
		return decimal.NewFromInt(10)
	case coverage.GreaterThanOrEqual(decimal.NewFromInt(3)):
		return decimal.NewFromInt(20)
	case coverage.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return decimal.NewFromInt(40)
	case coverage.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return decimal.NewFromInt(65)
	default:
		return decimal.NewFromInt(90)
	}
}

// AssessBehavioralRisk 行为风险：交易频次、成功率、现金流稳定性累加，封顶 100
func (e *Engine) AssessBehavioralRisk(req LoanRequest) decimal.Decimal {
	risk := decimal.Zero

	switch {
	case req.TransactionCount < 5:
		risk = risk.Add(decimal.NewFromInt(20))
	case req.TransactionCount < 20:
		risk = risk.Add(decimal.NewFromInt(10))
	case req.TransactionCount < 50:
		risk = risk.Add(decimal.NewFromInt(5))
	}

	if req.SuccessRate.LessThan(e.cfg.MinSuccessRate) {
		risk = risk.Add(decimal.NewFromInt(25))
	} else if req.SuccessRate.LessThan(decimal.NewFromInt(95)) {
		risk = risk.Add(decimal.NewFromInt(10))
	}

	if req.NetFlow.LessThanOrEqual(decimal.Zero) {
		risk = risk.Add(decimal.NewFromInt(30))
	} else if req.NetFlow.LessThan(req.AvgInflow.Mul(decimal.NewFromFloat(0.5))) {
		risk = risk.Add(decimal.NewFromInt(15))
	}

	limit := decimal.NewFromInt(100)
	if risk.GreaterThan(limit) {
		return limit
	}
	return risk
}

// AssessRisk 完整风险评估：四维加权 0.30/0.35/0.20/0.15
func (e *Engine) AssessRisk(req LoanRequest) RiskAssessment {
	collateralRisk := e.AssessCollateralRisk(req)
	creditRisk := e.AssessCreditRisk(req)
	liquidityRisk := e.AssessLiquidityRisk(req)
	behavioralRisk := e.AssessBehavioralRisk(req)

	overall := collateralRisk.Mul(decimal.NewFromFloat(0.30)).
		Add(creditRisk.Mul(decimal.NewFromFloat(0.35))).
		Add(liquidityRisk.Mul(decimal.NewFromFloat(0.20))).
		Add(behavioralRisk.Mul(decimal.NewFromFloat(0.15))).
		Round(2)

	var tier RiskTier
	switch {
	case overall.LessThanOrEqual(decimal.NewFromInt(15)):
		tier = RiskMinimal
	case overall.LessThanOrEqual(decimal.NewFromInt(30)):
		tier = RiskLow
	case overall.LessThanOrEqual(decimal.NewFromInt(50)):
		tier = RiskModerate
	case overall.LessThanOrEqual(decimal.NewFromInt(75)):
		tier = RiskHigh
	default:
		tier = RiskVeryHigh
	}

	var factors []string
	threshold := decimal.NewFromInt(50)
	if collateralRisk.GreaterThan(threshold) {
		factors = append(factors, "High collateral risk")
	}
	if creditRisk.GreaterThan(threshold) {
		factors = append(factors, "Poor credit history")
	}
	if liquidityRisk.GreaterThan(threshold) {
		factors = append(factors, "Low cash flow coverage")
	}
	if behavioralRisk.GreaterThan(threshold) {
		factors = append(factors, "Concerning transaction patterns")
	}

	return RiskAssessment{
		CollateralRisk:   collateralRisk,
		CreditRisk:       creditRisk,
		LiquidityRisk:    liquidityRisk,
		BehavioralRisk:   behavioralRisk,
		OverallRiskScore: overall,
		RiskTier:         tier,
		KeyRiskFactors:   factors,
	}
}

// CalculateTerms 按风险等级与信用评分计算贷款条款
func (e *Engine) CalculateTerms(req LoanRequest, assessment RiskAssessment) LoanTerms {
	collateralValue := req.CollateralAmount.Mul(req.CollateralTokenPrice)

	var ltv, interestRate decimal.Decimal
	switch assessment.RiskTier {
	case RiskMinimal:
		ltv = e.cfg.BaseLTV
		interestRate = decimal.NewFromFloat(8.0)
	case RiskLow:
		ltv = e.cfg.BaseLTV
		interestRate = decimal.NewFromFloat(10.0)
	case RiskModerate:
		ltv = e.cfg.BaseLTV.Mul(decimal.NewFromFloat(0.9))
		interestRate = decimal.NewFromFloat(12.0)
	case RiskHigh:
		ltv = e.cfg.BaseLTV.Mul(decimal.NewFromFloat(0.7))
		interestRate = decimal.NewFromFloat(15.0)
	default:
		ltv = e.cfg.BaseLTV.Mul(decimal.NewFromFloat(0.5))
		interestRate = decimal.NewFromFloat(18.0)
	}

	// 信用评分越高利率折扣越大，最高 40%
	creditFactor := req.CreditScore.Sub(decimal.NewFromInt(300)).Div(decimal.NewFromInt(550))
	interestRate = interestRate.Mul(decimal.NewFromInt(1).Sub(creditFactor.Mul(decimal.NewFromFloat(0.4))))

	if interestRate.LessThan(decimal.NewFromFloat(5.0)) {
		interestRate = decimal.NewFromFloat(5.0)
	}
	if interestRate.GreaterThan(decimal.NewFromFloat(18.0)) {
		interestRate = decimal.NewFromFloat(18.0)
	}

	maxLoan := collateralValue.Mul(ltv).Div(decimal.NewFromInt(100))
	loanAmount := req.BorrowAmountUSD
	if loanAmount.GreaterThan(maxLoan) {
		loanAmount = maxLoan
	}

	const repaymentDays = 180
	annualInterest := loanAmount.Mul(interestRate).Div(decimal.NewFromInt(100))
	totalInterest := annualInterest.Mul(decimal.NewFromInt(repaymentDays)).Div(decimal.NewFromInt(365))
	monthlyPayment := loanAmount.Add(totalInterest).Div(decimal.NewFromInt(6))

	return LoanTerms{
		LoanAmount:           loanAmount.Round(2),
		InterestRate:         interestRate.Round(2),
		LTVRatio:             ltv.Round(2),
		CollateralRequired:   req.CollateralAmount,
		LiquidationThreshold: decimal.NewFromFloat(1.0),
		RepaymentPeriodDays:  repaymentDays,
		MonthlyPayment:       monthlyPayment.Round(2),
		TotalInterest:        totalInterest.Round(2),
	}
}

// Decide 做出授信决策。前置闸门逐一检查，全部通过才进入完整评估
func (e *Engine) Decide(decisionID string, req LoanRequest) LoanDecision {
	now := time.Now()

	if req.CreditScore.LessThan(e.cfg.MinCreditScore) {
		return LoanDecision{
			DecisionID:    decisionID,
			RequestID:     req.RequestID,
			WalletAddress: req.WalletAddress,
			Outcome:       OutcomeDenied,
			DecidedAt:     now,
			RiskAssessment: RiskAssessment{
				CreditRisk:       decimal.NewFromInt(100),
				OverallRiskScore: decimal.NewFromInt(100),
				RiskTier:         RiskVeryHigh,
			},
			DenialReason: fmt.Sprintf("Credit score %s below minimum %s",
				req.CreditScore, e.cfg.MinCreditScore),
			ConfidenceScore: decimal.NewFromInt(99),
		}
	}

	if req.TransactionCount < e.cfg.MinTransactions {
		return LoanDecision{
			DecisionID:    decisionID,
			RequestID:     req.RequestID,
			WalletAddress: req.WalletAddress,
			Outcome:       OutcomePendingReview,
			DecidedAt:     now,
			RiskAssessment: RiskAssessment{
				BehavioralRisk:   decimal.NewFromInt(80),
				OverallRiskScore: decimal.NewFromInt(80),
				RiskTier:         RiskHigh,
				KeyRiskFactors:   []string{"Insufficient transaction history"},
			},
			ConfidenceScore:      decimal.NewFromInt(40),
			ManualReviewRequired: true,
			ManualReviewReason:   "Insufficient on-chain history for auto approval",
		}
	}

	if req.BorrowAmountUSD.GreaterThan(e.cfg.MaxLoanUSD) {
		return LoanDecision{
			DecisionID:     decisionID,
			RequestID:      req.RequestID,
			WalletAddress:  req.WalletAddress,
			Outcome:        OutcomeDenied,
			DecidedAt:      now,
			RiskAssessment: RiskAssessment{RiskTier: RiskMinimal},
			DenialReason: fmt.Sprintf("Loan amount exceeds maximum %s",
				e.cfg.MaxLoanUSD),
			ConfidenceScore: decimal.NewFromInt(99),
		}
	}

	if req.BorrowAmountUSD.LessThan(e.cfg.MinLoanUSD) {
		return LoanDecision{
			DecisionID:     decisionID,
			RequestID:      req.RequestID,
			WalletAddress:  req.WalletAddress,
			Outcome:        OutcomeDenied,
			DecidedAt:      now,
			RiskAssessment: RiskAssessment{RiskTier: RiskMinimal},
			DenialReason: fmt.Sprintf("Loan amount below minimum %s",
				e.cfg.MinLoanUSD),
			ConfidenceScore: decimal.NewFromInt(99),
		}
	}

	assessment := e.AssessRisk(req)
	terms := e.CalculateTerms(req, assessment)

	decision := LoanDecision{
		DecisionID:         decisionID,
		RequestID:          req.RequestID,
		WalletAddress:      req.WalletAddress,
		DecidedAt:          now,
		RiskAssessment:     assessment,
		CollateralRequired: req.CollateralAmount,
		MaxLTV:             terms.LTVRatio,
	}

	switch {
	case assessment.OverallRiskScore.LessThanOrEqual(decimal.NewFromInt(15)):
		decision.Outcome = OutcomeApproved
		decision.ApprovalReason = "Minimal risk profile. Excellent credit history and collateral coverage."
		decision.ConfidenceScore = decimal.NewFromInt(95)
		decision.ProposedTerms = &terms

	case assessment.OverallRiskScore.LessThanOrEqual(decimal.NewFromInt(30)):
		decision.Outcome = OutcomeApproved
		decision.ApprovalReason = "Low risk profile. Good credit score and adequate collateral."
		decision.ConfidenceScore = decimal.NewFromInt(90)
		decision.ProposedTerms = &terms

	case assessment.OverallRiskScore.LessThanOrEqual(decimal.NewFromInt(50)):
		decision.Outcome = OutcomeConditionalApproval
		decision.ApprovalReason = "Moderate risk accepted with conditions."
		decision.Conditions = []string{
			"Higher interest rate applied",
			"Reduced LTV ratio",
			"Monthly collateral health check required",
		}
		decision.ConfidenceScore = decimal.NewFromInt(75)
		decision.ProposedTerms = &terms

	case assessment.OverallRiskScore.LessThanOrEqual(decimal.NewFromInt(75)):
		decision.Outcome = OutcomePendingReview
		decision.ManualReviewRequired = true
		decision.ManualReviewReason = "Elevated risk requires manual underwriting"
		decision.ConfidenceScore = decimal.NewFromInt(45)
		decision.ProposedTerms = &terms

	default:
		decision.Outcome = OutcomeDenied
		decision.DenialReason = fmt.Sprintf("Overall risk score %s exceeds approval threshold. Risk factors: %s",
			assessment.OverallRiskScore, strings.Join(assessment.KeyRiskFactors, ", "))
		decision.ConfidenceScore = decimal.NewFromInt(90)
	}

	return decision
}
