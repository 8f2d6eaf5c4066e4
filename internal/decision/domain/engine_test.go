package domain

import (
	"strings"
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

func strongRequest(t *testing.T) LoanRequest {
	return LoanRequest{
		RequestID:            "REQ_1",
		WalletAddress:        "wallet_strong",
		CollateralAmount:     dec(t, "100000"),
		BorrowAmountUSD:      dec(t, "5000"),
		CollateralTokenPrice: dec(t, "0.10"),
		CreditScore:          dec(t, "780"),
		CreditRating:         "excellent",
		TotalInflow:          dec(t, "50000"),
		TotalOutflow:         dec(t, "20000"),
		NetFlow:              dec(t, "30000"),
		CurrentBalance:       dec(t, "100"),
		SuccessRate:          dec(t, "99.5"),
		TransactionCount:     150,
		AvgInflow:            dec(t, "500"),
		RequestedAt:          time.Now(),
	}
}

func TestDecideDeniesLowCreditScore(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	req := strongRequest(t)
	req.CreditScore = dec(t, "380")

	d := engine.Decide("DECISION_1", req)

	if d.Outcome != OutcomeDenied {
		t.Fatalf("outcome = %s, want denied", d.Outcome)
	}
	if d.ProposedTerms != nil {
		t.Error("denied decision must not carry terms")
	}
	if !d.RiskAssessment.CreditRisk.Equal(decimal.NewFromInt(100)) {
		t.Errorf("credit risk = %s, want 100", d.RiskAssessment.CreditRisk)
	}
	if d.RiskAssessment.RiskTier != RiskVeryHigh {
		t.Errorf("risk tier = %s, want very_high", d.RiskAssessment.RiskTier)
	}
	if !d.ConfidenceScore.Equal(decimal.NewFromInt(99)) {
		t.Errorf("confidence = %s, want 99", d.ConfidenceScore)
	}
	if !strings.Contains(d.DenialReason, "below minimum") {
		t.Errorf("denial reason = %q", d.DenialReason)
	}
}

func TestDecideScoreGateBeatsHistoryGate(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 既低分又几乎无历史：信用分关口先判，直接拒绝而非转人工
	req := strongRequest(t)
	req.CreditScore = dec(t, "300")
	req.TransactionCount = 1

	d := engine.Decide("DECISION_1", req)

	if d.Outcome != OutcomeDenied {
		t.Fatalf("outcome = %s, want denied", d.Outcome)
	}
	if d.ManualReviewRequired {
		t.Error("score-gate denial must not request manual review")
	}
	if !d.RiskAssessment.CreditRisk.Equal(decimal.NewFromInt(100)) {
		t.Errorf("credit risk = %s, want 100", d.RiskAssessment.CreditRisk)
	}
	if d.RiskAssessment.RiskTier != RiskVeryHigh {
		t.Errorf("risk tier = %s, want very_high", d.RiskAssessment.RiskTier)
	}
	if !d.ConfidenceScore.Equal(decimal.NewFromInt(99)) {
		t.Errorf("confidence = %s, want 99", d.ConfidenceScore)
	}
	if !strings.Contains(d.DenialReason, "below minimum") {
		t.Errorf("denial reason = %q", d.DenialReason)
	}
}

func TestDecideRoutesThinHistoryToReview(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	req := strongRequest(t)
	req.TransactionCount = 2

	d := engine.Decide("DECISION_1", req)

	if d.Outcome != OutcomePendingReview {
		t.Fatalf("outcome = %s, want pending_review", d.Outcome)
	}
	if !d.ManualReviewRequired {
		t.Error("manual review flag not set")
	}
	if !d.RiskAssessment.BehavioralRisk.Equal(decimal.NewFromInt(80)) {
		t.Errorf("behavioral risk = %s, want 80", d.RiskAssessment.BehavioralRisk)
	}
	if !d.ConfidenceScore.Equal(decimal.NewFromInt(40)) {
		t.Errorf("confidence = %s, want 40", d.ConfidenceScore)
	}
	if len(d.RiskAssessment.KeyRiskFactors) != 1 || d.RiskAssessment.KeyRiskFactors[0] != "Insufficient transaction history" {
		t.Errorf("key factors = %v", d.RiskAssessment.KeyRiskFactors)
	}
}

func TestDecideDeniesOutOfRangeAmounts(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	over := strongRequest(t)
	over.BorrowAmountUSD = dec(t, "500001")
	d := engine.Decide("DECISION_1", over)
	if d.Outcome != OutcomeDenied || !strings.Contains(d.DenialReason, "exceeds maximum") {
		t.Errorf("oversized loan: outcome=%s reason=%q", d.Outcome, d.DenialReason)
	}

	under := strongRequest(t)
	under.BorrowAmountUSD = dec(t, "99")
	d = engine.Decide("DECISION_2", under)
	if d.Outcome != OutcomeDenied || !strings.Contains(d.DenialReason, "below minimum") {
		t.Errorf("undersized loan: outcome=%s reason=%q", d.Outcome, d.DenialReason)
	}
}

func TestDecideApprovesLowRiskProfile(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 抵押 15/信用 5/流动性 90/行为 0，加权 24.25 落在低风险区间
	d := engine.Decide("DECISION_1", strongRequest(t))

	if d.Outcome != OutcomeApproved {
		t.Fatalf("outcome = %s, want approved", d.Outcome)
	}
	if !d.RiskAssessment.OverallRiskScore.Equal(dec(t, "24.25")) {
		t.Errorf("overall risk = %s, want 24.25", d.RiskAssessment.OverallRiskScore)
	}
	if d.RiskAssessment.RiskTier != RiskLow {
		t.Errorf("risk tier = %s, want low", d.RiskAssessment.RiskTier)
	}
	if !d.ConfidenceScore.Equal(decimal.NewFromInt(90)) {
		t.Errorf("confidence = %s, want 90", d.ConfidenceScore)
	}
	if d.ProposedTerms == nil {
		t.Fatal("approved decision missing terms")
	}
	if !d.ProposedTerms.LoanAmount.Equal(dec(t, "5000")) {
		t.Errorf("loan amount = %s, want 5000", d.ProposedTerms.LoanAmount)
	}
	if !d.ProposedTerms.InterestRate.Equal(dec(t, "6.51")) {
		t.Errorf("interest rate = %s, want 6.51", d.ProposedTerms.InterestRate)
	}
	if !d.ProposedTerms.TotalInterest.Equal(dec(t, "160.50")) {
		t.Errorf("total interest = %s, want 160.50", d.ProposedTerms.TotalInterest)
	}
	if !d.ProposedTerms.MonthlyPayment.Equal(dec(t, "860.08")) {
		t.Errorf("monthly payment = %s, want 860.08", d.ProposedTerms.MonthlyPayment)
	}
	if d.ProposedTerms.RepaymentPeriodDays != 180 {
		t.Errorf("repayment days = %d, want 180", d.ProposedTerms.RepaymentPeriodDays)
	}
}

func TestDecideConditionalApproval(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	req := LoanRequest{
		RequestID:            "REQ_2",
		WalletAddress:        "wallet_fair",
		CollateralAmount:     dec(t, "50000"),
		BorrowAmountUSD:      dec(t, "2000"),
		CollateralTokenPrice: dec(t, "0.10"),
		CreditScore:          dec(t, "550"),
		CreditRating:         "good",
		TotalInflow:          dec(t, "10000"),
		TotalOutflow:         dec(t, "9000"),
		NetFlow:              dec(t, "1000"),
		CurrentBalance:       dec(t, "20"),
		SuccessRate:          dec(t, "92"),
		TransactionCount:     25,
		AvgInflow:            dec(t, "200"),
		RequestedAt:          time.Now(),
	}

	d := engine.Decide("DECISION_1", req)

	if d.Outcome != OutcomeConditionalApproval {
		t.Fatalf("outcome = %s, want conditional_approval", d.Outcome)
	}
	if !d.RiskAssessment.OverallRiskScore.Equal(dec(t, "35.25")) {
		t.Errorf("overall risk = %s, want 35.25", d.RiskAssessment.OverallRiskScore)
	}
	if len(d.Conditions) != 3 {
		t.Errorf("conditions = %v, want 3 entries", d.Conditions)
	}
	if !d.ConfidenceScore.Equal(decimal.NewFromInt(75)) {
		t.Errorf("confidence = %s, want 75", d.ConfidenceScore)
	}
	// 中风险 LTV 按 0.9 折减
	if !d.ProposedTerms.LTVRatio.Equal(dec(t, "54")) {
		t.Errorf("ltv = %s, want 54", d.ProposedTerms.LTVRatio)
	}
	if !d.ProposedTerms.InterestRate.Equal(dec(t, "9.82")) {
		t.Errorf("interest rate = %s, want 9.82", d.ProposedTerms.InterestRate)
	}
}

func TestDecideDeniesHighRiskProfile(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	req := LoanRequest{
		RequestID:            "REQ_3",
		WalletAddress:        "wallet_poor",
		CollateralAmount:     dec(t, "20000"),
		BorrowAmountUSD:      dec(t, "5000"),
		CollateralTokenPrice: dec(t, "0.10"),
		CreditScore:          dec(t, "420"),
		CreditRating:         "poor",
		TotalInflow:          dec(t, "5000"),
		TotalOutflow:         dec(t, "6000"),
		NetFlow:              dec(t, "-1000"),
		CurrentBalance:       dec(t, "5"),
		SuccessRate:          dec(t, "75"),
		TransactionCount:     8,
		AvgInflow:            dec(t, "100"),
		RequestedAt:          time.Now(),
	}

	d := engine.Decide("DECISION_1", req)

	if d.Outcome != OutcomeDenied {
		t.Fatalf("outcome = %s, want denied", d.Outcome)
	}
	if !d.RiskAssessment.OverallRiskScore.Equal(dec(t, "81.5")) {
		t.Errorf("overall risk = %s, want 81.5", d.RiskAssessment.OverallRiskScore)
	}
	if d.RiskAssessment.RiskTier != RiskVeryHigh {
		t.Errorf("risk tier = %s, want very_high", d.RiskAssessment.RiskTier)
	}
	if len(d.RiskAssessment.KeyRiskFactors) != 4 {
		t.Errorf("key factors = %v, want all four", d.RiskAssessment.KeyRiskFactors)
	}
	if d.ProposedTerms != nil {
		t.Error("denied decision must not carry terms")
	}
	if !strings.Contains(d.DenialReason, "exceeds approval threshold") {
		t.Errorf("denial reason = %q", d.DenialReason)
	}
}

func TestCalculateTermsCapsLoanAtMaxLTV(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	req := strongRequest(t)
	req.BorrowAmountUSD = dec(t, "8000") // 抵押价值 10000，60% LTV 上限 6000

	assessment := engine.AssessRisk(req)
	terms := engine.CalculateTerms(req, assessment)

	if !terms.LoanAmount.Equal(dec(t, "6000")) {
		t.Errorf("loan amount = %s, want capped at 6000", terms.LoanAmount)
	}
}

func TestCalculateTermsClampsRateFloor(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	// 满分信用在最低风险档：8.0 × 0.6 = 4.8，触发 5.0 下限
	req := strongRequest(t)
	req.CreditScore = dec(t, "850")
	assessment := RiskAssessment{RiskTier: RiskMinimal}

	terms := engine.CalculateTerms(req, assessment)

	if !terms.InterestRate.Equal(dec(t, "5")) {
		t.Errorf("interest rate = %s, want floor 5", terms.InterestRate)
	}
}
