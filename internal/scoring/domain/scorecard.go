// Package domain 链上信用评分领域模型
//
// 所有评分函数都是指标与原始流入序列的纯函数，评分器不持有任何
// 每次调用的中间状态，同一输入必然得到同一评分。
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	walletdomain "github.com/wyfcoding/exenlending/internal/wallet/domain"
)

// Rating 信用评级
type Rating string

const (
	RatingExcellent Rating = "excellent" // 750+
	RatingVeryGood  Rating = "very_good" // 650-749
	RatingGood      Rating = "good"      // 550-649
	RatingFair      Rating = "fair"      // 450-549
	RatingPoor      Rating = "poor"      // <450
)

// SubScores 信用子分，每项 0-20
type SubScores struct {
	TransactionVolume  decimal.Decimal `json:"transaction_volume"`
	PaymentConsistency decimal.Decimal `json:"payment_consistency"`
	InflowReliability  decimal.Decimal `json:"inflow_reliability"`
	BalanceStability   decimal.Decimal `json:"balance_stability"`
	TransactionSuccess decimal.Decimal `json:"transaction_success"`
	// AccountAge 预留项，不参与综合评分
	AccountAge decimal.Decimal `json:"account_age"`
}

// Report 钱包信用评分报告
type Report struct {
	WalletAddress     string               `json:"wallet_address"`
	CreditScore       decimal.Decimal      `json:"credit_score"`
	Rating            Rating               `json:"rating"`
	BorrowLimitUSD    decimal.Decimal      `json:"borrow_limit_usd"`
	RateAdjustment    decimal.Decimal      `json:"rate_adjustment"`
	EffectiveRate     decimal.Decimal      `json:"effective_rate"`
	Metrics           walletdomain.Metrics `json:"metrics"`
	SubScores         SubScores            `json:"sub_scores"`
	AnalysisTimestamp time.Time            `json:"analysis_timestamp"`
	Recommendation    string               `json:"recommendation"`
}

var (
	baseRate = decimal.NewFromFloat(8.0)  // 基准年化利率 %
	minRate  = decimal.NewFromFloat(5.0)  // 利率下限 %
	maxRate  = decimal.NewFromFloat(18.0) // 利率上限 %

	scoreFloor = decimal.NewFromInt(300)
	scoreSpan  = decimal.NewFromInt(550)
	scoreScale = decimal.NewFromInt(850)
)

// VolumeScore 交易量子分：总流水对照固定档位
func VolumeScore(m walletdomain.Metrics) decimal.Decimal {
	total := m.TotalInflow.Add(m.TotalOutflow)

	switch {
	case total.LessThan(decimal.NewFromInt(100)):
		return decimal.NewFromInt(2)
	case total.LessThan(decimal.NewFromInt(500)):
		return decimal.NewFromInt(5)
	case total.LessThan(decimal.NewFromInt(1000)):
		return decimal.NewFromInt(10)
	case total.LessThan(decimal.NewFromInt(5000)):
		return decimal.NewFromInt(15)
	default:
		return decimal.NewFromInt(20)
	}
}

// ConsistencyScore 收支规律子分。只有流入没有流出视为可疑活动，给固定低分
func ConsistencyScore(m walletdomain.Metrics) decimal.Decimal {
	if m.TransactionCount < 3 {
		return decimal.NewFromInt(2)
	}
	if m.OutflowCount == 0 {
		return decimal.NewFromInt(5)
	}

	ratio := decimal.NewFromInt(int64(m.InflowCount)).Div(decimal.NewFromInt(int64(m.OutflowCount)))

	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(1.5)):
		return decimal.NewFromInt(18)
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return decimal.NewFromInt(15)
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.7)):
		return decimal.NewFromInt(12)
	case ratio.GreaterThanOrEqual(decimal.NewFromFloat(0.5)):
		return decimal.NewFromInt(8)
	default:
		return decimal.NewFromInt(4)
	}
}

// ReliabilityScore 流入可靠性子分：流入金额的离散系数越小越可靠。
// 流入笔数不足 2 时直接给保底分，不做方差计算
func ReliabilityScore(m walletdomain.Metrics, inflows []decimal.Decimal) decimal.Decimal {
	if m.TotalInflow.IsZero() {
		return decimal.NewFromInt(2)
	}
	if m.InflowCount < 2 || len(inflows) < 2 {
		return decimal.NewFromInt(5)
	}

	mean := m.AvgInflow
	if mean.IsZero() {
		return decimal.NewFromInt(5)
	}

	variance := decimal.Zero
	for _, amount := range inflows {
		d := amount.Sub(mean)
		variance = variance.Add(d.Mul(d))
	}
	variance = variance.Div(decimal.NewFromInt(int64(len(inflows))))

	// 比较 CV² 而非 CV，避免开方引入的不精确
	cvSquared := variance.Div(mean.Mul(mean))

	switch {
	case cvSquared.LessThan(decimal.NewFromFloat(0.04)): // cv < 0.2
		return decimal.NewFromInt(18)
	case cvSquared.LessThan(decimal.NewFromFloat(0.25)): // cv < 0.5
		return decimal.NewFromInt(15)
	case cvSquared.LessThan(decimal.NewFromInt(1)): // cv < 1.0
		return decimal.NewFromInt(12)
	default:
		return decimal.NewFromInt(8)
	}
}

// StabilityScore 余额稳定性子分：净流或余额不为正时直接短路
func StabilityScore(m walletdomain.Metrics) decimal.Decimal {
	if m.NetFlow.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(5)
	}
	if m.CurrentBalance.LessThanOrEqual(decimal.Zero) {
		return decimal.NewFromInt(2)
	}

	var ratio decimal.Decimal
	if m.AvgOutflow.IsZero() {
		ratio = decimal.NewFromInt(100)
	} else {
		ratio = m.CurrentBalance.Div(m.AvgOutflow)
	}

	switch {
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return decimal.NewFromInt(20)
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return decimal.NewFromInt(16)
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(2)):
		return decimal.NewFromInt(12)
	case ratio.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return decimal.NewFromInt(8)
	default:
		return decimal.NewFromInt(4)
	}
}

// SuccessScore 交易成功率子分
func SuccessScore(m walletdomain.Metrics) decimal.Decimal {
	switch {
	case m.SuccessRate.GreaterThanOrEqual(decimal.NewFromInt(98)):
		return decimal.NewFromInt(20)
	case m.SuccessRate.GreaterThanOrEqual(decimal.NewFromInt(95)):
		return decimal.NewFromInt(16)
	case m.SuccessRate.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return decimal.NewFromInt(12)
	case m.SuccessRate.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return decimal.NewFromInt(8)
	default:
		return decimal.NewFromInt(2)
	}
}

// AccountAgeScore 账户年龄子分（预留，不参与综合评分）
func AccountAgeScore(createdAt time.Time, now time.Time) decimal.Decimal {
	days := int(now.Sub(createdAt).Hours() / 24)

	switch {
	case days >= 365:
		return decimal.NewFromInt(20)
	case days >= 180:
		return decimal.NewFromInt(15)
	case days >= 90:
		return decimal.NewFromInt(10)
	case days >= 30:
		return decimal.NewFromInt(5)
	default:
		return decimal.NewFromInt(2)
	}
}

// Score 生成完整信用评分报告
func Score(address string, m walletdomain.Metrics, inflows []decimal.Decimal, createdAt time.Time) Report {
	now := time.Now()

	subs := SubScores{
		TransactionVolume:  VolumeScore(m),
		PaymentConsistency: ConsistencyScore(m),
		InflowReliability:  ReliabilityScore(m, inflows),
		BalanceStability:   StabilityScore(m),
		TransactionSuccess: SuccessScore(m),
		AccountAge:         AccountAgeScore(createdAt, now),
	}

	// 五项子分取均值后线性映射到 300-850
	total := subs.TransactionVolume.
		Add(subs.PaymentConsistency).
		Add(subs.InflowReliability).
		Add(subs.BalanceStability).
		Add(subs.TransactionSuccess).
		Div(decimal.NewFromInt(5))

	score := scoreFloor.Add(total.Div(decimal.NewFromInt(20)).Mul(scoreSpan)).Round(0)

	rating := RatingFor(score)

	borrowLimit := decimal.NewFromInt(1000).Mul(score.Div(scoreScale)).Round(0)

	adjustment := RateAdjustmentFor(rating)

	effective := baseRate.Add(adjustment)
	if effective.GreaterThan(maxRate) {
		effective = maxRate
	}
	if effective.LessThan(minRate) {
		effective = minRate
	}

	return Report{
		WalletAddress:     address,
		CreditScore:       score,
		Rating:            rating,
		BorrowLimitUSD:    borrowLimit,
		RateAdjustment:    adjustment,
		EffectiveRate:     effective,
		Metrics:           m,
		SubScores:         subs,
		AnalysisTimestamp: now,
		Recommendation:    recommendationFor(rating),
	}
}

// RatingFor 按分数分级
func RatingFor(score decimal.Decimal) Rating {
	switch {
	case score.GreaterThanOrEqual(decimal.NewFromInt(750)):
		return RatingExcellent
	case score.GreaterThanOrEqual(decimal.NewFromInt(650)):
		return RatingVeryGood
	case score.GreaterThanOrEqual(decimal.NewFromInt(550)):
		return RatingGood
	case score.GreaterThanOrEqual(decimal.NewFromInt(450)):
		return RatingFair
	default:
		return RatingPoor
	}
}

// RateAdjustmentFor 按评级返回基准利率调整（百分点）
func RateAdjustmentFor(rating Rating) decimal.Decimal {
	switch rating {
	case RatingExcellent:
		return decimal.NewFromFloat(-1.5)
	case RatingVeryGood:
		return decimal.NewFromFloat(-0.5)
	case RatingGood:
		return decimal.Zero
	case RatingFair:
		return decimal.NewFromFloat(2.0)
	default:
		return decimal.NewFromFloat(5.0)
	}
}

func recommendationFor(rating Rating) string {
	switch rating {
	case RatingExcellent:
		return "Excellent on-chain history. Eligible for maximum borrowing at favorable rates."
	case RatingVeryGood:
		return "Very good on-chain behavior. Eligible for substantial borrowing with competitive rates."
	case RatingGood:
		return "Good transaction history. Standard borrowing rates apply."
	case RatingFair:
		return "Fair on-chain activity. Limited borrowing available at higher rates."
	default:
		return "Poor transaction history. Not recommended for lending at this time. Build more on-chain activity."
	}
}
