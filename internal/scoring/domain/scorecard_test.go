package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	walletdomain "github.com/wyfcoding/exenlending/internal/wallet/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestVolumeScoreBreakpoints(t *testing.T) {
	cases := []struct {
		inflow, outflow string
		want            int64
	}{
		{"50", "40", 2},    // < 100
		{"60", "40", 5},    // exactly 100
		{"400", "99", 5},   // < 500
		{"600", "300", 10}, // < 1000
		{"3000", "500", 15},
		{"4000", "1000", 20}, // exactly 5000
	}

	for _, tc := range cases {
		m := walletdomain.Metrics{TotalInflow: dec(tc.inflow), TotalOutflow: dec(tc.outflow)}
		got := VolumeScore(m)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("VolumeScore(%s+%s) = %s, want %d", tc.inflow, tc.outflow, got, tc.want)
		}
	}
}

func TestConsistencyScore(t *testing.T) {
	// 交易笔数不足
	m := walletdomain.Metrics{TransactionCount: 2, InflowCount: 2}
	if got := ConsistencyScore(m); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("score with 2 transactions = %s, want 2", got)
	}

	// 只进不出视为可疑
	m = walletdomain.Metrics{TransactionCount: 5, InflowCount: 5, OutflowCount: 0}
	if got := ConsistencyScore(m); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("score with no outflows = %s, want 5", got)
	}

	cases := []struct {
		in, out int
		want    int64
	}{
		{6, 4, 18},  // ratio 1.5
		{4, 4, 15},  // ratio 1.0
		{7, 10, 12}, // ratio 0.7
		{5, 10, 8},  // ratio 0.5
		{2, 10, 4},  // ratio 0.2
	}
	for _, tc := range cases {
		m := walletdomain.Metrics{TransactionCount: tc.in + tc.out, InflowCount: tc.in, OutflowCount: tc.out}
		got := ConsistencyScore(m)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("ConsistencyScore(%d/%d) = %s, want %d", tc.in, tc.out, got, tc.want)
		}
	}
}

func TestReliabilityScore(t *testing.T) {
	// 无流入
	m := walletdomain.Metrics{TotalInflow: decimal.Zero}
	if got := ReliabilityScore(m, nil); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("score with no inflows = %s, want 2", got)
	}

	// 单笔流入不足以计算离散度
	m = walletdomain.Metrics{TotalInflow: dec("100"), InflowCount: 1, AvgInflow: dec("100")}
	if got := ReliabilityScore(m, []decimal.Decimal{dec("100")}); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("score with one inflow = %s, want 5", got)
	}

	// 完全一致的流入，CV = 0
	inflows := []decimal.Decimal{dec("100"), dec("100"), dec("100")}
	m = walletdomain.Metrics{TotalInflow: dec("300"), InflowCount: 3, AvgInflow: dec("100")}
	if got := ReliabilityScore(m, inflows); !got.Equal(decimal.NewFromInt(18)) {
		t.Errorf("score with identical inflows = %s, want 18", got)
	}

	// 高波动流入
	inflows = []decimal.Decimal{dec("10"), dec("500"), dec("5")}
	total := dec("515")
	m = walletdomain.Metrics{TotalInflow: total, InflowCount: 3, AvgInflow: total.Div(decimal.NewFromInt(3))}
	if got := ReliabilityScore(m, inflows); !got.Equal(decimal.NewFromInt(8)) {
		t.Errorf("score with volatile inflows = %s, want 8", got)
	}
}

func TestStabilityScore(t *testing.T) {
	// 净流出为负
	m := walletdomain.Metrics{NetFlow: dec("-10"), CurrentBalance: dec("100")}
	if got := StabilityScore(m); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("score with negative net flow = %s, want 5", got)
	}

	// 余额耗尽
	m = walletdomain.Metrics{NetFlow: dec("10"), CurrentBalance: decimal.Zero}
	if got := StabilityScore(m); !got.Equal(decimal.NewFromInt(2)) {
		t.Errorf("score with zero balance = %s, want 2", got)
	}

	// 无流出时视为最高储备倍数
	m = walletdomain.Metrics{NetFlow: dec("500"), CurrentBalance: dec("500"), AvgOutflow: decimal.Zero}
	if got := StabilityScore(m); !got.Equal(decimal.NewFromInt(20)) {
		t.Errorf("score with no outflows = %s, want 20", got)
	}

	cases := []struct {
		balance, avgOut string
		want            int64
	}{
		{"1000", "100", 20}, // 10x
		{"500", "100", 16},  // 5x
		{"200", "100", 12},  // 2x
		{"100", "100", 8},   // 1x
		{"50", "100", 4},
	}
	for _, tc := range cases {
		m := walletdomain.Metrics{NetFlow: dec("1"), CurrentBalance: dec(tc.balance), AvgOutflow: dec(tc.avgOut)}
		got := StabilityScore(m)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("StabilityScore(balance=%s avgOut=%s) = %s, want %d", tc.balance, tc.avgOut, got, tc.want)
		}
	}
}

func TestSuccessScoreBreakpoints(t *testing.T) {
	cases := []struct {
		rate string
		want int64
	}{
		{"100", 20},
		{"98", 20},
		{"97.9", 16},
		{"95", 16},
		{"94", 12},
		{"90", 12},
		{"85", 8},
		{"79.9", 2},
	}
	for _, tc := range cases {
		m := walletdomain.Metrics{SuccessRate: dec(tc.rate)}
		got := SuccessScore(m)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("SuccessScore(%s) = %s, want %d", tc.rate, got, tc.want)
		}
	}
}

func TestAccountAgeScore(t *testing.T) {
	now := time.Now()
	cases := []struct {
		days int
		want int64
	}{
		{400, 20},
		{200, 15},
		{100, 10},
		{40, 5},
		{10, 2},
	}
	for _, tc := range cases {
		createdAt := now.AddDate(0, 0, -tc.days)
		got := AccountAgeScore(createdAt, now)
		if !got.Equal(decimal.NewFromInt(tc.want)) {
			t.Errorf("AccountAgeScore(%d days) = %s, want %d", tc.days, got, tc.want)
		}
	}
}

func TestScoreStrongWallet(t *testing.T) {
	// 五项子分 20/18/18/20/20，均值 19.2，评分 300 + 19.2/20*550 = 828
	m := walletdomain.Metrics{
		TotalInflow:      dec("6000"),
		TotalOutflow:     dec("2000"),
		NetFlow:          dec("4000"),
		InflowCount:      6,
		OutflowCount:     4,
		AvgInflow:        dec("1000"),
		AvgOutflow:       dec("500"),
		TransactionCount: 10,
		SuccessRate:      dec("100"),
		CurrentBalance:   dec("5000"),
	}
	inflows := []decimal.Decimal{
		dec("1000"), dec("1000"), dec("1000"), dec("1000"), dec("1000"), dec("1000"),
	}

	report := Score("wallet_strong", m, inflows, time.Now().AddDate(-1, 0, 0))

	if !report.CreditScore.Equal(decimal.NewFromInt(828)) {
		t.Errorf("credit score = %s, want 828", report.CreditScore)
	}
	if report.Rating != RatingExcellent {
		t.Errorf("rating = %s, want %s", report.Rating, RatingExcellent)
	}
	if !report.BorrowLimitUSD.Equal(decimal.NewFromInt(974)) {
		t.Errorf("borrow limit = %s, want 974", report.BorrowLimitUSD)
	}
	if !report.EffectiveRate.Equal(dec("6.5")) {
		t.Errorf("effective rate = %s, want 6.5", report.EffectiveRate)
	}
}

func TestScoreEmptyWallet(t *testing.T) {
	// 空钱包：子分 2/2/2/5/20，均值 6.2，评分 300 + 6.2/20*550 = 470.5 -> 471
	m := walletdomain.Metrics{SuccessRate: dec("100")}

	report := Score("wallet_empty", m, nil, time.Now())

	if !report.CreditScore.Equal(decimal.NewFromInt(471)) {
		t.Errorf("credit score = %s, want 471", report.CreditScore)
	}
	if report.Rating != RatingFair {
		t.Errorf("rating = %s, want %s", report.Rating, RatingFair)
	}
	if !report.EffectiveRate.Equal(dec("10")) {
		t.Errorf("effective rate = %s, want 10", report.EffectiveRate)
	}
}

func TestScoreInflowOnlyWallet(t *testing.T) {
	// 只进不出：规律性降为 5，稳定性因无流出按最高储备倍数计 20
	m := walletdomain.Metrics{
		TotalInflow:      dec("2000"),
		NetFlow:          dec("2000"),
		InflowCount:      4,
		AvgInflow:        dec("500"),
		TransactionCount: 4,
		SuccessRate:      dec("100"),
		CurrentBalance:   dec("2000"),
	}
	inflows := []decimal.Decimal{dec("500"), dec("500"), dec("500"), dec("500")}

	report := Score("wallet_inflow_only", m, inflows, time.Now())

	if !report.SubScores.PaymentConsistency.Equal(decimal.NewFromInt(5)) {
		t.Errorf("consistency = %s, want 5", report.SubScores.PaymentConsistency)
	}
	if !report.SubScores.BalanceStability.Equal(decimal.NewFromInt(20)) {
		t.Errorf("stability = %s, want 20", report.SubScores.BalanceStability)
	}
}

func TestScoreMonotonicInSuccessRate(t *testing.T) {
	// 成功率跨过 95 档位只会抬高成功子分，总分不得下降
	base := walletdomain.Metrics{
		TotalInflow:      dec("6000"),
		TotalOutflow:     dec("2000"),
		NetFlow:          dec("4000"),
		InflowCount:      6,
		OutflowCount:     4,
		AvgInflow:        dec("1000"),
		AvgOutflow:       dec("500"),
		TransactionCount: 10,
		SuccessRate:      dec("94"),
		CurrentBalance:   dec("5000"),
	}
	inflows := []decimal.Decimal{
		dec("1000"), dec("1000"), dec("1000"), dec("1000"), dec("1000"), dec("1000"),
	}
	createdAt := time.Now().AddDate(-1, 0, 0)

	improved := base
	improved.SuccessRate = dec("96")

	before := Score("wallet_1", base, inflows, createdAt)
	after := Score("wallet_1", improved, inflows, createdAt)

	if after.SubScores.TransactionSuccess.LessThanOrEqual(before.SubScores.TransactionSuccess) {
		t.Errorf("success sub-score %s -> %s, want increase across the 95 breakpoint",
			before.SubScores.TransactionSuccess, after.SubScores.TransactionSuccess)
	}
	if after.CreditScore.LessThan(before.CreditScore) {
		t.Errorf("credit score fell %s -> %s when one sub-score rose",
			before.CreditScore, after.CreditScore)
	}
}

func TestRateClamp(t *testing.T) {
	if adj := RateAdjustmentFor(RatingPoor); !adj.Equal(dec("5")) {
		t.Errorf("poor adjustment = %s, want 5", adj)
	}
	// 8.0 + 5.0 = 13.0，仍在 [5, 18] 之内
	m := walletdomain.Metrics{SuccessRate: dec("10")}
	report := Score("wallet_poor", m, nil, time.Now())
	if report.EffectiveRate.LessThan(dec("5")) || report.EffectiveRate.GreaterThan(dec("18")) {
		t.Errorf("effective rate %s outside [5, 18]", report.EffectiveRate)
	}
}
