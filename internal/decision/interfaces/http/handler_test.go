package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/exenlending/internal/decision/application"
	"github.com/wyfcoding/exenlending/internal/decision/domain"
	"github.com/wyfcoding/exenlending/internal/decision/infrastructure/messaging"
	"github.com/wyfcoding/exenlending/pkg/idgen"
	"github.com/wyfcoding/exenlending/pkg/metrics"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	service := application.NewDecisionService(
		domain.NewEngine(domain.DefaultConfig()),
		messaging.NopEventPublisher{},
		&idgen.Sequence{},
		metrics.New("test"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)

	r := gin.New()
	NewDecisionHandler(service).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDecideEndpointApproves(t *testing.T) {
	r := setupRouter()

	w := postJSON(t, r, "/api/v1/decisions", map[string]any{
		"wallet_address":         "wallet_strong",
		"collateral_amount":      "100000",
		"borrow_amount_usd":      "5000",
		"collateral_token_price": "0.10",
		"credit_score":           "780",
		"credit_rating":          "excellent",
		"total_inflow":           "50000",
		"total_outflow":          "20000",
		"net_flow":               "30000",
		"current_balance":        "100",
		"success_rate":           "99.5",
		"transaction_count":      150,
		"avg_inflow":             "500",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var decision domain.LoanDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))

	assert.Equal(t, domain.OutcomeApproved, decision.Outcome)
	assert.NotEmpty(t, decision.DecisionID)
	require.NotNil(t, decision.ProposedTerms)
	assert.Equal(t, "5000", decision.ProposedTerms.LoanAmount.String())
}

func TestDecideEndpointRejectsBadDecimal(t *testing.T) {
	r := setupRouter()

	w := postJSON(t, r, "/api/v1/decisions", map[string]any{
		"wallet_address":         "wallet_bad",
		"collateral_amount":      "not-a-number",
		"borrow_amount_usd":      "5000",
		"collateral_token_price": "0.10",
		"credit_score":           "780",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "collateral_amount")
}

func TestDecideEndpointRequiresFields(t *testing.T) {
	r := setupRouter()

	w := postJSON(t, r, "/api/v1/decisions", map[string]any{
		"wallet_address": "wallet_incomplete",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	r := setupRouter()

	postJSON(t, r, "/api/v1/decisions", map[string]any{
		"wallet_address":         "wallet_strong",
		"collateral_amount":      "100000",
		"borrow_amount_usd":      "5000",
		"collateral_token_price": "0.10",
		"credit_score":           "780",
		"net_flow":               "30000",
		"current_balance":        "100",
		"success_rate":           "99.5",
		"transaction_count":      150,
		"avg_inflow":             "500",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/decisions/stats", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats application.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalDecisions)
	assert.Equal(t, "100.0%", stats.ApprovalRate)
}
