// Package http 授信决策 HTTP 接口
package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/decision/application"
	"github.com/wyfcoding/exenlending/internal/decision/domain"
)

// DecisionHandler 授信决策接口处理器
type DecisionHandler struct {
	service *application.DecisionService
}

// NewDecisionHandler 创建授信决策处理器
func NewDecisionHandler(service *application.DecisionService) *DecisionHandler {
	return &DecisionHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *DecisionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/decisions", h.Decide)
	r.GET("/decisions/stats", h.GetStats)
}

// decideRequest 金额字段一律用字符串表示，避免浮点精度损失
type decideRequest struct {
	RequestID            string `json:"request_id"`
	WalletAddress        string `json:"wallet_address" binding:"required"`
	CollateralAmount     string `json:"collateral_amount" binding:"required"`
	BorrowAmountUSD      string `json:"borrow_amount_usd" binding:"required"`
	CollateralTokenPrice string `json:"collateral_token_price" binding:"required"`
	CreditScore          string `json:"credit_score" binding:"required"`
	CreditRating         string `json:"credit_rating"`
	TotalInflow          string `json:"total_inflow"`
	TotalOutflow         string `json:"total_outflow"`
	NetFlow              string `json:"net_flow"`
	CurrentBalance       string `json:"current_balance"`
	SuccessRate          string `json:"success_rate"`
	TransactionCount     int    `json:"transaction_count"`
	AvgInflow            string `json:"avg_inflow"`
}

// Decide 处理借款申请
func (h *DecisionHandler) Decide(c *gin.Context) {
	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &decimalParser{}
	loanReq := domain.LoanRequest{
		RequestID:            req.RequestID,
		WalletAddress:        req.WalletAddress,
		CollateralAmount:     p.parse("collateral_amount", req.CollateralAmount),
		BorrowAmountUSD:      p.parse("borrow_amount_usd", req.BorrowAmountUSD),
		CollateralTokenPrice: p.parse("collateral_token_price", req.CollateralTokenPrice),
		CreditScore:          p.parse("credit_score", req.CreditScore),
		CreditRating:         req.CreditRating,
		TotalInflow:          p.parseOptional("total_inflow", req.TotalInflow),
		TotalOutflow:         p.parseOptional("total_outflow", req.TotalOutflow),
		NetFlow:              p.parseOptional("net_flow", req.NetFlow),
		CurrentBalance:       p.parseOptional("current_balance", req.CurrentBalance),
		SuccessRate:          p.parseOptional("success_rate", req.SuccessRate),
		TransactionCount:     req.TransactionCount,
		AvgInflow:            p.parseOptional("avg_inflow", req.AvgInflow),
		RequestedAt:          time.Now(),
	}
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}

	decision, err := h.service.Decide(c.Request.Context(), loanReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, decision)
}

// GetStats 查询决策统计
func (h *DecisionHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetStats())
}

// decimalParser 累积首个解析错误，避免每个字段单独返回
type decimalParser struct {
	err error
}

func (p *decimalParser) parse(field, value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid %s: %q", field, value)
	}
	return d
}

func (p *decimalParser) parseOptional(field, value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	return p.parse(field, value)
}
