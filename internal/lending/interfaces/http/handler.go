// Package http 贷款台账 HTTP 接口
package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/lending/application"
	"github.com/wyfcoding/exenlending/internal/lending/domain"
)

// LendingHandler 贷款台账接口处理器
type LendingHandler struct {
	service *application.LoanLedgerService
}

// NewLendingHandler 创建贷款台账处理器
func NewLendingHandler(service *application.LoanLedgerService) *LendingHandler {
	return &LendingHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *LendingHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/loans", h.CreateLoan)
	r.POST("/loans/:id/collateral", h.DepositCollateral)
	r.GET("/loans/:id/health", h.VerifyHealth)
	r.POST("/loans/:id/disburse", h.DisburseFunds)
	r.POST("/loans/:id/setup", h.CompleteSetup)
	r.POST("/loans/:id/repay", h.ProcessRepayment)
	r.POST("/loans/:id/liquidate", h.MarkLiquidation)
	r.GET("/loans/:id", h.GetLoan)
	r.GET("/escrow", h.GetEscrowStatus)
	r.GET("/pool", h.GetPoolStatus)
}

type createLoanRequest struct {
	WalletAddress      string `json:"wallet_address" binding:"required"`
	LoanAmountUSD      string `json:"loan_amount_usd" binding:"required"`
	InterestRate       string `json:"interest_rate" binding:"required"`
	CollateralExen     string `json:"collateral_amount_exen" binding:"required"`
	CollateralPriceUSD string `json:"collateral_price_usd" binding:"required"`
	LTVRatio           string `json:"ltv_ratio" binding:"required"`
	RepaymentDays      int    `json:"repayment_days" binding:"required"`
}

// CreateLoan 建立贷款账户
func (h *LendingHandler) CreateLoan(c *gin.Context) {
	var req createLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &decimalParser{}
	cmd := application.CreateLoanCmd{
		WalletAddress:      req.WalletAddress,
		LoanAmountUSD:      p.parse("loan_amount_usd", req.LoanAmountUSD),
		InterestRate:       p.parse("interest_rate", req.InterestRate),
		CollateralExen:     p.parse("collateral_amount_exen", req.CollateralExen),
		CollateralPriceUSD: p.parse("collateral_price_usd", req.CollateralPriceUSD),
		LTVRatio:           p.parse("ltv_ratio", req.LTVRatio),
		RepaymentDays:      req.RepaymentDays,
	}
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}

	loan, err := h.service.CreateLoanAccount(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, loan)
}

type depositRequest struct {
	ExenAmount string `json:"exen_amount" binding:"required"`
	ExenPrice  string `json:"exen_price" binding:"required"`
}

// DepositCollateral 抵押品入金托管
func (h *LendingHandler) DepositCollateral(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &decimalParser{}
	amount := p.parse("exen_amount", req.ExenAmount)
	price := p.parse("exen_price", req.ExenPrice)
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}

	deposit, err := h.service.DepositCollateral(c.Request.Context(), c.Param("id"), amount, price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, deposit)
}

// VerifyHealth 抵押健康检查，current_price 为必填查询参数
func (h *LendingHandler) VerifyHealth(c *gin.Context) {
	price, err := decimal.NewFromString(c.Query("current_price"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid current_price"})
		return
	}

	healthy, healthFactor, err := h.service.VerifyCollateralHealth(c.Request.Context(), c.Param("id"), price)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loan_id":       c.Param("id"),
		"healthy":       healthy,
		"health_factor": healthFactor.String(),
	})
}

// DisburseFunds 放款
func (h *LendingHandler) DisburseFunds(c *gin.Context) {
	transfer, err := h.service.DisburseFunds(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transfer)
}

// CompleteSetup 完整放款工作流
func (h *LendingHandler) CompleteSetup(c *gin.Context) {
	var req depositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p := &decimalParser{}
	amount := p.parse("exen_amount", req.ExenAmount)
	price := p.parse("exen_price", req.ExenPrice)
	if p.err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": p.err.Error()})
		return
	}

	if err := h.service.CompleteLoanSetup(c.Request.Context(), c.Param("id"), amount, price); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "loan setup completed", "loan_id": c.Param("id")})
}

type repayRequest struct {
	AmountUSD   string `json:"amount_usd" binding:"required"`
	FromAddress string `json:"from_address" binding:"required"`
}

// ProcessRepayment 还款
func (h *LendingHandler) ProcessRepayment(c *gin.Context) {
	var req repayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.AmountUSD)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid amount_usd: %q", req.AmountUSD)})
		return
	}

	if err := h.service.ProcessRepayment(c.Request.Context(), c.Param("id"), amount, req.FromAddress); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "repayment processed", "loan_id": c.Param("id")})
}

// MarkLiquidation 外部清算触发
func (h *LendingHandler) MarkLiquidation(c *gin.Context) {
	if err := h.service.MarkLiquidation(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "liquidation started", "loan_id": c.Param("id")})
}

// GetLoan 贷款明细查询
func (h *LendingHandler) GetLoan(c *gin.Context) {
	details, err := h.service.GetLoanDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// GetEscrowStatus 托管金库查询
func (h *LendingHandler) GetEscrowStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetEscrowStatus(c.Request.Context()))
}

// GetPoolStatus 资金池查询
func (h *LendingHandler) GetPoolStatus(c *gin.Context) {
	snapshot, err := h.service.GetPoolStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// respondError 业务错误到 HTTP 状态码的映射
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound), errors.Is(err, domain.ErrDepositNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCollateralMismatch), errors.Is(err, domain.ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCollateralAlreadyLocked),
		errors.Is(err, domain.ErrInvalidLoanState),
		errors.Is(err, domain.ErrCollateralNotDeposited):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientPoolFunds), errors.Is(err, domain.ErrInsufficientRepayment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// decimalParser 累积首个解析错误
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
