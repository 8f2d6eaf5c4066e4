// Package http 国库 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/treasury/application"
	"github.com/wyfcoding/exenlending/internal/treasury/domain"
)

// TreasuryHandler 国库接口处理器
type TreasuryHandler struct {
	service *application.TreasuryService
}

func NewTreasuryHandler(service *application.TreasuryService) *TreasuryHandler {
	return &TreasuryHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *TreasuryHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/treasury/fees", h.CollectFees)
	r.POST("/treasury/buyback", h.AddBuybackFunds)
	r.POST("/treasury/allocate", h.Allocate)
	r.GET("/treasury", h.GetStatus)
}

type amountRequest struct {
	Amount string `json:"amount" binding:"required"`
}

func (r amountRequest) decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(r.Amount)
}

// CollectFees 记录创作者费用
func (h *TreasuryHandler) CollectFees(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := req.decimal()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + err.Error()})
		return
	}

	total, err := h.service.CollectFees(c.Request.Context(), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"fee_accumulator": total.String()})
}

// AddBuybackFunds 向回购资金注资
func (h *TreasuryHandler) AddBuybackFunds(c *gin.Context) {
	var req amountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	amount, err := req.decimal()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount: " + err.Error()})
		return
	}

	total, err := h.service.AddBuybackFunds(c.Request.Context(), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"buyback_fund": total.String()})
}

// Allocate 划拨累积费用
func (h *TreasuryHandler) Allocate(c *gin.Context) {
	alloc, err := h.service.Allocate(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, alloc)
}

// GetStatus 查询国库状态
func (h *TreasuryHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.GetTreasuryStatus(c.Request.Context()))
}

func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrNothingToAllocate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
