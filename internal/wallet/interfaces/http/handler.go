// Package http 钱包账本服务接口
package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/exenlending/internal/wallet/application"
	"github.com/wyfcoding/exenlending/internal/wallet/domain"
)

type Handler struct {
	service *application.WalletService
}

func NewHandler(service *application.WalletService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	g := r.Group("/wallets")
	{
		g.POST("", h.Register)
		g.PUT("/:address/balance", h.UpdateBalance)
		g.POST("/:address/transactions", h.RecordTransaction)
		g.GET("/:address/metrics", h.GetMetrics)
	}
}

type RegisterReq struct {
	Address string `json:"address" binding:"required"`
	Balance string `json:"balance" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid balance"})
		return
	}

	if err := h.service.RegisterWallet(c.Request.Context(), req.Address, balance); err != nil {
		if errors.Is(err, domain.ErrWalletAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"address": req.Address})
}

type UpdateBalanceReq struct {
	Balance string `json:"balance" binding:"required"`
}

func (h *Handler) UpdateBalance(c *gin.Context) {
	var req UpdateBalanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid balance"})
		return
	}

	if err := h.service.UpdateBalance(c.Request.Context(), c.Param("address"), balance); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrWalletNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusOK)
}

type RecordTransactionReq struct {
	TxHash       string `json:"tx_hash" binding:"required"`
	Timestamp    string `json:"timestamp"`
	Amount       string `json:"amount" binding:"required"`
	Kind         string `json:"kind" binding:"required"`
	Counterparty string `json:"counterparty"`
	Description  string `json:"description"`
	Successful   *bool  `json:"successful"`
}

func (h *Handler) RecordTransaction(c *gin.Context) {
	var req RecordTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	ts := time.Now()
	if req.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid timestamp"})
			return
		}
		ts = parsed
	}

	successful := true
	if req.Successful != nil {
		successful = *req.Successful
	}

	cmd := application.RecordCmd{
		Address:      c.Param("address"),
		TxHash:       req.TxHash,
		Timestamp:    ts,
		Amount:       amount,
		Kind:         req.Kind,
		Counterparty: req.Counterparty,
		Description:  req.Description,
		Successful:   successful,
	}

	if err := h.service.RecordTransaction(c.Request.Context(), cmd); err != nil {
		switch {
		case errors.Is(err, domain.ErrWalletNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrInvalidTransactionKind), errors.Is(err, domain.ErrDuplicateTransaction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.Status(http.StatusCreated)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	m, err := h.service.ComputeMetrics(c.Request.Context(), c.Param("address"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrWalletNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, m)
}
