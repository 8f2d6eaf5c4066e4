// Package http 信用评分 HTTP 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/exenlending/internal/scoring/application"
	walletdomain "github.com/wyfcoding/exenlending/internal/wallet/domain"
)

// ScoringHandler 信用评分接口处理器
type ScoringHandler struct {
	service *application.ScoringService
}

// NewScoringHandler 创建信用评分处理器
func NewScoringHandler(service *application.ScoringService) *ScoringHandler {
	return &ScoringHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *ScoringHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/scores/:address", h.ScoreWallet)
}

// ScoreWallet 计算钱包信用评分
func (h *ScoringHandler) ScoreWallet(c *gin.Context) {
	address := c.Param("address")

	report, err := h.service.ScoreWallet(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, walletdomain.ErrWalletNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
