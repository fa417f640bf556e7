package api

import (
	"net/http"
	"strconv"

	"BroadcastSync/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BroadcastHandler 提供给前端的直播查询接口
type BroadcastHandler struct {
	repo   repository.BroadcastRepository
	logger *logrus.Logger
}

// NewBroadcastHandler 创建 BroadcastHandler
func NewBroadcastHandler(db *gorm.DB, retryCount int, logger *logrus.Logger) *BroadcastHandler {
	return &BroadcastHandler{
		repo:   repository.NewBroadcastRepository(db, retryCount, logger),
		logger: logger,
	}
}

// ListBroadcasts 直播列表接口
// GET /api/broadcasts?status=CLOSED&type=replay&page=1&page_size=20
func (h *BroadcastHandler) ListBroadcasts(c *gin.Context) {
	filter := repository.BroadcastFilter{
		Status:        c.Query("status"),
		BroadcastType: c.Query("type"),
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	rows, total, err := h.repo.ListBroadcasts(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListBroadcasts failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"list":      rows,
	})
}

// GetBroadcast 直播详情（含商品/券/权益/聊天子表）
// GET /api/broadcasts/:id
func (h *BroadcastHandler) GetBroadcast(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id必须是数字"})
		return
	}

	b, children, err := h.repo.GetBroadcast(c.Request.Context(), id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "直播不存在"})
			return
		}
		h.logger.WithError(err).Error("GetBroadcast failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"broadcast": b,
		"products":  children.Products,
		"coupons":   children.Coupons,
		"benefits":  children.Benefits,
		"chat":      children.Chat,
	})
}
