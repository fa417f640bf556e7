package api

import (
	"net/http"

	"BroadcastSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CrawlHandler 爬取触发接口
type CrawlHandler struct {
	crawlService *service.CrawlService
	batchService *service.BatchService
	logger       *logrus.Logger
}

// NewCrawlHandler 创建 CrawlHandler
func NewCrawlHandler(crawlSvc *service.CrawlService, batchSvc *service.BatchService, logger *logrus.Logger) *CrawlHandler {
	return &CrawlHandler{
		crawlService: crawlSvc,
		batchService: batchSvc,
		logger:       logger,
	}
}

type crawlRequest struct {
	URL            string `json:"url" binding:"required"`
	SaveDB         bool   `json:"save_db"`
	WithLivebridge bool   `json:"with_livebridge"`
}

// Crawl 爬取单个直播URL
// POST /crawl {"url": "...", "save_db": true, "with_livebridge": false}
func (h *CrawlHandler) Crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.crawlService.CrawlURL(c.Request.Context(), req.URL, service.CrawlOptions{
		SaveDB:         req.SaveDB,
		WithLivebridge: req.WithLivebridge,
	})
	if err != nil {
		h.logger.Errorf("爬取%s失败: %v", req.URL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      outcome.Status,
		"saved":       outcome.Saved,
		"output_path": outcome.OutputPath,
		"broadcast":   outcome.Result,
	})
}

type batchRequest struct {
	URLs           []string `json:"urls" binding:"required"`
	SaveDB         bool     `json:"save_db"`
	WithLivebridge bool     `json:"with_livebridge"`
	Resume         bool     `json:"resume"`
}

// CrawlBatch 批量爬取。同步执行，返回汇总。
// POST /crawl/batch {"urls": ["..."], "save_db": true, "resume": false}
func (h *CrawlHandler) CrawlBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "urls不能为空"})
		return
	}

	summary, err := h.batchService.Run(c.Request.Context(), req.URLs, service.CrawlOptions{
		SaveDB:         req.SaveDB,
		WithLivebridge: req.WithLivebridge,
	}, req.Resume)
	if err != nil {
		h.logger.Errorf("批量爬取失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
