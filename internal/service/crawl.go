package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/crawler"
	"BroadcastSync/internal/livebridge"
	"BroadcastSync/internal/model"
	"BroadcastSync/internal/repository"

	"github.com/sirupsen/logrus"
)

// CrawlOptions 单次爬取的运行选项
type CrawlOptions struct {
	SaveDB         bool   // 入库；关闭时落JSON文件
	WithLivebridge bool   // 联带爬取预告页
	OutputDir      string // 非入库模式的输出目录（空则用配置值）
}

// CrawlOutcome 单次爬取结局
type CrawlOutcome struct {
	Result     *model.CrawlResult
	Status     model.CrawlStatus
	Saved      bool   // 已入库
	OutputPath string // JSON输出路径（非入库模式）
}

// CrawlService 单URL爬取编排：分类 → 爬取 → 映射 → 校验 → 落盘
type CrawlService struct {
	registry      *crawler.Registry
	repo          repository.BroadcastRepository
	bridgeCrawler *livebridge.Crawler
	bridgeRepo    repository.LivebridgeRepository
	cfg           *config.Config
	logger        *logrus.Logger
}

// NewCrawlService 创建爬取服务。repo/bridgeRepo允许为nil（纯文件模式）。
func NewCrawlService(registry *crawler.Registry, repo repository.BroadcastRepository,
	bridgeCrawler *livebridge.Crawler, bridgeRepo repository.LivebridgeRepository,
	cfg *config.Config, logger *logrus.Logger) *CrawlService {
	return &CrawlService{
		registry:      registry,
		repo:          repo,
		bridgeCrawler: bridgeCrawler,
		bridgeRepo:    bridgeRepo,
		cfg:           cfg,
		logger:        logger,
	}
}

// CrawlURL 爬取单个直播URL并持久化。致命失败时仍会best-effort
// 写一行error状态审计（留痕），随后返回错误。
func (s *CrawlService) CrawlURL(ctx context.Context, sourceURL string, opts CrawlOptions) (*CrawlOutcome, error) {
	kind, broadcastID, err := crawler.Classify(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("URL分类失败: %w", err)
	}
	s.logger.Infof("开始爬取: url=%s type=%s id=%d", sourceURL, kind, broadcastID)

	c, err := s.registry.Get(kind)
	if err != nil {
		return nil, err
	}

	result, err := c.Crawl(ctx, sourceURL, broadcastID)
	if err != nil {
		s.recordFailure(ctx, sourceURL, kind, broadcastID, err)
		return nil, fmt.Errorf("爬取失败: %w", err)
	}

	if ok, problems := ValidateAll(result); !ok {
		for key, issues := range problems {
			s.logger.Warnf("校验不通过: %s %v", key, issues)
		}
		err := fmt.Errorf("校验不通过: %d处问题", len(problems))
		s.recordFailure(ctx, sourceURL, kind, broadcastID, err)
		return nil, err
	}

	b, children, meta := TransformResult(result)
	outcome := &CrawlOutcome{Result: result, Status: model.CrawlStatus(meta.Status)}

	if opts.SaveDB && s.repo != nil {
		if err := s.repo.SaveCrawl(ctx, b, children, meta); err != nil {
			return nil, fmt.Errorf("入库失败: %w", err)
		}
		outcome.Saved = true
		s.logger.Infof("入库完成: id=%d status=%s products=%d", b.ID, meta.Status, len(children.Products))
	} else {
		path, err := s.writeJSON(result, meta, opts.OutputDir)
		if err != nil {
			return nil, fmt.Errorf("写JSON文件失败: %w", err)
		}
		outcome.OutputPath = path
		s.logger.Infof("JSON输出完成: %s", path)
	}

	if opts.WithLivebridge {
		s.crawlBridge(ctx, result.Broadcast.LivebridgeURL, result.Broadcast.ID, opts.SaveDB)
	}
	return outcome, nil
}

// recordFailure 失败留痕：写一行error状态审计，本身失败只记日志
func (s *CrawlService) recordFailure(ctx context.Context, sourceURL string, kind model.BroadcastKind, broadcastID int64, cause error) {
	if s.repo == nil {
		return
	}
	s.repo.SaveErrorMetadata(ctx, &model.CrawlMetadata{
		BroadcastID:    broadcastID,
		SourceURL:      sourceURL,
		URLType:        string(kind),
		CrawlerVersion: crawler.CrawlerVersion,
		CrawledAt:      time.Now(),
		Status:         string(model.StatusError),
		ErrorMessage:   cause.Error(),
	})
}

// crawlBridge 联带预告页爬取。可选增强，失败不影响主流程。
func (s *CrawlService) crawlBridge(ctx context.Context, bridgeURL string, broadcastID int64, saveDB bool) {
	if s.bridgeCrawler == nil {
		return
	}
	if bridgeURL == "" {
		bridgeURL = model.LivebridgeURL(broadcastID)
	}
	record, err := s.bridgeCrawler.Crawl(ctx, bridgeURL)
	if err != nil {
		s.logger.Warnf("预告页爬取失败（忽略）: url=%s err=%v", bridgeURL, err)
		return
	}
	if saveDB && s.bridgeRepo != nil {
		if err := s.bridgeRepo.SaveRecord(ctx, record); err != nil {
			s.logger.Warnf("预告页入库失败（忽略）: url=%s err=%v", bridgeURL, err)
			return
		}
	}
	s.logger.Infof("预告页爬取完成: url=%s products=%d", bridgeURL, len(record.Products))
}

// fileOutput 非入库模式的JSON文件结构
type fileOutput struct {
	Metadata  *model.CrawlMetadata `json:"metadata"`
	Broadcast *model.CrawlResult   `json:"broadcast"`
}

func (s *CrawlService) writeJSON(result *model.CrawlResult, meta *model.CrawlMetadata, outputDir string) (string, error) {
	if outputDir == "" {
		outputDir = s.cfg.Batch.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s_%d_%s.json", result.Kind, result.Broadcast.ID, result.CrawledAt.Format("20060102_150405"))
	path := filepath.Join(outputDir, name)
	data, err := json.MarshalIndent(fileOutput{Metadata: meta, Broadcast: result}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
