package service

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BatchSummary 一次批量执行的汇总
type BatchSummary struct {
	ExecutionID string `json:"execution_id"`
	Total       int    `json:"total"`
	Processed   int    `json:"processed"`
	Succeeded   int    `json:"succeeded"`
	Failed      int    `json:"failed"`
	Skipped     int    `json:"skipped"` // 断点续传跳过数
}

// checkpointState 断点文件结构。每块完成后整文件重写，
// 只有调度协程写，无并发写。
type checkpointState struct {
	ExecutionID string            `json:"execution_id"`
	UpdatedAt   time.Time         `json:"updated_at"`
	Done        map[string]string `json:"done"` // url → success/partial/error
}

// BatchService 批量爬取调度：分块 + 信号量并发 + 块间断点
type BatchService struct {
	crawlSvc *CrawlService
	cfg      *config.BatchConfig
	logger   *logrus.Logger
}

// NewBatchService 创建批量调度服务
func NewBatchService(crawlSvc *CrawlService, cfg *config.BatchConfig, logger *logrus.Logger) *BatchService {
	return &BatchService{crawlSvc: crawlSvc, cfg: cfg, logger: logger}
}

// Run 批量爬取。resume为真时读取断点文件，已完成的URL直接跳过；
// 每块全部结束后保存断点。单个URL失败不中断整批。
func (s *BatchService) Run(ctx context.Context, urls []string, opts CrawlOptions, resume bool) (*BatchSummary, error) {
	state := s.loadCheckpoint(resume)
	summary := &BatchSummary{ExecutionID: state.ExecutionID, Total: len(urls)}
	s.logger.Infof("批量执行开始: execution_id=%s total=%d concurrency=%d chunk=%d",
		state.ExecutionID, len(urls), s.cfg.Concurrency, s.cfg.ChunkSize)

	pending := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := state.Done[u]; ok {
			summary.Skipped++
			continue
		}
		pending = append(pending, u)
	}
	if summary.Skipped > 0 {
		s.logger.Infof("断点续传: 跳过已完成URL %d个", summary.Skipped)
	}

	for start := 0; start < len(pending); start += s.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			s.logger.Warnf("批量执行被取消: %v", err)
			break
		}
		end := start + s.cfg.ChunkSize
		if end > len(pending) {
			end = len(pending)
		}
		s.runChunk(ctx, pending[start:end], opts, state, summary)
		s.saveCheckpoint(state)
		s.logger.Infof("块完成: %d/%d 成功=%d 失败=%d", end, len(pending), summary.Succeeded, summary.Failed)
	}

	s.logger.Infof("批量执行结束: execution_id=%s processed=%d succeeded=%d failed=%d skipped=%d",
		summary.ExecutionID, summary.Processed, summary.Succeeded, summary.Failed, summary.Skipped)
	return summary, nil
}

// runChunk 并发跑一块URL。信号量限流，单任务panic不拖垮整批。
func (s *BatchService) runChunk(ctx context.Context, urls []string, opts CrawlOptions, state *checkpointState, summary *BatchSummary) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.cfg.Concurrency)
	)
	for _, u := range urls {
		wg.Add(1)
		sem <- struct{}{}
		go func(sourceURL string) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					s.logger.Errorf("爬取任务panic: url=%s panic=%v", sourceURL, r)
					mu.Lock()
					summary.Processed++
					summary.Failed++
					state.Done[sourceURL] = string(model.StatusError)
					mu.Unlock()
				}
			}()

			status := string(model.StatusError)
			outcome, err := s.crawlSvc.CrawlURL(ctx, sourceURL, opts)
			if err != nil {
				s.logger.Errorf("批量任务失败: url=%s err=%v", sourceURL, err)
			} else {
				status = string(outcome.Status)
			}

			mu.Lock()
			summary.Processed++
			if err != nil {
				summary.Failed++
			} else {
				summary.Succeeded++
			}
			state.Done[sourceURL] = status
			mu.Unlock()
		}(u)
	}
	wg.Wait()
}

func (s *BatchService) loadCheckpoint(resume bool) *checkpointState {
	state := &checkpointState{ExecutionID: uuid.New().String(), Done: make(map[string]string)}
	if !resume {
		return state
	}
	data, err := os.ReadFile(s.cfg.CheckpointPath)
	if err != nil {
		s.logger.Warnf("断点文件不可读，从头开始: %v", err)
		return state
	}
	var loaded checkpointState
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warnf("断点文件解析失败，从头开始: %v", err)
		return state
	}
	if loaded.Done == nil {
		loaded.Done = make(map[string]string)
	}
	s.logger.Infof("加载断点: execution_id=%s 已完成=%d", loaded.ExecutionID, len(loaded.Done))
	return &loaded
}

// saveCheckpoint 整文件重写。失败只告警，不影响爬取本身。
func (s *BatchService) saveCheckpoint(state *checkpointState) {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		s.logger.Warnf("断点序列化失败: %v", err)
		return
	}
	if err := os.WriteFile(s.cfg.CheckpointPath, data, 0o644); err != nil {
		s.logger.Warnf("断点写入失败: %v", err)
	}
}
