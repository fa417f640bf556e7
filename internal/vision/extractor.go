package vision

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"BroadcastSync/internal/config"

	"github.com/sirupsen/logrus"
)

// Extraction 图片结构化提取的产物。提供方不可靠是常态：
// 为空或失败只会让调用方少几个字段，绝不中断爬取。
type Extraction struct {
	Benefits []string `json:"benefits"`
	Coupons  []string `json:"coupons"`
	Products []string `json:"products"`
}

// Empty 是否一无所获
func (e *Extraction) Empty() bool {
	return e == nil || (len(e.Benefits) == 0 && len(e.Coupons) == 0 && len(e.Products) == 0)
}

// EventExtractor 图片→结构化字段的统一能力接口。
// 策略不再用字符串枚举分发，而是一个接口多个变体，
// hybrid就是按序尝试的变体列表。
type EventExtractor interface {
	Name() string
	Extract(ctx context.Context, images []string) (*Extraction, error)
}

// NewFromConfig 按配置组装提取器
func NewFromConfig(cfg *config.VisionConfig, client *http.Client, logger *logrus.Logger) EventExtractor {
	pattern := &PatternExtractor{logger: logger}
	semantic := &SemanticExtractor{logger: logger}
	visionLLM := &VisionLLMExtractor{cfg: cfg, client: client, logger: logger}

	switch cfg.Strategy {
	case "pattern":
		return pattern
	case "semantic":
		return semantic
	case "vision":
		return visionLLM
	default:
		// hybrid：按可靠性升序排成本——先廉价规则，最后才打视觉模型
		chain := []EventExtractor{pattern, semantic}
		if cfg.Enabled && cfg.Endpoint != "" {
			chain = append(chain, visionLLM)
		}
		return &HybridExtractor{chain: chain, logger: logger}
	}
}

// ========== Pattern：对图片URL/alt文本做正则匹配 ==========

// PatternExtractor 规则提取器。只看图片URL与文件名里携带的文案线索
type PatternExtractor struct {
	logger *logrus.Logger
}

var (
	couponPattern  = regexp.MustCompile(`(?i)(쿠폰|coupon|할인|[0-9]+%)`)
	benefitPattern = regexp.MustCompile(`(?i)(혜택|사은품|증정|benefit|gift)`)
)

func (p *PatternExtractor) Name() string { return "pattern" }

func (p *PatternExtractor) Extract(_ context.Context, images []string) (*Extraction, error) {
	out := &Extraction{}
	for _, img := range images {
		decoded := strings.ToLower(img)
		if m := couponPattern.FindString(decoded); m != "" {
			out.Coupons = append(out.Coupons, m)
		}
		if m := benefitPattern.FindString(decoded); m != "" {
			out.Benefits = append(out.Benefits, m)
		}
	}
	return out, nil
}

// ========== Semantic：基于关键词表的启发式 ==========

// SemanticExtractor 关键词启发式提取器
type SemanticExtractor struct {
	logger *logrus.Logger
}

var benefitKeywords = []string{"무료배송", "적립", "경품", "추첨", "라이브특가"}

func (s *SemanticExtractor) Name() string { return "semantic" }

func (s *SemanticExtractor) Extract(_ context.Context, images []string) (*Extraction, error) {
	out := &Extraction{}
	for _, img := range images {
		for _, kw := range benefitKeywords {
			if strings.Contains(img, kw) {
				out.Benefits = append(out.Benefits, kw)
			}
		}
	}
	return out, nil
}

// ========== Hybrid：按序尝试，第一个有产出的变体胜出 ==========

// HybridExtractor 顺序兜底链
type HybridExtractor struct {
	chain  []EventExtractor
	logger *logrus.Logger
}

func (h *HybridExtractor) Name() string { return "hybrid" }

func (h *HybridExtractor) Extract(ctx context.Context, images []string) (*Extraction, error) {
	var lastErr error
	for _, ex := range h.chain {
		result, err := ex.Extract(ctx, images)
		if err != nil {
			h.logger.WithError(err).WithField("extractor", ex.Name()).Warn("提取变体失败，尝试下一个")
			lastErr = err
			continue
		}
		if !result.Empty() {
			return result, nil
		}
	}
	if lastErr != nil {
		return &Extraction{}, fmt.Errorf("兜底链全部失败: %w", lastErr)
	}
	return &Extraction{}, nil
}
