package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"BroadcastSync/internal/config"

	"github.com/sirupsen/logrus"
)

// VisionLLMExtractor 视觉模型提取器：把图片URL发给配置的多模态API，
// 要求按固定JSON模式返回券/权益/商品文本。
type VisionLLMExtractor struct {
	cfg    *config.VisionConfig
	client *http.Client
	logger *logrus.Logger
}

// 请求/响应结构（与配置端点的约定模式）
type visionRequest struct {
	Model  string   `json:"model"`
	Images []string `json:"images"`
	Prompt string   `json:"prompt"`
}

type visionResponse struct {
	Benefits []string `json:"benefits"`
	Coupons  []string `json:"coupons"`
	Products []string `json:"products"`
}

const visionPrompt = `다음 라이브 커머스 홍보 이미지에서 혜택/쿠폰/상품 정보를 JSON으로 추출하세요. 형식: {"benefits":[],"coupons":[],"products":[]}`

func (v *VisionLLMExtractor) Name() string { return "vision" }

func (v *VisionLLMExtractor) Extract(ctx context.Context, images []string) (*Extraction, error) {
	if !v.cfg.Enabled || v.cfg.Endpoint == "" {
		return &Extraction{}, nil
	}
	if len(images) == 0 {
		return &Extraction{}, nil
	}

	body, err := json.Marshal(visionRequest{
		Model:  v.cfg.Model,
		Images: images,
		Prompt: visionPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("构建视觉请求失败: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(v.cfg.TimeoutSec)*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, v.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("构建视觉请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.cfg.APIKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("视觉API调用失败: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("视觉API非预期状态码: %d", resp.StatusCode)
	}

	var vr visionResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("视觉API响应解码失败: %w", err)
	}
	v.logger.WithFields(logrus.Fields{
		"benefits": len(vr.Benefits),
		"coupons":  len(vr.Coupons),
	}).Debug("视觉提取完成")
	return &Extraction{Benefits: vr.Benefits, Coupons: vr.Coupons, Products: vr.Products}, nil
}
