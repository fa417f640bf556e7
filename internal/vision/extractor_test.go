package vision

import (
	"context"
	"errors"
	"testing"

	"BroadcastSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternExtractor(t *testing.T) {
	p := &PatternExtractor{logger: logrus.New()}
	ex, err := p.Extract(context.Background(), []string{
		"https://img.example/이벤트_쿠폰_배너.jpg",
		"https://img.example/사은품_안내.png",
		"https://img.example/plain.jpg",
	})
	require.NoError(t, err)
	assert.Len(t, ex.Coupons, 1)
	assert.Len(t, ex.Benefits, 1)
}

func TestSemanticExtractor(t *testing.T) {
	s := &SemanticExtractor{logger: logrus.New()}
	ex, err := s.Extract(context.Background(), []string{"https://img.example/무료배송_event.jpg"})
	require.NoError(t, err)
	assert.Equal(t, []string{"무료배송"}, ex.Benefits)
}

// stubExtractor 固定产出/固定失败的变体桩
type stubExtractor struct {
	name string
	out  *Extraction
	err  error
}

func (s *stubExtractor) Name() string { return s.name }
func (s *stubExtractor) Extract(context.Context, []string) (*Extraction, error) {
	return s.out, s.err
}

func TestHybridFirstNonEmptyWins(t *testing.T) {
	h := &HybridExtractor{
		chain: []EventExtractor{
			&stubExtractor{name: "empty", out: &Extraction{}},
			&stubExtractor{name: "hit", out: &Extraction{Coupons: []string{"15%"}}},
			&stubExtractor{name: "never", out: &Extraction{Coupons: []string{"不该到这"}}},
		},
		logger: logrus.New(),
	}
	ex, err := h.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"15%"}, ex.Coupons)
}

func TestHybridContinuesPastFailure(t *testing.T) {
	h := &HybridExtractor{
		chain: []EventExtractor{
			&stubExtractor{name: "broken", err: errors.New("接口超时")},
			&stubExtractor{name: "hit", out: &Extraction{Benefits: []string{"赠品"}}},
		},
		logger: logrus.New(),
	}
	ex, err := h.Extract(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"赠品"}, ex.Benefits)
}

func TestHybridAllFail(t *testing.T) {
	h := &HybridExtractor{
		chain:  []EventExtractor{&stubExtractor{name: "broken", err: errors.New("接口超时")}},
		logger: logrus.New(),
	}
	_, err := h.Extract(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewFromConfigStrategies(t *testing.T) {
	logger := logrus.New()
	assert.Equal(t, "pattern", NewFromConfig(&config.VisionConfig{Strategy: "pattern"}, nil, logger).Name())
	assert.Equal(t, "semantic", NewFromConfig(&config.VisionConfig{Strategy: "semantic"}, nil, logger).Name())
	assert.Equal(t, "vision", NewFromConfig(&config.VisionConfig{Strategy: "vision"}, nil, logger).Name())
	assert.Equal(t, "hybrid", NewFromConfig(&config.VisionConfig{}, nil, logger).Name())
}
