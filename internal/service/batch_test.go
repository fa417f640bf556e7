package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"BroadcastSync/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchFixture(t *testing.T) (*BatchService, string) {
	t.Helper()
	checkpoint := filepath.Join(t.TempDir(), "checkpoint.json")
	cfg := &config.Config{}
	cfg.Batch = config.BatchConfig{
		Concurrency:    2,
		ChunkSize:      10,
		CheckpointPath: checkpoint,
	}
	crawlSvc := NewCrawlService(nil, nil, nil, nil, cfg, logrus.New())
	return NewBatchService(crawlSvc, &cfg.Batch, logrus.New()), checkpoint
}

func writeCheckpoint(t *testing.T, path string, done map[string]string) {
	t.Helper()
	data, err := json.Marshal(checkpointState{ExecutionID: "prev-exec", Done: done})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func readCheckpoint(t *testing.T, path string) checkpointState {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var state checkpointState
	require.NoError(t, json.Unmarshal(data, &state))
	return state
}

func TestBatchResumeSkipsDoneURLs(t *testing.T) {
	svc, checkpoint := batchFixture(t)
	doneURL := "https://view.shoppinglive.naver.com/replays/1"
	badURL := "https://example.com/not-a-broadcast"
	writeCheckpoint(t, checkpoint, map[string]string{doneURL: "success"})

	summary, err := svc.Run(context.Background(), []string{doneURL, badURL}, CrawlOptions{}, true)
	require.NoError(t, err)
	assert.Equal(t, "prev-exec", summary.ExecutionID)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Succeeded)

	// 断点要保留旧条目并追加新结果
	state := readCheckpoint(t, checkpoint)
	assert.Equal(t, "success", state.Done[doneURL])
	assert.Equal(t, "error", state.Done[badURL])
}

func TestBatchFreshRunIgnoresCheckpoint(t *testing.T) {
	svc, checkpoint := batchFixture(t)
	badURL := "https://example.com/not-a-broadcast"
	writeCheckpoint(t, checkpoint, map[string]string{badURL: "success"})

	summary, err := svc.Run(context.Background(), []string{badURL}, CrawlOptions{}, false)
	require.NoError(t, err)
	// resume未开启：断点不生效，URL照常处理
	assert.Zero(t, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.NotEqual(t, "prev-exec", summary.ExecutionID)
}

func TestBatchCorruptCheckpointStartsFresh(t *testing.T) {
	svc, checkpoint := batchFixture(t)
	require.NoError(t, os.WriteFile(checkpoint, []byte("不是JSON"), 0o644))

	summary, err := svc.Run(context.Background(), []string{"https://example.com/x"}, CrawlOptions{}, true)
	require.NoError(t, err)
	assert.Zero(t, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
}

func TestBatchSingleFailureDoesNotAbort(t *testing.T) {
	svc, _ := batchFixture(t)
	urls := []string{
		"https://example.com/bad1",
		"https://example.com/bad2",
		"https://example.com/bad3",
	}
	summary, err := svc.Run(context.Background(), urls, CrawlOptions{}, false)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 3, summary.Failed)
}
