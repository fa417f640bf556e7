package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmbeddedPreloadedState(t *testing.T) {
	html := `<html><head><script>
		window.__PRELOADED_STATE__ = {"broadcast":{"id":42,"title":"含\"引号\"和}括号的标题"},"count":2};
		window.other = 1;
	</script></head><body></body></html>`

	state := ExtractEmbedded(html)
	require.NotNil(t, state)
	b, ok := state["broadcast"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(42), b["id"])
	// 字符串字面量里的大括号/转义引号不能截断配平
	assert.Equal(t, `含"引号"和}括号的标题`, b["title"])
}

func TestExtractEmbeddedNextData(t *testing.T) {
	html := `<html><body>
		<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"shortclip":{"id":7}}}}</script>
	</body></html>`

	state := ExtractEmbedded(html)
	require.NotNil(t, state)
	clip := WalkPath(state, "props", "pageProps", "shortclip")
	require.NotNil(t, clip)
	assert.Equal(t, float64(7), clip.(map[string]any)["id"])
}

func TestExtractEmbeddedMissingReturnsNil(t *testing.T) {
	assert.Nil(t, ExtractEmbedded("<html><body>普通页面</body></html>"))
	assert.Nil(t, ExtractEmbedded(`<script>window.__PRELOADED_STATE__ = 未配平{</script>`))
}

func TestWalkPath(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": "v"}}
	assert.Equal(t, "v", WalkPath(root, "a", "b"))
	assert.Nil(t, WalkPath(root, "a", "x"))
	assert.Nil(t, WalkPath(root, "a", "b", "c"))
}
