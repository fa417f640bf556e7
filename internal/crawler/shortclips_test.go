package crawler

import (
	"context"
	"testing"
	"time"

	"BroadcastSync/internal/browser"
	"BroadcastSync/internal/config"
	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalPage 全局变量evaluate返回固定JSON串的页面桩
type evalPage struct {
	fakePage
	evalResult string
}

func (e *evalPage) Evaluate(_ string, out any) error {
	if s, ok := out.(*string); ok {
		*s = e.evalResult
	}
	return nil
}

func shortclipsForTest() *ShortClipsCrawler {
	return &ShortClipsCrawler{logger: logrus.New()}
}

func TestShortclipExtractFromGlobal(t *testing.T) {
	page := &evalPage{evalResult: `{"id":98765,"title":"短视频标题","nickname":"小金"}`}
	payload := shortclipsForTest().extractFromGlobal(page)
	require.NotNil(t, payload)
	assert.Equal(t, int64(98765), payload.ID)
	assert.Equal(t, "短视频标题", payload.Title)
}

func TestShortclipExtractFromGlobalEmpty(t *testing.T) {
	c := shortclipsForTest()
	assert.Nil(t, c.extractFromGlobal(&evalPage{evalResult: ""}))
	assert.Nil(t, c.extractFromGlobal(&evalPage{evalResult: "{}"}))
	assert.Nil(t, c.extractFromGlobal(&evalPage{evalResult: "不是JSON"}))
}

func TestShortclipExtractFromHTML(t *testing.T) {
	page := &fakePage{html: `<html><body>
		<script id="__NEXT_DATA__" type="application/json">
			{"props":{"pageProps":{"shortclip":{"id":7,"title":"HTML里的短视频"}}}}
		</script>
	</body></html>`}
	payload := shortclipsForTest().extractFromHTML(page)
	require.NotNil(t, payload)
	assert.Equal(t, int64(7), payload.ID)
}

func TestShortclipExtractFromHTMLTopLevelKey(t *testing.T) {
	page := &fakePage{html: `<html><head><script>
		window.__PRELOADED_STATE__ = {"shortclip":{"id":9,"title":"顶层键"}};
	</script></head></html>`}
	payload := shortclipsForTest().extractFromHTML(page)
	require.NotNil(t, payload)
	assert.Equal(t, int64(9), payload.ID)
}

func TestShortclipExtractFromHTMLMissing(t *testing.T) {
	page := &fakePage{html: "<html><body>什么都没有</body></html>"}
	assert.Nil(t, shortclipsForTest().extractFromHTML(page))
}

func TestShortclipSecondaryMissingWarns(t *testing.T) {
	// 优惠券/权益接口都没拦到：各记一条无兜底警告，列表保持为空
	itc := browser.NewInterceptor(time.Millisecond, logrus.New())
	cfg := &config.CrawlerConfig{}
	result := newResult(model.KindShortClip, "https://view.shoppinglive.naver.com/shortclips/1", model.MethodJSON)

	collectSecondary(context.Background(), itc, cfg, result)

	assert.Empty(t, result.Coupons)
	assert.Empty(t, result.Benefits)
	require.Len(t, result.Warnings, 2)
	fields := []string{result.Warnings[0].Field, result.Warnings[1].Field}
	assert.Contains(t, fields, "coupons")
	assert.Contains(t, fields, "benefits")
	for _, w := range result.Warnings {
		assert.Nil(t, w.Fallback)
	}
}
