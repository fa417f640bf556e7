package browser

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// 拦截键：每个键对应一类逻辑载荷，同键后到者覆盖先到者
const (
	KeyBroadcast = "broadcast"
	KeyCoupons   = "coupons"
	KeyBenefits  = "benefits"
	KeyComments  = "comments"
	KeyShortclip = "shortclip"
)

// respPattern 允许列表条目。主直播接口与同前缀的extras/分页接口
// 只能靠query标记区分，否则会被错误载荷覆盖。
type respPattern struct {
	key         string
	pathSubstr  string
	queryMarker string // 非空时URL还须包含该标记
}

var allowList = []respPattern{
	{key: KeyBroadcast, pathSubstr: "/v1/broadcast/", queryMarker: "needTimeMachine"},
	{key: KeyShortclip, pathSubstr: "/v2/shortclips/"},
	{key: KeyCoupons, pathSubstr: "/coupons"},
	{key: KeyBenefits, pathSubstr: "/benefits"},
	{key: KeyComments, pathSubstr: "/comments"},
}

// classifyURL 按允许列表归类响应URL，不命中返回空串
func classifyURL(rawURL string) string {
	lower := strings.ToLower(rawURL)
	for _, p := range allowList {
		if !strings.Contains(lower, strings.ToLower(p.pathSubstr)) {
			continue
		}
		if p.queryMarker != "" && !strings.Contains(lower, strings.ToLower(p.queryMarker)) {
			continue
		}
		return p.key
	}
	return ""
}

// Interceptor CDP网络响应拦截器。必须在Navigate之前Attach，
// 否则页面早期发出的请求会漏掉。
type Interceptor struct {
	mu           sync.Mutex
	bodies       map[string]map[string]any // key → 最新JSON载荷
	pending      map[network.RequestID]string
	pollInterval time.Duration
	logger       *logrus.Logger
}

// NewInterceptor 创建拦截器
func NewInterceptor(pollInterval time.Duration, logger *logrus.Logger) *Interceptor {
	if pollInterval <= 0 {
		pollInterval = 200 * time.Millisecond
	}
	return &Interceptor{
		bodies:       make(map[string]map[string]any),
		pending:      make(map[network.RequestID]string),
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Attach 订阅tab的全部网络响应事件。
// ResponseReceived时只登记归类结果；LoadingFinished后才能安全取响应体。
func (i *Interceptor) Attach(ctx context.Context) error {
	if err := chromedp.Run(ctx, network.Enable()); err != nil {
		return err
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventResponseReceived:
			key := classifyURL(e.Response.URL)
			if key == "" {
				return
			}
			ct := strings.ToLower(headerString(e.Response.Headers, "content-type"))
			if !strings.Contains(ct, "application/json") {
				return
			}
			i.mu.Lock()
			i.pending[e.RequestID] = key
			i.mu.Unlock()

		case *network.EventLoadingFinished:
			i.mu.Lock()
			key, ok := i.pending[e.RequestID]
			if ok {
				delete(i.pending, e.RequestID)
			}
			i.mu.Unlock()
			if !ok {
				return
			}
			// 响应体要走target的executor取，且不能阻塞事件回调
			go i.fetchBody(ctx, e.RequestID, key)
		}
	})
	return nil
}

func (i *Interceptor) fetchBody(ctx context.Context, reqID network.RequestID, key string) {
	c := chromedp.FromContext(ctx)
	if c == nil {
		return
	}
	body, err := network.GetResponseBody(reqID).Do(cdp.WithExecutor(ctx, c.Target))
	if err != nil || len(body) == 0 {
		return
	}
	var payload map[string]any
	// 残缺/非法JSON很常见，静默跳过即可
	if err := json.Unmarshal(body, &payload); err != nil {
		return
	}
	i.mu.Lock()
	i.bodies[key] = payload
	i.mu.Unlock()
	i.logger.WithField("key", key).Debug("拦截到API响应")
}

// Get 取某键的最新载荷
func (i *Interceptor) Get(key string) (map[string]any, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	body, ok := i.bodies[key]
	return body, ok
}

// GetTyped 取某键载荷并解码到out（经一次re-marshal）
func (i *Interceptor) GetTyped(key string, out any) bool {
	body, ok := i.Get(key)
	if !ok {
		return false
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// CapturedKeys 已捕获的键集合
func (i *Interceptor) CapturedKeys() map[string]bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	keys := make(map[string]bool, len(i.bodies))
	for k := range i.bodies {
		keys[k] = true
	}
	return keys
}

// WaitRequired 阻塞等待必选键全部到齐，超时返回false。
// 网络响应相对load/networkidle事件是异步的，必选键可能在
// 这些事件之后才落地，所以只能轮询。
func (i *Interceptor) WaitRequired(ctx context.Context, keys []string, maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)
	for {
		if i.hasAll(keys) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return i.hasAll(keys)
		case <-time.After(i.pollInterval):
		}
	}
}

// WaitOptional 等待可选键。即便已全部到齐也至少等minWait
// （慢接口还有机会落地），minWait之后全齐即提前返回，
// maxWait到点返回当时已捕获的子集。可选键缺失不算错误。
func (i *Interceptor) WaitOptional(ctx context.Context, keys []string, maxWait, minWait time.Duration) []string {
	start := time.Now()
	deadline := start.Add(maxWait)
	for {
		elapsed := time.Since(start)
		if elapsed >= minWait && i.hasAll(keys) {
			break
		}
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return i.capturedSubset(keys)
		case <-time.After(i.pollInterval):
		}
	}
	return i.capturedSubset(keys)
}

func (i *Interceptor) hasAll(keys []string) bool {
	captured := i.CapturedKeys()
	for _, k := range keys {
		if !captured[k] {
			return false
		}
	}
	return true
}

func (i *Interceptor) capturedSubset(keys []string) []string {
	captured := i.CapturedKeys()
	var got []string
	for _, k := range keys {
		if captured[k] {
			got = append(got, k)
		}
	}
	return got
}

func headerString(h network.Headers, key string) string {
	key = strings.ToLower(key)
	for k, v := range h {
		if strings.ToLower(k) == key {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
