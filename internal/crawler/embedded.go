package crawler

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// 页面内嵌状态的两种已知形态：全局变量赋值与__NEXT_DATA__脚本
const (
	preloadedStateMarker = "window.__PRELOADED_STATE__"
	nextDataScriptID     = "__NEXT_DATA__"
)

// ExtractEmbedded 从HTML快照中解出页面内嵌的直播状态JSON。
// 找不到返回nil（不是错误）：HTML是时间点快照，等再久也不会出现，
// 由调用方决定是否转用拦截兜底。
func ExtractEmbedded(html string) map[string]any {
	if state := extractPreloadedState(html); state != nil {
		return state
	}
	return extractNextData(html)
}

// extractPreloadedState 解析 window.__PRELOADED_STATE__ = {...}; 形态
func extractPreloadedState(html string) map[string]any {
	idx := strings.Index(html, preloadedStateMarker)
	if idx < 0 {
		return nil
	}
	rest := html[idx+len(preloadedStateMarker):]
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return nil
	}
	blob := extractJSONObject(rest[eq+1:])
	if blob == "" {
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil
	}
	return state
}

// extractNextData 解析 <script id="__NEXT_DATA__"> 形态
func extractNextData(html string) map[string]any {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	text := doc.Find("script#" + nextDataScriptID).First().Text()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	var state map[string]any
	if err := json.Unmarshal([]byte(text), &state); err != nil {
		return nil
	}
	return state
}

// extractJSONObject 从s的首个'{'起做括号配平，截出完整JSON对象。
// 字符串字面量里的大括号与转义要跳过，不能用正则。
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

// WalkPath 依次按keys下钻嵌套map，任一环缺失返回nil
func WalkPath(root map[string]any, keys ...string) any {
	var cur any = root
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[k]
		if !ok {
			return nil
		}
	}
	return cur
}
