package crawler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"BroadcastSync/internal/model"
)

// ErrInvalidURL 输入URL不属于三种可识别形态
var ErrInvalidURL = errors.New("无法识别的直播URL")

// kindSegments 识别顺序固定：路径段 → 直播类型
var kindSegments = []struct {
	segment string
	kind    model.BroadcastKind
}{
	{"/replays/", model.KindReplay},
	{"/lives/", model.KindLive},
	{"/shortclips/", model.KindShortClip},
}

// Classify 把输入URL归类为三种直播类型之一并抽出数字id。
// 不做部分恢复：认不出就直接失败。
func Classify(rawURL string) (model.BroadcastKind, int64, error) {
	lower := strings.ToLower(rawURL)
	for _, ks := range kindSegments {
		idx := strings.Index(lower, ks.segment)
		if idx < 0 {
			continue
		}
		rest := rawURL[idx+len(ks.segment):]
		digits := leadingDigits(rest)
		if digits == "" {
			return "", 0, fmt.Errorf("%w: %s段后未找到数字id: %s", ErrInvalidURL, ks.segment, rawURL)
		}
		id, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return "", 0, fmt.Errorf("%w: id解析失败: %s", ErrInvalidURL, rawURL)
		}
		return ks.kind, id, nil
	}
	return "", 0, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
}

// leadingDigits 取紧跟类型段之后的第一段连续数字
func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
