package crawler

import (
	"testing"

	"BroadcastSync/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		url  string
		kind model.BroadcastKind
		id   int64
	}{
		{"回放", "https://view.shoppinglive.naver.com/replays/1776510", model.KindReplay, 1776510},
		{"回放带query", "https://view.shoppinglive.naver.com/replays/1776510?tr=lim", model.KindReplay, 1776510},
		{"直播", "https://view.shoppinglive.naver.com/lives/123456", model.KindLive, 123456},
		{"短视频", "https://view.shoppinglive.naver.com/shortclips/98765", model.KindShortClip, 98765},
		{"大小写不敏感", "https://VIEW.shoppinglive.naver.com/Replays/42", model.KindReplay, 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			kind, id, err := Classify(tc.url)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestClassifyInvalid(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"无类型段", "https://view.shoppinglive.naver.com/home"},
		{"类型段后无数字", "https://view.shoppinglive.naver.com/replays/abc"},
		{"空串", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Classify(tc.url)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}
