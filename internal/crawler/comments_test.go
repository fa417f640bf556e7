package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"BroadcastSync/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeComments(n int) []model.CommentAPI {
	out := make([]model.CommentAPI, n)
	for i := range out {
		out[i] = model.CommentAPI{
			CommentNo: int64(i + 1),
			Nickname:  fmt.Sprintf("用户%d", i+1),
			Message:   fmt.Sprintf("消息%d", i+1),
		}
	}
	return out
}

func TestSampleCommentsOdd(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{7, 4},
		{10, 5},
	}
	for _, tc := range cases {
		chat := SampleComments(makeComments(tc.total), SamplingOdd)
		assert.Len(t, chat, tc.want, "总数%d", tc.total)
	}
}

func TestSampleCommentsOddOrder(t *testing.T) {
	// 隔条保留：留下第1、3、5条，顺序不变
	chat := SampleComments(makeComments(6), SamplingOdd)
	require.Len(t, chat, 3)
	assert.Equal(t, "消息1", chat[0].Message)
	assert.Equal(t, "消息3", chat[1].Message)
	assert.Equal(t, "消息5", chat[2].Message)
}

func TestSampleCommentsNone(t *testing.T) {
	chat := SampleComments(makeComments(5), SamplingNone)
	assert.Len(t, chat, 5)
	assert.Equal(t, "消息1", chat[0].Message)
}

// pagingTransport 永远返回hasNext=true的端点桩
type pagingTransport struct {
	calls int
}

func (p *pagingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	p.calls++
	page := model.CommentPage{
		Comments:           makeComments(2),
		HasNext:            true,
		LastCommentNo:      int64(p.calls * 2),
		LastCreatedAtMilli: int64(p.calls * 1000),
	}
	body, _ := json.Marshal(page)
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
		Request:    req,
	}, nil
}

func TestFetchAllPageCap(t *testing.T) {
	transport := &pagingTransport{}
	fetcher := NewCommentFetcher(&http.Client{Transport: transport}, "", logrus.New())

	all, err := fetcher.FetchAll(context.Background(), 1, 2, 50)
	require.NoError(t, err)
	// 端点永远hasNext=true，靠硬上限终止
	assert.Equal(t, 50, transport.calls)
	assert.Len(t, all, 100)
}

func TestFetchAllCursorAdvance(t *testing.T) {
	var gotCursors []string
	transport := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		gotCursors = append(gotCursors, req.URL.Query().Get("lastCommentNo"))
		page := model.CommentPage{
			Comments:           makeComments(1),
			HasNext:            len(gotCursors) < 2,
			LastCommentNo:      77,
			LastCreatedAtMilli: 88,
		}
		body, _ := json.Marshal(page)
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(bytes.NewReader(body)),
			Request:    req,
		}, nil
	})
	fetcher := NewCommentFetcher(&http.Client{Transport: transport}, "", logrus.New())

	all, err := fetcher.FetchAll(context.Background(), 1, 10, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	// 首页不带游标，次页带上一页返回的游标对
	require.Len(t, gotCursors, 2)
	assert.Equal(t, "", gotCursors[0])
	assert.Equal(t, "77", gotCursors[1])
}

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
