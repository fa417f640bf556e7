package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"BroadcastSync/internal/model"
	"BroadcastSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// APIBase 直连REST接口基址（浏览器外的分页抓取走这里）
const APIBase = "https://apis.naver.com/live_commerce_web/viewer_api_web"

// SamplingStrategy 聊天留存采样策略
type SamplingStrategy string

const (
	SamplingNone SamplingStrategy = "none" // 全量保留
	SamplingOdd  SamplingStrategy = "odd"  // 隔条保留（约50%，刻意的存储压缩）
)

// CommentFetcher 评论直连分页抓取器
type CommentFetcher struct {
	client    *http.Client
	userAgent string
	logger    *logrus.Logger
}

// NewCommentFetcher 创建评论抓取器
func NewCommentFetcher(client *http.Client, userAgent string, logger *logrus.Logger) *CommentFetcher {
	return &CommentFetcher{client: client, userAgent: userAgent, logger: logger}
}

// FetchAll 跟随游标对（lastCommentNo + lastCreatedAtMilli）翻页拉全量评论。
// 终止条件：空页、hasNext为false、或maxPages硬上限——上限防的是
// 行为异常/恶意端点造成的死循环。
func (f *CommentFetcher) FetchAll(ctx context.Context, broadcastID int64, pageSize, maxPages int) ([]model.CommentAPI, error) {
	endpoint := fmt.Sprintf("%s/v1/broadcast/%d/comments", APIBase, broadcastID)
	headers := map[string]string{}
	if f.userAgent != "" {
		headers["User-Agent"] = f.userAgent
	}

	var all []model.CommentAPI
	var lastNo, lastMilli int64
	for page := 0; page < maxPages; page++ {
		query := url.Values{}
		query.Set("size", strconv.Itoa(pageSize))
		if lastNo > 0 {
			query.Set("lastCommentNo", strconv.FormatInt(lastNo, 10))
			query.Set("lastCreatedAtMilli", strconv.FormatInt(lastMilli, 10))
		}

		var pageResp model.CommentPage
		if err := httpclient.GetJSON(ctx, f.client, endpoint, query, headers, &pageResp); err != nil {
			return all, fmt.Errorf("拉取第%d页评论失败: %w", page+1, err)
		}
		if len(pageResp.Comments) == 0 {
			break
		}
		all = append(all, pageResp.Comments...)
		if !pageResp.HasNext {
			break
		}
		lastNo = pageResp.LastCommentNo
		lastMilli = pageResp.LastCreatedAtMilli
	}
	return all, nil
}

// SampleComments 按策略抽样并转为规范化聊天记录。
// odd策略保留第1、3、5…条（输出长度ceil(N/2)），顺序不变。
func SampleComments(comments []model.CommentAPI, strategy SamplingStrategy) []model.ChatInfo {
	var kept []model.CommentAPI
	switch strategy {
	case SamplingOdd:
		for i, c := range comments {
			if i%2 == 0 {
				kept = append(kept, c)
			}
		}
	default:
		kept = comments
	}

	chat := make([]model.ChatInfo, 0, len(kept))
	for _, c := range kept {
		created := c.CreatedAt
		chat = append(chat, model.ChatInfo{
			Nickname:        c.Nickname,
			Message:         c.Message,
			CreatedAtSource: created,
			CommentType:     c.CommentType,
		})
	}
	return chat
}
