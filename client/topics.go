package client

import (
	"context"
	"net/http"
)

const topicSuggestPath = "/web_api/sns/v1/search/topic"

// Topic is a platform-recognized hashtag entity, distinct from a plain
// user-typed hashtag.
type Topic struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Link    string `json:"link,omitempty"`
	ViewNum int64  `json:"view_num,omitempty"`
	Type    string `json:"type"`
}

// ResolveTopic asks the platform's topic-suggestion endpoint for keyword and
// returns the first suggestion, marked topic-typed. It returns (nil, nil)
// when the platform has no suggestions; an empty result is not an error.
func (c *Client) ResolveTopic(ctx context.Context, keyword string) (*Topic, error) {
	payload := map[string]any{
		"keyword": keyword,
		"suggest_topic_request": map[string]any{
			"title": "",
			"desc":  keyword,
		},
		"page": map[string]any{
			"page_size": 20,
			"page":      1,
		},
	}

	var data struct {
		TopicInfoDtos []Topic `json:"topic_info_dtos"`
	}
	if err := c.signedCall(ctx, http.MethodPost, topicSuggestPath, payload, &data); err != nil {
		return nil, err
	}
	if len(data.TopicInfoDtos) == 0 {
		return nil, nil
	}

	topic := data.TopicInfoDtos[0]
	topic.Type = "topic"
	return &topic, nil
}
