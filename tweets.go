package twitterq

import (
	"encoding/json"
	"fmt"

	"github.com/anatolykoptev/go-twitterq/query"
)

// TweetKind selects which tweet resource a query targets.
type TweetKind string

const (
	TweetLookup TweetKind = "Lookup"
)

func (k TweetKind) String() string { return string(k) }

// TweetResponse is the typed result of one tweet query.
type TweetResponse struct {
	Kind     TweetKind
	Tweets   []TweetDetail
	Includes Includes
	// Errors holds partial lookup failures; they accompany data and are
	// not fatal.
	Errors []ErrorDetail
}

// tweetQueryFields is the recognized filter set for tweet queries.
var tweetQueryFields = []string{
	FieldType, FieldIds,
	FieldExpansions, FieldTweetFields, FieldUserFields,
}

type tweetRoute struct {
	build func(root string, p query.Params) (*RequestDescriptor, error)
	parse func(body []byte) (*TweetResponse, error)
}

var tweetRoutes = map[TweetKind]tweetRoute{
	TweetLookup: {build: buildTweetLookup, parse: tweetParser(TweetLookup)},
}

func parseTweetKind(raw string) (TweetKind, error) {
	if raw == "" {
		return "", &InvalidQueryError{Field: FieldType, Reason: "is required"}
	}
	if k := TweetKind(raw); k == TweetLookup {
		return k, nil
	}
	return "", &InvalidQueryError{Field: FieldType, Reason: fmt.Sprintf("is not a tweet kind: %q", raw)}
}

func buildTweetLookup(root string, p query.Params) (*RequestDescriptor, error) {
	ids, ok := p[FieldIds]
	if !ok {
		return nil, &InvalidQueryError{Field: FieldIds, Reason: "is required for Lookup"}
	}
	rd := NewRequestDescriptor("Tweet/Lookup", root+"/tweets")
	rd.SetParam("ids", stripSpaces(ids))
	appendFieldParams(rd, p)
	return rd, nil
}

func tweetParser(kind TweetKind) func([]byte) (*TweetResponse, error) {
	return func(body []byte) (*TweetResponse, error) {
		return parseTweetResponse(kind, body)
	}
}

func parseTweetResponse(kind TweetKind, body []byte) (*TweetResponse, error) {
	out := &TweetResponse{Kind: kind}
	if emptyBody(body) {
		return out, nil
	}
	var raw struct {
		Data     json.RawMessage `json:"data"`
		Includes rawIncludes     `json:"includes"`
		Errors   []ErrorDetail   `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return out, nil
	}
	out.Includes = raw.Includes.convert()
	out.Errors = raw.Errors
	out.Tweets = decodeTweetData(raw.Data)
	return out, nil
}

// decodeTweetData accepts both shapes the API uses for "data": an array of
// tweet objects or a single object.
func decodeTweetData(raw json.RawMessage) []TweetDetail {
	if len(raw) == 0 {
		return nil
	}
	var list []rawTweet
	if err := json.Unmarshal(raw, &list); err == nil {
		tweets := make([]TweetDetail, 0, len(list))
		for _, tw := range list {
			tweets = append(tweets, tw.convert())
		}
		return tweets
	}
	var one rawTweet
	if err := json.Unmarshal(raw, &one); err == nil && one.ID != "" {
		return []TweetDetail{one.convert()}
	}
	return nil
}
