package twitterq

import (
	"encoding/json"
	"fmt"

	"github.com/anatolykoptev/go-twitterq/query"
)

// StreamKind selects which streaming resource a query targets.
type StreamKind string

const (
	StreamFilter StreamKind = "Filter"
	StreamSample StreamKind = "Sample"
)

func (k StreamKind) String() string { return string(k) }

// MatchingRule identifies a filter rule a streamed tweet matched.
type MatchingRule struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// StreamMessage is one decoded message from a filtered or sampled stream.
type StreamMessage struct {
	Kind          StreamKind
	Tweet         TweetDetail
	Includes      Includes
	MatchingRules []MatchingRule
	// Raw is the message line exactly as received.
	Raw []byte
}

// streamQueryFields is the recognized filter set for streaming queries.
var streamQueryFields = []string{
	FieldType, FieldExpansions, FieldTweetFields, FieldUserFields,
	FieldBackfillMinutes,
}

type streamRoute struct {
	build func(root string, p query.Params) (*RequestDescriptor, error)
}

var streamRoutes = map[StreamKind]streamRoute{
	StreamFilter: {build: buildStreamFilter},
	StreamSample: {build: buildStreamSample},
}

func parseStreamKind(raw string) (StreamKind, error) {
	if raw == "" {
		return "", &InvalidQueryError{Field: FieldType, Reason: "is required"}
	}
	switch k := StreamKind(raw); k {
	case StreamFilter, StreamSample:
		return k, nil
	}
	return "", &InvalidQueryError{Field: FieldType, Reason: fmt.Sprintf("is not a stream kind: %q", raw)}
}

func buildStreamFilter(root string, p query.Params) (*RequestDescriptor, error) {
	rd := NewRequestDescriptor("Stream/Filter", root+"/tweets/search/stream")
	appendFieldParams(rd, p)
	if v, ok := p[FieldBackfillMinutes]; ok {
		rd.SetParam("backfill_minutes", stripSpaces(v))
	}
	return rd, nil
}

func buildStreamSample(root string, p query.Params) (*RequestDescriptor, error) {
	rd := NewRequestDescriptor("Stream/Sample", root+"/tweets/search/stream/sample")
	appendFieldParams(rd, p)
	return rd, nil
}

// parseStreamMessage decodes one stream line. The executor already drops
// keep-alive blanks, so every line here is expected to be a JSON document.
func parseStreamMessage(kind StreamKind, line []byte) (*StreamMessage, error) {
	var raw struct {
		Data          rawTweet       `json:"data"`
		Includes      rawIncludes    `json:"includes"`
		MatchingRules []MatchingRule `json:"matching_rules"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, &ParseError{Body: line, Err: err}
	}
	msg := &StreamMessage{
		Kind:          kind,
		Tweet:         raw.Data.convert(),
		Includes:      raw.Includes.convert(),
		MatchingRules: raw.MatchingRules,
		Raw:           line,
	}
	return msg, nil
}
