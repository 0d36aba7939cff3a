package twitterq

import (
	"errors"
	"testing"
)

func TestBuildStreamRequests(t *testing.T) {
	const root = "https://api.twitter.com/2"

	tests := []struct {
		name    string
		kind    StreamKind
		params  map[string]string
		wantURL string
	}{
		{
			name:    "filter",
			kind:    StreamFilter,
			params:  nil,
			wantURL: root + "/tweets/search/stream",
		},
		{
			name: "filter with fields and backfill",
			kind: StreamFilter,
			params: map[string]string{
				FieldExpansions:      "author_id",
				FieldTweetFields:     "created_at, lang",
				FieldBackfillMinutes: "5",
			},
			wantURL: root + "/tweets/search/stream?expansions=author_id&tweet.fields=created_at%2Clang&backfill_minutes=5",
		},
		{
			name:    "sample",
			kind:    StreamSample,
			params:  map[string]string{FieldUserFields: "username"},
			wantURL: root + "/tweets/search/stream/sample?user.fields=username",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := streamRoutes[tt.kind].build(root, tt.params)
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if got := rd.URL(); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestParseStreamMessage(t *testing.T) {
	line := []byte(`{
		"data": {"id": "1", "text": "hello", "author_id": "20"},
		"includes": {"users": [{"id": "20", "username": "jack"}]},
		"matching_rules": [{"id": "101", "tag": "cats"}]
	}`)

	msg, err := parseStreamMessage(StreamFilter, line)
	if err != nil {
		t.Fatalf("parseStreamMessage() error = %v", err)
	}
	if msg.Kind != StreamFilter {
		t.Errorf("Kind = %q", msg.Kind)
	}
	if msg.Tweet.ID != "1" || msg.Tweet.Text != "hello" {
		t.Errorf("Tweet = %+v", msg.Tweet)
	}
	if len(msg.MatchingRules) != 1 || msg.MatchingRules[0].Tag != "cats" {
		t.Errorf("MatchingRules = %+v", msg.MatchingRules)
	}
	if len(msg.Includes.Users) != 1 {
		t.Errorf("Includes = %+v", msg.Includes)
	}
	if string(msg.Raw) != string(line) {
		t.Error("Raw does not match the input line")
	}
}

func TestParseStreamMessageInvalid(t *testing.T) {
	_, err := parseStreamMessage(StreamSample, []byte(`{"data":`))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestParseStreamKind(t *testing.T) {
	for _, raw := range []string{"Filter", "Sample"} {
		if _, err := parseStreamKind(raw); err != nil {
			t.Errorf("parseStreamKind(%q) error = %v", raw, err)
		}
	}
	for _, raw := range []string{"", "Firehose"} {
		if _, err := parseStreamKind(raw); err == nil {
			t.Errorf("parseStreamKind(%q) = nil error, want invalid query", raw)
		}
	}
}
