package twitterq

import (
	"errors"
	"testing"
)

func TestBuildTweetLookup(t *testing.T) {
	const root = "https://api.twitter.com/2"

	rd, err := tweetRoutes[TweetLookup].build(root, map[string]string{
		FieldIds:        "1261326399320715264, 1278347468690915330",
		FieldExpansions: "author_id",
		FieldUserFields: "username",
	})
	if err != nil {
		t.Fatalf("build error = %v", err)
	}
	want := root + "/tweets?ids=1261326399320715264%2C1278347468690915330&expansions=author_id&user.fields=username"
	if got := rd.URL(); got != want {
		t.Errorf("URL() = %q, want %q", got, want)
	}
}

func TestBuildTweetLookupRequiresIds(t *testing.T) {
	_, err := tweetRoutes[TweetLookup].build("https://api.twitter.com/2", map[string]string{})
	var iqe *InvalidQueryError
	if !errors.As(err, &iqe) {
		t.Fatalf("build error = %v, want *InvalidQueryError", err)
	}
	if iqe.Field != FieldIds {
		t.Errorf("InvalidQueryError.Field = %q, want %q", iqe.Field, FieldIds)
	}
}

func TestParseTweetResponse(t *testing.T) {
	body := []byte(`{
		"data": [
			{
				"id": "1261326399320715264",
				"text": "Tune in to the @MongoDB @Twitch stream",
				"author_id": "2244994945",
				"lang": "en",
				"created_at": "2020-05-15T16:03:42Z",
				"public_metrics": {"retweet_count": 8, "reply_count": 2, "like_count": 40, "quote_count": 1}
			}
		],
		"includes": {
			"users": [{"id": "2244994945", "name": "Twitter Dev", "username": "TwitterDev"}]
		}
	}`)

	resp, err := parseTweetResponse(TweetLookup, body)
	if err != nil {
		t.Fatalf("parseTweetResponse() error = %v", err)
	}
	if resp.Kind != TweetLookup {
		t.Errorf("Kind = %q", resp.Kind)
	}
	if len(resp.Tweets) != 1 {
		t.Fatalf("Tweets = %d, want 1", len(resp.Tweets))
	}
	tw := resp.Tweets[0]
	if tw.AuthorID != "2244994945" || tw.PublicMetrics.Likes != 40 {
		t.Errorf("tweet = %+v", tw)
	}
	if len(resp.Includes.Users) != 1 || resp.Includes.Users[0].Username != "TwitterDev" {
		t.Errorf("Includes.Users = %+v", resp.Includes.Users)
	}
}

func TestParseTweetResponseDegradesGracefully(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    "",
		"foreign shape": `{"meta":{}}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := parseTweetResponse(TweetLookup, []byte(body))
			if err != nil {
				t.Fatalf("parseTweetResponse() error = %v, want default entity", err)
			}
			if resp.Kind != TweetLookup || len(resp.Tweets) != 0 {
				t.Errorf("resp = %+v, want empty entity", resp)
			}
		})
	}
}

func TestParseTweetResponseInvalidJSON(t *testing.T) {
	_, err := parseTweetResponse(TweetLookup, []byte(`not json at all`))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if string(parseErr.Body) != "not json at all" {
		t.Errorf("ParseError.Body = %q, want raw body", parseErr.Body)
	}
}

func TestParseTweetKind(t *testing.T) {
	if _, err := parseTweetKind("Lookup"); err != nil {
		t.Errorf("parseTweetKind(Lookup) error = %v", err)
	}
	for _, raw := range []string{"", "Search", "lookup"} {
		if _, err := parseTweetKind(raw); err == nil {
			t.Errorf("parseTweetKind(%q) = nil error, want invalid query", raw)
		}
	}
}
