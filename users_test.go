package twitterq

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestBuildUserRequests(t *testing.T) {
	const root = "https://api.twitter.com/2"

	tests := []struct {
		name    string
		kind    UserKind
		params  map[string]string
		wantURL string
	}{
		{
			name:    "id lookup",
			kind:    UserIDLookup,
			params:  map[string]string{FieldIds: "1,2,3"},
			wantURL: root + "/users?ids=1%2C2%2C3",
		},
		{
			name:    "id lookup strips whitespace",
			kind:    UserIDLookup,
			params:  map[string]string{FieldIds: "1, 2, 3"},
			wantURL: root + "/users?ids=1%2C2%2C3",
		},
		{
			name: "id lookup with expansion fields in fixed order",
			kind: UserIDLookup,
			params: map[string]string{
				FieldIds:         "20",
				FieldUserFields:  "created_at, description",
				FieldExpansions:  "pinned_tweet_id",
				FieldTweetFields: "lang",
			},
			wantURL: root + "/users?ids=20&expansions=pinned_tweet_id&tweet.fields=lang&user.fields=created_at%2Cdescription",
		},
		{
			name:    "username lookup",
			kind:    UserUsernameLookup,
			params:  map[string]string{FieldUsernames: "jack, biz"},
			wantURL: root + "/users/by?usernames=jack%2Cbiz",
		},
		{
			name: "followers with paging",
			kind: UserFollowers,
			params: map[string]string{
				FieldID:              "20",
				FieldMaxResults:      "100",
				FieldPaginationToken: "t0ken",
			},
			wantURL: root + "/users/20/followers?max_results=100&pagination_token=t0ken",
		},
		{
			name:    "following",
			kind:    UserFollowing,
			params:  map[string]string{FieldID: "20"},
			wantURL: root + "/users/20/following",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd, err := userRoutes[tt.kind].build(root, tt.params)
			if err != nil {
				t.Fatalf("build error = %v", err)
			}
			if got := rd.URL(); got != tt.wantURL {
				t.Errorf("URL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestBuildUserRequestsMissingRequiredField(t *testing.T) {
	tests := []struct {
		kind  UserKind
		field string
	}{
		{UserIDLookup, FieldIds},
		{UserUsernameLookup, FieldUsernames},
		{UserFollowers, FieldID},
		{UserFollowing, FieldID},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			_, err := userRoutes[tt.kind].build("https://api.twitter.com/2", map[string]string{})
			var iqe *InvalidQueryError
			if !errors.As(err, &iqe) {
				t.Fatalf("build error = %v, want *InvalidQueryError", err)
			}
			if iqe.Field != tt.field {
				t.Errorf("InvalidQueryError.Field = %q, want %q", iqe.Field, tt.field)
			}
		})
	}
}

func TestParseUserResponse(t *testing.T) {
	body := []byte(`{
		"data": [
			{
				"id": "2244994945",
				"name": "Twitter Dev",
				"username": "TwitterDev",
				"created_at": "2013-12-14T04:35:55Z",
				"protected": false,
				"public_metrics": {"followers_count": 512, "following_count": 32, "tweet_count": 3561, "listed_count": 105}
			},
			{"id": "783214", "name": "Twitter", "username": "Twitter"}
		],
		"includes": {
			"tweets": [{"id": "1067094924124872705", "text": "pinned", "public_metrics": {"like_count": 7}}]
		},
		"errors": [{"detail": "Could not find user with ids: [999].", "title": "Not Found Error", "parameter": "ids", "value": "999"}]
	}`)

	resp, err := parseUserResponse(UserIDLookup, body)
	if err != nil {
		t.Fatalf("parseUserResponse() error = %v", err)
	}
	if resp.Kind != UserIDLookup {
		t.Errorf("Kind = %q", resp.Kind)
	}
	if len(resp.Users) != 2 {
		t.Fatalf("Users = %d, want 2", len(resp.Users))
	}
	dev := resp.Users[0]
	if dev.Username != "TwitterDev" || dev.PublicMetrics.Followers != 512 {
		t.Errorf("first user = %+v", dev)
	}
	wantCreated := time.Date(2013, 12, 14, 4, 35, 55, 0, time.UTC)
	if !dev.CreatedAt.Equal(wantCreated) {
		t.Errorf("CreatedAt = %v, want %v", dev.CreatedAt, wantCreated)
	}
	if len(resp.Includes.Tweets) != 1 || resp.Includes.Tweets[0].PublicMetrics.Likes != 7 {
		t.Errorf("Includes.Tweets = %+v", resp.Includes.Tweets)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].Parameter != "ids" {
		t.Errorf("Errors = %+v", resp.Errors)
	}
}

func TestParseUserResponseSingleObjectData(t *testing.T) {
	body := []byte(`{"data": {"id": "20", "name": "one", "username": "one"}}`)
	resp, err := parseUserResponse(UserIDLookup, body)
	if err != nil {
		t.Fatalf("parseUserResponse() error = %v", err)
	}
	if len(resp.Users) != 1 || resp.Users[0].ID != "20" {
		t.Errorf("Users = %+v, want single user 20", resp.Users)
	}
}

func TestParseUserResponseMeta(t *testing.T) {
	body := []byte(`{
		"data": [{"id": "1", "name": "a", "username": "a"}],
		"meta": {"result_count": 1, "next_token": "NEXT", "previous_token": "PREV"}
	}`)
	resp, err := parseUserResponse(UserFollowers, body)
	if err != nil {
		t.Fatalf("parseUserResponse() error = %v", err)
	}
	if resp.Meta.NextToken != "NEXT" || resp.Meta.ResultCount != 1 {
		t.Errorf("Meta = %+v", resp.Meta)
	}
}

func TestParseUserResponseDegradesGracefully(t *testing.T) {
	for name, body := range map[string]string{
		"empty body":    "",
		"whitespace":    " \n ",
		"missing data":  `{"meta":{"result_count":0}}`,
		"foreign shape": `{"ok":true}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, err := parseUserResponse(UserIDLookup, []byte(body))
			if err != nil {
				t.Fatalf("parseUserResponse() error = %v, want default entity", err)
			}
			if resp.Kind != UserIDLookup {
				t.Errorf("Kind = %q", resp.Kind)
			}
			if len(resp.Users) != 0 {
				t.Errorf("Users = %+v, want none", resp.Users)
			}
		})
	}
}

func TestParseUserResponseInvalidJSON(t *testing.T) {
	_, err := parseUserResponse(UserIDLookup, []byte(`{"data": [`))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
}

func TestParseUserResponseIdempotent(t *testing.T) {
	body := []byte(`{"data":[{"id":"1","username":"a","public_metrics":{"followers_count":2}}]}`)
	first, err := parseUserResponse(UserIDLookup, body)
	if err != nil {
		t.Fatalf("first parse error = %v", err)
	}
	second, err := parseUserResponse(UserIDLookup, body)
	if err != nil {
		t.Fatalf("second parse error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parses differ:\n%+v\n%+v", first, second)
	}
}

func TestParseUserKind(t *testing.T) {
	for _, raw := range []string{"IdLookup", "UsernameLookup", "Followers", "Following"} {
		if _, err := parseUserKind(raw); err != nil {
			t.Errorf("parseUserKind(%q) error = %v", raw, err)
		}
	}
	for _, raw := range []string{"", "Lookup", "followers"} {
		if _, err := parseUserKind(raw); err == nil {
			t.Errorf("parseUserKind(%q) = nil error, want invalid query", raw)
		}
	}
}
