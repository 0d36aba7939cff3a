package twitterq

import (
	"bytes"
	"time"
)

// Filter field names recognized by the parameter extractor. Queries compare
// these against literal values, e.g. query.Eq(FieldIds, "1,2,3").
const (
	FieldType            = "Type"
	FieldResources       = "Resources"
	FieldIds             = "Ids"
	FieldUsernames       = "Usernames"
	FieldID              = "ID"
	FieldExpansions      = "Expansions"
	FieldTweetFields     = "TweetFields"
	FieldUserFields      = "UserFields"
	FieldMaxResults      = "MaxResults"
	FieldPaginationToken = "PaginationToken"
	FieldBackfillMinutes = "BackfillMinutes"
)

// UserProfile represents a Twitter/X account profile.
type UserProfile struct {
	ID              string
	Name            string
	Username        string
	CreatedAt       time.Time
	Description     string
	Location        string
	URL             string
	ProfileImageURL string
	PinnedTweetID   string
	Protected       bool
	Verified        bool
	PublicMetrics   UserMetrics
}

// UserMetrics are the public engagement counters of a profile.
type UserMetrics struct {
	Followers int
	Following int
	Tweets    int
	Listed    int
}

// TweetDetail represents a single tweet.
type TweetDetail struct {
	ID                string
	Text              string
	AuthorID          string
	ConversationID    string
	InReplyToUserID   string
	CreatedAt         time.Time
	Lang              string
	PossiblySensitive bool
	PublicMetrics     TweetMetrics
}

// TweetMetrics are the public engagement counters of a tweet.
type TweetMetrics struct {
	Retweets int
	Replies  int
	Likes    int
	Quotes   int
}

// Includes carries the expansion objects a response attaches alongside its
// primary data.
type Includes struct {
	Users  []UserProfile
	Tweets []TweetDetail
}

// Meta is the pagination envelope of a v2 response.
type Meta struct {
	ResultCount   int    `json:"result_count"`
	NextToken     string `json:"next_token"`
	PreviousToken string `json:"previous_token"`
}

// PhotoSize is one photo size variant from the configuration resource.
type PhotoSize struct {
	Label  string
	Width  int
	Height int
	Resize string
}

// Language is one entry of the supported-languages resource.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RateLimit is one per-endpoint record from the rate-limit status resource.
// Reset is a unix timestamp, as reported by the API.
type RateLimit struct {
	Resource  string
	Limit     int
	Remaining int
	Reset     int64
}

// rawUser mirrors the wire shape of a v2 user object.
type rawUser struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	CreatedAt       string `json:"created_at"`
	Description     string `json:"description"`
	Location        string `json:"location"`
	URL             string `json:"url"`
	ProfileImageURL string `json:"profile_image_url"`
	PinnedTweetID   string `json:"pinned_tweet_id"`
	Protected       bool   `json:"protected"`
	Verified        bool   `json:"verified"`
	PublicMetrics   struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
		ListedCount    int `json:"listed_count"`
	} `json:"public_metrics"`
}

func (r rawUser) convert() UserProfile {
	return UserProfile{
		ID:              r.ID,
		Name:            r.Name,
		Username:        r.Username,
		CreatedAt:       parseTimestamp(r.CreatedAt),
		Description:     r.Description,
		Location:        r.Location,
		URL:             r.URL,
		ProfileImageURL: r.ProfileImageURL,
		PinnedTweetID:   r.PinnedTweetID,
		Protected:       r.Protected,
		Verified:        r.Verified,
		PublicMetrics: UserMetrics{
			Followers: r.PublicMetrics.FollowersCount,
			Following: r.PublicMetrics.FollowingCount,
			Tweets:    r.PublicMetrics.TweetCount,
			Listed:    r.PublicMetrics.ListedCount,
		},
	}
}

// rawTweet mirrors the wire shape of a v2 tweet object.
type rawTweet struct {
	ID                string `json:"id"`
	Text              string `json:"text"`
	AuthorID          string `json:"author_id"`
	ConversationID    string `json:"conversation_id"`
	InReplyToUserID   string `json:"in_reply_to_user_id"`
	CreatedAt         string `json:"created_at"`
	Lang              string `json:"lang"`
	PossiblySensitive bool   `json:"possibly_sensitive"`
	PublicMetrics     struct {
		RetweetCount int `json:"retweet_count"`
		ReplyCount   int `json:"reply_count"`
		LikeCount    int `json:"like_count"`
		QuoteCount   int `json:"quote_count"`
	} `json:"public_metrics"`
}

func (r rawTweet) convert() TweetDetail {
	return TweetDetail{
		ID:                r.ID,
		Text:              r.Text,
		AuthorID:          r.AuthorID,
		ConversationID:    r.ConversationID,
		InReplyToUserID:   r.InReplyToUserID,
		CreatedAt:         parseTimestamp(r.CreatedAt),
		Lang:              r.Lang,
		PossiblySensitive: r.PossiblySensitive,
		PublicMetrics: TweetMetrics{
			Retweets: r.PublicMetrics.RetweetCount,
			Replies:  r.PublicMetrics.ReplyCount,
			Likes:    r.PublicMetrics.LikeCount,
			Quotes:   r.PublicMetrics.QuoteCount,
		},
	}
}

// rawIncludes mirrors the wire shape of a v2 includes envelope.
type rawIncludes struct {
	Users  []rawUser  `json:"users"`
	Tweets []rawTweet `json:"tweets"`
}

func (r rawIncludes) convert() Includes {
	var inc Includes
	for _, u := range r.Users {
		inc.Users = append(inc.Users, u.convert())
	}
	for _, t := range r.Tweets {
		inc.Tweets = append(inc.Tweets, t.convert())
	}
	return inc
}

// parseTimestamp parses the RFC 3339 timestamps the v2 API emits. Absent or
// malformed values yield the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// emptyBody reports whether a response body carries no content at all.
// The API answers some queries with a blank body instead of empty JSON.
func emptyBody(body []byte) bool {
	return len(bytes.TrimSpace(body)) == 0
}
