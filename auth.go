package twitterq

import (
	"context"
	"net/http"

	"github.com/dghubble/oauth1"
)

// OAuth1Credentials holds the four user-context OAuth 1.0a secrets issued by
// the developer portal.
type OAuth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// NewOAuth1Client returns an *http.Client that signs every request with the
// given user-context credentials. Pass it as ClientConfig.HTTPClient for
// endpoints that reject app-only bearer auth. Signing is delegated entirely
// to the oauth1 package; ctx carries an optional base client.
func NewOAuth1Client(ctx context.Context, creds OAuth1Credentials) *http.Client {
	config := &oauth1.Config{
		ConsumerKey:    creds.ConsumerKey,
		ConsumerSecret: creds.ConsumerSecret,
	}
	token := &oauth1.Token{
		Token:       creds.AccessToken,
		TokenSecret: creds.AccessSecret,
	}
	return oauth1.NewClient(ctx, config, token)
}
