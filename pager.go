package twitterq

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go-twitterq/query"
)

// maxConnectionPage is the largest page the followers/following resources
// accept.
const maxConnectionPage = 1000

// FollowersAll pages through a user's followers until maxCount profiles are
// collected or the results run out. Page fetches are paced by
// ClientConfig.PageInterval. On error the profiles collected so far are
// returned alongside it.
func (c *Client) FollowersAll(ctx context.Context, userID string, maxCount int) ([]UserProfile, error) {
	return c.fetchConnections(ctx, UserFollowers, userID, maxCount)
}

// FollowingAll pages through the accounts a user follows (paginated).
func (c *Client) FollowingAll(ctx context.Context, userID string, maxCount int) ([]UserProfile, error) {
	return c.fetchConnections(ctx, UserFollowing, userID, maxCount)
}

// fetchConnections is a generic paginated connection fetcher.
func (c *Client) fetchConnections(ctx context.Context, kind UserKind, userID string, maxCount int) ([]UserProfile, error) {
	if maxCount <= 0 {
		return nil, nil
	}
	limiter := rate.NewLimiter(rate.Every(c.cfg.PageInterval), 1)

	var users []UserProfile
	var token string
	for {
		if err := limiter.Wait(ctx); err != nil {
			return users, err
		}

		preds := []query.Expr{
			query.Eq(FieldType, kind),
			query.Eq(FieldID, userID),
			query.Eq(FieldMaxResults, pageSize(maxCount-len(users))),
		}
		if token != "" {
			preds = append(preds, query.Eq(FieldPaginationToken, token))
		}

		resp, err := c.Users(ctx, query.And(preds...))
		if err != nil {
			return users, fmt.Errorf("%s: %w", kind, err)
		}
		users = append(users, resp.Users...)

		token = resp.Meta.NextToken
		if token == "" || len(resp.Users) == 0 || len(users) >= maxCount {
			break
		}
	}
	if len(users) > maxCount {
		users = users[:maxCount]
	}
	return users, nil
}

// pageSize clamps a remaining count to the page bounds the API accepts.
func pageSize(remaining int) int {
	if remaining > maxConnectionPage {
		return maxConnectionPage
	}
	if remaining < 1 {
		return 1
	}
	return remaining
}
