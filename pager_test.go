package twitterq

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pagedClient(t *testing.T, fake *fakeExecutor) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{Executor: fake, PageInterval: time.Millisecond})
	require.NoError(t, err)
	return c
}

func paramValue(rd *RequestDescriptor, key string) string {
	for _, p := range rd.Params() {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

func TestFollowersAllPagesUntilTokensRunOut(t *testing.T) {
	fake := &fakeExecutor{
		bodyFor: func(rd *RequestDescriptor) []byte {
			switch paramValue(rd, "pagination_token") {
			case "":
				return []byte(`{
					"data": [{"id":"1","username":"a"},{"id":"2","username":"b"}],
					"meta": {"result_count": 2, "next_token": "t2"}
				}`)
			case "t2":
				return []byte(`{
					"data": [{"id":"3","username":"c"}],
					"meta": {"result_count": 1}
				}`)
			default:
				return []byte(`{}`)
			}
		},
	}
	c := pagedClient(t, fake)

	users, err := c.FollowersAll(context.Background(), "20", 10)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "a", users[0].Username)
	assert.Equal(t, "c", users[2].Username)

	require.Equal(t, 2, fake.requestCount())
	first, second := fake.requests[0], fake.requests[1]
	assert.Equal(t, "https://api.twitter.com/2/users/20/followers?max_results=10", first.URL())
	assert.Equal(t, "10", paramValue(first, "max_results"))
	assert.Equal(t, "8", paramValue(second, "max_results"), "second page asks only for the remainder")
	assert.Equal(t, "t2", paramValue(second, "pagination_token"))
}

func TestFollowersAllStopsAtMaxCount(t *testing.T) {
	fake := &fakeExecutor{
		bodyFor: func(rd *RequestDescriptor) []byte {
			return []byte(`{
				"data": [{"id":"1","username":"a"},{"id":"2","username":"b"}],
				"meta": {"result_count": 2, "next_token": "more"}
			}`)
		},
	}
	c := pagedClient(t, fake)

	users, err := c.FollowersAll(context.Background(), "20", 2)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, fake.requestCount(), "no extra page once maxCount is reached")
}

func TestFollowingAllReturnsPartialOnError(t *testing.T) {
	apiErr := &APIError{StatusCode: 429, Message: "Rate limit exceeded", Code: 88}
	count := 0
	fake := &fakeExecutor{
		bodyFor: func(rd *RequestDescriptor) []byte {
			return []byte(`{
				"data": [{"id":"1","username":"a"}],
				"meta": {"next_token": "t2"}
			}`)
		},
	}
	c, err := NewClient(ClientConfig{
		Executor:     &errAfterExecutor{inner: fake, failAfter: 1, err: apiErr, calls: &count},
		PageInterval: time.Millisecond,
	})
	require.NoError(t, err)

	users, err := c.FollowingAll(context.Background(), "20", 10)
	require.Error(t, err)
	assert.Len(t, users, 1, "pages fetched before the failure are kept")

	var gotAPIErr *APIError
	require.ErrorAs(t, err, &gotAPIErr)
	assert.Equal(t, 429, gotAPIErr.StatusCode)

	_, limited := IsRateLimited(err)
	assert.True(t, limited, "rate-limit detection must survive the page wrapping")
}

func TestFollowersAllHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeExecutor{body: []byte(`{}`)}
	c := pagedClient(t, fake)

	_, err := c.FollowersAll(ctx, "20", 5)
	assert.True(t, errors.Is(err, context.Canceled), "err = %v", err)
}

func TestPageSize(t *testing.T) {
	tests := []struct {
		remaining int
		want      int
	}{
		{5000, 1000},
		{1000, 1000},
		{42, 42},
		{1, 1},
		{0, 1},
		{-3, 1},
	}
	for _, tt := range tests {
		if got := pageSize(tt.remaining); got != tt.want {
			t.Errorf("pageSize(%d) = %d, want %d", tt.remaining, got, tt.want)
		}
	}
}

// errAfterExecutor delegates to an inner executor for the first failAfter
// calls, then fails every call with err.
type errAfterExecutor struct {
	inner     Executor
	failAfter int
	err       error
	calls     *int
}

func (e *errAfterExecutor) Execute(ctx context.Context, rd *RequestDescriptor) ([]byte, error) {
	*e.calls++
	if *e.calls > e.failAfter {
		return nil, e.err
	}
	return e.inner.Execute(ctx, rd)
}

func (e *errAfterExecutor) Stream(ctx context.Context, rd *RequestDescriptor, onMessage func([]byte) error) error {
	return fmt.Errorf("not implemented")
}
