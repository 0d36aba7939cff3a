package twitterq

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/anatolykoptev/go-twitterq/query"
)

// UserKind selects which user resource a query targets.
type UserKind string

const (
	UserIDLookup       UserKind = "IdLookup"
	UserUsernameLookup UserKind = "UsernameLookup"
	UserFollowers      UserKind = "Followers"
	UserFollowing      UserKind = "Following"
)

func (k UserKind) String() string { return string(k) }

// UserResponse is the typed result of one user query.
type UserResponse struct {
	Kind     UserKind
	Users    []UserProfile
	Includes Includes
	Meta     Meta
	// Errors holds partial lookup failures (e.g. one unknown id among many).
	// They accompany data and are not fatal.
	Errors []ErrorDetail
}

// userQueryFields is the recognized filter set for user queries.
var userQueryFields = []string{
	FieldType, FieldIds, FieldUsernames, FieldID,
	FieldExpansions, FieldTweetFields, FieldUserFields,
	FieldMaxResults, FieldPaginationToken,
}

type userRoute struct {
	build func(root string, p query.Params) (*RequestDescriptor, error)
	parse func(body []byte) (*UserResponse, error)
}

var userRoutes = map[UserKind]userRoute{
	UserIDLookup:       {build: buildUserIDLookup, parse: userParser(UserIDLookup)},
	UserUsernameLookup: {build: buildUserUsernameLookup, parse: userParser(UserUsernameLookup)},
	UserFollowers:      {build: buildUserConnections("Followers", "followers"), parse: userParser(UserFollowers)},
	UserFollowing:      {build: buildUserConnections("Following", "following"), parse: userParser(UserFollowing)},
}

func parseUserKind(raw string) (UserKind, error) {
	if raw == "" {
		return "", &InvalidQueryError{Field: FieldType, Reason: "is required"}
	}
	switch k := UserKind(raw); k {
	case UserIDLookup, UserUsernameLookup, UserFollowers, UserFollowing:
		return k, nil
	}
	return "", &InvalidQueryError{Field: FieldType, Reason: fmt.Sprintf("is not a user kind: %q", raw)}
}

// fieldParams maps the optional expansion filters every v2 request accepts,
// in the order they are appended.
var fieldParams = []struct{ field, param string }{
	{FieldExpansions, "expansions"},
	{FieldTweetFields, "tweet.fields"},
	{FieldUserFields, "user.fields"},
}

// pagingParams maps the optional paging filters, in the order they are
// appended after fieldParams.
var pagingParams = []struct{ field, param string }{
	{FieldMaxResults, "max_results"},
	{FieldPaginationToken, "pagination_token"},
}

func appendFieldParams(rd *RequestDescriptor, p query.Params) {
	for _, fp := range fieldParams {
		if v, ok := p[fp.field]; ok {
			rd.SetParam(fp.param, stripSpaces(v))
		}
	}
}

func appendPagingParams(rd *RequestDescriptor, p query.Params) {
	for _, pp := range pagingParams {
		if v, ok := p[pp.field]; ok {
			rd.SetParam(pp.param, stripSpaces(v))
		}
	}
}

func buildUserIDLookup(root string, p query.Params) (*RequestDescriptor, error) {
	ids, ok := p[FieldIds]
	if !ok {
		return nil, &InvalidQueryError{Field: FieldIds, Reason: "is required for IdLookup"}
	}
	rd := NewRequestDescriptor("User/IdLookup", root+"/users")
	rd.SetParam("ids", stripSpaces(ids))
	appendFieldParams(rd, p)
	return rd, nil
}

func buildUserUsernameLookup(root string, p query.Params) (*RequestDescriptor, error) {
	usernames, ok := p[FieldUsernames]
	if !ok {
		return nil, &InvalidQueryError{Field: FieldUsernames, Reason: "is required for UsernameLookup"}
	}
	rd := NewRequestDescriptor("User/UsernameLookup", root+"/users/by")
	rd.SetParam("usernames", stripSpaces(usernames))
	appendFieldParams(rd, p)
	return rd, nil
}

// buildUserConnections covers the followers and following resources, which
// share everything but the trailing path segment.
func buildUserConnections(name, segment string) func(string, query.Params) (*RequestDescriptor, error) {
	return func(root string, p query.Params) (*RequestDescriptor, error) {
		id, ok := p[FieldID]
		if !ok {
			return nil, &InvalidQueryError{Field: FieldID, Reason: "is required for " + name}
		}
		rd := NewRequestDescriptor("User/"+name, fmt.Sprintf("%s/users/%s/%s", root, url.PathEscape(stripSpaces(id)), segment))
		appendFieldParams(rd, p)
		appendPagingParams(rd, p)
		return rd, nil
	}
}

func userParser(kind UserKind) func([]byte) (*UserResponse, error) {
	return func(body []byte) (*UserResponse, error) {
		return parseUserResponse(kind, body)
	}
}

func parseUserResponse(kind UserKind, body []byte) (*UserResponse, error) {
	out := &UserResponse{Kind: kind}
	if emptyBody(body) {
		return out, nil
	}
	var raw struct {
		Data     json.RawMessage `json:"data"`
		Includes rawIncludes     `json:"includes"`
		Meta     Meta            `json:"meta"`
		Errors   []ErrorDetail   `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return out, nil
	}
	out.Includes = raw.Includes.convert()
	out.Meta = raw.Meta
	out.Errors = raw.Errors
	out.Users = decodeUserData(raw.Data)
	return out, nil
}

// decodeUserData accepts both shapes the API uses for "data": an array of
// user objects or a single object.
func decodeUserData(raw json.RawMessage) []UserProfile {
	if len(raw) == 0 {
		return nil
	}
	var list []rawUser
	if err := json.Unmarshal(raw, &list); err == nil {
		users := make([]UserProfile, 0, len(list))
		for _, u := range list {
			users = append(users, u.convert())
		}
		return users
	}
	var one rawUser
	if err := json.Unmarshal(raw, &one); err == nil && one.ID != "" {
		return []UserProfile{one.convert()}
	}
	return nil
}
