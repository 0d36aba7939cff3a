package twitterq

import (
	"net/url"
	"strings"
	"unicode"
)

// Param is one query-string parameter of a request descriptor.
type Param struct {
	Key   string
	Value string
}

// RequestDescriptor is a fully formed, not yet sent GET request: an absolute
// base URL plus query parameters in the exact order they will be encoded.
// Builders produce one per query and the executor consumes it exactly once.
type RequestDescriptor struct {
	// Endpoint is the operation name used for logging, metrics and
	// per-endpoint rate limiting, e.g. "User/IdLookup".
	Endpoint string
	// BaseURL is the request URL without the query string.
	BaseURL string

	params []Param
}

// NewRequestDescriptor returns a descriptor with no parameters.
func NewRequestDescriptor(endpoint, baseURL string) *RequestDescriptor {
	return &RequestDescriptor{Endpoint: endpoint, BaseURL: baseURL}
}

// SetParam appends a parameter, replacing the value of any earlier parameter
// with the same key while keeping its original position.
func (rd *RequestDescriptor) SetParam(key, value string) {
	for i := range rd.params {
		if rd.params[i].Key == key {
			rd.params[i].Value = value
			return
		}
	}
	rd.params = append(rd.params, Param{Key: key, Value: value})
}

// Params returns a copy of the parameters in encode order.
func (rd *RequestDescriptor) Params() []Param {
	out := make([]Param, len(rd.params))
	copy(out, rd.params)
	return out
}

// URL renders the percent-encoded request URL. Parameter order is preserved
// as set, so the same descriptor always renders the same URL.
func (rd *RequestDescriptor) URL() string {
	if len(rd.params) == 0 {
		return rd.BaseURL
	}
	var b strings.Builder
	b.WriteString(rd.BaseURL)
	for i, p := range rd.params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

// stripSpaces removes all whitespace from a parameter value, so comma lists
// written as "1, 2, 3" encode as "1,2,3".
func stripSpaces(s string) string {
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
