package twitterq

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anatolykoptev/go-twitterq/query"
)

// HelpKind selects which help/diagnostics resource a query targets.
type HelpKind string

const (
	HelpConfiguration HelpKind = "Configuration"
	HelpLanguages     HelpKind = "Languages"
	HelpRateLimits    HelpKind = "RateLimits"
	HelpPrivacy       HelpKind = "Privacy"
	HelpTos           HelpKind = "Tos"
)

func (k HelpKind) String() string { return string(k) }

// Help unifies the help/diagnostics result shapes. Kind selects which field
// subset is populated; everything else keeps its zero value.
type Help struct {
	Kind HelpKind

	// Configuration
	CharactersReservedPerMedia int
	MaxMediaPerUpload          int
	PhotoSizeLimit             int
	ShortURLLength             int
	ShortURLLengthHTTPS        int
	NonUsernamePaths           []string
	PhotoSizes                 []PhotoSize

	// Languages
	Languages []Language

	// RateLimits
	RateLimitAccountContext string
	RateLimits              map[string][]RateLimit

	// Privacy / Tos
	Privacy string
	TOS     string
}

// helpQueryFields is the recognized filter set for help queries.
var helpQueryFields = []string{FieldType, FieldResources}

type helpRoute struct {
	build func(root string, p query.Params) (*RequestDescriptor, error)
	parse func(body []byte) (*Help, error)
}

var helpRoutes = map[HelpKind]helpRoute{
	HelpConfiguration: {build: buildHelpConfiguration, parse: parseHelpConfiguration},
	HelpLanguages:     {build: buildHelpLanguages, parse: parseHelpLanguages},
	HelpRateLimits:    {build: buildHelpRateLimits, parse: parseHelpRateLimits},
	HelpPrivacy:       {build: buildHelpPrivacy, parse: parseHelpPrivacy},
	HelpTos:           {build: buildHelpTos, parse: parseHelpTos},
}

func parseHelpKind(raw string) (HelpKind, error) {
	if raw == "" {
		return "", &InvalidQueryError{Field: FieldType, Reason: "is required"}
	}
	switch k := HelpKind(raw); k {
	case HelpConfiguration, HelpLanguages, HelpRateLimits, HelpPrivacy, HelpTos:
		return k, nil
	}
	return "", &InvalidQueryError{Field: FieldType, Reason: fmt.Sprintf("is not a help kind: %q", raw)}
}

func buildHelpConfiguration(root string, _ query.Params) (*RequestDescriptor, error) {
	return NewRequestDescriptor("Help/Configuration", root+"/help/configuration.json"), nil
}

func buildHelpLanguages(root string, _ query.Params) (*RequestDescriptor, error) {
	return NewRequestDescriptor("Help/Languages", root+"/help/languages.json"), nil
}

func buildHelpRateLimits(root string, p query.Params) (*RequestDescriptor, error) {
	rd := NewRequestDescriptor("Help/RateLimits", root+"/application/rate_limit_status.json")
	if v, ok := p[FieldResources]; ok {
		rd.SetParam("resources", stripSpaces(v))
	}
	return rd, nil
}

func buildHelpPrivacy(root string, _ query.Params) (*RequestDescriptor, error) {
	return NewRequestDescriptor("Help/Privacy", root+"/help/privacy.json"), nil
}

func buildHelpTos(root string, _ query.Params) (*RequestDescriptor, error) {
	return NewRequestDescriptor("Help/Tos", root+"/help/tos.json"), nil
}

func parseHelpConfiguration(body []byte) (*Help, error) {
	h := &Help{Kind: HelpConfiguration}
	if emptyBody(body) {
		return h, nil
	}
	var raw struct {
		CharactersReservedPerMedia int             `json:"characters_reserved_per_media"`
		MaxMediaPerUpload          int             `json:"max_media_per_upload"`
		PhotoSizeLimit             int             `json:"photo_size_limit"`
		ShortURLLength             int             `json:"short_url_length"`
		ShortURLLengthHTTPS        int             `json:"short_url_length_https"`
		NonUsernamePaths           []string        `json:"non_username_paths"`
		PhotoSizes                 json.RawMessage `json:"photo_sizes"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return h, nil
	}
	if len(raw.PhotoSizes) == 0 {
		// Not the configuration shape.
		return h, nil
	}
	h.CharactersReservedPerMedia = raw.CharactersReservedPerMedia
	h.MaxMediaPerUpload = raw.MaxMediaPerUpload
	h.PhotoSizeLimit = raw.PhotoSizeLimit
	h.ShortURLLength = raw.ShortURLLength
	h.ShortURLLengthHTTPS = raw.ShortURLLengthHTTPS
	h.NonUsernamePaths = raw.NonUsernamePaths
	h.PhotoSizes = parsePhotoSizes(raw.PhotoSizes)
	return h, nil
}

func parseHelpLanguages(body []byte) (*Help, error) {
	h := &Help{Kind: HelpLanguages}
	if emptyBody(body) {
		return h, nil
	}
	var langs []Language
	if err := json.Unmarshal(body, &langs); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return h, nil
	}
	h.Languages = langs
	return h, nil
}

func parseHelpRateLimits(body []byte) (*Help, error) {
	h := &Help{Kind: HelpRateLimits}
	if emptyBody(body) {
		return h, nil
	}
	var raw struct {
		RateLimitContext struct {
			AccessToken string `json:"access_token"`
			Application string `json:"application"`
		} `json:"rate_limit_context"`
		Resources json.RawMessage `json:"resources"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return h, nil
	}
	h.RateLimitAccountContext = firstNonEmpty(raw.RateLimitContext.AccessToken, raw.RateLimitContext.Application)
	h.RateLimits = parseRateLimitResources(raw.Resources)
	return h, nil
}

func parseHelpPrivacy(body []byte) (*Help, error) {
	h := &Help{Kind: HelpPrivacy}
	if emptyBody(body) {
		return h, nil
	}
	var raw struct {
		Privacy string `json:"privacy"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return h, nil
	}
	h.Privacy = raw.Privacy
	return h, nil
}

func parseHelpTos(body []byte) (*Help, error) {
	h := &Help{Kind: HelpTos}
	if emptyBody(body) {
		return h, nil
	}
	var raw struct {
		TOS string `json:"tos"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		if !json.Valid(body) {
			return nil, &ParseError{Body: body, Err: err}
		}
		return h, nil
	}
	h.TOS = raw.TOS
	return h, nil
}

// parseRateLimitResources walks the resources object with a token decoder so
// per-endpoint records keep the order the API sent them in. Category values
// that are not objects are skipped.
func parseRateLimitResources(raw json.RawMessage) map[string][]RateLimit {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	out := make(map[string][]RateLimit)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			break
		}
		category, _ := keyTok.(string)
		var catRaw json.RawMessage
		if err := dec.Decode(&catRaw); err != nil {
			break
		}
		if limits := parseCategoryLimits(catRaw); limits != nil {
			out[category] = limits
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseCategoryLimits(raw json.RawMessage) []RateLimit {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var limits []RateLimit
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return limits
		}
		resource, _ := keyTok.(string)
		var entry struct {
			Limit     int   `json:"limit"`
			Remaining int   `json:"remaining"`
			Reset     int64 `json:"reset"`
		}
		if err := dec.Decode(&entry); err != nil {
			return limits
		}
		limits = append(limits, RateLimit{
			Resource:  resource,
			Limit:     entry.Limit,
			Remaining: entry.Remaining,
			Reset:     entry.Reset,
		})
	}
	return limits
}

// parsePhotoSizes walks the photo_sizes object in document order.
func parsePhotoSizes(raw json.RawMessage) []PhotoSize {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return nil
	}
	var sizes []PhotoSize
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return sizes
		}
		label, _ := keyTok.(string)
		var entry struct {
			Width  int    `json:"w"`
			Height int    `json:"h"`
			Resize string `json:"resize"`
		}
		if err := dec.Decode(&entry); err != nil {
			return sizes
		}
		sizes = append(sizes, PhotoSize{
			Label:  label,
			Width:  entry.Width,
			Height: entry.Height,
			Resize: entry.Resize,
		})
	}
	return sizes
}
