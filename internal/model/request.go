package model

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Kind classifies what the submitted content is
type Kind string

const (
	KindText  Kind = "text"  // Free-form text pasted by the user
	KindURL   Kind = "url"   // Link to an article or page (never fetched)
	KindVideo Kind = "video" // Link to a video (never fetched)
)

// Validation errors returned by AnalysisRequest.Validate
var (
	ErrEmptyContent = errors.New("content is empty")
	ErrInvalidURL   = errors.New("content is not a well-formed URL")
	ErrUnknownKind  = errors.New("unknown content kind")
)

// videoHosts are registrable domains treated as video links by DetectKind
var videoHosts = map[string]bool{
	"youtube.com":     true,
	"youtu.be":        true,
	"vimeo.com":       true,
	"tiktok.com":      true,
	"dailymotion.com": true,
	"twitch.tv":       true,
	"rumble.com":      true,
}

// ParseKind converts a user-supplied kind name to a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindText:
		return KindText, nil
	case KindURL:
		return KindURL, nil
	case KindVideo:
		return KindVideo, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: text, url, video)", ErrUnknownKind, s)
	}
}

// AnalysisRequest is a single piece of content submitted for assessment
type AnalysisRequest struct {
	Content string `json:"content"`
	Kind    Kind   `json:"kind"`
}

// NewRequest builds a request with surrounding whitespace removed from content
func NewRequest(kind Kind, content string) AnalysisRequest {
	return AnalysisRequest{Content: strings.TrimSpace(content), Kind: kind}
}

// Validate checks the request before it is handed to the pipeline.
// URL and video content must carry a scheme and a host.
func (r AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.Content) == "" {
		return ErrEmptyContent
	}

	switch r.Kind {
	case KindText:
		return nil
	case KindURL, KindVideo:
		if !IsWellFormedURL(r.Content) {
			return fmt.Errorf("%w: %s", ErrInvalidURL, r.Content)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
}

// IsWellFormedURL reports whether s parses as an absolute URL with a host
func IsWellFormedURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// DetectKind guesses the kind of raw input: http(s) links become url or
// video (by registrable domain), anything else is text
func DetectKind(content string) Kind {
	content = strings.TrimSpace(content)
	u, err := url.Parse(content)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return KindText
	}

	if videoHosts[RegistrableDomain(u.Hostname())] {
		return KindVideo
	}
	return KindURL
}

// RegistrableDomain returns the eTLD+1 for host, or host itself when it has none
// (IP addresses, localhost)
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
