package wp

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrInvalidURL marks a request URL that fails validation before any
// network activity happens.
var ErrInvalidURL = errors.New("invalid target url")

// page holds the fetched homepage in the forms the detectors consume:
// the raw markup for substring/regex scans and a parsed document for
// selector queries. Detectors share it read-only.
type page struct {
	baseURL string
	html    string
	doc     *goquery.Document
	headers http.Header
}

func newPage(finalURL string, body []byte, headers http.Header) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &page{
		baseURL: finalURL,
		html:    string(body),
		doc:     doc,
		headers: headers,
	}, nil
}

// join resolves a site-relative path against the page's base URL.
func (p *page) join(path string) string {
	base, err := url.Parse(p.baseURL)
	if err != nil {
		return strings.TrimRight(p.baseURL, "/") + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return strings.TrimRight(p.baseURL, "/") + path
	}
	return base.ResolveReference(ref).String()
}

// NormalizeURL validates a target URL, defaulting scheme-less input to
// https. Only http and https targets with a host are accepted.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidURL)
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return u.String(), nil
}

// titleize converts a slug like "contact-form-7" into "Contact Form 7".
func titleize(slug string) string {
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	words := strings.Fields(slug)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// mostFrequent returns the value with the highest occurrence count.
// Ties break toward the value seen first, matching scan order.
func mostFrequent(values []string) (string, int) {
	counts := make(map[string]int, len(values))
	best := ""
	bestCount := 0
	for _, v := range values {
		counts[v]++
		if counts[v] > bestCount {
			best = v
			bestCount = counts[v]
		}
	}
	return best, bestCount
}
