package wp

import (
	"context"
	"regexp"
)

var (
	metaVersionRe   = regexp.MustCompile(`(?i)WordPress\s+([\d.]+)`)
	feedVersionRe   = regexp.MustCompile(`generator>https://wordpress\.org/\?v=([\d.]+)`)
	readmeVersionRe = regexp.MustCompile(`Version\s+([\d.]+)`)
	assetVersionRe  = regexp.MustCompile(`(?i)(?:wp-content|wp-includes)[^"'\s>]*[?&]ver=([\d.]+)`)
)

// detectVersion tries the version sources in priority order and stops at
// the first hit. The later sources cost extra round-trips, so a success
// suppresses them. Every returned value carries its source tag.
func (a *Analyzer) detectVersion(ctx context.Context, p *page) *WordPressVersion {
	if m := metaVersionRe.FindStringSubmatch(metaGenerator(p)); m != nil {
		return &WordPressVersion{Version: m[1], DetectedFrom: SourceMetaGenerator}
	}

	if resp, err := a.fetcher.Get(ctx, p.join("/feed/")); err == nil && resp.Success() {
		if m := feedVersionRe.FindSubmatch(resp.Body); m != nil {
			return &WordPressVersion{Version: string(m[1]), DetectedFrom: SourceRSSFeed}
		}
	}

	if resp, err := a.fetcher.Get(ctx, p.join("/readme.html")); err == nil && resp.Success() {
		if m := readmeVersionRe.FindSubmatch(resp.Body); m != nil {
			return &WordPressVersion{Version: string(m[1]), DetectedFrom: SourceReadmeFile}
		}
	}

	if matches := assetVersionRe.FindAllStringSubmatch(p.html, -1); matches != nil {
		tokens := make([]string, 0, len(matches))
		for _, m := range matches {
			tokens = append(tokens, m[1])
		}
		if v, _ := mostFrequent(tokens); v != "" {
			return &WordPressVersion{Version: v, DetectedFrom: SourceAssetQueryString}
		}
	}

	return nil
}
