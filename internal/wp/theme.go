package wp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	themePathRe   = regexp.MustCompile(`/wp-content/themes/([^/'"?\s]+)/`)
	themeNameRe   = regexp.MustCompile(`(?i)Theme Name:\s*([^\r\n]+)`)
	themeVerRe    = regexp.MustCompile(`(?i)Version:\s*([\d.]+)`)
	themeAuthorRe = regexp.MustCompile(`(?i)Author:\s*([^\r\n]+)`)
)

// styleHeaderLimit bounds how much of style.css is scanned for the
// conventional key:value comment header.
const styleHeaderLimit = 2000

// detectTheme picks the active theme as the most frequently referenced
// /wp-content/themes/<slug>/ path: the active theme's stylesheet and
// scripts are linked most often. The theme's style.css header then
// supplies name, version and author when readable.
func (a *Analyzer) detectTheme(ctx context.Context, p *page) *ThemeInfo {
	matches := themePathRe.FindAllStringSubmatch(p.html, -1)
	if matches == nil {
		return nil
	}
	slugs := make([]string, 0, len(matches))
	for _, m := range matches {
		slugs = append(slugs, m[1])
	}
	slug, _ := mostFrequent(slugs)
	if slug == "" {
		return nil
	}

	info := &ThemeInfo{
		Slug:        slug,
		Name:        titleize(slug),
		TemplateURL: p.join(fmt.Sprintf("/wp-content/themes/%s/", slug)),
		// Synthesized by convention; existence is not verified to keep the
		// probe budget flat.
		ScreenshotURL: p.join(fmt.Sprintf("/wp-content/themes/%s/screenshot.png", slug)),
	}

	resp, err := a.fetcher.Get(ctx, p.join(fmt.Sprintf("/wp-content/themes/%s/style.css", slug)))
	if err != nil || !resp.Success() {
		return info
	}
	header := string(resp.Body)
	if len(header) > styleHeaderLimit {
		header = header[:styleHeaderLimit]
	}
	if m := themeNameRe.FindStringSubmatch(header); m != nil {
		info.Name = strings.TrimSpace(m[1])
	}
	if m := themeVerRe.FindStringSubmatch(header); m != nil {
		info.Version = strings.TrimSpace(m[1])
	}
	if m := themeAuthorRe.FindStringSubmatch(header); m != nil {
		info.Author = strings.TrimSpace(m[1])
	}
	return info
}
