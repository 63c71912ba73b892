package wp

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

var (
	pluginPathRe   = regexp.MustCompile(`(?i)/wp-content/plugins/([^/'"?\s>]+)`)
	pluginSlugRe   = regexp.MustCompile(`(?i)^[a-z0-9_-]+$`)
	stableTagRe    = regexp.MustCompile(`(?i)Stable tag:\s*([\d.]+)`)
	descSectionRe  = regexp.MustCompile(`(?is)==\s*Description\s*==\s*(.*?)(?:\n==|\z)`)
	htmlTagStripRe = regexp.MustCompile(`<[^>]+>`)
)

// readmeScanLimit bounds how much of a plugin readme.txt is parsed.
const readmeScanLimit = 3000

// detectPlugins extracts plugin slugs from /wp-content/plugins/ asset paths
// in the homepage markup, deduplicated and sorted. A deep scan additionally
// fetches each plugin's readme.txt to recover the stable tag version; those
// fetches are bounded and individually degradable, so a missing readme only
// leaves that one plugin without a version. Deep and shallow scans always
// agree on the slug set.
func (a *Analyzer) detectPlugins(ctx context.Context, p *page, deep bool) []PluginInfo {
	seen := make(map[string]struct{})
	var slugs []string
	for _, m := range pluginPathRe.FindAllStringSubmatch(p.html, -1) {
		slug := m[1]
		if len(slug) < 2 || !pluginSlugRe.MatchString(slug) {
			continue
		}
		if _, ok := seen[slug]; ok {
			continue
		}
		seen[slug] = struct{}{}
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	plugins := make([]PluginInfo, len(slugs))
	for i, slug := range slugs {
		plugins[i] = PluginInfo{
			Slug:         slug,
			Name:         titleize(slug),
			DetectedFrom: "asset_path",
		}
	}
	if !deep || len(plugins) == 0 {
		return plugins
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.DeepScanConcurrency)
	for i := range plugins {
		i := i
		g.Go(func() error {
			// Each goroutine owns a distinct slice element.
			plugins[i].Version, plugins[i].Description = a.fetchPluginReadme(gctx, p, plugins[i].Slug)
			return nil
		})
	}
	// Workers never return errors; failures degrade single fields.
	_ = g.Wait()
	return plugins
}

// fetchPluginReadme reads a plugin's readme.txt for the stable tag and the
// leading description section. Sites that rewrite missing files to an HTML
// error page are filtered by sniffing the payload.
func (a *Analyzer) fetchPluginReadme(ctx context.Context, p *page, slug string) (version, description string) {
	resp, err := a.fetcher.Get(ctx, p.join(fmt.Sprintf("/wp-content/plugins/%s/readme.txt", slug)))
	if err != nil || !resp.Success() {
		return "", ""
	}
	content := string(resp.Body)
	if len(content) > readmeScanLimit {
		content = content[:readmeScanLimit]
	}
	trimmed := strings.ToLower(strings.TrimSpace(content))
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") {
		return "", ""
	}
	if m := stableTagRe.FindStringSubmatch(content); m != nil {
		version = strings.TrimSpace(m[1])
	}
	if m := descSectionRe.FindStringSubmatch(content); m != nil {
		desc := htmlTagStripRe.ReplaceAllString(m[1], "")
		desc = strings.Join(strings.Fields(desc), " ")
		if len(desc) > 200 {
			desc = desc[:200]
		}
		if len(desc) > 10 {
			description = desc
		}
	}
	return version, description
}
