package wp

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// wpFilePaths are probed for existence when the cheap homepage signals
// miss. A blocked or redirected response still counts as evidence the
// resource exists.
var wpFilePaths = []string{"/wp-login.php", "/xmlrpc.php", "/wp-admin/"}

// detectPresence decides whether the site runs WordPress. The signals are
// independent evidence combined with OR, so the first positive short-circuits.
func (a *Analyzer) detectPresence(ctx context.Context, p *page) bool {
	// Signal 1: meta generator tag, no extra network cost.
	if strings.Contains(strings.ToLower(metaGenerator(p)), "wordpress") {
		return true
	}

	// Signal 2: wp-content / wp-includes anywhere in the raw markup.
	if strings.Contains(p.html, "wp-content") || strings.Contains(p.html, "wp-includes") {
		return true
	}

	// Signal 3: the REST API root answers.
	if resp, err := a.fetcher.Get(ctx, p.join("/wp-json/")); err == nil && resp.StatusCode == http.StatusOK {
		return true
	}

	// Signal 4: well-known WordPress files exist, probed in parallel.
	return a.probeWPFiles(ctx, p)
}

func (a *Analyzer) probeWPFiles(ctx context.Context, p *page) bool {
	results := make([]bool, len(wpFilePaths))
	var wg sync.WaitGroup
	for i, path := range wpFilePaths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			resp, err := a.fetcher.Head(ctx, p.join(path))
			if err != nil {
				return
			}
			switch resp.StatusCode {
			case http.StatusOK, http.StatusFound, http.StatusForbidden:
				results[i] = true
			}
		}(i, path)
	}
	wg.Wait()
	for _, hit := range results {
		if hit {
			return true
		}
	}
	return false
}

// metaGenerator returns the content of the homepage's generator meta tag.
func metaGenerator(p *page) string {
	content, _ := p.doc.Find(`meta[name="generator"]`).First().Attr("content")
	return strings.TrimSpace(content)
}
