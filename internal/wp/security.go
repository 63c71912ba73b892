package wp

import (
	"context"
	"net/http"
	"strings"
	"sync"
)

// detectSecurity probes the security posture flags. Each flag comes from
// its own probe; a failed probe leaves the flag false rather than guessing
// from a neighboring signal.
func (a *Analyzer) detectSecurity(ctx context.Context, p *page) *SecurityInfo {
	info := &SecurityInfo{}
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		// XML-RPC answers GET/HEAD with 405 "POST requests only", so a 405
		// is as good as a 200 for reachability.
		resp, err := a.fetcher.Head(ctx, p.join("/xmlrpc.php"))
		if err == nil && (resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusMethodNotAllowed) {
			info.XMLRPCEnabled = true
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := a.fetcher.Get(ctx, p.join("/wp-json/"))
		if err == nil && resp.StatusCode == http.StatusOK {
			info.RESTAPIEnabled = true
			// Same endpoint, separate named flag for API clarity.
			info.WPJSONExposed = true
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := a.fetcher.Get(ctx, p.join("/wp-content/uploads/"))
		if err == nil && resp.Success() &&
			strings.Contains(strings.ToLower(string(resp.Body)), "index of") {
			info.DirectoryListing = true
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		resp, err := a.fetcher.Head(ctx, p.join("/readme.html"))
		if err == nil && resp.StatusCode == http.StatusOK {
			info.ReadmeAccessible = true
		}
	}()

	wg.Wait()
	return info
}
