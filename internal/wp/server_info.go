package wp

import (
	"net/http"
	"regexp"
)

var phpVersionRe = regexp.MustCompile(`(?i)php/?\s*([\d.]+)`)

// extractServerInfo reads the homepage response headers. No extra network
// calls are made for this detector.
func extractServerInfo(headers http.Header) *ServerInfo {
	info := &ServerInfo{
		Server:    headers.Get("Server"),
		PoweredBy: headers.Get("X-Powered-By"),
	}
	if m := phpVersionRe.FindStringSubmatch(info.PoweredBy); m != nil {
		info.PHPVersion = m[1]
	}
	if info.Server == "" && info.PoweredBy == "" {
		return nil
	}
	return info
}
