// Package wp implements the WordPress fingerprinting pipeline.
package wp

import "time"

// VersionSource identifies which probe produced a version value.
type VersionSource string

// Version detection sources, in priority order.
const (
	SourceMetaGenerator    VersionSource = "meta_generator"
	SourceRSSFeed          VersionSource = "rss_feed"
	SourceReadmeFile       VersionSource = "readme_file"
	SourceAssetQueryString VersionSource = "asset_query_string"
)

// AnalysisRequest describes one site analysis. DeepScan enables the
// per-plugin readme fetches that recover plugin versions.
type AnalysisRequest struct {
	URL      string `json:"url"`
	DeepScan bool   `json:"deep_scan"`
}

// WordPressVersion carries a detected core version and its source.
type WordPressVersion struct {
	Version      string        `json:"version"`
	DetectedFrom VersionSource `json:"detected_from"`
}

// ThemeInfo describes the active theme. Fields are independently optional
// because they come from different extraction sources.
type ThemeInfo struct {
	Name          string `json:"name,omitempty"`
	Slug          string `json:"slug,omitempty"`
	Version       string `json:"version,omitempty"`
	Author        string `json:"author,omitempty"`
	TemplateURL   string `json:"template_url,omitempty"`
	ScreenshotURL string `json:"screenshot_url,omitempty"`
}

// PluginInfo describes one detected plugin. Slug is always set once the
// plugin is detected; Version is only populated by a deep scan.
type PluginInfo struct {
	Slug         string `json:"slug"`
	Name         string `json:"name,omitempty"`
	Version      string `json:"version,omitempty"`
	Description  string `json:"description,omitempty"`
	DetectedFrom string `json:"detected_from,omitempty"`
}

// ServerInfo is read from homepage response headers only.
type ServerInfo struct {
	Server     string `json:"server,omitempty"`
	PHPVersion string `json:"php_version,omitempty"`
	PoweredBy  string `json:"powered_by,omitempty"`
}

// SecurityInfo holds independently probed boolean flags. A probe that fails
// leaves its flag false; flags are never inferred from each other.
type SecurityInfo struct {
	XMLRPCEnabled    bool `json:"xmlrpc_enabled"`
	RESTAPIEnabled   bool `json:"rest_api_enabled"`
	DirectoryListing bool `json:"directory_listing"`
	ReadmeAccessible bool `json:"readme_accessible"`
	WPJSONExposed    bool `json:"wp_json_exposed"`
}

// SiteMetadata is scraped from the homepage <head>.
type SiteMetadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Charset     string `json:"charset,omitempty"`
	Generator   string `json:"generator,omitempty"`
}

// AnalysisResult aggregates everything detected for one site. It is built
// fresh per request and discarded once the response is written.
//
// Invariant: when IsWordPress is false, Version and Theme are nil and
// Plugins is empty.
type AnalysisResult struct {
	URL            string            `json:"url"`
	FinalURL       string            `json:"final_url,omitempty"`
	IsWordPress    bool              `json:"is_wordpress"`
	Version        *WordPressVersion `json:"wordpress_version,omitempty"`
	Theme          *ThemeInfo        `json:"theme,omitempty"`
	Plugins        []PluginInfo      `json:"plugins"`
	Server         *ServerInfo       `json:"server,omitempty"`
	Security       *SecurityInfo     `json:"security,omitempty"`
	Metadata       *SiteMetadata     `json:"metadata,omitempty"`
	ScanTimestamp  time.Time         `json:"scan_timestamp"`
	ScanDurationMS int64             `json:"scan_duration_ms"`
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }
