package wp

import "strings"

// extractMetadata scrapes general site metadata from the homepage <head>.
func extractMetadata(p *page) *SiteMetadata {
	meta := &SiteMetadata{
		Title:     strings.TrimSpace(p.doc.Find("title").First().Text()),
		Generator: metaGenerator(p),
	}
	if desc, ok := p.doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		meta.Description = strings.TrimSpace(desc)
	}
	if lang, ok := p.doc.Find("html").First().Attr("lang"); ok {
		meta.Language = strings.TrimSpace(lang)
	}
	if charset, ok := p.doc.Find("meta[charset]").First().Attr("charset"); ok {
		meta.Charset = strings.TrimSpace(charset)
	}
	return meta
}
