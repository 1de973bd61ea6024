package source

import "regexp"

// srcHrefRegex pulls src= and href= attribute values out of raw HTML.
var srcHrefRegex = regexp.MustCompile(`(?i)(?:src|href)\s*=\s*["']([^"']+)["']`)

// bareURLRegex matches http(s) URLs appearing in plain text.
var bareURLRegex = regexp.MustCompile(`https?://[^\s"'<>]+`)

// ExtractLinks scans a raw HTML/text body and returns every absolute URL
// found in src/href attributes or as bare text, de-duplicated in order of
// first appearance.
func ExtractLinks(rawBody string) []string {
	seen := make(map[string]bool)
	var links []string
	add := func(u string) {
		if len(u) < 8 || (u[:7] != "http://" && u[:8] != "https://") {
			return
		}
		if !seen[u] {
			seen[u] = true
			links = append(links, u)
		}
	}

	for _, m := range srcHrefRegex.FindAllStringSubmatch(rawBody, -1) {
		add(m[1])
	}
	for _, m := range bareURLRegex.FindAllString(rawBody, -1) {
		add(m)
	}
	return links
}
