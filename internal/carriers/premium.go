package carriers

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// Carriers are inconsistent about premium tag naming, so extraction walks an
// ordered chain of candidates per role and the first numerically parseable
// match wins.
var (
	grossPremiumTags = []string{"BrutPrim", "brutPrim", "GrossPremium", "ToplamPrim"}
	netPremiumTags   = []string{"NetPrim", "netPrim", "NetPremium"}
)

var (
	tagPatternMu    sync.Mutex
	tagPatternCache = map[string]*regexp.Regexp{}
)

func tagPattern(tag string) *regexp.Regexp {
	tagPatternMu.Lock()
	defer tagPatternMu.Unlock()

	if pattern, ok := tagPatternCache[tag]; ok {
		return pattern
	}
	pattern := regexp.MustCompile(`<` + tag + `[^>]*>([^<]+)</` + tag + `>`)
	tagPatternCache[tag] = pattern
	return pattern
}

// extractTagText returns the text content of the first occurrence of tag.
func extractTagText(raw, tag string) (string, bool) {
	match := tagPattern(tag).FindStringSubmatch(raw)
	if match == nil {
		return "", false
	}
	return match[1], true
}

// parseDecimal parses a carrier decimal, normalizing comma separators.
func parseDecimal(value string) (float64, bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
	parsed, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// extractPremium walks the tag chain and returns the first parseable value.
func extractPremium(raw string, tags []string) (float64, bool) {
	for _, tag := range tags {
		text, ok := extractTagText(raw, tag)
		if !ok {
			continue
		}
		if value, ok := parseDecimal(text); ok {
			return value, true
		}
	}
	return 0, false
}

// extractGrossPremium extracts the gross premium from a raw SOAP body.
func extractGrossPremium(raw string) (float64, bool) {
	return extractPremium(raw, grossPremiumTags)
}

// extractNetPremium extracts the net premium from a raw SOAP body.
func extractNetPremium(raw string) (float64, bool) {
	return extractPremium(raw, netPremiumTags)
}
