package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var (
	unixSecondsPattern = regexp.MustCompile(`^\d{10}$`)
	querySeparator     = regexp.MustCompile(`(?i)(?:^|\s+)(?:and\s+)?what\s+is\s+|\s+and\s+`)
)

// NormalizeURL is the identity key for search results: the URL without its
// query string and without trailing slashes.
func NormalizeURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return ""
	}
	u, _, _ = strings.Cut(u, "?")
	return strings.TrimRight(u, "/")
}

// ConvertDate renders a 10 digit Unix-seconds value as YYYY-MM-DD (UTC).
// Anything else is returned unchanged.
func ConvertDate(v string) string {
	if !unixSecondsPattern.MatchString(v) {
		return v
	}
	sec, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return v
	}
	return time.Unix(sec, 0).UTC().Format("2006-01-02")
}

// pubDate normalises a raw pub_date field, which shows up as a string, an
// integer, or a float with a fractional part.
func pubDate(v gjson.Result) string {
	var s string
	switch v.Type {
	case gjson.String:
		s = v.String()
	case gjson.Number:
		s = v.Raw
	default:
		return ""
	}
	s, _, _ = strings.Cut(s, ".")
	return ConvertDate(s)
}

// SplitQuery breaks a q value that concatenates several questions with
// " and " or " what is ". A leading "what is" and a run such as
// " and what is " count as one separator. Parts are trimmed and empty parts
// dropped.
func SplitQuery(q string) []string {
	var parts []string
	for _, part := range querySeparator.Split(q, -1) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

// scalarString reads a string or number field as text.
func scalarString(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return strings.TrimSpace(v.String())
	case gjson.Number:
		return v.Raw
	default:
		return ""
	}
}

// firstString returns the first non-empty scalar among the given paths.
func firstString(obj gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := scalarString(obj.Get(p)); s != "" {
			return s
		}
	}
	return ""
}
