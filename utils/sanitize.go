package utils

import "github.com/microcosm-cc/bluemonday"

// Messages between users and the administration are plain text, so strip
// all markup rather than allowing a UGC subset.
var sanitizer = bluemonday.StrictPolicy()

// SanitizeText removes any HTML from user supplied content.
func SanitizeText(input string) string {
	return sanitizer.Sanitize(input)
}
