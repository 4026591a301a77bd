package hipaa

import "regexp"

// maskRule is one redaction pattern. Rules are applied independently and in
// order; applying them to already-masked text changes nothing.
type maskRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// maskRules covers the sensitive assignments that show up in logged SQL,
// screenshots, and report attachments.
var maskRules = []maskRule{
	{regexp.MustCompile(`(?i)ssn\s*=\s*'[^']+'`), "ssn = '***'"},
	{regexp.MustCompile(`(?i)social_security_number\s*=\s*'[^']+'`), "social_security_number = '***'"},
	{regexp.MustCompile(`(?i)password\s*=\s*'[^']+'`), "password = '***'"},
	{regexp.MustCompile(`(?i)token\s*=\s*'[^']+'`), "token = '***'"},
}

// Mask redacts sensitive substrings from text about to be logged or
// displayed. Idempotent: masking masked text is a no-op.
func Mask(text string) string {
	for _, rule := range maskRules {
		text = rule.pattern.ReplaceAllString(text, rule.replacement)
	}
	return text
}
