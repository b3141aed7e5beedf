// Package preprocessor cleans raw Reddit text, detects deletion markers,
// and extracts structured signals (URLs, mentions, hashtags, stats) from it.
package preprocessor

import (
	"html"
	"regexp"
	"strings"
)

var (
	urlPattern             = regexp.MustCompile(`(?i)https?://[^\s<>\[\]"'()]+`)
	userMentionPattern     = regexp.MustCompile(`(?i)/?u/([A-Za-z0-9_-]+)`)
	subredditMentionPattern = regexp.MustCompile(`(?i)/?r/([A-Za-z0-9_]+)`)
	hashtagPattern         = regexp.MustCompile(`#([A-Za-z0-9_]+)`)
	multipleSpacesPattern  = regexp.MustCompile(`[ \t]+`)
	multipleNewlinesPattern = regexp.MustCompile(`\n{3,}`)
	sentenceSplitPattern   = regexp.MustCompile(`[.!?]+`)
)

var deletedMarkers = map[string]struct{}{
	"[deleted]":          {},
	"[removed]":          {},
	"[deleted by user]":  {},
}

// CleanText unescapes HTML entities, strips URLs, collapses whitespace,
// and caps consecutive blank lines at one.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := html.UnescapeString(text)
	cleaned = urlPattern.ReplaceAllString(cleaned, "")
	cleaned = multipleSpacesPattern.ReplaceAllString(cleaned, " ")
	cleaned = multipleNewlinesPattern.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// IsDeletedContent reports whether text is one of Reddit's deletion
// markers, case-insensitively.
func IsDeletedContent(text string) bool {
	_, ok := deletedMarkers[strings.ToLower(strings.TrimSpace(text))]
	return ok
}

// NormalizeAuthor returns "" when author is a deletion marker in any of
// its common forms, otherwise the trimmed original value.
func NormalizeAuthor(author string) string {
	trimmed := strings.TrimSpace(author)
	switch strings.ToLower(trimmed) {
	case "[deleted]", "deleted", "[removed]":
		return ""
	default:
		return trimmed
	}
}

// ExtractURLs returns the distinct URLs in text, lowercased, in
// first-seen order.
func ExtractURLs(text string) []string {
	return extractDistinct(urlPattern, text, 0, strings.ToLower)
}

// ExtractMentions returns the distinct u/ and r/ mentions in text
// (without the leading slash or prefix), lowercased, in first-seen order.
func ExtractMentions(text string) (users []string, subreddits []string) {
	users = extractDistinct(userMentionPattern, text, 1, strings.ToLower)
	subreddits = extractDistinct(subredditMentionPattern, text, 1, strings.ToLower)
	return users, subreddits
}

// ExtractHashtags returns the distinct hashtags in text, lowercased.
func ExtractHashtags(text string) []string {
	return extractDistinct(hashtagPattern, text, 1, strings.ToLower)
}

// RemoveMentions strips all u/ and r/ mentions from text.
func RemoveMentions(text string) string {
	out := userMentionPattern.ReplaceAllString(text, "")
	out = subredditMentionPattern.ReplaceAllString(out, "")
	return out
}

func extractDistinct(pattern *regexp.Regexp, text string, group int, normalize func(string) string) []string {
	matches := pattern.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		val := m[0]
		if group > 0 && group < len(m) {
			val = m[group]
		}
		val = normalize(val)
		if _, ok := seen[val]; ok {
			continue
		}
		seen[val] = struct{}{}
		out = append(out, val)
	}
	return out
}

// TextStats holds simple structural counts over a piece of text.
type TextStats struct {
	CharCount      int
	WordCount      int
	SentenceCount  int
	ParagraphCount int
	URLCount       int
}

// GetTextStats computes structural stats over the cleaned form of text.
func GetTextStats(text string) TextStats {
	cleaned := CleanText(text)
	if cleaned == "" {
		return TextStats{}
	}

	words := strings.Fields(cleaned)
	sentences := sentenceSplitPattern.Split(cleaned, -1)
	sentenceCount := countNonEmpty(sentences)
	paragraphs := strings.Split(cleaned, "\n\n")
	paragraphCount := countNonEmpty(paragraphs)

	return TextStats{
		CharCount:      len([]rune(cleaned)),
		WordCount:      len(words),
		SentenceCount:  max1(sentenceCount),
		ParagraphCount: max1(paragraphCount),
		URLCount:       len(ExtractURLs(text)),
	}
}

func countNonEmpty(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
