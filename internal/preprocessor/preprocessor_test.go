package preprocessor

import "testing"

func TestCleanText(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"strips urls", "check this out https://example.com/path now", "check this out now"},
		{"collapses whitespace", "too    many   spaces", "too many spaces"},
		{"collapses newlines", "line one\n\n\n\nline two", "line one\n\nline two"},
		{"unescapes entities", "Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CleanText(tc.input)
			if got != tc.want {
				t.Errorf("CleanText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestIsDeletedContent(t *testing.T) {
	cases := map[string]bool{
		"[deleted]": true,
		"[removed]": true,
		"":          false,
		"hello":     false,
	}
	for input, want := range cases {
		if got := IsDeletedContent(input); got != want {
			t.Errorf("IsDeletedContent(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNormalizeAuthor(t *testing.T) {
	if got := NormalizeAuthor(""); got != "" {
		t.Errorf("NormalizeAuthor(\"\") = %q, want empty string", got)
	}
	if got := NormalizeAuthor("some_user"); got != "some_user" {
		t.Errorf("NormalizeAuthor(\"some_user\") = %q, want some_user", got)
	}
}

func TestExtractURLs(t *testing.T) {
	text := "see https://a.com and also https://a.com again, plus http://b.com"
	urls := ExtractURLs(text)
	want := []string{"https://a.com", "http://b.com"}
	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(urls), len(want), urls)
	}
	for i, w := range want {
		if urls[i] != w {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], w)
		}
	}
}

func TestExtractMentions(t *testing.T) {
	users, subs := ExtractMentions("hi /u/alice and r/golang, cc u/alice again")
	if len(users) != 1 || users[0] != "alice" {
		t.Errorf("users = %v, want [alice]", users)
	}
	if len(subs) != 1 || subs[0] != "golang" {
		t.Errorf("subs = %v, want [golang]", subs)
	}
}

func TestExtractHashtags(t *testing.T) {
	tags := ExtractHashtags("loving #golang and #GoLang today, also #testing")
	want := []string{"golang", "testing"}
	if len(tags) != len(want) {
		t.Fatalf("got %v, want %v", tags, want)
	}
}

func TestGetTextStats(t *testing.T) {
	stats := GetTextStats("Hello world. This is great!\n\nSecond paragraph here https://x.com")
	if stats.WordCount == 0 {
		t.Error("expected non-zero word count")
	}
	if stats.SentenceCount < 2 {
		t.Errorf("expected at least 2 sentences, got %d", stats.SentenceCount)
	}
	if stats.ParagraphCount != 2 {
		t.Errorf("expected 2 paragraphs, got %d", stats.ParagraphCount)
	}
	if stats.URLCount != 1 {
		t.Errorf("expected 1 url, got %d", stats.URLCount)
	}
}

func TestGetTextStatsEmpty(t *testing.T) {
	stats := GetTextStats("")
	if stats.WordCount != 0 {
		t.Errorf("expected 0 words for empty text, got %d", stats.WordCount)
	}
}
