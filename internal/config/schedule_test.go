package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadScheduleFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.yaml")
	content := `
subreddits:
  - subreddit: golang
    sort: top
    limit: 50
    interval_minutes: 10
  - subreddit: programming
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write schedule file: %v", err)
	}

	schedules, err := LoadScheduleFile(path, "hot", 25, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(schedules) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(schedules))
	}

	first := schedules[0]
	if first.Subreddit != "golang" || first.Sort != "top" || first.Limit != 50 || first.IntervalMinutes != 10 {
		t.Errorf("unexpected first entry: %+v", first)
	}

	second := schedules[1]
	if second.Subreddit != "programming" || second.Sort != "hot" || second.Limit != 25 || second.IntervalMinutes != 15 {
		t.Errorf("expected defaults applied to second entry, got %+v", second)
	}
}

func TestLoadScheduleFileMissing(t *testing.T) {
	_, err := LoadScheduleFile(filepath.Join(t.TempDir(), "missing.yaml"), "hot", 25, 15)
	if !errors.Is(err, ErrScheduleFileNotFound) {
		t.Fatalf("expected ErrScheduleFileNotFound, got %v", err)
	}
}

func TestLoadScheduleFileInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("subreddits: [this is not valid"), 0644); err != nil {
		t.Fatalf("failed to write schedule file: %v", err)
	}

	if _, err := LoadScheduleFile(path, "hot", 25, 15); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}
