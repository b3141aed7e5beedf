package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrScheduleFileNotFound is returned when the configured schedule path doesn't exist.
var ErrScheduleFileNotFound = errors.New("schedule file not found")

// SubredditSchedule describes one watched subreddit's collection cadence,
// as loaded from an optional YAML config file alongside the env-based config.
type SubredditSchedule struct {
	Subreddit       string `yaml:"subreddit"`
	Sort            string `yaml:"sort"`
	Limit           int    `yaml:"limit"`
	IntervalMinutes int    `yaml:"interval_minutes"`
}

type scheduleFile struct {
	Subreddits []SubredditSchedule `yaml:"subreddits"`
}

// LoadScheduleFile reads a YAML file listing per-subreddit collection schedules.
// Entries missing sort/limit/interval_minutes fall back to the given defaults.
func LoadScheduleFile(path string, defaultSort string, defaultLimit, defaultIntervalMinutes int) ([]SubredditSchedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrScheduleFileNotFound, path)
		}
		return nil, fmt.Errorf("failed to read schedule file %s: %w", path, err)
	}

	var parsed scheduleFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse schedule file %s: %w", path, err)
	}

	for i := range parsed.Subreddits {
		s := &parsed.Subreddits[i]
		if s.Sort == "" {
			s.Sort = defaultSort
		}
		if s.Limit == 0 {
			s.Limit = defaultLimit
		}
		if s.IntervalMinutes == 0 {
			s.IntervalMinutes = defaultIntervalMinutes
		}
	}

	return parsed.Subreddits, nil
}
