package config

import (
	"os"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	ResetForTest()
	os.Unsetenv("SCHEDULER_SORT")
	os.Unsetenv("MONITOR_SPIKE_THRESHOLD")
	defer ResetForTest()

	cfg := Load()
	if cfg.SchedulerSort != "hot" {
		t.Errorf("expected default sort 'hot', got %q", cfg.SchedulerSort)
	}
	if cfg.MonitorSpikeThreshold != 2.0 {
		t.Errorf("expected default spike threshold 2.0, got %f", cfg.MonitorSpikeThreshold)
	}
	if cfg.ServerAddress != ":8080" {
		t.Errorf("expected default server address :8080, got %q", cfg.ServerAddress)
	}
}

func TestLoadReadsEnvOverrides(t *testing.T) {
	ResetForTest()
	os.Setenv("SCHEDULER_SORT", "TOP")
	os.Setenv("SCHEDULER_LIMIT", "50")
	defer func() {
		os.Unsetenv("SCHEDULER_SORT")
		os.Unsetenv("SCHEDULER_LIMIT")
		ResetForTest()
	}()

	cfg := Load()
	if cfg.SchedulerSort != "top" {
		t.Errorf("expected sort lowercased to 'top', got %q", cfg.SchedulerSort)
	}
	if cfg.SchedulerLimit != 50 {
		t.Errorf("expected limit 50, got %d", cfg.SchedulerLimit)
	}
}

func TestLoadIsCachedAcrossCalls(t *testing.T) {
	ResetForTest()
	os.Setenv("SCHEDULER_LIMIT", "10")
	defer func() {
		os.Unsetenv("SCHEDULER_LIMIT")
		ResetForTest()
	}()

	first := Load()
	os.Setenv("SCHEDULER_LIMIT", "999")
	second := Load()

	if first != second {
		t.Error("expected Load to return the same cached pointer")
	}
	if second.SchedulerLimit != 10 {
		t.Errorf("expected cached value 10 to be unaffected by later env changes, got %d", second.SchedulerLimit)
	}
}

func TestGetEnvBoolVariants(t *testing.T) {
	cases := map[string]bool{
		"1":     true,
		"true":  true,
		"yes":   true,
		"on":    true,
		"0":     false,
		"false": false,
		"no":    false,
		"off":   false,
	}
	for input, want := range cases {
		os.Setenv("TEST_BOOL_FLAG", input)
		if got := getEnvBool("TEST_BOOL_FLAG", !want); got != want {
			t.Errorf("getEnvBool(%q) = %v, want %v", input, got, want)
		}
	}
	os.Unsetenv("TEST_BOOL_FLAG")
}
