package alertengine

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/reddit-insight/internal/notifier"
)

type fakeNotifier struct {
	name    string
	ok      bool
	err     error
	sent    int
	payload notifier.AlertPayload
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(ctx context.Context, payload notifier.AlertPayload, metadata map[string]any) (bool, error) {
	f.sent++
	f.payload = payload
	return f.ok, f.err
}

func TestAddRuleDuplicateRejected(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{ID: "r1", Name: "spike", Enabled: true}
	if err := e.AddRule(rule); err != nil {
		t.Fatalf("unexpected error on first add: %v", err)
	}
	if err := e.AddRule(rule); err == nil {
		t.Fatal("expected duplicate rule error")
	}
}

func TestCheckRulesFiresOnThresholdBreach(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{
		ID:        "r1",
		Name:      "activity spike rule",
		Subreddit: "golang",
		Type:      AlertActivitySpike,
		Condition: AlertCondition{Field: "spike_factor", Operator: OpGreaterOrEqual, Threshold: 2.0},
		Enabled:   true,
	}
	if err := e.AddRule(rule); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fired := e.CheckRules("golang", map[string]float64{"spike_factor": 3.0}, nil)
	if len(fired) != 1 {
		t.Fatalf("expected 1 fired alert, got %d", len(fired))
	}
}

func TestCheckRulesSkipsDisabledRule(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{
		ID:        "r1",
		Condition: AlertCondition{Field: "spike_factor", Operator: OpGreaterOrEqual, Threshold: 2.0},
		Enabled:   false,
	}
	_ = e.AddRule(rule)

	fired := e.CheckRules("golang", map[string]float64{"spike_factor": 10.0}, nil)
	if len(fired) != 0 {
		t.Fatalf("expected no alerts from a disabled rule, got %d", len(fired))
	}
}

func TestCheckRulesRespectsCooldown(t *testing.T) {
	e := New(Config{CooldownMinutes: 5})
	rule := AlertRule{
		ID:        "r1",
		Condition: AlertCondition{Field: "spike_factor", Operator: OpGreaterOrEqual, Threshold: 2.0},
		Enabled:   true,
	}
	_ = e.AddRule(rule)

	first := e.CheckRules("golang", map[string]float64{"spike_factor": 5.0}, nil)
	if len(first) != 1 {
		t.Fatalf("expected first check to fire, got %d", len(first))
	}

	second := e.CheckRules("golang", map[string]float64{"spike_factor": 5.0}, nil)
	if len(second) != 0 {
		t.Fatalf("expected second check within cooldown to be suppressed, got %d", len(second))
	}
}

func TestCheckRulesFiltersBySubreddit(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{
		ID:        "r1",
		Subreddit: "golang",
		Condition: AlertCondition{Field: "spike_factor", Operator: OpGreaterOrEqual, Threshold: 2.0},
		Enabled:   true,
	}
	_ = e.AddRule(rule)

	fired := e.CheckRules("rust", map[string]float64{"spike_factor": 5.0}, nil)
	if len(fired) != 0 {
		t.Fatalf("expected no alerts for a non-matching subreddit, got %d", len(fired))
	}
}

func TestProcessAlertCapturesPerNotifierFailure(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{ID: "r1", Notifiers: []string{"good", "bad", "missing"}, Enabled: true}
	_ = e.AddRule(rule)

	good := &fakeNotifier{name: "good", ok: true}
	bad := &fakeNotifier{name: "bad", err: errors.New("smtp connection refused")}
	e.RegisterNotifier(good)
	e.RegisterNotifier(bad)

	alert := Alert{ID: "a1", RuleID: "r1", Subreddit: "golang"}
	result := e.ProcessAlert(context.Background(), alert)

	if !result.Sent {
		t.Error("expected Sent=true since one notifier succeeded")
	}
	if len(result.SentTo) != 1 || result.SentTo[0] != "good" {
		t.Errorf("expected SentTo=[good], got %v", result.SentTo)
	}
	if result.Error == "" {
		t.Error("expected Error to capture the bad and missing notifier failures")
	}
	if good.sent != 1 {
		t.Errorf("expected good notifier called once, got %d", good.sent)
	}
}

func TestProcessAlertUnknownRuleDoesNotPanic(t *testing.T) {
	e := New(Config{})
	alert := Alert{ID: "a1", RuleID: "nonexistent"}
	result := e.ProcessAlert(context.Background(), alert)
	if result.Error == "" {
		t.Error("expected an error noting the rule no longer exists")
	}
	if result.Sent {
		t.Error("expected Sent=false for an unresolved rule")
	}
}

func TestGetHistoryFiltersSentOnly(t *testing.T) {
	e := New(Config{})
	rule := AlertRule{ID: "r1", Notifiers: []string{"n"}, Enabled: true}
	_ = e.AddRule(rule)
	n := &fakeNotifier{name: "n", ok: false}
	e.RegisterNotifier(n)

	e.ProcessAlert(context.Background(), Alert{ID: "a1", RuleID: "r1"})

	history := e.GetHistory(HistoryFilter{SentOnly: true})
	if len(history) != 0 {
		t.Errorf("expected no sent alerts in history, got %d", len(history))
	}

	all := e.GetHistory(HistoryFilter{})
	if len(all) != 1 {
		t.Errorf("expected 1 alert recorded regardless of delivery outcome, got %d", len(all))
	}
}
