package alertengine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/reddit-insight/internal/apierr"
	"github.com/onnwee/reddit-insight/internal/logger"
	"github.com/onnwee/reddit-insight/internal/metrics"
	"github.com/onnwee/reddit-insight/internal/notifier"
)

var typeLabels = map[AlertType]string{
	AlertActivitySpike:  "Activity spike",
	AlertKeywordSurge:   "Keyword surge",
	AlertSentimentShift: "Sentiment shift",
	AlertNewTrending:    "New trending post",
	AlertCustom:         "Alert",
}

// Engine evaluates rules against metrics, enforces cooldowns, and
// dispatches fired alerts to registered notifiers. Locking is at engine
// granularity: a single mutex guards rules, cooldowns, history, and the
// notifier registry, since alert volume is low enough that coarse
// locking never becomes a bottleneck.
type Engine struct {
	mu         sync.Mutex
	rules      map[string]*AlertRule
	notifiers  map[string]notifier.Notifier
	cooldowns  map[string]time.Time
	history    []Alert
	maxHistory int
	cooldown   time.Duration
}

// Config configures an Engine.
type Config struct {
	MaxHistory      int
	CooldownMinutes int
}

func New(cfg Config) *Engine {
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 1000
	}
	cooldownMinutes := cfg.CooldownMinutes
	if cooldownMinutes <= 0 {
		cooldownMinutes = 5
	}
	return &Engine{
		rules:      make(map[string]*AlertRule),
		notifiers:  make(map[string]notifier.Notifier),
		cooldowns:  make(map[string]time.Time),
		maxHistory: maxHistory,
		cooldown:   time.Duration(cooldownMinutes) * time.Minute,
	}
}

// RegisterNotifier adds or replaces a notifier under its Name().
func (e *Engine) RegisterNotifier(n notifier.Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifiers[n.Name()] = n
}

// UnregisterNotifier removes a notifier by name.
func (e *Engine) UnregisterNotifier(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.notifiers, name)
}

// AddRule registers a new rule. Returns an error if id is already in use.
func (e *Engine) AddRule(rule AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[rule.ID]; exists {
		return apierr.NewAlertRuleDuplicate(rule.ID)
	}
	cp := rule
	e.rules[rule.ID] = &cp
	return nil
}

// UpdateRule replaces an existing rule. Returns an error if id is unknown.
func (e *Engine) UpdateRule(rule AlertRule) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[rule.ID]; !exists {
		return apierr.NewAlertRuleNotFound(rule.ID)
	}
	cp := rule
	e.rules[rule.ID] = &cp
	return nil
}

// RemoveRule deletes a rule and clears its cooldown.
func (e *Engine) RemoveRule(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.rules[id]; !exists {
		return apierr.NewAlertRuleNotFound(id)
	}
	delete(e.rules, id)
	delete(e.cooldowns, id)
	return nil
}

// GetRule returns a copy of the rule with the given id.
func (e *Engine) GetRule(id string) (*AlertRule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.rules[id]
	if !ok {
		return nil, apierr.NewAlertRuleNotFound(id)
	}
	cp := *rule
	return &cp, nil
}

// GetRules returns all rules, optionally filtered to enabled ones.
func (e *Engine) GetRules(enabledOnly bool) []AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]AlertRule, 0, len(e.rules))
	for _, rule := range e.rules {
		if enabledOnly && !rule.Enabled {
			continue
		}
		out = append(out, *rule)
	}
	return out
}

func (e *Engine) setEnabled(id string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rule, ok := e.rules[id]
	if !ok {
		return apierr.NewAlertRuleNotFound(id)
	}
	rule.Enabled = enabled
	return nil
}

func (e *Engine) EnableRule(id string) error  { return e.setEnabled(id, true) }
func (e *Engine) DisableRule(id string) error { return e.setEnabled(id, false) }

// CheckRules evaluates every enabled, subreddit-matching rule (optionally
// filtered to a single AlertType) against metrics, skipping rules in
// cooldown, and returns the alerts fired. Rules are visited in Go map
// order, so the order of the returned alerts is not defined.
func (e *Engine) CheckRules(subreddit string, metricsValues map[string]float64, alertType *AlertType) []Alert {
	e.mu.Lock()
	candidates := make([]*AlertRule, 0, len(e.rules))
	for _, rule := range e.rules {
		candidates = append(candidates, rule)
	}
	e.mu.Unlock()

	var fired []Alert
	for _, rule := range candidates {
		if !rule.Enabled {
			continue
		}
		if alertType != nil && rule.Type != *alertType {
			continue
		}
		if rule.Subreddit != "" && !strings.EqualFold(rule.Subreddit, subreddit) {
			continue
		}
		if e.isInCooldown(rule.ID) {
			continue
		}

		value := metricsValues[rule.Condition.Field]
		if !rule.Condition.Evaluate(value) {
			continue
		}

		alert := e.createAlert(rule, subreddit, value)
		e.recordCooldown(rule.ID)
		fired = append(fired, alert)
		metrics.AlertRuleFiresTotal.WithLabelValues(rule.ID).Inc()
		logger.Info("alert rule fired", "rule_id", rule.ID, "subreddit", subreddit, "value", value)
	}
	return fired
}

func (e *Engine) isInCooldown(ruleID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	last, ok := e.cooldowns[ruleID]
	if !ok {
		return false
	}
	return time.Since(last) < e.cooldown
}

func (e *Engine) recordCooldown(ruleID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cooldowns[ruleID] = time.Now()
}

func (e *Engine) createAlert(rule *AlertRule, subreddit string, value float64) Alert {
	label, ok := typeLabels[rule.Type]
	if !ok {
		label = typeLabels[AlertCustom]
	}
	message := fmt.Sprintf("%s in r/%s: %s (value: %.2f)", label, subreddit, rule.Name, value)

	return Alert{
		ID:        uuid.NewString(),
		RuleID:    rule.ID,
		Type:      rule.Type,
		Message:   message,
		Subreddit: subreddit,
		TriggeredAt: time.Now().UTC(),
		Data: map[string]any{
			"value":     value,
			"threshold": rule.Condition.Threshold,
			"rule_name": rule.Name,
		},
	}
}

// ProcessAlert dispatches alert to every notifier named by its rule,
// never returning an error itself: per-notifier failures are captured
// on the alert's Error field and the alert is always recorded to history.
func (e *Engine) ProcessAlert(ctx context.Context, alert Alert) Alert {
	e.mu.Lock()
	rule, ok := e.rules[alert.RuleID]
	var notifierNames []string
	var metadata map[string]any
	if ok {
		notifierNames = append([]string(nil), rule.Notifiers...)
		metadata = rule.Metadata
	}
	e.mu.Unlock()

	if !ok {
		alert.Error = "rule no longer exists: " + alert.RuleID
		e.appendHistory(alert)
		return alert
	}

	payload := notifier.AlertPayload{
		ID:          alert.ID,
		Type:        string(alert.Type),
		Message:     alert.Message,
		Data:        alert.Data,
		Subreddit:   alert.Subreddit,
		TriggeredAt: alert.TriggeredAt.Format(time.RFC3339),
	}

	var sentTo []string
	var errs []string
	var resultMu sync.Mutex
	var wg sync.WaitGroup

	for _, name := range notifierNames {
		e.mu.Lock()
		n, found := e.notifiers[name]
		e.mu.Unlock()
		if !found {
			resultMu.Lock()
			errs = append(errs, name+": notifier not registered")
			resultMu.Unlock()
			metrics.AlertNotifierDeliveriesTotal.WithLabelValues(name, "not_found").Inc()
			continue
		}

		wg.Add(1)
		go func(name string, n notifier.Notifier) {
			defer wg.Done()

			ok, err := n.Send(ctx, payload, metadata)

			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", name, err))
				metrics.AlertNotifierDeliveriesTotal.WithLabelValues(name, "error").Inc()
				return
			}
			if ok {
				sentTo = append(sentTo, name)
				metrics.AlertNotifierDeliveriesTotal.WithLabelValues(name, "success").Inc()
			} else {
				errs = append(errs, name+": delivery returned false")
				metrics.AlertNotifierDeliveriesTotal.WithLabelValues(name, "failure").Inc()
			}
		}(name, n)
	}
	wg.Wait()

	alert.SentTo = sentTo
	alert.Sent = len(sentTo) > 0
	if len(errs) > 0 {
		alert.Error = strings.Join(errs, "; ")
	}

	e.appendHistory(alert)
	return alert
}

func (e *Engine) appendHistory(alert Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append([]Alert{alert}, e.history...)
	if len(e.history) > e.maxHistory {
		e.history = e.history[:e.maxHistory]
	}
}

// HistoryFilter narrows GetHistory results.
type HistoryFilter struct {
	RuleID    string
	Subreddit string
	SentOnly  bool
	Limit     int
}

// GetHistory returns alerts matching filter, newest first.
func (e *Engine) GetHistory(filter HistoryFilter) []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Alert, 0, len(e.history))
	for _, a := range e.history {
		if filter.RuleID != "" && a.RuleID != filter.RuleID {
			continue
		}
		if filter.Subreddit != "" && !strings.EqualFold(a.Subreddit, filter.Subreddit) {
			continue
		}
		if filter.SentOnly && !a.Sent {
			continue
		}
		out = append(out, a)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out
}

// ClearHistory empties the alert history.
func (e *Engine) ClearHistory() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = nil
}
