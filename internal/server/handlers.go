package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/google/uuid"

	"github.com/onnwee/reddit-insight/internal/alertengine"
	"github.com/onnwee/reddit-insight/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDataSourceStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.source.Status())
}

func (s *Server) handleListMonitors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"subreddits": s.monitors.List()})
}

func (s *Server) handleStopMonitor(w http.ResponseWriter, r *http.Request) {
	subreddit := mux.Vars(r)["subreddit"]
	if err := s.monitors.Stop(subreddit); err != nil {
		apierr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSchedulerRunOnce(w http.ResponseWriter, r *http.Request) {
	run := s.scheduler.RunOnce(r.Context())
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleSchedulerHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.scheduler.History())
}

func (s *Server) handleListAlertRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.alerts.GetRules(false))
}

type createAlertRuleRequest struct {
	Name      string                    `json:"name"`
	Subreddit string                    `json:"subreddit"`
	Type      string                    `json:"type"`
	Field     string                    `json:"field"`
	Operator  string                    `json:"operator"`
	Threshold float64                   `json:"threshold"`
	Notifiers []string                  `json:"notifiers"`
	Metadata  map[string]any            `json:"metadata,omitempty"`
}

func (s *Server) handleCreateAlertRule(w http.ResponseWriter, r *http.Request) {
	var req createAlertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewValidationFailed("invalid request body"))
		return
	}
	if req.Name == "" || req.Field == "" {
		apierr.WriteError(w, apierr.NewValidationFailed("name and field are required"))
		return
	}

	rule := alertengine.AlertRule{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Subreddit: req.Subreddit,
		Type:      alertengine.AlertType(req.Type),
		Condition: alertengine.AlertCondition{
			Field:     req.Field,
			Operator:  alertengine.ConditionOperator(req.Operator),
			Threshold: req.Threshold,
		},
		Notifiers: req.Notifiers,
		Enabled:   true,
		Metadata:  req.Metadata,
	}

	if err := s.alerts.AddRule(rule); err != nil {
		apierr.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteAlertRule(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.alerts.RemoveRule(id); err != nil {
		apierr.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := alertengine.HistoryFilter{
		RuleID:    q.Get("rule_id"),
		Subreddit: q.Get("subreddit"),
		SentOnly:  q.Get("sent_only") == "true",
	}
	writeJSON(w, http.StatusOK, s.alerts.GetHistory(filter))
}
