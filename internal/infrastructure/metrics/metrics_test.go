package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Mutation("task", "create")
	m.CompletionTransition("set_now")
	m.SessionResolution("ok")
	m.CacheLookup("projects", true)
}

func TestCounters(t *testing.T) {
	m := New("taskflow")
	m.Mutation("task", "create")
	m.Mutation("task", "create")
	m.CompletionTransition("clear")
	m.CacheLookup("projects", false)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		`taskflow_entity_mutations_total{entity="task",operation="create"} 2`,
		`taskflow_task_completion_transitions_total{action="clear"} 1`,
		`taskflow_view_cache_lookups_total{result="miss",view="projects"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
