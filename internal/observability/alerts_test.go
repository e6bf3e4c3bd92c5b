package observability

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	jobmetrics "github.com/odyssey-hr/odyssey-hr/internal/jobs"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type ruleFile struct {
	Groups []struct {
		Name  string      `yaml:"name"`
		Rules []alertRule `yaml:"rules"`
	} `yaml:"groups"`
}

var metricName = regexp.MustCompile(`odyssey_[a-z_]+`)

// exportedFamilies touches every collector once so Gather reports it.
func exportedFamilies(t *testing.T) map[string]bool {
	t.Helper()
	m := NewMetrics()
	m.AuthAttempt("login", OutcomeRejected)
	m.RBACDenied("Recruiter")
	m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	jobs := jobmetrics.NewMetrics(m.Registerer())
	_ = jobs.Track("mail:send").End(nil)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	out := make(map[string]bool, len(families))
	for _, f := range families {
		out[f.GetName()] = true
		if f.GetType().String() == "HISTOGRAM" {
			out[f.GetName()+"_bucket"] = true
		}
	}
	return out
}

func TestAlertRules(t *testing.T) {
	known := exportedFamilies(t)
	files := map[string]map[string]string{
		"auth.yml": {
			"HighErrorRate":     "critical",
			"HighLatency":       "warning",
			"LoginFailureSpike": "warning",
			"RBACDenialSpike":   "warning",
		},
		"jobs.yml": {
			"WelcomeMailRetrying": "warning",
			"TasksDropped":        "warning",
		},
	}
	for file, want := range files {
		t.Run(file, func(t *testing.T) {
			data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", file))
			require.NoError(t, err)
			var rf ruleFile
			require.NoError(t, yaml.Unmarshal(data, &rf))
			require.Len(t, rf.Groups, 1)

			seen := map[string]bool{}
			for _, rule := range rf.Groups[0].Rules {
				severity, ok := want[rule.Alert]
				require.True(t, ok, "unexpected rule %q", rule.Alert)
				seen[rule.Alert] = true
				assert.Equal(t, severity, rule.Labels["severity"], rule.Alert)
				assert.NotEmpty(t, rule.For, rule.Alert)
				assert.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
				assert.NotEmpty(t, rule.Annotations["description"], rule.Alert)
				assert.True(t, strings.HasPrefix(rule.Annotations["runbook"], "docs/runbook-"), rule.Alert)
				for _, name := range metricName.FindAllString(rule.Expr, -1) {
					assert.True(t, known[name], "%s references unexported metric %s", rule.Alert, name)
				}
			}
			assert.Len(t, seen, len(want))
		})
	}
}
