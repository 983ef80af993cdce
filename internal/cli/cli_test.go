package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mskboard/internal/auth"
	"mskboard/internal/config"
	"mskboard/internal/core"
)

type harness struct {
	t       *testing.T
	config  string
	session string
	state   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	h := &harness{
		t:       t,
		config:  filepath.Join(dir, "mskboard.yaml"),
		session: filepath.Join(dir, "session"),
		state:   filepath.Join(dir, "state"),
	}
	body := fmt.Sprintf(`
storage:
  driver: fs
  path: %q
session:
  driver: fs
  path: %q
auth:
  delay: 0s
log:
  level: error
`, h.state, h.session)
	require.NoError(t, os.WriteFile(h.config, []byte(body), 0o600))
	return h
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (h *harness) runIn(stdin string, args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), append([]string{"--config", h.config}, args...),
		strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (h *harness) run(args ...string) result {
	h.t.Helper()
	return h.runIn("", args...)
}

func (h *harness) login() {
	h.t.Helper()
	res := h.run("login", "--email", auth.AdminEmail, "--password", auth.AdminPassword)
	require.Equal(h.t, ExitSuccess, res.code, res.stderr)
}

// data runs a command with --format json and returns the decoded data field.
func (h *harness) data(args ...string) map[string]any {
	h.t.Helper()
	res := h.run(append(args, "--format", "json")...)
	require.Equal(h.t, ExitSuccess, res.code, "stdout=%s stderr=%s", res.stdout, res.stderr)
	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(h.t, json.Unmarshal([]byte(res.stdout), &resp), res.stdout)
	require.Equal(h.t, "ok", resp.Status)
	return resp.Data
}

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{
		"login", "logout", "whoami", "list", "stats", "create", "update",
		"status", "bulk-status", "delete", "filters", "employees", "shell",
	} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	for _, flag := range []string{"verbose", "format", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	list, _, err := cmd.Find([]string{"list"})
	require.NoError(t, err)
	for _, flag := range []string{"status", "type", "priority", "employee", "search", "sort", "order"} {
		assert.NotNil(t, list.Flags().Lookup(flag), flag)
	}
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)

	res := h.run("whoami", "--format", "xml")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, ErrCodeUsage)

	res = h.run("frobnicate")
	assert.Equal(t, ExitCommandError, res.code)

	res = h.run("status", "sug-001")
	assert.Equal(t, ExitCommandError, res.code)

	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "whoami"},
		strings.NewReader(""), &stdout, &stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "load configuration")
}

func TestCommandsRequireLogin(t *testing.T) {
	h := newHarness(t)
	for _, args := range [][]string{
		{"whoami"},
		{"list"},
		{"stats"},
		{"delete", "sug-001"},
		{"filters", "show"},
	} {
		res := h.run(args...)
		assert.Equal(t, ExitFailure, res.code, args)
		assert.Contains(t, res.stderr, ErrCodeUnauthenticated, args)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t)
	res := h.run("login", "--email", auth.AdminEmail, "--password", "nope")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeCredentials)
	assert.Contains(t, res.stderr, auth.MsgInvalidCredentials)

	res = h.run("whoami")
	assert.Equal(t, ExitFailure, res.code)
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	user := h.data("whoami")
	assert.Equal(t, auth.AdminEmail, user["email"])
	assert.Equal(t, "Health & Safety Manager", user["role"])
	assert.Len(t, user["permissions"], 4)

	res := h.run("whoami")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, auth.AdminEmail)

	res = h.run("logout")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "Signed out.")

	res = h.run("list")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeUnauthenticated)
}

func TestListUsesSeedAndFlags(t *testing.T) {
	h := newHarness(t)
	h.login()

	all := h.data("list")
	assert.EqualValues(t, 14, all["count"])
	rows := all["suggestions"].([]any)
	first := rows[0].(map[string]any)
	assert.NotEmpty(t, first["employeeName"])

	pending := h.data("list", "--status", "pending")
	assert.EqualValues(t, 4, pending["count"])

	both := h.data("list", "--status", "pending,overdue", "--priority", "high")
	assert.EqualValues(t, 3, both["count"])

	searched := h.data("list", "--search", "MONITOR ARM")
	require.EqualValues(t, 1, searched["count"])
	assert.Equal(t, "sug-001", searched["suggestions"].([]any)[0].(map[string]any)["id"])

	asc := h.data("list", "--sort", "dateCreated", "--order", "asc")
	assert.Equal(t, "sug-013", asc["suggestions"].([]any)[0].(map[string]any)["id"])

	res := h.run("list", "--sort", "colour")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeValidation)

	// flag filters are not saved
	shown := h.data("filters", "show")
	assert.Empty(t, shown["status"])

	text := h.run("list", "--employee", "emp-008")
	require.Equal(t, ExitSuccess, text.code)
	assert.Contains(t, text.stdout, "sug-013")
	assert.Contains(t, text.stdout, "2 suggestion(s)")
}

func TestCreateUpdateStatusDeletePersistAcrossRuns(t *testing.T) {
	h := newHarness(t)
	h.login()

	created := h.data("create",
		"--employee", "emp-002",
		"--type", "exercise",
		"--priority", "high",
		"--description", "  Daily thoracic rotation stretches  ",
		"--cost", "£0")
	assert.Equal(t, "Created", created["action"])
	s := created["suggestion"].(map[string]any)
	id := s["id"].(string)
	assert.NotEmpty(t, id)
	assert.Equal(t, "pending", s["status"])
	assert.Equal(t, "admin", s["source"])
	assert.Equal(t, "Health & Safety Manager", s["createdBy"])
	assert.Equal(t, "Daily thoracic rotation stretches", s["description"])

	all := h.data("list")
	assert.EqualValues(t, 15, all["count"])

	updated := h.data("update", id, "--notes", "Agreed with employee", "--priority", "low")
	s = updated["suggestion"].(map[string]any)
	assert.Equal(t, "Agreed with employee", s["notes"])
	assert.Equal(t, "low", s["priority"])

	moved := h.data("status", id, "completed")
	s = moved["suggestion"].(map[string]any)
	assert.Equal(t, "completed", s["status"])
	assert.NotEmpty(t, s["dateCompleted"])

	res := h.run("delete", id)
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Deleted "+id)

	all = h.data("list")
	assert.EqualValues(t, 14, all["count"])
}

func TestUpdateStatusCompletedStampsDate(t *testing.T) {
	h := newHarness(t)
	h.login()

	created := h.data("create",
		"--employee", "emp-004",
		"--type", "equipment",
		"--description", "Footrest for the reception desk")
	s := created["suggestion"].(map[string]any)
	id := s["id"].(string)
	assert.Nil(t, s["dateCompleted"])

	updated := h.data("update", id, "--status", "completed", "--notes", "Delivered")
	s = updated["suggestion"].(map[string]any)
	assert.Equal(t, "completed", s["status"])
	assert.Equal(t, "Delivered", s["notes"])
	assert.NotEmpty(t, s["dateCompleted"])

	listed := h.data("list", "--status", "completed", "--search", "footrest")
	assert.EqualValues(t, 1, listed["count"])
}

func TestRejectedMutations(t *testing.T) {
	h := newHarness(t)
	h.login()

	res := h.run("create", "--employee", "emp-001", "--type", "exercise", "--description", "too short")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeValidation)

	res = h.run("create", "--employee", "emp-404", "--type", "exercise", "--description", "a long enough description")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeNotFound)

	res = h.run("status", "sug-001", "archived")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeValidation)

	res = h.run("delete", "sug-404")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeNotFound)

	res = h.run("update", "sug-001")
	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, ErrCodeUsage)

	res = h.run("update", "sug-404", "--notes", "x")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeNotFound)
}

func TestStructuredErrorOutput(t *testing.T) {
	h := newHarness(t)
	res := h.run("list", "--format", "json")
	require.Equal(t, ExitFailure, res.code)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnauthenticated, resp.Error.Code)
}

func TestBulkStatusReportsMissing(t *testing.T) {
	h := newHarness(t)
	h.login()

	out := h.data("bulk-status", "in_progress", "sug-001", "sug-404", "sug-008")
	assert.Equal(t, "in_progress", out["status"])
	assert.Equal(t, []any{"sug-001", "sug-008"}, out["updated"])
	assert.Equal(t, []any{"sug-404"}, out["missing"])

	pending := h.data("list", "--status", "pending")
	assert.EqualValues(t, 2, pending["count"])

	res := h.run("bulk-status", "in_progress", "sug-404")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeNotFound)
}

func TestFiltersAndStats(t *testing.T) {
	h := newHarness(t)
	h.login()

	all := h.data("stats")
	assert.Equal(t, "all", all["scope"])
	assert.EqualValues(t, 14, all["total"])

	set := h.data("filters", "set", "--status", "pending", "--employee", "emp-001,emp-008")
	assert.Equal(t, []any{"pending"}, set["status"])
	assert.Equal(t, []any{"emp-001", "emp-008"}, set["employee"])

	listed := h.data("list")
	assert.EqualValues(t, 2, listed["count"])

	filtered := h.data("stats", "--filtered")
	assert.Equal(t, "filtered", filtered["scope"])
	assert.EqualValues(t, 2, filtered["total"])
	assert.EqualValues(t, 2, filtered["pending"])

	// an explicit flag replaces only its own dimension
	set = h.data("filters", "set", "--employee", "")
	assert.Equal(t, []any{"pending"}, set["status"])
	assert.Empty(t, set["employee"])

	cleared := h.data("filters", "clear")
	assert.Empty(t, cleared["status"])

	res := h.run("filters", "show")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "No filters set.")
}

func TestPermissionDenied(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.MkdirAll(h.session, 0o755))
	viewer := `{"id":"9","email":"viewer@company.com","name":"Viewer","role":"Auditor","department":"Audit","permissions":["view_suggestions"]}`
	require.NoError(t, os.WriteFile(filepath.Join(h.session, auth.SessionKey+".json"), []byte(viewer), 0o600))

	listed := h.data("list")
	assert.EqualValues(t, 14, listed["count"])

	res := h.run("delete", "sug-001")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeForbidden)
	assert.Contains(t, res.stderr, "delete_suggestions")

	res = h.run("status", "sug-001", "completed")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, ErrCodeForbidden)
}

func TestEmployees(t *testing.T) {
	h := newHarness(t)
	h.login()
	out := h.data("employees")
	assert.EqualValues(t, 8, out["count"])

	res := h.run("employees")
	require.Equal(t, ExitSuccess, res.code)
	assert.Contains(t, res.stdout, "emp-001")
	assert.Contains(t, res.stdout, "LAST ASSESSMENT")
}

func TestShellSharesOneStore(t *testing.T) {
	h := newHarness(t)
	script := strings.Join([]string{
		fmt.Sprintf("login --email %s --password %s", auth.AdminEmail, auth.AdminPassword),
		`create --employee emp-005 --type lifestyle --description "Cycle to work on dry days"`,
		"list --search 'cycle to work'",
		"shell",
		"delete sug-404",
		"",
		"exit",
		"whoami",
	}, "\n")
	res := h.runIn(script, "shell")
	require.Equal(t, ExitSuccess, res.code, res.stderr)
	assert.Contains(t, res.stdout, shellPrompt)
	assert.Contains(t, res.stdout, "1 suggestion(s)")
	assert.Contains(t, res.stderr, "already inside a shell")
	assert.Contains(t, res.stderr, ErrCodeNotFound)
	// login prints the user once; the whoami after exit never runs
	assert.Equal(t, 1, strings.Count(res.stdout, "role:"))

	all := h.data("list")
	assert.EqualValues(t, 15, all["count"])
}

func TestMetricsExporterFollowsConfig(t *testing.T) {
	prom, err := newMetricsExporter(config.MetricsConfig{Exporter: config.ExporterPrometheus, Namespace: "msktest"})
	require.NoError(t, err)
	assert.IsType(t, &core.PrometheusMetricsRecorder{}, prom)
	assert.Equal(t, "/metrics", prom.Path())

	vars, err := newMetricsExporter(config.MetricsConfig{Exporter: config.ExporterExpvar, Namespace: "msktest"})
	require.NoError(t, err)
	assert.IsType(t, &core.ExpvarMetricsRecorder{}, vars)
	assert.Equal(t, "/debug/vars", vars.Path())

	t.Setenv("MSK_METRICS_EXPORTER", "expvar")
	h := newHarness(t)
	h.login()
	assert.EqualValues(t, 14, h.data("list")["count"])
}

func TestSplitArgs(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"list --status pending", []string{"list", "--status", "pending"}},
		{`create --description "two words"`, []string{"create", "--description", "two words"}},
		{`update x --notes 'it''s'`, []string{"update", "x", "--notes", "its"}},
		{`a\ b c`, []string{"a b", "c"}},
		{`""`, []string{""}},
		{`'no \escape'`, []string{`no \escape`}},
	}
	for _, tc := range cases {
		got, err := splitArgs(tc.line)
		require.NoError(t, err, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}

	_, err := splitArgs(`say "unfinished`)
	assert.Error(t, err)
	_, err = splitArgs(`trailing\`)
	assert.Error(t, err)
}
