package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/goliatone/go-instanceselect/pkg/renderers/tui"
	"github.com/goliatone/go-instanceselect/pkg/testsupport"
)

type stubPrompts struct {
	confirm bool
	index   int
	selects int
}

func (s *stubPrompts) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return s.confirm, nil
}

func (s *stubPrompts) Choose(_ context.Context, cfg tui.ChoiceConfig) (string, error) {
	s.selects++
	return cfg.Choices[s.index].Value, nil
}

func (s *stubPrompts) Info(context.Context, string) error { return nil }

// fixtureFlags writes the cohort fixtures to disk and returns the flags
// pointing at them.
func fixtureFlags(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "project.yaml")
	dataPath := filepath.Join(dir, "data.yaml")
	configPath := filepath.Join(dir, "instanceselect.yaml")
	require.NoError(t, os.WriteFile(projectPath, testsupport.MustReadFixture(t, testsupport.CohortProjectPath), 0o644))
	require.NoError(t, os.WriteFile(dataPath, testsupport.MustReadFixture(t, testsupport.CohortDataPath), 0o644))
	require.NoError(t, os.WriteFile(configPath, []byte("renderer: vanilla\n"), 0o644))
	return []string{"--config", configPath, "--project", projectPath, "--data", dataPath}
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	a.logger = zap.NewNop()
	cmd := newRootCommand(a)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRenderCommand_PrintsScript(t *testing.T) {
	args := append([]string{"render", "--form", "enrolment", "--event", "10", "--record", "A"}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "<script")
	assert.Contains(t, out, `"name":"linked_record"`)
}

func TestRenderCommand_WritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "page.html")
	args := append([]string{"render", "--form", "enrolment", "--event", "10", "--record", "A", "-o", target}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "data-instanceselect-render")
}

func TestRenderCommand_TemplatesDir(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "templates", "page.tmpl")
	require.NoError(t, os.MkdirAll(filepath.Dir(pagePath), 0o755))
	require.NoError(t, os.WriteFile(pagePath, []byte(`{% for f in fields %}[{{ f.name }}]{% endfor %}`), 0o644))

	args := append([]string{"render", "--form", "enrolment", "--event", "10", "--record", "A", "--templates", dir}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "[linked_record]")
}

func TestRenderCommand_RequiresProject(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "instanceselect.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("renderer: vanilla\n"), 0o644))

	_, err := execute(t, &app{}, "render", "--form", "enrolment", "--event", "10", "--config", configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project definition is required")
}

func TestOptionsCommand_JSON(t *testing.T) {
	args := append([]string{"options", "--form", "enrolment", "--event", "10", "--record", "A", "--field", "same_arm_record", "--json"}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.JSONEq(t, `[{
		"field": "same_arm_record",
		"tag": "@RECORDINSTANCE",
		"mode": "select",
		"options": [{"value": "A", "label": "A (Arm 1)"}, {"value": "C", "label": "C (Arm 1)"}]
	}]`, out)
}

func TestOptionsCommand_Listing(t *testing.T) {
	args := append([]string{"options", "--form", "enrolment", "--event", "10", "--record", "A"}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "linked_record")
	assert.Contains(t, out, "* 2.B")
	assert.NotContains(t, out, "broken_ref")
}

func TestOptionsCommand_UnknownField(t *testing.T) {
	args := append([]string{"options", "--form", "enrolment", "--event", "10", "--field", "first_name"}, fixtureFlags(t)...)
	_, err := execute(t, &app{}, args...)
	require.Error(t, err)
}

func TestPickCommand_UsesPrompts(t *testing.T) {
	prompts := &stubPrompts{index: 1}
	args := append([]string{"pick", "--form", "enrolment", "--event", "10", "--record", "A"}, fixtureFlags(t)...)
	out, err := execute(t, &app{prompts: prompts}, args...)
	require.NoError(t, err)
	assert.Equal(t, 6, prompts.selects)
	assert.JSONEq(t, `{
		"enrolment_visit": "1",
		"linked_record": "1.A",
		"linked_visit": "enrolment_arm_1.1",
		"parent_visit": "enrolment_arm_1.1",
		"same_arm_record": "A",
		"therapy_ref": "1"
	}`, out)
}

func TestPickCommand_RejectsUnknownFormat(t *testing.T) {
	args := append([]string{"pick", "--form", "enrolment", "--event", "10", "--format", "xml"}, fixtureFlags(t)...)
	_, err := execute(t, &app{}, args...)
	require.Error(t, err)
}

func TestMigrateCommand_DryRun(t *testing.T) {
	args := append([]string{"migrate", "--dry-run"}, fixtureFlags(t)...)
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "linked_record, same_arm_record, parent_visit, enrolment_visit, linked_visit")
	assert.Contains(t, out, "To rewrite: 2")
	assert.Contains(t, out, "linked_record = 2.B")
	assert.NotContains(t, out, "Rewrote")
}

func TestMigrateCommand_ConfirmAndCancel(t *testing.T) {
	flags := fixtureFlags(t)

	out, err := execute(t, &app{prompts: &stubPrompts{confirm: false}}, append([]string{"migrate"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Migration cancelled")

	out, err = execute(t, &app{prompts: &stubPrompts{confirm: true}}, append([]string{"migrate", "--field", "linked_record"}, flags...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Rewrote 1 value(s) in 1 record(s)")
}

func TestMigrateCommand_SQLite(t *testing.T) {
	flags := fixtureFlags(t)
	dsn := "file:" + filepath.Join(t.TempDir(), "data.db")
	configPath := filepath.Join(t.TempDir(), "sqlite.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("storage:\n  ensure_schema: true\n"), 0o644))

	args := []string{"migrate", "--yes", "--project", flags[3], "--driver", "sqlite3", "--dsn", dsn, "--config", configPath}
	out, err := execute(t, &app{}, args...)
	require.NoError(t, err)
	assert.Contains(t, out, "To rewrite: 0")
}

func TestServeRouter(t *testing.T) {
	a := &app{logger: zap.NewNop()}
	flags := fixtureFlags(t)
	a.configPath, a.projectPath, a.dataPath = flags[1], flags[3], flags[5]
	require.NoError(t, a.setup(context.Background(), &bytes.Buffer{}))
	t.Cleanup(func() { _ = a.close() })

	handler, pattern, err := a.router()
	require.NoError(t, err)
	assert.Equal(t, "/instanceselect", pattern)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/instanceselect/projects/27/forms/enrolment/fields/linked_record/options?event_id=10&record=A", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":"2.B"`)
}

func TestApp_CloseJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	a := &app{closers: []func() error{func() error { return boom }}}
	assert.ErrorIs(t, a.close(), boom)
	assert.NoError(t, a.close())
}
