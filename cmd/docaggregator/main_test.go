package main

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

	"git.home.luguber.info/inful/docaggregator/internal/config"
	"git.home.luguber.info/inful/docaggregator/internal/testutil/testutils"
)

type cliEnv struct {
	t        *testing.T
	dir      string
	cacheDir string
	playbook string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	return &cliEnv{t: t, dir: dir, cacheDir: filepath.Join(dir, "cache"), playbook: filepath.Join(dir, "playbook.yml")}
}

func (e *cliEnv) writePlaybook(sources string) {
	e.t.Helper()
	body := fmt.Sprintf("runtime:\n  cache_dir: %s\ncontent:\n  sources:\n%s", e.cacheDir, sources)
	require.NoError(e.t, os.WriteFile(e.playbook, []byte(body), 0o600))
}

func (e *cliEnv) run(args ...string) (int, string, string) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	code := run(context.Background(), append([]string{"--playbook", e.playbook}, args...), &out, &errOut)
	return code, out.String(), errOut.String()
}

func docsRepo(t *testing.T) *testutils.GitRepo {
	t.Helper()
	fx := testutils.SetupTestGitRepo(t)
	fx.WriteFiles(map[string]string{
		"docs/antora.yml":                    "name: guide\nversion: '2.0'\ntitle: User Guide\n",
		"docs/modules/ROOT/pages/index.adoc": "= Guide",
		"docs/modules/ROOT/nav.adoc":         "* xref:index.adoc[]",
	})
	fx.Commit("docs")
	return fx
}

func TestAggregateSummary(t *testing.T) {
	env := newCLIEnv(t)
	fx := docsRepo(t)
	env.writePlaybook(fmt.Sprintf("  - url: %s\n    start_path: docs\n", fx.Dir))

	code, out, errOut := env.run("aggregate", "--quiet")
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"COMPONENT", "VERSION", "FILES", "REFS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"guide", "2.0", "2", "main", "<worktree>"}, strings.Fields(lines[1]))
}

func TestAggregateJSON(t *testing.T) {
	env := newCLIEnv(t)
	fx := docsRepo(t)
	env.writePlaybook(fmt.Sprintf("  - url: %s\n    start_path: docs\n", fx.Dir))

	code, out, errOut := env.run("aggregate", "--quiet", "--json")
	require.Equal(t, 0, code, errOut)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "guide", decoded[0]["name"])
	assert.Equal(t, "2.0", decoded[0]["version"])
	assert.Equal(t, "User Guide", decoded[0]["title"])
	files, ok := decoded[0]["files"].([]any)
	require.True(t, ok)
	assert.Len(t, files, 2)
}

func TestAggregateRemoteWithMetrics(t *testing.T) {
	testutils.UseInProcessFileTransport()
	env := newCLIEnv(t)
	fx := docsRepo(t)
	env.writePlaybook(fmt.Sprintf("  - url: %s\n    branches: main\n    start_path: docs\n", fx.FileURL()))
	metricsFile := filepath.Join(env.dir, "docaggregator.prom")

	code, _, errOut := env.run("aggregate", "--quiet", "--clone-depth", "0", "--metrics-file", metricsFile)
	require.Equal(t, 0, code, errOut)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `docaggregator_run_outcomes_total{outcome="success"} 1`)
	assert.Contains(t, string(data), "docaggregator_component_versions 1")
	assert.Contains(t, string(data), `docaggregator_repository_load_results_total{operation="clone",result="success"} 1`)
	testutils.NewFileAssertions(t, filepath.Join(env.cacheDir, config.ContentCacheFolder)).AssertDirExists(".")
}

func TestAggregateErrorExitCodes(t *testing.T) {
	env := newCLIEnv(t)
	missing := filepath.Join(env.dir, "missing")
	env.writePlaybook(fmt.Sprintf("  - url: %s\n", missing))

	code, _, errOut := env.run("aggregate", "--quiet")
	assert.Equal(t, 6, code)
	assert.Contains(t, errOut, "Error: Local content source does not exist: "+missing)

	fx := docsRepo(t)
	env.writePlaybook(fmt.Sprintf("  - url: %s\n    start_path: nope\n", fx.Dir))
	code, _, errOut = env.run("aggregate", "--quiet")
	assert.Equal(t, 7, code)
	assert.Contains(t, errOut, "Error: the start path 'nope' does not exist in "+fx.Dir+" (ref: main <worktree>)")
}

func TestMissingPlaybook(t *testing.T) {
	env := newCLIEnv(t)
	code, _, errOut := env.run("aggregate")
	assert.Equal(t, 7, code)
	assert.Contains(t, errOut, "playbook file not found")
}

func TestCacheCommands(t *testing.T) {
	env := newCLIEnv(t)
	fx := docsRepo(t)
	env.writePlaybook(fmt.Sprintf("  - url: %s\n", fx.Dir))
	contentDir := filepath.Join(env.cacheDir, config.ContentCacheFolder)

	code, out, errOut := env.run("cache", "dir")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, contentDir, strings.TrimSpace(out))

	override := filepath.Join(env.dir, "elsewhere")
	code, out, _ = env.run("cache", "dir", "--cache-dir", override)
	require.Equal(t, 0, code)
	assert.Equal(t, filepath.Join(override, config.ContentCacheFolder), strings.TrimSpace(out))

	require.NoError(t, os.MkdirAll(filepath.Join(contentDir, "example.com-docs.git"), 0o750))
	code, out, errOut = env.run("cache", "clean")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Removed "+contentDir, strings.TrimSpace(out))
	testutils.NewFileAssertions(t, env.cacheDir).AssertNotExists(config.ContentCacheFolder)
}

func TestUnknownCommand(t *testing.T) {
	env := newCLIEnv(t)
	code, _, errOut := env.run("publish")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "docaggregator: error:")
}
