package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/itodo/internal/config"
	"github.com/phobologic/itodo/internal/lang"
	"github.com/phobologic/itodo/internal/report"
	"github.com/phobologic/itodo/internal/scan"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// createSampleRepo lays out a tree with a TODO on line 10 of a.py.
func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "a.py", strings.Repeat("x = 1\n", 9)+"# TODO: fix this\n")
	return dir
}

// baseArgs points a run at dir and keeps every output inside it.
func baseArgs(dir string, extra ...string) []string {
	args := []string{
		"searchDir=" + dir,
		"file_todo=" + filepath.Join(dir, "todo-inline.md"),
	}
	return append(args, extra...)
}

func TestRunSingleTodo(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run(baseArgs(dir,
		"read.tags.list=[TODO]",
		"read.SOURCE_FILES=[py]",
		"write.item_format=terse",
	), &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())

	assert.Contains(t, stdout.String(), ": 1 items in 1 files (1 searched)")

	data, err := os.ReadFile(filepath.Join(dir, "todo-inline.md"))
	require.NoError(t, err)
	fm, body := report.SplitFrontMatter(data)
	assert.Contains(t, string(fm), "num_items: 1")
	assert.Contains(t, string(fm), "files_with_todos: 1")
	assert.Equal(t,
		"# **TODO** -- 1 item\n"+
			"## [`a.py`](a.py) -- 1 item\n"+
			" - [ ] fix this \n\t(line 10)\n\n",
		string(body))
}

func TestRunDetailedFormat(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "src/job.sh", "#!/bin/sh\n  # FIXME: quote vars\n  rm $x\n\necho done\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir), &stdout, &stderr), "stderr: %s", stderr.String())

	data, err := os.ReadFile(filepath.Join(dir, "todo-inline.md"))
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "# **FIXME** -- 1 item\n## [`src/job.sh`](src/job.sh) -- 1 item\n")
	assert.Contains(t, doc, "```{.shell .numberLines startFrom=\"2\"}\n\t# FIXME: quote vars\n\trm $x\n\t```")
	assert.NotContains(t, doc, "echo done")
}

func TestRunTagPriorityAndOrdering(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "b.c", "// NOTE: b note\nint counter = 0; // TODO later\n")
	writeTestFile(t, dir, "a.c", "// CRIT: a crit\n// BUG FIXME: both\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "write.item_format=md"), &stdout, &stderr), "stderr: %s", stderr.String())

	data, err := os.ReadFile(filepath.Join(dir, "todo-inline.md"))
	require.NoError(t, err)
	_, body := report.SplitFrontMatter(data)

	var headers []string
	for _, line := range strings.Split(string(body), "\n") {
		if strings.HasPrefix(line, "# ") {
			headers = append(headers, line)
		}
	}
	// The trailing TODO in b.c sits past the 15 character window.
	assert.Equal(t, []string{
		"# **CRIT** -- 1 item",
		"# **FIXME** -- 1 item",
		"# **NOTE** -- 1 item",
	}, headers)
}

func TestRunEmitConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "-e", "read.MAX_SEARCH_LEN=20"), &stdout, &stderr))

	out := stdout.String()
	assert.Contains(t, out, "MAX_SEARCH_LEN: 20")
	assert.Contains(t, out, "searchDir: "+dir)
	assert.Contains(t, out, filepath.Join(dir, "todo-inline.md"), "excludes should include the report")
	assert.NoFileExists(t, filepath.Join(dir, "todo-inline.md"))
}

func TestRunSavesConfigAndContinues(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	out := filepath.Join(dir, "resolved.yml")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "config.file_out="+out, "write.item_format=terse"), &stdout, &stderr))

	assert.Contains(t, stdout.String(), "> saved config to "+out)
	assert.FileExists(t, filepath.Join(dir, "todo-inline.md"))

	l, err := config.LoadFile(out)
	require.NoError(t, err)
	require.NotNil(t, l.Write)
	require.NotNil(t, l.Write.ItemFormat)
	assert.Equal(t, "terse", *l.Write.ItemFormat)
}

func TestRunConfigFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfgPath := filepath.Join(dir, "custom.yml")
	writeTestFile(t, dir, "custom.yml", "read:\n  tags:\n    list: [NOTE]\n")
	writeTestFile(t, dir, "b.py", "# NOTE: from file config\n")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "config.file_in="+cfgPath, "write.item_format=terse"), &stdout, &stderr))

	data, err := os.ReadFile(filepath.Join(dir, "todo-inline.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "from file config")
	assert.NotContains(t, string(data), "fix this")
}

func TestRunHelp(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{"h"}, {"help"}, {"--help"}, {"-h"}, {"verbose=true", "h"}} {
		var stdout, stderr bytes.Buffer
		require.NoError(t, run(args, &stdout, &stderr), "args %v", args)
		assert.Contains(t, stdout.String(), "Usage:", "args %v", args)
		assert.Contains(t, stdout.String(), "--emit-cfg", "args %v", args)
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"--version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "itodo version dev")
}

func TestRunUnknownExtensionFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "lib.rs", "// TODO: port\n")

	var stdout, stderr bytes.Buffer
	err := run(baseArgs(dir, "read.SOURCE_FILES=[rs]"), &stdout, &stderr)
	require.ErrorIs(t, err, lang.ErrUnknownExtension)
	assert.NoFileExists(t, filepath.Join(dir, "todo-inline.md"))

	// Terse items carry no language, and extra languages fill the gap.
	require.NoError(t, run(baseArgs(dir, "read.SOURCE_FILES=[rs]", "write.item_format=terse"), &stdout, &stderr))
	require.NoError(t, run(baseArgs(dir, "read.SOURCE_FILES=[rs]", "write.languages.rs=rust"), &stdout, &stderr))

	data, err := os.ReadFile(filepath.Join(dir, "todo-inline.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "{.rust .numberLines")
}

func TestRunBadOverride(t *testing.T) {
	t.Parallel()

	tests := [][]string{
		{"read.nope=1"},
		{"read.MAX_SEARCH_LEN=many"},
		{"noequals"},
	}
	for _, args := range tests {
		var stdout, stderr bytes.Buffer
		err := run(args, &stdout, &stderr)
		assert.ErrorIs(t, err, config.ErrBadOverride, "args %v", args)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run(baseArgs(dir, "write.attr_sort_order=[tag,colour]"), &stdout, &stderr)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunUnreadableFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, "bin.py", "\xff\xfe# TODO: hidden\n")

	var stdout, stderr bytes.Buffer
	err := run(baseArgs(dir, "write.item_format=terse"), &stdout, &stderr)
	require.ErrorIs(t, err, scan.ErrNotText)

	stderr.Reset()
	require.NoError(t, run(baseArgs(dir, "write.item_format=terse", "read.skip_unreadable=true"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "skipping unreadable file")
	assert.Contains(t, stdout.String(), ": 1 items in 1 files (2 searched)")
}

func TestRunComparesWithPreviousReport(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir), &stdout, &stderr))
	assert.NotContains(t, stderr.String(), "updating report")

	writeTestFile(t, dir, "b.py", "# BUG: new\n# HACK: newer\n")
	stderr.Reset()
	require.NoError(t, run(baseArgs(dir), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "updating report")
	assert.Contains(t, stderr.String(), `"change": 2`)
}

func TestRunReportToStdout(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run([]string{"searchDir=" + dir, "file_todo=-", "write.item_format=terse"}, &stdout, &stderr))

	out := stdout.String()
	require.True(t, strings.HasPrefix(out, "---\ntitle: todo-inline\n"), out)
	assert.Contains(t, out, " - [ ] fix this \n\t(line 10)\n")
	assert.Contains(t, stderr.String(), "report summary")
}

func TestRunHTMLExport(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	htmlPath := filepath.Join(dir, "todo.html")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "write.html="+htmlPath), &stdout, &stderr))

	data, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<title>todo-inline</title>")
	assert.Contains(t, string(data), "fix this")
}

func TestRunVerbose(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(baseArgs(dir, "verbose=true"), &stdout, &stderr))
	assert.Contains(t, stderr.String(), "DEBUG")
	assert.Contains(t, stderr.String(), "discovered files")
	assert.Contains(t, stderr.String(), "resolved configuration")

	stderr.Reset()
	require.NoError(t, run(baseArgs(dir), &stdout, &stderr))
	assert.NotContains(t, stderr.String(), "DEBUG")
}

func TestRunMissingSearchDir(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"searchDir=" + filepath.Join(t.TempDir(), "nope")}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "discovering files")
}
