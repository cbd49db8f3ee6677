package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/config"
)

// executeCommand runs a cobra command with the given args and captures combined output.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	_, err = root.ExecuteC()
	return buf.String(), err
}

// isolate points data, config and the working directory at temp dirs and
// resets flag state shared between runs.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("NO_COLOR", "1")
	wd := t.TempDir()
	chdir(t, wd)
	clearYes = false
	summaryJSON = false
	plainOutput = false
	return wd
}

const sampleExport = `{
  "version": 2,
  "dailyAggregates": {
    "2024-06-03": {
      "totalTimeMs": 3600000,
      "activeTimeMs": 3600000,
      "languageTime": {"go": 3600000},
      "projectTime": {"/ws/api": 3600000},
      "fileTimeMs": {"/ws/api/main.go": 3600000},
      "fileWorkspaces": {"/ws/api/main.go": "api"},
      "editedFileCount": 1,
      "totalCharactersEdited": 420,
      "longestSessionMs": 3600000
    }
  },
  "settings": {"idleTimeoutMs": 120000}
}`

func writeSample(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "backup.json")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStatusWithoutSession(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"no active session", "Today: 0m"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSetAndGet(t *testing.T) {
	isolate(t)
	if _, err := executeCommand(rootCmd, "config", "set", "idle-timeout", "2m"); err != nil {
		t.Fatalf("set idle-timeout: %v", err)
	}
	if _, err := executeCommand(rootCmd, "config", "set", "status-bar", "false"); err != nil {
		t.Fatalf("set status-bar: %v", err)
	}
	out, err := executeCommand(rootCmd, "config", "get")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, want := range []string{"idle-timeout: 2m0s", "status-bar: false"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	if _, err := executeCommand(rootCmd, "config", "set", "idle-timeout", "0"); err != nil {
		t.Fatalf("disable idle: %v", err)
	}
	out, _ = executeCommand(rootCmd, "config", "get")
	if !strings.Contains(out, "idle-timeout: disabled") {
		t.Errorf("zero timeout should disable idle detection:\n%s", out)
	}
}

func TestConfigSetRejectsBadInput(t *testing.T) {
	isolate(t)
	cases := [][]string{
		{"config", "set", "colour", "blue"},
		{"config", "set", "idle-timeout", "soon"},
		{"config", "set", "idle-timeout", "-1m"},
		{"config", "set", "status-bar", "maybe"},
	}
	for _, args := range cases {
		if _, err := executeCommand(rootCmd, args...); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestInvalidConfigFileFails(t *testing.T) {
	wd := isolate(t)
	if err := os.WriteFile(filepath.Join(wd, config.ProjectFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := executeCommand(rootCmd, "status")
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("err = %v, want a config load error", err)
	}
}

func TestImportThenSummaryAndExport(t *testing.T) {
	wd := isolate(t)
	path := writeSample(t, wd)

	out, err := executeCommand(rootCmd, "import", path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 day of coding data") {
		t.Errorf("import output = %q", out)
	}

	offset := fmt.Sprint(time.Now().Year() - 2024)
	out, err = executeCommand(rootCmd, "summary", "--period", "year", "--offset", offset, "--json")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{`"totalTimeMs": 3600000`, `"period": "year"`, `"observations"`} {
		if !strings.Contains(out, want) {
			t.Errorf("summary JSON missing %q:\n%s", want, out)
		}
	}

	summaryJSON = false
	out, err = executeCommand(rootCmd, "summary", "--period", "year", "--offset", offset)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"year of 2024", "1h 00m", "api"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}

	exported := filepath.Join(wd, "out.json")
	if _, err := executeCommand(rootCmd, "export", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"2024-06-03"`, `"idleTimeoutMs": 120000`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("export missing %q:\n%s", want, data)
		}
	}
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	wd := isolate(t)
	path := filepath.Join(wd, "bad.json")
	if err := os.WriteFile(path, []byte(`{"dailyAggregates": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := executeCommand(rootCmd, "import", path)
	if err == nil || !strings.Contains(err.Error(), "missing version") {
		t.Fatalf("err = %v, want missing version", err)
	}

	if _, err := executeCommand(rootCmd, "import", filepath.Join(wd, "absent.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestSummaryWithoutData(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "summary", "--period", "month", "--offset", "0")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "No coding activity recorded for this month.") {
		t.Errorf("output = %q", out)
	}

	if _, err := executeCommand(rootCmd, "summary", "--period", "decade", "--offset", "0"); err == nil {
		t.Error("expected an error for an unknown period")
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	wd := isolate(t)
	if _, err := executeCommand(rootCmd, "import", writeSample(t, wd)); err != nil {
		t.Fatalf("import: %v", err)
	}

	if _, err := executeCommand(rootCmd, "clear"); err == nil {
		t.Fatal("clear without --yes should fail")
	}
	out, err := executeCommand(rootCmd, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "2024-06-03") {
		t.Fatal("data should survive an unconfirmed clear")
	}

	if _, err := executeCommand(rootCmd, "clear", "--yes"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	out, err = executeCommand(rootCmd, "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(out, "2024-06-03") {
		t.Error("clear --yes should remove every day")
	}
}

func TestTodayPrintsAggregate(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "today")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	for _, want := range []string{"# codepulse  " + time.Now().Format("2006-01-02"), "Languages", "(none)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWorkspaceRootsDefaultsToWorkingDir(t *testing.T) {
	wd := isolate(t)
	roots, err := workspaceRoots(config.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	got, _ := filepath.EvalSymlinks(roots[0])
	want, _ := filepath.EvalSymlinks(wd)
	if len(roots) != 1 || got != want {
		t.Errorf("roots = %v, want [%s]", roots, wd)
	}

	c := config.Defaults()
	c.Workspaces = []string{"/a", "/b"}
	if roots, _ := workspaceRoots(c); len(roots) != 2 {
		t.Errorf("configured workspaces should be used, got %v", roots)
	}
}

func TestViewFallsBackToPlainText(t *testing.T) {
	isolate(t)
	out, err := executeCommand(rootCmd, "view", "--plain")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "# codepulse  "+time.Now().Format("2006-01-02")) {
		t.Errorf("output = %q", out)
	}
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
