package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vmware/transport-docs/internal/config"
	"github.com/vmware/transport-docs/internal/routes"
)

// useConfig points the package-level --config flag at a fresh file for the
// duration of the test.
func useConfig(t *testing.T, mutate func(*config.Config)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".transport-docs.yml")
	cfg := config.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "docs.db")
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })
	return path
}

func newTestCommand(flags func(*cobra.Command)) (*cobra.Command, *bytes.Buffer) {
	c := &cobra.Command{}
	if flags != nil {
		flags(c)
	}
	var out bytes.Buffer
	c.SetOut(&out)
	return c, &out
}

func TestRunRoutesTable(t *testing.T) {
	useConfig(t, nil)
	c, out := newTestCommand(func(c *cobra.Command) { c.Flags().Bool("json", false, "") })

	if err := runRoutes(c, nil); err != nil {
		t.Fatalf("runRoutes: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	rows := routes.Default().Len() + routes.Java().Len()
	if len(lines) != rows+1 {
		t.Fatalf("got %d lines, want header plus %d rows", len(lines), rows)
	}
	if !strings.HasPrefix(lines[1], "/typescript ") || !strings.Contains(lines[1], "overview") {
		t.Errorf("first row = %q", lines[1])
	}
}

func TestRunRoutesJSON(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.BasePath = "/docs" })
	c, out := newTestCommand(func(c *cobra.Command) { c.Flags().Bool("json", true, "") })

	if err := runRoutes(c, nil); err != nil {
		t.Fatalf("runRoutes: %v", err)
	}
	var rows []routeRow
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ts := rows[routes.Default().Len()-1]; ts.URL != "/docs/abstractions" || ts.Section != "TypeScript" {
		t.Errorf("last TypeScript row = %+v", ts)
	}
	if last := rows[len(rows)-1]; last.URL != "/java/abstractions" || last.Page != routes.JavaAbstractionsPage {
		t.Errorf("last row = %+v", last)
	}
}

func TestRunRoutesWithoutJava(t *testing.T) {
	useConfig(t, func(c *config.Config) { c.JavaBasePath = "" })
	c, out := newTestCommand(func(c *cobra.Command) { c.Flags().Bool("json", true, "") })

	if err := runRoutes(c, nil); err != nil {
		t.Fatalf("runRoutes: %v", err)
	}
	var rows []routeRow
	if err := json.Unmarshal(out.Bytes(), &rows); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rows) != routes.Default().Len() {
		t.Errorf("got %d rows with the Java section disabled, want %d", len(rows), routes.Default().Len())
	}
}

func TestRunCheckPasses(t *testing.T) {
	t.Setenv("CI", "true")
	for _, scope := range []config.HighlightScope{config.ScopePage, config.ScopeGlobal} {
		useConfig(t, func(c *config.Config) { c.Highlight.Scope = scope })
		c, out := newTestCommand(nil)

		if err := runCheck(c, nil); err != nil {
			t.Fatalf("scope %s: runCheck: %v\n%s", scope, err, out.String())
		}
		if !strings.Contains(out.String(), "All 23 checks passed") || !strings.Contains(out.String(), "/java/abstractions") {
			t.Errorf("scope %s: unexpected summary:\n%s", scope, out.String())
		}
	}
}

func TestRunCheckMissingContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "overview.md"), []byte("# Overview\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	useConfig(t, func(c *config.Config) { c.ContentDir = dir })
	c, _ := newTestCommand(nil)

	if err := runCheck(c, nil); err == nil {
		t.Error("expected error when pages are missing")
	}
}

func TestRunInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.yml")
	old := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = old })

	flags := func(c *cobra.Command) {
		c.Flags().Bool("interactive", false, "")
		c.Flags().Bool("force", false, "")
	}
	c, _ := newTestCommand(flags)
	if err := runInit(c, nil); err != nil {
		t.Fatalf("runInit: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BasePath != "/typescript" {
		t.Errorf("BasePath = %q", cfg.BasePath)
	}

	c, _ = newTestCommand(flags)
	if err := runInit(c, nil); err == nil {
		t.Error("second init without --force should fail")
	}
	c, _ = newTestCommand(flags)
	c.Flags().Set("force", "true")
	if err := runInit(c, nil); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	if out.String() != "transport-docs dev\n" {
		t.Errorf("version output = %q", out.String())
	}
}
