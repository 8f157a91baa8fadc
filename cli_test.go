package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI in-process with a coarse test config.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "spiral.yaml")
	body := "kernel:\n  mesh_cells: 64\noutput:\n  dir: " + filepath.Join(dir, "out") + "\n"
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	args = append([]string{"--config", cfgPath}, args...)
	err := ExecuteContext(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestCLICatalog(t *testing.T) {
	out, _, err := run(t, "", "catalog")
	if err != nil {
		t.Fatalf("catalog failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 sizes, got %d", len(lines))
	}
	if lines[0] != "3 (tube)" || lines[11] != "12.75 (12in. pipe)" {
		t.Errorf("unexpected catalog order: %q .. %q", lines[0], lines[11])
	}
}

func TestCLICatalogLookup(t *testing.T) {
	out, _, err := run(t, "", "catalog", "8.625")
	if err != nil {
		t.Fatalf("catalog lookup failed: %v", err)
	}
	if strings.TrimSpace(out) != "8.625 (8in. pipe)" {
		t.Errorf("unexpected lookup output: %q", out)
	}

	_, errOut, err := run(t, "", "catalog", "7")
	if err == nil {
		t.Fatal("expected a non-stock size to fail")
	}
	if !strings.Contains(errOut, "Nearest stock size is 6.625 (6in. pipe)") {
		t.Errorf("hint should name the nearest size:\n%s", errOut)
	}

	if _, _, err := run(t, "", "catalog", "big"); err == nil {
		t.Error("expected an invalid diameter to fail")
	}
}

func TestCLICheckViolations(t *testing.T) {
	out, errOut, err := run(t, "", "check", "examples/tight.stair")
	if err == nil {
		t.Fatal("expected check to fail")
	}
	if ExitCode(err) != ExitViolations {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitViolations)
	}
	if !strings.Contains(out, "clear-width-too-narrow") {
		t.Errorf("report should list the clear width violation:\n%s", out)
	}
	if !strings.Contains(errOut, "Hint:") {
		t.Errorf("expected a hint on stderr:\n%s", errOut)
	}
}

func TestCLICheckClean(t *testing.T) {
	out, _, err := run(t, "", "check", "--pole", "5", "--height", "100", "--outside", "64", "--rotation", "400")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.Contains(out, "All checks passed") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestCLICheckSnapPole(t *testing.T) {
	// 5.62 misses the walkline width; the snapped 5.56 pole misses it too,
	// so the failure must survive snapping.
	_, _, err := run(t, "", "check", "--snap-pole", "examples/main.stair")
	if ExitCode(err) != ExitViolations {
		t.Errorf("exit code = %d, want %d", ExitCode(err), ExitViolations)
	}
}

func TestCLIBuildFromFlags(t *testing.T) {
	out, _, err := run(t, "", "build", "--no-export", "--policy", "ignore",
		"--pole", "5.62", "--height", "144", "--outside", "72", "--rotation", "450", "--direction", "ccw")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, want := range []string{"Center Pole Diameter", "counter-clockwise", "Mid-landing", "No"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestCLIBuildFlagsOverrideSource(t *testing.T) {
	out, _, err := run(t, "", "build", "--no-export", "--policy", "ignore", "--pole", "10.75", "examples/main.stair")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "10.75 inches") {
		t.Errorf("expected the overridden pole in the summary:\n%s", out)
	}
}

func TestCLIBuildLinePrompt(t *testing.T) {
	// Scenario A has one soft violation; take the first suggestion.
	out, _, err := run(t, "1\n", "build", "--no-export", "examples/main.stair")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if !strings.Contains(out, "[1-2] accept") {
		t.Errorf("expected the line prompt:\n%s", out)
	}
	if !strings.Contains(out, "10.75 inches") {
		t.Errorf("expected the accepted pole size:\n%s", out)
	}
}

func TestCLIBuildPromptEOF(t *testing.T) {
	_, errOut, err := run(t, "", "build", "--no-export", "examples/main.stair")
	if err == nil {
		t.Fatal("expected an error when stdin closes")
	}
	if !strings.Contains(errOut, "--policy") {
		t.Errorf("hint should mention --policy:\n%s", errOut)
	}
}

func TestCLIBuildAbort(t *testing.T) {
	_, _, err := run(t, "", "build", "--policy", "abort", "examples/tall.stair")
	if ExitCode(err) != ExitAborted {
		t.Errorf("exit code = %d, want %d (%v)", ExitCode(err), ExitAborted, err)
	}
}

func TestCLIBuildExports(t *testing.T) {
	dir := t.TempDir()
	out, _, err := run(t, "", "build", "--policy", "accept", "--out", dir, "examples/tall.stair")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, name := range []string{"tower-stair.stl", "tower-stair-plan.dxf"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
		if !strings.Contains(out, name) {
			t.Errorf("output should list %s:\n%s", name, out)
		}
	}
}

func TestCLIBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing flags", []string{"build", "--pole", "5"}, "missing --height"},
		{"bad policy", []string{"build", "--policy", "sometimes", "examples/main.stair"}, "invalid --policy"},
		{"bad direction", []string{"build", "--direction", "up", "examples/main.stair"}, "invalid --direction"},
		{"missing file", []string{"build", "examples/absent.stair"}, "cannot read source"},
		{"fatal", []string{"build", "--policy", "ignore", "--pole", "5", "--height", "400", "--outside", "72", "--rotation", "450"}, "outside buildable limits"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errOut, err := run(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr = %q, want containing %q", errOut, tt.want)
			}
		})
	}
}

func TestCLIInvalidSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.stair")
	if err := os.WriteFile(path, []byte("(staircase :pole 5 :height 144)"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, errOut, err := run(t, "", "check", path)
	if !errors.Is(err, ErrSourceInvalid) {
		t.Fatalf("expected ErrSourceInvalid, got %v", err)
	}
	if !strings.Contains(errOut, "missing :outside, :rotation") {
		t.Errorf("stderr should show the eval error:\n%s", errOut)
	}
}

func TestCLIInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spiral.yaml")
	var out, errOut bytes.Buffer
	if err := ExecuteContext(context.Background(), []string{"init", "--config", path}, strings.NewReader(""), &out, &errOut); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if err := ExecuteContext(context.Background(), []string{"init", "--config", path}, strings.NewReader(""), &out, &errOut); err == nil {
		t.Error("second init should refuse to overwrite")
	}
}
