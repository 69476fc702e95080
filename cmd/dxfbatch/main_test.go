package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/scene"
)

// dxfText joins alternating codes and values into DXF text.
func dxfText(pairs ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%3v\n%v\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

// writeDrawing writes two red lines on layer "walls".
func writeDrawing(t *testing.T, dir string) string {
	t.Helper()
	text := dxfText(
		0, "SECTION", 2, "TABLES",
		0, "TABLE", 2, "LAYER",
		0, "LAYER", 2, "walls", 70, 0, 62, 1,
		0, "ENDTAB",
		0, "ENDSEC",
		0, "SECTION", 2, "ENTITIES",
		0, "LINE", 8, "walls", 10, 0, 20, 0, 30, 0, 11, 10, 21, 0, 31, 0,
		0, "LINE", 8, "walls", 10, 0, 20, 5, 30, 0, 11, 10, 21, 5, 31, 0,
		0, "ENDSEC",
		0, "EOF",
	)
	path := filepath.Join(dir, "plan.dxf")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestBuildWritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	in := writeDrawing(t, dir)
	out := filepath.Join(dir, "plan.dxfb")

	stdout, err := run(t, "build", in, "-o", out)
	if err != nil {
		t.Fatalf("build error = %v\n%s", err, stdout)
	}
	if !strings.Contains(stdout, "wrote "+out) {
		t.Errorf("output = %q, want it to name %s", stdout, out)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	snap, err := scene.ReadSnapshot(f)
	if err != nil {
		t.Fatalf("ReadSnapshot() error = %v", err)
	}
	if len(snap.Batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(snap.Batches))
	}
	if got := snap.Batches[0].Key.Color; got != dxf.Literal(dxf.RGB{R: 255}) {
		t.Errorf("batch color = %v, want red", got)
	}
}

func TestBuildDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeDrawing(t, dir)
	if _, err := run(t, "build", in); err != nil {
		t.Fatalf("build error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "plan.dxfb")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestInfo(t *testing.T) {
	dir := t.TempDir()
	in := writeDrawing(t, dir)
	snapPath := filepath.Join(dir, "plan.dxfb")
	if _, err := run(t, "build", in, "-o", snapPath); err != nil {
		t.Fatalf("build error = %v", err)
	}

	for _, path := range []string{in, snapPath} {
		stdout, err := run(t, "info", path)
		if err != nil {
			t.Fatalf("info %s error = %v", path, err)
		}
		for _, want := range []string{"batches:    1", "drawables:  1", "walls", "#ff0000"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("info %s missing %q:\n%s", filepath.Base(path), want, stdout)
			}
		}
	}
}

func TestInfoMissingFile(t *testing.T) {
	if _, err := run(t, "info", filepath.Join(t.TempDir(), "none.dxf")); err == nil {
		t.Error("info of a missing file succeeded")
	}
}

func TestPatterns(t *testing.T) {
	stdout, err := run(t, "patterns")
	if err != nil {
		t.Fatalf("patterns error = %v", err)
	}
	for _, want := range []string{"metric:", "imperial:", "AR-CONC", "GRAVEL"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("patterns output missing %q", want)
		}
	}

	stdout, err = run(t, "patterns", "maze-01")
	if err != nil {
		t.Fatalf("patterns maze-01 error = %v", err)
	}
	if !strings.HasPrefix(strings.ToUpper(stdout), "*MAZE-01") {
		t.Errorf("dump = %q, want a *MAZE-01 header", stdout)
	}

	if _, err := run(t, "patterns", "no-such-pattern"); err == nil {
		t.Error("unknown pattern did not fail")
	}
}

func TestPatternFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extra.pat")
	if err := os.WriteFile(path, []byte("*STRIPES, test stripes\n45, 0,0, 0,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	stdout, err := run(t, "patterns", "--pattern-file", path, "stripes")
	if err != nil {
		t.Fatalf("patterns error = %v", err)
	}
	if want := "*STRIPES, test stripes\n45,0,0,0,2\n"; stdout != want {
		t.Errorf("dump = %q, want %q", stdout, want)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	err := os.WriteFile(good, []byte(`
encoding = "windows-1251"

[scene]
arc_angle = 5
max_hatch_lines = 100

[render]
background = "#ffffff"
black_white_inversion = false
point_size = 4
`), 0o644)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(good)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	if cfg.Encoding != "windows-1251" {
		t.Errorf("Encoding = %q, want windows-1251", cfg.Encoding)
	}
	sopts, err := cfg.sceneOptions()
	if err != nil {
		t.Fatalf("sceneOptions() error = %v", err)
	}
	if sopts.MaxHatchLines != 100 {
		t.Errorf("MaxHatchLines = %d, want 100", sopts.MaxHatchLines)
	}
	if sopts.Patterns == nil || sopts.Patterns.Count() == 0 {
		t.Error("built-in patterns not loaded")
	}
	ropts, err := cfg.renderOptions()
	if err != nil {
		t.Fatalf("renderOptions() error = %v", err)
	}
	if ropts.Background != dxf.White || ropts.BlackWhiteInversion || ropts.PointSize != 4 {
		t.Errorf("render options = %+v", ropts)
	}

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("[render]\nbackgrond = \"#000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(bad); err == nil || !strings.Contains(err.Error(), "backgrond") {
		t.Errorf("loadConfig(typo) error = %v, want unknown key", err)
	}
}
