package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testApp() (*App, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	app := New().WithOutput(stdout, stderr)
	return app, stdout, stderr
}

func TestApp_Version(t *testing.T) {
	app, stdout, _ := testApp()

	if err := app.ExecuteWithArgs(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}

	if !strings.Contains(stdout.String(), "pagecache version") {
		t.Errorf("unexpected version output: %s", stdout.String())
	}
}

func TestApp_UnknownCommand(t *testing.T) {
	app, _, _ := testApp()

	if err := app.ExecuteWithArgs(context.Background(), []string{"nope"}); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestApp_Demo(t *testing.T) {
	app, stdout, _ := testApp()

	err := app.ExecuteWithArgs(context.Background(), []string{
		"demo", "--max-size", "3", "--stale-tolerance", "50ms",
	})
	if err != nil {
		t.Fatalf("demo: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"LRU eviction", "staleness", "invalidation", "stats:"} {
		if !strings.Contains(out, want) {
			t.Errorf("demo output missing %q:\n%s", want, out)
		}
	}
}

func TestApp_Replay(t *testing.T) {
	app, stdout, _ := testApp()

	workload := `
maxSize: 2
staleTolerance: 50ms
ops:
  - op: set
    partition: gallery
    params: {page: 1}
    data: "page one"
  - op: get
    partition: gallery
    params: {page: 1}
  - op: invalidate
    pattern: "^gallery-"
  - op: get
    partition: gallery
    params: {page: 1}
  - op: stats
`
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(workload), 0o600); err != nil {
		t.Fatalf("write workload: %v", err)
	}

	if err := app.ExecuteWithArgs(context.Background(), []string{"replay", path}); err != nil {
		t.Fatalf("replay: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "stale=false") {
		t.Errorf("expected a fresh hit in output:\n%s", out)
	}
	if !strings.Contains(out, "stale=true") {
		t.Errorf("expected a stale hit after invalidation:\n%s", out)
	}
	if !strings.Contains(out, "1 matched") {
		t.Errorf("expected invalidation match count in output:\n%s", out)
	}
}

func TestApp_ReplayRejectsBadWorkload(t *testing.T) {
	app, _, _ := testApp()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("ops:\n  - op: explode\n"), 0o600); err != nil {
		t.Fatalf("write workload: %v", err)
	}

	if err := app.ExecuteWithArgs(context.Background(), []string{"replay", path}); err == nil {
		t.Error("expected error for unknown workload op")
	}
}

func TestLoadWorkload_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{
			name:    "valid",
			content: "ops:\n  - op: set\n    params: {page: 1}\n    data: x\n",
			wantErr: false,
		},
		{
			name:    "no ops",
			content: "maxSize: 5\n",
			wantErr: true,
		},
		{
			name:    "set without params",
			content: "ops:\n  - op: set\n    data: x\n",
			wantErr: true,
		},
		{
			name:    "bad pattern",
			content: "ops:\n  - op: invalidate\n    pattern: '['\n",
			wantErr: true,
		},
		{
			name:    "bad duration",
			content: "ops:\n  - op: sleep\n    duration: soon\n",
			wantErr: true,
		},
		{
			name:    "bad tolerance",
			content: "staleTolerance: whenever\nops:\n  - op: stats\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "w.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatalf("write workload: %v", err)
			}

			_, err := LoadWorkload(path)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadWorkload() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
