package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/swervsim/memsim/internal/log"
)

func TestLoadRunLoadsHexImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "image.hex")

	if err := os.WriteFile(path, []byte("@100\nDE AD BE EF\n"), 0o644); err != nil {
		t.Fatalf("writing test hex image: %v", err)
	}

	cmd := Load().(*load)

	var out bytes.Buffer

	code := cmd.Run(context.Background(), []string{path}, &out, log.DefaultLogger())
	if code != 0 {
		t.Fatalf("Run returned %d, want 0; output: %s", code, out.String())
	}

	if !bytes.Contains(out.Bytes(), []byte("loaded hex image")) {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestLoadRunRequiresOneArg(t *testing.T) {
	t.Parallel()

	cmd := Load().(*load)

	var out bytes.Buffer

	if code := cmd.Run(context.Background(), nil, &out, log.DefaultLogger()); code == 0 {
		t.Error("expected non-zero exit code with no image argument")
	}
}
