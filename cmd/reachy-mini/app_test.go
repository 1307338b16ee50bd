package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDevLauncherFindsEntryFile(t *testing.T) {
	orig := appDevPython
	appDevPython = "python3"
	t.Cleanup(func() { appDevPython = orig })

	t.Run("src layout", func(t *testing.T) {
		dir := t.TempDir()
		entry := filepath.Join(dir, "src", "my_app")
		if err := os.MkdirAll(entry, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(entry, "main.py"), []byte("pass\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		launcher, args, err := devLauncher(dir, "my_app")
		if err != nil {
			t.Fatalf("devLauncher() error = %v", err)
		}
		if launcher != "python3" {
			t.Errorf("launcher = %q", launcher)
		}
		want := filepath.Join("src", "my_app", "main.py")
		if len(args) != 1 || args[0] != want {
			t.Errorf("args = %v, want [%s]", args, want)
		}
	})

	t.Run("flat layout", func(t *testing.T) {
		dir := t.TempDir()
		entry := filepath.Join(dir, "my_app")
		if err := os.MkdirAll(entry, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(entry, "main.py"), []byte("pass\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		_, args, err := devLauncher(dir, "my_app")
		if err != nil {
			t.Fatalf("devLauncher() error = %v", err)
		}
		want := filepath.Join("my_app", "main.py")
		if len(args) != 1 || args[0] != want {
			t.Errorf("args = %v, want [%s]", args, want)
		}
	})

	t.Run("missing entry file", func(t *testing.T) {
		if _, _, err := devLauncher(t.TempDir(), "my_app"); err == nil {
			t.Error("devLauncher() expected error without a main.py")
		}
	})
}
