package platform

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestChmod(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on windows")
	}
	tmp := t.TempDir()
	file := filepath.Join(tmp, "config.xml")
	dir := filepath.Join(tmp, "Plugins")
	if err := os.WriteFile(file, []byte("<widget/>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		mode os.FileMode
	}{
		{file, 0600},
		{dir, 0700},
	}
	for _, tt := range tests {
		if err := Chmod(tt.path, tt.mode); err != nil {
			t.Fatalf("Chmod(%s): %v", tt.path, err)
		}
		info, err := os.Stat(tt.path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != tt.mode {
			t.Errorf("%s permissions = %o, want %o", filepath.Base(tt.path), perm, tt.mode)
		}
	}
}

func TestMakeExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not supported on windows")
	}
	tests := []struct {
		mode, want os.FileMode
	}{
		{0644, 0755},
		{0600, 0700},
		{0755, 0755},
	}
	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "build")
		if err := os.WriteFile(path, []byte("#!/bin/sh\n"), tt.mode); err != nil {
			t.Fatal(err)
		}
		if err := os.Chmod(path, tt.mode); err != nil {
			t.Fatal(err)
		}
		if err := MakeExecutable(path); err != nil {
			t.Fatalf("MakeExecutable: %v", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != tt.want {
			t.Errorf("MakeExecutable(%o) = %o, want %o", tt.mode, perm, tt.want)
		}
	}
}
