package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestResolveBuildDetails(t *testing.T) {
	t.Parallel()

	d := resolveBuildDetails()
	if d.version == "" {
		t.Error("version is empty, want a value or the (devel) placeholder")
	}
	if d.commit == "" {
		t.Error("commit is empty, want a revision or the unknown placeholder")
	}
	if d.buildDate == "" {
		t.Error("buildDate is empty, want a timestamp or the unknown placeholder")
	}
	if !strings.HasPrefix(d.goVersion, "go") {
		t.Errorf("goVersion = %q, want a go toolchain version", d.goVersion)
	}
}

func TestShortHash(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"full revision abbreviated", "0123456789abcdef0123456789abcdef01234567", "0123456"},
		{"short value kept", "abc123", "abc123"},
		{"empty kept", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := shortHash(tt.in); got != tt.want {
				t.Errorf("shortHash(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewVersionCmd(t *testing.T) {
	t.Parallel()

	cmd := NewVersionCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "version" {
			t.Errorf("expected Use to be 'version', got %q", cmd.Use)
		}
	})

	t.Run("command has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected Short to be non-empty")
		}
	})

	t.Run("command outputs version info", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"competitorscan version", "commit:", "built:", "go:"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q, got %q", want, output)
			}
		}
	})

	t.Run("short flag prints only the version", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		cmd := NewVersionCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--short"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := strings.TrimSpace(buf.String())
		if output == "" {
			t.Fatal("expected a version line")
		}
		if strings.Contains(output, "\n") || strings.Contains(output, "commit") {
			t.Errorf("expected a single version line, got %q", output)
		}
	})
}
