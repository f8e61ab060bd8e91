package main

import "testing"

func TestDefaultAsmPath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"prog.hy", "prog.asm"},
		{"dir/prog.hy", "dir/prog.asm"},
		{"noext", "noext.asm"},
		{"a.b.hy", "a.b.asm"},
	}

	for _, tt := range tests {
		if got := defaultAsmPath(tt.input); got != tt.want {
			t.Errorf("defaultAsmPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// TestExitCode verifies the process exit code carries the program's status,
// truncated to the 8 bits a POSIX exit code can hold.
func TestExitCode(t *testing.T) {
	tests := []struct {
		status uint16
		want   int
	}{
		{0, 0},
		{7, 7},
		{255, 255},
		{256, 0},
		{300, 44},
		{65535, 255},
	}

	for _, tt := range tests {
		if got := exitCode(tt.status); got != tt.want {
			t.Errorf("exitCode(%d) = %d, want %d", tt.status, got, tt.want)
		}
	}
}
