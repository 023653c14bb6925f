package main

import "testing"

func TestTruncatePath(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"/short", 20, "/short"},
		{"/data/deeply/nested/file.bin", 15, "...ted/file.bin"},
		{"exact-length-ok", 15, "exact-length-ok"},
	}

	for _, tt := range tests {
		if got := truncatePath(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("truncatePath(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 4); got != "a..." {
		t.Errorf("truncateString() = %q, want %q", got, "a...")
	}
	if got := truncateString("abc", 10); got != "abc" {
		t.Errorf("truncateString() = %q, want %q", got, "abc")
	}
}

func TestCompanionPaths(t *testing.T) {
	if got := errorsCompanion("/out/manifest.json"); got != "/out/manifest_errors.txt" {
		t.Errorf("errorsCompanion() = %q", got)
	}
	if got := corruptedCompanion("/out/report.json"); got != "/out/report_corrupted.txt" {
		t.Errorf("corruptedCompanion() = %q", got)
	}
}
