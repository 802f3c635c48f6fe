package report

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"TEXT", FormatText, false},
		{"Sarif", FormatSARIF, false},
		{"all", FormatAll, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestManagerGenerateAll(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(
		WithFormat(FormatAll),
		WithOutputDir(dir),
	)

	files, err := mgr.Generate(sampleResult())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d output files, want 3", len(files))
	}

	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			t.Errorf("output file missing: %v", err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("output file %s is empty", file)
		}
	}
}

func TestManagerCustomFilename(t *testing.T) {
	dir := t.TempDir()
	mgr := NewManager(
		WithFormat(FormatJSON),
		WithOutputDir(dir),
		WithFilename("scan.json"),
	)

	files, err := mgr.Generate(sampleResult())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d output files, want 1", len(files))
	}
	if filepath.Base(files[0]) != "scan.json" {
		t.Errorf("output file = %s, want scan.json", files[0])
	}
}

func TestSupportedFormatsHaveDescriptions(t *testing.T) {
	for _, f := range SupportedFormats() {
		if FormatDescription(f) == "unknown format" {
			t.Errorf("format %s has no description", f)
		}
	}
}
