package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"port64/internal/core"
)

func sampleResult() *ScanResult {
	return &ScanResult{
		Diagnostics: []core.Diagnostic{
			{
				ID:       core.AssignmentIntegerToAddress,
				Message:  core.MessageFor(core.AssignmentIntegerToAddress),
				File:     "src/b.cpp",
				Line:     10,
				Column:   5,
				Severity: core.SeverityPortability,
			},
			{
				ID:       core.AssignmentAddressToInteger,
				Message:  core.MessageFor(core.AssignmentAddressToInteger),
				File:     "src/a.cpp",
				Line:     3,
				Column:   8,
				Severity: core.SeverityPortability,
			},
		},
		Duration:      42 * time.Millisecond,
		FilesScanned:  2,
		DetectorsUsed: []string{"Pointer Assignment Portability"},
	}
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewJSONWriter(&buf, WithPrettyJSON())

	if err := writer.Write(sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var report JSONReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if report.Tool.Name != "Port64" {
		t.Errorf("tool name = %q", report.Tool.Name)
	}
	if report.Summary.Total != 2 {
		t.Errorf("summary total = %d, want 2", report.Summary.Total)
	}
	if report.Summary.ByID[core.AssignmentAddressToInteger] != 1 {
		t.Errorf("by_id count wrong: %+v", report.Summary.ByID)
	}
	if report.Summary.FilesScanned != 2 {
		t.Errorf("files scanned = %d, want 2", report.Summary.FilesScanned)
	}

	// 输出按文件再按位置排序
	if len(report.Findings) != 2 {
		t.Fatalf("got %d findings", len(report.Findings))
	}
	if report.Findings[0].File != "src/a.cpp" || report.Findings[1].File != "src/b.cpp" {
		t.Errorf("findings not sorted by file: %s, %s",
			report.Findings[0].File, report.Findings[1].File)
	}
}

func TestSARIFWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewSARIFWriter(&buf, WithPrettySARIF())

	if err := writer.Write(sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var sarif SARIF
	if err := json.Unmarshal(buf.Bytes(), &sarif); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if sarif.Version != "2.1.0" {
		t.Errorf("sarif version = %q", sarif.Version)
	}
	if len(sarif.Runs) != 1 {
		t.Fatalf("got %d runs", len(sarif.Runs))
	}

	run := sarif.Runs[0]
	if len(run.Tool.Driver.Rules) != 4 {
		t.Errorf("got %d rules, want 4 fixed rule IDs", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("got %d results", len(run.Results))
	}

	for _, result := range run.Results {
		if result.Level != "warning" {
			t.Errorf("result level = %q, want warning", result.Level)
		}
		if result.RuleIndex < 0 || result.RuleIndex >= 4 {
			t.Errorf("rule index %d out of range for %s", result.RuleIndex, result.RuleID)
		}
		if run.Tool.Driver.Rules[result.RuleIndex].ID != result.RuleID {
			t.Errorf("rule index %d does not point at %s", result.RuleIndex, result.RuleID)
		}
	}
}

func TestTextWriter(t *testing.T) {
	var buf bytes.Buffer
	writer := NewTextWriter(&buf)

	if err := writer.Write(sampleResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Port64 Portability Scan Results",
		"Total findings: 2",
		"src/a.cpp",
		"src/b.cpp",
		core.MessageFor(core.AssignmentAddressToInteger),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q", want)
		}
	}
}

func TestTextWriterNoFindings(t *testing.T) {
	var buf bytes.Buffer
	writer := NewTextWriter(&buf)

	result := &ScanResult{FilesScanned: 3, Duration: time.Second}
	if err := writer.Write(result); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if !strings.Contains(buf.String(), "No portability issues found") {
		t.Errorf("missing no-findings message: %q", buf.String())
	}
}
