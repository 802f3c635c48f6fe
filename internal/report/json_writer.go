package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"port64/internal/core"
)

// JSONReport JSON 格式报告
type JSONReport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Tool        ToolInfo               `json:"tool"`
	Summary     Summary                `json:"summary"`
	Findings    []core.Diagnostic      `json:"findings"`
	Statistics  map[string]interface{} `json:"statistics,omitempty"`
}

// ToolInfo 工具信息
type ToolInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// Summary 发现统计摘要
type Summary struct {
	Total        int            `json:"total"`
	ByID         map[string]int `json:"by_id"`
	ByFile       map[string]int `json:"by_file"`
	FilesScanned int            `json:"files_scanned,omitempty"`
}

// JSONWriter JSON 报告写入器
type JSONWriter struct {
	writer io.Writer
	pretty bool
}

// JSONOption JSON 选项
type JSONOption func(*JSONWriter)

// WithPrettyJSON 启用美化 JSON 输出
func WithPrettyJSON() JSONOption {
	return func(w *JSONWriter) {
		w.pretty = true
	}
}

// NewJSONWriter 创建新的 JSON 写入器
func NewJSONWriter(writer io.Writer, options ...JSONOption) *JSONWriter {
	w := &JSONWriter{
		writer: writer,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// Write 生成并写入报告
func (w *JSONWriter) Write(result *ScanResult) error {
	report := w.generateReport(result)

	var data []byte
	var err error

	if w.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON report: %w", err)
	}

	_, err = w.writer.Write(data)
	return err
}

// WriteToFile 写入到文件
func (w *JSONWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewJSONWriter(file, w.options()...)
	return writer.Write(result)
}

// generateReport 生成报告数据
func (w *JSONWriter) generateReport(result *ScanResult) *JSONReport {
	report := &JSONReport{
		GeneratedAt: time.Now(),
		Tool: ToolInfo{
			Name:        "Port64",
			Version:     "1.0.0",
			Description: "64-bit pointer/integer portability scanner for C/C++",
		},
		Summary: Summary{
			Total:        len(result.Diagnostics),
			ByID:         make(map[string]int),
			ByFile:       make(map[string]int),
			FilesScanned: result.FilesScanned,
		},
		Findings:   append([]core.Diagnostic{}, result.Diagnostics...),
		Statistics: make(map[string]interface{}),
	}

	for _, diag := range result.Diagnostics {
		report.Summary.ByID[diag.ID]++
		report.Summary.ByFile[diag.File]++
	}

	// 稳定输出顺序：先文件再位置
	sort.Slice(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	report.Statistics["scan_duration"] = result.Duration.String()
	report.Statistics["files_scanned"] = result.FilesScanned
	report.Statistics["detectors_used"] = result.DetectorsUsed

	return report
}

// options 获取选项
func (w *JSONWriter) options() []JSONOption {
	opts := []JSONOption{}
	if w.pretty {
		opts = append(opts, WithPrettyJSON())
	}
	return opts
}
