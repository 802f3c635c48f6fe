package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
)

// TextWriter 文本格式报告写入器
type TextWriter struct {
	writer    io.Writer
	verbose   bool
	showColor bool
	showStats bool
}

// TextOption 文本选项
type TextOption func(*TextWriter)

// WithVerbose 启用详细输出
func WithVerbose() TextOption {
	return func(w *TextWriter) {
		w.verbose = true
	}
}

// WithColor 启用彩色输出
func WithColor() TextOption {
	return func(w *TextWriter) {
		w.showColor = true
	}
}

// WithoutStats 禁用统计信息
func WithoutStats() TextOption {
	return func(w *TextWriter) {
		w.showStats = false
	}
}

// NewTextWriter 创建新的文本写入器
func NewTextWriter(writer io.Writer, options ...TextOption) *TextWriter {
	w := &TextWriter{
		writer:    writer,
		showStats: true,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// Write 生成并写入文本报告
func (w *TextWriter) Write(result *ScanResult) error {
	if len(result.Diagnostics) == 0 {
		w.writeNoFindings(result)
		return nil
	}

	w.writeHeader(result)

	if w.showStats {
		w.writeStatistics(result)
	}

	w.writeFindings(result)

	return nil
}

// WriteToFile 写入到文件
func (w *TextWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewTextWriter(file, w.options()...)
	return writer.Write(result)
}

// writeHeader 写入报告标题
func (w *TextWriter) writeHeader(result *ScanResult) {
	fmt.Fprintf(w.writer, "\n")
	fmt.Fprintf(w.writer, "Port64 Portability Scan Results\n")
	fmt.Fprintf(w.writer, "===============================\n")
	fmt.Fprintf(w.writer, "Scan Time: %s\n", result.Duration)
	fmt.Fprintf(w.writer, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
}

// writeNoFindings 写入无发现信息
func (w *TextWriter) writeNoFindings(result *ScanResult) {
	ok := "✓"
	if w.showColor {
		ok = color.GreenString("✓")
	}
	fmt.Fprintf(w.writer, "\n%s No portability issues found.\n\n", ok)
	fmt.Fprintf(w.writer, "Scan Summary:\n")
	fmt.Fprintf(w.writer, "  Files scanned: %d\n", result.FilesScanned)
	fmt.Fprintf(w.writer, "  Duration: %s\n", result.Duration)
	fmt.Fprintf(w.writer, "  Detectors used: %d\n\n", len(result.DetectorsUsed))
}

// writeStatistics 写入统计信息
func (w *TextWriter) writeStatistics(result *ScanResult) {
	idCount := make(map[string]int)
	fileCount := make(map[string]int)
	for _, diag := range result.Diagnostics {
		idCount[diag.ID]++
		fileCount[diag.File]++
	}

	fmt.Fprintf(w.writer, "Summary:\n")
	fmt.Fprintf(w.writer, "--------\n")
	fmt.Fprintf(w.writer, "Total findings: %d\n", len(result.Diagnostics))

	ids := make([]string, 0, len(idCount))
	for id := range idCount {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(w.writer, "  %s: %d\n", id, idCount[id])
	}
	fmt.Fprintf(w.writer, "\n")

	fmt.Fprintf(w.writer, "Files with issues: %d\n\n", len(fileCount))

	if w.verbose {
		fmt.Fprintf(w.writer, "Detectors used: %d\n", len(result.DetectorsUsed))
		for _, detector := range result.DetectorsUsed {
			fmt.Fprintf(w.writer, "  - %s\n", detector)
		}
		fmt.Fprintf(w.writer, "\n")
	}
}

// writeFindings 按文件分组写入发现详情
func (w *TextWriter) writeFindings(result *ScanResult) {
	fileGroups := make(map[string][]int)
	for i, diag := range result.Diagnostics {
		fileGroups[diag.File] = append(fileGroups[diag.File], i)
	}

	files := make([]string, 0, len(fileGroups))
	for file := range fileGroups {
		files = append(files, file)
	}
	sort.Strings(files)

	severity := func(s string) string { return s }
	if w.showColor {
		sprint := color.New(color.FgYellow).SprintFunc()
		severity = func(s string) string { return sprint(s) }
	}

	for _, file := range files {
		fmt.Fprintf(w.writer, "File: %s\n", file)
		fmt.Fprintf(w.writer, "%s\n", strings.Repeat("-", 50))

		tw := tabwriter.NewWriter(w.writer, 0, 8, 2, ' ', 0)
		for _, i := range fileGroups[file] {
			diag := result.Diagnostics[i]
			fmt.Fprintf(tw, "  %s\t%d:%d\t%s\t[%s]\n",
				severity(diag.Severity),
				diag.Line,
				diag.Column,
				diag.Message,
				diag.ID,
			)
		}
		tw.Flush()
		fmt.Fprintf(w.writer, "\n")
	}
}

// options 获取选项
func (w *TextWriter) options() []TextOption {
	opts := []TextOption{}
	if w.verbose {
		opts = append(opts, WithVerbose())
	}
	if w.showColor {
		opts = append(opts, WithColor())
	}
	if !w.showStats {
		opts = append(opts, WithoutStats())
	}
	return opts
}
