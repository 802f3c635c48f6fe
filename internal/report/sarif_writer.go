package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"port64/internal/core"
)

// SARIFWriter SARIF 格式报告写入器
type SARIFWriter struct {
	writer io.Writer
	pretty bool
}

// SARIFOption SARIF 选项
type SARIFOption func(*SARIFWriter)

// WithPrettySARIF 启用美化输出
func WithPrettySARIF() SARIFOption {
	return func(w *SARIFWriter) {
		w.pretty = true
	}
}

// NewSARIFWriter 创建新的 SARIF 写入器
func NewSARIFWriter(writer io.Writer, options ...SARIFOption) *SARIFWriter {
	w := &SARIFWriter{
		writer: writer,
	}

	for _, opt := range options {
		opt(w)
	}

	return w
}

// Write 生成并写入报告
func (w *SARIFWriter) Write(result *ScanResult) error {
	report := w.generateSARIFReport(result)

	var data []byte
	var err error

	if w.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal SARIF report: %w", err)
	}

	_, err = w.writer.Write(data)
	return err
}

// WriteToFile 写入到文件
func (w *SARIFWriter) WriteToFile(result *ScanResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	writer := NewSARIFWriter(file)
	writer.pretty = w.pretty
	return writer.Write(result)
}

// ruleIDs 固定的规则集合（与 core 中的诊断类别一一对应）
var ruleIDs = []string{
	core.AssignmentAddressToInteger,
	core.AssignmentIntegerToAddress,
	core.CastAddressToIntegerAtReturn,
	core.CastIntegerToAddressAtReturn,
}

// generateSARIFReport 生成 SARIF 报告
func (w *SARIFWriter) generateSARIFReport(result *ScanResult) *SARIF {
	return &SARIF{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:           "Port64",
						Version:        "1.0.0",
						InformationURI: "https://example.com/port64",
						Rules:          w.generateRules(),
					},
				},
				Results: w.generateResults(result),
			},
		},
	}
}

// generateRules 生成规则描述
func (w *SARIFWriter) generateRules() []Rule {
	rules := make([]Rule, 0, len(ruleIDs))
	for _, id := range ruleIDs {
		rules = append(rules, Rule{
			ID: id,
			ShortDescription: Description{
				Text: core.MessageFor(id),
			},
			DefaultConfiguration: Configuration{
				// portability 发现映射为 SARIF warning
				Level: "warning",
			},
		})
	}
	return rules
}

// generateResults 生成结果列表
func (w *SARIFWriter) generateResults(result *ScanResult) []Result {
	results := make([]Result, 0, len(result.Diagnostics))

	for _, diag := range result.Diagnostics {
		results = append(results, Result{
			RuleID:    diag.ID,
			RuleIndex: ruleIndex(diag.ID),
			Level:     "warning",
			Message: Message{
				Text: diag.Message,
			},
			Locations: []Location{
				{
					PhysicalLocation: PhysicalLocation{
						ArtifactLocation: ArtifactLocation{
							URI: diag.File,
						},
						Region: Region{
							StartLine:   diag.Line,
							StartColumn: diag.Column,
						},
					},
				},
			},
		})
	}

	return results
}

// ruleIndex 返回规则在固定规则集合中的下标
func ruleIndex(id string) int {
	for i, ruleID := range ruleIDs {
		if ruleID == id {
			return i
		}
	}
	return -1
}

// SARIF SARIF 2.1.0 顶层结构
type SARIF struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules"`
}

type Rule struct {
	ID                   string        `json:"id"`
	ShortDescription     Description   `json:"shortDescription"`
	DefaultConfiguration Configuration `json:"defaultConfiguration"`
}

type Description struct {
	Text string `json:"text"`
}

type Configuration struct {
	Level string `json:"level"`
}

type Result struct {
	RuleID    string     `json:"ruleId"`
	RuleIndex int        `json:"ruleIndex"`
	Level     string     `json:"level"`
	Message   Message    `json:"message"`
	Locations []Location `json:"locations"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
}
