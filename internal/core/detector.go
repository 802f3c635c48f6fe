package core

import (
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// 诊断类别标识，与报告层的规则 ID 一一对应
const (
	AssignmentAddressToInteger   = "AssignmentAddressToInteger"
	AssignmentIntegerToAddress   = "AssignmentIntegerToAddress"
	CastAddressToIntegerAtReturn = "CastAddressToIntegerAtReturn"
	CastIntegerToAddressAtReturn = "CastIntegerToAddressAtReturn"
)

// SeverityPortability 所有诊断的固定严重级别
const SeverityPortability = "portability"

// messages 每种诊断类别的固定消息模板
var messages = map[string]string{
	AssignmentAddressToInteger:   "Assigning a pointer to an integer is not portable.",
	AssignmentIntegerToAddress:   "Assigning an integer to a pointer is not portable.",
	CastAddressToIntegerAtReturn: "Returning an address value in a function with integer return type is not portable.",
	CastIntegerToAddressAtReturn: "Returning an integer in a function with pointer return type is not portable.",
}

// MessageFor 返回诊断类别对应的消息模板
func MessageFor(id string) string {
	return messages[id]
}

// Diagnostic 单条移植性诊断，创建后不可变
type Diagnostic struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Severity string `json:"severity"`
}

// Detector 检测器接口
type Detector interface {
	// Name 返回检测器名称
	Name() string

	// Description 返回检测器描述
	Description() string

	// Run 执行检测
	Run(ctx *AnalysisContext) ([]Diagnostic, error)
}

// BaseDetector 基础检测器，提供通用功能
type BaseDetector struct {
	name        string
	description string
}

// NewBaseDetector 创建基础检测器
func NewBaseDetector(name, description string) *BaseDetector {
	return &BaseDetector{
		name:        name,
		description: description,
	}
}

// Name 返回检测器名称
func (d *BaseDetector) Name() string {
	return d.name
}

// Description 返回检测器描述
func (d *BaseDetector) Description() string {
	return d.description
}

// NewDiagnostic 在节点位置创建诊断（行列转换为 1 基索引）
func (d *BaseDetector) NewDiagnostic(id string, node *sitter.Node, file string) Diagnostic {
	row, _ := safecast.Conv[int](node.StartPoint().Row)
	col, _ := safecast.Conv[int](node.StartPoint().Column)

	return Diagnostic{
		ID:       id,
		Message:  MessageFor(id),
		File:     file,
		Line:     row + 1,
		Column:   col + 1,
		Severity: SeverityPortability,
	}
}

// ErrorWrapper 包装检测器错误
type ErrorWrapper struct {
	DetectorName string
	Err          error
}

func (e *ErrorWrapper) Error() string {
	return fmt.Sprintf("detector %s: %v", e.DetectorName, e.Err)
}

// WrapError 包装检测器错误
func WrapError(detector Detector, err error) error {
	return &ErrorWrapper{
		DetectorName: detector.Name(),
		Err:          err,
	}
}
