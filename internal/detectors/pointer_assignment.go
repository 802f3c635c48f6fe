package detectors

import (
	sitter "github.com/smacker/go-tree-sitter"

	"port64/internal/core"
)

// PointerAssignmentDetector 指针/整数赋值移植性检测器
// 检查简单赋值和带初始化器的变量声明两类站点：
// 指针目标收到整数值，或整数目标收到地址值，在
// sizeof(pointer) != sizeof(int) 的平台上都会截断或曲解地址
type PointerAssignmentDetector struct {
	*core.BaseDetector
}

// NewPointerAssignmentDetector 创建赋值检测器
func NewPointerAssignmentDetector() *PointerAssignmentDetector {
	return &PointerAssignmentDetector{
		BaseDetector: core.NewBaseDetector(
			"Pointer Assignment Portability",
			"Detects pointer/integer conversions at assignment and initialization sites",
		),
	}
}

// Run 执行检测
func (d *PointerAssignmentDetector) Run(ctx *core.AnalysisContext) ([]core.Diagnostic, error) {
	model := ctx.Model()
	file := ctx.Unit.FilePath
	var diags []core.Diagnostic

	assignments, err := ctx.QueryNodes(`(assignment_expression) @assign`)
	if err != nil {
		return nil, core.WrapError(d, err)
	}
	for _, assign := range assignments {
		if diag, ok := d.checkAssignment(model, assign, file); ok {
			diags = append(diags, diag)
		}
	}

	inits, err := ctx.QueryNodes(`(init_declarator) @init`)
	if err != nil {
		return nil, core.WrapError(d, err)
	}
	for _, init := range inits {
		if diag, ok := d.checkInitializer(model, init, file); ok {
			diags = append(diags, diag)
		}
	}

	return diags, nil
}

// checkAssignment 检查一个简单赋值站点
func (d *PointerAssignmentDetector) checkAssignment(model *core.SemanticModel, assign *sitter.Node, file string) (core.Diagnostic, bool) {
	op := assign.ChildByFieldName("operator")
	if op == nil || op.Type() != "=" {
		// 复合赋值（+=、|= 等）不属于本检查
		return core.Diagnostic{}, false
	}

	lhs := assign.ChildByFieldName("left")
	rhs := assign.ChildByFieldName("right")
	if lhs == nil || rhs == nil {
		return core.Diagnostic{}, false
	}

	return d.checkSite(model, model.Evaluate(lhs), rhs, op, file)
}

// checkInitializer 检查一个带初始化器的变量声明站点
// 声明不可见或类型不可解析的情况直接跳过：信息缺失不是缺陷证据
func (d *PointerAssignmentDetector) checkInitializer(model *core.SemanticModel, init *sitter.Node, file string) (core.Diagnostic, bool) {
	decl := init.Parent()
	if decl == nil || decl.Type() != "declaration" {
		return core.Diagnostic{}, false
	}

	value := init.ChildByFieldName("value")
	if value == nil || value.Type() == "initializer_list" {
		return core.Diagnostic{}, false
	}

	target := model.DeclaredValueType(
		decl.ChildByFieldName("type"),
		init.ChildByFieldName("declarator"),
		false,
	)

	return d.checkSite(model, target, value, equalsToken(init), file)
}

// checkSite 目标分类与来源分类的错配判定
func (d *PointerAssignmentDetector) checkSite(model *core.SemanticModel, target core.ValueType, source *sitter.Node, at *sitter.Node, file string) (core.Diagnostic, bool) {
	tc := target.Classify()
	if tc == core.Boolean || tc == core.Unknown {
		// bool ok = p; 是公认的习惯用法；Unknown 永不报告
		return core.Diagnostic{}, false
	}

	sc := model.Evaluate(source).Classify()

	switch {
	case tc == core.Pointer && sc == core.Integral:
		return d.NewDiagnostic(core.AssignmentIntegerToAddress, at, file), true
	case tc == core.Integral && sc == core.Pointer:
		return d.NewDiagnostic(core.AssignmentAddressToInteger, at, file), true
	}

	return core.Diagnostic{}, false
}

// equalsToken 定位初始化器中的 "=" 记号（诊断定位到该记号）
func equalsToken(init *sitter.Node) *sitter.Node {
	for i := 0; i < int(init.ChildCount()); i++ {
		if child := init.Child(i); child.Type() == "=" {
			return child
		}
	}
	return init
}
