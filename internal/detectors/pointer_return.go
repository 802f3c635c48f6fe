package detectors

import (
	sitter "github.com/smacker/go-tree-sitter"

	"port64/internal/core"
)

// PointerReturnDetector 指针/整数返回值移植性检测器
// 对每个函数体，用函数的声明返回类型检查其自身的 return 语句；
// 嵌套在函数里的 lambda 体和局部类成员函数体被显式排除，
// 它们在被当作顶层函数访问到时各自独立接受检查
type PointerReturnDetector struct {
	*core.BaseDetector
}

// NewPointerReturnDetector 创建返回值检测器
func NewPointerReturnDetector() *PointerReturnDetector {
	return &PointerReturnDetector{
		BaseDetector: core.NewBaseDetector(
			"Pointer Return Portability",
			"Detects pointer/integer conversions at return sites",
		),
	}
}

// Run 执行检测
func (d *PointerReturnDetector) Run(ctx *core.AnalysisContext) ([]core.Diagnostic, error) {
	model := ctx.Model()
	file := ctx.Unit.FilePath
	var diags []core.Diagnostic

	functions, err := ctx.QueryNodes(`(function_definition) @fn`)
	if err != nil {
		return nil, core.WrapError(d, err)
	}

	for _, fn := range functions {
		diags = append(diags, d.checkFunction(model, fn, file)...)
	}

	return diags, nil
}

// checkFunction 检查单个函数的所有自身 return 站点
func (d *PointerReturnDetector) checkFunction(model *core.SemanticModel, fn *sitter.Node, file string) []core.Diagnostic {
	rt := model.FunctionReturnType(fn).Classify()
	if rt != core.Pointer && rt != core.Integral {
		// 返回 bool 或无法解析的返回类型，整个函数跳过
		return nil
	}

	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var diags []core.Diagnostic
	for _, ret := range ownReturnStatements(body) {
		if diag, ok := d.checkReturn(model, rt, ret, file); ok {
			diags = append(diags, diag)
		}
	}
	return diags
}

// checkReturn 检查一条 return 语句
func (d *PointerReturnDetector) checkReturn(model *core.SemanticModel, rt core.Classification, ret *sitter.Node, file string) (core.Diagnostic, bool) {
	if ret.NamedChildCount() == 0 {
		// 裸 return
		return core.Diagnostic{}, false
	}
	expr := ret.NamedChild(0)
	if expr.Type() == "initializer_list" || expr.Type() == "comment" {
		// return {}; 没有可求值的具体分类
		return core.Diagnostic{}, false
	}

	sc := model.Evaluate(expr).Classify()

	switch {
	case rt == core.Pointer && sc == core.Integral:
		return d.NewDiagnostic(core.CastIntegerToAddressAtReturn, ret, file), true
	case rt == core.Integral && sc == core.Pointer:
		return d.NewDiagnostic(core.CastAddressToIntegerAtReturn, ret, file), true
	}

	return core.Diagnostic{}, false
}

// ownReturnStatements 收集函数自身函数体里的 return 语句，
// 不下行进入嵌套的函数类构造
func ownReturnStatements(body *sitter.Node) []*sitter.Node {
	var returns []*sitter.Node

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		switch node.Type() {
		case "lambda_expression", "function_definition",
			"class_specifier", "struct_specifier", "union_specifier":
			// 嵌套作用域的 return 绝不计入外层函数
			return
		case "return_statement":
			returns = append(returns, node)
			return
		}

		for i := 0; i < int(node.NamedChildCount()); i++ {
			walk(node.NamedChild(i))
		}
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		walk(body.NamedChild(i))
	}

	return returns
}
