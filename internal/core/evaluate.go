package core

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Evaluate 递归分类表达式的静态形状
// 每个未覆盖的表达式形状都落入 Unknown，绝不在无法核实的
// 假设上产生诊断
func (m *SemanticModel) Evaluate(node *sitter.Node) ValueType {
	if node == nil {
		return unknownValue
	}

	switch node.Type() {
	case "number_literal":
		return classifyNumberLiteral(m.text(node))

	case "char_literal":
		return ValueType{Base: Integral}

	case "true", "false":
		return ValueType{Base: Boolean}

	case "null", "nullptr":
		if m.text(node) == "NULL" {
			// NULL 的宏定义不可见，不做任何假设
			return unknownValue
		}
		return ValueType{Pointer: 1, Base: Unknown}

	case "string_literal", "raw_string_literal", "concatenated_string":
		// 字符串字面量在表达式中退化为字符指针
		return ValueType{Pointer: 1, Base: Integral}

	case "identifier":
		if site, ok := m.resolveDeclSite(node); ok {
			return m.DeclaredValueType(site.typeNode, site.declNode, site.isParam)
		}
		// 无可见声明（含 NULL 宏）不做任何假设
		return unknownValue

	case "qualified_identifier":
		if m.IsEnumerator(m.text(node), m.scopeOf(node)) {
			return ValueType{Base: Integral}
		}
		return unknownValue

	case "parenthesized_expression":
		return m.Evaluate(node.NamedChild(0))

	case "unary_expression":
		return m.evaluateUnary(node)

	case "pointer_expression":
		return m.evaluatePointer(node)

	case "update_expression":
		// ++/-- 不改变操作数的形状
		vt := m.Evaluate(node.ChildByFieldName("argument"))
		switch vt.Classify() {
		case Pointer, Integral:
			return vt
		}
		return unknownValue

	case "binary_expression":
		return m.evaluateBinary(node)

	case "conditional_expression":
		return m.evaluateConditional(node)

	case "cast_expression":
		// 显式转换按转换目标类型分类
		return m.classifyTypeSpecifier(node.ChildByFieldName("type"), make(map[string]bool))

	case "call_expression":
		return m.evaluateCall(node)

	case "field_expression":
		return m.evaluateFieldAccess(node)

	case "subscript_expression":
		return m.Evaluate(node.ChildByFieldName("argument")).Index()

	case "new_expression":
		return ValueType{Pointer: 1, Base: Unknown}
	}

	return unknownValue
}

// classifyNumberLiteral 分类数字字面量
// 字面量 0 是空指针常量，与指针和整数两侧都兼容，归为 Unknown
func classifyNumberLiteral(s string) ValueType {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)

	if strings.HasPrefix(lower, "0x") {
		if strings.ContainsAny(lower, ".p") {
			return unknownValue // 十六进制浮点
		}
	} else if strings.ContainsAny(lower, ".e") {
		return unknownValue // 浮点
	}

	trimmed := strings.TrimRight(s, "uUlLzZ")
	v, err := strconv.ParseUint(trimmed, 0, 64)
	if err != nil {
		return unknownValue
	}
	if v == 0 {
		return unknownValue
	}

	return ValueType{Base: Integral}
}

// evaluateUnary 分类普通一元运算
func (m *SemanticModel) evaluateUnary(node *sitter.Node) ValueType {
	op := m.text(node.ChildByFieldName("operator"))
	operand := m.Evaluate(node.ChildByFieldName("argument"))

	switch op {
	case "!":
		return ValueType{Base: Boolean}
	case "-", "+", "~":
		if operand.Classify() == Integral {
			return ValueType{Base: Integral}
		}
	}
	return unknownValue
}

// evaluatePointer 分类解引用与取地址
func (m *SemanticModel) evaluatePointer(node *sitter.Node) ValueType {
	op := m.text(node.ChildByFieldName("operator"))
	operand := m.Evaluate(node.ChildByFieldName("argument"))

	switch op {
	case "*":
		return operand.Deref()
	case "&":
		return operand.AddressOf()
	}
	return unknownValue
}

// evaluateBinary 按操作符的组合规则分类二元运算
func (m *SemanticModel) evaluateBinary(node *sitter.Node) ValueType {
	left := m.Evaluate(node.ChildByFieldName("left"))
	right := m.Evaluate(node.ChildByFieldName("right"))
	lc, rc := left.Classify(), right.Classify()

	switch m.text(node.ChildByFieldName("operator")) {
	case "==", "!=", "<", ">", "<=", ">=", "<=>", "&&", "||":
		// 比较永远是布尔值，指针与 NULL/0 的比较绝不报地址截断
		return ValueType{Base: Boolean}

	case "+":
		switch {
		case lc == Pointer && rc == Integral:
			return left
		case lc == Integral && rc == Pointer:
			return right
		case lc == Integral && rc == Integral:
			return ValueType{Base: Integral}
		}
		// 指针 + 指针不是合法习惯用法，不值得两头押注
		return unknownValue

	case "-":
		switch {
		case lc == Pointer && rc == Pointer:
			// 指针差值
			return ValueType{Base: Integral}
		case lc == Pointer && rc == Integral:
			return left
		case lc == Integral && rc == Pointer:
			return right
		case lc == Integral && rc == Integral:
			return ValueType{Base: Integral}
		}
		return unknownValue

	case "*", "/", "%", "&", "|", "^", "<<", ">>":
		if lc == Integral && rc == Integral {
			return ValueType{Base: Integral}
		}
		return unknownValue
	}

	return unknownValue
}

// evaluateConditional 三目表达式：两个分支一致才有结论
func (m *SemanticModel) evaluateConditional(node *sitter.Node) ValueType {
	consequence := m.Evaluate(node.ChildByFieldName("consequence"))
	alternative := m.Evaluate(node.ChildByFieldName("alternative"))

	if consequence.Classify() == alternative.Classify() {
		return consequence
	}
	return unknownValue
}

// evaluateCall 调用表达式按被调函数的声明返回类型分类
// 被调函数不可解析时（标准库调用、函数指针等）保持 Unknown
func (m *SemanticModel) evaluateCall(node *sitter.Node) ValueType {
	fn := node.ChildByFieldName("function")
	if fn == nil {
		return unknownValue
	}

	switch fn.Type() {
	case "identifier":
		if entry, ok := m.LookupFunction(m.text(fn), m.scopeOf(node)); ok {
			return m.ReturnValueType(entry)
		}

	case "qualified_identifier":
		if entry, ok := m.LookupFunction(normalizeQualified(m.text(fn)), nil); ok {
			return m.ReturnValueType(entry)
		}

	case "field_expression":
		// obj.fn() / obj->fn()：解析 obj 的类，再找成员函数
		className, ok := m.resolveObjectClass(fn.ChildByFieldName("argument"))
		if !ok {
			return unknownValue
		}
		method := m.text(fn.ChildByFieldName("field"))
		if entry, found := m.LookupFunction(className+"::"+method, nil); found {
			return m.ReturnValueType(entry)
		}
	}

	return unknownValue
}

// evaluateFieldAccess 成员访问按字段符号的声明类型分类，
// 与 obj 自身的分类无关
func (m *SemanticModel) evaluateFieldAccess(node *sitter.Node) ValueType {
	className, ok := m.resolveObjectClass(node.ChildByFieldName("argument"))
	if !ok {
		return unknownValue
	}

	fieldName := m.text(node.ChildByFieldName("field"))
	typeNode, declNode, found := m.FieldType(className, m.scopeOf(node), fieldName)
	if !found {
		return unknownValue
	}

	return m.DeclaredValueType(typeNode, declNode, false)
}

// smartWrappers 按成员访问转发到被包装类型的智能指针包装
var smartWrappers = map[string]bool{
	"shared_ptr": true,
	"unique_ptr": true,
	"weak_ptr":   true,
	"auto_ptr":   true,
}

// resolveObjectClass 解析表达式所指对象的类名
// 解析穿透指针、下标、括号与智能指针包装；包装自身不可解析时
// 保持 Unknown 而不是冒险猜测
func (m *SemanticModel) resolveObjectClass(expr *sitter.Node) (string, bool) {
	if expr == nil {
		return "", false
	}

	switch expr.Type() {
	case "identifier":
		site, ok := m.resolveDeclSite(expr)
		if !ok {
			return "", false
		}
		return m.classNameFromTypeNode(site.typeNode)

	case "field_expression":
		className, ok := m.resolveObjectClass(expr.ChildByFieldName("argument"))
		if !ok {
			return "", false
		}
		fieldName := m.text(expr.ChildByFieldName("field"))
		typeNode, _, found := m.FieldType(className, m.scopeOf(expr), fieldName)
		if !found {
			return "", false
		}
		return m.classNameFromTypeNode(typeNode)

	case "pointer_expression", "parenthesized_expression":
		inner := expr.ChildByFieldName("argument")
		if inner == nil {
			inner = expr.NamedChild(0)
		}
		return m.resolveObjectClass(inner)

	case "subscript_expression":
		return m.resolveObjectClass(expr.ChildByFieldName("argument"))

	case "this":
		scope := m.scopeOf(expr)
		if len(scope) > 0 {
			return scope[len(scope)-1], true
		}
	}

	return "", false
}

// classNameFromTypeNode 从类型说明符节点提取类名
func (m *SemanticModel) classNameFromTypeNode(typeNode *sitter.Node) (string, bool) {
	if typeNode == nil {
		return "", false
	}

	switch typeNode.Type() {
	case "struct_specifier", "class_specifier", "union_specifier":
		if name := m.text(typeNode.ChildByFieldName("name")); name != "" {
			return name, true
		}

	case "type_identifier":
		name := m.text(typeNode)
		scope := m.scopeOf(typeNode)
		if _, ok := m.LookupClass(name, scope); ok {
			return name, true
		}
		if entry, ok := m.LookupTypedef(name, scope); ok {
			return m.classNameFromTypeNode(entry.typeNode)
		}

	case "template_type":
		return m.classNameFromTemplate(typeNode)

	case "qualified_identifier":
		// std::shared_ptr<S> 等：限定名的最内层可能是模板类型
		if inner := typeNode.ChildByFieldName("name"); inner != nil && inner.Type() == "template_type" {
			return m.classNameFromTemplate(inner)
		}
		name := normalizeQualified(m.text(typeNode))
		if _, ok := m.LookupClass(name, nil); ok {
			return name, true
		}
	}

	return "", false
}

// classNameFromTemplate 智能指针包装转发到首个模板实参的类
func (m *SemanticModel) classNameFromTemplate(tmpl *sitter.Node) (string, bool) {
	name := strings.TrimPrefix(m.text(tmpl.ChildByFieldName("name")), "std::")
	if !smartWrappers[name] {
		return "", false
	}

	args := tmpl.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return "", false
	}

	arg := args.NamedChild(0)
	if arg.Type() == "type_descriptor" {
		arg = arg.ChildByFieldName("type")
	}
	return m.classNameFromTypeNode(arg)
}
