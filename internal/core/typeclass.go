package core

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// builtinIntegral 标准整数别名类型表
// 这些名字即便没有可见的 typedef 也按整数分类
var builtinIntegral = map[string]bool{
	"size_t":    true,
	"ssize_t":   true,
	"ptrdiff_t": true,
	"intptr_t":  true,
	"uintptr_t": true,
	"intmax_t":  true,
	"uintmax_t": true,
	"wchar_t":   true,
	"char8_t":   true,
	"char16_t":  true,
	"char32_t":  true,
}

func init() {
	for _, width := range []int{8, 16, 32, 64} {
		for _, prefix := range []string{"int", "uint", "int_fast", "uint_fast", "int_least", "uint_least"} {
			builtinIntegral[fmt.Sprintf("%s%d_t", prefix, width)] = true
		}
	}
}

// valueContainers 标准库中按值语义使用的固定大小容器
// 这些类型无论名字里有没有 "array" 都绝不按指针分类
var valueContainers = map[string]bool{
	"array":            true,
	"string":           true,
	"string_view":      true,
	"vector":           true,
	"bitset":           true,
	"pair":             true,
	"tuple":            true,
	"optional":         true,
	"initializer_list": true,
}

// DeclaredValueType 对“类型说明符 + 声明器”求 ValueType
// isParam 指示声明出现在函数参数位置（数组参数退化为指针）
func (m *SemanticModel) DeclaredValueType(typeNode, declNode *sitter.Node, isParam bool) ValueType {
	vt := m.classifyTypeSpecifier(typeNode, make(map[string]bool))
	vt = applyDeclarator(vt, declNode)
	if isParam {
		vt = vt.DecayParam()
	}
	return vt
}

// applyDeclarator 把声明器的指针/数组/引用形状叠加到基础分类上
func applyDeclarator(vt ValueType, node *sitter.Node) ValueType {
	for node != nil {
		switch node.Type() {
		case "pointer_declarator", "abstract_pointer_declarator":
			vt.Pointer++
		case "array_declarator", "abstract_array_declarator":
			vt.Arrays++
		case "reference_declarator", "abstract_reference_declarator",
			"parenthesized_declarator", "init_declarator":
			// 引用与括号对分类透明
		case "function_declarator", "abstract_function_declarator":
			// 函数声明器之内的形状属于参数，不属于被声明的值
			return vt
		default:
			return vt
		}

		next := node.ChildByFieldName("declarator")
		if next == nil {
			// 抽象声明器可能没有 declarator 字段
			for i := 0; i < int(node.NamedChildCount()); i++ {
				child := node.NamedChild(i)
				if isDeclaratorNode(child) || strings.HasPrefix(child.Type(), "abstract_") {
					next = child
					break
				}
			}
		}
		node = next
	}
	return vt
}

// classifyTypeSpecifier 对类型说明符节点求基础 ValueType
// visited 防止 typedef 链成环
func (m *SemanticModel) classifyTypeSpecifier(typeNode *sitter.Node, visited map[string]bool) ValueType {
	if typeNode == nil {
		return unknownValue
	}

	switch typeNode.Type() {
	case "primitive_type":
		switch m.text(typeNode) {
		case "bool", "_Bool":
			return ValueType{Base: Boolean}
		case "void", "float", "double":
			return unknownValue
		default:
			// char/int/long/size_t/intN_t 等全部按整数
			return ValueType{Base: Integral}
		}

	case "sized_type_specifier":
		return ValueType{Base: Integral}

	case "enum_specifier":
		return ValueType{Base: Integral}

	case "struct_specifier", "class_specifier", "union_specifier":
		return unknownValue

	case "template_type":
		// 模板类（std::array、vector、智能指针等）一律按类类型处理
		return unknownValue

	case "type_identifier":
		return m.classifyTypeName(m.text(typeNode), typeNode, visited)

	case "qualified_identifier":
		return m.classifyTypeName(normalizeQualified(m.text(typeNode)), typeNode, visited)

	case "type_descriptor":
		vt := m.classifyTypeSpecifier(typeNode.ChildByFieldName("type"), visited)
		return applyDeclarator(vt, typeNode.ChildByFieldName("declarator"))

	case "placeholder_type_specifier", "auto", "dependent_type", "decltype":
		return unknownValue
	}

	return unknownValue
}

// classifyTypeName 按名字解析类型：内建整数表、typedef 链、枚举、类
func (m *SemanticModel) classifyTypeName(name string, at *sitter.Node, visited map[string]bool) ValueType {
	if name == "" {
		return unknownValue
	}

	bare := strings.TrimPrefix(name, "std::")
	if bare == "bool" {
		return ValueType{Base: Boolean}
	}
	if builtinIntegral[bare] {
		return ValueType{Base: Integral}
	}
	if base, _, isTemplate := strings.Cut(bare, "<"); isTemplate && valueContainers[base] {
		return unknownValue
	}
	if valueContainers[bare] {
		return unknownValue
	}

	scope := m.scopeOf(at)

	if entry, ok := m.LookupTypedef(name, scope); ok {
		if visited[name] {
			// typedef 链成环，放弃解析
			return unknownValue
		}
		visited[name] = true
		vt := m.classifyTypeSpecifier(entry.typeNode, visited)
		return applyDeclarator(vt, entry.declNode)
	}

	if m.LookupEnum(name, scope) {
		return ValueType{Base: Integral}
	}

	if _, ok := m.LookupClass(name, scope); ok {
		return unknownValue
	}

	return unknownValue
}

// FunctionReturnType 求函数定义节点的声明返回类型
func (m *SemanticModel) FunctionReturnType(fnDef *sitter.Node) ValueType {
	return m.ReturnValueType(funcEntry{
		typeNode: fnDef.ChildByFieldName("type"),
		declNode: fnDef.ChildByFieldName("declarator"),
	})
}

// ReturnValueType 求函数符号的声明返回类型
// 声明器上包在函数声明器之外的指针层属于返回类型
func (m *SemanticModel) ReturnValueType(entry funcEntry) ValueType {
	vt := m.classifyTypeSpecifier(entry.typeNode, make(map[string]bool))

	for node := entry.declNode; node != nil; {
		switch node.Type() {
		case "pointer_declarator":
			vt.Pointer++
		case "function_declarator":
			return vt
		case "reference_declarator", "parenthesized_declarator":
		default:
			return vt
		}
		node = node.ChildByFieldName("declarator")
	}

	return vt
}
