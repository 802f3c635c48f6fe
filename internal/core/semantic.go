package core

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// typedefEntry 一条 typedef/using 别名：底层类型说明符 + 声明器形状
type typedefEntry struct {
	typeNode *sitter.Node
	declNode *sitter.Node
}

// funcEntry 一个可见函数符号：返回类型说明符 + 声明器（含指针包装层）
type funcEntry struct {
	typeNode *sitter.Node
	declNode *sitter.Node
}

// SemanticModel 单个翻译单元的语义模型
// 在第一次需要时由一趟预扫描构建，之后只读；跨翻译单元不共享
// 任何状态，外部不可见的符号一律解析为 Unknown
type SemanticModel struct {
	unit *ParsedUnit

	// 索引键为 "::" 连接的限定名；嵌套符号同时注册裸名作为回退
	typedefs    map[string]typedefEntry
	functions   map[string]funcEntry
	classes     map[string]*sitter.Node // 带 body 的 class/struct/union 定义
	enums       map[string]bool         // 带 body 的枚举定义
	enumerators map[string]bool         // "S::E::e1"；非 scoped 枚举额外注册 "S::e1"
}

// BuildSemanticModel 预扫描翻译单元，建立符号索引
func BuildSemanticModel(unit *ParsedUnit) *SemanticModel {
	m := &SemanticModel{
		unit:        unit,
		typedefs:    make(map[string]typedefEntry),
		functions:   make(map[string]funcEntry),
		classes:     make(map[string]*sitter.Node),
		enums:       make(map[string]bool),
		enumerators: make(map[string]bool),
	}

	if unit != nil && unit.Root != nil {
		m.collect(unit.Root, nil)
	}

	return m
}

// text 获取节点源码文本
func (m *SemanticModel) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(m.unit.Source)
}

// qualify 用 "::" 连接作用域前缀与名称
func qualify(scope []string, name string) string {
	if len(scope) == 0 {
		return name
	}
	return strings.Join(scope, "::") + "::" + name
}

// normalizeQualified 去除限定名文本中的空白
func normalizeQualified(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}

// collect 递归收集符号定义，scope 为当前嵌套类作用域前缀
func (m *SemanticModel) collect(node *sitter.Node, scope []string) {
	switch node.Type() {
	case "type_definition":
		m.collectTypedef(node, scope)
		return

	case "alias_declaration":
		m.collectAlias(node, scope)
		return

	case "class_specifier", "struct_specifier", "union_specifier":
		name := m.text(node.ChildByFieldName("name"))
		body := node.ChildByFieldName("body")
		if body == nil {
			return
		}
		inner := scope
		if name != "" {
			key := qualify(scope, name)
			m.classes[key] = node
			if _, exists := m.classes[name]; !exists {
				m.classes[name] = node
			}
			inner = append(append([]string{}, scope...), name)
		}
		for i := 0; i < int(body.NamedChildCount()); i++ {
			m.collect(body.NamedChild(i), inner)
		}
		return

	case "enum_specifier":
		m.collectEnum(node, scope)
		return

	case "function_definition":
		m.collectFunction(node.ChildByFieldName("type"), node.ChildByFieldName("declarator"), scope)
		// 函数体内的局部类型声明也可见；继续扫描
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.NamedChildCount()); i++ {
				m.collect(body.NamedChild(i), scope)
			}
		}
		return

	case "declaration", "field_declaration":
		// 函数原型 / 类内方法声明
		typeNode := node.ChildByFieldName("type")
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if sameNode(child, typeNode) {
				continue
			}
			if containsFunctionDeclarator(child) {
				m.collectFunction(typeNode, child, scope)
			}
		}
		// 结构体/枚举可以在声明中就地定义
		if typeNode != nil {
			m.collect(typeNode, scope)
		}
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		m.collect(node.NamedChild(i), scope)
	}
}

// collectTypedef 注册 typedef 别名（一条 typedef 可声明多个名字）
func (m *SemanticModel) collectTypedef(node *sitter.Node, scope []string) {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if sameNode(child, typeNode) || !isDeclaratorNode(child) {
			continue
		}
		id := findDeclaratorID(child)
		if id == nil {
			continue
		}
		entry := typedefEntry{typeNode: typeNode, declNode: child}
		name := m.text(id)
		m.typedefs[qualify(scope, name)] = entry
		if _, exists := m.typedefs[name]; !exists {
			m.typedefs[name] = entry
		}
	}

	// typedef struct {...} X; 中的就地类型定义
	m.collect(typeNode, scope)
}

// collectAlias 注册 using 别名
func (m *SemanticModel) collectAlias(node *sitter.Node, scope []string) {
	name := m.text(node.ChildByFieldName("name"))
	descriptor := node.ChildByFieldName("type")
	if name == "" || descriptor == nil {
		return
	}

	entry := typedefEntry{
		typeNode: descriptor.ChildByFieldName("type"),
		declNode: descriptor.ChildByFieldName("declarator"),
	}
	m.typedefs[qualify(scope, name)] = entry
	if _, exists := m.typedefs[name]; !exists {
		m.typedefs[name] = entry
	}
}

// collectEnum 注册枚举定义与枚举成员
// scoped 枚举（enum class/struct）的成员只能通过限定名访问，
// 非 scoped 枚举的成员同时泄漏到外围作用域
func (m *SemanticModel) collectEnum(node *sitter.Node, scope []string) {
	name := m.text(node.ChildByFieldName("name"))
	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}

	scoped := false
	for i := 0; i < int(node.ChildCount()); i++ {
		t := node.Child(i).Type()
		if t == "class" || t == "struct" {
			scoped = true
			break
		}
	}

	enumScope := scope
	if name != "" {
		key := qualify(scope, name)
		m.enums[key] = true
		if !m.enums[name] {
			m.enums[name] = true
		}
		enumScope = append(append([]string{}, scope...), name)
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		enumerator := body.NamedChild(i)
		if enumerator.Type() != "enumerator" {
			continue
		}
		id := m.text(enumerator.ChildByFieldName("name"))
		if id == "" {
			continue
		}
		m.enumerators[qualify(enumScope, id)] = true
		if !scoped {
			m.enumerators[qualify(scope, id)] = true
		}
	}
}

// collectFunction 注册函数定义或原型
func (m *SemanticModel) collectFunction(typeNode, declNode *sitter.Node, scope []string) {
	if declNode == nil {
		return
	}
	id := findDeclaratorID(declNode)
	if id == nil {
		return
	}

	entry := funcEntry{typeNode: typeNode, declNode: declNode}
	name := m.text(id)
	// 类外定义 Class::method 的声明器自带限定名
	name = normalizeQualified(name)
	m.functions[qualify(scope, name)] = entry
	if _, exists := m.functions[name]; !exists {
		m.functions[name] = entry
	}
}

// sameNode 按底层节点标识比较（不同访问路径会返回不同的 Node 对象）
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID() == b.ID()
}

// isDeclaratorNode 判定节点是否为声明器
func isDeclaratorNode(node *sitter.Node) bool {
	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier",
		"init_declarator", "pointer_declarator", "array_declarator",
		"function_declarator", "reference_declarator", "parenthesized_declarator":
		return true
	}
	return false
}

// findDeclaratorID 沿声明器链下行，找到被声明的名字节点
func findDeclaratorID(node *sitter.Node) *sitter.Node {
	for node != nil {
		switch node.Type() {
		case "identifier", "field_identifier", "type_identifier",
			"qualified_identifier", "operator_name", "destructor_name":
			return node
		}

		if d := node.ChildByFieldName("declarator"); d != nil {
			node = d
			continue
		}

		// 抽象声明器没有 declarator 字段，取第一个声明器子节点
		var next *sitter.Node
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if isDeclaratorNode(child) {
				next = child
				break
			}
		}
		node = next
	}
	return nil
}

// containsFunctionDeclarator 判定声明器链上是否存在函数声明器
func containsFunctionDeclarator(node *sitter.Node) bool {
	for node != nil {
		if node.Type() == "function_declarator" {
			return true
		}
		node = node.ChildByFieldName("declarator")
	}
	return false
}

// scopeOf 计算节点的封闭类作用域前缀（由外到内）
func (m *SemanticModel) scopeOf(node *sitter.Node) []string {
	var names []string
	for anc := node; anc != nil; anc = anc.Parent() {
		switch anc.Type() {
		case "class_specifier", "struct_specifier", "union_specifier":
			if name := m.text(anc.ChildByFieldName("name")); name != "" {
				names = append([]string{name}, names...)
			}
		}
	}
	return names
}

// lookupScoped 从最内层作用域向外查找限定键
func lookupScoped[V any](index map[string]V, name string, scope []string) (V, bool) {
	for i := len(scope); i >= 0; i-- {
		if v, ok := index[qualify(scope[:i], name)]; ok {
			return v, true
		}
	}
	var zero V
	return zero, false
}

// LookupTypedef 按作用域解析 typedef/using 别名
func (m *SemanticModel) LookupTypedef(name string, scope []string) (typedefEntry, bool) {
	return lookupScoped(m.typedefs, name, scope)
}

// LookupClass 按作用域解析类/结构体定义
func (m *SemanticModel) LookupClass(name string, scope []string) (*sitter.Node, bool) {
	return lookupScoped(m.classes, name, scope)
}

// LookupEnum 按作用域解析枚举定义
func (m *SemanticModel) LookupEnum(name string, scope []string) bool {
	_, ok := lookupScoped(m.enums, name, scope)
	return ok
}

// LookupFunction 按作用域解析函数符号
func (m *SemanticModel) LookupFunction(name string, scope []string) (funcEntry, bool) {
	return lookupScoped(m.functions, name, scope)
}

// IsEnumerator 判定限定名是否为可见枚举成员
// 只按解析后的限定作用域匹配，绝不按裸名字匹配，
// 避免把其他作用域里同名的数据成员误认成枚举成员
func (m *SemanticModel) IsEnumerator(qualName string, scope []string) bool {
	_, ok := lookupScoped(m.enumerators, normalizeQualified(qualName), scope)
	return ok
}

// declSite 一次声明解析的结果
type declSite struct {
	typeNode *sitter.Node
	declNode *sitter.Node
	isParam  bool
}

// resolveDeclSite 按词法作用域向上查找标识符的可见声明
// 找不到可见声明时返回 false，调用方据此放弃诊断
func (m *SemanticModel) resolveDeclSite(id *sitter.Node) (declSite, bool) {
	name := m.text(id)
	if name == "" {
		return declSite{}, false
	}

	for anc := id.Parent(); anc != nil; anc = anc.Parent() {
		switch anc.Type() {
		case "compound_statement", "translation_unit":
			for i := 0; i < int(anc.NamedChildCount()); i++ {
				child := anc.NamedChild(i)
				if child.Type() != "declaration" {
					continue
				}
				if site, ok := m.declarationFor(child, name); ok {
					return site, true
				}
			}

		case "for_statement":
			if init := anc.ChildByFieldName("initializer"); init != nil && init.Type() == "declaration" {
				if site, ok := m.declarationFor(init, name); ok {
					return site, true
				}
			}

		case "function_definition", "lambda_expression":
			if site, ok := m.parameterFor(anc, name); ok {
				return site, true
			}

		case "class_specifier", "struct_specifier", "union_specifier":
			// 成员函数体内对字段的无限定访问
			if t, d, ok := m.fieldInClassNode(anc, name); ok {
				return declSite{typeNode: t, declNode: d}, true
			}
		}
	}

	return declSite{}, false
}

// declarationFor 在一条声明语句中匹配名字，返回类型与声明器
func (m *SemanticModel) declarationFor(decl *sitter.Node, name string) (declSite, bool) {
	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil {
		return declSite{}, false
	}

	for i := 0; i < int(decl.NamedChildCount()); i++ {
		child := decl.NamedChild(i)
		if sameNode(child, typeNode) || !isDeclaratorNode(child) {
			continue
		}
		declarator := child
		if child.Type() == "init_declarator" {
			declarator = child.ChildByFieldName("declarator")
		}
		if id := findDeclaratorID(declarator); id != nil && m.text(id) == name {
			return declSite{typeNode: typeNode, declNode: declarator}, true
		}
	}

	return declSite{}, false
}

// parameterFor 在函数/lambda 的参数列表中匹配名字
func (m *SemanticModel) parameterFor(fn *sitter.Node, name string) (declSite, bool) {
	declarator := fn.ChildByFieldName("declarator")
	params := findParameterList(declarator)
	if params == nil {
		return declSite{}, false
	}

	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
		default:
			continue
		}
		if id := findDeclaratorID(param.ChildByFieldName("declarator")); id != nil && m.text(id) == name {
			return declSite{
				typeNode: param.ChildByFieldName("type"),
				declNode: param.ChildByFieldName("declarator"),
				isParam:  true,
			}, true
		}
	}

	return declSite{}, false
}

// findParameterList 沿声明器链下行找到参数列表
func findParameterList(node *sitter.Node) *sitter.Node {
	for node != nil {
		if params := node.ChildByFieldName("parameters"); params != nil {
			return params
		}
		node = node.ChildByFieldName("declarator")
	}
	return nil
}

// fieldInClassNode 在类定义体内查找字段声明
func (m *SemanticModel) fieldInClassNode(classNode *sitter.Node, fieldName string) (typeNode, declNode *sitter.Node, ok bool) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return nil, nil, false
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		field := body.NamedChild(i)
		if field.Type() != "field_declaration" {
			continue
		}
		t := field.ChildByFieldName("type")
		for j := 0; j < int(field.NamedChildCount()); j++ {
			child := field.NamedChild(j)
			if sameNode(child, t) || !isDeclaratorNode(child) {
				continue
			}
			if containsFunctionDeclarator(child) {
				continue
			}
			if id := findDeclaratorID(child); id != nil && m.text(id) == fieldName {
				return t, child, true
			}
		}
	}

	return nil, nil, false
}

// FieldType 解析类字段的声明类型
func (m *SemanticModel) FieldType(className string, scope []string, fieldName string) (typeNode, declNode *sitter.Node, ok bool) {
	classNode, found := m.LookupClass(className, scope)
	if !found {
		return nil, nil, false
	}
	return m.fieldInClassNode(classNode, fieldName)
}
