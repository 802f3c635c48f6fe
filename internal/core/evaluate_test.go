package core

import (
	"context"
	"testing"
)

func TestClassifyNumberLiteral(t *testing.T) {
	tests := []struct {
		literal string
		want    Classification
	}{
		// 字面量 0 是空指针常量，两侧兼容
		{"0", Unknown},
		{"0x0", Unknown},
		{"0L", Unknown},
		{"0u", Unknown},
		{"1", Integral},
		{"42", Integral},
		{"0xFF", Integral},
		{"0x7fffffff", Integral},
		{"42ULL", Integral},
		{"1z", Integral},
		{"010", Integral},
		// 浮点不参与指针/整数判定
		{"1.5", Unknown},
		{"1e3", Unknown},
		{"0x1.8p3", Unknown},
		{"3.f", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			if got := classifyNumberLiteral(tt.literal).Classify(); got != tt.want {
				t.Errorf("classifyNumberLiteral(%q) = %v, want %v", tt.literal, got, tt.want)
			}
		})
	}
}

// evalFirst 解析源码并对第一个匹配节点求值
func evalFirst(t *testing.T, source, language, query string) ValueType {
	t.Helper()

	unit, err := ParseSource(context.Background(), []byte(source), language)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	ctx := NewAnalysisContext(unit)
	nodes, err := ctx.QueryNodes(query)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(nodes) == 0 {
		t.Fatalf("query %q matched nothing", query)
	}

	return ctx.Model().Evaluate(nodes[0])
}

func TestEvaluateExpressions(t *testing.T) {
	tests := []struct {
		name   string
		source string
		query  string
		want   Classification
	}{
		{
			name:   "string literal decays to char pointer",
			source: `const char *s = "abc";`,
			query:  `(string_literal) @e`,
			want:   Pointer,
		},
		{
			name:   "nullptr is a pointer",
			source: `void f() { char *p; p = nullptr; }`,
			query:  `(null) @e`,
			want:   Pointer,
		},
		{
			name:   "comparison is boolean",
			source: `void f(char *p) { bool b = p == 0; }`,
			query:  `(binary_expression) @e`,
			want:   Boolean,
		},
		{
			name:   "pointer plus integer stays pointer",
			source: `void f(char *p, int n) { p = p + n; }`,
			query:  `(binary_expression) @e`,
			want:   Pointer,
		},
		{
			name:   "pointer difference is integral",
			source: `void f(char *p, char *q) { long d = p - q; }`,
			query:  `(binary_expression) @e`,
			want:   Integral,
		},
		{
			name:   "dereference peels one level",
			source: `void f(char *p) { char c; c = *p; }`,
			query:  `(pointer_expression) @e`,
			want:   Integral,
		},
		{
			name:   "address of local is pointer",
			source: `void f() { int x; int *p = &x; }`,
			query:  `(pointer_expression) @e`,
			want:   Pointer,
		},
		{
			name:   "new expression is pointer",
			source: `void f() { void *p = new int; }`,
			query:  `(new_expression) @e`,
			want:   Pointer,
		},
		{
			name:   "unresolved call keeps unknown",
			source: `void f() { int a; a = getenv("X"); }`,
			query:  `(call_expression) @e`,
			want:   Unknown,
		},
		{
			name:   "subscript on pointer parameter",
			source: `void f(char *p) { char c = p[0]; }`,
			query:  `(subscript_expression) @e`,
			want:   Integral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evalFirst(t, tt.source, "cpp", tt.query).Classify(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
