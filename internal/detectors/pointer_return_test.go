package detectors

import (
	"testing"

	"port64/internal/core"
)

func TestPointerReturn(t *testing.T) {
	tests := []struct {
		name     string
		language string
		source   string
		want     []finding
	}{
		{
			name:     "address returned from int function",
			language: "cpp",
			source: `
int foo(char *p) {
	return p;
}`,
			want: []finding{{core.CastAddressToIntegerAtReturn, 3, 2}},
		},
		{
			name:     "integer returned from pointer function",
			language: "cpp",
			source: `
char *foo(int x) {
	return x;
}`,
			want: []finding{{core.CastIntegerToAddressAtReturn, 3, 2}},
		},
		{
			name:     "C function returning pointer parameter",
			language: "c",
			source: `
long foo(void *handle) {
	return handle;
}`,
			want: []finding{{core.CastAddressToIntegerAtReturn, 3, 2}},
		},
		{
			name:     "explicit casts legitimize the return",
			language: "cpp",
			source: `
int foo(char *p) {
	return (int)(size_t)*p;
}`,
			want: nil,
		},
		{
			name:     "return zero from pointer function",
			language: "cpp",
			source: `
char *foo() {
	return 0;
}`,
			want: nil,
		},
		{
			name:     "nullptr returned from int function",
			language: "cpp",
			source: `
int foo() {
	return nullptr;
}`,
			want: []finding{{core.CastAddressToIntegerAtReturn, 3, 2}},
		},
		{
			name:     "ternary branches disagree",
			language: "cpp",
			source: `
int foo(char *p) {
	return p ? p : 0;
}`,
			want: nil,
		},
		{
			name:     "ternary branches agree on pointer",
			language: "cpp",
			source: `
int foo(char *p, char *q) {
	return p ? p : q;
}`,
			want: []finding{{core.CastAddressToIntegerAtReturn, 3, 2}},
		},
		{
			name:     "bool return type is skipped",
			language: "cpp",
			source: `
bool foo(char *p) {
	return p;
}`,
			want: nil,
		},
		{
			name:     "struct returned by value is skipped",
			language: "cpp",
			source: `
struct S { int x; };
S foo() {
	S s;
	return s;
}`,
			want: nil,
		},
		{
			name:     "nested lambda body is not the outer function",
			language: "cpp",
			source: `
int foo(char *p) {
	auto f = [p]() { return p; };
	return 5;
}`,
			want: nil,
		},
		{
			name:     "local class methods are checked independently",
			language: "cpp",
			source: `
int foo() {
	struct L {
		char *get() { return p; }
		char *p;
	};
	return 1;
}`,
			want: nil,
		},
		{
			name:     "typedef pointer return type",
			language: "cpp",
			source: `
typedef char *str_t;
str_t foo(int x) {
	return x;
}`,
			want: []finding{{core.CastIntegerToAddressAtReturn, 4, 2}},
		},
		{
			name:     "bare return and brace initializer are skipped",
			language: "cpp",
			source: `
char *foo(int x) {
	if (x) {
		return nullptr;
	}
	return {};
}`,
			want: nil,
		},
		{
			name:     "string literal from int function",
			language: "cpp",
			source: `
int foo() {
	return "abc";
}`,
			want: []finding{{core.CastAddressToIntegerAtReturn, 3, 2}},
		},
		{
			name:     "multiple offending returns",
			language: "cpp",
			source: `
int foo(char *p, char *q, int x) {
	if (x) {
		return p;
	}
	return q;
}`,
			want: []finding{
				{core.CastAddressToIntegerAtReturn, 4, 3},
				{core.CastAddressToIntegerAtReturn, 6, 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanSource(t, NewPointerReturnDetector(), tt.language, tt.source)
			checkFindings(t, got, tt.want)
		})
	}
}
