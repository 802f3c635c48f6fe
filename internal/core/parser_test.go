package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLanguageForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"main.c", "c", false},
		{"main.cpp", "cpp", false},
		{"main.cc", "cpp", false},
		{"main.cxx", "cpp", false},
		{"widget.hpp", "cpp", false},
		// .h 无法可靠区分，按 C++ 解析
		{"header.h", "cpp", false},
		{"README.md", "", true},
		{"Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := languageForFile(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("languageForFile(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("languageForFile(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.c")
	source := "int main(void) { return 0; }\n"
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		t.Fatal(err)
	}

	unit, err := ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if unit.FilePath != path {
		t.Errorf("FilePath = %q, want %q", unit.FilePath, path)
	}
	if unit.Language != "c" {
		t.Errorf("Language = %q, want c", unit.Language)
	}
	if unit.Root.Type() != "translation_unit" {
		t.Errorf("root node type = %q, want translation_unit", unit.Root.Type())
	}
}

func TestQueryNodes(t *testing.T) {
	source := `
void a() {}
void b() {}
int c;
`
	unit, err := ParseSource(context.Background(), []byte(source), "cpp")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	ctx := NewAnalysisContext(unit)
	nodes, err := ctx.QueryNodes(`(function_definition) @fn`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("got %d function definitions, want 2", len(nodes))
	}
}

func TestGetSourceText(t *testing.T) {
	source := "int answer = 42;"
	unit, err := ParseSource(context.Background(), []byte(source), "c")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	ctx := NewAnalysisContext(unit)
	nodes, err := ctx.QueryNodes(`(number_literal) @n`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d number literals, want 1", len(nodes))
	}
	if got := ctx.GetSourceText(nodes[0]); got != "42" {
		t.Errorf("GetSourceText = %q, want %q", got, "42")
	}
	if got := ctx.GetSourceText(nil); got != "" {
		t.Errorf("GetSourceText(nil) = %q, want empty", got)
	}
}

func TestAnalysisContextModelIsLazySingleton(t *testing.T) {
	unit, err := ParseSource(context.Background(), []byte("typedef int myint;"), "c")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	ctx := NewAnalysisContext(unit)
	m1 := ctx.Model()
	m2 := ctx.Model()
	if m1 != m2 {
		t.Error("Model() should return the same instance")
	}
	if _, ok := m1.LookupTypedef("myint", nil); !ok {
		t.Error("model did not index typedef myint")
	}
}
