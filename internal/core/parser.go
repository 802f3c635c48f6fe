package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
)

// ParserPool 管理 tree-sitter Parser 实例池
// 使用 sync.Pool 允许每个 goroutine 获取独立的 Parser，消除全局锁瓶颈
type ParserPool struct {
	cPool   sync.Pool
	cppPool sync.Pool
}

// NewParserPool 创建新的 Parser Pool
func NewParserPool() *ParserPool {
	return &ParserPool{
		cPool: sync.Pool{
			New: func() interface{} {
				parser := sitter.NewParser()
				parser.SetLanguage(c.GetLanguage())
				return parser
			},
		},
		cppPool: sync.Pool{
			New: func() interface{} {
				parser := sitter.NewParser()
				parser.SetLanguage(cpp.GetLanguage())
				return parser
			},
		},
	}
}

// globalParserPool 全局 Parser Pool 实例
var globalParserPool = NewParserPool()

// GetParser 从 Pool 获取对应语言的 Parser（无需锁）
func GetParser(language string) *sitter.Parser {
	if language == "cpp" {
		return globalParserPool.cppPool.Get().(*sitter.Parser)
	}
	return globalParserPool.cPool.Get().(*sitter.Parser)
}

// PutParser 将 Parser 归还到 Pool（无需锁）
func PutParser(language string, parser *sitter.Parser) {
	// 重置 Parser 状态以便重用
	parser.Reset()
	if language == "cpp" {
		globalParserPool.cppPool.Put(parser)
	} else {
		globalParserPool.cPool.Put(parser)
	}
}

// queryCache 全局 Query 缓存（避免重复创建 Query 对象）
// key: language:queryPattern -> *sitter.Query
var queryCache sync.Map

// queryCreateMu 保护 Query 创建，防止多个 goroutine 同时创建相同的 Query
var queryCreateMu sync.Mutex

// GetQueryFromCache 从缓存获取或创建 Query
func GetQueryFromCache(queryPattern string, language string) (*sitter.Query, error) {
	key := language + ":" + queryPattern

	// 尝试从缓存获取（快速路径，无锁）
	if cached, ok := queryCache.Load(key); ok {
		return cached.(*sitter.Query), nil
	}

	queryCreateMu.Lock()
	defer queryCreateMu.Unlock()

	// 双重检查：可能在等待锁期间已被其他 goroutine 创建
	if cached, ok := queryCache.Load(key); ok {
		return cached.(*sitter.Query), nil
	}

	var lang *sitter.Language
	if language == "c" {
		lang = c.GetLanguage()
	} else {
		lang = cpp.GetLanguage()
	}

	query, err := sitter.NewQuery([]byte(queryPattern), lang)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	queryCache.Store(key, query)
	return query, nil
}

// ParsedUnit 表示一个已解析的翻译单元
type ParsedUnit struct {
	FilePath string
	Root     *sitter.Node
	Source   []byte
	Tree     *sitter.Tree
	Language string
}

// Copy 创建 ParsedUnit 的副本（克隆 Tree 以支持并发访问）
func (u *ParsedUnit) Copy() *ParsedUnit {
	treeCopy := u.Tree.Copy()
	return &ParsedUnit{
		FilePath: u.FilePath,
		Root:     treeCopy.RootNode(),
		Source:   u.Source, // 源码只读，可以共享
		Tree:     treeCopy,
		Language: u.Language,
	}
}

// QueryMatch 表示查询匹配的结果
type QueryMatch struct {
	Node     *sitter.Node
	Captures map[string]*sitter.Node
	Pattern  string
}

// AnalysisContext 提供单个翻译单元分析所需的上下文
// 树和源码在整个分析过程中是不可变的；语义模型按需构建，
// 只在当前翻译单元内有效，跨文件不共享任何状态
type AnalysisContext struct {
	Unit *ParsedUnit

	modelOnce sync.Once
	model     *SemanticModel
}

// NewAnalysisContext 创建新的分析上下文
func NewAnalysisContext(unit *ParsedUnit) *AnalysisContext {
	return &AnalysisContext{
		Unit: unit,
	}
}

// Model 返回当前翻译单元的语义模型（首次调用时构建）
func (ctx *AnalysisContext) Model() *SemanticModel {
	ctx.modelOnce.Do(func() {
		ctx.model = BuildSemanticModel(ctx.Unit)
	})
	return ctx.model
}

// languageForFile 根据文件扩展名判断解析语言
func languageForFile(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".c":
		return "c", nil
	case ".cpp", ".cxx", ".cc", ".c++", ".hpp", ".hxx", ".hh", ".h++":
		return "cpp", nil
	case ".h":
		// 对于 .h 文件无法可靠区分 C/C++，默认按 C++ 解析
		return "cpp", nil
	default:
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// ParseFile 解析单个文件
func ParseFile(ctx context.Context, filePath string) (*ParsedUnit, error) {
	source, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	language, err := languageForFile(filePath)
	if err != nil {
		return nil, err
	}

	unit, err := ParseSource(ctx, source, language)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filePath, err)
	}
	unit.FilePath = filePath

	return unit, nil
}

// ParseSource 解析内存中的源码（language 为 "c" 或 "cpp"）
func ParseSource(ctx context.Context, source []byte, language string) (*ParsedUnit, error) {
	parser := GetParser(language)
	defer PutParser(language, parser)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}

	return &ParsedUnit{
		Root:     tree.RootNode(),
		Source:   source,
		Tree:     tree,
		Language: language,
	}, nil
}

// QueryNodes 使用 Tree-sitter 查询语言查找节点
func (ctx *AnalysisContext) QueryNodes(queryPattern string) ([]*sitter.Node, error) {
	query, err := GetQueryFromCache(queryPattern, ctx.Unit.Language)
	if err != nil {
		return nil, err
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	cursor.Exec(query, ctx.Unit.Root)

	var nodes []*sitter.Node
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}

		for _, capture := range match.Captures {
			nodes = append(nodes, capture.Node)
		}
	}

	return nodes, nil
}

// Query 执行查询并返回详细的匹配结果（使用 Query 缓存）
func (ctx *AnalysisContext) Query(queryPattern string) ([]QueryMatch, error) {
	query, err := GetQueryFromCache(queryPattern, ctx.Unit.Language)
	if err != nil {
		return nil, err
	}

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	cursor.Exec(query, ctx.Unit.Root)

	var matches []QueryMatch
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}

		if len(match.Captures) == 0 {
			continue
		}

		qm := QueryMatch{
			Node:     match.Captures[0].Node,
			Captures: make(map[string]*sitter.Node),
			Pattern:  queryPattern,
		}

		for _, capture := range match.Captures {
			captureName := query.CaptureNameForId(capture.Index)
			qm.Captures[captureName] = capture.Node
		}

		matches = append(matches, qm)
	}

	return matches, nil
}

// GetSourceText 获取节点的源代码文本
func (ctx *AnalysisContext) GetSourceText(node *sitter.Node) string {
	if node == nil {
		return ""
	}

	start := node.StartByte()
	end := node.EndByte()

	// 边界检查，防止越界
	if end > uint32(len(ctx.Unit.Source)) {
		end = uint32(len(ctx.Unit.Source))
	}
	if start > end {
		start = 0
	}

	if start >= uint32(len(ctx.Unit.Source)) {
		return ""
	}

	return string(ctx.Unit.Source[start:end])
}
