package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
)

// ConfigFileName 默认配置文件名
const ConfigFileName = "port64.toml"

// Config 扫描配置
type Config struct {
	Scan   ScanConfig   `toml:"scan"`
	Output OutputConfig `toml:"output"`
	Checks ChecksConfig `toml:"checks"`
}

// ScanConfig 扫描行为配置
type ScanConfig struct {
	Workers     int      `toml:"workers"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	Extensions  []string `toml:"extensions"`
}

// OutputConfig 报告输出配置
type OutputConfig struct {
	Format    string `toml:"format"`
	File      string `toml:"file"`
	Timestamp bool   `toml:"timestamp"`
	Color     bool   `toml:"color"`
}

// ChecksConfig 检查项开关
type ChecksConfig struct {
	Assignment bool `toml:"assignment"`
	Return     bool `toml:"return"`
}

// Default 返回默认配置
func Default() *Config {
	workers := runtime.NumCPU()
	if workers < 2 {
		workers = 2
	}
	if workers > 32 {
		workers = 32
	}

	return &Config{
		Scan: ScanConfig{
			Workers: workers,
			ExcludeDirs: []string{
				"build", "dist", "target", "cmake-build",
				"vendor", "node_modules", "third_party", "thirdparty", "3rdparty",
				"external", "externals", "deps",
				".git", ".svn", ".hg",
				".cache", ".idea", ".vscode",
			},
			Extensions: []string{
				".c", ".cpp", ".cxx", ".cc", ".c++",
				".h", ".hpp", ".hxx", ".hh", ".h++",
			},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Checks: ChecksConfig{
			Assignment: true,
			Return:     true,
		},
	}
}

// Load 从文件加载配置，缺失的字段保持默认值
func Load(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("%s: unknown configuration keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Find 从起始目录向上查找配置文件
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", c.Scan.Workers)
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "sarif", "all":
	default:
		return fmt.Errorf("output.format must be one of text, json, sarif, all; got %q", c.Output.Format)
	}

	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("scan.extensions entries must start with '.', got %q", ext)
		}
	}

	if !c.Checks.Assignment && !c.Checks.Return {
		return errors.New("at least one check must be enabled")
	}

	return nil
}

// ExcludedDir 判断目录名是否在排除列表中（大小写不敏感）
func (c *Config) ExcludedDir(name string) bool {
	lower := strings.ToLower(name)
	for _, dir := range c.Scan.ExcludeDirs {
		if strings.ToLower(dir) == lower {
			return true
		}
	}
	return false
}

// SourceFile 判断路径是否是配置的源文件类型
func (c *Config) SourceFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range c.Scan.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
