package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"port64/internal/config"
	"port64/internal/core"
)

// Scanner 对文件和目录运行所有激活的检查
type Scanner struct {
	cfg       *config.Config
	detectors []core.Detector

	mu    sync.Mutex
	diags []core.Diagnostic
}

// NewScanner 创建扫描器
func NewScanner(cfg *config.Config, detectors []core.Detector) *Scanner {
	return &Scanner{
		cfg:       cfg,
		detectors: detectors,
	}
}

// DetectorNames 返回激活的检测器名称列表
func (s *Scanner) DetectorNames() []string {
	names := make([]string, len(s.detectors))
	for i, det := range s.detectors {
		names[i] = det.Name()
	}
	return names
}

// ScanFile 解析并检查单个文件
// 语义模型只在当前翻译单元内有效，文件之间不共享任何状态
func (s *Scanner) ScanFile(ctx context.Context, filePath string) ([]core.Diagnostic, error) {
	unit, err := core.ParseFile(ctx, filePath)
	if err != nil {
		return nil, err
	}

	actx := core.NewAnalysisContext(unit)

	var diags []core.Diagnostic
	for _, det := range s.detectors {
		found, err := det.Run(actx)
		if err != nil {
			log.Debugf("%v on %s", core.WrapError(det, err), filePath)
			continue
		}
		diags = append(diags, found...)
	}

	return diags, nil
}

// fileJob 工作池中的单文件扫描任务
type fileJob struct {
	ctx     context.Context
	scanner *Scanner
	path    string
}

func (j *fileJob) ID() string {
	return j.path
}

func (j *fileJob) Run() error {
	diags, err := j.scanner.ScanFile(j.ctx, j.path)
	if err != nil {
		return err
	}

	j.scanner.mu.Lock()
	j.scanner.diags = append(j.scanner.diags, diags...)
	j.scanner.mu.Unlock()

	return nil
}

// ScanDir 扫描目录下的全部 C/C++ 文件
func (s *Scanner) ScanDir(ctx context.Context, dirPath string) ([]core.Diagnostic, int, error) {
	files, err := s.collectFiles(dirPath)
	if err != nil {
		return nil, 0, err
	}

	log.Infof("found %d C/C++ files under %s", len(files), dirPath)
	if len(files) == 0 {
		return nil, 0, nil
	}

	pool := core.NewWorkerPool(ctx, s.cfg.Scan.Workers, len(files))
	pool.Start()

	for _, file := range files {
		if err := pool.Submit(&fileJob{ctx: ctx, scanner: s, path: file}); err != nil {
			pool.Stop()
			return nil, 0, fmt.Errorf("failed to submit %s: %w", file, err)
		}
	}

	var done sync.WaitGroup
	scanned := 0
	done.Add(1)
	go func() {
		defer done.Done()
		for result := range pool.GetResults() {
			if result.Error != nil {
				log.Warnf("skipping %s: %v", result.JobID, result.Error)
				continue
			}
			scanned++
		}
	}()

	if err := pool.Shutdown(10 * time.Minute); err != nil {
		return nil, 0, fmt.Errorf("scan did not finish: %w", err)
	}
	done.Wait()

	stats := pool.GetStats()
	log.Debugf("pool stats: submitted=%d completed=%d failed=%d",
		stats.JobsSubmitted, stats.JobsCompleted, stats.JobsFailed)

	s.mu.Lock()
	diags := s.diags
	s.diags = nil
	s.mu.Unlock()

	return diags, scanned, nil
}

// collectFiles 收集目录下的源文件，跳过排除的目录
func (s *Scanner) collectFiles(dirPath string) ([]string, error) {
	var files []string

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(dirPath, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		if info.IsDir() {
			if s.cfg.ExcludedDir(filepath.Base(path)) {
				log.Debugf("skipping excluded directory %s", path)
				return filepath.SkipDir
			}
			return nil
		}

		if s.cfg.SourceFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return files, nil
}
