package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"port64/internal/config"
	"port64/internal/core"
	"port64/internal/detectors"
	"port64/internal/report"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "port64",
	Short: "64-bit portability scanner for C/C++",
	Long: `port64 scans C/C++ sources for pointer/integer conversions that break
on platforms where pointers are wider than int, such as LP64 and LLP64.`,
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a file or directory for portability issues",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported report formats",
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range report.SupportedFormats() {
			fmt.Printf("  %-6s %s\n", f, report.FormatDescription(f))
		}
	},
}

func main() {
	rootCmd.Version = Version

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(versionCmd)

	scanCmd.Flags().Int("workers", 0, "number of worker goroutines (default: NumCPU, capped at 32)")
	scanCmd.Flags().StringP("format", "f", "", "report format (text, json, sarif, all)")
	scanCmd.Flags().StringP("output", "o", "", "report output file path")
	scanCmd.Flags().Bool("timestamp", false, "add timestamp to report filenames")
	scanCmd.Flags().String("config", "", "path to port64.toml (default: search upward from cwd)")
	scanCmd.Flags().BoolP("verbose", "v", false, "verbose logging")
	scanCmd.Flags().Bool("no-color", false, "disable colored output")
	scanCmd.Flags().String("check", "", "run only one check (assignment, return)")

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	log.SetOutput(os.Stderr)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 加载配置文件并应用命令行覆盖
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		found, ok, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		if ok {
			configPath = found
		}
	}

	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		log.Debugf("loaded configuration from %s", configPath)
	}

	// 命令行显式给出的标志覆盖配置文件
	if cmd.Flags().Changed("workers") {
		cfg.Scan.Workers, _ = cmd.Flags().GetInt("workers")
	}
	if cmd.Flags().Changed("format") {
		cfg.Output.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		cfg.Output.File, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("timestamp") {
		cfg.Output.Timestamp, _ = cmd.Flags().GetBool("timestamp")
	}
	if cmd.Flags().Changed("no-color") {
		noColor, _ := cmd.Flags().GetBool("no-color")
		cfg.Output.Color = !noColor
	}
	if cmd.Flags().Changed("check") {
		check, _ := cmd.Flags().GetString("check")
		switch strings.ToLower(check) {
		case "assignment":
			cfg.Checks = config.ChecksConfig{Assignment: true}
		case "return":
			cfg.Checks = config.ChecksConfig{Return: true}
		default:
			return nil, fmt.Errorf("unknown check %q (expected assignment or return)", check)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	var active []core.Detector
	if cfg.Checks.Assignment {
		active = append(active, detectors.NewPointerAssignmentDetector())
	}
	if cfg.Checks.Return {
		active = append(active, detectors.NewPointerReturnDetector())
	}

	scanner := NewScanner(cfg, active)

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", path, err)
	}

	ctx := context.Background()
	start := time.Now()

	var diags []core.Diagnostic
	var filesScanned int
	if info.IsDir() {
		diags, filesScanned, err = scanner.ScanDir(ctx, path)
	} else {
		diags, err = scanner.ScanFile(ctx, path)
		filesScanned = 1
	}
	if err != nil {
		return err
	}

	result := &report.ScanResult{
		Diagnostics:   diags,
		Duration:      time.Since(start),
		FilesScanned:  filesScanned,
		DetectorsUsed: scanner.DetectorNames(),
	}

	return writeResult(cfg, format, result)
}

// writeResult 按配置写出扫描结果
func writeResult(cfg *config.Config, format report.Format, result *report.ScanResult) error {
	if cfg.Output.File == "" {
		opts := []report.TextOption{}
		if cfg.Output.Color {
			opts = append(opts, report.WithColor())
		}
		return report.NewTextWriter(os.Stdout, opts...).Write(result)
	}

	outputDir := filepath.Dir(cfg.Output.File)
	filename := filepath.Base(cfg.Output.File)

	mgrOpts := []report.ManagerOption{
		report.WithFormat(format),
		report.WithOutputDir(outputDir),
	}
	if cfg.Output.Timestamp {
		mgrOpts = append(mgrOpts, report.WithTimestamp())
	} else if format != report.FormatAll {
		mgrOpts = append(mgrOpts, report.WithFilename(filename))
	}

	mgr := report.NewManager(mgrOpts...)
	outputFiles, err := mgr.Generate(result)
	if err != nil {
		return err
	}

	for _, file := range outputFiles {
		log.Infof("report written to %s", file)
	}

	// 控制台仍然给出简短摘要
	if len(result.Diagnostics) == 0 {
		fmt.Printf("No portability issues found in %d files.\n", result.FilesScanned)
	} else {
		fmt.Printf("%d portability issues found in %d files.\n",
			len(result.Diagnostics), result.FilesScanned)
	}

	return nil
}
