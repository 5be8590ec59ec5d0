// =============================================================================
// uiflow 主入口
// =============================================================================
// 命令行入口，包含生成、校验、健康检查
//
// 使用方法:
//
//	uiflow generate "a pricing page"      # 生成 UI schema
//	uiflow validate schema.json ...       # 校验 schema 文件
//	uiflow health                         # 检查 provider 可用性
//	uiflow version                        # 显示版本信息
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/uiflow"
	"github.com/BaSui01/uiflow/config"
	"github.com/BaSui01/uiflow/retry"
	"github.com/BaSui01/uiflow/validate"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "health":
		runHealth(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// ✨ generate 命令
// =============================================================================

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	out := fs.String("out", "", "Write the validated schema to a file instead of stdout")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: uiflow generate [options] <prompt>")
		os.Exit(1)
	}
	prompt := strings.Join(fs.Args(), " ")

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	p, err := uiflow.New(uiflow.WithConfig(cfg), uiflow.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	var onProgress func(retry.ProgressEvent)
	if !*quiet {
		onProgress = func(ev retry.ProgressEvent) {
			fmt.Fprintf(os.Stderr, "[attempt %d/%d] %s (fixed=%d remaining=%d)\n",
				ev.Attempt, ev.TotalAttempts, ev.Status, ev.ErrorsFixed, ev.ErrorsRemaining)
		}
	}

	result, err := p.Generate(context.Background(), prompt, onProgress)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		if result != nil {
			printErrors(os.Stderr, "", result.Errors)
		}
		os.Exit(1)
	}

	data, err := json.MarshalIndent(result.Schema, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode schema: %v\n", err)
		os.Exit(1)
	}
	if *out != "" {
		if err := os.WriteFile(*out, append(data, '\n'), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", *out, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s after %d attempt(s)\n", *out, result.Attempts)
		return
	}
	fmt.Println(string(data))
}

// =============================================================================
// ✅ validate 命令
// =============================================================================

// fileResult 单个文件的校验结果，按输入顺序回收。
type fileResult struct {
	path   string
	result *validate.ChainResult
	err    error
}

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	concurrency := fs.Int("concurrency", 4, "Number of files validated in parallel")
	asJSON := fs.Bool("json", false, "Emit results as JSON")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: uiflow validate [options] <file>...")
		os.Exit(1)
	}

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	chain := validate.NewChain(cfg.Catalog(),
		validate.WithLogger(logger),
		validate.WithTokenCatalog(cfg.Tokens),
	)

	files := fs.Args()
	results := make([]fileResult, len(files))

	// 并发校验，结果按输入顺序写回各自的槽位
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(*concurrency)
	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			var res *validate.ChainResult
			if err == nil {
				res = chain.Run(string(data))
			}
			results[i] = fileResult{path: path, result: res, err: err}
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, fr := range results {
		if fr.err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "%s: %v\n", fr.path, fr.err)
			continue
		}
		if *asJSON {
			data, _ := json.MarshalIndent(fr.result, "", "  ")
			fmt.Printf("%s: %s\n", fr.path, data)
		} else if fr.result.Valid {
			fmt.Printf("%s: OK (%d warning(s))\n", fr.path, len(fr.result.Warnings))
		} else {
			fmt.Printf("%s: %d error(s)\n", fr.path, len(fr.result.Errors))
			printErrors(os.Stdout, "  ", fr.result.Errors)
		}
		if !fr.result.Valid {
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealth(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	timeout := fs.Duration("timeout", 10*time.Second, "Probe timeout")
	fs.Parse(args)

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	p, err := uiflow.New(uiflow.WithConfig(cfg), uiflow.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := p.HealthCheck(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("uiflow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`uiflow - Self-correcting UI schema generation

Usage:
  uiflow <command> [options]

Commands:
  generate  Generate and validate a UI schema from a prompt
  validate  Validate schema JSON files
  health    Check provider connectivity
  version   Show version information
  help      Show this help message

Options for 'generate':
  --config <path>   Path to configuration file (YAML)
  --out <path>      Write the schema to a file
  --quiet           Suppress progress output

Options for 'validate':
  --config <path>        Path to configuration file (YAML)
  --concurrency <n>      Files validated in parallel (default 4)
  --json                 Emit results as JSON

Examples:
  uiflow generate "a pricing page with three tiers"
  uiflow validate schemas/*.json
  uiflow health
  uiflow version`)
}

// =============================================================================
// 🔧 配置与日志初始化
// =============================================================================

func loadConfig(path string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func printErrors(w *os.File, indent string, errs []validate.ChainError) {
	for _, e := range errs {
		fmt.Fprintf(w, "%s[%s] %s: %s\n", indent, e.Layer, e.Path, e.Message)
		if e.Suggestion != "" {
			fmt.Fprintf(w, "%s    %s\n", indent, e.Suggestion)
		}
	}
}
