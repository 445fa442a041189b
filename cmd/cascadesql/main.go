// Command cascadesql is a thin demonstration driver around package
// cascades, playing the role spec.md §1 excludes from the core itself
// ("the CLI and test harness"). It parses one or more tiny s-expression
// plan files (see plan.go), optimizes each with the internal/demorules
// rule set and an internal/democost cost/property provider, and prints
// the result via Optimizer.Explain. Multiple plan files are optimized
// concurrently, one independent Optimizer per plan, via internal/batch —
// the concrete form of spec.md §5's "the host must instantiate multiple
// independent optimizers".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/optcore/cascades/cascades"
	"github.com/optcore/cascades/explain"
	"github.com/optcore/cascades/internal/batch"
	"github.com/optcore/cascades/internal/demorules"
	"github.com/optcore/cascades/internal/democost"
	"github.com/optcore/cascades/internal/node"
	"github.com/optcore/cascades/internal/rule"
)

var (
	formatFlag      string
	traceFlag       bool
	budgetTasksFlag int
)

var rootCmd = &cobra.Command{
	Use:   "cascadesql <plan-file> [plan-file...]",
	Short: "optimize one or more demonstration plans with the cascades engine",
	Long: `
cascadesql parses each given plan file as a tiny s-expression plan
description (scan/join over the demonstration rule set), runs it through
the cascades optimizer, and prints the requested explain format for each.
`,
	SilenceUsage: true,
	Args:         cobra.MinimumNArgs(1),
	RunE:         runOptimize,
}

func init() {
	rootCmd.Flags().StringVar(&formatFlag, "format", "plain",
		"explain format: plain, verbose, memo, or join_orders")
	rootCmd.Flags().BoolVar(&traceFlag, "trace", false, "log each task-engine step via zap")
	rootCmd.Flags().IntVar(&budgetTasksFlag, "budget-tasks", 0, "task budget per optimization (0 = unbounded)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	var logger *zap.Logger
	if traceFlag {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync() // nolint:errcheck
	} else {
		logger = zap.NewNop()
	}
	sugar := logger.Sugar()

	format := explain.Format(formatFlag)
	switch format {
	case explain.Plain, explain.Verbose, explain.Memo, explain.JoinOrders:
	default:
		return fmt.Errorf("cascadesql: unknown --format %q", formatFlag)
	}

	reqs := make([]batch.Request, len(args))
	interners := make([]*node.Interner, len(args))
	for i, path := range args {
		text, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		interners[i] = node.NewInterner()
		plan, err := parsePlan(interners[i], string(text))
		if err != nil {
			return fmt.Errorf("cascadesql: %s: %w", path, err)
		}
		reqs[i] = batch.Request{Plan: plan}
	}

	registry := rule.NewRegistry()
	demorules.Register(registry)

	optimizers := make([]*cascades.Optimizer, len(args))
	newOptimizer := func(i int) *cascades.Optimizer {
		costP := democost.New()
		opt := cascades.New(registry, costP, costP, cascades.Options{
			Pruning:     true,
			BudgetTasks: budgetTasksFlag,
			Trace:       traceFlag,
			Stages:      batch.DefaultStages(),
			Logger:      sugar,
		})
		optimizers[i] = opt
		return opt
	}

	results := batch.Run(reqs, newOptimizer)

	for i, path := range args {
		fmt.Printf("=== %s ===\n", path)
		if results[i].Err != nil {
			fmt.Printf("error: %v\n", results[i].Err)
			continue
		}
		out, err := optimizers[i].Explain(format, nil)
		if err != nil {
			fmt.Printf("explain error: %v\n", err)
			continue
		}
		fmt.Println(out)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
