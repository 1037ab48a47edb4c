package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"drive-cache/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fixIntegrity    bool
	dryRunIntegrity bool
	jsonIntegrity   bool
	yesConfirm      bool
)

// integrityCmd checks the cache against the stored manifest.
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the cache against the manifest",
	Long: `Compares the cached files with the stored manifest and the state schema.

Reports files listed in the manifest but missing from the cache, files whose
hash differs from the manifest, and cached files no manifest entry owns.

Examples:
  # Report only
  integrity

  # Delete orphans and refetch damaged items (with interactive confirmation)
  integrity --fix

  # Repair with auto-confirm and save the report
  integrity --fix --yes --json`,
	RunE: runIntegrity,
}

func init() {
	integrityCmd.Flags().BoolVar(&fixIntegrity, "fix", false, "Delete orphans and refetch missing or damaged items")
	integrityCmd.Flags().BoolVar(&dryRunIntegrity, "dry-run", false, "Force dry-run (no mutations even with --yes)")
	integrityCmd.Flags().BoolVar(&jsonIntegrity, "json", false, "Save the detailed plan as JSON")
	integrityCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm destructive actions (non-interactive)")

	RootCmd.AddCommand(integrityCmd)
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	startTime := time.Now()

	cfg, logg, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logg.Sync()

	inst, err := bootstrap(ctx, cfg, logg, false)
	if err != nil {
		return err
	}
	defer func() {
		if err := inst.close(ctx); err != nil {
			logg.Warn("Failed to close cleanly", zap.Error(err))
		}
	}()

	svc := integrity.NewService(inst.store, inst.manifest, inst.resyncer(), inst.db, logg)

	// Step 1: Schema
	schema, err := svc.CheckSchema()
	if err != nil {
		logg.Error("Schema check failed", zap.Error(err))
	} else if schema.Matched {
		logg.Info("State schema matches expected definition.", zap.String("driver", schema.Driver))
	} else {
		for table, report := range schema.Tables {
			if len(report.MissingColumns) > 0 {
				logg.Warn("Missing Columns", zap.String("table", table), zap.Strings("columns", report.MissingColumns))
			}
		}
		for _, e := range schema.Errors {
			logg.Error("Inspection Error", zap.String("error", e))
		}
	}

	// Step 2: Plan
	logg.Info("Checking cache (this might take a while)...")
	plan, err := svc.PlanRepair(ctx)
	if err != nil {
		return fmt.Errorf("cache check failed: %w", err)
	}
	printIntegrityReport(logg, plan)

	if jsonIntegrity {
		filename := fmt.Sprintf("integrity_cache_%d.json", time.Now().Unix())
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return fmt.Errorf("failed to save JSON file: %w", err)
		}
		logg.Info("Detailed JSON report saved", zap.String("file", filename))
	}

	defer func() {
		logg.Info("Integrity check completed", zap.Duration("execution_time", time.Since(startTime)))
	}()

	// Step 3: Apply
	if len(plan.Actions) == 0 {
		logg.Info("Cache is intact.")
		return nil
	}
	if !fixIntegrity {
		logg.Info("Run with --fix to repair the cache.")
		return nil
	}
	if dryRunIntegrity {
		logg.Info("Dry-run mode: No changes were made.")
		return nil
	}

	if !confirmDestructiveAction() {
		logg.Warn("Operation cancelled by user. No changes were made.")
		return nil
	}

	logg.Info("Applying actions...")
	executed, err := svc.Repair(ctx, plan, integrity.Options{Confirmed: true})
	if err != nil {
		return fmt.Errorf("failed to apply plan (%d actions executed): %w", executed, err)
	}
	logg.Info("Successfully executed actions", zap.Int("count", executed))
	return nil
}

// printIntegrityReport logs the plan summary and a sample of its actions.
func printIntegrityReport(l *zap.Logger, plan *integrity.Plan) {
	s := plan.Summary

	l.Info("Integrity report",
		zap.Int64("version", plan.Report.Version),
		zap.Int("checked", s.Checked),
		zap.Int("missing", s.Missing),
		zap.Int("mismatched", s.Mismatched),
		zap.Int("orphans", s.Orphans),
	)

	if len(plan.Actions) == 0 {
		return
	}

	l.Info("Planned actions",
		zap.Int("delete_actions", s.DeleteActions),
		zap.Int("refetch_actions", s.RefetchActions),
		zap.Int("total_actions", len(plan.Actions)),
	)

	maxShow := min(5, len(plan.Actions))
	for _, action := range plan.Actions[:maxShow] {
		l.Info("Sample action",
			zap.String("type", string(action.Type)),
			zap.String("key", action.Key),
			zap.String("reason", action.Reason),
		)
	}
	if len(plan.Actions) > maxShow {
		l.Info("Additional actions not shown", zap.Int("count", len(plan.Actions)-maxShow))
	}
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	return strings.TrimSpace(response) == "yes"
}
