package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openscribe/openscribe/internal/retention"
	"github.com/openscribe/openscribe/pkg/jobstore"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage job artifacts on disk",
}

var jobsGCCmd = &cobra.Command{
	Use:   "gc",
	Short: "Delete stale upload directories",
	Long: `Delete upload directories older than the given age.

The serve command performs the same sweep automatically at startup; this
command exists for manual reclamation while the service is stopped.`,
	RunE: runJobsGC,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsGCCmd)

	jobsGCCmd.Flags().String("max-age", "", "Delete directories older than this (default: configured orphaned_max_age)")
	jobsGCCmd.Flags().Bool("dry-run", false, "Report what would be deleted without deleting")
	jobsGCCmd.Flags().Bool("json", false, "Emit machine-readable output")
}

type jobsGCResult struct {
	Deleted     int    `json:"deleted"`
	WouldDelete int    `json:"would_delete"`
	DryRun      bool   `json:"dry_run"`
	MaxAge      string `json:"max_age"`
}

func runJobsGC(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	maxAge := cfg.Jobs.OrphanedMaxAge
	maxAgeStr, _ := cmd.Flags().GetString("max-age")
	if s := strings.TrimSpace(maxAgeStr); s != "" {
		maxAge, err = time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid --max-age: %w", err)
		}
	}
	if maxAge <= 0 {
		return fmt.Errorf("--max-age must be > 0")
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	mgr := retention.New(jobstore.NewStore(), cfg.Jobs.UploadsRoot,
		cfg.Jobs.CompletedJobRetention, maxAge, zap.NewNop())
	deleted, err := mgr.Sweep(maxAge, dryRun)
	if err != nil {
		return err
	}

	if jsonOutput {
		res := jobsGCResult{DryRun: dryRun, MaxAge: maxAge.String()}
		if dryRun {
			res.WouldDelete = deleted
		} else {
			res.Deleted = deleted
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	if dryRun {
		_, _ = fmt.Fprintf(os.Stdout, "would_delete=%d\n", deleted)
		return nil
	}
	_, _ = fmt.Fprintf(os.Stdout, "deleted=%d\n", deleted)
	return nil
}
