// Package run contains the pipeline execution command
package run

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"wrh/nightaudit/cmd/root"
	"wrh/nightaudit/internal/blobstore"
	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/notify"
	"wrh/nightaudit/internal/orchestrator"
	"wrh/nightaudit/internal/propertydir"
)

var (
	targetDate   string
	businessDate string
	resendEmail  bool
)

// Cmd represents the run command
var Cmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run",
	Long: `Execute one pipeline run. Without flags the run processes files that
arrived in the last 24 hours. --target-date reprocesses one folder date in
full, --business-date reprocesses one business date across its candidate
folders, and --resend re-sends the notification for already-generated
reports.`,
	Run: runFunc,
}

func init() {
	Cmd.Flags().StringVarP(&targetDate, "target-date", "t", "", "Reprocess one folder date (YYYY-MM-DD)")
	Cmd.Flags().StringVarP(&businessDate, "business-date", "b", "", "Reprocess one business date (YYYY-MM-DD)")
	Cmd.Flags().BoolVar(&resendEmail, "resend", false, "Only re-send the notification for existing reports")
}

func runFunc(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	trigger := orchestrator.Trigger{
		ProcessingType: "manual",
		Timestamp:      time.Now(),
		ResendEmail:    resendEmail,
		DryRun:         root.SharedFlags.DryRun,
	}
	if targetDate != "" {
		d, _, err := dateutils.ParseDate(targetDate)
		if err != nil {
			root.Log.Fatalf("Invalid --target-date %q: %v", targetDate, err)
		}
		trigger.TargetDate = &d
	}
	if businessDate != "" {
		d, _, err := dateutils.ParseDate(businessDate)
		if err != nil {
			root.Log.Fatalf("Invalid --business-date %q: %v", businessDate, err)
		}
		trigger.BusinessDate = &d
	}
	if targetDate != "" && businessDate != "" {
		root.Log.Fatal("--target-date and --business-date are mutually exclusive")
	}

	incoming, err := blobstore.NewGCSStore(ctx, root.Cfg.Storage.IncomingBucket)
	if err != nil {
		root.Log.Fatalf("Failed to open incoming bucket %s: %v", root.Cfg.Storage.IncomingBucket, err)
	}
	processed, err := blobstore.NewGCSStore(ctx, root.Cfg.Storage.ProcessedBucket)
	if err != nil {
		root.Log.Fatalf("Failed to open processed bucket %s: %v", root.Cfg.Storage.ProcessedBucket, err)
	}

	properties, err := propertydir.Load(root.Cfg.Properties.File)
	if err != nil {
		root.Log.Fatalf("Failed to load property directory %s: %v", root.Cfg.Properties.File, err)
	}

	notifier := &notify.LogNotifier{Recipients: root.Cfg.Notify.Recipients}

	o := orchestrator.New(incoming, processed, properties, notifier, root.Cfg)
	result := o.Run(ctx, trigger)

	if result.StatusCode != 200 {
		root.Log.Fatalf("Run %s failed: %s", result.RunID, result.Message)
	}
	root.Log.Infof("Run %s completed: %s", result.RunID, result.Message)
	root.Log.Infof("Files found: %d, properties: %d, reports: %d, duration: %dms",
		result.Summary.FilesFound, len(result.Summary.PropertiesProcessed),
		result.Summary.ReportsGenerated, result.Summary.ProcessingTimeMs)
}
