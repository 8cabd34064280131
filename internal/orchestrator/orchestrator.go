// Package orchestrator sequences the nightly pipeline:
// Discover → Dedup1 → Parse → Dedup2 → Map → Consolidate → Assemble →
// Persist → Notify → Done, with a terminal Failed state reachable from any
// step. Processing is strictly sequential; deterministic ordering is what
// makes the duplicate passes reproducible.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"wrh/nightaudit/internal/assembler"
	"wrh/nightaudit/internal/blobstore"
	"wrh/nightaudit/internal/config"
	"wrh/nightaudit/internal/consolidator"
	"wrh/nightaudit/internal/dateutils"
	"wrh/nightaudit/internal/dedup"
	"wrh/nightaudit/internal/discovery"
	"wrh/nightaudit/internal/logging"
	"wrh/nightaudit/internal/mappingtable"
	"wrh/nightaudit/internal/models"
	"wrh/nightaudit/internal/notify"
	"wrh/nightaudit/internal/pipelineerror"
	"wrh/nightaudit/internal/propertydir"
	"wrh/nightaudit/internal/reportparser"
	"wrh/nightaudit/internal/retry"
)

var log = logging.GetLogger()

// SetLogger allows setting a configured logger.
func SetLogger(logger logging.Logger) {
	if logger == nil {
		return
	}
	log = logger
}

// Step names the pipeline states, used in logs and failure messages.
type Step string

const (
	StepDiscover    Step = "discover"
	StepDedup1      Step = "dedup-metadata"
	StepParse       Step = "parse"
	StepDedup2      Step = "dedup-content"
	StepMap         Step = "map"
	StepConsolidate Step = "consolidate"
	StepAssemble    Step = "assemble"
	StepPersist     Step = "persist"
	StepNotify      Step = "notify"
	StepDone        Step = "done"
	StepFailed      Step = "failed"
)

// Mode selects how a run discovers its input files.
type Mode string

const (
	// ModeDaily processes files landed in the last 24 hours.
	ModeDaily Mode = "daily"
	// ModeFolderDate reprocesses one folder date in full.
	ModeFolderDate Mode = "folder-date"
	// ModeBusinessDate reprocesses one business date; the folder for that
	// date and the following day are both queried and content parsing
	// confirms the actual business date.
	ModeBusinessDate Mode = "business-date"
	// ModeResend skips processing and re-notifies with already-generated
	// artifacts.
	ModeResend Mode = "resend"
)

// Trigger is the payload handed over by the scheduling layer.
type Trigger struct {
	ProcessingType     string     `json:"processingType"`
	Environment        string     `json:"environment"`
	Timestamp          time.Time  `json:"timestamp"`
	ScheduleExpression string     `json:"scheduleExpression"`
	TargetDate         *time.Time `json:"targetDate,omitempty"`
	BusinessDate       *time.Time `json:"businessDate,omitempty"`
	ResendEmail        bool       `json:"resendEmail,omitempty"`
	DryRun             bool       `json:"dryRun,omitempty"`
}

// Mode derives the run mode from the trigger fields.
func (t Trigger) Mode() Mode {
	switch {
	case t.ResendEmail:
		return ModeResend
	case t.BusinessDate != nil:
		return ModeBusinessDate
	case t.TargetDate != nil:
		return ModeFolderDate
	default:
		return ModeDaily
	}
}

// Orchestrator owns one run at a time. All collaborators are injected; the
// orchestrator holds no global state.
type Orchestrator struct {
	incoming   blobstore.Store
	processed  blobstore.Store
	properties *propertydir.Directory
	notifier   notify.Notifier
	cfg        *config.Config
	policy     retry.Policy
	factory    *reportparser.Factory
	clock      func() time.Time
}

// New builds an Orchestrator from its collaborators.
func New(incoming, processed blobstore.Store, properties *propertydir.Directory, notifier notify.Notifier, cfg *config.Config) *Orchestrator {
	policy := retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.BaseDelay(),
		Multiplier:  cfg.Retry.Multiplier,
		MaxDelay:    cfg.MaxDelay(),
		Retryable:   retry.IsTransient,
	}
	clock := time.Now
	return &Orchestrator{
		incoming:   incoming,
		processed:  processed,
		properties: properties,
		notifier:   notifier,
		cfg:        cfg,
		policy:     policy,
		factory:    reportparser.NewFactory(clock),
		clock:      clock,
	}
}

// SetClock overrides the run clock, for tests.
func (o *Orchestrator) SetClock(clock func() time.Time) {
	o.clock = clock
	o.factory = reportparser.NewFactory(clock)
}

// SetExtractor injects a text extractor, for tests.
func (o *Orchestrator) SetExtractor(e reportparser.TextExtractor) {
	o.factory = reportparser.NewFactoryWithExtractor(e, o.clock)
}

// Run executes the pipeline for one trigger. It never panics and never
// returns an error: every failure becomes a structured RunResult so the
// scheduling host needs no special-case handling.
func (o *Orchestrator) Run(ctx context.Context, trigger Trigger) (result models.RunResult) {
	runID := uuid.NewString()
	started := o.clock()
	runLog := log.WithField(logging.FieldRunID, runID)

	defer func() {
		if r := recover(); r != nil {
			runLog.Error("Pipeline panicked",
				logging.Field{Key: logging.FieldStep, Value: string(StepFailed)},
				logging.Field{Key: "panic", Value: fmt.Sprint(r)})
			result = o.failure(runID, started, fmt.Sprintf("internal error: %v", r))
		}
	}()

	runLog.Info("Pipeline run starting",
		logging.Field{Key: logging.FieldMode, Value: string(trigger.Mode())})

	res, err := o.run(ctx, runID, started, trigger, runLog)
	if err != nil {
		runLog.WithError(err).Error("Pipeline run failed",
			logging.Field{Key: logging.FieldStep, Value: string(StepFailed)})
		return o.failure(runID, started, err.Error())
	}

	runLog.Info("Pipeline run finished",
		logging.Field{Key: logging.FieldStep, Value: string(StepDone)},
		logging.Field{Key: logging.FieldDuration, Value: res.Summary.ProcessingTimeMs})
	return res
}

func (o *Orchestrator) failure(runID string, started time.Time, message string) models.RunResult {
	return models.RunResult{
		RunID:          runID,
		StatusCode:     500,
		Message:        message,
		ProcessedFiles: []string{},
		Timestamp:      o.clock(),
		Summary: models.RunSummary{
			PropertiesProcessed: []string{},
			ProcessingTimeMs:    o.clock().Sub(started).Milliseconds(),
		},
	}
}

func (o *Orchestrator) run(ctx context.Context, runID string, started time.Time, trigger Trigger, runLog logging.Logger) (models.RunResult, error) {
	if o.cfg.Storage.IncomingBucket == "" && o.incoming == nil {
		return models.RunResult{}, &pipelineerror.ConfigError{Setting: "storage.incoming_bucket", Reason: "no incoming store configured"}
	}

	mode := trigger.Mode()
	if mode == ModeResend {
		return o.resend(ctx, runID, started, trigger, runLog)
	}

	// Discover
	files, err := o.discover(ctx, trigger, mode)
	if err != nil {
		return models.RunResult{}, errors.Wrap(err, string(StepDiscover))
	}
	filesFound := len(files)
	runLog.Info("Discovery complete",
		logging.Field{Key: logging.FieldStep, Value: string(StepDiscover)},
		logging.Field{Key: logging.FieldCount, Value: filesFound})

	// Dedup pass 1: storage metadata.
	archiver := dedup.NewArchiver(o.incoming, o.cfg.Storage.DuplicatePrefix, o.policy)
	files = archiver.Phase1(ctx, files)

	// Parse
	reports := o.parse(ctx, files)

	// Business-date mode accepted both the target folder and the next
	// day's; only content can confirm which reports belong.
	if mode == ModeBusinessDate {
		reports = filterBusinessDate(reports, *trigger.BusinessDate)
	}

	// Dedup pass 2: content identity.
	reports = dedup.Phase2(reports)

	// Map + Consolidate
	table, err := o.loadMappingTable(ctx)
	if err != nil {
		return models.RunResult{}, errors.Wrap(err, string(StepMap))
	}

	recordsByFile := make(map[string][]models.MappedRecord)
	propertyNames := make(map[string]string)
	for _, r := range reports {
		if r.Failed() {
			continue
		}
		propertyNames[r.SourceFile.PropertyIDFromPath] = r.PropertyName
		cfg, _ := o.properties.Lookup(r.PropertyName)
		records := table.MapLines(r.AccountLines, r.PropertyName, r.SourceFile.PropertyIDFromPath)
		records = consolidator.Consolidate(records, cfg)
		recordsByFile[r.SourceFile.StorageKey] = records
	}

	// Assemble + Persist
	groups := assembler.Group(reports, recordsByFile, propertyNames)
	runFolder := dateutils.ToISODate(o.runFolderDate(trigger))

	jeKey, statJEKey, generated, err := o.persist(ctx, groups, runFolder, trigger.DryRun)
	if err != nil {
		return models.RunResult{}, errors.Wrap(err, string(StepPersist))
	}

	// Notify
	summary := models.RunSummary{
		FilesFound:          filesFound,
		PropertiesProcessed: propertiesOf(groups),
		ProcessingTimeMs:    o.clock().Sub(started).Milliseconds(),
		ReportsGenerated:    generated,
	}
	if !trigger.DryRun {
		nres := o.notifier.Notify(ctx, jeKey, statJEKey, summary)
		if !nres.Success {
			runLog.Warn("Notification failed",
				logging.Field{Key: logging.FieldStep, Value: string(StepNotify)},
				logging.Field{Key: "notify_error", Value: nres.Error})
		}
	}

	return models.RunResult{
		RunID:          runID,
		StatusCode:     200,
		Message:        fmt.Sprintf("processed %d files, generated %d reports", filesFound, generated),
		ProcessedFiles: storageKeys(reports),
		Timestamp:      o.clock(),
		Summary:        summary,
	}, nil
}

func (o *Orchestrator) discover(ctx context.Context, trigger Trigger, mode Mode) ([]models.FileIdentity, error) {
	finder := discovery.NewFinder(o.incoming, o.cfg.Storage.IncomingPrefix, o.policy)
	switch mode {
	case ModeFolderDate:
		return finder.FindFolderDate(ctx, *trigger.TargetDate)
	case ModeBusinessDate:
		return finder.FindBusinessDate(ctx, *trigger.BusinessDate)
	default:
		return finder.FindWindow(ctx, o.clock(), 24*time.Hour)
	}
}

func (o *Orchestrator) parse(ctx context.Context, files []models.FileIdentity) []models.ParsedReport {
	var reports []models.ParsedReport
	for _, f := range files {
		parser, err := o.factory.ForFile(f.Filename)
		if err != nil {
			log.Warn("Skipping file with unsupported type",
				logging.Field{Key: logging.FieldStorageKey, Value: f.StorageKey})
			continue
		}

		var content []byte
		err = retry.Do(ctx, o.policy, "get report file", func() error {
			var getErr error
			content, getErr = o.incoming.Get(ctx, f.StorageKey)
			return getErr
		})
		if err != nil {
			reports = append(reports, models.ParsedReport{
				SourceFile:  f,
				ParseErrors: []string{fmt.Sprintf("fetch content: %v", err)},
			})
			continue
		}

		reports = append(reports, parser.Parse(f, content))
	}
	return reports
}

func (o *Orchestrator) loadMappingTable(ctx context.Context) (*mappingtable.Table, error) {
	var content []byte
	err := retry.Do(ctx, o.policy, "get mapping sheet", func() error {
		var getErr error
		content, getErr = o.processed.Get(ctx, o.cfg.Mapping.Key)
		return getErr
	})
	if err != nil {
		return nil, &pipelineerror.ConfigError{
			Setting: "mapping.key",
			Reason:  fmt.Sprintf("mapping sheet unavailable at %s: %v", o.cfg.Mapping.Key, err),
		}
	}
	return mappingtable.Load(o.cfg.Mapping.Key, content)
}

// persist writes one JE and one StatJE artifact per distinct business date
// and returns the last written key pair plus the artifact count. Both
// artifacts are always written, even when empty. Groups whose reports all
// failed before a business date could be extracted have no date to name an
// artifact after; they are skipped here and accounted for via FailedFiles.
func (o *Orchestrator) persist(ctx context.Context, groups []models.ConsolidatedReport, runFolder string, dryRun bool) (jeKey, statJEKey string, generated int, err error) {
	byDate := make(map[string][]models.ConsolidatedReport)
	var dates []string
	for _, g := range groups {
		if g.BusinessDate.IsZero() {
			log.Warn("Skipping artifact for reports without a business date",
				logging.Field{Key: logging.FieldProperty, Value: g.PropertyName},
				logging.Field{Key: logging.FieldCount, Value: g.FailedFiles})
			continue
		}
		d := dateutils.ToISODate(g.BusinessDate)
		if _, ok := byDate[d]; !ok {
			dates = append(dates, d)
		}
		byDate[d] = append(byDate[d], g)
	}

	for _, d := range dates {
		var jeRows []models.JournalEntryRecord
		var statRows []models.StatisticalJournalEntryRecord
		for _, g := range byDate[d] {
			cfg, _ := o.properties.Lookup(g.PropertyName)
			jeRows = append(jeRows, assembler.BuildJournalEntries(g, cfg)...)
			statRows = append(statRows, assembler.BuildStatisticalEntries(g, cfg)...)
		}

		jeKey = fmt.Sprintf("%s%s/%s_JE.csv", o.cfg.Storage.ReportPrefix, runFolder, d)
		statJEKey = fmt.Sprintf("%s%s/%s_StatJE.csv", o.cfg.Storage.ReportPrefix, runFolder, d)
		jeBody := assembler.RenderJournalEntryCSV(jeRows)
		statBody := assembler.RenderStatisticalCSV(statRows)

		if dryRun {
			log.Info("Dry run, skipping artifact upload",
				logging.Field{Key: logging.FieldOutputKey, Value: jeKey},
				logging.Field{Key: logging.FieldCount, Value: len(jeRows)})
		} else {
			if err := o.putArtifact(ctx, jeKey, jeBody); err != nil {
				return "", "", generated, err
			}
			if err := o.putArtifact(ctx, statJEKey, statBody); err != nil {
				return "", "", generated, err
			}
		}
		generated += 2
	}
	return jeKey, statJEKey, generated, nil
}

func (o *Orchestrator) putArtifact(ctx context.Context, key, body string) error {
	err := retry.Do(ctx, o.policy, "put report artifact", func() error {
		return o.processed.Put(ctx, key, []byte(body), nil)
	})
	if err != nil {
		return err
	}
	log.Info("Wrote report artifact",
		logging.Field{Key: logging.FieldOutputKey, Value: key})
	return nil
}

// resend locates already-generated artifacts for the target folder date and
// re-sends the notification without reprocessing anything.
func (o *Orchestrator) resend(ctx context.Context, runID string, started time.Time, trigger Trigger, runLog logging.Logger) (models.RunResult, error) {
	folderDate := o.runFolderDate(trigger)
	prefix := fmt.Sprintf("%s%s/", o.cfg.Storage.ReportPrefix, dateutils.ToISODate(folderDate))

	var infos []blobstore.ObjectInfo
	err := retry.Do(ctx, o.policy, "list report artifacts", func() error {
		var listErr error
		infos, listErr = o.processed.List(ctx, prefix)
		return listErr
	})
	if err != nil {
		return models.RunResult{}, errors.Wrap(err, string(StepNotify))
	}

	var jeKey, statJEKey string
	for _, info := range infos {
		switch {
		case strings.HasSuffix(info.Key, "_StatJE.csv"):
			statJEKey = info.Key
		case strings.HasSuffix(info.Key, "_JE.csv"):
			jeKey = info.Key
		}
	}
	if jeKey == "" && statJEKey == "" {
		return models.RunResult{}, fmt.Errorf("no generated reports found under %s", prefix)
	}

	summary := models.RunSummary{
		PropertiesProcessed: []string{},
		ProcessingTimeMs:    o.clock().Sub(started).Milliseconds(),
		ReportsGenerated:    len(infos),
	}
	nres := o.notifier.Notify(ctx, jeKey, statJEKey, summary)
	if !nres.Success {
		return models.RunResult{}, fmt.Errorf("resend notification failed: %s", nres.Error)
	}

	runLog.Info("Resent notification",
		logging.Field{Key: logging.FieldOutputKey, Value: jeKey})
	return models.RunResult{
		RunID:          runID,
		StatusCode:     200,
		Message:        "notification resent",
		ProcessedFiles: []string{},
		Timestamp:      o.clock(),
		Summary:        summary,
	}, nil
}

func (o *Orchestrator) runFolderDate(trigger Trigger) time.Time {
	if trigger.TargetDate != nil {
		return *trigger.TargetDate
	}
	return o.clock()
}

// filterBusinessDate keeps successfully parsed reports whose extracted
// business date matches the requested one. Failed reports pass through: they
// cannot confirm a date but must stay counted.
func filterBusinessDate(reports []models.ParsedReport, want time.Time) []models.ParsedReport {
	target := dateutils.ToISODate(want)
	var out []models.ParsedReport
	for _, r := range reports {
		if r.Failed() || dateutils.ToISODate(r.BusinessDate) == target {
			out = append(out, r)
		}
	}
	return out
}

func propertiesOf(groups []models.ConsolidatedReport) []string {
	seen := make(map[string]bool)
	var out []string
	for _, g := range groups {
		name := g.PropertyName
		if name == "" {
			name = g.PropertyID
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func storageKeys(reports []models.ParsedReport) []string {
	keys := make([]string, 0, len(reports))
	for _, r := range reports {
		keys = append(keys, r.SourceFile.StorageKey)
	}
	return keys
}
