package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"receitanet-engine/internal/companies"
	"receitanet-engine/internal/config"
	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/desktop"
	"receitanet-engine/internal/events"
	"receitanet-engine/internal/files"
	"receitanet-engine/internal/httpapi"
	"receitanet-engine/internal/lock"
	"receitanet-engine/internal/logging"
	"receitanet-engine/internal/outcome"
	"receitanet-engine/internal/receitanet"
	"receitanet-engine/internal/rpa"
	"receitanet-engine/internal/runner"
	"receitanet-engine/internal/secrets"
	"receitanet-engine/internal/store"
)

const (
	lockFile  = "receitanet.lock"
	dbFile    = "receitanet.db"
	pollEvery = 250 * time.Millisecond
	// downloads that keep changing for this long are moved anyway
	settleLimit = 5 * time.Minute
)

var errAbortRequested = errors.New("abort requested through the status api")

var (
	runCNPJ       string
	runPreview    bool
	runStatusAddr string
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVar(&runCNPJ, "cnpj", "", "process only this company (falls back to all when not in the list)")
	runCmd.Flags().BoolVar(&runPreview, "preview", false, "move the pointer onto each target without clicking or typing")
	runCmd.Flags().StringVar(&runStatusAddr, "status-addr", "", "serve the status API on this address, e.g. 127.0.0.1:38471")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every company of the list",
	Long: `Process every company of the CSV list: log in as proxy, search, request,
download and move the files of each enabled document type.

Examples:
  # Process all companies
  receitanet run

  # Rehearse the clicks for one company without touching anything
  receitanet run --cnpj 12.345.678/0001-90 --preview`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, _ []string) error {
	o := config.Overrides{CNPJ: runCNPJ, StatusAddr: runStatusAddr}
	if cmd.Flags().Changed("preview") {
		o.Preview = &runPreview
	}
	cfg, v, err := loadConfig(o)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logging.Sync(log) }()
	for _, w := range v.Warnings {
		log.Warn("config", zap.String("warning", w))
	}
	if err := v.Err(); err != nil {
		return err
	}

	lk, err := lock.Acquire(filepath.Join(cfg.DataDir, lockFile))
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	list, err := companies.ReadFile(cfg.Settings.Empresas)
	if err != nil {
		return err
	}
	selected := companies.Filter(list.Companies, cfg.Params.CNPJ)
	log.Info("companies loaded", zap.Int("total", len(list.Companies)), zap.Int("selected", len(selected)))

	types, unknown := receitanet.EnabledTypes(cfg.Params.Types)
	if len(unknown) > 0 {
		log.Warn("unknown document types ignored", zap.Strings("types", unknown))
	}
	// validated above
	start, _ := dates.ParseISO(cfg.Params.Period.StartDate)
	end, _ := dates.ParseISO(cfg.Params.Period.EndDate)

	db, err := store.Open(filepath.Join(cfg.DataDir, dbFile))
	if err != nil {
		return err
	}
	defer db.Close()

	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	base, abort := context.WithCancelCause(sigCtx)
	defer abort(nil)

	screen := desktop.NewScreen()
	defer screen.Close()
	input := desktop.NewInput(func() { abort(desktop.ErrFailSafe) })
	sess := rpa.NewSession(cfg.Settings.RPA(), screen, input, rpa.WithLogger(log))

	loc := cfg.Settings.Locator
	opts := receitanet.DriverOptions{
		Certificate:   cfg.Settings.Certificado,
		PIN:           func() (string, error) { return secrets.PIN(cfg.Settings.Certificado) },
		Column:        loc.ColumnHalfWidth,
		Band:          loc.RowBand,
		WideBand:      loc.WideRowBand,
		ScrollEvery:   loc.ScrollEvery,
		ScrollPresses: loc.ScrollPresses,
		Log:           log,
	}
	if loc.Dates == "ocr" {
		opts.Text = desktop.NewTextReader(loc.OCRLanguage)
	}
	driver := receitanet.NewDriver(sess, opts)

	arq := cfg.Settings.Arquivos
	wf := &receitanet.Workflow{
		App:         driver,
		Types:       types,
		Start:       start,
		End:         end,
		Destination: arq.Caminho,
		Mover:       files.Mover{Source: arq.Origem, Extensions: arq.Extensoes, Log: log.Named("files")},
		Log:         log.Named("workflow"),
	}
	if arq.SettleSecs > 0 {
		quiet := time.Duration(arq.SettleSecs) * time.Second
		wf.Settle = func(ctx context.Context) error {
			return files.WaitQuiet(ctx, arq.Origem, quiet, settleLimit)
		}
	}

	runID := uuid.NewString()
	hub := events.NewHub()
	var status atomic.Value
	status.Store(httpapi.Status{})
	tracker := httpapi.NewTracker(&status)

	items := make([]runner.Item[companies.Company], 0, len(selected))
	for _, c := range selected {
		items = append(items, runner.Item[companies.Company]{ID: c.ID(), Label: c.Label(), Value: c})
	}
	retry := cfg.Settings.Retry
	ropts := runner.Options{
		RunID:      runID,
		MaxRetries: retry.MaxRetries,
		RetryDelay: time.Duration(retry.DelaySeconds) * time.Second,
		Settle:     time.Duration(retry.SettleSeconds) * time.Second,
		Cleanup:    driver.Close,
		Recorder:   runner.Multi(&store.Ledger{DB: db, Log: log}, events.Publisher{Hub: hub}, tracker),
		Logger:     log,
	}

	if err := db.BeginRun(base, runID, time.Now()); err != nil {
		return err
	}
	tracker.Begin(runID, len(items))
	hub.Publish(events.MakeEvent(runID, events.TypeRunStarted, 1, map[string]any{"companies": len(items)}))
	log.Info("run started", zap.String("run", runID), zap.Int("companies", len(items)),
		zap.Bool("preview", cfg.Settings.Preview))

	g, gctx := errgroup.WithContext(base)
	watch, watchDone := context.WithCancel(gctx)
	var rep runner.Report
	g.Go(func() error {
		defer watchDone()
		rep = runner.ForEach(gctx, items,
			func(ctx context.Context, it runner.Item[companies.Company], attempt int) outcome.Outcome {
				return wf.Process(ctx, it.Value, attempt == 1)
			}, ropts)
		return nil
	})
	g.Go(func() error {
		return rpa.WatchFailSafe(watch, desktop.Pointer{}, pollEvery)
	})
	if addr := cfg.Settings.Status.Addr; addr != "" {
		token, err := httpapi.RandomToken(16)
		if err != nil {
			return err
		}
		log.Info("abort with POST /abort", zap.String("addr", addr), zap.String("token", token))
		h := httpapi.NewHandler(httpapi.Deps{
			DB: db, Hub: hub, Status: &status, Log: log,
			AbortToken: token,
			Abort:      func() { abort(errAbortRequested) },
		})
		g.Go(func() error { return httpapi.Serve(watch, addr, h, log) })
	}
	werr := g.Wait()

	cause := context.Cause(base)
	aborted := werr != nil || cause != nil
	state := "done"
	if aborted {
		state = "aborted"
	}
	tracker.End(aborted)
	finish := context.WithoutCancel(base)
	if err := db.FinishRun(finish, runID, state, time.Now()); err != nil {
		log.Warn("finish run", zap.Error(err))
	}
	hub.Publish(events.MakeEvent(runID, events.TypeRunFinished, 1, map[string]any{"state": state}))

	summary := fmt.Sprintf("run %s %s: %d succeeded, %d skipped, %d failed, %d duplicate, %d aborted",
		runID, state,
		rep.Count(runner.StateSuccess), rep.Count(runner.StateSkipped), rep.Count(runner.StateFailed),
		rep.Count(runner.StateDuplicate), rep.Count(runner.StateAborted))
	log.Info(summary)

	switch {
	case errors.Is(werr, rpa.ErrAborted), errors.Is(cause, desktop.ErrFailSafe):
		return fmt.Errorf("run stopped by the failsafe corner: %w", rpa.ErrAborted)
	case werr != nil:
		return werr
	case cause != nil && !errors.Is(cause, context.Canceled):
		return cause
	case cause != nil:
		return errors.New("run interrupted")
	}
	if rep.Count(runner.StateFailed) > 0 {
		return fmt.Errorf("%d companies failed", rep.Count(runner.StateFailed))
	}
	return nil
}
