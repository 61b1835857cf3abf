package receitanet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"receitanet-engine/internal/companies"
	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/files"
	"receitanet-engine/internal/outcome"
	"receitanet-engine/internal/rpa"
)

// App is the set of screen flows a company goes through. Driver is the live
// implementation.
type App interface {
	Open(ctx context.Context) rpa.Result
	Close(ctx context.Context)
	ChangeProfile(ctx context.Context, cnpj string, first bool) rpa.Result
	Search(ctx context.Context, t DocType, g dates.Group, first bool) SearchResult
	SelectDates(ctx context.Context, t DocType, g dates.Group) error
	Download(ctx context.Context) rpa.Result
}

// Mover files the downloads of one search into dest.
type Mover interface {
	Move(dest string) (files.Result, error)
}

// Workflow fetches every enabled document type for one company.
type Workflow struct {
	App   App
	Types []DocType
	Start time.Time
	End   time.Time

	// Destination is the folder template rendered with the company columns
	// and the search period.
	Destination string
	Mover       Mover
	// Settle waits for the download folder to go quiet before moving; nil
	// moves right away.
	Settle func(ctx context.Context) error

	Now func() time.Time
	Log *zap.Logger
}

func (w *Workflow) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Workflow) logger() *zap.Logger {
	if w.Log == nil {
		return zap.NewNop()
	}
	return w.Log
}

// Process runs the company through login, search, selection, download and
// filing. firstAttempt selects the profile path for a fresh app.
func (w *Workflow) Process(ctx context.Context, c companies.Company, firstAttempt bool) outcome.Outcome {
	log := w.logger().With(zap.String("cnpj", c.CNPJ), zap.String("nome", c.Name))
	if len(w.Types) == 0 {
		return outcome.Skip("no document types enabled")
	}

	if r := w.App.Open(ctx); r != rpa.Success {
		return outcome.Fail(fmt.Errorf("receitanet: open app: %w", r.Err()))
	}
	if r := w.App.ChangeProfile(ctx, c.ID(), firstAttempt); r != rpa.Success {
		return outcome.Fail(fmt.Errorf("receitanet: change profile: %w", r.Err()))
	}

	today := w.now()
	for _, t := range w.Types {
		groups := t.Groups(w.Start, w.End, today)
		if len(groups) == 0 {
			log.Warn("period has no searchable dates", zap.String("tipo", string(t)))
			continue
		}
		for i, g := range groups {
			if err := ctx.Err(); err != nil {
				return outcome.Fail(err)
			}
			glog := log.With(zap.String("tipo", string(t)),
				zap.String("start", g.Start.Format(dates.Slash)), zap.String("end", g.End.Format(dates.Slash)))

			sr := w.App.Search(ctx, t, g, i == 0)
			if sr.Empty != "" {
				return outcome.Skip(sr.Empty)
			}
			if sr.Result != rpa.Success {
				glog.Warn("search failed, next period", zap.Stringer("result", sr.Result))
				continue
			}

			if err := w.App.SelectDates(ctx, t, g); err != nil {
				if errors.Is(err, ErrNoFiles) {
					glog.Warn("no month row found, next period", zap.Error(err))
					continue
				}
				return outcome.Fail(err)
			}
			if r := w.App.Download(ctx); r != rpa.Success {
				return outcome.Fail(fmt.Errorf("receitanet: download %s: %w", t, r.Err()))
			}
			w.file(ctx, glog, c, t, g)
		}
	}
	return outcome.Success()
}

// file moves the downloads of one search. Failures are logged only: the
// files stay in the download folder for the next run or a manual move.
func (w *Workflow) file(ctx context.Context, log *zap.Logger, c companies.Company, t DocType, g dates.Group) {
	if w.Mover == nil {
		return
	}
	if w.Settle != nil {
		if err := w.Settle(ctx); err != nil {
			log.Warn("download folder not settled", zap.Error(err))
		}
	}
	vars := files.Vars(w.now(), c.Fields, map[string]string{
		"cnpj":         c.CNPJ,
		"nome":         c.Name,
		"data_inicial": g.Start.Format(dates.Compact),
		"data_final":   g.End.Format(dates.Compact),
		"tipo":         string(t),
	})
	dest := files.Render(w.Destination, vars)
	res, err := w.Mover.Move(dest)
	if err != nil {
		log.Error("move files", zap.String("dest", dest), zap.Error(err))
		return
	}
	for _, f := range res.Failed {
		log.Error("move file", zap.String("file", f.File), zap.Error(f.Err))
	}
	log.Info("files moved", zap.String("dest", dest), zap.Int("moved", len(res.Moved)), zap.Int("failed", len(res.Failed)))
}
