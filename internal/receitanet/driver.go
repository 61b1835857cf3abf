// Package receitanet drives the ReceitanetBX screens: login profile, the
// per-type searches, row selection and the download queue.
package receitanet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/rpa"
	"receitanet-engine/internal/secrets"
)

// ErrNoFiles means none of the requested months could be selected in the
// result table.
var ErrNoFiles = errors.New("receitanet: arquivo não encontrado")

// Messages shown by the app when a search has no result.
const (
	MsgNoResults = "Nenhum arquivo foi encontrado para o critério de pesquisa solicitado."
	MsgNoFile    = "Nenhum arquivo encontrado correspondente a busca."
)

// Timings are the deliberate waits of the driver.
type Timings struct {
	Open         time.Duration
	Profile      time.Duration
	PIN          time.Duration
	SearchSettle time.Duration
	Confirm      time.Duration
	Download     time.Duration
	CloseDelay   time.Duration
	Row          time.Duration
	// AfterRows lets the app register the row selection before requesting.
	AfterRows time.Duration
	// CloseConfidence is used for the exit buttons, which render with
	// different themes.
	CloseConfidence float64
}

func DefaultTimings() Timings {
	return Timings{
		Open:            10 * time.Second,
		Profile:         5 * time.Second,
		PIN:             5 * time.Second,
		SearchSettle:    3 * time.Second,
		Confirm:         30 * time.Second,
		Download:        5 * time.Minute,
		CloseDelay:      5 * time.Second,
		Row:             time.Second,
		AfterRows:       time.Minute,
		CloseConfidence: 0.8,
	}
}

type DriverOptions struct {
	// Certificate is the template name under certificados/, without ".png".
	Certificate string
	// PIN returns the certificate PIN; secrets.ErrNoPIN skips the PIN prompt.
	PIN func() (string, error)
	// Text switches row lookup from templates to OCR when set.
	Text rpa.TextLocator

	Column   int
	Band     int
	WideBand int
	// ScrollEvery clicks, the table is scrolled ScrollPresses rows down and
	// the walk restarts from the top.
	ScrollEvery   int
	ScrollPresses int

	Timings Timings
	Log     *zap.Logger
}

// Driver implements App on a live session.
type Driver struct {
	s    *rpa.Session
	walk *rpa.TableWalk
	o    DriverOptions
	t    Timings
	log  *zap.Logger
}

func NewDriver(s *rpa.Session, o DriverOptions) *Driver {
	walk := rpa.NewTableWalk(imgStartColumn, imgStartColumnAlt)
	if o.Column > 0 {
		walk.Column = o.Column
	}
	if o.Band > 0 {
		walk.Band = o.Band
	}
	if o.WideBand > 0 {
		walk.WideBand = o.WideBand
	}
	if o.Timings == (Timings{}) {
		o.Timings = DefaultTimings()
	}
	log := o.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Driver{s: s, walk: walk, o: o, t: o.Timings, log: log.Named("receitanet")}
}

// steps runs fns in order and stops at the first that does not succeed.
func steps(fns ...func() rpa.Result) rpa.Result {
	for _, fn := range fns {
		if r := fn(); r != rpa.Success {
			return r
		}
	}
	return rpa.Success
}

func (d *Driver) pause(ctx context.Context, dur time.Duration) rpa.Result {
	if err := d.s.Sleep(ctx, dur); err != nil {
		return rpa.ClickFailed
	}
	return rpa.Success
}

func (d *Driver) click(ctx context.Context, img rpa.Image) func() rpa.Result {
	return func() rpa.Result { return d.s.Click(ctx, img) }
}

func (d *Driver) double(ctx context.Context, img rpa.Image) func() rpa.Result {
	return func() rpa.Result { return d.s.DoubleClick(ctx, img) }
}

func (d *Driver) sel(ctx context.Context, combo, option rpa.Image) func() rpa.Result {
	return func() rpa.Result { return d.s.SelectOption(ctx, combo, option, 2) }
}

func (d *Driver) typ(ctx context.Context, text string) func() rpa.Result {
	return func() rpa.Result { return d.s.Type(ctx, text) }
}

func (d *Driver) press(ctx context.Context, key string, times int) func() rpa.Result {
	return func() rpa.Result { return d.s.Press(ctx, key, times) }
}

func (d *Driver) wait(ctx context.Context, dur time.Duration) func() rpa.Result {
	return func() rpa.Result { return d.pause(ctx, dur) }
}

// Open waits for the desktop icon and starts the app.
func (d *Driver) Open(ctx context.Context) rpa.Result {
	d.log.Info("opening ReceitanetBX")
	return steps(
		func() rpa.Result { return d.s.WaitFor(ctx, imgIcon, d.t.Open) },
		d.double(ctx, imgIcon),
	)
}

// Close tries each exit button quietly. It gives up without clicking when
// ctx is already done.
func (d *Driver) Close(ctx context.Context) {
	if err := d.s.Sleep(ctx, d.t.CloseDelay); err != nil {
		d.log.Warn("close skipped", zap.Error(err))
		return
	}
	restore := d.s.SetConfidence(d.t.CloseConfidence)
	defer restore()

	for _, img := range []rpa.Image{imgQuit, imgClose, imgCloseAlt} {
		if d.s.Click(ctx, img, rpa.Quiet()) == rpa.Success {
			d.log.Info("ReceitanetBX closed", zap.Stringer("image", img))
			return
		}
	}
	d.log.Warn("could not close ReceitanetBX")
}

// ChangeProfile logs in with the certificate as proxy for cnpj. The first
// attempt starts from the taxpayer profile; retries find the app on the
// Receita Federal profile and switch back through it.
func (d *Driver) ChangeProfile(ctx context.Context, cnpj string, first bool) rpa.Result {
	log := d.log.With(zap.String("cnpj", cnpj))
	if d.s.WaitFor(ctx, imgEnter, d.t.Profile) != rpa.Success {
		if r := d.s.DoubleClick(ctx, imgProfileIcon); r != rpa.Success {
			return r
		}
	}
	if r := d.s.Click(ctx, certificateImage(d.o.Certificate)); r != rpa.Success {
		log.Warn("certificate not found", zap.String("certificate", d.o.Certificate))
		return r
	}
	d.enterPIN(ctx)

	var profile func() rpa.Result
	if first {
		profile = d.sel(ctx, imgComboTaxpayer, imgOptionProxy)
	} else {
		profile = func() rpa.Result {
			return steps(
				d.click(ctx, imgComboProxy),
				d.double(ctx, imgOptionFederal),
				d.wait(ctx, time.Second),
				d.sel(ctx, imgComboFederal, imgOptionProxy),
			)
		}
	}
	r := steps(
		profile,
		d.sel(ctx, imgComboDocKind, imgOptionCNPJ),
		d.click(ctx, imgCNPJInput),
		d.typ(ctx, cnpj),
	)
	if r != rpa.Success {
		return r
	}

	for _, img := range []rpa.Image{imgEnter, imgSwitchProfile} {
		if d.s.WaitFor(ctx, img, d.t.Profile) == rpa.Success {
			return d.s.Click(ctx, img)
		}
	}
	log.Warn("no button to confirm the profile")
	return rpa.ImageNotFound
}

func (d *Driver) enterPIN(ctx context.Context) {
	if d.o.PIN == nil || !d.s.Exists(imgPINInput) {
		return
	}
	pin, err := d.o.PIN()
	if err != nil {
		if !errors.Is(err, secrets.ErrNoPIN) {
			d.log.Warn("certificate PIN unavailable", zap.Error(err))
		}
		return
	}
	if d.s.WaitFor(ctx, imgPINInput, d.t.PIN) != rpa.Success {
		return
	}
	steps(d.click(ctx, imgPINInput), d.typ(ctx, pin), d.press(ctx, "enter", 1))
}

// SearchResult is what a search left on screen. Empty carries the app's
// message when it reported no result; the modal is already dismissed.
type SearchResult struct {
	Result rpa.Result
	Empty  string
}

// Search fills the search form of t for the group period and runs it.
// first maximizes the window before the first search of a type.
func (d *Driver) Search(ctx context.Context, t DocType, g dates.Group, first bool) SearchResult {
	log := d.log.With(zap.String("tipo", string(t)), zap.Time("start", g.Start), zap.Time("end", g.End))
	if first {
		d.s.DoubleClick(ctx, imgMaximize, rpa.Quiet())
		if r := d.pause(ctx, 2*time.Second); r != rpa.Success {
			return SearchResult{Result: r}
		}
	}

	start, end := g.Start.Format(dates.Slash), g.End.Format(dates.Slash)
	var form []func() rpa.Result
	switch t {
	case SpedContribuicoes, SpedECF:
		form = []func() rpa.Result{
			d.double(ctx, imgSearchIcon),
			d.sel(ctx, imgComboSystem, t.systemOption()),
			d.sel(ctx, imgComboFile, imgOptionBookkeep),
			d.sel(ctx, imgComboQuery, imgOptionPeriod),
			d.typ(ctx, start), d.press(ctx, "tab", 1), d.typ(ctx, end), d.press(ctx, "enter", 1),
		}
	case SpedFiscal:
		form = []func() rpa.Result{
			d.double(ctx, imgSearchIcon),
			d.sel(ctx, imgComboSystem, t.systemOption()),
			d.sel(ctx, imgComboFile, imgOptionFiscalFile),
			d.click(ctx, imgCheckbox),
			d.press(ctx, "tab", 2),
			d.typ(ctx, g.Start.Format(dates.Compact)), d.press(ctx, "tab", 1),
			d.typ(ctx, g.End.Format(dates.Compact)), d.press(ctx, "tab", 1),
			d.press(ctx, "space", 1),
		}
	case SpedContabil:
		form = []func() rpa.Result{
			d.double(ctx, imgSearchIcon),
			d.sel(ctx, imgComboSystem, t.systemOption()),
			d.sel(ctx, imgComboFile, imgOptionLedgerFile),
			d.typ(ctx, start), d.press(ctx, "tab", 1), d.typ(ctx, end), d.press(ctx, "enter", 1),
		}
	default:
		log.Warn("unknown document type")
		return SearchResult{Result: rpa.ImageNotFound}
	}
	form = append(form, d.click(ctx, imgSearch))

	if r := steps(form...); r != rpa.Success {
		log.Warn("search form failed", zap.Stringer("result", r))
		return SearchResult{Result: r}
	}
	if r := d.pause(ctx, d.t.SearchSettle); r != rpa.Success {
		return SearchResult{Result: r}
	}
	if msg, ok := d.dismissEmpty(ctx); ok {
		log.Info("search has no result", zap.String("message", msg))
		return SearchResult{Result: rpa.Success, Empty: msg}
	}
	return SearchResult{Result: rpa.Success}
}

func (d *Driver) dismissEmpty(ctx context.Context) (string, bool) {
	modals := []struct {
		img rpa.Image
		msg string
	}{
		{imgNoResults, MsgNoResults},
		{imgNoFile, MsgNoFile},
	}
	for _, m := range modals {
		if !d.s.Visible(ctx, m.img) {
			continue
		}
		d.pause(ctx, time.Second)
		d.s.DoubleClick(ctx, imgOK, rpa.Quiet())
		d.s.Press(ctx, "enter", 1)
		return m.msg, true
	}
	return "", false
}

// SelectDates marks the rows of the group months, or every row when t is
// requested whole, and submits the request. It returns ErrNoFiles when no
// month row could be clicked.
func (d *Driver) SelectDates(ctx context.Context, t DocType, g dates.Group) error {
	if t.SelectAll() || len(g.Months) == 0 {
		if r := steps(d.click(ctx, imgSelectAll), d.wait(ctx, d.t.Row)); r != rpa.Success {
			return fmt.Errorf("receitanet: select all: %w", r.Err())
		}
	} else {
		n, err := d.clickRows(ctx, g.Months)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %d months requested", ErrNoFiles, len(g.Months))
		}
	}

	r := steps(
		d.click(ctx, imgRequest),
		func() rpa.Result { return d.s.WaitFor(ctx, imgRequested, d.t.Confirm) },
		d.wait(ctx, 2*time.Second),
		d.press(ctx, "enter", 1),
	)
	if r != rpa.Success {
		return fmt.Errorf("receitanet: request files: %w", r.Err())
	}
	return nil
}

func (d *Driver) rowCandidates(month time.Time) rpa.Candidates {
	if d.o.Text != nil {
		return rpa.TextCandidates(d.o.Text, dates.RowText(month))
	}
	return rpa.TemplateCandidates(d.s, rowImage(month))
}

// clickRows walks the result table top to bottom, one month at a time.
func (d *Driver) clickRows(ctx context.Context, months []time.Time) (int, error) {
	d.walk.Reset()
	// Sorting by start date, then by transmission, puts the latest delivery
	// of each month first.
	d.s.Click(ctx, imgStartColumn, rpa.Quiet())
	d.pause(ctx, d.t.Row)
	d.s.Click(ctx, imgSentColumn, rpa.Quiet())
	d.pause(ctx, d.t.Row)

	clicked := 0
	for i, m := range months {
		name := dates.RowText(m)
		r := d.walk.ClickNext(ctx, d.s, name, d.rowCandidates(m))
		if err := ctx.Err(); err != nil {
			return clicked, fmt.Errorf("receitanet: select dates: %w", err)
		}
		if r != rpa.Success {
			d.log.Warn("month row not selected", zap.String("month", name), zap.Stringer("result", r))
			continue
		}
		clicked++
		steps(d.wait(ctx, d.t.Row), d.click(ctx, imgRowSelected), d.wait(ctx, d.t.Row))

		if d.o.ScrollEvery > 0 && clicked%d.o.ScrollEvery == 0 && i < len(months)-1 {
			d.s.Press(ctx, "down", max(d.o.ScrollPresses, 1))
			d.walk.Reset()
		}
	}
	if clicked > 0 {
		d.pause(ctx, d.t.AfterRows)
	}
	d.log.Info("month rows selected", zap.Int("selected", clicked), zap.Int("requested", len(months)))
	return clicked, nil
}

// Download opens the request tracking screen and downloads the latest
// request, waiting for it to reach the download queue.
func (d *Driver) Download(ctx context.Context) rpa.Result {
	return steps(
		d.click(ctx, imgTracking),
		d.click(ctx, imgLastRequest),
		d.wait(ctx, 2*time.Second),
		d.click(ctx, imgSelectAll),
		d.wait(ctx, 3*time.Second),
		d.click(ctx, imgDownload),
		d.wait(ctx, 3*time.Second),
		func() rpa.Result { return d.s.WaitFor(ctx, imgDownloadQueue, d.t.Download) },
	)
}
