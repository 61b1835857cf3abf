package receitanet

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/rpa"
	"receitanet-engine/internal/secrets"
)

// screen shows a fixed set of images at fixed places, whatever the confidence.
type screen struct {
	mu    sync.Mutex
	shown map[string][]rpa.Match
	confs map[string][]float64
}

func (s *screen) LocateAll(_ context.Context, path string, conf float64) ([]rpa.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confs[path] = append(s.confs[path], conf)
	return append([]rpa.Match(nil), s.shown[path]...), nil
}

// input logs every action as one line, in order.
type input struct {
	log []string
}

func (in *input) Move(p image.Point) error {
	in.log = append(in.log, fmt.Sprintf("move %d,%d", p.X, p.Y))
	return nil
}

func (in *input) Click(p image.Point) error {
	in.log = append(in.log, fmt.Sprintf("click %d,%d", p.X, p.Y))
	return nil
}

func (in *input) DoubleClick(p image.Point, _ time.Duration) error {
	in.log = append(in.log, fmt.Sprintf("double %d,%d", p.X, p.Y))
	return nil
}

func (in *input) Type(text string, _ time.Duration) error {
	in.log = append(in.log, "type "+text)
	return nil
}

func (in *input) Press(key string) error {
	in.log = append(in.log, "press "+key)
	return nil
}

func (in *input) count(line string) int {
	n := 0
	for _, l := range in.log {
		if l == line {
			n++
		}
	}
	return n
}

func (in *input) index(line string) int {
	for i, l := range in.log {
		if l == line {
			return i
		}
	}
	return -1
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

type ocr map[string][]rpa.Match

func (o ocr) LocateText(_ context.Context, text string) ([]rpa.Match, error) {
	return o[text], nil
}

type rig struct {
	screen *screen
	input  *input
	sess   *rpa.Session
	driver *Driver
}

func box(x, y int) []rpa.Match {
	return []rpa.Match{{Rect: image.Rect(x-10, y-5, x+10, y+5)}}
}

var year24 = []time.Time{
	time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
}

func newRig(t *testing.T, o DriverOptions) *rig {
	t.Helper()
	root := t.TempDir()
	imgs := append(RequiredImages(AllTypes, "cert", year24), imgPINInput, imgStartColumnAlt)
	for _, img := range imgs {
		p := filepath.Join(root, filepath.FromSlash(img.Alias), img.File)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	}
	cfg := rpa.DefaultConfig()
	cfg.ImagesDir = root
	cfg.ActionsPerSecond = 0

	r := &rig{
		screen: &screen{shown: map[string][]rpa.Match{}, confs: map[string][]float64{}},
		input:  &input{},
	}
	r.sess = rpa.NewSession(cfg, r.screen, r.input, rpa.WithClock(&clock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}))
	if o.Certificate == "" {
		o.Certificate = "cert"
	}
	r.driver = NewDriver(r.sess, o)
	return r
}

func (r *rig) show(img rpa.Image, x, y int) {
	r.screen.shown[r.sess.Path(img)] = box(x, y)
}

func (r *rig) showMany(img rpa.Image, ms []rpa.Match) {
	r.screen.shown[r.sess.Path(img)] = ms
}

func TestOpenDoubleClicksIcon(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgIcon, 40, 60)

	assert.Equal(t, rpa.Success, r.driver.Open(context.Background()))
	assert.Equal(t, []string{"double 40,60"}, r.input.log)
}

func TestOpenWithoutIcon(t *testing.T) {
	r := newRig(t, DriverOptions{})
	assert.Equal(t, rpa.ImageNotFound, r.driver.Open(context.Background()))
	assert.Empty(t, r.input.log)
}

func TestCloseTriesEachButton(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgCloseAlt, 900, 10)

	r.driver.Close(context.Background())

	assert.Equal(t, []string{"click 900,10"}, r.input.log)
	assert.Equal(t, 0.8, r.screen.confs[r.sess.Path(imgQuit)][0])
	assert.Equal(t, 0.9, r.sess.Confidence(), "confidence restored")
}

func TestCloseAfterCancelDoesNothing(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgQuit, 900, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.driver.Close(ctx)
	assert.Empty(t, r.input.log)
}

func TestChangeProfileFirstAttempt(t *testing.T) {
	r := newRig(t, DriverOptions{PIN: func() (string, error) { return "", secrets.ErrNoPIN }})
	r.show(imgEnter, 500, 500)
	r.show(certificateImage("cert"), 300, 200)
	r.show(imgComboTaxpayer, 300, 250)
	r.show(imgOptionProxy, 300, 270)
	r.show(imgComboDocKind, 300, 300)
	r.show(imgOptionCNPJ, 300, 320)
	r.show(imgCNPJInput, 400, 300)

	res := r.driver.ChangeProfile(context.Background(), "12345678000190", true)

	require.Equal(t, rpa.Success, res)
	assert.Equal(t, []string{
		"click 300,200",
		"click 300,250", "click 300,270",
		"click 300,300", "click 300,320",
		"click 400,300", "type 12345678000190",
		"click 500,500",
	}, r.input.log)
}

func TestChangeProfileRetryPathAndPIN(t *testing.T) {
	r := newRig(t, DriverOptions{PIN: func() (string, error) { return "4321", nil }})
	r.show(imgProfileIcon, 20, 20)
	r.show(certificateImage("cert"), 300, 200)
	r.show(imgPINInput, 310, 400)
	r.show(imgComboProxy, 300, 250)
	r.show(imgOptionFederal, 300, 280)
	r.show(imgComboFederal, 300, 260)
	r.show(imgOptionProxy, 300, 290)
	r.show(imgComboDocKind, 300, 300)
	r.show(imgOptionCNPJ, 300, 320)
	r.show(imgCNPJInput, 400, 300)
	r.show(imgSwitchProfile, 600, 500)

	res := r.driver.ChangeProfile(context.Background(), "1", false)

	require.Equal(t, rpa.Success, res)
	assert.Equal(t, []string{
		"double 20,20",
		"click 300,200",
		"click 310,400", "type 4321", "press enter",
		"click 300,250", "double 300,280",
		"click 300,260", "click 300,290",
		"click 300,300", "click 300,320",
		"click 400,300", "type 1",
		"click 600,500",
	}, r.input.log)
}

func TestChangeProfileWithoutConfirmButton(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgProfileIcon, 20, 20)
	r.show(certificateImage("cert"), 300, 200)
	r.show(imgComboTaxpayer, 300, 250)
	r.show(imgOptionProxy, 300, 270)
	r.show(imgComboDocKind, 300, 300)
	r.show(imgOptionCNPJ, 300, 320)
	r.show(imgCNPJInput, 400, 300)

	assert.Equal(t, rpa.ImageNotFound, r.driver.ChangeProfile(context.Background(), "1", true))
}

func (r *rig) showSearchForm() {
	r.show(imgMaximize, 990, 5)
	r.show(imgSearchIcon, 50, 100)
	r.show(imgComboSystem, 200, 100)
	for _, t := range AllTypes {
		r.show(t.systemOption(), 200, 120)
	}
	r.show(imgComboFile, 200, 140)
	r.show(imgOptionBookkeep, 200, 160)
	r.show(imgOptionFiscalFile, 200, 160)
	r.show(imgOptionLedgerFile, 200, 160)
	r.show(imgComboQuery, 200, 180)
	r.show(imgOptionPeriod, 200, 200)
	r.show(imgCheckbox, 150, 220)
	r.show(imgSearch, 300, 240)
}

func TestSearchContribuicoes(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showSearchForm()
	g := dates.Group{Start: year24[0], End: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)}

	sr := r.driver.Search(context.Background(), SpedContribuicoes, g, true)

	assert.Equal(t, SearchResult{Result: rpa.Success}, sr)
	assert.Equal(t, []string{
		"double 990,5",
		"double 50,100",
		"click 200,100", "click 200,120",
		"click 200,140", "click 200,160",
		"click 200,180", "click 200,200",
		"type 01/01/2024", "press tab", "type 31/03/2024", "press enter",
		"click 300,240",
	}, r.input.log)
}

func TestSearchFiscalTypesCompactDates(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showSearchForm()
	g := dates.Group{Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}

	sr := r.driver.Search(context.Background(), SpedFiscal, g, false)

	require.Equal(t, rpa.Success, sr.Result)
	assert.Equal(t, []string{
		"double 50,100",
		"click 200,100", "click 200,120",
		"click 200,140", "click 200,160",
		"click 150,220", "press tab", "press tab",
		"type 01012023", "press tab", "type 01062024", "press tab", "press space",
		"click 300,240",
	}, r.input.log)
}

func TestSearchEmptyResultDismissesModal(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showSearchForm()
	r.show(imgNoFile, 500, 400)
	r.show(imgOK, 520, 430)

	sr := r.driver.Search(context.Background(), SpedContabil, dates.Group{Start: year24[0], End: year24[2]}, false)

	assert.Equal(t, SearchResult{Result: rpa.Success, Empty: MsgNoFile}, sr)
	n := len(r.input.log)
	assert.Equal(t, []string{"double 520,430", "press enter"}, r.input.log[n-2:])
}

func TestSearchStopsAtMissingStep(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgSearchIcon, 50, 100)

	sr := r.driver.Search(context.Background(), SpedECF, dates.Group{Start: year24[0], End: year24[2]}, false)

	assert.Equal(t, rpa.ImageNotFound, sr.Result)
	assert.Equal(t, -1, r.input.index("click 300,240"), "search button not clicked")
}

func TestSearchUnknownType(t *testing.T) {
	r := newRig(t, DriverOptions{})
	sr := r.driver.Search(context.Background(), DocType("nfe"), dates.Group{}, false)
	assert.Equal(t, rpa.ImageNotFound, sr.Result)
}

func (r *rig) showTable() {
	r.show(imgStartColumn, 200, 100)
	r.show(imgSentColumn, 320, 100)
	r.show(imgRowSelected, 20, 150)
	r.show(imgRequest, 700, 600)
	r.show(imgRequested, 400, 300)
}

func TestSelectDatesWalksRowsAndScrolls(t *testing.T) {
	r := newRig(t, DriverOptions{ScrollEvery: 2, ScrollPresses: 3})
	r.showTable()
	// every month also shows up in another column, which must be ignored
	r.showMany(rowImage(year24[0]), []rpa.Match{box(200, 150)[0], box(320, 140)[0]})
	r.show(rowImage(year24[1]), 201, 180)
	r.show(rowImage(year24[2]), 199, 210)

	err := r.driver.SelectDates(context.Background(), SpedECF, dates.Group{Months: year24})

	require.NoError(t, err)
	for _, line := range []string{"click 200,150", "click 201,180", "click 199,210"} {
		assert.Equal(t, 1, r.input.count(line), line)
	}
	assert.Equal(t, -1, r.input.index("click 320,140"))
	assert.Equal(t, 3, r.input.count("press down"))
	assert.Less(t, r.input.index("press down"), r.input.index("click 199,210"))
	assert.Less(t, r.input.index("click 199,210"), r.input.index("click 700,600"))
	assert.Equal(t, "press enter", r.input.log[len(r.input.log)-1])
}

func TestSelectDatesSkipsMissingMonths(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showTable()
	r.show(rowImage(year24[2]), 200, 150)

	require.NoError(t, r.driver.SelectDates(context.Background(), SpedContabil, dates.Group{Months: year24}))
	assert.Equal(t, 1, r.input.count("click 200,150"))
}

func TestSelectDatesNoRows(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showTable()

	err := r.driver.SelectDates(context.Background(), SpedContribuicoes, dates.Group{Months: year24})

	assert.ErrorIs(t, err, ErrNoFiles)
	assert.Equal(t, -1, r.input.index("click 700,600"), "nothing requested")
}

func TestSelectDatesByOCR(t *testing.T) {
	text := ocr{"01/02/2024": box(205, 170)}
	r := newRig(t, DriverOptions{Text: text})
	r.showTable()

	err := r.driver.SelectDates(context.Background(), SpedECF, dates.Group{Months: year24[1:2]})

	require.NoError(t, err)
	assert.Equal(t, 1, r.input.count("click 205,170"))
}

func TestSelectDatesSelectAllForFiscal(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.showTable()
	r.show(imgSelectAll, 15, 120)

	require.NoError(t, r.driver.SelectDates(context.Background(), SpedFiscal, dates.Group{}))
	assert.Equal(t, []string{"click 15,120", "click 700,600", "press enter"}, r.input.log)
}

func TestSelectDatesUnconfirmedRequest(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgSelectAll, 15, 120)
	r.show(imgRequest, 700, 600)

	err := r.driver.SelectDates(context.Background(), SpedFiscal, dates.Group{})

	require.Error(t, err)
	assert.ErrorIs(t, err, rpa.ErrImageNotFound)
	assert.True(t, strings.Contains(err.Error(), "request files"))
}

func TestDownload(t *testing.T) {
	r := newRig(t, DriverOptions{})
	r.show(imgTracking, 100, 30)
	r.show(imgLastRequest, 100, 200)
	r.show(imgSelectAll, 15, 180)
	r.show(imgDownload, 800, 30)

	assert.Equal(t, rpa.ImageNotFound, r.driver.Download(context.Background()), "queue never shows")

	r.show(imgDownloadQueue, 400, 400)
	assert.Equal(t, rpa.Success, r.driver.Download(context.Background()))
	assert.Equal(t, 2, r.input.count("click 800,30"))
}
