package config

import (
	"errors"
	"fmt"
	"strings"

	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/files"
)

var ErrMissingDestination = errors.New("config: arquivos.caminho is required")

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err joins the validation errors, or returns nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return errors.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

// knownVars are the destination placeholders filled on every move; CSV
// columns add to these.
var knownVars = map[string]bool{
	"cnpj": true, "nome": true, "tipo": true, "data_inicial": true, "data_final": true,
	"_dia": true, "_mes": true, "_ano": true,
}

// NormalizeAndValidate returns a normalized copy of cfg and what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	out := cfg
	var res Validation
	s := &out.Settings

	s.Certificado = strings.TrimSpace(s.Certificado)
	s.Arquivos.Caminho = strings.TrimSpace(s.Arquivos.Caminho)
	s.Locator.Dates = strings.ToLower(strings.TrimSpace(s.Locator.Dates))
	if s.Locator.Dates == "" {
		s.Locator.Dates = "template"
	}
	var exts []string
	for _, e := range s.Arquivos.Extensoes {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	s.Arquivos.Extensoes = exts

	if s.Certificado == "" {
		res.addErr("certificado is required (template name under images/certificados)")
	}
	if s.Arquivos.Caminho == "" {
		res.addErr("%v", ErrMissingDestination)
	} else {
		for _, name := range files.Placeholders(s.Arquivos.Caminho) {
			if !knownVars[name] {
				res.addWarn("arquivos.caminho uses {{%s}}; it must be a column of the companies file", name)
			}
		}
	}
	if strings.TrimSpace(s.Arquivos.Origem) == "" {
		res.addErr("arquivos.origem is required")
	}

	l := s.Locator
	if l.Confidence <= 0 || l.Confidence > 1 {
		res.addErr("locator.confidence must be in (0, 1]")
	}
	if l.FallbackConfidence <= 0 || l.FallbackConfidence > 1 {
		res.addErr("locator.fallback_confidence must be in (0, 1]")
	} else if l.FallbackConfidence > l.Confidence {
		res.addWarn("locator.fallback_confidence (%.2f) is above confidence (%.2f); the fallback never runs", l.FallbackConfidence, l.Confidence)
	}
	if l.PollIntervalMS <= 0 {
		res.addErr("locator.poll_interval_ms must be > 0")
	}
	if l.ColumnHalfWidth <= 0 {
		res.addErr("locator.column_half_width must be > 0")
	}
	if l.RowBand <= 0 {
		res.addErr("locator.row_band must be > 0")
	}
	if l.WideRowBand < l.RowBand {
		res.addErr("locator.wide_row_band must be >= row_band")
	}
	if l.ScrollEvery <= 0 {
		res.addErr("locator.scroll_every must be > 0")
	}
	if l.ScrollPresses < 0 {
		res.addErr("locator.scroll_presses must be >= 0")
	}
	if l.Dates != "template" && l.Dates != "ocr" {
		res.addErr("locator.dates must be \"template\" or \"ocr\", got %q", l.Dates)
	}
	if l.ActionsPerSecond < 0 {
		res.addErr("locator.actions_per_second must be >= 0")
	}

	if s.Retry.MaxRetries < 0 {
		res.addErr("retry.max_retries must be >= 0")
	}
	if s.Retry.DelaySeconds < 0 || s.Retry.SettleSeconds < 0 {
		res.addErr("retry delays must be >= 0")
	}
	if s.Preview {
		res.addWarn("preview is on: the pointer moves but nothing is clicked or typed")
	}

	p := &out.Params
	p.CNPJ = strings.TrimSpace(p.CNPJ)
	enabled := 0
	for _, on := range p.Types {
		if on {
			enabled++
		}
	}
	if enabled == 0 {
		res.addWarn("no document type enabled in params.types; every company will be skipped")
	}
	start, errStart := dates.ParseISO(p.Period.StartDate)
	if errStart != nil {
		res.addErr("period.start_date: %v", errStart)
	}
	end, errEnd := dates.ParseISO(p.Period.EndDate)
	if errEnd != nil {
		res.addErr("period.end_date: %v", errEnd)
	}
	if errStart == nil && errEnd == nil && end.Before(start) {
		res.addErr("period.end_date is before period.start_date")
	}

	return out, res
}
