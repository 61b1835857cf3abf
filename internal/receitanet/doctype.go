package receitanet

import (
	"sort"
	"time"

	"receitanet-engine/internal/dates"
	"receitanet-engine/internal/rpa"
)

// DocType is a SPED document family as keyed in params.json.
type DocType string

const (
	SpedContribuicoes DocType = "sped_contribuicoes"
	SpedECF           DocType = "sped_ecf"
	SpedFiscal        DocType = "sped_fiscal"
	SpedContabil      DocType = "sped_contabil"
)

// AllTypes is the processing order.
var AllTypes = []DocType{SpedContribuicoes, SpedECF, SpedFiscal, SpedContabil}

func (t DocType) Known() bool {
	for _, k := range AllTypes {
		if k == t {
			return true
		}
	}
	return false
}

// SelectAll reports whether results are requested with the select-all box
// instead of row by row.
func (t DocType) SelectAll() bool { return t == SpedFiscal }

// Groups splits the period into the searches run for t.
func (t DocType) Groups(start, end, today time.Time) []dates.Group {
	if t.SelectAll() {
		return dates.Whole(start, end, today)
	}
	return dates.Monthly(start, end, today)
}

func (t DocType) systemOption() rpa.Image {
	return rpa.Img("comboboxes/sistema", "opcao_"+string(t)+".png")
}

// EnabledTypes returns the enabled known types in processing order, and the
// enabled keys that name no known type, sorted.
func EnabledTypes(flags map[string]bool) (enabled []DocType, unknown []string) {
	for _, t := range AllTypes {
		if flags[string(t)] {
			enabled = append(enabled, t)
		}
	}
	for k, on := range flags {
		if on && !DocType(k).Known() {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return enabled, unknown
}
