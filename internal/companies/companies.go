// Package companies reads the list of companies to process.
package companies

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var (
	ErrNoRows      = errors.New("companies: file has no data rows")
	ErrMissingCNPJ = errors.New("companies: missing cnpj column")
)

// Company is one CSV row. Fields holds every column, cnpj and nome included.
type Company struct {
	CNPJ   string
	Name   string
	Fields map[string]string
}

// ID is the digits-only CNPJ.
func (c Company) ID() string { return Digits(c.CNPJ) }

func (c Company) Label() string {
	if c.Name == "" {
		return c.CNPJ
	}
	return fmt.Sprintf("%s - CNPJ: %s", c.Name, c.CNPJ)
}

// Digits drops every non-digit rune.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// File is a decoded company list.
type File struct {
	Columns   []string
	Companies []Company
	// Encoding is "utf-8" or "iso-8859-1".
	Encoding string
}

// ReadFile reads a ';'-separated file, falling back to ISO-8859-1 when the
// content is not valid UTF-8.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("companies: read %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*File, error) {
	enc := "utf-8"
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(raw) {
		dec, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("companies: decode iso-8859-1: %w", err)
		}
		raw, enc = dec, "iso-8859-1"
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = ';'
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("companies: header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = clean(h)
	}

	f := &File{Columns: cols, Encoding: enc}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("companies: row: %w", err)
		}
		if blank(rec) {
			continue
		}
		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				fields[c] = clean(rec[i])
			} else {
				fields[c] = ""
			}
		}
		f.Companies = append(f.Companies, Company{
			CNPJ:   fields["cnpj"],
			Name:   fields["nome"],
			Fields: fields,
		})
	}
	if len(f.Companies) == 0 {
		return nil, ErrNoRows
	}
	if !contains(cols, "cnpj") {
		return nil, ErrMissingCNPJ
	}
	return f, nil
}

// Filter keeps the companies whose CNPJ matches cnpj digit for digit. An
// empty filter, or one that matches nothing, keeps every company.
func Filter(list []Company, cnpj string) []Company {
	want := Digits(cnpj)
	if want == "" {
		return list
	}
	var out []Company
	for _, c := range list {
		if c.ID() == want {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return list
	}
	return out
}

func clean(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), `"`))
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
