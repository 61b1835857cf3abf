package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"receitanet-engine/internal/rpa"
)

const (
	SettingsFile = "settings.json"
	ParamsFile   = "params.json"
)

type Files struct {
	// Origem is the folder ReceitanetBX downloads into.
	Origem string `yaml:"origem" json:"origem"`
	// Caminho is the destination template, e.g. "D:/fiscal/{{cnpj}}/{{tipo}}".
	Caminho    string   `yaml:"caminho" json:"caminho"`
	Extensoes  []string `yaml:"extensoes" json:"extensoes"`
	SettleSecs int      `yaml:"settle_seconds" json:"settle_seconds"`
}

type Locator struct {
	Confidence         float64 `yaml:"confidence" json:"confidence"`
	FallbackConfidence float64 `yaml:"fallback_confidence" json:"fallback_confidence"`
	PollIntervalMS     int     `yaml:"poll_interval_ms" json:"poll_interval_ms"`
	ColumnHalfWidth    int     `yaml:"column_half_width" json:"column_half_width"`
	RowBand            int     `yaml:"row_band" json:"row_band"`
	WideRowBand        int     `yaml:"wide_row_band" json:"wide_row_band"`
	ScrollEvery        int     `yaml:"scroll_every" json:"scroll_every"`
	ScrollPresses      int     `yaml:"scroll_presses" json:"scroll_presses"`
	// Dates is "template" or "ocr".
	Dates            string  `yaml:"dates" json:"dates"`
	OCRLanguage      string  `yaml:"ocr_language" json:"ocr_language"`
	ActionsPerSecond float64 `yaml:"actions_per_second" json:"actions_per_second"`
}

type Retry struct {
	MaxRetries    int `yaml:"max_retries" json:"max_retries"`
	DelaySeconds  int `yaml:"delay_seconds" json:"delay_seconds"`
	SettleSeconds int `yaml:"settle_seconds" json:"settle_seconds"`
}

type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type Status struct {
	// Addr enables the local status API when set, e.g. "127.0.0.1:38471".
	Addr string `yaml:"addr" json:"addr"`
}

// Settings is the machine setup: where things are and how to drive the screen.
type Settings struct {
	Certificado string  `yaml:"certificado" json:"certificado"`
	ImagesDir   string  `yaml:"images_dir" json:"images_dir"`
	Empresas    string  `yaml:"empresas" json:"empresas"`
	Arquivos    Files   `yaml:"arquivos" json:"arquivos"`
	Locator     Locator `yaml:"locator" json:"locator"`
	Retry       Retry   `yaml:"retry" json:"retry"`
	Log         Log     `yaml:"log" json:"log"`
	Status      Status  `yaml:"status" json:"status"`
	Preview     bool    `yaml:"preview" json:"preview"`
}

type Period struct {
	StartDate string `yaml:"start_date" json:"start_date"`
	EndDate   string `yaml:"end_date" json:"end_date"`
}

// Params is what to fetch on this run.
type Params struct {
	CNPJ   string          `yaml:"cnpj" json:"cnpj"`
	Types  map[string]bool `yaml:"types" json:"types"`
	Period Period          `yaml:"period" json:"period"`
}

type Config struct {
	DataDir  string
	Settings Settings
	Params   Params
}

// Load reads settings.json and params.json from dataDir. Relative paths in
// the settings are resolved against dataDir.
func Load(dataDir string) (Config, error) {
	cfg := Config{DataDir: dataDir, Settings: DefaultSettings()}
	if err := readInto(filepath.Join(dataDir, SettingsFile), &cfg.Settings); err != nil {
		return cfg, err
	}
	if err := readInto(filepath.Join(dataDir, ParamsFile), &cfg.Params); err != nil {
		return cfg, err
	}
	cfg.Settings.ImagesDir = resolve(dataDir, cfg.Settings.ImagesDir)
	cfg.Settings.Empresas = resolve(dataDir, cfg.Settings.Empresas)
	return cfg, nil
}

// readInto decodes a JSON file over the values already in v. Content that
// is not JSON is read as YAML, so hand-written files may use either.
func readInto(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if json.Valid(b) {
		if err := json.Unmarshal(b, v); err != nil {
			return fmt.Errorf("config: parse %s: %w", path, err)
		}
		return nil
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// DataDir returns RECEITANET_DATA_DIR, or the per-user config folder.
func DataDir() (string, error) {
	if d := os.Getenv("RECEITANET_DATA_DIR"); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: no data dir: %w", err)
	}
	return filepath.Join(base, "receitanet"), nil
}

// RPA maps the locator settings onto a session config.
func (s Settings) RPA() rpa.Config {
	c := rpa.DefaultConfig()
	c.ImagesDir = s.ImagesDir
	c.Preview = s.Preview
	if s.Locator.Confidence > 0 {
		c.Confidence = s.Locator.Confidence
	}
	if s.Locator.FallbackConfidence > 0 {
		c.FallbackConfidence = s.Locator.FallbackConfidence
	}
	if s.Locator.PollIntervalMS > 0 {
		c.PollInterval = time.Duration(s.Locator.PollIntervalMS) * time.Millisecond
	}
	c.ActionsPerSecond = s.Locator.ActionsPerSecond
	return c
}
