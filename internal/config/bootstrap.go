package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

func DefaultSettings() Settings {
	home, _ := os.UserHomeDir()
	return Settings{
		ImagesDir: "images",
		Empresas:  "empresas.csv",
		Arquivos: Files{
			Origem:     filepath.Join(home, "Documents", "Arquivos ReceitanetBX"),
			SettleSecs: 10,
		},
		Locator: Locator{
			Confidence:         0.9,
			FallbackConfidence: 0.6,
			PollIntervalMS:     1000,
			ColumnHalfWidth:    47,
			RowBand:            36,
			WideRowBand:        72,
			ScrollEvery:        5,
			ScrollPresses:      5,
			Dates:              "template",
			OCRLanguage:        "por",
			ActionsPerSecond:   10,
		},
		Retry: Retry{MaxRetries: 2, DelaySeconds: 300, SettleSeconds: 5},
		Log:   Log{Level: "info", Format: "console"},
	}
}

func DefaultParams() Params {
	return Params{
		Types: map[string]bool{
			"sped_contribuicoes": true,
			"sped_ecf":           true,
			"sped_fiscal":        false,
			"sped_contabil":      false,
		},
		Period: Period{StartDate: "2024-01-01", EndDate: "2024-12-31"},
	}
}

// EnsureUserConfig writes default settings.json and params.json into dataDir
// when they are missing and returns their paths. Existing files are kept.
func EnsureUserConfig(dataDir string) (settingsPath, paramsPath string, err error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", "", err
	}
	settingsPath = filepath.Join(dataDir, SettingsFile)
	paramsPath = filepath.Join(dataDir, ParamsFile)

	if err := writeIfMissing(settingsPath, DefaultSettings()); err != nil {
		return "", "", err
	}
	if err := writeIfMissing(paramsPath, DefaultParams()); err != nil {
		return "", "", err
	}
	return settingsPath, paramsPath, nil
}

func writeIfMissing(path string, v any) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return SaveAtomic(path, v)
}

func encode(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
