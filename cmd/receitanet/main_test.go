package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"receitanet-engine/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { dataDir = "" })
	err := rootCmd.Execute()
	return out.String(), err
}

func TestInitWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "init", "--data-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, filepath.Join(dir, config.SettingsFile))
	assert.FileExists(t, filepath.Join(dir, config.SettingsFile))
	assert.FileExists(t, filepath.Join(dir, config.ParamsFile))
}

func TestCheckReportsProblems(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empresas.csv"),
		[]byte("cnpj;nome\n12.345.678/0001-90;Acme\n"), 0o644))
	s := config.DefaultSettings()
	s.Certificado = "cert"
	s.Empresas = "empresas.csv"
	s.Arquivos.Caminho = filepath.Join(dir, "out", "{{cnpj}}")
	require.NoError(t, config.SaveAtomic(filepath.Join(dir, config.SettingsFile), s))

	out, err := execute(t, "check", "--data-dir", dir)

	require.Error(t, err)
	assert.Contains(t, out, "companies: 1 (1 selected")
	assert.Contains(t, out, "missing image: "+filepath.Join(dir, "images", "botoes", "icon.png"))
}

func TestHistoryOnEmptyStore(t *testing.T) {
	out, err := execute(t, "history", "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "RUN")
}
