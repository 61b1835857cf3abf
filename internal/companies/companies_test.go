package companies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

const sample = "\"cnpj\";\"nome\";\"ie\"\n" +
	"\"11.222.333/0001-81\";\"Padaria São João\";\"123\"\n" +
	";;\n" +
	"22333444000190;Mercado Azul\n"

func TestParseUTF8(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	assert.Equal(t, "utf-8", f.Encoding)
	assert.Equal(t, []string{"cnpj", "nome", "ie"}, f.Columns)
	require.Len(t, f.Companies, 2)

	c := f.Companies[0]
	assert.Equal(t, "11.222.333/0001-81", c.CNPJ)
	assert.Equal(t, "11222333000181", c.ID())
	assert.Equal(t, "Padaria São João", c.Name)
	assert.Equal(t, "123", c.Fields["ie"])

	assert.Equal(t, "", f.Companies[1].Fields["ie"], "short rows are padded")
}

func TestParseLatin1Fallback(t *testing.T) {
	latin, err := charmap.ISO8859_1.NewEncoder().String(sample)
	require.NoError(t, err)

	f, err := Parse([]byte(latin))
	require.NoError(t, err)
	assert.Equal(t, "iso-8859-1", f.Encoding)
	assert.Equal(t, "Padaria São João", f.Companies[0].Name)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("cnpj;nome\n"))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = Parse([]byte("id;nome\n1;x\n"))
	assert.ErrorIs(t, err, ErrMissingCNPJ)
}

func TestReadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "empresas.csv")
	require.NoError(t, os.WriteFile(p, []byte("\xef\xbb\xbf"+sample), 0o644))

	f, err := ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "cnpj", f.Columns[0], "byte order mark is dropped")

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	f, err := Parse([]byte(sample))
	require.NoError(t, err)

	got := Filter(f.Companies, "11222333000181")
	require.Len(t, got, 1)
	assert.Equal(t, "Padaria São João", got[0].Name)

	assert.Len(t, Filter(f.Companies, "11.222.333/0001-81"), 1)
	assert.Len(t, Filter(f.Companies, ""), 2)
	assert.Len(t, Filter(f.Companies, "99999999000199"), 2, "no match keeps everyone")
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Acme - CNPJ: 1", Company{CNPJ: "1", Name: "Acme"}.Label())
	assert.Equal(t, "1", Company{CNPJ: "1"}.Label())
}
