package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestPINRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := PIN("empresa_a1")
	assert.ErrorIs(t, err, ErrNoPIN)

	require.NoError(t, SetPIN("empresa_a1", "1234"))
	pin, err := PIN("empresa_a1")
	require.NoError(t, err)
	assert.Equal(t, "1234", pin)

	require.NoError(t, DeletePIN("empresa_a1"))
	assert.ErrorIs(t, DeletePIN("empresa_a1"), ErrNoPIN)
}

func TestPINValidation(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetPIN(" ", "1"))
	assert.Error(t, SetPIN("cert", ""))
	_, err := PIN("")
	assert.Error(t, err)
	assert.Equal(t, "receitanet:cert:cert", Account(" cert "))
}
