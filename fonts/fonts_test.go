package fonts_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/boleto/fonts"
)

func TestLoad(t *testing.T) {
	for _, name := range fonts.Names() {
		data, err := fonts.Load("embed:" + name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
	plain, err := fonts.Load("sans")
	require.NoError(t, err)
	assert.NotEmpty(t, plain)

	_, err = fonts.Load("embed:Inter")
	assert.Error(t, err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"mono", "sans", "sans-bold"}, fonts.Names())
}
