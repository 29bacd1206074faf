package geocode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LookupUnknownIsError(t *testing.T) {
	reg, err := NewRegistry(Builtin(ProviderOptions{})...)
	require.NoError(t, err)

	assert.Equal(t, []string{"google", "nominatim", "photon"}, reg.Names())

	p, err := reg.Lookup(" Nominatim ")
	require.NoError(t, err)
	assert.Equal(t, NameNominatim, p.Name())

	_, err = reg.Lookup("bing")
	var ue *UnknownProviderError
	require.True(t, errors.As(err, &ue), "期望 UnknownProviderError，实际：%v", err)
	assert.Equal(t, "bing", ue.Name)
}

func TestNewRegistry_RejectsDuplicatesAndNil(t *testing.T) {
	_, err := NewRegistry(Nominatim{}, Nominatim{})
	assert.Error(t, err)

	_, err = NewRegistry(nil)
	assert.Error(t, err)
}
