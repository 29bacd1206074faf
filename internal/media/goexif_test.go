package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoexifReader_DateAndGPS(t *testing.T) {
	p := writeFile(t, t.TempDir(), "a.jpg", buildTIFF(parisFixture()))

	tags, err := GoexifReader{}.Read(p)
	require.NoError(t, err)
	assert.True(t, tags.HasEXIF)
	assert.True(t, tags.HasGPS)
	assert.Equal(t, "2024:01:02 10:30:00", tags.DateTimeOriginal)
	assert.Equal(t, []float64{48, 51, 24}, tags.Lat)
	assert.Equal(t, []float64{2, 21, 3}, tags.Lon)
	assert.Equal(t, "N", tags.LatRef)
	assert.Equal(t, "E", tags.LonRef)
}

func TestGoexifReader_NoGPS(t *testing.T) {
	fx := parisFixture()
	fx.GPS = false
	p := writeFile(t, t.TempDir(), "a.jpg", buildTIFF(fx))

	tags, err := GoexifReader{}.Read(p)
	require.NoError(t, err)
	assert.True(t, tags.HasEXIF)
	assert.False(t, tags.HasGPS)
	assert.False(t, tags.HasCoords())
}

func TestGoexifReader_MissingLongitude(t *testing.T) {
	fx := parisFixture()
	fx.OmitLon = true
	p := writeFile(t, t.TempDir(), "a.jpg", buildTIFF(fx))

	tags, err := GoexifReader{}.Read(p)
	require.NoError(t, err)
	assert.True(t, tags.HasGPS)
	assert.NotEmpty(t, tags.Lat)
	assert.Empty(t, tags.Lon)
	assert.False(t, tags.HasCoords())
}

func TestGoexifReader_NoEXIF(t *testing.T) {
	p := writeFile(t, t.TempDir(), "plain.jpg", []byte("definitely not a jpeg"))

	tags, err := GoexifReader{}.Read(p)
	require.NoError(t, err)
	assert.False(t, tags.HasEXIF)
}

func TestGoexifReader_MissingFile(t *testing.T) {
	_, err := GoexifReader{}.Read("/nonexistent/pmc/a.jpg")
	assert.Error(t, err)
}
