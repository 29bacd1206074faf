package media

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/PMC/internal/domain"
	"github.com/John-Robertt/PMC/internal/media/mediatest"
)

func buildMP4(creation uint32) []byte { return mediatest.MP4Raw(creation) }

func TestVideoCreationTime(t *testing.T) {
	want := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	p := writeFile(t, t.TempDir(), "clip.mp4", buildMP4(uint32(want.Unix()+mp4EpochOffset)))

	got, ok, err := VideoCreationTime(p)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, want.Equal(got), "got=%v want=%v", got, want)
	assert.Equal(t, domain.Date{Year: 2024, Month: time.March, Day: 15}, domain.DateOf(got))
}

func TestVideoCreationTime_ZeroTimestamp(t *testing.T) {
	p := writeFile(t, t.TempDir(), "clip.mp4", buildMP4(0))

	_, ok, err := VideoCreationTime(p)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVideoCreationTime_NoMoov(t *testing.T) {
	var b bytes.Buffer
	_ = binary.Write(&b, binary.BigEndian, uint32(16))
	b.WriteString("free")
	b.Write(make([]byte, 8))
	p := writeFile(t, t.TempDir(), "clip.mp4", b.Bytes())

	_, ok, err := VideoCreationTime(p)
	require.NoError(t, err)
	assert.False(t, ok)
}
