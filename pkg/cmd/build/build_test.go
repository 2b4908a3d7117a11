package build

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/splash-track/log"
	"github.com/mpapenbr/splash-track/pkg/track"
)

func TestPrintSummary(t *testing.T) {
	tr, err := track.Build(track.Preset(track.Vertical),
		track.WithLogger(log.New(io.Discard, log.InfoLevel)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printSummary(&buf, tr))
	out := buf.String()
	assert.Contains(t, out, "track:       vertical\n")
	assert.Contains(t, out, "looping:     true\n")
	assert.Contains(t, out, "layers:      2\n")
	assert.Contains(t, out, "checkpoints: 3\n")
}

func TestBuildCmd_dump(t *testing.T) {
	cmd := NewBuildCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--track", "beginner", "--dump", "-"})
	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "track:       beginner")
	idx := bytes.Index(buf.Bytes(), []byte("version:"))
	require.GreaterOrEqual(t, idx, 0)
	d, err := track.Load(bytes.NewReader(buf.Bytes()[idx:]))
	require.NoError(t, err)
	assert.Equal(t, "beginner", d.Name)
}
