package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMPD = `<?xml version="1.0" encoding="utf-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" profiles="urn:mpeg:dash:profile:isoff-live:2011" type="static" mediaPresentationDuration="PT12.0S" minBufferTime="PT10.0S">
  <Period id="0" start="PT0.0S">
    <AdaptationSet id="0" contentType="video" segmentAlignment="true" bitstreamSwitching="true">
      <Representation id="0" mimeType="video/mp4" codecs="avc1.64001e" bandwidth="512000" width="640" height="360" frameRate="30/1">
        <SegmentTemplate timescale="15360" initialization="init_v1_$RepresentationID$.mp4" media="chunk_v1_$Bandwidth$_$Number$.m4s" startNumber="1">
          <SegmentTimeline><S t="0" d="153600" /></SegmentTimeline>
        </SegmentTemplate>
      </Representation>
      <Representation id="1" mimeType="video/mp4" codecs="avc1.64001f" bandwidth="768000" width="960" height="540" frameRate="30/1">
        <SegmentTemplate timescale="15360" initialization="init_v1_$RepresentationID$.mp4" media="chunk_v1_$Bandwidth$_$Number$.m4s" startNumber="1">
          <SegmentTimeline><S t="0" d="153600" /></SegmentTimeline>
        </SegmentTemplate>
      </Representation>
      <Representation id="2" mimeType="video/mp4" codecs="avc1.64001f" bandwidth="1024000" width="1280" height="720" frameRate="30/1">
        <SegmentTemplate timescale="15360" initialization="init_v1_$RepresentationID$.mp4" media="chunk_v1_$Bandwidth$_$Number$.m4s" startNumber="1">
          <SegmentTimeline><S t="0" d="153600" /></SegmentTimeline>
        </SegmentTemplate>
      </Representation>
    </AdaptationSet>
  </Period>
</MPD>
`

func writeManifest(t *testing.T, root, id string) {
	t.Helper()
	dir := filepath.Join(root, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".mpd"), []byte(testMPD), 0o644))
}

func TestLadder(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "v1")

	r := NewReader(root)
	ladder, err := r.Ladder(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, []Representation{
		{Height: 360, Width: 640, Bandwidth: 512000},
		{Height: 540, Width: 960, Bandwidth: 768000},
		{Height: 720, Width: 1280, Bandwidth: 1024000},
	}, ladder)

	// cached after the first read
	require.NoError(t, os.RemoveAll(filepath.Join(root, "v1")))
	again, err := r.Ladder(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, ladder, again)
}

func TestLadder_notFound(t *testing.T) {
	r := NewReader(t.TempDir())
	_, err := r.Ladder(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrManifestNotFound)
}

func TestLadder_invalidID(t *testing.T) {
	r := NewReader(t.TempDir())
	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := r.Ladder(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidVideoID, id)
	}
}
