package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBPMFromRaw(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]interface{}
		want int
	}{
		{name: "id3 string", raw: map[string]interface{}{"TBPM": "128"}, want: 128},
		{name: "id3 fractional string", raw: map[string]interface{}{"TBPM": " 127.6 "}, want: 128},
		{name: "mp4 uint16", raw: map[string]interface{}{"tmpo": uint16(90)}, want: 90},
		{name: "float", raw: map[string]interface{}{"bpm": 140.2}, want: 140},
		{name: "unparseable string", raw: map[string]interface{}{"TBPM": "fast"}, want: 0},
		{name: "absent", raw: map[string]interface{}{"TIT2": "A Song"}, want: 0},
		{name: "first matching key wins", raw: map[string]interface{}{"TBPM": "100", "tmpo": uint16(90)}, want: 100},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, bpmFromRaw(tc.raw))
		})
	}
}

func TestNameFromPath(t *testing.T) {
	assert.Equal(t, "track", nameFromPath("/music/artist/track.mp3"))
	assert.Equal(t, "no extension", nameFromPath("/music/no extension"))
	assert.Equal(t, "dotted.name", nameFromPath("/music/dotted.name.flac"))
}
