package synapse

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayload(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tracked := []object.Tracked{
		{
			Detection: object.Detection{Box: geom.NewBox(1, 2, 3, 4), Class: 0, Confidence: 0.5},
			ID:        7,
			State:     object.Confirmed,
		},
		{
			Detection: object.Detection{Box: geom.NewBox(5, 6, 7, 8), Class: 2, Confidence: 0.25},
			ID:        9,
			State:     object.Lost,
			Predicted: true,
		},
	}
	data, err := NewTracksCommand("run", 42, ts, tracked).ToPayload()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "run", raw["sender"])
	assert.Equal(t, "tracks", raw["type"])

	message := raw["message"].(map[string]any)
	assert.Equal(t, float64(42), message["frame"])
	assert.Equal(t, "2024-05-01T12:00:00Z", message["timestamp"])

	tracks := message["tracks"].([]any)
	require.Len(t, tracks, 2)
	first := tracks[0].(map[string]any)
	assert.Equal(t, "confirmed", first["state"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0}, first["box"])
	assert.NotContains(t, first, "predicted")
	assert.Equal(t, true, tracks[1].(map[string]any)["predicted"])
}

func TestEmptyTracks(t *testing.T) {
	data, err := NewTracksCommand("run", 1, time.Time{}, nil).ToPayload()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tracks":[]`)
}
