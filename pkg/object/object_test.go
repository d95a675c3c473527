package object

import (
	"errors"
	"math"
	"testing"

	"github.com/Robogera/crowd/pkg/geom"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		det   Detection
		valid bool
	}{
		{"ok", Detection{Box: geom.NewBox(0, 0, 10, 10), Confidence: 0.5}, true},
		{"edges", Detection{Box: geom.NewBox(0, 0, 1, 1), Confidence: 1}, true},
		{"zero confidence", Detection{Box: geom.NewBox(0, 0, 1, 1), Confidence: 0}, true},
		{"negative width", Detection{Box: geom.NewBox(10, 0, 0, 10), Confidence: 0.5}, false},
		{"zero height", Detection{Box: geom.NewBox(0, 5, 10, 5), Confidence: 0.5}, false},
		{"confidence above one", Detection{Box: geom.NewBox(0, 0, 10, 10), Confidence: 1.2}, false},
		{"negative confidence", Detection{Box: geom.NewBox(0, 0, 10, 10), Confidence: -0.1}, false},
		{"nan confidence", Detection{Box: geom.NewBox(0, 0, 10, 10), Confidence: math.NaN()}, false},
		{"inf box", Detection{Box: geom.NewBox(0, 0, math.Inf(1), 10), Confidence: 0.5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.det.Validate()
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if !tt.valid && !errors.Is(err, ERR_INVALID_DETECTION) {
				t.Fatalf("expected ERR_INVALID_DETECTION, got %v", err)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		Tentative: "tentative",
		Confirmed: "confirmed",
		Lost:      "lost",
		Removed:   "removed",
		State(9):  "state(9)",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d: got %q, want %q", state, got, want)
		}
	}
}
