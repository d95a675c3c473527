package detect

import (
	"errors"
	"testing"

	"github.com/Robogera/crowd/pkg/config"
	"github.com/Robogera/crowd/pkg/geom"
	"github.com/Robogera/crowd/pkg/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

type fakeDetector struct {
	panics bool
	err    error
	// box returned for every call, in the coordinates of the image it got
	box   geom.Box
	calls int
}

func (f *fakeDetector) Detect(img gocv.Mat) ([]object.Detection, error) {
	f.calls++
	if f.panics {
		panic("cgo went away")
	}
	if f.err != nil {
		return nil, f.err
	}
	return []object.Detection{{Box: f.box, Confidence: 0.9}}, nil
}

func (f *fakeDetector) Close() error { return nil }

func TestGuardRecoversPanic(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	g := &Guard{Detector: &fakeDetector{panics: true}}
	dets, err := g.Detect(img)
	assert.Nil(t, dets)
	assert.ErrorIs(t, err, ERR_DETECTION)
}

func TestGuardWrapsErrors(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	inner := errors.New("inference failed")
	g := &Guard{Detector: &fakeDetector{err: inner}}
	_, err := g.Detect(img)
	assert.ErrorIs(t, err, ERR_DETECTION)
	assert.ErrorIs(t, err, inner)

	g = &Guard{Detector: &fakeDetector{box: geom.NewBox(1, 1, 5, 5)}}
	dets, err := g.Detect(img)
	require.NoError(t, err)
	assert.Len(t, dets, 1)
}

func TestSlicedTranslatesAndMerges(t *testing.T) {
	img := gocv.NewMatWithSize(1080, 1920, gocv.MatTypeCV8UC3)
	defer img.Close()

	// the same spot in every slice, nothing overlaps after translation
	inner := &fakeDetector{box: geom.NewBox(10, 10, 50, 50)}
	s := NewSliced(inner, config.SlicingConfig{Width: 640, Height: 640, Overlap: 0.2, IoUThreshold: 0.5})
	dets, err := s.Detect(img)
	require.NoError(t, err)
	assert.Equal(t, 8, inner.calls)
	require.Len(t, dets, 8)
	assert.Equal(t, geom.NewBox(10, 10, 50, 50), dets[0].Box)
	assert.Equal(t, geom.NewBox(1290, 450, 1330, 490), dets[7].Box)
}

func TestSlicedStopsOnError(t *testing.T) {
	img := gocv.NewMatWithSize(1080, 1920, gocv.MatTypeCV8UC3)
	defer img.Close()

	s := NewSliced(&fakeDetector{err: ERR_DETECTION}, config.SlicingConfig{Width: 640, Height: 640})
	_, err := s.Detect(img)
	assert.ErrorIs(t, err, ERR_DETECTION)
}
