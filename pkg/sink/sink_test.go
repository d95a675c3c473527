package sink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

type recordingSink struct {
	writes    int
	write_err error
	close_err error
	closed    bool
}

func (r *recordingSink) Write(gocv.Mat) error {
	if r.write_err != nil {
		return r.write_err
	}
	r.writes++
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.close_err
}

func TestMultiWrite(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	a, b := &recordingSink{}, &recordingSink{}
	m := Multi{a, b}
	for range 3 {
		assert.NoError(t, m.Write(img))
	}
	assert.Equal(t, 3, a.writes)
	assert.Equal(t, 3, b.writes)
}

func TestMultiStopsOnFailure(t *testing.T) {
	img := gocv.NewMat()
	defer img.Close()

	failing := &recordingSink{write_err: ERR_SINK_WRITE}
	after := &recordingSink{}
	err := Multi{failing, after}.Write(img)
	assert.ErrorIs(t, err, ERR_SINK_WRITE)
	assert.Zero(t, after.writes)
}

func TestMultiClosesAll(t *testing.T) {
	first := errors.New("first")
	a := &recordingSink{close_err: first}
	b := &recordingSink{}
	err := Multi{a, b}.Close()
	assert.ErrorIs(t, err, first)
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestAVISink(t *testing.T) {
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 200, 30, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer img.Close()

	path := t.TempDir() + "/out.avi"
	s, err := NewAVISink(path, 25, 64, 48, 80)
	assert.NoError(t, err)
	for range 5 {
		assert.NoError(t, s.Write(img))
	}
	assert.NoError(t, s.Close())
	assert.FileExists(t, path)
}
