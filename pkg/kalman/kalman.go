package kalman

import (
	"errors"
	"fmt"

	"github.com/Robogera/crowd/pkg/geom"
	"gonum.org/v1/gonum/mat"
)

var (
	ERR_SINGULAR error = errors.New("Innovation covariance is singular")
)

const (
	// state is (cx, cy, w, h, vcx, vcy, vw, vh)
	dim_x = 8
	// measurement is (cx, cy, w, h)
	dim_z = 4

	default_std_position = 1.0 / 20
	default_std_velocity = 1.0 / 160
)

// Constant velocity Kalman filter over bounding boxes.
// Noise is proportional to the box dimensions so large and small
// objects are tracked with the same relative confidence
type Filter struct {
	x            *mat.VecDense
	p            *mat.Dense
	f, h         *mat.Dense
	std_position float64
	std_velocity float64
}

func NewFilter(box geom.Box) *Filter {
	cx, cy, w, h := box.CXCYWH()

	f := identity(dim_x)
	for i := range dim_z {
		f.Set(i, i+dim_z, 1)
	}

	h_mat := mat.NewDense(dim_z, dim_x, nil)
	for i := range dim_z {
		h_mat.Set(i, i, 1)
	}

	kf := &Filter{
		x:            mat.NewVecDense(dim_x, []float64{cx, cy, w, h, 0, 0, 0, 0}),
		f:            f,
		h:            h_mat,
		std_position: default_std_position,
		std_velocity: default_std_velocity,
	}

	sw, sh := kf.scale()
	kf.p = diag(
		2*kf.std_position*sw, 2*kf.std_position*sh,
		2*kf.std_position*sw, 2*kf.std_position*sh,
		10*kf.std_velocity*sw, 10*kf.std_velocity*sh,
		10*kf.std_velocity*sw, 10*kf.std_velocity*sh,
	)
	return kf
}

// Advances the state one frame
func (kf *Filter) Predict() {
	sw, sh := kf.scale()
	q := diag(
		kf.std_position*sw, kf.std_position*sh,
		kf.std_position*sw, kf.std_position*sh,
		kf.std_velocity*sw, kf.std_velocity*sh,
		kf.std_velocity*sw, kf.std_velocity*sh,
	)

	x := mat.NewVecDense(dim_x, nil)
	x.MulVec(kf.f, kf.x)

	var fp, p mat.Dense
	fp.Mul(kf.f, kf.p)
	p.Mul(&fp, kf.f.T())
	p.Add(&p, q)

	kf.x = x
	kf.p = &p
}

// Corrects the state toward the measured box
func (kf *Filter) Update(box geom.Box) error {
	cx, cy, w, h := box.CXCYWH()
	z := mat.NewVecDense(dim_z, []float64{cx, cy, w, h})

	sw, sh := kf.scale()
	r := diag(
		kf.std_position*sw, kf.std_position*sh,
		kf.std_position*sw, kf.std_position*sh,
	)

	// innovation
	hx := mat.NewVecDense(dim_z, nil)
	hx.MulVec(kf.h, kf.x)
	y := mat.NewVecDense(dim_z, nil)
	y.SubVec(z, hx)

	var hp, s mat.Dense
	hp.Mul(kf.h, kf.p)
	s.Mul(&hp, kf.h.T())
	s.Add(&s, r)

	var s_inv mat.Dense
	if err := s_inv.Inverse(&s); err != nil {
		return fmt.Errorf("%w: %w", ERR_SINGULAR, err)
	}

	var pht, gain mat.Dense
	pht.Mul(kf.p, kf.h.T())
	gain.Mul(&pht, &s_inv)

	correction := mat.NewVecDense(dim_x, nil)
	correction.MulVec(&gain, y)
	x := mat.NewVecDense(dim_x, nil)
	x.AddVec(kf.x, correction)

	var kh, ikh, p mat.Dense
	kh.Mul(&gain, kf.h)
	ikh.Sub(identity(dim_x), &kh)
	p.Mul(&ikh, kf.p)

	kf.x = x
	kf.p = &p
	return nil
}

// Stops the size from drifting while no measurements arrive
func (kf *Filter) Freeze() {
	kf.x.SetVec(6, 0)
	kf.x.SetVec(7, 0)
}

// Current estimate. Size is never negative
func (kf *Filter) Box() geom.Box {
	return geom.FromCXCYWH(
		kf.x.AtVec(0), kf.x.AtVec(1),
		kf.x.AtVec(2), kf.x.AtVec(3),
	)
}

// Center velocity in pixels per frame
func (kf *Filter) Velocity() (float64, float64) {
	return kf.x.AtVec(4), kf.x.AtVec(5)
}

func (kf *Filter) State() []float64 {
	return mat.Col(nil, 0, kf.x)
}

func (kf *Filter) scale() (float64, float64) {
	return max(kf.x.AtVec(2), 1), max(kf.x.AtVec(3), 1)
}

func identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

// Diagonal covariance from standard deviations
func diag(std ...float64) *mat.Dense {
	m := mat.NewDense(len(std), len(std), nil)
	for i, v := range std {
		m.Set(i, i, v*v)
	}
	return m
}
