package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/chazu/spiral/pkg/stair"
)

func scenarioA() stair.Spec {
	return stair.Spec{CenterPoleDiameter: 5.62, OverallHeight: 144, OutsideDiameter: 72, TotalRotation: 450, Direction: stair.Clockwise}
}

func landed(t *testing.T, s stair.Spec, index int) stair.Derived {
	t.Helper()
	d, err := stair.Derive(s).WithMidLanding(s, index)
	require.NoError(t, err)
	return d
}

func TestCountInvariant(t *testing.T) {
	a := scenarioA()
	b := stair.Spec{CenterPoleDiameter: 5.62, OverallHeight: 160, OutsideDiameter: 72, TotalRotation: 540, Direction: stair.CounterClockwise}
	short := stair.Spec{CenterPoleDiameter: 3, OverallHeight: 20, OutsideDiameter: 40, TotalRotation: 90}

	tests := []struct {
		name string
		spec stair.Spec
		d    stair.Derived
	}{
		{"no landing", a, stair.Derive(a)},
		{"landing", b, landed(t, b, 9)},
		{"landing in first slot", b, landed(t, b, 0)},
		{"landing in top slot", b, landed(t, b, 20)},
		{"short stair", short, stair.Derive(short)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := Build(tt.spec, tt.d, DefaultOptions())
			require.NoError(t, err)
			require.Len(t, ps, tt.d.NumberOfTreads+1)
			assert.Equal(t, CenterPole, ps[0].Kind)
			assert.Equal(t, TopLandingPanel, ps[len(ps)-1].Kind)
			for i, p := range ps[1:] {
				assert.Equal(t, i, p.Slot)
			}
		})
	}
}

func TestCenterPole(t *testing.T) {
	ps, err := Build(scenarioA(), stair.Derive(scenarioA()), DefaultOptions())
	require.NoError(t, err)

	pole := ps[0]
	assert.Equal(t, PoleSlot, pole.Slot)
	assert.InDelta(t, 2.81, pole.OuterRadius, 1e-12)
	assert.Equal(t, 0.0, pole.Z)
	assert.Equal(t, 144.0, pole.Top())
	assert.Equal(t, TagSteel, pole.Tag)
	assert.Len(t, pole.Outline, PoleSegments)
	assert.Equal(t, "pole", pole.Name())
}

func TestTreadElevations(t *testing.T) {
	s := scenarioA()
	d := stair.Derive(s)
	ps, err := Build(s, d, DefaultOptions())
	require.NoError(t, err)

	for i, p := range ps[1:] {
		want := math.Min(d.RiserHeight*float64(i+1)-Thickness, s.OverallHeight-Thickness)
		assert.InDelta(t, want, p.Z, 1e-9, p.Name())
		assert.Equal(t, Thickness, p.Thickness)
		assert.LessOrEqual(t, p.Top(), s.OverallHeight+1e-9)
	}
	top := ps[len(ps)-1]
	assert.InDelta(t, s.OverallHeight, top.Top(), 1e-9)
}

func TestDirectionSign(t *testing.T) {
	cw := scenarioA()
	ccw := cw
	ccw.Direction = stair.CounterClockwise
	d := stair.Derive(cw)

	pcw, err := Build(cw, d, DefaultOptions())
	require.NoError(t, err)
	pccw, err := Build(ccw, d, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, -d.RotationPerTread, pcw[1].Sweep(), 1e-9)
	assert.InDelta(t, d.RotationPerTread, pccw[1].Sweep(), 1e-9)
	for i := 1; i < len(pcw); i++ {
		assert.InDelta(t, -pcw[i].EndAngle, pccw[i].EndAngle, 1e-9)
	}
}

func TestAnglesAreContinuous(t *testing.T) {
	s := scenarioA()
	ps, err := Build(s, stair.Derive(s), DefaultOptions())
	require.NoError(t, err)

	for i := 2; i < len(ps); i++ {
		assert.InDelta(t, ps[i-1].EndAngle, ps[i].StartAngle, 1e-9, ps[i].Name())
	}
	// The top landing takes a slot, so only n-1 treads rotate.
	top := ps[len(ps)-1]
	assert.InDelta(t, -450.0*18/19, top.StartAngle, 1e-9)
}

func TestMidLanding(t *testing.T) {
	s := stair.Spec{CenterPoleDiameter: 5.62, OverallHeight: 160, OutsideDiameter: 72, TotalRotation: 540, Direction: stair.Clockwise}
	d := landed(t, s, 9)
	ps, err := Build(s, d, DefaultOptions())
	require.NoError(t, err)

	var landings []Placement
	for _, p := range ps {
		if p.Kind == MidLandingSector {
			landings = append(landings, p)
		}
	}
	require.Len(t, landings, 1)
	l := landings[0]
	assert.Equal(t, 9, l.Slot)
	assert.Equal(t, "mid-landing-10", l.Name())
	assert.InDelta(t, -90.0, l.Sweep(), 1e-9)
	assert.Equal(t, TagRed, l.Tag)
	assert.Equal(t, 2.81, l.InnerRadius)
	assert.Equal(t, 36.0, l.OuterRadius)

	// 19 regular treads share 450 degrees, the landing takes 90.
	top := ps[len(ps)-1]
	assert.InDelta(t, -540.0, top.StartAngle, 1e-9)
	assert.Equal(t, "tread-11", ps[11].Name())
}

func TestTopLandingPanel(t *testing.T) {
	s := scenarioA()
	ps, err := Build(s, stair.Derive(s), DefaultOptions())
	require.NoError(t, err)

	top := ps[len(ps)-1]
	assert.Equal(t, TagGreen, top.Tag)
	assert.Equal(t, TopLandingWidth, top.Width)
	assert.Equal(t, 36.0, top.Length)
	require.Len(t, top.Outline, 4)
	assert.Contains(t, top.Outline, r2.Vec{})
	assert.InDelta(t, 36.0*TopLandingWidth, signedArea(top.Outline), 1e-6)

	// One long edge starts at the axis and runs along the landing angle.
	far := polar(36, top.StartAngle)
	var hit bool
	for _, v := range top.Outline {
		if r2.Norm(r2.Sub(v, far)) < 1e-9 {
			hit = true
		}
	}
	assert.True(t, hit)
}

func TestOutlines(t *testing.T) {
	s := scenarioA()
	d := stair.Derive(s)

	for _, segs := range []int{1, 8} {
		ps, err := Build(s, d, Options{ArcSegments: segs})
		require.NoError(t, err)

		tread := ps[1]
		assert.Len(t, tread.Outline, 2*(segs+1))
		for _, v := range tread.Outline {
			r := r2.Norm(v)
			onInner := math.Abs(r-tread.InnerRadius) < 1e-9
			onOuter := math.Abs(r-tread.OuterRadius) < 1e-9
			assert.True(t, onInner || onOuter, "point %v off both radii", v)
		}
		for _, p := range ps {
			assert.Greater(t, signedArea(p.Outline), 0.0, "%s must be counter-clockwise", p.Name())
		}
	}
}

func TestWideSweepGetsArcs(t *testing.T) {
	pts := annulusSector(2, 10, 0, 270, 1)
	assert.Len(t, pts, 2*(3+1))
	assert.Greater(t, signedArea(pts), 0.0)
}

func TestDefects(t *testing.T) {
	s := scenarioA()
	good := stair.Derive(s)

	tooFew := good
	tooFew.NumberOfTreads = 1

	nan := good
	nan.RiserHeight = math.NaN()

	inf := good
	inf.RotationPerTread = math.Inf(1)

	flat := good
	flat.RotationPerTread = 0

	inverted := s
	inverted.OutsideDiameter = 4

	tests := []struct {
		name string
		spec stair.Spec
		d    stair.Derived
	}{
		{"one tread", s, tooFew},
		{"nan riser", s, nan},
		{"infinite sweep", s, inf},
		{"zero sweep", s, flat},
		{"outside inside pole", inverted, good},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := Build(tt.spec, tt.d, DefaultOptions())
			assert.Nil(t, ps)
			assert.True(t, errors.Is(err, ErrGeometryDefect), "got %v", err)
		})
	}
}
