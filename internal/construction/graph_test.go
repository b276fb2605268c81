package construction_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/geometry-go/internal/construction"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

func triangle() *construction.Construction {
	c := construction.New("cons_test", "test")
	c.Points["A"] = &construction.Point{ID: "A", X: 0, Y: 0, Kind: construction.PointFree}
	c.Points["B"] = &construction.Point{ID: "B", X: 10, Y: 0, Kind: construction.PointFree}
	c.Points["C"] = &construction.Point{ID: "C", X: 0, Y: 10, Kind: construction.PointFree}
	c.Lines["AB"] = &construction.Line{ID: "AB", Points: []string{"A", "B"}, DefiningPoints: [2]string{"A", "B"}, Kind: construction.LineFree}
	c.Lines["AC"] = &construction.Line{ID: "AC", Points: []string{"A", "C"}, DefiningPoints: [2]string{"A", "C"}, Kind: construction.LineFree}
	c.Points["M"] = &construction.Point{
		ID: "M", Kind: construction.PointMidpoint,
		Midpoint: &construction.MidpointMeta{Parents: [2]string{"A", "B"}},
	}
	return c
}

func TestValidate(t *testing.T) {
	c := triangle()
	require.NoError(t, c.Validate())

	c.Points["M"].Midpoint = nil
	err := c.Validate()
	require.ErrorIs(t, err, construction.ErrInconsistentKind)

	c = triangle()
	c.Lines["AB"].DefiningPoints[1] = "Z"
	err = c.Validate()
	require.ErrorIs(t, err, construction.ErrDanglingReference)
	require.ErrorContains(t, err, "not in points")
}

func TestValidateRejectsNullEntries(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"point", `{"id":"c","points":{"P":null}}`},
		{"line", `{"id":"c","lines":{"L":null}}`},
		{"circle", `{"id":"c","circles":{"C":null}}`},
		{"angle", `{"id":"c","angles":{"G":null}}`},
		{"polygon", `{"id":"c","polygons":{"Q":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c construction.Construction
			require.NoError(t, json.Unmarshal([]byte(tt.json), &c))
			err := c.Validate()
			require.ErrorIs(t, err, construction.ErrNullObject)
			require.ErrorContains(t, err, tt.name)
		})
	}
}

func TestReferencesToAndRemove(t *testing.T) {
	c := triangle()
	require.Equal(t, []string{"AB", "M"}, c.ReferencesTo("B"))
	require.Empty(t, c.ReferencesTo("M"))

	err := c.Remove("B")
	require.ErrorIs(t, err, construction.ErrReferenced)
	require.Contains(t, c.Points, "B")

	require.NoError(t, c.Remove("M"))
	require.NotContains(t, c.Points, "M")

	require.ErrorIs(t, c.Remove("nope"), construction.ErrUnknownObject)
}

func TestAngleArms(t *testing.T) {
	c := triangle()
	c.Angles["ang"] = &construction.Angle{ID: "ang", Vertex: "A", Arm1LineID: "AB", Arm2LineID: "AC"}

	v, a1, a2, ok := c.AngleArms("ang")
	require.True(t, ok)
	require.Equal(t, geom.Pt(0, 0), v)
	require.Equal(t, geom.Pt(10, 0), a1)
	require.Equal(t, geom.Pt(0, 10), a2)

	c.Angles["ang"] = &construction.Angle{ID: "ang", Vertex: "B", Point1: "A", Point2: "C"}
	_, a1, a2, ok = c.AngleArms("ang")
	require.True(t, ok)
	require.Equal(t, geom.Pt(0, 0), a1)
	require.Equal(t, geom.Pt(0, 10), a2)

	_, _, _, ok = c.AngleArms("missing")
	require.False(t, ok)
}

func TestCircleGeometry(t *testing.T) {
	c := triangle()
	c.Circles["c"] = &construction.Circle{ID: "c", Center: "A", RadiusPoint: "B", Points: []string{"B"}}
	center, r, ok := c.CircleGeometry("c")
	require.True(t, ok)
	require.Equal(t, geom.Pt(0, 0), center)
	require.InDelta(t, 10, r, 1e-9)

	c.Circles["c"].RadiusPoint = "gone"
	_, _, ok = c.CircleGeometry("c")
	require.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	c := triangle()
	cp := c.Clone()
	cp.Points["A"].X = 99
	cp.Lines["AB"].Points = append(cp.Lines["AB"].Points, "C")

	require.Zero(t, c.Points["A"].X)
	require.Len(t, c.Lines["AB"].Points, 2)
}

func TestSampleConstructionIsValid(t *testing.T) {
	c := construction.NewSampleConstruction("cons_sample")
	require.NoError(t, c.Validate())

	data, err := json.Marshal(c)
	require.NoError(t, err)
	require.Contains(t, string(data), `"constructionKind":"intersection"`)
	require.Contains(t, string(data), `"circleKind":"three-point"`)
}
