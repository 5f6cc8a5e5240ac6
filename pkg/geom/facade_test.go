package geom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roundTripCorpus = []string{
	"POINT(180 0)",
	"POINT(-73.985656 40.748433)",
	"POINT(1e20 1.5e-20)",
	"LINESTRING(180 0, 179 1)",
	"POLYGON((0 0, 20 0, 20 20, 0 20, 0 0), (5 5, 15 5, 15 15, 5 15, 5 5))",
	"MULTIPOINT((1 2), (3 4))",
	"MULTIPOINT EMPTY",
	"MULTILINESTRING((0 0, 1 1), (2 2, 3 3, 4 4))",
	"MULTILINESTRING EMPTY",
	"MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))",
	"MULTIPOLYGON EMPTY",
	"GEOMETRYCOLLECTION(POINT(1 2), GEOMETRYCOLLECTION(LINESTRING(0 0, 1 1)), MULTIPOINT EMPTY)",
	"GEOMETRYCOLLECTION EMPTY",
}

func TestRoundTrip_AllFormats(t *testing.T) {
	for _, srid := range []int{0, 4326} {
		for _, text := range roundTripCorpus {
			g, err := FromWKT(text, srid)
			require.NoError(t, err, text)

			fromWKT, err := FromWKT(g.WKT(), srid)
			require.NoError(t, err)
			assert.True(t, g.Equal(fromWKT), "wkt %s", text)

			fromWKB, err := FromWKB(g.WKB())
			require.NoError(t, err)
			assert.True(t, g.Equal(fromWKB), "wkb %s", text)

			fromJSON, err := FromJSON(g.JSON(), srid)
			require.NoError(t, err)
			assert.True(t, g.Equal(fromJSON), "json %s", text)

			fromMySQL, err := FromMySQL(ToMySQL(g))
			require.NoError(t, err)
			assert.True(t, g.Equal(fromMySQL), "mysql %s", text)
		}
	}
}

func TestSerialization_Deterministic(t *testing.T) {
	for _, text := range roundTripCorpus {
		g, err := FromWKT(text, 4326)
		require.NoError(t, err)
		assert.Equal(t, g.WKT(), g.WKT())
		assert.Equal(t, g.WKB(), g.WKB())
		assert.Equal(t, g.JSON(), g.JSON())
		assert.Equal(t, g.FeatureCollectionJSON(), g.FeatureCollectionJSON())
	}
}

func TestFacade_DispatchesOnDiscriminator(t *testing.T) {
	tests := []struct {
		wkt  string
		want Kind
	}{
		{"POINT(1 2)", KindPoint},
		{"LINESTRING(1 2, 3 4)", KindLineString},
		{"POLYGON((0 0, 1 0, 1 1, 0 0))", KindPolygon},
		{"MULTIPOINT(1 2)", KindMultiPoint},
		{"MULTILINESTRING((1 2, 3 4))", KindMultiLineString},
		{"MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)))", KindMultiPolygon},
		{"GEOMETRYCOLLECTION(POINT(1 2))", KindGeometryCollection},
	}
	for _, tt := range tests {
		g, err := FromWKT(tt.wkt, 0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, g.Kind())

		fromWKB, err := FromWKB(g.WKB())
		require.NoError(t, err)
		assert.Equal(t, tt.want, fromWKB.Kind())

		fromJSON, err := FromJSON(g.JSON(), 0)
		require.NoError(t, err)
		assert.Equal(t, tt.want, fromJSON.Kind())
	}
}

func TestAs(t *testing.T) {
	g, err := FromWKT("POLYGON((0 0, 1 0, 1 1, 0 0))", 0)
	require.NoError(t, err)

	poly, err := AsPolygon(g)
	require.NoError(t, err)
	assert.Len(t, poly.Rings(), 1)

	_, err = AsLineString(g)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.Contains(t, err.Error(), "expected LineString, got Polygon")

	_, err = AsPoint(nil)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = AsPoint((*Point)(nil))
	assert.True(t, errors.Is(err, ErrTypeMismatch))
}

func TestExpect(t *testing.T) {
	_, err := Expect[*LineString](FromWKT("POINT(1 2)", 0))
	assert.True(t, IsErrorCode(err, ErrCodeTypeMismatch))

	_, err = Expect[*LineString](FromWKT("LINESTRING(1 2)", 0))
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry), "parse errors pass through")

	_, err = Expect[*Point](FromJSON(`{"type":"Point","coordinates":[]}`, 0))
	assert.True(t, IsErrorCode(err, ErrCodeInvalidGeometry))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindPoint, KindOf[*Point]())
	assert.Equal(t, KindMultiPolygon, KindOf[*MultiPolygon]())
	assert.Equal(t, Kind(0), KindOf[Geometry]())
}
