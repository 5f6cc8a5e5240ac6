package geom

import (
	"encoding/binary"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/wkb"
)

func TestMarshalWKB_Point(t *testing.T) {
	p := mustPoint(t, 0, 180, 0)
	assert.Equal(t, "0101000000"+"0000000000806640"+"0000000000000000", ToWKBHex(p))

	withSRID := mustPoint(t, 0, 180, 4326)
	assert.Equal(t, "0101000020"+"E6100000"+"0000000000806640"+"0000000000000000", ToWKBHex(withSRID))
}

// go-geom's EWKB writer uses the same SRID flag, so its output must match
// byte for byte for the non-collection variants.
func TestMarshalWKB_MatchesEWKB(t *testing.T) {
	ring := mustLineString(t, 0, 0, 0, 0, 10, 10, 10, 0, 0)
	poly, err := NewPolygon([]*LineString{ring}, 4326)
	require.NoError(t, err)

	tests := []struct {
		name string
		ours Geometry
		ref  gogeom.T
	}{
		{
			name: "point srid 0",
			ours: mustPoint(t, -33.5, 151.25, 0),
			ref:  gogeom.NewPoint(gogeom.XY).MustSetCoords(gogeom.Coord{151.25, -33.5}),
		},
		{
			name: "point srid 4326",
			ours: mustPoint(t, 0, 180, 4326),
			ref:  gogeom.NewPoint(gogeom.XY).MustSetCoords(gogeom.Coord{180, 0}).SetSRID(4326),
		},
		{
			name: "linestring",
			ours: mustLineString(t, 3857, 0, 180, 1, 179),
			ref:  gogeom.NewLineString(gogeom.XY).MustSetCoords([]gogeom.Coord{{180, 0}, {179, 1}}).SetSRID(3857),
		},
		{
			name: "polygon",
			ours: poly,
			ref: gogeom.NewPolygon(gogeom.XY).MustSetCoords([][]gogeom.Coord{
				{{0, 0}, {10, 0}, {10, 10}, {0, 0}},
			}).SetSRID(4326),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := ewkb.Marshal(tt.ref, binary.LittleEndian)
			require.NoError(t, err)
			assert.Equal(t, want, tt.ours.WKB())

			decoded, err := ewkb.Unmarshal(tt.ours.WKB())
			require.NoError(t, err)
			assert.Equal(t, tt.ours.SRID(), decoded.SRID())
			assert.Equal(t, tt.ref.FlatCoords(), decoded.FlatCoords())
		})
	}
}

func TestUnmarshalWKB_BigEndian(t *testing.T) {
	tests := []struct {
		name string
		ref  gogeom.T
		wkt  string
	}{
		{
			name: "point",
			ref:  gogeom.NewPoint(gogeom.XY).MustSetCoords(gogeom.Coord{180, 0}),
			wkt:  "POINT(180 0)",
		},
		{
			name: "polygon with hole",
			ref: gogeom.NewPolygon(gogeom.XY).MustSetCoords([][]gogeom.Coord{
				{{0, 0}, {20, 0}, {20, 20}, {0, 0}},
				{{5, 5}, {15, 5}, {15, 15}, {5, 5}},
			}),
			wkt: "POLYGON((0 0, 20 0, 20 20, 0 0), (5 5, 15 5, 15 15, 5 5))",
		},
		{
			name: "multipoint",
			ref:  gogeom.NewMultiPoint(gogeom.XY).MustSetCoords([]gogeom.Coord{{1, 2}, {3, 4}}),
			wkt:  "MULTIPOINT((1 2), (3 4))",
		},
		{
			name: "multilinestring",
			ref:  gogeom.NewMultiLineString(gogeom.XY).MustSetCoords([][]gogeom.Coord{{{0, 0}, {1, 1}}, {{2, 2}, {3, 3}}}),
			wkt:  "MULTILINESTRING((0 0, 1 1), (2 2, 3 3))",
		},
		{
			name: "multipolygon",
			ref: gogeom.NewMultiPolygon(gogeom.XY).MustSetCoords([][][]gogeom.Coord{
				{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
			}),
			wkt: "MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := wkb.Marshal(tt.ref, binary.BigEndian)
			require.NoError(t, err)
			require.Equal(t, byte(0x00), data[0])

			g, err := FromWKB(data)
			require.NoError(t, err)
			assert.Equal(t, 0, g.SRID())
			assert.Equal(t, tt.wkt, g.WKT())
		})
	}
}

func TestWKB_RoundTrip(t *testing.T) {
	inputs := []string{
		"POINT(180 0)",
		"LINESTRING(180 0, 179 1)",
		"POLYGON((0 0, 20 0, 20 20, 0 0), (5 5, 15 5, 15 15, 5 5))",
		"MULTIPOINT((1 2), (3 4))",
		"MULTIPOINT EMPTY",
		"MULTILINESTRING((0 0, 1 1), (2 2, 3 3))",
		"MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))",
		"GEOMETRYCOLLECTION(POINT(1 2), GEOMETRYCOLLECTION(LINESTRING(0 0, 1 1)), MULTIPOINT EMPTY)",
		"GEOMETRYCOLLECTION EMPTY",
	}
	for _, srid := range []int{0, 4326} {
		for _, input := range inputs {
			g, err := FromWKT(input, srid)
			require.NoError(t, err, input)

			decoded, err := FromWKB(g.WKB())
			require.NoError(t, err, input)
			assert.True(t, g.Equal(decoded), "%s srid=%d", input, srid)
			assert.Equal(t, srid, decoded.SRID())
		}
	}
}

func TestUnmarshalWKB_ChildrenInheritSRID(t *testing.T) {
	g, err := FromWKT("GEOMETRYCOLLECTION(POINT(1 2), LINESTRING(0 0, 1 1))", 4326)
	require.NoError(t, err)

	decoded, err := FromWKB(g.WKB())
	require.NoError(t, err)
	for _, member := range decoded.(*GeometryCollection).Geometries() {
		assert.Equal(t, 4326, member.SRID())
	}
}

func TestUnmarshalWKB_Errors(t *testing.T) {
	point := mustPoint(t, 0, 180, 0).WKB()

	trailing := append(append([]byte{}, point...), 0x00)

	badOrder := append([]byte{}, point...)
	badOrder[0] = 0x02

	unknownType := append([]byte{}, point...)
	binary.LittleEndian.PutUint32(unknownType[1:], 8)

	zFlag := append([]byte{}, point...)
	binary.LittleEndian.PutUint32(zFlag[1:], 0x80000001)

	isoZ := append([]byte{}, point...)
	binary.LittleEndian.PutUint32(isoZ[1:], 1001)

	hugeCount := []byte{0x01, 0x02, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x7f}

	// MULTIPOINT with one member that claims to be a LINESTRING
	wrongMember := []byte{0x01, 0x04, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}
	wrongMember = append(wrongMember, 0x01, 0x02, 0x00, 0x00, 0x00)
	wrongMember = append(wrongMember, make([]byte, 16)...)

	tests := []struct {
		name string
		data []byte
		code ErrorCode
	}{
		{"empty input", nil, ErrCodeMalformedWKB},
		{"truncated header", point[:3], ErrCodeMalformedWKB},
		{"truncated coordinate", point[:12], ErrCodeMalformedWKB},
		{"trailing bytes", trailing, ErrCodeMalformedWKB},
		{"bad byte order", badOrder, ErrCodeMalformedWKB},
		{"unknown type", unknownType, ErrCodeMalformedWKB},
		{"z flag", zFlag, ErrCodeMalformedWKB},
		{"iso z code", isoZ, ErrCodeMalformedWKB},
		{"count exceeds input", hugeCount, ErrCodeMalformedWKB},
		{"wrong member kind", wrongMember, ErrCodeMalformedWKB},
		{"single point line", mustHex(t, "010200000001000000"+"0000000000000000"+"0000000000000000"), ErrCodeInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromWKB(tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.code, GetErrorCode(err), err.Error())
		})
	}
}

func TestFromWKBHex(t *testing.T) {
	g, err := FromWKBHex("0101000020e6100000" + "0000000000806640" + "0000000000000000")
	require.NoError(t, err)
	assert.Equal(t, 4326, g.SRID())
	assert.Equal(t, "POINT(180 0)", g.WKT())

	_, err = FromWKBHex("zz")
	assert.True(t, IsErrorCode(err, ErrCodeMalformedWKB))
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}
