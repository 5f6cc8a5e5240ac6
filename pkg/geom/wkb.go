package geom

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"strings"
)

// Byte orders
const (
	wkbXDR byte = 0x00 // big endian
	wkbNDR byte = 0x01 // little endian
)

const (
	// wkbSRIDFlag marks a type code that is followed by a 4-byte SRID.
	wkbSRIDFlag uint32 = 0x20000000

	wkbHeaderSize = 5 // byte order + type code
	wkbCountSize  = 4
	wkbPointSize  = 16 // x and y doubles
)

// ==================== WKB Writer ====================

// MarshalWKB serializes g as little-endian WKB. The SRID flag and field are
// present only when the SRID is non-zero. Members of collections carry their
// own header without an SRID.
func MarshalWKB(g Geometry) []byte {
	return appendWKB(nil, g, true)
}

// ToWKBHex returns the upper-case hex encoding of MarshalWKB.
func ToWKBHex(g Geometry) string {
	return strings.ToUpper(hex.EncodeToString(MarshalWKB(g)))
}

func appendWKB(buf []byte, g Geometry, withSRID bool) []byte {
	typeCode := uint32(g.Kind())
	srid := g.SRID()
	if withSRID && srid != 0 {
		typeCode |= wkbSRIDFlag
	}
	buf = append(buf, wkbNDR)
	buf = binary.LittleEndian.AppendUint32(buf, typeCode)
	if typeCode&wkbSRIDFlag != 0 {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(srid))
	}

	switch v := g.(type) {
	case *Point:
		buf = appendWKBCoord(buf, v.coord)
	case *LineString:
		buf = appendWKBCoords(buf, v.coords)
	case *Polygon:
		buf = appendWKBRings(buf, v.rings)
	case *MultiPoint:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.coords)))
		for _, c := range v.coords {
			buf = append(buf, wkbNDR)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(KindPoint))
			buf = appendWKBCoord(buf, c)
		}
	case *MultiLineString:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.lines)))
		for _, line := range v.lines {
			buf = append(buf, wkbNDR)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(KindLineString))
			buf = appendWKBCoords(buf, line)
		}
	case *MultiPolygon:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.polygons)))
		for _, rings := range v.polygons {
			buf = append(buf, wkbNDR)
			buf = binary.LittleEndian.AppendUint32(buf, uint32(KindPolygon))
			buf = appendWKBRings(buf, rings)
		}
	case *GeometryCollection:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.geometries)))
		for _, member := range v.geometries {
			buf = appendWKB(buf, member, false)
		}
	}
	return buf
}

func appendWKBCoord(buf []byte, c Coordinate) []byte {
	x, y := c.Pair()
	buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	return binary.LittleEndian.AppendUint64(buf, math.Float64bits(y))
}

func appendWKBCoords(buf []byte, coords []Coordinate) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(coords)))
	for _, c := range coords {
		buf = appendWKBCoord(buf, c)
	}
	return buf
}

func appendWKBRings(buf []byte, rings [][]Coordinate) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(rings)))
	for _, ring := range rings {
		buf = appendWKBCoords(buf, ring)
	}
	return buf
}

// ==================== WKB Reader ====================

// UnmarshalWKB parses WKB. The SRID comes from the flagged header field and
// defaults to 0 when the flag is absent.
func UnmarshalWKB(data []byte) (Geometry, error) {
	r := &wkbReader{data: data}
	g, err := r.readGeometry(0, 0)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errorf(ErrCodeMalformedWKB, "%d unexpected trailing bytes at position %d", r.remaining(), r.pos)
	}
	return g, nil
}

// FromWKBHex decodes a hex string (either case) and parses it as WKB.
func FromWKBHex(s string) (Geometry, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, NewError(ErrCodeMalformedWKB, "invalid hex input", err)
	}
	return UnmarshalWKB(data)
}

// wkbReader provides sequential reading of WKB binary data. Every geometry
// header carries its own byte order, so the order is passed per read.
type wkbReader struct {
	data []byte
	pos  int
}

func (r *wkbReader) remaining() int {
	return len(r.data) - r.pos
}

func (r *wkbReader) readByte() (byte, error) {
	if r.remaining() < 1 {
		return 0, errorf(ErrCodeMalformedWKB, "unexpected end of data reading byte at position %d", r.pos)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *wkbReader) readUint32(order binary.ByteOrder) (uint32, error) {
	if r.remaining() < 4 {
		return 0, errorf(ErrCodeMalformedWKB, "unexpected end of data reading uint32 at position %d", r.pos)
	}
	v := order.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *wkbReader) readFloat64(order binary.ByteOrder) (float64, error) {
	if r.remaining() < 8 {
		return 0, errorf(ErrCodeMalformedWKB, "unexpected end of data reading float64 at position %d", r.pos)
	}
	v := math.Float64frombits(order.Uint64(r.data[r.pos:]))
	r.pos += 8
	return v, nil
}

// readCount reads an element count and rejects counts that cannot fit in
// the remaining input given the minimum encoded size of one element.
func (r *wkbReader) readCount(order binary.ByteOrder, minElemSize int) (int, error) {
	n, err := r.readUint32(order)
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minElemSize) > uint64(r.remaining()) {
		return 0, errorf(ErrCodeMalformedWKB, "count %d exceeds remaining %d bytes at position %d", n, r.remaining(), r.pos)
	}
	return int(n), nil
}

type wkbHeader struct {
	order binary.ByteOrder
	kind  Kind
	srid  int
}

func (r *wkbReader) readHeader(inheritedSRID int) (wkbHeader, error) {
	start := r.pos
	orderByte, err := r.readByte()
	if err != nil {
		return wkbHeader{}, err
	}
	var h wkbHeader
	switch orderByte {
	case wkbXDR:
		h.order = binary.BigEndian
	case wkbNDR:
		h.order = binary.LittleEndian
	default:
		return wkbHeader{}, errorf(ErrCodeMalformedWKB, "invalid byte order %#x at position %d", orderByte, start)
	}

	typeCode, err := r.readUint32(h.order)
	if err != nil {
		return wkbHeader{}, err
	}
	h.kind = Kind(typeCode &^ wkbSRIDFlag)
	if !h.kind.valid() {
		return wkbHeader{}, errorf(ErrCodeMalformedWKB, "unsupported geometry type code %#x at position %d", typeCode, start)
	}

	h.srid = inheritedSRID
	if typeCode&wkbSRIDFlag != 0 {
		srid, err := r.readUint32(h.order)
		if err != nil {
			return wkbHeader{}, err
		}
		h.srid = int(srid)
	}
	return h, nil
}

// readGeometry reads a complete geometry (header + payload).
func (r *wkbReader) readGeometry(inheritedSRID, depth int) (Geometry, error) {
	if depth > maxNestingDepth {
		return nil, errorf(ErrCodeMalformedWKB, "geometry nesting exceeds %d levels", maxNestingDepth)
	}
	h, err := r.readHeader(inheritedSRID)
	if err != nil {
		return nil, err
	}

	switch h.kind {
	case KindPoint:
		c, err := r.readCoordinate(h.order)
		if err != nil {
			return nil, err
		}
		return newPoint(c, h.srid)
	case KindLineString:
		coords, err := r.readCoordinates(h.order)
		if err != nil {
			return nil, err
		}
		return newLineString(coords, h.srid)
	case KindPolygon:
		rings, err := r.readRings(h.order)
		if err != nil {
			return nil, err
		}
		return newPolygon(rings, h.srid)
	case KindMultiPoint:
		return r.readMultiPoint(h)
	case KindMultiLineString:
		return r.readMultiLineString(h)
	case KindMultiPolygon:
		return r.readMultiPolygon(h)
	case KindGeometryCollection:
		return r.readGeometryCollection(h, depth)
	}
	return nil, errorf(ErrCodeMalformedWKB, "unsupported geometry type %d", int(h.kind))
}

func (r *wkbReader) readCoordinate(order binary.ByteOrder) (Coordinate, error) {
	x, err := r.readFloat64(order)
	if err != nil {
		return Coordinate{}, err
	}
	y, err := r.readFloat64(order)
	if err != nil {
		return Coordinate{}, err
	}
	return CoordinateFromPair(x, y), nil
}

func (r *wkbReader) readCoordinates(order binary.ByteOrder) ([]Coordinate, error) {
	n, err := r.readCount(order, wkbPointSize)
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, n)
	for i := range coords {
		if coords[i], err = r.readCoordinate(order); err != nil {
			return nil, err
		}
	}
	return coords, nil
}

func (r *wkbReader) readRings(order binary.ByteOrder) ([][]Coordinate, error) {
	n, err := r.readCount(order, wkbCountSize)
	if err != nil {
		return nil, err
	}
	rings := make([][]Coordinate, n)
	for i := range rings {
		if rings[i], err = r.readCoordinates(order); err != nil {
			return nil, err
		}
	}
	return rings, nil
}

// readMember reads the header of a Multi* member and checks its kind.
func (r *wkbReader) readMember(parent wkbHeader, want Kind, index int) (wkbHeader, error) {
	h, err := r.readHeader(parent.srid)
	if err != nil {
		return wkbHeader{}, err
	}
	if h.kind != want {
		return wkbHeader{}, errorf(ErrCodeMalformedWKB, "%s member %d is a %s, expected %s", parent.kind, index, h.kind, want)
	}
	return h, nil
}

func (r *wkbReader) readMultiPoint(parent wkbHeader) (Geometry, error) {
	n, err := r.readCount(parent.order, wkbHeaderSize+wkbPointSize)
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, n)
	for i := range coords {
		h, err := r.readMember(parent, KindPoint, i)
		if err != nil {
			return nil, err
		}
		if coords[i], err = r.readCoordinate(h.order); err != nil {
			return nil, err
		}
	}
	return newMultiPoint(coords, parent.srid)
}

func (r *wkbReader) readMultiLineString(parent wkbHeader) (Geometry, error) {
	n, err := r.readCount(parent.order, wkbHeaderSize+wkbCountSize)
	if err != nil {
		return nil, err
	}
	lines := make([][]Coordinate, n)
	for i := range lines {
		h, err := r.readMember(parent, KindLineString, i)
		if err != nil {
			return nil, err
		}
		if lines[i], err = r.readCoordinates(h.order); err != nil {
			return nil, err
		}
	}
	return newMultiLineString(lines, parent.srid)
}

func (r *wkbReader) readMultiPolygon(parent wkbHeader) (Geometry, error) {
	n, err := r.readCount(parent.order, wkbHeaderSize+wkbCountSize)
	if err != nil {
		return nil, err
	}
	polygons := make([][][]Coordinate, n)
	for i := range polygons {
		h, err := r.readMember(parent, KindPolygon, i)
		if err != nil {
			return nil, err
		}
		if polygons[i], err = r.readRings(h.order); err != nil {
			return nil, err
		}
	}
	return newMultiPolygon(polygons, parent.srid)
}

func (r *wkbReader) readGeometryCollection(parent wkbHeader, depth int) (Geometry, error) {
	n, err := r.readCount(parent.order, wkbHeaderSize)
	if err != nil {
		return nil, err
	}
	members := make([]Geometry, n)
	for i := range members {
		if members[i], err = r.readGeometry(parent.srid, depth+1); err != nil {
			return nil, wrapError(err, ErrCodeMalformedWKB, "geometry collection member %d", i)
		}
	}
	return NewGeometryCollection(members, parent.srid)
}
