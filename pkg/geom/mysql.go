package geom

import "encoding/binary"

// mysqlSRIDSize is the length of the SRID prefix in MySQL's internal
// geometry storage format.
const mysqlSRIDSize = 4

// ToMySQL encodes g in MySQL's internal storage format: a little-endian
// 4-byte SRID followed by WKB without the SRID flag.
func ToMySQL(g Geometry) []byte {
	buf := binary.LittleEndian.AppendUint32(make([]byte, 0, 64), uint32(g.SRID()))
	return appendWKB(buf, g, false)
}

// FromMySQL decodes MySQL's internal storage format, as returned by the
// driver for GEOMETRY columns.
func FromMySQL(data []byte) (Geometry, error) {
	if len(data) < mysqlSRIDSize+wkbHeaderSize {
		return nil, errorf(ErrCodeMalformedWKB, "mysql geometry value too short: %d bytes", len(data))
	}
	srid := binary.LittleEndian.Uint32(data[:mysqlSRIDSize])
	r := &wkbReader{data: data, pos: mysqlSRIDSize}
	g, err := r.readGeometry(int(srid), 0)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, errorf(ErrCodeMalformedWKB, "%d unexpected trailing bytes at position %d", r.remaining(), r.pos)
	}
	if g.SRID() != int(srid) {
		g = g.stamp(int(srid))
	}
	return g, nil
}
