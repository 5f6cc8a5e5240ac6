package geom

import (
	"strconv"
	"strings"
	"unicode"
)

// maxNestingDepth bounds recursion into nested geometry collections for
// every decoder in this package.
const maxNestingDepth = 64

// ==================== WKT Writer ====================

// MarshalWKT serializes g as Well-Known Text. The SRID is never embedded.
func MarshalWKT(g Geometry) string {
	var sb strings.Builder
	writeWKT(&sb, g)
	return sb.String()
}

func writeWKT(sb *strings.Builder, g Geometry) {
	sb.WriteString(g.Kind().Keyword())
	if g.IsEmpty() {
		sb.WriteString(" EMPTY")
		return
	}
	sb.WriteByte('(')
	switch v := g.(type) {
	case *Point:
		writeWKTCoord(sb, v.coord)
	case *LineString:
		writeWKTCoords(sb, v.coords)
	case *Polygon:
		writeWKTRings(sb, v.rings)
	case *MultiPoint:
		for i, c := range v.coords {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			writeWKTCoord(sb, c)
			sb.WriteByte(')')
		}
	case *MultiLineString:
		writeWKTRings(sb, v.lines)
	case *MultiPolygon:
		for i, rings := range v.polygons {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('(')
			writeWKTRings(sb, rings)
			sb.WriteByte(')')
		}
	case *GeometryCollection:
		for i, member := range v.geometries {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeWKT(sb, member)
		}
	}
	sb.WriteByte(')')
}

func writeWKTCoord(sb *strings.Builder, c Coordinate) {
	x, y := c.Pair()
	sb.WriteString(formatCoord(x))
	sb.WriteByte(' ')
	sb.WriteString(formatCoord(y))
}

// writeWKTCoords writes "x y, x y, ..." without surrounding parentheses.
func writeWKTCoords(sb *strings.Builder, coords []Coordinate) {
	for i, c := range coords {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeWKTCoord(sb, c)
	}
}

// writeWKTRings writes "(x y, ...), (x y, ...)".
func writeWKTRings(sb *strings.Builder, rings [][]Coordinate) {
	for i, ring := range rings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		writeWKTCoords(sb, ring)
		sb.WriteByte(')')
	}
}

// formatCoord produces the shortest text that parses back to v. Fixed-point
// notation is preferred; extreme magnitudes fall back to exponent form.
func formatCoord(v float64) string {
	abs := v
	if abs < 0 {
		abs = -abs
	}
	if abs != 0 && (abs >= 1e15 || abs < 1e-14) {
		s := strconv.FormatFloat(v, 'g', -1, 64)
		return strings.ReplaceAll(s, "e+", "e")
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ==================== WKT Parser ====================

// UnmarshalWKT parses Well-Known Text. srid is supplied out of band since
// WKT never carries one.
func UnmarshalWKT(text string, srid int) (Geometry, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errorf(ErrCodeMalformedWKT, "empty WKT string")
	}
	if err := validateSRID(srid); err != nil {
		return nil, err
	}

	p := &wktParser{input: text, srid: srid}
	g, err := p.parseGeometry(0)
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.pos < len(p.input) {
		return nil, errorf(ErrCodeMalformedWKT, "unexpected trailing input %q at position %d", p.input[p.pos:], p.pos)
	}
	return g, nil
}

type wktParser struct {
	input string
	pos   int
	srid  int
}

func (p *wktParser) parseGeometry(depth int) (Geometry, error) {
	if depth > maxNestingDepth {
		return nil, errorf(ErrCodeMalformedWKT, "geometry nesting exceeds %d levels", maxNestingDepth)
	}
	p.skipWhitespace()
	word := p.readWord()
	kind, ok := kindFromKeyword(word)
	if !ok {
		if word == "" {
			return nil, errorf(ErrCodeMalformedWKT, "expected geometry keyword at position %d", p.pos)
		}
		return nil, errorf(ErrCodeMalformedWKT, "unknown geometry type: %s", word)
	}

	if p.peekWord() == "EMPTY" {
		p.readWord()
		return p.emptyGeometry(kind)
	}

	switch kind {
	case KindPoint:
		return p.parsePoint()
	case KindLineString:
		return p.parseLineString()
	case KindPolygon:
		return p.parsePolygon()
	case KindMultiPoint:
		return p.parseMultiPoint()
	case KindMultiLineString:
		return p.parseMultiLineString()
	case KindMultiPolygon:
		return p.parseMultiPolygon()
	case KindGeometryCollection:
		return p.parseGeometryCollection(depth)
	}
	return nil, errorf(ErrCodeMalformedWKT, "unknown geometry type: %s", word)
}

func (p *wktParser) emptyGeometry(kind Kind) (Geometry, error) {
	switch kind {
	case KindMultiPoint:
		return newMultiPoint(nil, p.srid)
	case KindMultiLineString:
		return newMultiLineString(nil, p.srid)
	case KindMultiPolygon:
		return newMultiPolygon(nil, p.srid)
	case KindGeometryCollection:
		return NewGeometryCollection(nil, p.srid)
	}
	return nil, errorf(ErrCodeInvalidGeometry, "%s cannot be empty", kind)
}

func (p *wktParser) parsePoint() (Geometry, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	c, err := p.readCoordinate()
	if err != nil {
		return nil, err
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return newPoint(c, p.srid)
}

func (p *wktParser) parseLineString() (Geometry, error) {
	coords, err := p.readPointList()
	if err != nil {
		return nil, err
	}
	return newLineString(coords, p.srid)
}

func (p *wktParser) parsePolygon() (Geometry, error) {
	rings, err := p.readRingList()
	if err != nil {
		return nil, err
	}
	return newPolygon(rings, p.srid)
}

func (p *wktParser) parseMultiPoint() (Geometry, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var coords []Coordinate
	if !p.consumeIf(')') {
		for {
			p.skipWhitespace()
			// MultiPoint supports both (x y) and x y notation
			var (
				c   Coordinate
				err error
			)
			if p.consumeIf('(') {
				if c, err = p.readCoordinate(); err != nil {
					return nil, err
				}
				if err := p.expect(')'); err != nil {
					return nil, err
				}
			} else if c, err = p.readCoordinate(); err != nil {
				return nil, err
			}
			coords = append(coords, c)
			if !p.consumeIf(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
	}
	return newMultiPoint(coords, p.srid)
}

func (p *wktParser) parseMultiLineString() (Geometry, error) {
	lines, err := p.readRingList()
	if err != nil {
		return nil, err
	}
	return newMultiLineString(lines, p.srid)
}

func (p *wktParser) parseMultiPolygon() (Geometry, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var polygons [][][]Coordinate
	if !p.consumeIf(')') {
		for {
			rings, err := p.readRingList()
			if err != nil {
				return nil, err
			}
			polygons = append(polygons, rings)
			if !p.consumeIf(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
	}
	return newMultiPolygon(polygons, p.srid)
}

func (p *wktParser) parseGeometryCollection(depth int) (Geometry, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var members []Geometry
	if !p.consumeIf(')') {
		for {
			g, err := p.parseGeometry(depth + 1)
			if err != nil {
				return nil, err
			}
			members = append(members, g)
			if !p.consumeIf(',') {
				break
			}
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
	}
	return NewGeometryCollection(members, p.srid)
}

// readRingList reads "((x y, ...), (x y, ...))". An empty list "()" is
// returned as nil so the caller's invariant check reports it.
func (p *wktParser) readRingList() ([][]Coordinate, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	if p.consumeIf(')') {
		return nil, nil
	}
	var rings [][]Coordinate
	for {
		ring, err := p.readPointList()
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
		if !p.consumeIf(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return rings, nil
}

// readPointList reads "(x1 y1, x2 y2, ...)"
func (p *wktParser) readPointList() ([]Coordinate, error) {
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var coords []Coordinate
	for {
		c, err := p.readCoordinate()
		if err != nil {
			return nil, err
		}
		coords = append(coords, c)
		if !p.consumeIf(',') {
			break
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return coords, nil
}

func (p *wktParser) readCoordinate() (Coordinate, error) {
	x, err := p.readFloat("X")
	if err != nil {
		return Coordinate{}, err
	}
	end := p.pos
	p.skipWhitespace()
	if p.pos == end {
		return Coordinate{}, errorf(ErrCodeMalformedWKT, "expected whitespace between X and Y at position %d", end)
	}
	y, err := p.readFloat("Y")
	if err != nil {
		return Coordinate{}, err
	}
	return CoordinateFromPair(x, y), nil
}

func (p *wktParser) readFloat(axis string) (float64, error) {
	p.skipWhitespace()
	start := p.pos
	s := p.readNumber()
	if s == "" {
		return 0, errorf(ErrCodeMalformedWKT, "expected %s coordinate at position %d", axis, start)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, NewError(ErrCodeMalformedWKT, "invalid "+axis+" coordinate "+strconv.Quote(s), err)
	}
	return v, nil
}

func (p *wktParser) readNumber() string {
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		switch {
		case ch >= '0' && ch <= '9', ch == '.':
		case ch == 'e' || ch == 'E':
		case ch == '-' || ch == '+':
			// a sign is only valid at the start or right after an exponent
			if p.pos > start && p.input[p.pos-1] != 'e' && p.input[p.pos-1] != 'E' {
				return p.input[start:p.pos]
			}
		default:
			return p.input[start:p.pos]
		}
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *wktParser) readWord() string {
	p.skipWhitespace()
	start := p.pos
	for p.pos < len(p.input) && (unicode.IsLetter(rune(p.input[p.pos])) || p.input[p.pos] == '_') {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *wktParser) peekWord() string {
	saved := p.pos
	w := p.readWord()
	p.pos = saved
	return strings.ToUpper(w)
}

func (p *wktParser) skipWhitespace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n' || p.input[p.pos] == '\r') {
		p.pos++
	}
}

func (p *wktParser) consumeIf(ch byte) bool {
	p.skipWhitespace()
	if p.pos < len(p.input) && p.input[p.pos] == ch {
		p.pos++
		return true
	}
	return false
}

func (p *wktParser) expect(ch byte) error {
	p.skipWhitespace()
	if p.pos >= len(p.input) {
		return errorf(ErrCodeMalformedWKT, "expected '%c' but reached end of input", ch)
	}
	if p.input[p.pos] != ch {
		return errorf(ErrCodeMalformedWKT, "expected '%c' but got '%c' at position %d", ch, p.input[p.pos], p.pos)
	}
	p.pos++
	return nil
}
