package spatial

import (
	"strconv"
	"strings"

	"github.com/kasuganosora/geospatial/pkg/geom"
	"gorm.io/gorm/clause"
)

// Expression is the write-path form of a geometry: the WKT text, its SRID
// and the axis-order option of the engine. It is kept structured so nothing
// has to parse SQL to recover the geometry.
type Expression struct {
	WKT       string
	SRID      int
	AxisOrder string
}

// NewExpression captures g for engine.
func NewExpression(g geom.Geometry, engine Engine) (Expression, error) {
	if geom.IsNil(g) {
		return Expression{}, geom.NewError(geom.ErrCodeInvalidGeometry, "nil geometry", nil)
	}
	return Expression{
		WKT:       g.WKT(),
		SRID:      g.SRID(),
		AxisOrder: engine.AxisOrder(),
	}, nil
}

// SQL renders the literal fragment, e.g.
// ST_GeomFromText('POINT(180 0)', 4326, 'axis-order=long-lat').
func (e Expression) SQL() string {
	var sb strings.Builder
	sb.WriteString("ST_GeomFromText(")
	writeStringLiteral(&sb, e.WKT)
	sb.WriteString(", ")
	sb.WriteString(strconv.Itoa(e.SRID))
	if e.AxisOrder != "" {
		sb.WriteString(", ")
		writeStringLiteral(&sb, e.AxisOrder)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Clause renders the same call with the WKT and SRID as bind variables.
func (e Expression) Clause() clause.Expr {
	sql := "ST_GeomFromText(?, ?)"
	if e.AxisOrder != "" {
		sql = "ST_GeomFromText(?, ?, '" + escapeLiteral(e.AxisOrder) + "')"
	}
	return clause.Expr{SQL: sql, Vars: []interface{}{e.WKT, e.SRID}}
}

func (e Expression) String() string {
	return e.SQL()
}

func writeStringLiteral(sb *strings.Builder, s string) {
	sb.WriteByte('\'')
	sb.WriteString(escapeLiteral(s))
	sb.WriteByte('\'')
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `''`)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
