package spatial

import (
	"fmt"
	"strings"

	"github.com/kasuganosora/geospatial/pkg/geom"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Func is a spatial SQL function used by the predicate builder.
type Func string

const (
	FuncDistance       Func = "ST_DISTANCE"
	FuncDistanceSphere Func = "ST_DISTANCE_SPHERE"
	FuncWithin         Func = "ST_WITHIN"
	FuncContains       Func = "ST_CONTAINS"
	FuncTouches        Func = "ST_TOUCHES"
	FuncIntersects     Func = "ST_INTERSECTS"
	FuncCrosses        Func = "ST_CROSSES"
	FuncDisjoint       Func = "ST_DISJOINT"
	FuncOverlaps       Func = "ST_OVERLAPS"
	FuncEquals         Func = "ST_EQUALS"
	FuncSRID           Func = "ST_SRID"
)

// DefaultDistanceAlias is the select alias used when none is given.
const DefaultDistanceAlias = "distance"

var comparisonOperators = map[string]bool{
	"=": true, "<": true, ">": true, "<=": true, ">=": true, "<>": true, "!=": true,
}

// Operand is the second argument of a spatial function: either a geometry
// value or another column.
type Operand struct {
	geometry geom.Geometry
	column   string
}

// Geom makes g the operand. It is bound as ST_GeomFromText parameters.
func Geom(g geom.Geometry) Operand {
	return Operand{geometry: g}
}

// Column makes a column the operand.
func Column(name string) Operand {
	return Operand{column: name}
}

func (o Operand) IsColumn() bool { return o.column != "" }

func (o Operand) build(engine Engine) (clause.Expr, error) {
	if o.column != "" {
		quoted, err := QuoteIdentifier(o.column)
		if err != nil {
			return clause.Expr{}, err
		}
		return clause.Expr{SQL: quoted}, nil
	}
	expr, err := NewExpression(o.geometry, engine)
	if err != nil {
		return clause.Expr{}, err
	}
	return expr.Clause(), nil
}

// Predicate is a spatial condition as data. Renderers turn it into a
// select expression, a WHERE condition or an ORDER BY term.
type Predicate struct {
	Func      Func
	Column    string
	Operand   *Operand // nil for single-argument functions
	Operator  string   // comparison against Value; empty for boolean functions
	Value     interface{}
	Alias     string
	Direction string
}

// Call renders FUNC(`column`[, operand]).
func (p Predicate) Call(engine Engine) (clause.Expr, error) {
	column, err := QuoteIdentifier(p.Column)
	if err != nil {
		return clause.Expr{}, err
	}
	if p.Operand == nil {
		return clause.Expr{SQL: string(p.Func) + "(" + column + ")"}, nil
	}
	operand, err := p.Operand.build(engine)
	if err != nil {
		return clause.Expr{}, err
	}
	return clause.Expr{
		SQL:  string(p.Func) + "(" + column + ", " + operand.SQL + ")",
		Vars: operand.Vars,
	}, nil
}

// Condition renders the WHERE form: the call itself, or the call compared
// with Value.
func (p Predicate) Condition(engine Engine) (clause.Expr, error) {
	call, err := p.Call(engine)
	if err != nil {
		return clause.Expr{}, err
	}
	if p.Operator == "" {
		return call, nil
	}
	op := strings.TrimSpace(p.Operator)
	if !comparisonOperators[op] {
		return clause.Expr{}, fmt.Errorf("spatial: unsupported comparison operator %q", p.Operator)
	}
	if !isNumber(p.Value) {
		return clause.Expr{}, fmt.Errorf("spatial: comparison value must be a number, got %T", p.Value)
	}
	call.SQL += " " + op + " ?"
	call.Vars = append(call.Vars, p.Value)
	return call, nil
}

// Selection renders the SELECT form: the call AS `alias`.
func (p Predicate) Selection(engine Engine) (clause.Expr, error) {
	call, err := p.Call(engine)
	if err != nil {
		return clause.Expr{}, err
	}
	alias := p.Alias
	if alias == "" {
		alias = DefaultDistanceAlias
	}
	quoted, err := QuoteIdentifier(alias)
	if err != nil {
		return clause.Expr{}, err
	}
	call.SQL += " AS " + quoted
	return call, nil
}

// Ordering renders the ORDER BY form: the call followed by ASC or DESC.
func (p Predicate) Ordering(engine Engine) (clause.Expr, error) {
	call, err := p.Call(engine)
	if err != nil {
		return clause.Expr{}, err
	}
	switch strings.ToLower(strings.TrimSpace(p.Direction)) {
	case "", "asc":
		call.SQL += " ASC"
	case "desc":
		call.SQL += " DESC"
	default:
		return clause.Expr{}, fmt.Errorf("spatial: unsupported order direction %q", p.Direction)
	}
	return call, nil
}

func isNumber(v interface{}) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// ==================== Scopes ====================

// WithDistance selects ST_DISTANCE(column, operand) AS alias next to the
// columns already selected, or next to * when none are.
func WithDistance(column string, operand Operand, alias string) func(*gorm.DB) *gorm.DB {
	return selectScope(Predicate{Func: FuncDistance, Column: column, Operand: &operand, Alias: alias})
}

// WhereDistance filters on ST_DISTANCE(column, operand) <operator> value.
func WhereDistance(column string, operand Operand, operator string, value float64) func(*gorm.DB) *gorm.DB {
	return whereScope(Predicate{Func: FuncDistance, Column: column, Operand: &operand, Operator: operator, Value: value})
}

// OrderByDistance orders by ST_DISTANCE(column, operand). direction is
// "asc" (default) or "desc".
func OrderByDistance(column string, operand Operand, direction string) func(*gorm.DB) *gorm.DB {
	return orderScope(Predicate{Func: FuncDistance, Column: column, Operand: &operand, Direction: direction})
}

func WithDistanceSphere(column string, operand Operand, alias string) func(*gorm.DB) *gorm.DB {
	return selectScope(Predicate{Func: FuncDistanceSphere, Column: column, Operand: &operand, Alias: alias})
}

func WhereDistanceSphere(column string, operand Operand, operator string, value float64) func(*gorm.DB) *gorm.DB {
	return whereScope(Predicate{Func: FuncDistanceSphere, Column: column, Operand: &operand, Operator: operator, Value: value})
}

func OrderByDistanceSphere(column string, operand Operand, direction string) func(*gorm.DB) *gorm.DB {
	return orderScope(Predicate{Func: FuncDistanceSphere, Column: column, Operand: &operand, Direction: direction})
}

func WhereWithin(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncWithin, column, operand)
}

func WhereContains(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncContains, column, operand)
}

func WhereTouches(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncTouches, column, operand)
}

func WhereIntersects(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncIntersects, column, operand)
}

func WhereCrosses(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncCrosses, column, operand)
}

func WhereDisjoint(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncDisjoint, column, operand)
}

func WhereOverlaps(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncOverlaps, column, operand)
}

func WhereEquals(column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return relationScope(FuncEquals, column, operand)
}

// WhereSrid filters on ST_SRID(column) <operator> value.
func WhereSrid(column string, operator string, value int) func(*gorm.DB) *gorm.DB {
	return whereScope(Predicate{Func: FuncSRID, Column: column, Operator: operator, Value: value})
}

func relationScope(fn Func, column string, operand Operand) func(*gorm.DB) *gorm.DB {
	return whereScope(Predicate{Func: fn, Column: column, Operand: &operand})
}

func whereScope(p Predicate) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		expr, err := p.Condition(EngineOf(tx))
		if err != nil {
			tx.AddError(err)
			return tx
		}
		return tx.Where(expr)
	}
}

func selectScope(p Predicate) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		expr, err := p.Selection(EngineOf(tx))
		if err != nil {
			tx.AddError(err)
			return tx
		}
		return addSelect(tx, expr)
	}
}

func orderScope(p Predicate) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		expr, err := p.Ordering(EngineOf(tx))
		if err != nil {
			tx.AddError(err)
			return tx
		}
		return addOrder(tx, expr)
	}
}

// addSelect appends expr to the current select list. Without a select list
// the query keeps every column.
func addSelect(tx *gorm.DB, expr clause.Expr) *gorm.DB {
	base := clause.Expr{SQL: "*"}
	existing, hasExpr := tx.Statement.Clauses["SELECT"].Expression.(clause.Expr)
	switch {
	case hasExpr:
		base = existing
	case len(tx.Statement.Selects) > 0:
		columns := make([]string, len(tx.Statement.Selects))
		for i, name := range tx.Statement.Selects {
			columns[i] = selectColumn(tx.Statement, name)
		}
		base = clause.Expr{SQL: strings.Join(columns, ", ")}
	}

	vars := make([]interface{}, 0, len(base.Vars)+len(expr.Vars))
	vars = append(vars, base.Vars...)
	vars = append(vars, expr.Vars...)
	tx.Statement.AddClause(clause.Select{Distinct: tx.Statement.Distinct, Expression: clause.Expr{
		SQL:  base.SQL + ", " + expr.SQL,
		Vars: vars,
	}})
	return tx
}

// selectColumn renders one Select entry the way gorm's query callback does:
// model fields and plain names are quoted, anything else ("a, b",
// "COUNT(id) AS n") is kept as written.
func selectColumn(stmt *gorm.Statement, name string) string {
	if stmt.Schema != nil {
		if f := stmt.Schema.LookUpField(name); f != nil {
			return stmt.Quote(f.DBName)
		}
	}
	if isPlainName(name) {
		return stmt.Quote(name)
	}
	return name
}

// isPlainName reports whether name is a bare or table-qualified identifier.
func isPlainName(name string) bool {
	if name == "" || name[0] == '.' || name[len(name)-1] == '.' {
		return false
	}
	for _, r := range name {
		switch {
		case r == '_' || r == '.' || r == '$':
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return !strings.Contains(name, "..")
}

// addOrder appends expr to the ORDER BY list. Plain Order calls made after a
// spatial ordering replace it, so spatial orderings go last in a chain.
func addOrder(tx *gorm.DB, expr clause.Expr) *gorm.DB {
	var (
		terms []string
		vars  []interface{}
	)
	if c, ok := tx.Statement.Clauses["ORDER BY"]; ok {
		if existing, ok := c.Expression.(clause.OrderBy); ok {
			if e, ok := existing.Expression.(clause.Expr); ok {
				terms = append(terms, e.SQL)
				vars = append(vars, e.Vars...)
			} else {
				for _, col := range existing.Columns {
					term := col.Column.Name
					if !col.Column.Raw {
						term = tx.Statement.Quote(col.Column)
					}
					if col.Desc {
						term += " DESC"
					}
					terms = append(terms, term)
				}
			}
		}
	}
	terms = append(terms, expr.SQL)
	vars = append(vars, expr.Vars...)

	tx.Statement.AddClause(clause.OrderBy{Expression: clause.Expr{
		SQL:                strings.Join(terms, ", "),
		Vars:               vars,
		WithoutParentheses: true,
	}})
	return tx
}
