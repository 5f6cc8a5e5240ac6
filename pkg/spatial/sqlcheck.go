package spatial

import (
	"fmt"
	"sync"

	"github.com/pingcap/tidb/pkg/parser"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"
)

// SQLChecker parses generated SQL with the MySQL grammar of the TiDB parser.
// It catches quoting mistakes before a statement reaches the server.
type SQLChecker struct {
	mu     sync.Mutex // parser.Parser is not safe for concurrent use
	parser *parser.Parser
}

func NewSQLChecker() *SQLChecker {
	return &SQLChecker{parser: parser.New()}
}

// CheckStatement returns an error unless sql is exactly one statement.
func (c *SQLChecker) CheckStatement(sql string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stmts, _, err := c.parser.Parse(sql, "", "")
	if err != nil {
		return fmt.Errorf("spatial: invalid SQL: %w", err)
	}
	if len(stmts) != 1 {
		return fmt.Errorf("spatial: expected one statement, got %d", len(stmts))
	}
	return nil
}

// CheckExpression checks a standalone expression such as the output of
// Expression.SQL.
func (c *SQLChecker) CheckExpression(expr string) error {
	return c.CheckStatement("SELECT " + expr)
}
