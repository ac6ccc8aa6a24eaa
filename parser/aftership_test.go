package parser_test

import (
	"testing"

	aftership "github.com/AfterShip/clickhouse-sql-parser/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PostHog/posthog-sub001/parser"
)

// Queries written in the ClickHouse-compatible subset of the dialect should
// parse under both this parser and a reference ClickHouse SQL parser.
func TestClickHouseCompatibleQueries(t *testing.T) {
	queries := []string{
		"SELECT 1",
		"SELECT event, count() FROM events GROUP BY event",
		"SELECT DISTINCT user_id FROM events WHERE ts > 0 ORDER BY user_id LIMIT 10",
		"SELECT a, b FROM t1 INNER JOIN t2 ON t1.id = t2.id",
		"SELECT a FROM t1 LEFT JOIN t2 USING (id)",
		"SELECT x FROM events SAMPLE 1/10",
		"SELECT e.x FROM events AS e FINAL",
		"SELECT count() FROM events HAVING count() > 5",
		"SELECT 1 UNION ALL SELECT 2",
		"WITH top AS (SELECT 1) SELECT * FROM top",
		"SELECT sum(x) OVER (PARTITION BY a ORDER BY b) FROM t",
		"SELECT quantile(0.5)(latency) FROM requests",
		"SELECT event FROM events LIMIT 10 OFFSET 5",
		"SELECT arrayJoin([1, 2, 3])",
		"SELECT CASE WHEN a > 1 THEN 'big' ELSE 'small' END FROM t",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			_, err := parser.ParseSelect(query)
			require.NoError(t, err)

			p := aftership.NewParser(query)
			_, refErr := p.ParseStmts()
			assert.NoError(t, refErr, "reference parser rejected the query")
		})
	}
}

// Dialect extensions parse here but are not valid ClickHouse SQL.
func TestDialectOnlyQueries(t *testing.T) {
	queries := []string{
		"SELECT properties.$browser FROM events",
		"SELECT event FROM events WHERE event =~ 'sign.*'",
		"SELECT a ?? b FROM t",
		"SELECT x FROM {table}",
		"SELECT person_id FROM events WHERE person_id IN COHORT 2",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			_, err := parser.ParseSelect(query)
			require.NoError(t, err)
		})
	}
}
