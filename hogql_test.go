package hogql_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	hogql "github.com/PostHog/posthog-sub001"
	"github.com/PostHog/posthog-sub001/ast"
	"github.com/PostHog/posthog-sub001/transform"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseExpr(t *testing.T) {
	expr, err := hogql.ParseExpr("properties.$browser = 'Chrome' AND ts > 0")
	require.NoError(t, err)

	and, ok := expr.(*ast.And)
	require.True(t, ok)
	assert.Len(t, and.Exprs, 2)
}

func TestParseSelect(t *testing.T) {
	stmt, err := hogql.ParseSelect("SELECT event, count() FROM events GROUP BY event")
	require.NoError(t, err)

	q, ok := stmt.(*ast.SelectQuery)
	require.True(t, ok)
	assert.Len(t, q.Select, 2)

	stmt, err = hogql.ParseSelect("SELECT 1 UNION ALL SELECT 2")
	require.NoError(t, err)
	_, ok = stmt.(*ast.SelectSetQuery)
	assert.True(t, ok)
}

func TestSyntaxErrors(t *testing.T) {
	_, err := hogql.ParseExpr("1 +")
	assert.Error(t, err)

	_, err = hogql.ParseSelect("SELECT 1 FROM")
	assert.Error(t, err)

	_, err = hogql.ParseSelect("SELECT 1 UNION SELECT 2")
	assert.Error(t, err)
}

func TestTypedErrorsSurface(t *testing.T) {
	_, err := hogql.ParseExpr("a BETWEEN 1 AND 10")
	var unsupported *transform.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "BETWEEN", unsupported.Construct)

	_, err = hogql.ParseExpr("a[0]")
	var valErr *transform.ValidationError
	require.ErrorAs(t, err, &valErr)

	_, err = hogql.ParseSelect("SELECT 1 AS team_id")
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Message, "reserved keyword")
}

func TestConcurrentUse(t *testing.T) {
	queries := []string{
		"SELECT 1",
		"SELECT event FROM events WHERE ts > 0",
		"SELECT count() FROM events GROUP BY event",
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range [100]struct{}{} {
				for _, q := range queries {
					_, err := hogql.ParseSelect(q)
					assert.NoError(t, err)
				}
			}
		}()
	}
	wg.Wait()
}
