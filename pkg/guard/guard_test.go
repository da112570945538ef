package guard

import (
	"strings"
	"testing"

	"github.com/gear6io/sqllab/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAllowed(t *testing.T) {
	queries := []string{
		"SELECT * FROM employees;",
		"select first_name, last_name from employees;",
		"  SELECT COUNT(*) as total_employees FROM employees;  \n",
		"SELECT e.first_name, s.product_name\n  FROM employees e\n  JOIN sales s ON e.employee_id = s.employee_id;",
		"SELECT 1;",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			v := Validate(query)
			assert.True(t, v.Allowed())
			assert.Empty(t, v.Reason())
			assert.NoError(t, v.Err())
		})
	}
}

func TestValidateDangerousKeywords(t *testing.T) {
	tests := []struct {
		query   string
		keyword string
	}{
		{"DROP TABLE employees;", "DROP"},
		{"delete from sales;", "DELETE"},
		{"UPDATE employees SET salary = 0;", "UPDATE"},
		{"INSERT INTO sales VALUES (1);", "INSERT"},
		{"alter table sales add column x;", "ALTER"},
		{"CREATE TABLE t (id int);", "CREATE"},
		{"TRUNCATE sales;", "TRUNCATE"},
		{"SELECT * FROM employees; DROP TABLE employees;", "DROP"},
		// denylist order decides, not position in the text
		{"INSERT INTO t SELECT * FROM x; DELETE FROM y;", "DELETE"},
		{"update t set a = 1 where id in (select id from dropped);", "DROP"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			v := Validate(tt.query)
			require.False(t, v.Allowed())
			assert.Equal(t, "Query contains dangerous keyword: "+tt.keyword, v.Reason())
			assert.Equal(t, tt.keyword, v.Keyword())
		})
	}
}

func TestValidateSubstringFalsePositives(t *testing.T) {
	queries := map[string]string{
		"select * from updates;":                      "UPDATE",
		"SELECT update_count FROM stats;":             "UPDATE",
		"SELECT created_at FROM projects;":            "CREATE",
		"SELECT * FROM sales WHERE note = 'drop it';": "DROP",
		"SELECT 1; -- inserted by hand":               "INSERT",
	}

	for query, keyword := range queries {
		t.Run(query, func(t *testing.T) {
			v := Validate(query)
			require.False(t, v.Allowed())
			assert.Equal(t, keyword, v.Keyword())
		})
	}
}

func TestValidateNotSelect(t *testing.T) {
	queries := []string{
		"",
		"   ",
		";",
		"SHOW TABLES;",
		"WITH x AS (SELECT 1) SELECT * FROM x;",
		"EXPLAIN SELECT * FROM employees;",
		"PRAGMA table_info(employees);",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			v := Validate(query)
			require.False(t, v.Allowed())
			assert.Equal(t, ReasonNotSelect, v.Reason())
			assert.Empty(t, v.Keyword())
		})
	}
}

func TestValidateMissingSemicolon(t *testing.T) {
	for _, query := range []string{
		"SELECT * FROM employees",
		"SELECT * FROM employees;  -- trailing comment",
		"SELECT ';' FROM employees",
	} {
		v := Validate(query)
		require.False(t, v.Allowed(), query)
		assert.Equal(t, ReasonMissingSemicolon, v.Reason(), query)
	}

	assert.True(t, Validate("SELECT * FROM employees;\n\t ").Allowed())
}

func TestVerdictErr(t *testing.T) {
	err := Validate("DROP TABLE employees;").Err()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, ErrQueryRejected))
	assert.Equal(t, "DROP", errors.GetContext(err)["keyword"])
	assert.Equal(t, "Query contains dangerous keyword: DROP", err.Error())

	err = Validate("SELECT 1").Err()
	require.Error(t, err)
	assert.Equal(t, ReasonMissingSemicolon, err.Error())
	assert.NotContains(t, errors.GetContext(err), "keyword")
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allowed", Validate("SELECT 1;").String())
	assert.True(t, strings.HasPrefix(Validate("").String(), "rejected: "))
}

func TestDenylistIsCopy(t *testing.T) {
	list := Denylist()
	require.Equal(t, []string{"DROP", "DELETE", "UPDATE", "INSERT", "ALTER", "CREATE", "TRUNCATE"}, list)

	list[0] = "NOTHING"
	assert.Equal(t, "DROP", Denylist()[0])
	assert.False(t, Validate("DROP TABLE x;").Allowed())
}
