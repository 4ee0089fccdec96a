package base

import (
	"fmt"
	"strings"
	"time"
)

// RQL builders for the query language shared by the marketplace and FinOps APIs.

const rqlTimeLayout = "2006-01-02T15:04:05Z"

func Eq(field string, value any) string {
	return fmt.Sprintf("eq(%s,%v)", field, value)
}

func Ne(field string, value any) string {
	return fmt.Sprintf("ne(%s,%v)", field, value)
}

func Lt(field string, value any) string {
	return fmt.Sprintf("lt(%s,%v)", field, value)
}

func Le(field string, value any) string {
	return fmt.Sprintf("le(%s,%v)", field, value)
}

func Ge(field string, value any) string {
	return fmt.Sprintf("ge(%s,%v)", field, value)
}

func Gte(field string, value any) string {
	return fmt.Sprintf("gte(%s,%v)", field, value)
}

// Like matches field against a glob pattern, e.g. like(name,USD_*)
func Like(field, pattern string) string {
	return fmt.Sprintf("like(%s,%s)", field, pattern)
}

func And(exprs ...string) string {
	return fmt.Sprintf("and(%s)", strings.Join(exprs, ","))
}

func Or(exprs ...string) string {
	return fmt.Sprintf("or(%s)", strings.Join(exprs, ","))
}

func OrderBy(field string) string {
	return fmt.Sprintf("order_by(%s)", field)
}

func Select(fields ...string) string {
	return "select=" + strings.Join(fields, ",")
}

// Time renders an instant in UTC with second precision
func Time(t time.Time) string {
	return t.UTC().Format(rqlTimeLayout)
}

// Query joins RQL expressions and plain query parameters
func Query(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "&")
}
