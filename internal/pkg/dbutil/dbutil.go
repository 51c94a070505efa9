package dbutil

import (
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var limitRegex = regexp.MustCompile(`(?i)LIMIT\s+\?\s*,\s*\?`)

var bindType = sqlx.QUESTION

// SetDialect configures placeholder rebinding for the active driver.
// Called once from repo.Open before any query runs.
func SetDialect(driver string) {
	if driver == "postgres" {
		bindType = sqlx.DOLLAR
		return
	}
	bindType = sqlx.QUESTION
}

// Finalize rewrites gendry's mysql-flavored "LIMIT ?,?" into the portable
// "LIMIT ? OFFSET ?" form (swapping the two args to match) and rebinds
// placeholders for the active driver.
func Finalize(query string, args []interface{}) (string, []interface{}) {
	loc := limitRegex.FindStringIndex(query)
	if loc != nil {
		prefix := query[:loc[0]]
		qCount := strings.Count(prefix, "?")
		if qCount+1 < len(args) {
			args[qCount], args[qCount+1] = args[qCount+1], args[qCount]
			query = limitRegex.ReplaceAllString(query, "LIMIT ? OFFSET ?")
		}
	}
	if bindType == sqlx.QUESTION {
		return query, args
	}
	return sqlx.Rebind(bindType, query), args
}

func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	if pgErr, ok := err.(*pq.Error); ok {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
