package database

import (
	"database/sql"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the sqlite3 driver registered with the catalog's SQL functions.
	DriverName = "sqlite3_guka"

	// CaseFoldFunc lowercases TEXT with full Unicode rules. SQLite's LOWER only folds A-Z.
	CaseFoldFunc = "casefold"
)

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(CaseFoldFunc, FoldCase, true)
		},
	})
}

// FoldCase is the Go side of CaseFoldFunc. Search terms must be folded with it so both sides agree.
func FoldCase(text string) string {
	return strings.ToLower(text)
}
