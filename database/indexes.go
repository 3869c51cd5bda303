package database

import (
	_ "embed"
	"strings"

	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

//go:embed migrations/indexes.sql
var indexSQL string

// ExecuteIndexes creates the indexes gorm tags cannot express, such as the
// partial unique index on active sessions. SQLite only.
func ExecuteIndexes(db *gorm.DB) error {
	for _, stmt := range splitStatements(indexSQL) {
		if err := db.Exec(stmt).Error; err != nil {
			utils.ErrorLogger.Printf("Error executing index statement: %v\nStatement: %s", err, stmt)
			return err
		}
	}

	// Verifikasi index
	var names []string
	db.Raw(`SELECT name FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%'`).Scan(&names)
	for _, name := range names {
		utils.InfoLogger.Debugf("Index verified: %s", name)
	}
	return nil
}

// splitStatements drops comment lines and splits on ';'.
func splitStatements(script string) []string {
	var b strings.Builder
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var out []string
	for _, stmt := range strings.Split(b.String(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
