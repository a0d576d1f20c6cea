// Package database provides the SQLite connection and migration runner
// behind the audit trail.
//
// Connections use the mattn/go-sqlite3 driver with a busy timeout and,
// for file-backed databases, WAL journaling. Migrations are plain
// YYYYMMDD_HHMMSS_name.{up,down}.sql files read from any fs.FS, normally
// the one embedded by the migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns are nullable or carry a default.
package database
