package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Entries table - latest value per dashboard key, grouped by table path
		// such as "Shuffleboard/Vision". Values are JSON documents.
		`CREATE TABLE IF NOT EXISTS entries (
			tbl TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (tbl, key)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_entries_updated_at ON entries(updated_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
