package database

import "database/sql"

// InsertBrief inserts or replaces the brief document for a run date.
func (db *DB) InsertBrief(briefDate, document string, itemCount int) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO briefs (brief_date, document, item_count)
		VALUES (?, ?, ?)`,
		briefDate, document, itemCount,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetBrief returns the brief for a run date, or nil.
func (db *DB) GetBrief(briefDate string) (*Brief, error) {
	row := db.conn.QueryRow(
		`SELECT id, brief_date, document, item_count, generated_at
		FROM briefs WHERE brief_date = ?`, briefDate,
	)

	var b Brief
	if err := row.Scan(&b.ID, &b.BriefDate, &b.Document, &b.ItemCount, &b.GeneratedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetAllBriefs returns all briefs ordered by brief_date DESC.
func (db *DB) GetAllBriefs() ([]Brief, error) {
	rows, err := db.conn.Query(
		"SELECT id, brief_date, document, item_count, generated_at FROM briefs ORDER BY brief_date DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var briefs []Brief
	for rows.Next() {
		var b Brief
		if err := rows.Scan(&b.ID, &b.BriefDate, &b.Document, &b.ItemCount, &b.GeneratedAt); err != nil {
			return nil, err
		}
		briefs = append(briefs, b)
	}
	return briefs, rows.Err()
}

// InsertRunReport inserts or replaces the report for a run date.
func (db *DB) InsertRunReport(r RunReport) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT OR REPLACE INTO run_reports (run_date, collected, screened, classified, relevant, exported)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunDate, r.Collected, r.Screened, r.Classified, r.Relevant, r.Exported,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetLastRunDate returns the date of the most recent run report.
// Returns empty string if no runs exist.
func (db *DB) GetLastRunDate() (string, error) {
	row := db.conn.QueryRow(
		"SELECT run_date FROM run_reports ORDER BY run_date DESC LIMIT 1",
	)

	var runDate string
	if err := row.Scan(&runDate); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return runDate, nil
}

// GetStats returns aggregate database statistics.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}

	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM articles", &s.TotalArticles},
		{"SELECT COUNT(*) FROM article_classifications", &s.ClassifiedArticles},
		{"SELECT COUNT(*) FROM article_classifications WHERE relevant = 1", &s.RelevantArticles},
		{"SELECT COUNT(DISTINCT run_date) FROM articles", &s.RunsWithArticles},
		{"SELECT COUNT(*) FROM briefs", &s.Briefs},
	}

	for _, q := range queries {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return nil, err
		}
	}

	return s, nil
}
