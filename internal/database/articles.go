package database

import (
	"database/sql"
	"time"

	"clinbrief/internal/model"
)

// InsertArticle archives a candidate under a run date. Returns the row ID
// on success, 0 if the URL was already archived by an earlier run.
func (db *DB) InsertArticle(runDate string, c model.Candidate) (int64, error) {
	result, err := db.conn.Exec(
		`INSERT INTO articles (uid, url, title, description, source, search_query, published_date, date_defaulted, run_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Link, c.Title, nullable(c.Description), nullable(c.Source),
		nullable(c.SearchQuery), c.PublishedAt.Format(time.RFC3339), boolInt(c.DateDefaulted), runDate,
	)
	if err != nil {
		// Duplicate URL constraint
		return 0, nil //nolint: nilerr
	}
	return result.LastInsertId()
}

// InsertClassification stores the judgment for an archived article.
func (db *DB) InsertClassification(articleID int64, c model.Classification) error {
	_, err := db.conn.Exec(
		`INSERT OR REPLACE INTO article_classifications
		(article_id, relevant, summary, comment, resources, tag)
		VALUES (?, ?, ?, ?, ?, ?)`,
		articleID, boolInt(c.Relevant), nullable(c.Summary), nullable(c.Comment),
		nullable(c.Resources), nullable(c.Tag),
	)
	return err
}

// GetArticlesForRun returns archived articles for a run date, newest first.
func (db *DB) GetArticlesForRun(runDate string) ([]Article, error) {
	rows, err := db.conn.Query(
		`SELECT id, uid, url, title, description, source, search_query, published_date, date_defaulted, run_date, collected_at
		FROM articles WHERE run_date = ? ORDER BY collected_at DESC`, runDate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetArticleByURL returns a stored article by its URL, or nil.
func (db *DB) GetArticleByURL(url string) (*Article, error) {
	row := db.conn.QueryRow(
		`SELECT id, uid, url, title, description, source, search_query, published_date, date_defaulted, run_date, collected_at
		FROM articles WHERE url = ?`, url,
	)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetClassification returns the stored judgment for an article, or nil.
func (db *DB) GetClassification(articleID int64) (*ArticleClassification, error) {
	row := db.conn.QueryRow(
		`SELECT article_id, relevant, summary, comment, resources, tag, classified_at
		FROM article_classifications WHERE article_id = ?`, articleID,
	)

	var c ArticleClassification
	var relevant int
	err := row.Scan(&c.ArticleID, &relevant, &c.Summary, &c.Comment, &c.Resources, &c.Tag, &c.ClassifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Relevant = relevant != 0
	return &c, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		var a Article
		var defaulted int
		if err := rows.Scan(&a.ID, &a.UID, &a.URL, &a.Title, &a.Description, &a.Source,
			&a.SearchQuery, &a.PublishedDate, &defaulted, &a.RunDate, &a.CollectedAt); err != nil {
			return nil, err
		}
		a.DateDefaulted = defaulted != 0
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func scanArticle(row *sql.Row) (*Article, error) {
	var a Article
	var defaulted int
	if err := row.Scan(&a.ID, &a.UID, &a.URL, &a.Title, &a.Description, &a.Source,
		&a.SearchQuery, &a.PublishedDate, &defaulted, &a.RunDate, &a.CollectedAt); err != nil {
		return nil, err
	}
	a.DateDefaulted = defaulted != 0
	return &a, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
