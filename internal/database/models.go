package database

// Article is a stored article row.
type Article struct {
	ID            int64
	UID           string
	URL           string
	Title         string
	Description   *string
	Source        *string
	SearchQuery   *string
	PublishedDate *string
	DateDefaulted bool
	RunDate       *string
	CollectedAt   *string
}

// ArticleClassification holds the stored judgment for an article.
type ArticleClassification struct {
	ArticleID    int64
	Relevant     bool
	Summary      *string
	Comment      *string
	Resources    *string
	Tag          *string
	ClassifiedAt *string
}

// Brief is a stored brief document for one run date.
type Brief struct {
	ID          int64
	BriefDate   string
	Document    string
	ItemCount   int
	GeneratedAt *string
}

// RunReport holds metadata about a pipeline run.
type RunReport struct {
	ID          int64
	RunDate     string
	Collected   int
	Screened    int
	Classified  int
	Relevant    int
	Exported    int
	GeneratedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles      int
	ClassifiedArticles int
	RelevantArticles   int
	RunsWithArticles   int
	Briefs             int
}
