package model

import "time"

// Candidate is a discovered, not-yet-classified article.
type Candidate struct {
	ID          string
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
	// DateDefaulted is set when the source carried no parseable
	// publication date and PublishedAt was filled with the collection time.
	DateDefaulted bool
	Source        string
	// SearchQuery records which query produced this candidate, when it
	// came from a search source rather than a feed.
	SearchQuery string
}

// Classification is the structured judgment attached by the classifier.
type Classification struct {
	Relevant  bool
	Summary   string
	Comment   string
	Resources string
	Tag       string
}

// Article is a candidate that survived classification.
type Article struct {
	Candidate
	Classification
}
