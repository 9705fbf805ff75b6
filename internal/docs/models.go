package docs

import "time"

// Document is the persistent metadata record for one published document.
// The body itself lives in the object store at FilePath; images under
// <namespace>/<slug>/images/.
type Document struct {
	ID        string    `json:"id" bson:"id"`
	Title     string    `json:"title" bson:"title"`
	Slug      string    `json:"slug" bson:"slug"`
	FilePath  string    `json:"filePath" bson:"filePath"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
