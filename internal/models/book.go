package models

// Book is one decoded catalog entry.
//
// Empty strings and zero numbers mean the source entry did not carry the field.
type Book struct {
	Key              string `json:"key,omitempty"`
	Title            string `json:"title"`
	Author           string `json:"author,omitempty"`
	CoverID          int64  `json:"cover_id,omitempty"`
	CoverURL         string `json:"cover_url,omitempty"`
	FirstPublishYear int    `json:"first_publish_year,omitempty"`
}

func (b Book) HasAuthor() bool { return b.Author != "" }

func (b Book) HasCover() bool { return b.CoverURL != "" }

// DisplayTitle returns the title or a placeholder for untitled entries.
func (b Book) DisplayTitle() string {
	if b.Title == "" {
		return "(untitled)"
	}
	return b.Title
}

// DisplayAuthor returns the author or a placeholder when unknown.
func (b Book) DisplayAuthor() string {
	if b.Author == "" {
		return "Unknown author"
	}
	return b.Author
}
