package media

import "time"

// VideoRecord is one uploaded video in the match catalog. Records are
// immutable once appended.
type VideoRecord struct {
	ID           string    `json:"id"`
	MatchID      string    `json:"matchId"`
	Title        string    `json:"title,omitempty"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName,omitempty"`
	StoragePath  string    `json:"storagePath"`
	URL          string    `json:"url"`
	ContentType  string    `json:"contentType,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// UploadForm holds the non-file multipart fields of an upload request.
type UploadForm struct {
	MatchID string `validate:"required,max=128"`
	Title   string `validate:"max=256"`
}
