package entity

import "time"

// Attachment represents a supporting document uploaded against a request
// (agenda, registration confirmation, quotes)
type Attachment struct {
	ID         int64     `json:"id"`
	RequestID  int64     `json:"request_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"-"`
	FileSize   int64     `json:"file_size"`
	MimeType   string    `json:"mime_type"`
	UploadedBy string    `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentFile represents uploaded file content before it is stored
type AttachmentFile struct {
	Content  []byte
	FileName string
	MimeType string
	Size     int64
}
