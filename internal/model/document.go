package model

import "time"

// WordMIME is the exact content type of a .docx payload.
const WordMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// StoredDocument is one entry of the temporary in-memory document store.
// Payload is immutable once the entry is created; re-reading the same ID
// always yields byte-identical content.
type StoredDocument struct {
	ID       string `json:"file_id"`
	Filename string `json:"filename"`
	Payload  []byte `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// DownloadInfo is returned by tools that place a document into the temporary
// store. It mirrors the wire shape {download_url, file_id, filename}.
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	FileID      string `json:"file_id"`
	Filename    string `json:"filename"`
}

// DocumentInfo describes core properties and basic statistics of a document
// on disk.
type DocumentInfo struct {
	Filename       string `json:"filename"`
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	ParagraphCount int    `json:"paragraph_count"`
	TableCount     int    `json:"table_count"`
	WordCount      int    `json:"word_count"`
	SizeBytes      int64  `json:"size_bytes"`
}

// Ingestion is one row of the optional ingestion audit log. It records how a
// payload entered the temporary store; the payload itself is never persisted.
type Ingestion struct {
	ID          string    `json:"id"`
	FileID      string    `json:"file_id"`
	Filename    string    `json:"filename"`
	Source      string    `json:"source"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}
