package model

import "time"

// Document represents an uploaded PDF filed under a period.
// It carries JSON tags only; persistence mapping lives in the repositories.
// It can be used across layers (HTTP, service, storage) without coupling to persistence.
type Document struct {
	ID        string `json:"id"`
	OwnerID   string `json:"user_id"`
	OwnerName string `json:"user_name,omitempty"`
	// Locator is the object storage key of the current file.
	Locator   string    `json:"file"`
	Period    time.Time `json:"date"`
	Valid     bool      `json:"valid"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// DownloadURL is a short-lived presigned link, filled on single fetches only.
	DownloadURL string `json:"download_url,omitempty"`
}

// PeriodLayout is the wire format of a document period.
const PeriodLayout = "2006-01-02"

// TruncatePeriod drops the time of day so periods compare as calendar dates.
func TruncatePeriod(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
