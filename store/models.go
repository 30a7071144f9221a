package store

import "time"

// Account is a conversation participant, keyed by the Telegram chat/user id.
type Account struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement:false" json:"id"`
	Username     string    `gorm:"column:username" json:"username"`
	FirstName    string    `gorm:"column:first_name" json:"first_name"`
	IsBot        bool      `gorm:"column:is_bot" json:"is_bot"`
	ChatType     string    `gorm:"column:chat_type" json:"chat_type"`
	LanguageCode string    `gorm:"column:language_code" json:"language_code"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the GORM table name.
func (Account) TableName() string { return "accounts" }

// Job is one pending media-to-text conversion. It has no status: it exists
// from enqueue until the worker has finished with it.
type Job struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	MessageID int64     `gorm:"column:message_id" json:"message_id"`
	UserID    int64     `gorm:"column:user_id" json:"user_id"`
	ChatID    int64     `gorm:"column:chat_id" json:"chat_id"`
	Date      time.Time `gorm:"column:date" json:"date"`
	FileID    string    `gorm:"column:file_id" json:"file_id"`
	Duration  int       `gorm:"column:duration" json:"duration"`
	MimeType  string    `gorm:"column:mime_type" json:"mime_type"`
	FileSize  int64     `gorm:"column:file_size" json:"file_size"`
	FileName  string    `gorm:"column:file_name" json:"file_name"`
	FileURL   string    `gorm:"column:file_url" json:"file_url"`
	FilePath  string    `gorm:"column:file_path" json:"file_path"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the GORM table name.
func (Job) TableName() string { return "jobs" }

// CachedResult memoizes a transcript by the SHA-256 of the media bytes.
type CachedResult struct {
	Fingerprint string    `gorm:"column:fingerprint;primaryKey;size:64" json:"fingerprint"`
	ChatID      int64     `gorm:"column:chat_id" json:"chat_id"`
	FileURL     string    `gorm:"column:file_url" json:"file_url"`
	Transcript  string    `gorm:"column:transcript" json:"transcript"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the GORM table name.
func (CachedResult) TableName() string { return "cached_results" }

// Models lists the tables for GORM auto-migration.
func Models() []interface{} {
	return []interface{}{&Account{}, &Job{}, &CachedResult{}}
}
