package domain

import "time"

// Media is a file attached to an entry. The bytes live in object storage
// under StorageKey.
type Media struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	EntryID          uint64    `gorm:"column:entry_id;not null;index" json:"entryId"`
	StorageKey       string    `gorm:"column:storage_key;size:512;not null" json:"-"`
	Filename         string    `gorm:"column:filename;size:255;not null" json:"filename"`
	OriginalFilename string    `gorm:"column:original_filename;size:255;not null" json:"originalFilename"`
	FileType         string    `gorm:"column:file_type;size:100;not null" json:"fileType"`
	FileSize         int64     `gorm:"column:file_size;not null" json:"fileSize"`
	Description      string    `gorm:"column:description;size:500" json:"description,omitempty"`
	UploadDate       time.Time `gorm:"column:upload_date;not null" json:"uploadDate"`
}

// TableName returns the table name
func (Media) TableName() string {
	return "media"
}

// MediaResponse is the public view of an attachment
type MediaResponse struct {
	ID               uint64    `json:"id"`
	EntryID          uint64    `json:"entryId"`
	Filename         string    `json:"filename"`
	OriginalFilename string    `json:"originalFilename"`
	FileType         string    `json:"fileType"`
	FileSize         int64     `json:"fileSize"`
	Description      string    `json:"description,omitempty"`
	UploadDate       time.Time `json:"uploadDate"`
	URL              string    `json:"url"`
}

// ToResponse converts Media to MediaResponse with a resolved download URL
func (m *Media) ToResponse(url string) MediaResponse {
	return MediaResponse{
		ID:               m.ID,
		EntryID:          m.EntryID,
		Filename:         m.Filename,
		OriginalFilename: m.OriginalFilename,
		FileType:         m.FileType,
		FileSize:         m.FileSize,
		Description:      m.Description,
		UploadDate:       m.UploadDate,
		URL:              url,
	}
}

// AllowedMediaTypes lists accepted upload content types
var AllowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"audio/mpeg": true,
}
