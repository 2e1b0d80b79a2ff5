package domain

import "time"

// Journal groups entries for one user
type Journal struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"column:user_id;not null;index" json:"userId"`
	Title     string    `gorm:"column:title;size:100;not null" json:"title"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the table name
func (Journal) TableName() string {
	return "journals"
}

// OwnedBy reports whether the journal belongs to userID
func (j *Journal) OwnedBy(userID uint64) bool {
	return j.UserID == userID
}

// JournalRequest creates a journal
type JournalRequest struct {
	Title string `json:"title" binding:"required,min=3,max=100"`
}

// JournalUpdateRequest renames a journal
type JournalUpdateRequest struct {
	Title string `json:"title" binding:"required,max=100"`
}

// JournalResponse is the public view of a journal
type JournalResponse struct {
	ID        uint64    `json:"id"`
	Title     string    `json:"title"`
	UserID    uint64    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToResponse converts Journal to JournalResponse
func (j *Journal) ToResponse() JournalResponse {
	return JournalResponse{
		ID:        j.ID,
		Title:     j.Title,
		UserID:    j.UserID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
