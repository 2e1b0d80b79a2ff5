package domain

import "time"

// Tag is a user-scoped label attached to entries and entry versions
type Tag struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:idx_tag_user_name,priority:1" json:"-"`
	Name      string    `gorm:"column:name;size:50;not null;uniqueIndex:idx_tag_user_name,priority:2" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName returns the table name
func (Tag) TableName() string {
	return "tags"
}

// TagRequest creates a tag
type TagRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

// TagResponse is the public view of a tag
type TagResponse struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToResponse converts Tag to TagResponse
func (t *Tag) ToResponse() TagResponse {
	return TagResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

// TagResponses converts a tag set, never returning nil
func TagResponses(tags []*Tag) []TagResponse {
	out := make([]TagResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.ToResponse())
	}
	return out
}

// TagIDs returns the ids of tags in order
func TagIDs(tags []*Tag) []uint64 {
	ids := make([]uint64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}
