package domain

import "time"

// DateLayout is the wire format of entry dates
const DateLayout = "2006-01-02"

// Entry is the current-state aggregate of a journal entry. It owns its
// version history and points at exactly one current version.
type Entry struct {
	ID               uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	JournalID        uint64     `gorm:"column:journal_id;not null;index:idx_entry_journal_created,priority:1"`
	Title            string     `gorm:"column:title;size:255;not null"`
	Body             string     `gorm:"column:body;type:text;not null"`
	EntryDate        time.Time  `gorm:"column:entry_date;type:date;not null"`
	CurrentVersionID *uint64    `gorm:"column:current_version_id"`
	CreatedAt        time.Time  `gorm:"column:created_at;index:idx_entry_journal_created,priority:2;index:idx_entry_created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime:false"`
	LastEditedAt     time.Time  `gorm:"column:last_edited_at"`
	DeletedAt        *time.Time `gorm:"column:deleted_at;index"`

	// Versions in insertion order
	Versions []*EntryVersion `gorm:"foreignKey:EntryID"`
	// Tags mirrors the tag set of the current version
	Tags []*Tag `gorm:"many2many:entry_tags;"`

	CurrentVersion *EntryVersion `gorm:"-"`
}

// TableName returns the table name
func (Entry) TableName() string {
	return "entries"
}

// EntryVersion is a snapshot of entry content at a point in time
type EntryVersion struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	EntryID       uint64     `gorm:"column:entry_id;not null;index"`
	Title         string     `gorm:"column:title;size:255;not null"`
	Body          string     `gorm:"column:body;type:text;not null"`
	EntryDate     time.Time  `gorm:"column:entry_date;type:date;not null"`
	VersionNumber string     `gorm:"column:version_number;size:64;not null"`
	CreatedBy     uint64     `gorm:"column:created_by;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     *time.Time `gorm:"column:updated_at;autoUpdateTime:false"`
	DeletedAt     *time.Time `gorm:"column:deleted_at;index"`
	IsDeleted     bool       `gorm:"column:is_deleted;not null;default:false"`

	Tags []*Tag `gorm:"many2many:entry_version_tags;"`
}

// TableName returns the table name
func (EntryVersion) TableName() string {
	return "entry_versions"
}

// IsDeleted reports whether the entry is in the recycle bin
func (e *Entry) IsDeleted() bool {
	return e.DeletedAt != nil
}

// LinkCurrentVersion resolves CurrentVersion from CurrentVersionID after a load.
// Falls back to the newest version when the pointer is missing.
func (e *Entry) LinkCurrentVersion() {
	e.CurrentVersion = nil
	if e.CurrentVersionID != nil {
		for _, v := range e.Versions {
			if v.ID == *e.CurrentVersionID {
				e.CurrentVersion = v
				return
			}
		}
	}
	if n := len(e.Versions); n > 0 {
		e.CurrentVersion = e.Versions[n-1]
	}
}

// AppendVersion adds a persisted version to the history and makes it current.
// Versions are never removed or replaced here.
func (e *Entry) AppendVersion(v *EntryVersion) {
	e.Versions = append(e.Versions, v)
	e.CurrentVersion = v
	id := v.ID
	e.CurrentVersionID = &id
	e.syncFromCurrent()
}

// Touch refreshes entry metadata after any update, significant or not
func (e *Entry) Touch(entryDate, now time.Time) {
	e.EntryDate = entryDate
	e.UpdatedAt = now
	e.LastEditedAt = now
	e.syncFromCurrent()
}

func (e *Entry) syncFromCurrent() {
	if e.CurrentVersion == nil {
		return
	}
	e.Title = e.CurrentVersion.Title
	e.Body = e.CurrentVersion.Body
	e.Tags = e.CurrentVersion.Tags
}

// SoftDelete stamps the entry and every version with the same deletion time
func (e *Entry) SoftDelete(now time.Time) {
	ts := now
	e.DeletedAt = &ts
	for _, v := range e.Versions {
		vts := now
		v.DeletedAt = &vts
	}
}

// Restore clears the deletion time on the entry and every version
func (e *Entry) Restore() {
	e.DeletedAt = nil
	for _, v := range e.Versions {
		v.DeletedAt = nil
	}
}

// NewEntry builds an entry with its single initial version
func NewEntry(journalID uint64, title, body string, entryDate time.Time, createdBy uint64, tags []*Tag, now time.Time) *Entry {
	e := &Entry{
		JournalID:    journalID,
		Title:        title,
		Body:         body,
		EntryDate:    entryDate,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastEditedAt: now,
	}
	v := NewEntryVersion(title, body, entryDate, InitialVersion, createdBy, tags, now)
	e.Versions = []*EntryVersion{v}
	e.CurrentVersion = v
	e.Tags = tags
	return e
}

// NewEntryVersion builds an unsaved version snapshot
func NewEntryVersion(title, body string, entryDate time.Time, number string, createdBy uint64, tags []*Tag, now time.Time) *EntryVersion {
	return &EntryVersion{
		Title:         title,
		Body:          body,
		EntryDate:     entryDate,
		VersionNumber: number,
		CreatedBy:     createdBy,
		CreatedAt:     now,
		IsDeleted:     false,
		Tags:          tags,
	}
}

// EntryRequest creates or updates an entry
type EntryRequest struct {
	Title     string   `json:"title" binding:"required,max=255"`
	Body      string   `json:"body" binding:"required"`
	EntryDate string   `json:"entryDate" binding:"required"`
	TagIDs    []uint64 `json:"tagIds"`
}

// ParseEntryDate parses the YYYY-MM-DD entry date as a UTC calendar date
func (r *EntryRequest) ParseEntryDate() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.EntryDate, time.UTC)
}

// EntryResponse is the external view of an entry
type EntryResponse struct {
	ID           uint64        `json:"id"`
	Title        string        `json:"title"`
	Body         string        `json:"body"`
	EntryDate    string        `json:"entryDate"`
	JournalID    uint64        `json:"journalId"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	LastEditedAt time.Time     `json:"lastEditedAt"`
	Tags         []TagResponse `json:"tags"`
}

// EntryVersionResponse is the external view of one history item
type EntryVersionResponse struct {
	ID            uint64        `json:"id"`
	Title         string        `json:"title"`
	Body          string        `json:"body"`
	VersionNumber string        `json:"versionNumber"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     *time.Time    `json:"updatedAt"`
	DeletedAt     *time.Time    `json:"deletedAt"`
	Tags          []TagResponse `json:"tags"`
}

// EntryHistoryResponse is the current view plus the ordered history
type EntryHistoryResponse struct {
	Entry    EntryResponse          `json:"entry"`
	Versions []EntryVersionResponse `json:"versions"`
}

// ToResponse converts Entry to EntryResponse
func (e *Entry) ToResponse() EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		Title:        e.Title,
		Body:         e.Body,
		EntryDate:    e.EntryDate.Format(DateLayout),
		JournalID:    e.JournalID,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		LastEditedAt: e.LastEditedAt,
		Tags:         TagResponses(e.Tags),
	}
}

// ToResponse converts EntryVersion to EntryVersionResponse
func (v *EntryVersion) ToResponse() EntryVersionResponse {
	return EntryVersionResponse{
		ID:            v.ID,
		Title:         v.Title,
		Body:          v.Body,
		VersionNumber: v.VersionNumber,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
		DeletedAt:     v.DeletedAt,
		Tags:          TagResponses(v.Tags),
	}
}

// ToHistoryResponse converts Entry to EntryHistoryResponse
func (e *Entry) ToHistoryResponse() EntryHistoryResponse {
	versions := make([]EntryVersionResponse, 0, len(e.Versions))
	for _, v := range e.Versions {
		versions = append(versions, v.ToResponse())
	}
	return EntryHistoryResponse{
		Entry:    e.ToResponse(),
		Versions: versions,
	}
}

// EntryResponses converts a list of entries
func EntryResponses(entries []*Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToResponse())
	}
	return out
}
