package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/service"
)

// EntryHandler handles journal entry endpoints, including versions and the recycle bin
type EntryHandler struct {
	service *service.EntryService
}

// NewEntryHandler creates a new EntryHandler
func NewEntryHandler(s *service.EntryService) *EntryHandler {
	return &EntryHandler{service: s}
}

// ListEntries handles GET /api/v1/journals/:journal_id/entries
// @Summary 엔트리 목록 (삭제 제외)
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Success 200 {object} common.V2Response{data=[]domain.EntryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries [get]
func (h *EntryHandler) ListEntries(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	entries, err := h.service.GetEntriesByJournalID(c.Request.Context(), ids[0], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entries)
}

// CreateEntry handles POST /api/v1/journals/:journal_id/entries
// @Summary 엔트리 작성 (버전 1.0.0 생성)
// @Tags entries
// @Accept json
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param request body domain.EntryRequest true "요청 본문"
// @Success 201 {object} common.V2Response{data=domain.EntryResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries [post]
func (h *EntryHandler) CreateEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	var req domain.EntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.service.CreateEntry(c.Request.Context(), ids[0], &req, middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Created(c, entry)
}

// RecycleBin handles GET /api/v1/journals/:journal_id/entries/recycle-bin
// @Summary 휴지통 목록
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Success 200 {object} common.V2Response{data=[]domain.EntryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/recycle-bin [get]
func (h *EntryHandler) RecycleBin(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	entries, err := h.service.GetRecycleBinEntriesByJournal(c.Request.Context(), ids[0], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entries)
}

// SearchEntries handles GET /api/v1/journals/:journal_id/entries/search?q=
// @Summary 엔트리 전문 검색
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param q query string true "검색어"
// @Success 200 {object} common.V2Response{data=[]domain.EntryResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/search [get]
func (h *EntryHandler) SearchEntries(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	entries, err := h.service.SearchEntries(c.Request.Context(), ids[0], c.Query("q"), middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entries)
}

// GetEntry handles GET /api/v1/journals/:journal_id/entries/:entry_id
// @Summary 엔트리 조회
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response{data=domain.EntryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id} [get]
func (h *EntryHandler) GetEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	entry, err := h.service.GetEntryByID(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entry)
}

// GetEntryTags handles GET /api/v1/journals/:journal_id/entries/:entry_id/tags
// @Summary 엔트리 태그 조회
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response{data=[]domain.TagResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/tags [get]
func (h *EntryHandler) GetEntryTags(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	tags, err := h.service.GetEntryTags(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, tags)
}

// UpdateEntry handles PUT /api/v1/journals/:journal_id/entries/:entry_id
// @Summary 엔트리 수정 (새 버전 생성)
// @Tags entries
// @Accept json
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Param request body domain.EntryRequest true "요청 본문"
// @Success 200 {object} common.V2Response{data=domain.EntryResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id} [put]
func (h *EntryHandler) UpdateEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	var req domain.EntryRequest
	if !bindJSON(c, &req) {
		return
	}
	entry, err := h.service.UpdateEntry(c.Request.Context(), ids[0], ids[1], &req, middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entry)
}

// SoftDeleteEntry handles DELETE /api/v1/journals/:journal_id/entries/:entry_id
// @Summary 엔트리 휴지통 이동
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id} [delete]
func (h *EntryHandler) SoftDeleteEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	if err := h.service.SoftDeleteEntry(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2NoContent(c)
}

// DeleteEntry handles DELETE /api/v1/journals/:journal_id/entries/:entry_id/permanent
// @Summary 엔트리 영구 삭제
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/permanent [delete]
func (h *EntryHandler) DeleteEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	if err := h.service.DeleteEntry(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2NoContent(c)
}

// RestoreEntry handles POST /api/v1/journals/:journal_id/entries/:entry_id/restore
// @Summary 휴지통에서 복원
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response{data=domain.EntryResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/restore [post]
func (h *EntryHandler) RestoreEntry(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	entry, err := h.service.RestoreEntry(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entry)
}

// ListVersions handles GET /api/v1/journals/:journal_id/entries/:entry_id/versions
// @Summary 버전 이력 조회
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response{data=domain.EntryHistoryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/versions [get]
func (h *EntryHandler) ListVersions(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	history, err := h.service.GetEntryVersions(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, history)
}

// RestoreVersion handles POST /api/v1/journals/:journal_id/entries/:entry_id/versions/:version_id/restore
// @Summary 이전 버전으로 복원
// @Tags entries
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Param version_id path int true "버전 ID"
// @Success 200 {object} common.V2Response{data=domain.EntryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/versions/{version_id}/restore [post]
func (h *EntryHandler) RestoreVersion(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id", "version_id")
	if !ok {
		return
	}
	entry, err := h.service.RestoreVersion(c.Request.Context(), ids[0], ids[1], ids[2], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entry)
}
