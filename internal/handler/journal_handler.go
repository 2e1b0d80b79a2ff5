package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/service"
)

// JournalHandler handles journal endpoints
type JournalHandler struct {
	service service.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(s service.JournalService) *JournalHandler {
	return &JournalHandler{service: s}
}

// ListJournals handles GET /api/v1/journals
// @Summary 내 저널 목록
// @Tags journals
// @Produce json
// @Success 200 {object} common.V2Response{data=[]domain.JournalResponse}
// @Failure 401 {object} common.V2Response
// @Security BearerAuth
// @Router /journals [get]
func (h *JournalHandler) ListJournals(c *gin.Context) {
	journals, err := h.service.ListJournals(middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, journals)
}

// CreateJournal handles POST /api/v1/journals
// @Summary 저널 생성
// @Tags journals
// @Accept json
// @Produce json
// @Param request body domain.JournalRequest true "요청 본문"
// @Success 201 {object} common.V2Response{data=domain.JournalResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Security BearerAuth
// @Router /journals [post]
func (h *JournalHandler) CreateJournal(c *gin.Context) {
	var req domain.JournalRequest
	if !bindJSON(c, &req) {
		return
	}
	journal, err := h.service.CreateJournal(&req, middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Created(c, journal)
}

// GetJournal handles GET /api/v1/journals/:journal_id
// @Summary 저널 조회
// @Tags journals
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Success 200 {object} common.V2Response{data=domain.JournalResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id} [get]
func (h *JournalHandler) GetJournal(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	journal, err := h.service.GetJournal(ids[0], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, journal)
}

// UpdateJournal handles PUT /api/v1/journals/:journal_id
// @Summary 저널 수정
// @Tags journals
// @Accept json
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param request body domain.JournalUpdateRequest true "요청 본문"
// @Success 200 {object} common.V2Response{data=domain.JournalResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id} [put]
func (h *JournalHandler) UpdateJournal(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id")
	if !ok {
		return
	}
	var req domain.JournalUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	journal, err := h.service.UpdateJournal(ids[0], &req, middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, journal)
}
