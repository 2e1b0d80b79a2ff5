package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/domain"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/service"
)

// TagHandler handles tag endpoints
type TagHandler struct {
	service service.TagService
}

// NewTagHandler creates a new TagHandler
func NewTagHandler(s service.TagService) *TagHandler {
	return &TagHandler{service: s}
}

// ListTags handles GET /api/v1/tags
// @Summary 내 태그 목록
// @Tags tags
// @Produce json
// @Success 200 {object} common.V2Response{data=[]domain.TagResponse}
// @Failure 401 {object} common.V2Response
// @Security BearerAuth
// @Router /tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.service.ListTags(middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, tags)
}

// CreateTag handles POST /api/v1/tags
// @Summary 태그 생성
// @Tags tags
// @Accept json
// @Produce json
// @Param request body domain.TagRequest true "요청 본문"
// @Success 201 {object} common.V2Response{data=domain.TagResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 409 {object} common.V2Response
// @Security BearerAuth
// @Router /tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req domain.TagRequest
	if !bindJSON(c, &req) {
		return
	}
	tag, err := h.service.CreateTag(&req, middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Created(c, tag)
}

// SearchTags handles GET /api/v1/tags/search?q=
// @Summary 태그 이름 검색
// @Tags tags
// @Produce json
// @Param q query string true "검색어"
// @Success 200 {object} common.V2Response{data=[]domain.TagResponse}
// @Failure 401 {object} common.V2Response
// @Security BearerAuth
// @Router /tags/search [get]
func (h *TagHandler) SearchTags(c *gin.Context) {
	tags, err := h.service.SearchTags(c.Query("q"), middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, tags)
}

// EntriesByTag handles GET /api/v1/tags/:tag_id/entries
// @Summary 태그별 엔트리 목록
// @Tags tags
// @Produce json
// @Param tag_id path int true "태그 ID"
// @Success 200 {object} common.V2Response{data=[]domain.EntryResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /tags/{tag_id}/entries [get]
func (h *TagHandler) EntriesByTag(c *gin.Context) {
	ids, ok := pathIDs(c, "tag_id")
	if !ok {
		return
	}
	entries, err := h.service.GetEntriesByTag(ids[0], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, entries)
}
