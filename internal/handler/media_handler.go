package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/internal/middleware"
	"github.com/journalkeep/journal-backend/internal/service"
)

// MediaHandler handles entry attachment endpoints
type MediaHandler struct {
	mediaService *service.MediaService
}

// NewMediaHandler creates a new MediaHandler
func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload handles multipart upload
// POST /api/v1/journals/:journal_id/entries/:entry_id/media (file, description)
// @Summary 미디어 업로드
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Param file formData file true "업로드 파일"
// @Param description formData string false "설명"
// @Success 201 {object} common.V2Response{data=domain.MediaResponse}
// @Failure 400 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/media [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "File is required", nil)
		return
	}

	media, err := h.mediaService.Upload(c.Request.Context(), ids[0], ids[1], file, c.PostForm("description"), middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Created(c, media)
}

// List handles GET /api/v1/journals/:journal_id/entries/:entry_id/media
// @Summary 미디어 목록
// @Tags media
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Success 200 {object} common.V2Response{data=[]domain.MediaResponse}
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/media [get]
func (h *MediaHandler) List(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id")
	if !ok {
		return
	}
	items, err := h.mediaService.List(c.Request.Context(), ids[0], ids[1], middleware.GetUsername(c))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2Success(c, items)
}

// Delete handles DELETE /api/v1/journals/:journal_id/entries/:entry_id/media/:media_id
// @Summary 미디어 삭제
// @Tags media
// @Produce json
// @Param journal_id path int true "저널 ID"
// @Param entry_id path int true "엔트리 ID"
// @Param media_id path int true "미디어 ID"
// @Success 200 {object} common.V2Response
// @Failure 401 {object} common.V2Response
// @Failure 403 {object} common.V2Response
// @Failure 404 {object} common.V2Response
// @Security BearerAuth
// @Router /journals/{journal_id}/entries/{entry_id}/media/{media_id} [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	ids, ok := pathIDs(c, "journal_id", "entry_id", "media_id")
	if !ok {
		return
	}
	if err := h.mediaService.Delete(c.Request.Context(), ids[0], ids[1], ids[2], middleware.GetUsername(c)); err != nil {
		common.HandleError(c, err)
		return
	}
	common.V2NoContent(c)
}
