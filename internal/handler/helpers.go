package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/journalkeep/journal-backend/internal/common"
	"github.com/journalkeep/journal-backend/pkg/ginutil"
)

// pathIDs parses the named path parameters as positive ids. On failure a
// 400 is written and ok is false.
func pathIDs(c *gin.Context, names ...string) (ids []uint64, ok bool) {
	ids = make([]uint64, len(names))
	for i, name := range names {
		id, err := ginutil.ParamID(c, name)
		if err != nil {
			common.V2ErrorResponse(c, http.StatusBadRequest, "Invalid "+name, nil)
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// bindJSON binds the request body, writing a 400 with validation details on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		common.V2ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}
