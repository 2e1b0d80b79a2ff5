package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPathIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		path   string
		status int
		ids    []uint64
	}{
		{"valid", "/j/3/e/9", http.StatusOK, []uint64{3, 9}},
		{"zero", "/j/0/e/9", http.StatusBadRequest, nil},
		{"negative", "/j/-1/e/9", http.StatusBadRequest, nil},
		{"text", "/j/3/e/abc", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []uint64
			r := gin.New()
			r.GET("/j/:journal_id/e/:entry_id", func(c *gin.Context) {
				ids, ok := pathIDs(c, "journal_id", "entry_id")
				if !ok {
					return
				}
				got = ids
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.ids, got)
		})
	}
}
