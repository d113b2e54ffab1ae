package util

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/uniconnect/backend/internal/errors"
	"github.com/uniconnect/backend/internal/models"
	"github.com/uniconnect/backend/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", apperrors.Forbidden("Only admins can delete the group"), http.StatusForbidden, "FORBIDDEN"},
		{"wrapped api error", errors.Join(errors.New("ctx"), apperrors.NotFound("Group")), http.StatusNotFound, "NOT_FOUND"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			RespondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
			assert.NotContains(t, body, "Status")
		})
	}
}

func TestHandleDBError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	assert.False(t, HandleDBError(c, nil, "Group"))
	assert.True(t, HandleDBError(c, repository.ErrNotFound, "Group"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Group not found")
}

func TestRespondSnapshot(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondSnapshot(c, []byte(`[{"_id":"g1"}]`), true)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get(CacheHeader))
	assert.JSONEq(t, `[{"_id":"g1"}]`, w.Body.String())
}

func TestGetUserFromContext(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, ok := GetUserFromContext(c)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c.Set(ContextUserKey, &models.User{ID: "u1"})
	user, ok := GetUserFromContext(c)
	assert.True(t, ok)
	assert.Equal(t, "u1", user.ID)
}

func TestAttachmentType(t *testing.T) {
	assert.Equal(t, models.FileTypeImage, AttachmentType("a.JPG"))
	assert.Equal(t, models.FileTypeVideo, AttachmentType("clip.mov"))
	assert.Equal(t, models.FileTypePDF, AttachmentType("notes.pdf"))
	assert.Equal(t, models.FileTypePPT, AttachmentType("deck.pptx"))
	assert.Equal(t, models.FileTypeNone, AttachmentType("archive.zip"))
	assert.True(t, IsImageFile("me.png"))
}

func TestValidateFilename(t *testing.T) {
	assert.NoError(t, ValidateFilename("notes.pdf"))
	assert.Error(t, ValidateFilename(""))
	assert.Error(t, ValidateFilename("../etc/passwd"))
}
