package util

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/uniconnect/backend/internal/repository"
)

// HandleDBError handles repository errors and sends appropriate HTTP responses.
// Returns true if the error was handled (and response was sent), false otherwise
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, repository.ErrNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	RespondError(c, err)
	return true
}
