package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"classroom-poll-backend/service"

	"github.com/gin-gonic/gin"
)

// 全局服务引用
var svc *service.Service

// InitHandler 初始化处理程序，设置服务引用
func InitHandler(s *service.Service) {
	svc = s
	log.Println("投票服务已设置到处理程序")
}

// parsePollID reads the :id URL parameter.
func parsePollID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid poll ID format"})
		return 0, false
	}
	return uint(id), true
}

// abortWithServiceError maps core errors onto HTTP statuses. Conflicts get
// their own status so clients can tell "you already voted" from a failure.
func abortWithServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPollNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPollNotActive), errors.Is(err, service.ErrPollEnded):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidOption), errors.Is(err, service.ErrTooFewOptions),
		errors.Is(err, service.ErrDuplicateOrder):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAlreadyVoted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
