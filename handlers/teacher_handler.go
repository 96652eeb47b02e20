package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the teacher view: all polls, active polls and
// whether a new one may start.
func GetDashboard(c *gin.Context) {
	teacher := c.Query("teacher")
	if teacher == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "teacher query parameter is required"})
		return
	}

	dashboard, err := svc.GetDashboard(teacher)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// GetParticipants lists students who have voted at least once. An optional
// teacher query narrows the list to that teacher's polls.
func GetParticipants(c *gin.Context) {
	participants, err := svc.Participants(c.Query("teacher"))
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// GetStudentProgress reports how many active polls a student has answered.
func GetStudentProgress(c *gin.Context) {
	student := c.Query("student")
	if student == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student query parameter is required"})
		return
	}

	progress, err := svc.GetStudentProgress(student)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, progress)
}
