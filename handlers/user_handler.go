package handlers

import (
	"net/http"

	"classroom-poll-backend/models"

	"github.com/gin-gonic/gin"
)

// CreateUserInput resolves or creates a user by (name, role).
type CreateUserInput struct {
	Name string      `json:"name" binding:"required,min=2"`
	Role models.Role `json:"role" binding:"required,oneof=TEACHER STUDENT"`
}

// CreateUser is an idempotent get-or-create: posting the same (name, role)
// twice returns the same record.
func CreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := svc.ResolveOrCreateUser(input.Name, input.Role)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetUser looks a user up by name and role; a JSON null when unknown.
func GetUser(c *gin.Context) {
	name := c.Query("name")
	role := models.Role(c.Query("role"))
	if name == "" || (role != models.RoleTeacher && role != models.RoleStudent) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and role (TEACHER|STUDENT) query parameters are required"})
		return
	}

	user, err := svc.FindUser(name, role)
	if err != nil {
		abortWithServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
