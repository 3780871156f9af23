package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}

		info, err := models.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			// Same message for unknown email and wrong password.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		c.JSON(http.StatusOK, info)
	}
}

// verifyHandler echoes the claims of a valid token. The frontend uses it to
// restore a session on reload.
func verifyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok || userId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		email, _ := utils.GetUserEmailFromContext(ctx)
		role, _ := utils.GetUserRoleFromContext(ctx)
		c.JSON(http.StatusOK, gin.H{
			"user_id": userId,
			"email":   email,
			"role":    role,
		})
	}
}
