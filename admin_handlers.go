package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/finsightio/finsight_backend/models"
)

func listTeamsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		teams, err := models.GetTeams(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list teams"})
			return
		}
		c.JSON(http.StatusOK, teams)
	}
}

func createTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var team models.Team
		if !bindJSONOrReject(c, &team) {
			return
		}
		created, err := models.CreateTeam(c.Request.Context(), &team)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create team"})
			return
		}
		c.JSON(http.StatusCreated, created)
	}
}

func listAuditLogsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
		logs, err := models.GetAuditLogs(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list audit logs"})
			return
		}
		c.JSON(http.StatusOK, logs)
	}
}
