package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/finsightio/finsight_backend/models"
	"github.com/finsightio/finsight_backend/utils"
)

func parseIdParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSONOrReject(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(vErrs)})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

func listCompaniesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		companies, err := models.GetCompanies(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list companies"})
			return
		}
		c.JSON(http.StatusOK, companies)
	}
}

func getCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		company, err := models.GetCompanyById(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load company"})
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

func createCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCompany
		if !bindJSONOrReject(c, &input) {
			return
		}
		company, err := models.CreateCompany(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create company"})
			return
		}
		c.JSON(http.StatusCreated, company)
	}
}

func updateCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		var input models.UpdateCompanyInput
		if !bindJSONOrReject(c, &input) {
			return
		}
		company, err := models.UpdateCompany(c.Request.Context(), id, &input)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update company"})
			return
		}
		c.JSON(http.StatusOK, company)
	}
}

// deleteCompanyHandler removes the company and everything hanging off it
// (statements, metrics, inconsistencies) in one transaction.
func deleteCompanyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIdParam(c)
		if !ok {
			return
		}
		if err := models.DeleteCompany(c.Request.Context(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete company"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}
