package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
)

// bindJSON decodes the body and writes a 400 with per-field details on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// bindQuery same as bindJSON for query strings
func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		common.ErrorResponse(c, http.StatusBadRequest, "Dados inválidos", domain.FieldErrorsFrom(verrs))
		return
	}
	common.ErrorResponse(c, http.StatusBadRequest, "Corpo da requisição inválido", nil)
}

// pageParams reads limit/offset; bad values fall back to the defaults
func pageParams(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return domain.ClampPage(limit, offset)
}

func auditMeta(c *gin.Context) domain.AuditMeta {
	return domain.AuditMeta{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

// intParam parses a positive integer path parameter
func intParam(c *gin.Context, name, message string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		common.ErrorResponse(c, http.StatusBadRequest, message, nil)
		return 0, false
	}
	return v, true
}
