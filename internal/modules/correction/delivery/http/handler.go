package handler

import (
	"net/http"

	"anoa.com/campusadmin/internal/modules/correction/dto"
	correction "anoa.com/campusadmin/internal/modules/correction/service"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/response"
	"github.com/gin-gonic/gin"
)

type CorrectionHandler struct {
	service correction.CorrectionService
}

func NewCorrectionHandler(service correction.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{service: service}
}

func (h *CorrectionHandler) RecordCorrection(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "submissionId")
	if !ok {
		return
	}
	var req dto.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.RecordCorrection(c.Request.Context(), caller, id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RecordAutomated sits behind middleware.RequireCorrectorToken.
func (h *CorrectionHandler) RecordAutomated(c *gin.Context) {
	id, ok := response.ParamUUID(c, "submissionId")
	if !ok {
		return
	}
	var req dto.CorrectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.RecordAutomated(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *CorrectionHandler) StudentResults(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.StudentResults(c.Request.Context(), caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
