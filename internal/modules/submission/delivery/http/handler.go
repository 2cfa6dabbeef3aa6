package handler

import (
	"net/http"

	submission "anoa.com/campusadmin/internal/modules/submission/service"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/response"
	"github.com/gin-gonic/gin"
)

type SubmissionHandler struct {
	service        submission.SubmissionService
	maxUploadBytes int64
}

func NewSubmissionHandler(service submission.SubmissionService, maxUploadBytes int64) *SubmissionHandler {
	return &SubmissionHandler{service: service, maxUploadBytes: maxUploadBytes}
}

func (h *SubmissionHandler) Submit(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	subjectID, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	response.LimitBody(c, h.maxUploadBytes)
	headers, ok := response.FormFiles(c, "file")
	if !ok {
		return
	}
	files, closeFiles, err := response.OpenFiles(headers)
	if err != nil {
		response.ResponseError(c, apperror.Validation("Impossible de lire le fichier"))
		return
	}
	defer closeFiles()

	res, err := h.service.Submit(c.Request.Context(), caller, subjectID, files)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *SubmissionHandler) MySubmissions(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.MySubmissions(c.Request.Context(), caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubmissionHandler) StartCorrection(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.StartCorrection(c.Request.Context(), caller, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
