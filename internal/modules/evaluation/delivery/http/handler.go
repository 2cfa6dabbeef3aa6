package handler

import (
	"net/http"

	"anoa.com/campusadmin/internal/modules/evaluation/dto"
	subject "anoa.com/campusadmin/internal/modules/evaluation/service"
	"anoa.com/campusadmin/pkg/apperror"
	"anoa.com/campusadmin/pkg/authctx"
	commonDto "anoa.com/campusadmin/pkg/dto"
	"anoa.com/campusadmin/pkg/response"
	"github.com/gin-gonic/gin"
)

type SubjectHandler struct {
	service        subject.SubjectService
	maxUploadBytes int64
}

func NewSubjectHandler(service subject.SubjectService, maxUploadBytes int64) *SubjectHandler {
	return &SubjectHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// bindSubject reads the form and the optional reference file. The returned
// func releases the file.
func (h *SubjectHandler) bindSubject(c *gin.Context) (dto.SubjectInput, *commonDto.UploadedFile, func(), bool) {
	noop := func() {}
	response.LimitBody(c, h.maxUploadBytes)

	var input dto.SubjectInput
	if err := c.ShouldBind(&input); err != nil {
		response.BindError(c, err)
		return input, nil, noop, false
	}

	headers, ok := response.FormFiles(c, "file")
	if !ok {
		return input, nil, noop, false
	}
	if len(headers) > 1 {
		response.ResponseError(c, apperror.Validation("Un seul fichier de référence est accepté"))
		return input, nil, noop, false
	}

	files, closeFiles, err := response.OpenFiles(headers)
	if err != nil {
		response.ResponseError(c, apperror.Validation("Impossible de lire le fichier"))
		return input, nil, noop, false
	}
	if len(files) == 0 {
		return input, nil, closeFiles, true
	}
	return input, &files[0], closeFiles, true
}

func (h *SubjectHandler) CreateSubject(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	input, file, release, ok := h.bindSubject(c)
	defer release()
	if !ok {
		return
	}

	res, err := h.service.CreateSubject(c.Request.Context(), caller, input, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *SubjectHandler) ListSubjects(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.service.ListSubjects(c.Request.Context(), caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubjectHandler) SearchSubjects(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var query dto.SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.SearchSubjects(c.Request.Context(), caller, query.Q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubjectHandler) GetSubject(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.GetSubject(c.Request.Context(), caller, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubjectHandler) UpdateSubject(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	input, file, release, ok := h.bindSubject(c)
	defer release()
	if !ok {
		return
	}

	res, err := h.service.UpdateSubject(c.Request.Context(), caller, id, input, file)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *SubjectHandler) DeleteSubject(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteSubject(c.Request.Context(), caller, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sujet supprimé"})
}

func (h *SubjectHandler) Grades(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}

	res, err := h.service.Grades(c.Request.Context(), caller, id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
