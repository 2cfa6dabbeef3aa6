package handler

import (
	"net/http"

	"anoa.com/campusadmin/internal/modules/classroom/dto"
	classroom "anoa.com/campusadmin/internal/modules/classroom/service"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/response"
	"github.com/gin-gonic/gin"
)

type ClassroomHandler struct {
	service classroom.ClassroomService
}

func NewClassroomHandler(service classroom.ClassroomService) *ClassroomHandler {
	return &ClassroomHandler{service: service}
}

func (h *ClassroomHandler) CreateClassroom(c *gin.Context) {
	var req dto.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.CreateClassroom(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ClassroomHandler) GetAllClassrooms(c *gin.Context) {
	res, err := h.service.GetAllClassrooms(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClassroomHandler) GetClassroom(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.GetClassroom(c.Request.Context(), id)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClassroomHandler) UpdateClassroom(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.UpdateClassroom(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClassroomHandler) DeleteClassroom(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteClassroom(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Classe supprimée"})
}

func (h *ClassroomHandler) AssignStudents(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.service.AssignStudents(c.Request.Context(), id, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ClassroomHandler) RemoveStudent(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	studentID, ok := response.ParamUUID(c, "studentId")
	if !ok {
		return
	}
	if err := h.service.RemoveStudent(c.Request.Context(), id, studentID); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Étudiant retiré de la classe"})
}

func (h *ClassroomHandler) MyClasses(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	res, err := h.service.MyClasses(c.Request.Context(), caller)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
