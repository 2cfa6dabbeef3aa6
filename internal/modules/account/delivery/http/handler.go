package handler

import (
	"net/http"

	"anoa.com/campusadmin/internal/modules/account/dto"
	account "anoa.com/campusadmin/internal/modules/account/service"
	"anoa.com/campusadmin/pkg/authctx"
	"anoa.com/campusadmin/pkg/response"
	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService account.AccountService
}

func NewAccountHandler(accountService account.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// Department managers

func (h *AccountHandler) CreateManager(c *gin.Context) {
	var input dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.accountService.CreateManager(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AccountHandler) ListManagers(c *gin.Context) {
	res, err := h.accountService.ListManagers(c.Request.Context(), c.Query("search"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) ListAvailableManagers(c *gin.Context) {
	res, err := h.accountService.ListAvailableManagers(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"managers": res, "total": len(res)})
}

func (h *AccountHandler) UpdateManager(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.accountService.UpdateManager(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) DeleteManager(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accountService.DeleteManager(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Responsable supprimé"})
}

// Department staff

func (h *AccountHandler) CreateStaff(c *gin.Context) {
	var input dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.accountService.CreateStaff(c.Request.Context(), caller, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AccountHandler) ListStaff(c *gin.Context) {
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.accountService.ListStaff(c.Request.Context(), caller, c.Query("search"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) UpdateStaff(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input dto.UpdateAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	res, err := h.accountService.UpdateStaff(c.Request.Context(), caller, id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) DeleteStaff(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	caller, err := authctx.From(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	if err := h.accountService.DeleteStaff(c.Request.Context(), caller, id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Utilisateur supprimé"})
}

// School accounts

func (h *AccountHandler) CreateSchoolAccount(c *gin.Context) {
	var input dto.CreateSchoolAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.accountService.CreateSchoolAccount(c.Request.Context(), input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AccountHandler) ListSchoolAccounts(c *gin.Context) {
	var filter dto.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.accountService.ListSchoolAccounts(c.Request.Context(), filter)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) UpdateSchoolAccount(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	var input dto.UpdateSchoolAccountRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	res, err := h.accountService.UpdateSchoolAccount(c.Request.Context(), id, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AccountHandler) DeleteSchoolAccount(c *gin.Context) {
	id, ok := response.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.accountService.DeleteSchoolAccount(c.Request.Context(), id); err != nil {
		response.ResponseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Compte supprimé"})
}
