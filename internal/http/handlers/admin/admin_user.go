package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/repository"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminUsers 管理端用户列表
func (h *Handler) GetAdminUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	users, total, err := h.UserService.List(repository.UserListFilter{
		Page:        page,
		PageSize:    pageSize,
		Keyword:     strings.TrimSpace(c.Query("keyword")),
		Role:        strings.TrimSpace(c.Query("role")),
		Status:      strings.TrimSpace(c.Query("status")),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "user list failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"users": users}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAdminUser 管理端用户详情
func (h *Handler) GetAdminUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserService.GetByID(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "user fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{"user": user})
}

// UpdateUserStatusRequest 用户状态更新请求
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateAdminUserStatus 启用/禁用用户，禁用立即使鉴权快照失效
func (h *Handler) UpdateAdminUserStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.UserService.UpdateStatus(id, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		case errors.Is(err, service.ErrUserStatusInvalid):
			respondError(c, response.CodeBadRequest, "invalid user status", nil)
		default:
			respondError(c, response.CodeInternal, "user update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"updated": true})
}
