package admin

import (
	"strings"

	"github.com/velora-shop/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAuthzMe 当前管理员的角色列表
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetUserRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// ListAuthzRoles 列出全部角色
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "role list failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// CreateAuthzRoleRequest 创建角色请求
type CreateAuthzRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateAuthzRole 创建角色
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req CreateAuthzRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "role creation failed", err)
		return
	}
	requestLog(c).Infow("authz_role_created", "role", role)
	response.Success(c, gin.H{"role": role})
}

// GetAuthzRolePolicies 角色的策略列表
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "policy fetch failed", err)
		return
	}
	response.Success(c, gin.H{"policies": policies})
}

// AuthzPolicyRequest 授权策略请求
type AuthzPolicyRequest struct {
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GrantAuthzPolicy 为角色授予策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy grant failed", err)
		return
	}
	requestLog(c).Infow("authz_policy_granted", "role", role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"granted": true})
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	role := strings.TrimSpace(c.Param("role"))
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy revoke failed", err)
		return
	}
	requestLog(c).Infow("authz_policy_revoked", "role", role, "object", req.Object, "action", req.Action)
	response.Success(c, gin.H{"revoked": true})
}

// GetAuthzUserRoles 指定用户的角色列表
func (h *Handler) GetAuthzUserRoles(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetUserRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "role fetch failed", err)
		return
	}
	response.Success(c, gin.H{"roles": roles})
}

// SetAuthzUserRolesRequest 设置用户角色请求
type SetAuthzUserRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetAuthzUserRoles 覆盖式设置用户角色
func (h *Handler) SetAuthzUserRoles(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SetAuthzUserRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthzService.SetUserRoles(id, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "role assignment failed", err)
		return
	}
	requestLog(c).Infow("authz_user_roles_set", "user_id", id, "roles", req.Roles)
	response.Success(c, gin.H{"updated": true})
}
