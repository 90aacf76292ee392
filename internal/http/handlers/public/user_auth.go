package public

import (
	"errors"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// UserProfileResponse 用户信息响应
type UserProfileResponse struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Role    string `json:"role"`
	Status  string `json:"status"`
}

func toProfileResponse(user *models.User) UserProfileResponse {
	return UserProfileResponse{
		ID:      user.ID,
		Email:   user.Email,
		Name:    user.Name,
		Phone:   user.Phone,
		Address: user.Address,
		Role:    user.Role,
		Status:  user.Status,
	}
}

// verifyCaptchaScene 按场景校验验证码，未启用时直接放行
func (h *Handler) verifyCaptchaScene(c *gin.Context, scene string, payload CaptchaPayloadRequest) bool {
	if h.CaptchaService == nil || !h.CaptchaService.SceneEnabled(scene) {
		return true
	}
	if err := h.CaptchaService.Verify(scene, payload.ToServicePayload(), c.ClientIP()); err != nil {
		switch {
		case errors.Is(err, service.ErrCaptchaRequired):
			respondError(c, response.CodeBadRequest, "captcha required", nil)
		case errors.Is(err, service.ErrCaptchaInvalid):
			respondError(c, response.CodeBadRequest, "captcha verification failed", nil)
		default:
			respondError(c, response.CodeInternal, "captcha verification failed", err)
		}
		return false
	}
	return true
}

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	Name           string                `json:"name"`
	Phone          string                `json:"phone"`
	Address        string                `json:"address"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// UserRegister 用户注册
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if !h.verifyCaptchaScene(c, constants.CaptchaSceneRegister, req.CaptchaPayload) {
		return
	}

	user, err := h.AuthService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailInvalid):
			respondError(c, response.CodeBadRequest, "invalid email address", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, response.CodeConflict, "email already registered", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "registration failed", err)
		}
		return
	}

	token, expiresAt, err := h.AuthService.GenerateJWT(user)
	if err != nil {
		respondError(c, response.CodeInternal, "token generation failed", err)
		return
	}

	response.Success(c, gin.H{
		"user":       toProfileResponse(user),
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email          string                `json:"email" binding:"required"`
	Password       string                `json:"password" binding:"required"`
	CaptchaPayload CaptchaPayloadRequest `json:"captcha_payload"`
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if !h.verifyCaptchaScene(c, constants.CaptchaSceneLogin, req.CaptchaPayload) {
		return
	}

	user, token, expiresAt, err := h.AuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
		case errors.Is(err, service.ErrUserDisabled):
			respondError(c, response.CodeForbidden, "account disabled", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"user":       toProfileResponse(user),
		"token":      token,
		"expires_at": expiresAt.Unix(),
	})
}

// GetProfile 获取当前用户信息
func (h *Handler) GetProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.AuthService.GetProfile(uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "profile fetch failed", err)
		}
		return
	}
	response.Success(c, toProfileResponse(user))
}

// UpdateProfileRequest 更新个人信息请求
type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile 更新当前用户信息
func (h *Handler) UpdateProfile(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	user, err := h.AuthService.UpdateProfile(uid, service.UpdateProfileInput{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "profile update failed", err)
		}
		return
	}
	response.Success(c, toProfileResponse(user))
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangePassword 修改当前用户密码
func (h *Handler) ChangePassword(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.AuthService.ChangePassword(uid, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPassword):
			respondError(c, response.CodeBadRequest, "current password incorrect", nil)
		case errors.Is(err, service.ErrWeakPassword):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, "user not found", nil)
		default:
			respondError(c, response.CodeInternal, "password change failed", err)
		}
		return
	}
	response.Success(c, gin.H{"changed": true})
}
