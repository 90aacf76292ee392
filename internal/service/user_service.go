package service

import (
	"context"

	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"
)

// UserService 后台用户管理服务
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户管理服务
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// List 后台用户列表
func (s *UserService) List(filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(filter)
}

// GetByID 后台用户详情
func (s *UserService) GetByID(id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// UpdateStatus 启用/禁用用户
func (s *UserService) UpdateStatus(id uint, status string) error {
	if status != constants.UserStatusActive && status != constants.UserStatusDisabled {
		return ErrUserStatusInvalid
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.Status == status {
		return nil
	}
	if err := s.userRepo.UpdateStatus(id, status); err != nil {
		return err
	}
	// 鉴权快照立即失效，禁用即刻生效
	_ = cache.DelUserAuthState(context.Background(), id)
	return nil
}
