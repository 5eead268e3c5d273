package service

import (
	"context"

	"feedhub/internal/models"
	"feedhub/internal/repository"
	"feedhub/internal/validation"
)

type UserService struct {
	userRepo repository.UserRepository
}

type UpdateStatusInput struct {
	UserID uint
	Status string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateStatus replaces the user's status text. Last write wins; there is no
// conflict detection between concurrent writers. The write targets the
// status column only: a whole-row save of a cache-served user would persist
// its empty password hash.
func (s *UserService) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*models.User, error) {
	if err := validation.ValidateStatus(in.Status); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.userRepo.UpdateStatus(ctx, in.UserID, in.Status); err != nil {
		return nil, err
	}

	return s.userRepo.GetByID(ctx, in.UserID)
}

// OwnedPostIDs lists the IDs of posts the user created. Order is not
// guaranteed; callers needing order should go through the feed.
func (s *UserService) OwnedPostIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.userRepo.OwnedPostIDs(ctx, userID)
}
