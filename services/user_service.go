package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
	"gorm.io/gorm"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Authenticate checks a phone/password pair. Every failure looks the same to
// the caller.
func (s *UserService) Authenticate(ctx context.Context, phone, password string) (*models.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err, "user", userID)
	}
	return &user, nil
}

// VerifyPassword reports ErrInvalidPassword unless name exists and password
// matches.
func (s *UserService) VerifyPassword(ctx context.Context, name, password string) error {
	return verifyPassword(s.db.WithContext(ctx), name, password)
}

// An unknown name and a wrong password give the same error.
func verifyPassword(tx *gorm.DB, name, password string) error {
	var user models.User
	err := tx.Select("id", "password").Where("name = ?", strings.TrimSpace(name)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("load user: %w", err)
	}
	if !utils.CheckPassword(user.Password, password) {
		return ErrInvalidPassword
	}
	return nil
}
