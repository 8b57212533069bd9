package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"f1-penca/internal/model"
	pkgAuth "f1-penca/pkg/auth"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 6

type Service struct {
	db   *gorm.DB
	cost int
}

type LoginResult struct {
	Token    string     `json:"token"`
	ExpireAt time.Time  `json:"expireAt"`
	User     model.User `json:"user"`
}

type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests lower it.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" || req.Password == "" {
		return nil, appErr.ErrInvalidRegistration
	}
	if len(req.Password) < minPasswordLength {
		return nil, appErr.ErrWeakPassword
	}

	var exists int64
	if err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, appErr.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username: username,
		Email:    email,
		Password: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, appErr.ErrUserAlreadyExists
		}
		return nil, err
	}
	logger.Log.Info("user registered", zap.Int64("userID", user.ID), zap.String("username", username))

	return issue(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, appErr.ErrInvalidCredentials
	}

	var user model.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, appErr.ErrInvalidCredentials
	}

	return issue(user)
}

func (s *Service) UpdatePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return appErr.ErrWeakPassword
	}

	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.ErrUserNotFound
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)); err != nil {
		return appErr.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&user).
		Updates(map[string]interface{}{
			"password":   string(hash),
			"updated_at": time.Now(),
		}).Error; err != nil {
		return err
	}
	logger.Log.Info("user password updated", zap.Int64("userID", userID))
	return nil
}

func issue(user model.User) (*LoginResult, error) {
	token, expireAt, err := pkgAuth.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:    token,
		ExpireAt: expireAt,
		User:     user,
	}, nil
}
