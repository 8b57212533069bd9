package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"f1-penca/internal/model"
	appErr "f1-penca/pkg/errors"
	"f1-penca/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLeaderboardSize = 50
	maxLeaderboardSize     = 200
)

type Service struct {
	db *gorm.DB
}

type UpdateProfileRequest struct {
	Username *string
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Exists reports whether a user row is still present; token holders whose
// account vanished are treated as unauthenticated.
func (s *Service) Exists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) GetProfile(ctx context.Context, userID int64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	updates := map[string]interface{}{}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return nil, appErr.ErrInvalidRegistration
		}
		var taken int64
		if err := s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("username = ? AND id <> ?", username, userID).
			Count(&taken).Error; err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, appErr.ErrUsernameTaken
		}
		updates["username"] = username
	}

	if len(updates) > 0 {
		updates["updated_at"] = time.Now()
		res := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(updates)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
				return nil, appErr.ErrUsernameTaken
			}
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, appErr.ErrUserNotFound
		}
		logger.Log.Info("user profile updated", zap.Int64("userID", userID))
	}

	return s.GetProfile(ctx, userID)
}

func (s *Service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}

	var users []model.User
	if err := s.db.WithContext(ctx).
		Select("id", "username", "points").
		Order("points DESC").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		rank := i + 1
		// equal scores share a rank
		if i > 0 && u.Points == users[i-1].Points {
			rank = entries[i-1].Rank
		}
		entries = append(entries, LeaderboardEntry{
			Rank:     rank,
			UserID:   u.ID,
			Username: u.Username,
			Points:   u.Points,
		})
	}
	return entries, nil
}
