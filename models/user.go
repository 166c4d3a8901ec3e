package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/roastery_backend/config"
	"github.com/mmdatafocus/roastery_backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID        string    `gorm:"size:36;primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;unique" json:"username"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

type NewUser struct {
	Username string `json:"username" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginInfo struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expires_at"`
}

/*
caches:
	User:$username
	Token:revoked:$token
*/

// cachedUser keeps the hash, which User hides from JSON.
type cachedUser struct {
	User
	Hash string `json:"hash"`
}

func userCacheKey(username string) string {
	return "User:" + username
}

func revokedTokenKey(token string) string {
	return "Token:revoked:" + token
}

// NormalizeUsername is the stored and cached form of a login name.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	return login(ctx, config.GetDB(), username, password)
}

func login(ctx context.Context, db *gorm.DB, username string, password string) (*LoginInfo, error) {
	username = NormalizeUsername(username)
	var user User

	var cached cachedUser
	exists, err := config.GetRedisObject(userCacheKey(username), &cached)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "Login", "read user cache", username, err)
		exists = false
	}
	if exists {
		user = cached.User
		user.Password = cached.Hash
	} else {
		if err := db.WithContext(ctx).Where("username = ?", username).Take(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidLogin
			}
			return nil, err
		}
	}

	if err := utils.ComparePassword(user.Password, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := config.SetRedisObject(userCacheKey(user.Username), &cachedUser{User: user, Hash: user.Password}, utils.TokenLifespan()); err != nil {
			config.LogError(config.GetLogger(), "models", "Login", "write user cache", username, err)
		}
	}

	return &LoginInfo{
		Token:     token,
		Name:      user.Name,
		ExpiresAt: time.Now().Add(utils.TokenLifespan()),
	}, nil
}

// Logout puts the token on the deny-list until it would have expired anyway.
func Logout(ctx context.Context, token string) error {
	return config.SetRedisValue(revokedTokenKey(token), "1", utils.TokenLifespan())
}

func IsTokenRevoked(token string) (bool, error) {
	_, exists, err := config.GetRedisValue(revokedTokenKey(token))
	return exists, err
}

// CreateUser stores a user with a bcrypt-hashed password.
func CreateUser(ctx context.Context, db *gorm.DB, input *NewUser) (*User, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, utils.ProcessValidationErrors(err))
	}
	username := NormalizeUsername(input.Username)

	var count int64
	if err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username %s", ErrDuplicate, username)
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := User{
		ID:       NewId(),
		Username: username,
		Name:     input.Name,
		Password: string(hashedPassword),
		IsActive: true,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ResetPassword replaces the hash and drops the cached copy.
func ResetPassword(ctx context.Context, db *gorm.DB, username string, password string) error {
	username = NormalizeUsername(username)
	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	res := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Update("password", string(hashedPassword))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	return config.RemoveRedisKey(userCacheKey(username))
}
