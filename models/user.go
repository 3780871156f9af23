package models

import (
	"context"
	"errors"
	"time"

	"github.com/finsightio/finsight_backend/config"
	"github.com/finsightio/finsight_backend/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID  `gorm:"primary_key" json:"id"`
	Email        string     `gorm:"size:255;not null;unique" json:"email" binding:"required"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Role         UserRole   `gorm:"size:20;not null;default:user" json:"role"`
	TeamId       *uuid.UUID `gorm:"index" json:"team_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	LastLogin    *time.Time `json:"last_login"`
}

var ErrEmailTaken = errors.New("email already registered")

type NewUser struct {
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     UserRole   `json:"role" binding:"required,oneof=admin user"`
	TeamId   *uuid.UUID `json:"team_id"`
}

type UpdateUserInput struct {
	Email    *string    `json:"email" binding:"omitempty,email"`
	Password *string    `json:"password" binding:"omitempty,min=8"`
	Role     *UserRole  `json:"role" binding:"omitempty,oneof=admin user"`
	TeamId   *uuid.UUID `json:"team_id"`
}

type LoginInfo struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Login checks credentials and issues a signed token. The stored
// last_login update is best-effort and does not fail the login.
func Login(ctx context.Context, email string, password string) (*LoginInfo, error) {

	db := config.GetDB()

	var user User
	if err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Take(&user).Error; err != nil {
		return nil, errors.New("invalid email or password")
	}

	err := utils.ComparePassword(user.PasswordHash, password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}

	token, err := utils.JwtGenerate(user.ID.String(), user.Email, string(user.Role))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", user.ID).Update("last_login", &now).Error; err != nil {
		config.LogError(config.GetLogger(), "user.go", "Login", "update last_login", user.ID, err)
	}
	user.LastLogin = &now

	return &LoginInfo{Token: token, User: user}, nil
}

func GetUsers(ctx context.Context) ([]User, error) {
	db := config.GetDB()
	var users []User
	if err := db.WithContext(ctx).Order("created_at").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func GetUserById(ctx context.Context, id uuid.UUID) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &user, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		TeamId:       input.TeamId,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return &user, nil
}

func UpdateUser(ctx context.Context, id uuid.UUID, input *UpdateUserInput) (*User, error) {
	db := config.GetDB()

	user, err := GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Password != nil {
		hash, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		updates["password_hash"] = string(hash)
	}
	if input.Role != nil {
		updates["role"] = *input.Role
	}
	if input.TeamId != nil {
		updates["team_id"] = input.TeamId
	}
	if len(updates) == 0 {
		return user, nil
	}

	if err := db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return GetUserById(ctx, id)
}

func DeleteUser(ctx context.Context, id uuid.UUID) error {
	db := config.GetDB()
	result := db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
