package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User 定义了用户模型
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
}

// ErrEmailRequired 在邮箱为空时返回
var ErrEmailRequired = errors.New("email is required")

// NormalizeEmail 去除空白并转为小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EnsureDefaultUser 确保默认用户存在。密码为空时生成随机密码，仅保存 bcrypt 哈希。
func EnsureDefaultUser(gdb *gorm.DB, email, password string) (*User, error) {
	if gdb == nil {
		return nil, errors.New("database not initialized")
	}

	normalized := NormalizeEmail(email)
	if normalized == "" {
		return nil, ErrEmailRequired
	}

	var existing User
	err := gdb.Where("email = ?", normalized).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find default user: %w", err)
	}

	secret := strings.TrimSpace(password)
	if secret == "" {
		secret = uuid.NewString()
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash default user password: %w", err)
	}

	user := User{Email: normalized, PasswordHash: string(hashed)}
	if err := gdb.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create default user: %w", err)
	}
	return &user, nil
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
