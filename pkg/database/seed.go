package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/natours/api/internal/constants"
	"github.com/natours/api/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Admin describes the account created by Seed.
type Admin struct {
	Name     string
	Email    string
	Password string
}

// Seed creates the admin account if it does not exist yet. It returns true
// when a row was inserted.
func Seed(db *gorm.DB, admin Admin) (bool, error) {
	if admin.Email == "" || admin.Password == "" {
		return false, errors.New("seed: admin email and password are required")
	}
	email := strings.ToLower(strings.TrimSpace(admin.Email))

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), constants.BcryptCost)
	if err != nil {
		return false, fmt.Errorf("seed: hash password: %w", err)
	}

	user := model.User{
		Name:     admin.Name,
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleAdmin,
		Active:   true,
	}
	if err := db.Create(&user).Error; err != nil {
		return false, err
	}
	return true, nil
}
