package service

import (
	"errors"
	"strings"

	"classroom-poll-backend/database"
	"classroom-poll-backend/models"

	"gorm.io/gorm"
)

// ResolveOrCreateUser returns the user for a (name, role) pair, creating it
// on first appearance. Get-or-create is idempotent: a concurrent create that
// loses the race on the unique index falls back to the winner's row.
func (s *Service) ResolveOrCreateUser(name string, role models.Role) (*models.User, error) {
	return resolveOrCreateUser(database.DB, name, role)
}

func resolveOrCreateUser(db *gorm.DB, name string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)

	var user models.User
	err := db.Where("name = ? AND role = ?", name, role).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{Name: name, Role: role}
	if err := db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race; the row exists now.
			if err := db.Where("name = ? AND role = ?", name, role).First(&user).Error; err != nil {
				return nil, err
			}
			return &user, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindUser returns the user for a (name, role) pair or nil when unknown.
func (s *Service) FindUser(name string, role models.Role) (*models.User, error) {
	var user models.User
	err := database.DB.Where("name = ? AND role = ?", strings.TrimSpace(name), role).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
