package models

import "gorm.io/gorm"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account. Authors, subscribers and
// shoppers are all users.
type User struct {
	gorm.Model
	Username     string `gorm:"size:150;unique;not null"`
	Email        string `gorm:"size:254;unique;not null"`
	FirstName    string `gorm:"size:150;not null"`
	LastName     string `gorm:"size:150;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:50;not null;default:'user';index"`

	Recipes []Recipe `gorm:"foreignKey:AuthorID"`
}

// IsAdmin reports whether the user may manage reference data and any recipe.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
