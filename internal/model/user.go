package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"not null"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Phone    string `json:"phone,omitempty"`
	Password string `json:"-" gorm:"not null"`
	Role     Role   `json:"role,omitempty" gorm:"default:'user'"`

	Properties []Property `json:"-" gorm:"foreignKey:OwnerID"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) GetPublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
		"phone": u.Phone,
		"role":  u.Role,
	}
}

// AllModels lists every table in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Amenity{},
		&Property{},
		&Location{},
		&PropertyImage{},
		&PropertyDocument{},
		&PropertyFeature{},
		&FileCleanup{},
	}
}
