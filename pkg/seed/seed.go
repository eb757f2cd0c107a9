package seed

import (
	"log"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"propertyhub_backend/internal/model"
	"propertyhub_backend/pkg/config"
)

var defaultAmenities = []model.Amenity{
	{Name: "Parking", Icon: "car"},
	{Name: "Lift", Icon: "elevator"},
	{Name: "Power Backup", Icon: "bolt"},
	{Name: "Swimming Pool", Icon: "pool"},
	{Name: "Gym", Icon: "dumbbell"},
	{Name: "Security", Icon: "shield"},
	{Name: "Garden", Icon: "tree"},
	{Name: "Club House", Icon: "home"},
}

var defaultCategories = []string{
	"Residential",
	"Commercial",
	"Agricultural",
	"Industrial",
}

func SeedAmenities(db *gorm.DB) {
	for _, amenity := range defaultAmenities {
		a := amenity
		if err := db.FirstOrCreate(&a, model.Amenity{Name: a.Name}).Error; err != nil {
			log.Printf("Error creating amenity %s: %v", a.Name, err)
		}
	}
}

func SeedCategories(db *gorm.DB) {
	for _, name := range defaultCategories {
		category := model.Category{Name: name, Slug: slug.Make(name)}
		if err := db.FirstOrCreate(&category, model.Category{Name: name}).Error; err != nil {
			log.Printf("Error creating category %s: %v", name, err)
		}
	}
}

// SeedAdmin creates the admin account, or promotes an existing user with the
// same email.
func SeedAdmin(db *gorm.DB, email, password string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return
	}

	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	if err == nil {
		if user.Role != model.RoleAdmin {
			if err := db.Model(&user).Update("role", model.RoleAdmin).Error; err != nil {
				log.Printf("Error promoting %s to admin: %v", email, err)
			}
		}
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Error hashing admin password: %v", err)
		return
	}

	user = model.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Printf("Error creating admin %s: %v", email, err)
		return
	}
	log.Printf("Admin account %s created", email)
}

// Run seeds every reference table.
func Run(db *gorm.DB, cfg config.SeedConfig) {
	if !cfg.Enabled {
		return
	}
	SeedAmenities(db)
	SeedCategories(db)
	SeedAdmin(db, cfg.AdminEmail, cfg.AdminPassword)
	log.Println("Reference data seeded successfully!")
}
