package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		seedUser(db, "admin@caredesk.local", "Admin", "User", "employee", string(hash), "admin")
		seedUser(db, "secretary@caredesk.local", "Front", "Desk", "employee", string(hash), "secretary")
		seedUser(db, "therapist@caredesk.local", "Talk", "Therapist", "employee", string(hash), "therapist")
	},
}

// seedUser inserts a user with one role unless the email is taken.
func seedUser(db *gorm.DB, email, firstName, lastName, userType, hash, role string) {
	var exists int
	row := db.Raw("SELECT 1 FROM users WHERE email = ?", email).Row()
	if err := row.Scan(&exists); err == nil {
		fmt.Println("user already exists, skipping:", email)
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"INSERT INTO users (email, first_name, last_name, password_hash, user_type, created_at, updated_at) VALUES (?, ?, ?, ?, ?, now(), now())",
			email, firstName, lastName, hash, userType,
		).Error; err != nil {
			return err
		}
		return tx.Exec(
			"INSERT INTO user_roles (email, role_name, created_at) VALUES (?, ?, now())",
			email, role,
		).Error
	})
	if err != nil {
		log.Fatalf("failed to seed user %s: %v", email, err)
	}
	fmt.Println("seeded user:", email, "role:", role)
}
