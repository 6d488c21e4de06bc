package main

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"profinder/internal/config"
	"profinder/internal/database"
	"profinder/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migrate failed:", err)
	}

	// Cleanup old data (in safe order)
	log.Println("Cleaning old data...")
	for _, table := range []string{"activity_records", "notifications", "service_requests", "professional_profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s failed: %v", table, err)
		}
	}

	// ================== USERS ==================
	log.Println("Creating users...")
	root := mustUser(db, "Super Admin", "root@profinder.dev", "root123", domain.RoleSuperAdmin)

	clients := make([]domain.User, 0, 3)
	for i, name := range []string{"Asha", "Bilal", "Chitra"} {
		clients = append(clients, mustUser(db, name, fmt.Sprintf("client%d@profinder.dev", i+1), "client123", domain.RoleUser))
	}

	// ================== PROFESSIONALS ==================
	log.Println("Creating professionals...")
	type fixture struct {
		name, profession, city, postal string
		experience                     int
		status                         domain.ProfileStatus
	}
	fixtures := []fixture{
		{"Deepak", "plumber", "Pune", "411001", 8, domain.ProfileVerified},
		{"Esha", "electrician", "Mumbai", "400001", 5, domain.ProfileVerified},
		{"Farhan", "carpenter", "Delhi", "110001", 2, domain.ProfilePending},
	}
	var (
		verified []domain.ProfessionalProfile
		pending  domain.ProfessionalProfile
	)
	for i, f := range fixtures {
		u := mustUser(db, f.name, fmt.Sprintf("pro%d@profinder.dev", i+1), "pro123", domain.RoleAdmin)
		p := domain.ProfessionalProfile{
			UserID:     u.ID,
			Profession: f.profession,
			Experience: f.experience,
			City:       f.city,
			PostalCode: f.postal,
			AadharCard: fmt.Sprintf("identity/%d/aadhar_card-seed.png", u.ID),
			Status:     f.status,
		}
		if f.status == domain.ProfileVerified {
			now := time.Now()
			p.DecidedBy = &root.ID
			p.DecidedAt = &now
		}
		if err := db.Create(&p).Error; err != nil {
			log.Fatalf("create profile for %s: %v", f.name, err)
		}
		if f.status == domain.ProfileVerified {
			db.Model(&domain.User{}).Where("id = ?", u.ID).Updates(map[string]any{
				"profession":  f.profession,
				"experience":  f.experience,
				"city":        f.city,
				"postal_code": f.postal,
				"verified":    true,
			})
			verified = append(verified, p)
		} else {
			pending = p
		}
	}

	// ================== REQUESTS ==================
	log.Println("Creating service requests...")
	start := time.Now().AddDate(0, 0, 2).Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 3)
	requests := []domain.ServiceRequest{
		{RequesterID: clients[0].ID, ProfessionalID: verified[0].ID, Title: "Leaking kitchen tap", Description: "Tap drips constantly", Status: domain.RequestPending, Timeline: domain.Timeline{EstimatedDays: 1}},
		{RequesterID: clients[1].ID, ProfessionalID: verified[1].ID, Title: "Rewire living room", Description: "Old wiring, frequent trips", Status: domain.RequestApproved, AdminNotes: "Bring own tools", Timeline: domain.Timeline{EstimatedDays: 3, StartDate: &start, EndDate: &end}},
		{RequesterID: clients[2].ID, ProfessionalID: verified[0].ID, Title: "Bathroom fitting", Description: "Install shower mixer", Status: domain.RequestCompleted, Timeline: domain.Timeline{EstimatedDays: 2}},
	}
	for i := range requests {
		if err := db.Create(&requests[i]).Error; err != nil {
			log.Fatalf("create request: %v", err)
		}
		db.Create(&domain.ActivityRecord{
			ActorID:     requests[i].RequesterID,
			ProfileID:   &requests[i].ProfessionalID,
			RequestID:   &requests[i].ID,
			ActionType:  domain.ActionRequestCreated,
			Description: "seeded request " + requests[i].Title,
		})
	}

	// ================== NOTIFICATIONS ==================
	log.Println("Creating notifications...")
	db.Create(&domain.Notification{
		RecipientID:      root.ID,
		SenderID:         root.ID,
		Type:             domain.NotifAdminVerificationRequest,
		Title:            "New Admin Verification Request",
		Message:          "Farhan has submitted an admin verification request for carpenter profession.",
		RelatedProfileID: &pending.ID,
	})

	log.Println("Seed completed!")
	log.Println("Test accounts:")
	log.Println("Superadmin: root@profinder.dev / root123")
	log.Println("Clients: client1@profinder.dev ... client3@profinder.dev / client123")
	log.Println("Professionals: pro1@profinder.dev ... pro3@profinder.dev / pro123")
}

func mustUser(db *gorm.DB, name, email, password string, role domain.UserRole) domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("hash password:", err)
	}
	u := domain.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "password_hash", "role", "updated_at"}),
	}).Create(&u).Error
	if err != nil {
		log.Fatalf("create user %s: %v", email, err)
	}
	return u
}
