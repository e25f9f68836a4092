package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/stemsi/marksheet-backend/internal/config"
	"github.com/stemsi/marksheet-backend/internal/database"
	"github.com/stemsi/marksheet-backend/internal/feed"
	"github.com/stemsi/marksheet-backend/internal/logger"
	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
	"github.com/stemsi/marksheet-backend/internal/repository"
	"github.com/stemsi/marksheet-backend/internal/service"
	"golang.org/x/text/language"
)

var defaultSubjects = []string{"Math", "Science", "English"}

var names = []string{
	"Aarav Sharma", "Ananya Iyer", "Rohan Mehta", "Diya Kapoor", "Vihaan Gupta",
	"Isha Reddy", "Kabir Singh", "Meera Nair", "Arjun Rao", "Saanvi Joshi",
	"Reyansh Das", "Anika Bose", "Aditya Verma", "Kiara Menon", "Ishaan Malhotra",
	"Tara Pillai", "Dhruv Agarwal", "Myra Chatterjee", "Vivaan Kulkarni", "Riya Banerjee",
	"Krish Patel", "Navya Saxena", "Atharv Mishra", "Aadhya Pandey", "Shaurya Jain",
}

func main() {
	var (
		email string
		count int
	)
	flag.StringVar(&email, "email", "", "Email of the existing user recorded as author")
	flag.IntVar(&count, "count", len(names), "Number of students to create")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if email == "" {
		log.Fatal().Msg("-email is required")
	}

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	author, err := repository.NewUserRepository(pool).GetByEmail(ctx, email)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Author not found, run create-user first")
	}

	studentRepo := repository.NewStudentRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	notifier := feed.NewQueueNotifier(rdb, log)
	locale := language.Make(cfg.Locale)

	subjectService := service.NewSubjectService(subjectRepo, notifier, locale, log)
	studentService := service.NewStudentService(studentRepo, subjectRepo, notifier, marks.NewComposerForLocale(cfg.Locale), log)

	fmt.Println("=== Seeding Subjects ===")
	for _, name := range defaultSubjects {
		if _, err := subjectService.Create(ctx, name); err != nil && !errors.Is(err, repository.ErrDuplicateSubject) {
			log.Fatal().Err(err).Str("subject", name).Msg("Failed to create subject")
		}
	}
	subjects, err := subjectService.List(ctx, service.OrderCreated)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load subjects")
	}

	fmt.Printf("=== Seeding %d Students ===\n", count)

	successCount := 0
	for i := 0; i < count; i++ {
		name := names[i%len(names)]
		if i >= len(names) {
			name = fmt.Sprintf("%s %d", name, i/len(names)+1)
		}

		req := model.SaveStudentRequest{
			Name:   name,
			RollNo: fmt.Sprintf("%d", i+1),
			Marks:  randomMarks(subjects),
		}

		if _, err := studentService.Create(ctx, author.ID, req); err != nil {
			fmt.Printf("Error creating student %s (roll %s): %v\n", req.Name, req.RollNo, err)
			continue
		}
		successCount++
		if (i+1)%10 == 0 {
			fmt.Printf("Created %d students...\n", i+1)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d students.\n", successCount, count)
}

// randomMarks scores every subject between 35 and 100.
func randomMarks(subjects []model.Subject) map[string]any {
	m := make(map[string]any, len(subjects))
	for _, s := range subjects {
		m[s.Name] = float64(35 + rand.IntN(66))
	}
	return m
}
