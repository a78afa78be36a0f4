package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibook/appointment-scheduling/internal/db"
)

type seededService struct {
	id       int64
	duration int
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, 4)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	services, err := seedServices(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 200); err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedPractitioners(context.Background(), pool, 25, services); err != nil {
		log.Fatalf("seed practitioners: %v", err)
	}

	log.Println("seed complete")
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) ([]seededService, error) {
	type def struct {
		name     string
		price    float64
		duration int
	}
	defs := []def{
		{"General Consultation", 45.00, 30},
		{"Physiotherapy", 60.00, 45},
		{"Dermatology Review", 80.00, 20},
		{"Nutrition Advice", 50.00, 40},
		{"Mental Health Session", 90.00, 50},
		{"Cardiology Check", 120.00, 30},
	}

	log.Printf("seeding %d services", len(defs))

	var result []seededService
	for _, d := range defs {
		var id int64
		err := pool.QueryRow(ctx, `
			INSERT INTO services (name, price, duration_minutes)
			VALUES ($1, $2, $3)
			RETURNING id
		`, d.name, d.price, d.duration).Scan(&id)
		if err != nil {
			return nil, err
		}
		result = append(result, seededService{id: id, duration: d.duration})
	}
	return result, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := fmt.Sprintf("patient%d.%s", i, gofakeit.Email())

		if _, err := tx.Exec(ctx, `
			INSERT INTO users (full_name, email, role)
			VALUES ($1, $2, 'patient')
		`, name, email); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func seedPractitioners(ctx context.Context, pool *pgxpool.Pool, count int, services []seededService) error {
	log.Printf("seeding %d practitioners", count)

	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		name := gofakeit.Name()
		email := fmt.Sprintf("practitioner%d.%s", i, gofakeit.Email())
		svc := services[gofakeit.Number(0, len(services)-1)]

		var userID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO users (full_name, email, role)
			VALUES ($1, $2, 'practitioner')
			RETURNING id
		`, name, email).Scan(&userID); err != nil {
			return err
		}

		var practitionerID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO practitioners (user_id, service_id, bio)
			VALUES ($1, $2, $3)
			RETURNING id
		`, userID, svc.id, gofakeit.Sentence(12)).Scan(&practitionerID); err != nil {
			return err
		}

		// Three to five working days, 09:00 to 15:00-18:00.
		workDays := gofakeit.Number(3, 5)
		for _, day := range days[:workDays] {
			endHour := gofakeit.Number(15, 18)
			if _, err := tx.Exec(ctx, `
				INSERT INTO availability (practitioner_id, day_of_week, start_time, end_time)
				VALUES ($1, $2, $3, $4)
			`, practitionerID, day, "09:00", fmt.Sprintf("%02d:00", endHour)); err != nil {
				return err
			}
		}
	}

	return tx.Commit(ctx)
}
