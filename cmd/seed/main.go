package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byvoula/salon-booking-service/internal/availability"
	"github.com/byvoula/salon-booking-service/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedServices(context.Background(), pool); err != nil {
		log.Fatalf("seed services: %v", err)
	}
	if err := seedEmployees(context.Background(), pool, 12); err != nil {
		log.Fatalf("seed employees: %v", err)
	}
	if err := seedClients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed clients: %v", err)
	}

	log.Println("seed complete")
}

type serviceSeed struct {
	name            string
	description     string
	durationMinutes int
	price           int64
}

var serviceSeeds = []serviceSeed{
	{"Coiffure Express", "Coupe et brushing adaptes a votre style.", 60, 5000},
	{"Manucure Classique", "Beaute des mains avec vernis classique.", 45, 10000},
	{"Maquillage Soiree", "Maquillage complet pour vos evenements.", 75, 20000},
	{"Coloration", "Coloration complete avec soin.", 90, 15000},
	{"Soin Visage", "Nettoyage et hydratation en profondeur.", 30, 8000},
}

func seedServices(ctx context.Context, pool *pgxpool.Pool) error {
	log.Printf("seeding %d services", len(serviceSeeds))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range serviceSeeds {
		_, err := tx.Exec(ctx, `
			INSERT INTO services (id, name, description, duration_minutes, price, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, true, now(), now())
		`, uuid.New(), s.name, s.description, s.durationMinutes, s.price)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("services seeded")
	return nil
}

func seedEmployees(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d employees", count)

	weekdays := []string{
		availability.Monday,
		availability.Tuesday,
		availability.Wednesday,
		availability.Thursday,
		availability.Friday,
		availability.Saturday,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		email := gofakeit.Email()
		phone := gofakeit.Phone()
		bio := gofakeit.JobDescriptor() + " " + gofakeit.JobLevel()

		_, err := tx.Exec(ctx, `
			INSERT INTO employees (id, first_name, last_name, email, phone, bio, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, true, now(), now())
		`, id, gofakeit.FirstName(), gofakeit.LastName(), email, phone, bio)
		if err != nil {
			return err
		}

		// Three or four working days per employee, 9:00-17:00 or 11:00-19:00.
		days := gofakeit.Number(3, 4)
		shuffled := make([]string, len(weekdays))
		copy(shuffled, weekdays)
		gofakeit.ShuffleStrings(shuffled)
		for _, d := range shuffled[:days] {
			startMinute := 9 * 60
			if gofakeit.Bool() {
				startMinute = 11 * 60
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO employee_schedule (employee_id, day_of_week, start_minute, end_minute)
				VALUES ($1, $2, $3, $4)
			`, id, d, startMinute, startMinute+8*60)
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("employees seeded")
	return nil
}

func seedClients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d clients", count)

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			phone := gofakeit.Phone()
			_, err := tx.Exec(ctx, `
				INSERT INTO clients (id, first_name, last_name, email, phone, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, now(), now())
			`, uuid.New(), gofakeit.FirstName(), gofakeit.LastName(), gofakeit.Email(), phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("clients seeded: %d/%d", end, count)
	}

	log.Println("clients seeded")
	return nil
}
