package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/byvoula/salon-booking-service/internal/booking"
	"github.com/byvoula/salon-booking-service/internal/config"
	"github.com/byvoula/salon-booking-service/internal/db"
	redisclient "github.com/byvoula/salon-booking-service/internal/redis"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("completion-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running completion worker in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisBookingLocker(rdb, cfg.LockTTL)
	sched := booking.NewScheduler(repo, locker)

	// Run once at startup
	runOnce(rootCtx, sched)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping completion worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, sched)
		}
	}
}

func runOnce(ctx context.Context, sched *booking.Scheduler) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := sched.CompletePastAppointments(runCtx)
	if err != nil {
		log.Printf("completion run error: %v", err)
		return
	}
	log.Printf("completion run done in %s, %d appointments completed", time.Since(start), n)
}
