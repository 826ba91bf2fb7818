package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/byvoula/salon-booking-service/internal/config"
	"github.com/byvoula/salon-booking-service/internal/db"
)

// The simulator floods the API with concurrent booking attempts for a small
// set of employees on the same day, to observe how many conflicting requests
// get through versus rejected. Expected outcome: zero double bookings.

type SimConfig struct {
	APIBaseURL        string
	Duration          time.Duration
	Workers           int
	BookingRatio      float64
	AvailabilityRatio float64
	ListRatio         float64
	ClientLimit       int
	EmployeeLimit     int
	PostgresDSN       string
}

type service struct {
	ID              uuid.UUID
	DurationMinutes int
}

type DataPool struct {
	Clients   []uuid.UUID
	Employees []uuid.UUID
	Services  []service
	Day       time.Time
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Metrics struct {
	Booking      OperationMetrics
	Availability OperationMetrics
	ListByClient OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f availability=%.2f list=%.2f",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.AvailabilityRatio, cfg.ListRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("loaded: %d clients, %d employees, %d services, target day %s",
		len(dataPool.Clients), len(dataPool.Employees), len(dataPool.Services),
		dataPool.Day.Format("2006-01-02"))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:        getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:          getDuration("SIM_DURATION", 30*time.Second),
		Workers:           getInt("SIM_WORKERS", 10),
		BookingRatio:      getFloat("SIM_BOOKING_RATIO", 0.5),
		AvailabilityRatio: getFloat("SIM_AVAILABILITY_RATIO", 0.3),
		ListRatio:         getFloat("SIM_LIST_RATIO", 0.2),
		ClientLimit:       getInt("SIM_CLIENT_LIMIT", 1000),
		EmployeeLimit:     getInt("SIM_EMPLOYEE_LIMIT", 5),
		PostgresDSN:       baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.AvailabilityRatio + cfg.ListRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.AvailabilityRatio /= total
		cfg.ListRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{
		// Book against tomorrow so the past-appointment rule never interferes.
		Day: time.Now().AddDate(0, 0, 1),
	}

	rows, err := pool.Query(ctx, `SELECT id FROM clients LIMIT $1`, cfg.ClientLimit)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Clients = append(dataPool.Clients, id)
	}
	rows.Close()

	rows, err = pool.Query(ctx, `SELECT id FROM employees WHERE is_active LIMIT $1`, cfg.EmployeeLimit)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Employees = append(dataPool.Employees, id)
	}
	rows.Close()

	rows, err = pool.Query(ctx, `SELECT id, duration_minutes FROM services WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	for rows.Next() {
		var s service
		if err := rows.Scan(&s.ID, &s.DurationMinutes); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Services = append(dataPool.Services, s)
	}
	rows.Close()

	if len(dataPool.Clients) == 0 {
		return nil, fmt.Errorf("no clients loaded")
	}
	if len(dataPool.Employees) == 0 {
		return nil, fmt.Errorf("no employees loaded")
	}
	if len(dataPool.Services) == 0 {
		return nil, fmt.Errorf("no services loaded")
	}

	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.AvailabilityRatio:
				s.doAvailability(ctx, rng)
			default:
				s.doListByClient(ctx, rng)
			}
		}
	}
}

// randomStart picks a quarter-hour start between 09:00 and 18:00 on the
// target day. A narrow range keeps contention high, which is the point.
func (s *Simulator) randomStart(rng *rand.Rand) time.Time {
	day := s.pool.Day
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
	quarter := rng.Intn((18-9)*4 + 1)
	return midnight.Add(9*time.Hour + time.Duration(quarter)*15*time.Minute)
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	clientID := s.pool.Clients[rng.Intn(len(s.pool.Clients))]
	employeeID := s.pool.Employees[rng.Intn(len(s.pool.Employees))]
	svc := s.pool.Services[rng.Intn(len(s.pool.Services))]

	start := time.Now()

	reqBody := map[string]string{
		"client_id":       clientID.String(),
		"employee_id":     employeeID.String(),
		"service_id":      svc.ID.String(),
		"scheduled_start": s.randomStart(rng).Format(time.RFC3339),
	}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		switch resp.StatusCode {
		case http.StatusCreated:
			success = true
		case http.StatusConflict, http.StatusBadRequest:
			// slot_unavailable comes back as 400, lock contention as 409;
			// both count as expected rejections, not errors
			conflict = true
		}
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	employeeID := s.pool.Employees[rng.Intn(len(s.pool.Employees))]
	svc := s.pool.Services[rng.Intn(len(s.pool.Services))]

	start := time.Now()

	url := fmt.Sprintf("%s/employees/%s/availability?serviceId=%s&date=%s",
		s.config.APIBaseURL, employeeID, svc.ID, s.pool.Day.Format("2006-01-02"))
	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.Availability.Record(latency, success, false)
}

func (s *Simulator) doListByClient(ctx context.Context, rng *rand.Rand) {
	clientID := s.pool.Clients[rng.Intn(len(s.pool.Clients))]

	start := time.Now()

	url := fmt.Sprintf("%s/appointments?client_id=%s", s.config.APIBaseURL, clientID)
	req, _ := http.NewRequestWithContext(ctx, "GET", url, nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ListByClient.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Availability", &s.metrics.Availability)
	printOperationReport("List by Client", &s.metrics.ListByClient)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failures := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Rejected: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failures > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failures, float64(failures)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
