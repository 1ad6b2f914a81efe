package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/hospital-ai-platform/internal/config"
	"github.com/wolfman30/hospital-ai-platform/internal/retrieval"
)

// seedDoctors is the default roster for a fresh install.
var seedDoctors = []struct {
	name           string
	specialization string
}{
	{"Dr. Asha Verma", "Cardiology"},
	{"Dr. Rohan Iyer", "Neurology"},
	{"Dr. Meera Pillai", "Orthopedics"},
	{"Dr. Kabir Shah", "General Medicine"},
	{"Dr. Nisha Rao", "Pediatrics"},
}

var seedMedicines = []struct {
	name     string
	quantity int
	price    float64
}{
	{"Paracetamol 500mg", 200, 2.50},
	{"Ibuprofen 200mg", 150, 3.75},
	{"Amoxicillin 250mg", 80, 8.00},
	{"Cetirizine 10mg", 120, 1.90},
	{"Omeprazole 20mg", 60, 5.25},
}

func main() {
	knowledgeFile := flag.String("knowledge", "", "optional JSON file of knowledge base documents to load into Redis")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	for _, d := range seedDoctors {
		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (name, specialization, available)
			SELECT $1, $2, TRUE
			WHERE NOT EXISTS (SELECT 1 FROM doctors WHERE name = $1)
		`, d.name, d.specialization)
		if err != nil {
			log.Fatalf("seed doctor %s: %v", d.name, err)
		}
	}
	log.Printf("seeded %d doctors", len(seedDoctors))

	for _, m := range seedMedicines {
		_, err := pool.Exec(ctx, `
			INSERT INTO medicines (name, quantity, price)
			SELECT $1, $2, $3
			WHERE NOT EXISTS (SELECT 1 FROM medicines WHERE name = $1)
		`, m.name, m.quantity, m.price)
		if err != nil {
			log.Fatalf("seed medicine %s: %v", m.name, err)
		}
	}
	log.Printf("seeded %d medicines", len(seedMedicines))

	if *knowledgeFile == "" {
		return
	}

	raw, err := os.ReadFile(*knowledgeFile)
	if err != nil {
		log.Fatalf("read knowledge file: %v", err)
	}
	var docs []retrieval.Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		log.Fatalf("decode knowledge file: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer func() { _ = client.Close() }()

	store := retrieval.NewRedisStore(client)
	if err := store.Append(ctx, docs); err != nil {
		log.Fatalf("load knowledge base: %v", err)
	}
	log.Printf("loaded %d knowledge documents", len(docs))
}
