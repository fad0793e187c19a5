// Command seed loads a small sample data set into the store database:
// users and reviews by direct SQL, since this service has no endpoints for
// them, and stores through the store service so slugs are derived as in
// production.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/StoreFinderGo/internal/config"
	"github.com/utafrali/StoreFinderGo/internal/domain"
	"github.com/utafrali/StoreFinderGo/internal/event"
	"github.com/utafrali/StoreFinderGo/internal/repository/postgres"
	"github.com/utafrali/StoreFinderGo/internal/service"
	"github.com/utafrali/StoreFinderGo/migrations"
	"github.com/utafrali/StoreFinderGo/pkg/database"
	"github.com/utafrali/StoreFinderGo/pkg/logger"
)

type sampleUser struct {
	id, email, name string
}

type sampleStore struct {
	author      int
	name        string
	description string
	tags        []string
	lng, lat    float64
	address     string
	ratings     []int
}

var users = []sampleUser{
	{"7c9e6679-7425-40de-944b-e07fc1f90ae7", "wes@example.com", "Wes"},
	{"1b9d6bcd-bbfd-4b2d-9b5d-ab8dfbbd4bed", "debbie@example.com", "Debbie"},
	{"6ec0bd7f-11c0-43da-975e-2a8ad9ebae0b", "beau@example.com", "Beau"},
}

var stores = []sampleStore{
	{0, "Mulberry Coffeehouse", "Sunny corner cafe with big tables and pour-over coffee.",
		[]string{"Wifi", "Open Late", "Family Friendly"}, -79.8718, 43.2609, "193 James St N, Hamilton", []int{5, 4, 5}},
	{0, "Durand Coffee", "Tiny espresso bar run by people who care about beans.",
		[]string{"Wifi"}, -79.8749, 43.2520, "142 Herkimer St, Hamilton", []int{4, 4}},
	{1, "The Burnt Tongue", "Soup and burgers. Go hungry.",
		[]string{"Family Friendly", "Licensed"}, -79.8687, 43.2553, "10 Cannon St E, Hamilton", []int{5, 5, 3}},
	{1, "Saint James", "Espresso, pastries and a leafy patio.",
		[]string{"Wifi", "Vegetarian"}, -79.8695, 43.2583, "170 James St S, Hamilton", []int{3}},
	{2, "Charred Rotisserie", "Slow roasted chicken and excellent fries.",
		[]string{"Licensed", "Open Late"}, -79.9035, 43.2567, "1010 King St W, Hamilton", []int{4, 2}},
	{2, "Cima Enoteca", "Italian small plates and a long wine list.",
		[]string{"Licensed"}, -79.8532, 43.2511, "1071 Main St E, Hamilton", nil},
	{0, "Democracy Coffee", "Cooperative cafe with board games on the shelf.",
		[]string{"Wifi", "Family Friendly", "Vegetarian"}, -79.8464, 43.2571, "202 Ottawa St N, Hamilton", []int{5, 4}},
	{1, "Bread Bar", "Wood fired pizza and house baked bread.",
		[]string{"Licensed", "Vegetarian"}, -79.8679, 43.2573, "258 James St N, Hamilton", []int{4, 4, 4}},
}

const insertUserSQL = `INSERT INTO users (id, email, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`

const insertReviewSQL = `INSERT INTO reviews (id, store_id, author_id, text, rating, created_at) VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`

func main() {
	force := flag.Bool("force", false, "seed stores even when the table is not empty")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("store-seed", cfg.LogLevel)

	if err := run(context.Background(), cfg, log, *force); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("seed complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, force bool) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	for _, u := range users {
		if _, err := pool.Exec(ctx, insertUserSQL, u.id, u.email, u.name); err != nil {
			return fmt.Errorf("insert user %s: %w", u.email, err)
		}
	}
	log.Info("users seeded", slog.Int("count", len(users)))

	repo := postgres.NewStoreRepository(pool)
	existing, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if existing > 0 && !force {
		log.Info("stores already present, skipping", slog.Int("count", existing))
		return nil
	}

	svc := service.NewStoreService(service.Deps{
		Stores:   repo,
		Searcher: postgres.NewSearcher(pool),
		Users:    postgres.NewUserRepository(pool),
		Reviews:  postgres.NewReviewRepository(pool),
		Events:   event.Nop{},
		Logger:   log,
	}, service.Config{StorageTimeout: cfg.StorageTimeout})

	for _, s := range stores {
		store, err := svc.CreateStore(ctx, users[s.author].id, domain.CreateStoreInput{
			Name:        s.name,
			Description: s.description,
			Tags:        s.tags,
			Location:    domain.NewLocation(domain.Point{Lng: s.lng, Lat: s.lat}, s.address),
		})
		if err != nil {
			return fmt.Errorf("create store %q: %w", s.name, err)
		}
		if err := seedReviews(ctx, pool, store.ID, s.author, s.ratings); err != nil {
			return err
		}
	}
	log.Info("stores seeded", slog.Int("count", len(stores)))
	return nil
}

// seedReviews writes one review per rating, each by a user other than the
// store's author.
func seedReviews(ctx context.Context, pool *pgxpool.Pool, storeID string, author int, ratings []int) error {
	for i, rating := range ratings {
		reviewer := users[(author+1+i)%len(users)]
		if reviewer.id == users[author].id {
			reviewer = users[(author+2)%len(users)]
		}
		created := time.Now().UTC().Add(-time.Duration(len(ratings)-i) * time.Hour)
		text := fmt.Sprintf("%s gives it %d out of %d.", reviewer.name, rating, domain.MaxRating)
		if _, err := pool.Exec(ctx, insertReviewSQL, storeID, reviewer.id, text, rating, created); err != nil {
			return fmt.Errorf("insert review for %s: %w", storeID, err)
		}
	}
	return nil
}
