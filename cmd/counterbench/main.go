// counterbench compares cold counter reads (ledger recount on cache miss)
// against warm reads and the increment-if-present write path.
//
// Requires a reachable Redis (REDIS_ADDR, default localhost:6379). Uses an
// in-memory SQLite ledger unless DATABASE_URL points at PostgreSQL.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/d60-Lab/action-trace/internal/cache"
	"github.com/d60-Lab/action-trace/internal/model"
	"github.com/d60-Lab/action-trace/internal/repository"
)

func main() {
	ctx := context.Background()

	var (
		db  *gorm.DB
		err error
	)
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	} else {
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	}
	mustDo(err)
	mustDo(db.AutoMigrate(&model.Trace{}))

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()
	mustDo(rdb.Ping(ctx).Err())

	const (
		posts         = 200
		likesPerPost  = 500
		readsPerRound = 2000
	)

	fmt.Println("Seeding ledger...")
	traces := repository.NewTraceRepository(db)
	postIDs := make([]string, posts)
	for i := range postIDs {
		postIDs[i] = uuid.NewString()
	}
	batch := make([]model.Trace, 0, 1000)
	now := time.Now()
	for _, pid := range postIDs {
		for j := 0; j < likesPerPost; j++ {
			batch = append(batch, model.Trace{
				ID:           uuid.NewString(),
				Kind:         model.KindLike,
				CreatorID:    fmt.Sprintf("u%06d", j),
				ResourceType: model.ResourcePost,
				ResourceID:   pid,
				Status:       model.TraceStatusActive,
				CreatedAt:    now,
				UpdatedAt:    now,
			})
			if len(batch) == cap(batch) {
				mustDo(db.CreateInBatches(&batch, 1000).Error)
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		mustDo(db.CreateInBatches(&batch, 1000).Error)
	}
	fmt.Printf("Seeded %d likes across %d posts\n", posts*likesPerPost, posts)

	counters := cache.NewCounterCache(rdb, 10*time.Minute)
	mustDo(rdb.FlushDB(ctx).Err())

	readPost := func(pid string) int64 {
		n, err := counters.Read(ctx, cache.StatKey(model.ResourcePost, pid), "like_count", func(ctx context.Context) (int64, error) {
			return traces.Count(ctx, repository.TraceFilter{Kind: model.KindLike, ResourceType: model.ResourcePost, ResourceID: pid})
		})
		mustDo(err)
		return n
	}

	// cold: every read misses and recounts the ledger
	start := time.Now()
	for _, pid := range postIDs {
		readPost(pid)
	}
	cold := time.Since(start)
	fmt.Printf("cold reads: %d in %v (%.1f us/op)\n", posts, cold, float64(cold.Microseconds())/float64(posts))

	// warm: all hashes populated
	start = time.Now()
	for i := 0; i < readsPerRound; i++ {
		readPost(postIDs[i%posts])
	}
	warm := time.Since(start)
	fmt.Printf("warm reads: %d in %v (%.1f us/op)\n", readsPerRound, warm, float64(warm.Microseconds())/float64(readsPerRound))

	// increment-if-present on populated hashes
	start = time.Now()
	for i := 0; i < readsPerRound; i++ {
		pid := postIDs[i%posts]
		mustDo(counters.Increment(ctx, cache.StatKey(model.ResourcePost, pid), "like_count", 1))
	}
	incr := time.Since(start)
	fmt.Printf("increments: %d in %v (%.1f us/op)\n", readsPerRound, incr, float64(incr.Microseconds())/float64(readsPerRound))

	// sanity: cached value tracked every increment
	want := int64(likesPerPost + readsPerRound/posts)
	if got := readPost(postIDs[0]); got != want {
		fmt.Printf("WARN counter drift: got %d want %d\n", got, want)
	}
}

func mustDo(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
