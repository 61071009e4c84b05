package postgres

import (
	"context"
	"os"
	"testing"
	"time"
)

// lockTestDB connects to the database named by TEST_DATABASE_URL, skipping
// the test when none is configured.
func lockTestDB(t *testing.T) *DB {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := Connect(context.Background(), Config{
		URL:          url,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAdvisoryLock_SequentialReacquire(t *testing.T) {
	db := lockTestDB(t)
	ctx := context.Background()
	lock := NewAdvisoryLock(db)

	// Acquire, release and reacquire repeatedly on one instance. Each
	// Release must unlock the same session that acquired, so the next
	// Acquire succeeds regardless of which pooled connection it draws.
	for i := 0; i < 5; i++ {
		acquired, err := lock.Acquire(ctx, "run:seq", time.Minute)
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if !acquired {
			t.Fatalf("acquire %d: lock reported held after clean release", i)
		}
		if err := lock.Release(ctx, "run:seq"); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}
}

func TestAdvisoryLock_ExcludesOtherInstance(t *testing.T) {
	db := lockTestDB(t)
	ctx := context.Background()

	holder := NewAdvisoryLock(db)
	contender := NewAdvisoryLock(db)

	acquired, err := holder.Acquire(ctx, "run:excl", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("expected first acquire to succeed")
	}

	got, err := contender.Acquire(ctx, "run:excl", time.Minute)
	if err != nil {
		t.Fatalf("contender acquire: %v", err)
	}
	if got {
		t.Fatal("expected contender to see the lock held")
	}

	if err := holder.Release(ctx, "run:excl"); err != nil {
		t.Fatalf("release: %v", err)
	}

	got, err = contender.Acquire(ctx, "run:excl", time.Minute)
	if err != nil {
		t.Fatalf("contender reacquire: %v", err)
	}
	if !got {
		t.Fatal("expected lock to be free after release")
	}
	if err := contender.Release(ctx, "run:excl"); err != nil {
		t.Fatalf("contender release: %v", err)
	}
}

func TestAdvisoryLock_SameInstanceIsNotReentrant(t *testing.T) {
	db := lockTestDB(t)
	ctx := context.Background()
	lock := NewAdvisoryLock(db)

	acquired, err := lock.Acquire(ctx, "run:reent", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("expected acquire to succeed")
	}

	again, err := lock.Acquire(ctx, "run:reent", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if again {
		t.Fatal("expected second acquire on the holder to report busy")
	}

	if err := lock.Release(ctx, "run:reent"); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestAdvisoryLock_ReleaseWithoutHoldIsNoop(t *testing.T) {
	db := lockTestDB(t)
	lock := NewAdvisoryLock(db)

	if err := lock.Release(context.Background(), "run:never-held"); err != nil {
		t.Fatalf("release of unheld lock: %v", err)
	}
}
