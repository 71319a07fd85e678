//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestRedisStorageIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR is not set")
	}
	ctx := context.Background()
	cli, err := NewRedisClient(ctx, RedisOptions{Addr: addr})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = cli.Close() })

	exerciseStorage(t, NewRedisStorage(cli, "portal-test:"+time.Now().Format("150405.000")+":", time.Minute))
}

func TestMySQLStorageIntegration(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN is not set")
	}
	ctx := context.Background()
	db, err := OpenMySQL(ctx, MySQLOptions{DSN: dsn})
	if err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	storage := NewMySQLStorage(db, "it-"+time.Now().Format("150405.000"))
	if err := storage.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	exerciseStorage(t, storage)
}
