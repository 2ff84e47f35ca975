package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/foodcart-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected stored value, got %q", got)
	}
	if mock.ttls["k"] != time.Minute {
		t.Fatalf("expected ttl to be forwarded, got %v", mock.ttls["k"])
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); !IsNil(err) {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
	if err := client.Del(ctx); err != nil {
		t.Fatalf("empty del should be a no-op, got %v", err)
	}
}

func TestUninitializedClient(t *testing.T) {
	var client *Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error for nil client")
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close on nil client should be a no-op, got %v", err)
	}
}

func TestCartKey(t *testing.T) {
	client := &Client{}
	if got := client.CartKey("sess-1", "currentRestaurant"); got != "fc:cart:sess-1:currentRestaurant" {
		t.Fatalf("unexpected cart key %s", got)
	}
	if got := client.CartKey(" sess-1 ", ""); got != "fc:cart:sess-1" {
		t.Fatalf("expected empty parts to be skipped, got %s", got)
	}
}

func TestNewAgainstMiniredis(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Address: srv.Addr(), PoolSize: 2}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer client.Close()

	if err := client.Set(context.Background(), "fc:probe", "1", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if !srv.Exists("fc:probe") {
		t.Fatal("expected key to be written to redis")
	}
	if ttl := srv.TTL("fc:probe"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error without url or address")
	}
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 3 || opts.PoolSize != 7 {
		t.Fatalf("unexpected options db=%d pool=%d", opts.DB, opts.PoolSize)
	}
}

type mockCmdable struct {
	data map[string]string
	ttls map[string]time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, ok := m.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func TestSetNXOnlyWritesOnce(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	ctx := context.Background()
	key := client.LockKey("cron", "dev")
	if key != "fc:lock:cron:dev" {
		t.Fatalf("unexpected key %q", key)
	}

	ok, err := client.SetNX(ctx, key, "a", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first setnx: ok=%v err=%v", ok, err)
	}
	ok, err = client.SetNX(ctx, key, "b", time.Minute)
	if err != nil || ok {
		t.Fatalf("second setnx: ok=%v err=%v", ok, err)
	}
	if mock.data[key] != "a" || mock.ttls[key] != time.Minute {
		t.Fatalf("unexpected stored value %q ttl %s", mock.data[key], mock.ttls[key])
	}
}

func TestSetManyAndDelIfValue(t *testing.T) {
	srv := miniredis.RunT(t)
	client := NewFromRaw(redis.NewClient(&redis.Options{Addr: srv.Addr()}))
	defer client.Close()
	ctx := context.Background()

	err := client.SetMany(ctx, map[string]any{"fc:a": "1", "fc:b": "2"}, time.Minute)
	if err != nil {
		t.Fatalf("set many: %v", err)
	}
	if got, _ := srv.Get("fc:b"); got != "2" || srv.TTL("fc:a") != time.Minute {
		t.Fatalf("unexpected state b=%q ttl=%s", got, srv.TTL("fc:a"))
	}

	deleted, err := client.DelIfValue(ctx, "fc:a", "other")
	if err != nil || deleted {
		t.Fatalf("mismatched value must not delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = client.DelIfValue(ctx, "fc:a", "1")
	if err != nil || !deleted {
		t.Fatalf("expected delete: deleted=%v err=%v", deleted, err)
	}
	if srv.Exists("fc:a") {
		t.Fatal("key should be gone")
	}
}

func TestConnectionOnlyOperationsNeedRawClient(t *testing.T) {
	client := &Client{store: newMockCmdable()}
	if err := client.SetMany(context.Background(), map[string]any{"k": "v"}, 0); err == nil {
		t.Fatal("expected error without a connection")
	}
	if _, err := client.DelIfValue(context.Background(), "k", "v"); err == nil {
		t.Fatal("expected error without a connection")
	}
}
