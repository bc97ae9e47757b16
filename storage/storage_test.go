package storage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, KeyToken); err != nil || ok {
		t.Fatalf("Get on empty store: ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, KeyToken, "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, KeyToken)
	if err != nil || !ok || v != "abc" {
		t.Fatalf("Get = %q, %v, %v; want abc, true, nil", v, ok, err)
	}
	if err := s.Remove(ctx, KeyToken); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := s.Remove(ctx, KeyToken); err != nil {
		t.Fatalf("Remove missing key: %v", err)
	}
	if _, ok, _ := s.Get(ctx, KeyToken); ok {
		t.Fatalf("key still present after Remove")
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	exerciseStore(t, s)
	if n := s.Len(); n != 0 {
		t.Fatalf("Len after Remove = %d", n)
	}
	_ = s.Set(context.Background(), KeyToken, "a")
	_ = s.Set(context.Background(), KeyUserInfo, "b")
	if n := s.Len(); n != 2 {
		t.Fatalf("Len = %d, want 2", n)
	}
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.json")
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if s.Path() != path {
		t.Fatalf("Path = %q, want %q", s.Path(), path)
	}
	exerciseStore(t, s)
}

func TestFile_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	s, err := NewFile(path)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := s.Set(context.Background(), KeyUserInfo, `{"name":"a"}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s2, err := NewFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	v, ok, _ := s2.Get(context.Background(), KeyUserInfo)
	if !ok || v != `{"name":"a"}` {
		t.Fatalf("reopened value = %q, %v", v, ok)
	}
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisWithClient(client, "bid:")
	exerciseStore(t, s)

	if err := s.Set(context.Background(), KeyToken, "t"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := mr.Get("bid:token"); err != nil || got != "t" {
		t.Fatalf("prefixed key = %q, %v", got, err)
	}
}

func TestNewRedis_Validation(t *testing.T) {
	if _, err := NewRedis(RedisConfig{Port: 6379}); err != ErrHostRequired {
		t.Fatalf("expected ErrHostRequired, got %v", err)
	}
	if _, err := NewRedis(RedisConfig{Host: "localhost", Port: 70000}); err != ErrInvalidPort {
		t.Fatalf("expected ErrInvalidPort, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	port, _ := strconv.Atoi(mr.Port())

	cases := []struct {
		name string
		cfg  Config
	}{
		{name: "default", cfg: Config{}},
		{name: "memory", cfg: Config{Driver: DriverMemory}},
		{name: "file", cfg: Config{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "store.json")}},
		{name: "redis", cfg: Config{Driver: DriverRedis, Redis: RedisConfig{Host: mr.Host(), Port: port, Prefix: "bid:"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, closeFn, err := Open(tc.cfg)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			t.Cleanup(func() { _ = closeFn() })
			exerciseStore(t, s)
		})
	}

	if _, _, err := Open(Config{Driver: "etcd"}); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
