package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewRedis(t *testing.T) {
	t.Parallel()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run() error = %v", err)
	}
	t.Cleanup(mr.Close)

	client, err := NewRedis("redis://" + mr.Addr() + "/0")
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	_ = client.Close()
}

func TestNewRedisInvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedis(""); err == nil {
		t.Fatal("expected error for empty url")
	}
	if _, err := NewRedis("http://not-redis"); err == nil {
		t.Fatal("expected error for invalid scheme")
	}
}
