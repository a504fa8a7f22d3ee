package cache_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/rinkside/internal/cache"
)

func TestResponseKey(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		query url.Values
		want  string
	}{
		{"no query", "/api/v1/games/1/skaters/xg", nil, "rinkside:resp:/api/v1/games/1/skaters/xg"},
		{"sorted params", "/p", url.Values{"strength": {"PP"}, "state": {"5v5", "5v4"}}, "rinkside:resp:/p?state=5v5&state=5v4&strength=PP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cache.ResponseKey(tt.path, tt.query); got != tt.want {
				t.Fatalf("ResponseKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedisCacheReportsConnectionErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	rc := cache.NewRedisCacheFromClient(client)
	defer rc.Close()

	_, hit, err := rc.Get(context.Background(), "k")
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if hit {
		t.Fatal("expected no hit on error")
	}
}
