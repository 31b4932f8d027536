package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOpenRedis_BadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "http://localhost:6379")
	assert.ErrorContains(t, err, "parse redis url")
}

func TestOpenRedis_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := OpenRedis(ctx, "redis://127.0.0.1:1/0")
	assert.ErrorContains(t, err, "ping redis")
}
