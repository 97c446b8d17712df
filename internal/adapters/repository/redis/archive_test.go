package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/taskflow/taskflow/internal/adapters/repository/repotest"
	"github.com/taskflow/taskflow/internal/core/archive"
)

func redisAddr() string {
	if addr := os.Getenv("TASKFLOW_TEST_REDIS_ADDR"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// TestArchiveSaver requires a running Redis and skips otherwise. Every
// subtest writes under its own random prefix.
func TestArchiveSaver(t *testing.T) {
	client := NewClient(redisAddr(), "", 0)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	repotest.RunSaver(t, func(t *testing.T) archive.Saver {
		prefix := "taskflow-test:" + uuid.NewString() + ":"
		t.Cleanup(func() {
			keys, _ := client.Keys(context.Background(), prefix+"*").Result()
			if len(keys) > 0 {
				client.Del(context.Background(), keys...)
			}
		})
		return NewArchiveSaver(client, nil, prefix)
	})
}

func TestArchiveSaver_Keys(t *testing.T) {
	s := NewArchiveSaver(nil, nil, "")
	assert.Equal(t, "taskflow:archive:record:r1", s.recordKey("r1"))
	assert.Equal(t, "taskflow:archive:idx:all", s.allKey())
	assert.Equal(t, "taskflow:archive:idx:kind:done", s.kindKey(archive.KindDone))
	assert.Equal(t, "taskflow:archive:idx:topic:t1", s.topicKey("t1"))

	custom := NewArchiveSaver(nil, nil, "x:")
	assert.Equal(t, "x:record:r1", custom.recordKey("r1"))
}
