package notify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"pet-placement/internal/ports/notify"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const publishTimeout = 2 * time.Second

// RedisNotifier publica cada Change en Pub/Sub:
//   - <prefix>:<entity>      para quien sigue la entidad
//   - <prefix>:user:<id>     una vez por destinatario
//
// Errores de Redis se loguean y se descartan: la señal es best-effort.
type RedisNotifier struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisNotifier(client *redis.Client, prefix string, log *zap.Logger) *RedisNotifier {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "placement"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisNotifier{client: client, prefix: prefix, log: log}
}

func (n *RedisNotifier) EntityChannel(entity string) string {
	return n.prefix + ":" + entity
}

func (n *RedisNotifier) UserChannel(userID string) string {
	return n.prefix + ":user:" + userID
}

func (n *RedisNotifier) Notify(ctx context.Context, c notify.Change) {
	payload, err := json.Marshal(c)
	if err != nil {
		n.log.Warn("notify: marshal change", zap.Error(err))
		return
	}

	// el request puede haber terminado ya; la publicación no depende de él
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	channels := []string{n.EntityChannel(c.Entity)}
	seen := map[string]struct{}{}
	for _, uid := range c.Recipients {
		uid = strings.TrimSpace(uid)
		if uid == "" {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		channels = append(channels, n.UserChannel(uid))
	}

	pipe := n.client.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		n.log.Warn("notify: redis publish failed",
			zap.String("entity", c.Entity),
			zap.String("entity_id", c.EntityID),
			zap.Error(err),
		)
	}
}
