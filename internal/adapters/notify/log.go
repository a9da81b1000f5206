package notify

import (
	"context"

	"pet-placement/internal/ports/notify"

	"go.uber.org/zap"
)

// LogNotifier se usa cuando no hay Redis configurado.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, c notify.Change) {
	n.log.Debug("change",
		zap.String("entity", c.Entity),
		zap.String("entity_id", c.EntityID),
		zap.String("request_id", c.RequestID),
		zap.String("event", c.Event),
		zap.Strings("recipients", c.Recipients),
	)
}
