package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/internal/domain"
)

// SignalService fans graph-change events out to realtime listeners through
// redis pub/sub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event kindred.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, domain.EventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Listen forwards events to output until ctx is done.
func (s *SignalService) Listen(ctx context.Context, output chan<- kindred.Event) {
	pubsub := s.rdb.Subscribe(ctx, domain.EventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event kindred.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "failed to decode event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
