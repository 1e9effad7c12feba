package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"aidly-widget-be/internal/model"
	"aidly-widget-be/internal/pkg/logger"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IAuditService records security-relevant events. Record is fire-and-forget:
// the event crosses an in-process bus and a consumer persists it, so the hot
// auth path never waits on an audit insert.
type IAuditService interface {
	Record(ctx context.Context, event events.Event)
	Consume(ctx context.Context) error
}

type auditEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type auditService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	auditLog   logger.ILogger
}

func NewAuditService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	auditLog logger.ILogger,
) IAuditService {
	return &auditService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		auditLog:   auditLog,
	}
}

func (s *auditService) Record(ctx context.Context, event events.Event) {
	payload, err := json.Marshal(auditEnvelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		log.Printf("[ERROR] Failed to marshal audit event %s: %v", event.EventType(), err)
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	if err := s.pubSub.Publish(s.topicName, msg); err != nil {
		log.Printf("[ERROR] Failed to publish audit event %s: %v", event.EventType(), err)
	}
}

func (s *auditService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *auditService) processMessage(ctx context.Context, msg *message.Message) {
	var env auditEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		log.Printf("[ERROR] Failed to unmarshal audit message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	s.auditLog.Info("audit", env.Type, env.Data)

	details, err := json.Marshal(env.Data)
	if err != nil {
		msg.Ack()
		return
	}

	module := "auth"
	if v, ok := env.Data["module"].(string); ok {
		module = v
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	row := &model.SystemLog{
		Id:        uuid.New(),
		Level:     "INFO",
		Module:    &module,
		Message:   env.Type,
		Details:   details,
		CreatedAt: env.OccurredAt,
	}
	if err := uow.SystemLogRepository().Create(ctx, row); err != nil {
		log.Printf("[ERROR] Failed to persist audit row %s: %v", env.Type, err)
		msg.Nack() // Retriable: storage hiccup
		return
	}

	msg.Ack()
}
