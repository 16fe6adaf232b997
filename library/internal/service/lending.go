package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/bookdesk/library-service/library/internal/model"
	"github.com/bookdesk/library-service/pkg/kafka"
)

func (s *Service) BorrowBook(ctx context.Context, req model.BorrowRequest) (model.Borrow, error) {
	if err := validateID(req.CopyID, "copy id"); err != nil {
		return model.Borrow{}, err
	}
	if err := validateID(req.MemberID, "member id"); err != nil {
		return model.Borrow{}, err
	}
	borrow, err := s.repo.BorrowCopy(ctx, req.CopyID, req.MemberID)
	if err != nil {
		return model.Borrow{}, err
	}
	s.publishLendingEvent(model.EventBorrowed, borrow)
	return borrow, nil
}

func (s *Service) ReturnBook(ctx context.Context, req model.ReturnRequest) (model.Borrow, error) {
	if err := validateID(req.CopyID, "copy id"); err != nil {
		return model.Borrow{}, err
	}
	borrow, err := s.repo.ReturnCopy(ctx, req.CopyID)
	if err != nil {
		return model.Borrow{}, err
	}
	s.publishLendingEvent(model.EventReturned, borrow)
	return borrow, nil
}

// publishLendingEvent emits an audit event after a committed borrow/return.
// Publishing is best effort: failures are logged, never surfaced, and the
// circuit breaker keeps a down broker from slowing down lending.
func (s *Service) publishLendingEvent(eventType string, borrow model.Borrow) {
	if s.producer == nil {
		return
	}
	event := model.LendingEvent{
		EventType: eventType,
		BorrowID:  borrow.ID,
		CopyID:    borrow.CopyID,
		MemberID:  borrow.MemberID,
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("marshal lending event", zap.Error(err))
		return
	}
	if err := s.publishCB.Call(func() error {
		msg := &sarama.ProducerMessage{
			Topic: kafka.LendingTopic,
			Key:   sarama.StringEncoder(borrow.CopyID),
			Value: sarama.StringEncoder(data),
		}
		_, _, sendErr := s.producer.SendMessage(msg)
		return sendErr
	}); err != nil {
		s.log.Error("publish lending event",
			zap.String("event_type", eventType),
			zap.String("borrow_id", borrow.ID),
			zap.Error(err))
	}
}
