package service

import (
	"context"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	cb "github.com/bookdesk/library-service/pkg/circuit_breaker"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
	libraryRepo "github.com/bookdesk/library-service/library/internal/repository"
)

type Service struct {
	log       *zap.Logger
	repo      libraryRepo.Repository
	producer  sarama.SyncProducer
	publishCB cb.CircuitBreaker
}

func NewService(repo libraryRepo.Repository, producer sarama.SyncProducer, log *zap.Logger) *Service {
	const (
		cbRecordLength     = 20
		cbTimeout          = time.Second * 30
		cbPercentile       = 0.5
		cbRecoveryRequests = 3
	)
	return &Service{
		log:       log.Named("service"),
		repo:      repo,
		producer:  producer,
		publishCB: cb.New(cbRecordLength, cbTimeout, cbPercentile, cbRecoveryRequests),
	}
}

func (s *Service) CreateBook(ctx context.Context, req model.CreateBookRequest) (model.Book, error) {
	return s.repo.CreateBook(ctx, req)
}

func (s *Service) UpdateBook(ctx context.Context, id string, req model.UpdateBookRequest) (model.Book, error) {
	if err := validateID(id, "book id"); err != nil {
		return model.Book{}, err
	}
	return s.repo.UpdateBook(ctx, id, req)
}

func (s *Service) GetBook(ctx context.Context, id string) (model.BookWithCopies, error) {
	if err := validateID(id, "book id"); err != nil {
		return model.BookWithCopies{}, err
	}
	book, copyCount, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return model.BookWithCopies{}, err
	}
	return model.BookWithCopies{Book: book, CopyCount: copyCount}, nil
}

func (s *Service) ListBooks(ctx context.Context, filter model.BookFilter, page, limit int) (model.ListBooks, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	page, limit = clampPagination(page, limit)
	return s.repo.ListBooks(ctx, filter, page, limit)
}

func (s *Service) CreateMember(ctx context.Context, req model.CreateMemberRequest) (model.Member, error) {
	return s.repo.CreateMember(ctx, req)
}

func (s *Service) UpdateMember(ctx context.Context, id string, req model.UpdateMemberRequest) (model.Member, error) {
	if err := validateID(id, "member id"); err != nil {
		return model.Member{}, err
	}
	return s.repo.UpdateMember(ctx, id, req)
}

func (s *Service) GetMember(ctx context.Context, id string) (model.Member, error) {
	if err := validateID(id, "member id"); err != nil {
		return model.Member{}, err
	}
	return s.repo.GetMember(ctx, id)
}

func (s *Service) ListMembers(ctx context.Context, filter model.MemberFilter, page, limit int) (model.ListMembers, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	page, limit = clampPagination(page, limit)
	return s.repo.ListMembers(ctx, filter, page, limit)
}

func (s *Service) CreateCopy(ctx context.Context, req model.CreateCopyRequest) (model.BookCopy, error) {
	if err := validateID(req.BookID, "book id"); err != nil {
		return model.BookCopy{}, err
	}
	return s.repo.CreateCopy(ctx, req.BookID, req.CopyNumber)
}

func (s *Service) ListAvailableCopies(ctx context.Context, page, limit int) (model.ListAvailableCopies, error) {
	page, limit = clampPagination(page, limit)
	return s.repo.ListAvailableCopies(ctx, page, limit)
}

func (s *Service) ListCopiesByBook(ctx context.Context, bookID string, page, limit int) (model.ListCopies, error) {
	if err := validateID(bookID, "book id"); err != nil {
		return model.ListCopies{}, err
	}
	page, limit = clampPagination(page, limit)
	return s.repo.ListCopiesByBook(ctx, bookID, page, limit)
}

func (s *Service) ListBorrowings(ctx context.Context, filter model.BorrowFilter, page, limit int) (model.ListBorrows, error) {
	if filter.MemberID != "" {
		if err := validateID(filter.MemberID, "member id"); err != nil {
			return model.ListBorrows{}, err
		}
	}
	filter.Query = strings.TrimSpace(filter.Query)
	page, limit = clampPagination(page, limit)
	return s.repo.ListBorrowings(ctx, filter, page, limit)
}

func validateID(id, field string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.Wrapf(errs.ErrValidation, "%s must be a valid uuid", field)
	}
	return nil
}
