package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/exitravels/backoffice/internal/metrics"
	"github.com/exitravels/backoffice/internal/model"
	"github.com/exitravels/backoffice/internal/repository"
)

var (
	// ErrInvalidStatus is returned for a target status other than confirmed or rejected.
	ErrInvalidStatus = errors.New("invalid target status")
	// ErrUnknownCollection is returned for a collection name that does not exist.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Field names inside stored documents.
const (
	fieldStatus    = "status"
	fieldIsDeleted = "isDeleted"
	fieldIsRead    = "isRead"
)

// CommandService issues single-field writes and deletions against the
// document store. Every operation is single-shot: no retry, no timeout beyond
// ctx. Re-applying an operation writes the same value again.
type CommandService interface {
	// SetStatus sets a reservation's status to confirmed or rejected.
	SetStatus(ctx context.Context, id string, status model.Status) error
	// SoftDelete sets isDeleted = true.
	SoftDelete(ctx context.Context, c model.Collection, id string) error
	// Restore sets isDeleted = false.
	Restore(ctx context.Context, c model.Collection, id string) error
	// HardDelete physically removes an already soft-deleted record.
	HardDelete(ctx context.Context, c model.Collection, id string) error
	// MarkRead sets isRead = true on a message.
	MarkRead(ctx context.Context, id string) error
}

type commandService struct {
	repos map[model.Collection]repository.CollectionRepository
}

// NewCommandService creates a CommandService over both collections.
func NewCommandService(reservations, messages repository.CollectionRepository) CommandService {
	return &commandService{repos: map[model.Collection]repository.CollectionRepository{
		model.CollectionReservations: reservations,
		model.CollectionMessages:     messages,
	}}
}

func (s *commandService) repo(c model.Collection) (repository.CollectionRepository, error) {
	r, ok := s.repos[c]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	return r, nil
}

func (s *commandService) SetStatus(ctx context.Context, id string, status model.Status) error {
	if status != model.StatusConfirmed && status != model.StatusRejected {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	err := s.repos[model.CollectionReservations].UpdateFields(ctx, id, map[string]any{fieldStatus: string(status)})
	metrics.CommandsTotal.WithLabelValues("set_status", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("set status of reservation %s: %w", id, err)
	}
	return nil
}

func (s *commandService) SoftDelete(ctx context.Context, c model.Collection, id string) error {
	return s.setDeleted(ctx, "soft_delete", c, id, true)
}

func (s *commandService) Restore(ctx context.Context, c model.Collection, id string) error {
	return s.setDeleted(ctx, "restore", c, id, false)
}

func (s *commandService) setDeleted(ctx context.Context, op string, c model.Collection, id string, deleted bool) error {
	repo, err := s.repo(c)
	if err != nil {
		return err
	}
	err = repo.UpdateFields(ctx, id, map[string]any{fieldIsDeleted: deleted})
	metrics.CommandsTotal.WithLabelValues(op, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", op, c, id, err)
	}
	return nil
}

func (s *commandService) HardDelete(ctx context.Context, c model.Collection, id string) error {
	repo, err := s.repo(c)
	if err != nil {
		return err
	}
	err = repo.Delete(ctx, id)
	metrics.CommandsTotal.WithLabelValues("hard_delete", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("hard delete %s %s: %w", c, id, err)
	}
	return nil
}

func (s *commandService) MarkRead(ctx context.Context, id string) error {
	err := s.repos[model.CollectionMessages].UpdateFields(ctx, id, map[string]any{fieldIsRead: true})
	metrics.CommandsTotal.WithLabelValues("mark_read", metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("mark message %s read: %w", id, err)
	}
	return nil
}
