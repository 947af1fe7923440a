package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"debts/internal/amqp"
	"debts/internal/core"
	"debts/internal/repository"
)

// EventPublisher receives a message after every successful change.
type EventPublisher interface {
	PublishDebtEvent(ctx context.Context, msg *amqp.DebtEventMessage) error
	Close() error
}

// DebtService applies the debt rules on top of a repository and announces
// changes on an optional publisher.
type DebtService struct {
	repo   repository.Repository
	events EventPublisher
	now    func() time.Time
}

// NewDebtService creates a service. events may be nil.
func NewDebtService(repo repository.Repository, events EventPublisher) *DebtService {
	return &DebtService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *DebtService) today() core.Date {
	return core.DateOf(s.now())
}

// ListDebts returns debts whose name contains search, outstanding first.
func (s *DebtService) ListDebts(ctx context.Context, search string) ([]core.Debt, error) {
	debts, err := s.repo.ListDebts(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	return debts, nil
}

// AddDebt charges amount to name, creating the debt on first use.
func (s *DebtService) AddDebt(ctx context.Context, name string, amount float64) (core.Debt, bool, error) {
	name, err := core.NormalizeName(name)
	if err != nil {
		return core.Debt{}, false, err
	}

	debt, created, err := s.repo.AddOrMerge(ctx, name, amount, s.today())
	if err != nil {
		return core.Debt{}, false, fmt.Errorf("add debt: %w", err)
	}

	typ := amqp.EventDebtCharged
	if created {
		typ = amqp.EventDebtCreated
	}
	s.publish(ctx, typ, debt, "", amount)

	return debt, created, nil
}

// UpdateDebt adds to or repays the debt with the given id. Unknown ids are
// ignored. Unknown actions leave the amounts alone and only move the date.
func (s *DebtService) UpdateDebt(ctx context.Context, id int64, action core.Action, amount float64) (core.Debt, bool, error) {
	if !action.IsKnown() {
		slog.WarnContext(ctx, "Unknown update action, only the date will change",
			"id", id, "action", string(action))
	}

	debt, found, err := s.repo.ApplyChange(ctx, id, action, amount, s.today())
	if err != nil {
		return core.Debt{}, false, fmt.Errorf("update debt: %w", err)
	}
	if !found {
		slog.InfoContext(ctx, "Update of unknown debt ignored", "id", id)
		return core.Debt{}, false, nil
	}

	s.publish(ctx, amqp.EventDebtUpdated, debt, string(action), amount)
	return debt, true, nil
}

// DeleteDebt removes the debt with the given id. Unknown ids are ignored.
func (s *DebtService) DeleteDebt(ctx context.Context, id int64) (bool, error) {
	debt, found, err := s.repo.DeleteDebt(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete debt: %w", err)
	}
	if !found {
		slog.InfoContext(ctx, "Delete of unknown debt ignored", "id", id)
		return false, nil
	}

	s.publish(ctx, amqp.EventDebtDeleted, debt, "", 0)
	return true, nil
}

func (s *DebtService) Stats(ctx context.Context) (core.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return core.Stats{}, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}

// Ping reports whether the underlying store is reachable.
func (s *DebtService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *DebtService) publish(ctx context.Context, typ amqp.EventType, d core.Debt, action string, amount float64) {
	if s.events == nil {
		return
	}

	msg := amqp.NewDebtEventMessage(typ, d.ID, d.Name)
	msg.Action = action
	msg.Amount = amount
	msg.TotalAmount = d.TotalAmount
	msg.RemainingAmount = d.RemainingAmount

	// Don't fail the request - the change is already stored
	if err := s.events.PublishDebtEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish debt event",
			"type", typ, "id", d.ID, "error", err)
	}
}

// Close closes both the repository and the publisher
func (s *DebtService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close debt service: %w", err)
	}
	return nil
}
