package event

import (
	"context"

	"github.com/eventops/backoffice-api/internal/model"
	"github.com/eventops/backoffice-api/internal/repository"
)

type OutboxService struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *OutboxService {
	return &OutboxService{outboxRepo: outboxRepo}
}

func (s *OutboxService) CreateEvent(ctx context.Context, event *model.OutboxEvent) error {
	return s.outboxRepo.Create(ctx, event)
}
