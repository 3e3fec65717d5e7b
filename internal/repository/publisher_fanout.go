package repository

import (
	"context"

	"AprSight/internal/domain/models"
	domrepo "AprSight/internal/domain/repository"
)

// FanoutPublisher delivers each trade event to every underlying
// publisher. The first error is returned after all targets were tried.
type FanoutPublisher struct {
	targets []domrepo.EventPublisher
}

var _ domrepo.EventPublisher = (*FanoutPublisher)(nil)

func NewFanoutPublisher(targets ...domrepo.EventPublisher) *FanoutPublisher {
	return &FanoutPublisher{targets: targets}
}

func (p *FanoutPublisher) PublishTradeEvent(ctx context.Context, ev *models.TradeEvent) error {
	var first error
	for _, t := range p.targets {
		if err := t.PublishTradeEvent(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (p *FanoutPublisher) Close() error {
	var first error
	for _, t := range p.targets {
		if err := t.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
