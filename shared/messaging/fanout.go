package messaging

import (
	"context"
	"errors"

	"story-organizer/shared/interfaces"
)

// HandlerChain передает событие каждому обработчику по очереди. Ошибка одного не останавливает остальных.
type HandlerChain []ContentEventHandler

var _ ContentEventHandler = HandlerChain(nil)

func (c HandlerChain) HandleContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	var errs []error
	for _, h := range c {
		if err := h.HandleContentEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MultiPublisher публикует событие во все непустые publishers.
type MultiPublisher []interfaces.ContentEventPublisher

var _ interfaces.ContentEventPublisher = MultiPublisher(nil)

// NewMultiPublisher отбрасывает nil; при единственном publisher возвращает его же.
func NewMultiPublisher(publishers ...interfaces.ContentEventPublisher) interfaces.ContentEventPublisher {
	var out MultiPublisher
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return out
}

func (m MultiPublisher) PublishContentEvent(ctx context.Context, event interfaces.ContentEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.PublishContentEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
