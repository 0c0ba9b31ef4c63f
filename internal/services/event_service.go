package services

import (
	"context"
	"fmt"
	"strings"

	"rumba/internal/core"
	"rumba/internal/log"
	ports "rumba/internal/sheets"
)

// EventService manages the event catalog behind the data-entry pages.
type EventService struct {
	catalog ports.EventCatalog
	logger  *log.Logger
}

func NewEventService(catalog ports.EventCatalog, logger *log.Logger) *EventService {
	if logger == nil {
		logger = log.NewDiscard()
	}
	return &EventService{catalog: catalog, logger: logger.WithComponent(log.ComponentCatalog)}
}

func (s *EventService) List(ctx context.Context) ([]core.Event, error) {
	events, err := s.catalog.ListEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Get returns core.ErrEventNotFound for unknown IDs.
func (s *EventService) Get(ctx context.Context, id string) (core.Event, error) {
	return s.catalog.GetEvent(ctx, id)
}

// Create validates and stores a new catalog event.
func (s *EventService) Create(ctx context.Context, e core.Event) (core.Event, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.Venue = strings.TrimSpace(e.Venue)
	if e.Type != core.Weekly {
		e.DayOfWeek = ""
	}
	if !e.EntranceEligible() {
		e.EntranceShare = ""
	}
	if err := e.Validate(); err != nil {
		return core.Event{}, err
	}

	created, err := s.catalog.CreateEvent(ctx, e)
	if err != nil {
		return core.Event{}, fmt.Errorf("create event: %w", err)
	}
	s.logger.InfoContext(ctx, "Event created",
		log.FieldEventID, created.ID,
		"name", created.Name,
		"type", created.Type,
		"deal", created.Deal)
	return created, nil
}
