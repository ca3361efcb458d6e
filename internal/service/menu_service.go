package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/feastflow/storefront/internal/domain/menu"
	"github.com/feastflow/storefront/internal/domain/validation"
	"github.com/feastflow/storefront/internal/port/outbound"
)

// MenuService holds the catalog snapshot and the admin menu edits.
type MenuService struct {
	gateway  outbound.Gateway
	notifier outbound.Notifier
	logger   *slog.Logger

	mu    sync.RWMutex
	items []menu.Item
}

// NewMenuService creates a MenuService with an empty catalog.
func NewMenuService(gateway outbound.Gateway, notifier outbound.Notifier, logger *slog.Logger) *MenuService {
	return &MenuService{
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// List fetches the menu and replaces the catalog snapshot.
func (s *MenuService) List(ctx context.Context) ([]menu.Item, error) {
	items, err := s.gateway.ListMenu(ctx)
	if err != nil {
		s.notifier.Error("Failed to load menu")
		return nil, err
	}
	s.mu.Lock()
	s.items = append([]menu.Item(nil), items...)
	s.mu.Unlock()
	return items, nil
}

// Items returns a copy of the catalog snapshot.
func (s *MenuService) Items() []menu.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]menu.Item(nil), s.items...)
}

// Find returns the catalog item with id.
func (s *MenuService) Find(id string) (menu.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, true
		}
	}
	return menu.Item{}, false
}

// Save creates the item when id is empty and updates it otherwise.
func (s *MenuService) Save(ctx context.Context, id string, form menu.Form) (*menu.Item, error) {
	payload, err := form.Parse()
	if err != nil {
		var ve *validation.ValidationError
		if errors.As(err, &ve) {
			s.notifier.Error(ve.First())
		}
		return nil, err
	}

	if id == "" {
		item, err := s.gateway.CreateMenuItem(ctx, payload)
		if err != nil {
			s.notifier.Error(outbound.UserMessage(err, "Failed to save item"))
			return nil, err
		}
		s.mu.Lock()
		s.items = append(s.items, *item)
		s.mu.Unlock()
		s.notifier.Success("Item added successfully")
		return item, nil
	}

	item, err := s.gateway.UpdateMenuItem(ctx, id, payload)
	if err != nil {
		s.notifier.Error(outbound.UserMessage(err, "Failed to save item"))
		return nil, err
	}
	s.mu.Lock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i] = *item
		}
	}
	s.mu.Unlock()
	s.notifier.Success("Item updated successfully")
	return item, nil
}

// Delete removes the item from the catalog at once and restores it if the
// gateway call fails.
func (s *MenuService) Delete(ctx context.Context, id string) error {
	err := WithRollback(ctx, Optimistic[[]menu.Item]{
		Snapshot: s.Items,
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			kept := s.items[:0:0]
			for _, it := range s.items {
				if it.ID != id {
					kept = append(kept, it)
				}
			}
			s.items = kept
		},
		Commit: func(ctx context.Context) error {
			return s.gateway.DeleteMenuItem(ctx, id)
		},
		Restore: func(items []menu.Item) {
			s.mu.Lock()
			s.items = items
			s.mu.Unlock()
		},
	})
	if err != nil {
		s.logger.Error("failed to delete menu item", "id", id, "error", err)
		s.notifier.Error("Failed to delete")
		return err
	}
	s.notifier.Success("Item deleted")
	return nil
}
