package console

import (
	"context"
	"sync"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Settings is the signed-in operator's settings page. It holds a single
// document rather than a collection.
type Settings struct {
	svc       *client.SettingsService
	validator collection.InputValidator

	mu      sync.RWMutex
	current *client.AccountSettings
}

// NewSettings creates the settings page
func NewSettings(d Deps) *Settings {
	return &Settings{svc: d.Client.Settings(), validator: d.Validator}
}

// Load reads the settings
func (s *Settings) Load(ctx context.Context) (*client.AccountSettings, error) {
	settings, err := s.svc.Get(ctx)
	if err != nil {
		return nil, err
	}
	s.set(settings)
	return settings, nil
}

// Current returns the last loaded settings, or nil
func (s *Settings) Current() *client.AccountSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update changes settings and keeps the returned document
func (s *Settings) Update(ctx context.Context, req client.UpdateSettingsRequest) (*client.AccountSettings, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	settings, err := s.svc.Update(ctx, req)
	if err != nil {
		return nil, err
	}
	s.set(settings)
	return settings, nil
}

// ChangePassword changes the operator's password
func (s *Settings) ChangePassword(ctx context.Context, req client.ChangePasswordRequest) error {
	if err := s.check(req); err != nil {
		return err
	}
	return s.svc.ChangePassword(ctx, req)
}

func (s *Settings) check(input interface{}) error {
	if s.validator == nil {
		return nil
	}
	return s.validator.Check(input)
}

func (s *Settings) set(settings *client.AccountSettings) {
	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()
}
