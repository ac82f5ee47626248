// Package lifecycle wires long-running node components behind a single
// start/stop surface so main stays declarative.
package lifecycle

import (
	"context"

	"go.uber.org/multierr"
)

// Service is a long-running component managed by the node.
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Manager starts services in registration order and stops them in reverse.
type Manager struct {
	svcs []Service
}

func New() *Manager { return &Manager{} }

func (m *Manager) Add(s Service) { m.svcs = append(m.svcs, s) }

// StartAll starts every service; on the first failure it stops the already
// started ones (reverse order) and returns the start error.
func (m *Manager) StartAll(ctx context.Context) error {
	for i, s := range m.svcs {
		if err := s.Start(ctx); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = m.svcs[j].Stop(ctx)
			}
			return err
		}
	}
	return nil
}

// StopAll stops every service in reverse order, collecting all errors.
func (m *Manager) StopAll(ctx context.Context) error {
	var err error
	for i := len(m.svcs) - 1; i >= 0; i-- {
		err = multierr.Append(err, m.svcs[i].Stop(ctx))
	}
	return err
}
