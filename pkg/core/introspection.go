package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string `json:"repository_type"`
	Transactional  bool   `json:"transactional"`
	Watchable      bool   `json:"watchable"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {

	repoType := "unknown"
	if s.repo != nil {
		repoType = "repository"
		if comp, ok := s.repo.(introspection.Component); ok {
			repoType = comp.ComponentType()
		}
	}

	_, tx := s.repo.(Transactional)
	_, watch := s.repo.(Watchable)

	return ServiceState{
		RepositoryType: repoType,
		Transactional:  tx,
		Watchable:      watch,
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
