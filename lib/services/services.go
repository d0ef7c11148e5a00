// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package services

import (
	"fmt"
)

// Service must be implemented by all services.
type Service interface {
	Start() error
	Stop() error
}

// ServiceRegistry is a structure to manage core system services
type ServiceRegistry struct {
	services []Service
	logger   Logger
}

// NewServiceRegistry creates an empty registry
func NewServiceRegistry(logger Logger) *ServiceRegistry {
	return &ServiceRegistry{
		logger: logger,
	}
}

// RegisterService stores a new service in the registry.
// Registering the same service twice is ignored with a warning.
func (s *ServiceRegistry) RegisterService(service Service) {
	for _, registered := range s.services {
		if registered == service {
			s.logger.Warnf("tried to register service %T twice", service)
			return
		}
	}
	s.services = append(s.services, service)
}

// StartAll starts the services in the order they were registered.
// On failure, the services already started are stopped in reverse order.
func (s *ServiceRegistry) StartAll() error {
	s.logger.Debugf("starting %d services", len(s.services))
	for i, service := range s.services {
		err := service.Start()
		if err != nil {
			s.stop(s.services[:i])
			return fmt.Errorf("starting service %T: %w", service, err)
		}
	}
	s.logger.Debug("all services started")
	return nil
}

// StopAll stops the services in the reverse order of their registration.
func (s *ServiceRegistry) StopAll() {
	s.logger.Debugf("stopping %d services", len(s.services))
	s.stop(s.services)
	s.logger.Debug("all services stopped")
}

func (s *ServiceRegistry) stop(services []Service) {
	for i := len(services) - 1; i >= 0; i-- {
		err := services[i].Stop()
		if err != nil {
			s.logger.Errorf("error stopping service %T: %s", services[i], err)
		}
	}
}
