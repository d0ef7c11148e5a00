// Copyright 2022 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package tasks

import (
	"errors"
	"runtime"
	"sync"

	"github.com/ChainSafe/gossamer-light/internal/log"
)

var logger = log.NewFromGlobal(log.AddContext("pkg", "tasks"))

// ErrSchedulerStopped is returned when submitting a job to a scheduler
// whose Run method has already returned.
var ErrSchedulerStopped = errors.New("scheduler stopped")

// Job is a unit of asynchronous work. A job may submit further jobs.
type Job func()

// Submitter is the function used by services to hand jobs over to the scheduler.
type Submitter interface {
	Submit(job Job) error
}

// Scheduler runs a dynamically growing set of jobs.
// Jobs can be submitted before Run is called, while Run is running and,
// as long as at least one job is still active, after Close is called.
// Run returns once Close has been called and every job has completed.
type Scheduler struct {
	mutex   sync.Mutex
	queued  []Job
	active  int
	running bool
	closed  bool
	stopped bool
	idle    chan struct{}
}

// NewScheduler creates a new scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		idle: make(chan struct{}, 1),
	}
}

// Submit adds a job to the active set. The job starts right away if Run
// is running, otherwise it starts as soon as Run is called.
func (s *Scheduler) Submit(job Job) error {
	s.mutex.Lock()
	if s.stopped {
		s.mutex.Unlock()
		return ErrSchedulerStopped
	}

	s.active++
	if !s.running {
		s.queued = append(s.queued, job)
		s.mutex.Unlock()
		return nil
	}
	s.mutex.Unlock()

	go s.execute(job)
	return nil
}

// Run starts all queued jobs and blocks until Close has been called
// and no job remains active.
func (s *Scheduler) Run() {
	s.mutex.Lock()
	s.running = true
	queued := s.queued
	s.queued = nil
	s.mutex.Unlock()

	for _, job := range queued {
		go s.execute(job)
	}

	for {
		s.mutex.Lock()
		if s.closed && s.active == 0 {
			s.stopped = true
			s.running = false
			s.mutex.Unlock()
			logger.Info("all tasks complete, stopping scheduler")
			return
		}
		s.mutex.Unlock()

		<-s.idle
	}
}

// Close signals that no more jobs are expected from outside the scheduler.
// Jobs already active may still submit more jobs.
func (s *Scheduler) Close() {
	s.mutex.Lock()
	s.closed = true
	s.mutex.Unlock()
	s.notify()
}

// Active returns the number of jobs submitted and not yet completed.
func (s *Scheduler) Active() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.active
}

func (s *Scheduler) execute(job Job) {
	defer func() {
		s.mutex.Lock()
		s.active--
		s.mutex.Unlock()
		s.notify()
	}()

	job()
}

func (s *Scheduler) notify() {
	select {
	case s.idle <- struct{}{}:
	default:
	}
}

// Yield suspends the calling job once so that other jobs get a chance to run.
// Jobs doing CPU heavy work call it once per unit of work.
func Yield() {
	runtime.Gosched()
}
