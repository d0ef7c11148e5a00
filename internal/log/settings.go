// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package log

import (
	"io"
	"os"
)

type settings struct {
	writer  io.Writer
	level   *Level
	colour  *bool
	context []contextKeyValues
	caller  callerSettings
}

type contextKeyValues struct {
	key    string
	values []string
}

func newSettings(options []Option) (settings settings) {
	for _, option := range options {
		option(&settings)
	}
	return settings
}

// mergeWith sets values for each field not set in the
// receiving settings from the other settings given.
func (s *settings) mergeWith(other settings) {
	if s.writer == nil {
		s.writer = other.writer
	}

	if s.level == nil && other.level != nil {
		level := *other.level
		s.level = &level
	}

	if s.colour == nil && other.colour != nil {
		colour := *other.colour
		s.colour = &colour
	}

	context := make([]contextKeyValues, 0, len(other.context)+len(s.context))
	for _, kv := range other.context {
		values := make([]string, len(kv.values))
		copy(values, kv.values)
		context = append(context, contextKeyValues{key: kv.key, values: values})
	}
	for _, kv := range s.context {
		merged := false
		for i := range context {
			if context[i].key == kv.key {
				context[i].values = append(context[i].values, kv.values...)
				merged = true
				break
			}
		}
		if !merged {
			context = append(context, kv)
		}
	}
	s.context = context

	s.caller.mergeWith(other.caller)
}

// overrideWith sets all the fields set in the other
// settings given onto the receiving settings.
func (s *settings) overrideWith(other settings) {
	if other.writer != nil {
		s.writer = other.writer
	}

	if other.level != nil {
		level := *other.level
		s.level = &level
	}

	if other.colour != nil {
		colour := *other.colour
		s.colour = &colour
	}

	for _, kv := range other.context {
		for _, value := range kv.values {
			AddContext(kv.key, value)(s)
		}
	}

	s.caller.overrideWith(other.caller)
}

func (s *settings) setDefaults() {
	if s.writer == nil {
		s.writer = os.Stdout
	}

	if s.level == nil {
		level := Info
		s.level = &level
	}

	if s.colour == nil {
		colour := true
		s.colour = &colour
	}

	s.caller.setDefaults()
}
