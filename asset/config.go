// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import "time"

// Tuning constants for the loading pipeline
const (
	// DefaultWorkers bounds how many loads decode at the same time.
	DefaultWorkers = 4

	// DefaultMaxAttempts is how many turns a task may spend waiting
	// for its dependencies before it is declared dead. A turn that
	// locks every dependency it asked for does not spend an attempt,
	// so a loader asking for mounted dependencies one at a time is
	// never cut short.
	DefaultMaxAttempts = 300

	// DefaultDependencyWait is slept after a turn that could not
	// acquire every requested dependency.
	DefaultDependencyWait = 10 * time.Millisecond

	// DefaultPollInterval is the sleep between Update calls in WaitAll
	// and between checks in WaitRemainingOperations.
	DefaultPollInterval = time.Millisecond

	DefaultCommandQueueSize = 1024
	DefaultURLQueueSize     = 256
	DefaultResultQueueSize  = 16
)

// Configuration is used to configure the asset engine
type Configuration struct {
	Workers        int
	MaxAttempts    int
	DependencyWait time.Duration
	PollInterval   time.Duration

	// Capacities of the bounded queues between the front desk,
	// the scheduler and the worker pool.
	CommandQueueSize int
	URLQueueSize     int
	ResultQueueSize  int
}

// DefaultConfiguration holds the values used for every unset field
var DefaultConfiguration = Configuration{
	Workers:          DefaultWorkers,
	MaxAttempts:      DefaultMaxAttempts,
	DependencyWait:   DefaultDependencyWait,
	PollInterval:     DefaultPollInterval,
	CommandQueueSize: DefaultCommandQueueSize,
	URLQueueSize:     DefaultURLQueueSize,
	ResultQueueSize:  DefaultResultQueueSize,
}

// withDefaults fills zero values from DefaultConfiguration
func (c Configuration) withDefaults() Configuration {
	if c.Workers <= 0 {
		c.Workers = DefaultConfiguration.Workers
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultConfiguration.MaxAttempts
	}
	if c.DependencyWait <= 0 {
		c.DependencyWait = DefaultConfiguration.DependencyWait
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultConfiguration.PollInterval
	}
	if c.CommandQueueSize <= 0 {
		c.CommandQueueSize = DefaultConfiguration.CommandQueueSize
	}
	if c.URLQueueSize <= 0 {
		c.URLQueueSize = DefaultConfiguration.URLQueueSize
	}
	if c.ResultQueueSize <= 0 {
		c.ResultQueueSize = DefaultConfiguration.ResultQueueSize
	}
	return c
}
