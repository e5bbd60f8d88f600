// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package asset

import (
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

var loggerPtr atomic.Pointer[log.Logger]

func init() {
	loggerPtr.Store(log.StandardLogger())
}

// SetLogger replaces the logger used by the asset engine.
// Passing nil restores the logrus standard logger. Safe to call
// while assets are loading.
func SetLogger(l *log.Logger) {
	if l == nil {
		l = log.StandardLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger currently used by the asset engine.
func Logger() *log.Logger {
	return loggerPtr.Load()
}

func logger() *log.Logger {
	return loggerPtr.Load()
}
