// Package logging configures commonlog for the whole process and hands out
// named loggers.
package logging

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Quiet silences every logger.
const Quiet = -4

// Logger names
const (
	CLI     = "logex.cli"
	VM      = "logex.vm"
	Modules = "logex.modules"
	Backend = "logex.backend"
	Embed   = "logex.embed"
)

// Configure sets the verbosity (0 notices, 1 info, 2 debug) and the log
// file. An empty path logs to stderr.
func Configure(verbosity int, path string) {
	if path == "" {
		commonlog.Configure(verbosity, nil)
		return
	}
	commonlog.Configure(verbosity, &path)
}

func GetLogger(name string) commonlog.Logger {
	return commonlog.GetLogger(name)
}
