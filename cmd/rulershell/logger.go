package main

import "go.uber.org/zap"

// newLogger mirrors machine.New's own zap.NewNop() fallback discipline:
// verbose gets human-readable development logging, otherwise a quiet
// production logger, never a nil *zap.Logger.
func newLogger(verbose bool) *zap.Logger {
	var log *zap.Logger
	var err error
	if verbose {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		log = zap.NewNop()
	}
	return log
}
