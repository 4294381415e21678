// Package logging provides the single logrus logger every package in
// this repository logs through, except the audio thread, which never
// logs (see SPEC_FULL.md §4's ambient-stack note).
package logging

import (
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once sync.Once
	log  *logrus.Logger
)

// Default returns the process-wide logger, created on first use.
// Level defaults to Info, or Debug if LV2GO_DEBUG is set to a truthy
// value.
func Default() *logrus.Logger {
	once.Do(func() {
		log = logrus.New()
		if debugEnabled() {
			log.SetLevel(logrus.DebugLevel)
		}
	})
	return log
}

func debugEnabled() bool {
	v, err := strconv.ParseBool(os.Getenv("LV2GO_DEBUG"))
	return err == nil && v
}
