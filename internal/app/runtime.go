package app

import (
	"os"
	"strconv"
	"sync"
)

// TestModeEnv makes the binaries return before opening any connection.
const TestModeEnv = "ODYSSEY_TEST_MODE"

var (
	testModeMu     sync.RWMutex
	testModeLoaded bool
	testMode       bool
)

func readTestMode() bool {
	on, err := strconv.ParseBool(os.Getenv(TestModeEnv))
	return err == nil && on
}

// InTestMode reports whether ODYSSEY_TEST_MODE was set to a true value when
// first asked, or when RefreshTestMode last ran.
func InTestMode() bool {
	testModeMu.RLock()
	if testModeLoaded {
		defer testModeMu.RUnlock()
		return testMode
	}
	testModeMu.RUnlock()
	RefreshTestMode()
	return InTestMode()
}

// RefreshTestMode re-reads the environment.
func RefreshTestMode() {
	testModeMu.Lock()
	testMode = readTestMode()
	testModeLoaded = true
	testModeMu.Unlock()
}
