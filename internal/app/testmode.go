package app

import "os"

// testModeEnv is switched on by importing internal/testing/guard.
const testModeEnv = "ODYSSEY_TEST_MODE"

// InTestMode reports whether ODYSSEY_TEST_MODE=1. The entry points return before binding ports,
// opening the store or connecting to Redis when it is set. The variable is read on every call so
// tests can flip it with t.Setenv.
func InTestMode() bool {
	return os.Getenv(testModeEnv) == "1"
}
