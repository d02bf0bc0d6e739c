// Package guard switches ODYSSEY_TEST_MODE on when imported, so test binaries never start servers or workers.
package guard

import "os"

// EnvVar is the flag read by app.InTestMode.
const EnvVar = "ODYSSEY_TEST_MODE"

func init() {
	if os.Getenv(EnvVar) == "" {
		_ = os.Setenv(EnvVar, "1")
	}
}
