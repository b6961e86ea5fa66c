package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. Bootstrap must run before it is used; the
// zero value here keeps tests from panicking when they skip bootstrap.
var Log = logrus.New()

// Bootstrap configures the shared logger for service use.
func Bootstrap() {
	Log.SetOutput(os.Stdout)
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	Log.SetLevel(logrus.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		Log.SetLevel(logrus.DebugLevel)
	}
}
