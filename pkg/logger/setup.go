package logger

import (
	"io"
)

func SetupLogger(logLevel string, logJSON, logSource bool, output io.Writer) Logger {
	return NewLogger(&Config{
		Level:      ParseLevel(logLevel),
		Output:     output,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	})
}
