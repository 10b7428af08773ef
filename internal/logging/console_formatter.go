package logging

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiGray   = "\x1b[90m"
)

// consoleFormatter renders info lines as plain messages so regular output
// reads like a normal CLI, and prefixes every other level.
type consoleFormatter struct {
	color bool
}

func (f *consoleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if prefix := f.levelPrefix(entry.Level); prefix != "" {
		b.WriteString(prefix)
		b.WriteByte(' ')
	}
	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := entry.Data[key]
		if err, ok := value.(error); ok {
			value = err.Error()
		}
		field := fmt.Sprintf("%s=%v", key, value)
		if f.color {
			field = ansiGray + field + ansiReset
		}
		b.WriteByte(' ')
		b.WriteString(field)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *consoleFormatter) levelPrefix(level logrus.Level) string {
	var label, color string
	switch level {
	case logrus.InfoLevel:
		return ""
	case logrus.WarnLevel:
		label, color = "WARN", ansiYellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		label, color = "ERROR", ansiRed
	default:
		label, color = "DEBUG", ansiGray
	}
	if !f.color {
		return label
	}
	return color + label + ansiReset
}
