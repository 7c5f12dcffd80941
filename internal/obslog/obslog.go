/**
 * Observability Logging.
 *
 * A thin wrapper around the standard library's log package that tags
 * every line with its owning subsystem, the same way the capture
 * engine already prefixes its own log lines by hand.
 *
 * Author: KleaSCM
 * Email: KleaSCM@gmail.com
 */

package obslog

import (
	"log"
	"os"
)

// Logger prefixes every message with a subsystem tag.
type Logger struct {
	tag string
	std *log.Logger
}

// New returns a Logger tagged with the given subsystem name, e.g.
// New("capture") logs lines prefixed "[capture] ".
func New(tag string) *Logger {
	return &Logger{
		tag: tag,
		std: log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("["+l.tag+"] "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("["+l.tag+"] WARNING: "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("["+l.tag+"] ERROR: "+format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf("["+l.tag+"] FATAL: "+format, args...)
}
