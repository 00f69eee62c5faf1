package logging

import (
	"fmt"
	"github.com/golang/glog"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is satisfied by *log.Logger and accepted by paho's package level loggers.
type Logger interface {
	Println(v ...interface{})
	Printf(format string, v ...interface{})
}

// New returns a stdout logger with a "[prefix] " tag and no timestamp flags.
func New(prefix string) *log.Logger {
	return NewWriter(os.Stdout, prefix)
}

func NewWriter(w io.Writer, prefix string) *log.Logger {
	return log.New(w, fmt.Sprintf("[%s] ", prefix), 0)
}

// Glog forwards to glog at info level, tagging each line with Prefix.
type Glog struct {
	Prefix string
}

func (g Glog) Println(v ...interface{}) {
	glog.InfoDepth(1, g.tag()+sprintln(v...))
}

func (g Glog) Printf(format string, v ...interface{}) {
	glog.InfoDepth(1, g.tag()+fmt.Sprintf(format, v...))
}

// sprintln spaces operands like log.Println, without the newline glog adds itself.
func sprintln(v ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintln(v...), "\n")
}

func (g Glog) tag() string {
	if g.Prefix == "" {
		return ""
	}
	return "[" + g.Prefix + "] "
}

// Flush writes out anything glog is still buffering.
func Flush() {
	glog.Flush()
}

// Sink picks a Logger implementation by name: "std" (default) or "glog".
func Sink(kind string, prefix string) (Logger, error) {
	switch kind {
	case "", "std":
		return New(prefix), nil
	case "glog":
		return Glog{Prefix: prefix}, nil
	default:
		return nil, fmt.Errorf("unknown logger %q", kind)
	}
}
