package gologger

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey string

// ReqIDKey is the context key request middleware stores the request ID under.
const ReqIDKey ctxKey = "reqID"

func init() {
	l := NewLogger()
	zerolog.DefaultContextLogger = &l
	zerolog.CallerMarshalFunc = shortCaller
}

// NewLogger builds the process logger. PRETTY=1 switches to console output,
// DEBUG=1 drops the global level to debug, and LOG_TIME_MS=1 logs unix ms
// timestamps instead of RFC3339.
func NewLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if os.Getenv("LOG_TIME_MS") == "1" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	}
	zerolog.TimestampFieldName = "time"

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger().Hook(callerHook{})

	if os.Getenv("PRETTY") == "1" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	if os.Getenv("DEBUG") == "1" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	return logger
}

// ReqID pulls the request ID middleware stored on the context, empty if none.
func ReqID(ctx context.Context) string {
	id, _ := ctx.Value(ReqIDKey).(string)
	return id
}

func shortCaller(pc uintptr, file string, line int) string {
	function := ""
	if fun := runtime.FuncForPC(pc); fun != nil {
		funName := fun.Name()
		if slash := strings.LastIndex(funName, "/"); slash > 0 {
			funName = funName[slash+1:]
		}
		function = " " + funName + "()"
	}
	return file + ":" + strconv.Itoa(line) + function
}

type callerHook struct{}

func (h callerHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Caller(3)
}
