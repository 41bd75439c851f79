package logsvc

import (
	"context"
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/attendo/core"
	"github.com/trezcool/attendo/core/attendance"
	"github.com/trezcool/attendo/core/user"
)

type RollbarLogger struct {
	std    *log.Logger
	client *rollbar.Client
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger prints to std and reports to its own rollbar client.
// Reporting is disabled when no token is configured or in test mode.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	client := rollbar.NewAsync(conf.RollbarToken, conf.Env, conf.Build, conf.Server.Host, "")
	client.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	client.SetStackTracer(errors.StackTracer)
	client.SetCustom(map[string]interface{}{"app": conf.AppName})
	return &RollbarLogger{std: std, client: client}
}

// Close waits for queued reports to be sent.
func (l *RollbarLogger) Close() {
	if err := l.client.Close(); err != nil {
		l.std.Printf("closing rollbar client: %v\n", err)
	}
}

// report is one rollbar item built from a log call.
type report struct {
	msg    string
	err    error
	extras map[string]interface{}
	person *rollbar.Person
}

// newReport sorts args out: the first error is reported as such, the first operator
// becomes the item's person, attendance batches and maps are flattened into extras.
func newReport(msg string, args []interface{}) report {
	r := report{msg: msg, extras: make(map[string]interface{})}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			if r.err == nil {
				r.err = v
			}
		case user.User:
			r.setOperator(&v)
		case *user.User:
			r.setOperator(v)
		case attendance.ParsedAttendance:
			r.extras["date"] = v.Date.String
			r.extras["session"] = v.Session.String
			r.extras["section"] = v.Section.String
			r.extras["exceptions"] = len(v.Exceptions)
		case attendance.MarkResult:
			r.extras["date"] = v.Date
			r.extras["session"] = v.Session
			r.extras["section"] = v.Section
			r.extras["unmatched"] = v.Unmatched
		case map[string]interface{}:
			for k, val := range v {
				r.extras[k] = val
			}
		}
	}
	return r
}

func (r *report) setOperator(usr *user.User) {
	if r.person != nil || usr == nil || usr.ID == "" {
		return
	}
	r.person = &rollbar.Person{Id: usr.ID, Username: usr.Username}
	if usr.Name != "" {
		r.extras["operator"] = usr.Name
	}
}

func (l *RollbarLogger) send(level, msg string, args []interface{}) {
	r := newReport(msg, args)
	ctx := context.Background()
	if r.person != nil {
		ctx = rollbar.NewPersonContext(ctx, r.person)
	}
	if r.err != nil {
		r.extras["message"] = r.msg
		l.client.ErrorWithExtrasAndContext(ctx, level, r.err, r.extras)
	} else {
		l.client.MessageWithExtrasAndContext(ctx, level, r.msg, r.extras)
	}

	l.std.Printf("[%s] %s\n", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) {
	l.send(rollbar.DEBUG, msg, args)
}

func (l *RollbarLogger) Info(msg string, args ...interface{}) {
	l.send(rollbar.INFO, msg, args)
}

func (l *RollbarLogger) Warn(msg string, args ...interface{}) {
	l.send(rollbar.WARN, msg, args)
}

func (l *RollbarLogger) Error(msg string, args ...interface{}) {
	l.send(rollbar.ERR, msg, args)
}

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.send(rollbar.CRIT, msg, args)
	l.Close()
	l.std.Fatal(msg)
}
