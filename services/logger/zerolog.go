package logsvc

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/user"
)

// ZerologLogger writes structured JSON logs, or pretty console output
// in debug mode.
type ZerologLogger struct {
	log     zerolog.Logger
	enabled bool
}

var _ core.Logger = (*ZerologLogger)(nil)

func NewZerologLogger(conf *core.Config) *ZerologLogger {
	log := zerolog.New(os.Stderr).With().
		Timestamp().
		Str("app", conf.AppName).
		Str("env", conf.Env).
		Logger()
	if conf.Debug {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return &ZerologLogger{log: log, enabled: true}
}

func (l *ZerologLogger) Enable(enabled bool) {
	l.enabled = enabled
}

// expected fmt: msg | error, map[string]interface{}, user.User
func (l *ZerologLogger) emit(evt *zerolog.Event, msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	for _, arg := range args {
		switch v := arg.(type) {
		case error:
			evt = evt.Err(v)
		case map[string]interface{}:
			evt = evt.Fields(v)
		case user.User:
			evt = evt.Str("user_id", v.ID).Str("username", v.Username)
		default:
			evt = evt.Interface("detail", v)
		}
	}
	evt.Msg(msg)
}

func (l *ZerologLogger) Debug(msg string, args ...interface{}) {
	l.emit(l.log.Debug(), msg, args)
}

func (l *ZerologLogger) Info(msg string, args ...interface{}) {
	l.emit(l.log.Info(), msg, args)
}

func (l *ZerologLogger) Warn(msg string, args ...interface{}) {
	l.emit(l.log.Warn(), msg, args)
}

func (l *ZerologLogger) Error(msg string, args ...interface{}) {
	l.emit(l.log.Error(), msg, args)
}

func (l *ZerologLogger) Fatal(msg string, args ...interface{}) {
	l.emit(l.log.Fatal(), msg, args)
}
