// Package log is the subset of github.com/rs/zerolog/log that the analyzer testdata calls.
package log

type Event struct{}

func (e *Event) Err(error) *Event { return e }
func (e *Event) Msg(string)       {}

func Fatal() *Event { return &Event{} }
func Panic() *Event { return &Event{} }
func Error() *Event { return &Event{} }
