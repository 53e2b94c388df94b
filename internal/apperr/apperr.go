// Package apperr classifies the errors that reach a user: bad input, an audio
// engine that cannot start, and failed live-data fetches.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	KindInput       ftag.Kind = "input"
	KindAudioEngine ftag.Kind = "audio_engine"
	KindLiveFetch   ftag.Kind = "live_fetch"
)

// Input reports an empty or invalid dataset, an unsupported file or any other
// request the caller must fix.
func Input(issue string) error {
	return fault.New(issue, ftag.With(KindInput), fmsg.WithDesc("invalid input", issue))
}

// Inputf is Input with formatting.
func Inputf(format string, args ...any) error {
	return Input(fmt.Sprintf(format, args...))
}

// WrapInput tags err as an input error with a user-facing issue.
func WrapInput(err error, issue string) error {
	return fault.Wrap(err, ftag.With(KindInput), fmsg.WithDesc("invalid input", issue))
}

// AudioEngine tags err as an audio engine failure.
func AudioEngine(err error, issue string) error {
	if err == nil {
		err = errors.New("audio engine unavailable")
	}
	return fault.Wrap(err, ftag.With(KindAudioEngine), fmsg.WithDesc("audio engine", issue))
}

// LiveFetch tags err as a live data fetch failure.
func LiveFetch(err error, issue string) error {
	if err == nil {
		err = errors.New("live fetch failed")
	}
	return fault.Wrap(err, ftag.With(KindLiveFetch), fmsg.WithDesc("live fetch", issue))
}

// Kind returns the tag attached to err, or "" when err is untagged.
func Kind(err error) ftag.Kind {
	if err == nil {
		return ""
	}
	return ftag.Get(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind ftag.Kind) bool {
	return err != nil && Kind(err) == kind
}

// Message returns the user-facing description of err, falling back to the
// internal message for untagged errors.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if issue := fmsg.GetIssue(err); issue != "" {
		return issue
	}
	return err.Error()
}

// HTTPStatus maps an error kind to a response status code.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindAudioEngine:
		return http.StatusServiceUnavailable
	case KindLiveFetch:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
