package command

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const (
	msgUnavailable = "Service temporarily unavailable. Please try again."
	msgInternal    = "Something went wrong. Please try again."
)

// Describe renders err as a reply sentence. Domain errors keep their own
// message; anything else is reported generically.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return sentence(derr.Msg)
	}
	switch {
	case errors.Is(err, domain.ErrStateConflict):
		return sentence(domain.ErrConcurrentUpdate.Error())
	case errors.Is(err, domain.ErrUnavailable):
		return msgUnavailable
	default:
		return msgInternal
	}
}

// sentence upper-cases the first letter and closes with a full stop.
func sentence(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return msgInternal
	}
	r, size := utf8.DecodeRuneInString(msg)
	msg = string(unicode.ToUpper(r)) + msg[size:]
	switch msg[len(msg)-1] {
	case '.', '!', '?':
		return msg
	}
	return msg + "."
}
