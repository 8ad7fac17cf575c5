package modem

import (
	"fmt"
	"strings"
	"time"

	"i4.energy/across/cellgw/at"
)

// Command is an immutable descriptor for one AT exchange. It is created
// at workflow-definition time and never mutated.
type Command struct {
	// Text is the command line without its terminator. Empty means
	// nothing is sent and the exchange only waits for tokens.
	Text string
	// Success and Failure are the terminal tokens that end the exchange.
	Success []string
	Failure []string
	// Prompt, when set, must appear before Payload is written.
	Prompt string
	// Payload is written raw after the prompt (or immediately when no
	// prompt is configured), followed by PayloadSuffix.
	Payload       []byte
	PayloadSuffix []byte
	// Timeout bounds the wait for a terminal token. PromptTimeout bounds
	// the prompt phase; it falls back to Timeout when zero.
	Timeout       time.Duration
	PromptTimeout time.Duration
}

// AdHoc wraps a free-form command line with the standard result tokens.
func AdHoc(text string, timeout time.Duration) Command {
	return Command{
		Text:    text,
		Success: []string{at.OK},
		Failure: []string{at.ERROR, at.CmeError, at.CmsError},
		Timeout: timeout,
	}
}

// OutcomeKind classifies how a command exchange ended.
type OutcomeKind int

const (
	// OutcomeSuccess means a Success token matched.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeFailure means a Failure token (or an embedded error code)
	// matched.
	OutcomeFailure
	// OutcomeTimeout means no terminal token appeared within the
	// deadline.
	OutcomeTimeout
	// OutcomeTransport means the serial link itself failed.
	OutcomeTransport
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome is the result of issuing one Command.
type Outcome struct {
	Kind OutcomeKind
	// Token is the terminal token that matched, when one did.
	Token string
	// Captured is the response text collected during the exchange. It is
	// bounded; Truncated reports whether older bytes were evicted.
	Captured  string
	Truncated bool
	// Err carries the underlying fault for OutcomeTransport.
	Err error
}

// Describe renders the outcome as a status fragment. Timeouts
// distinguish a silent modem from one that answered without a terminal
// token, and truncated captures say so.
func (o Outcome) Describe(timeout time.Duration) string {
	var text string
	switch o.Kind {
	case OutcomeSuccess:
		text = o.Token
	case OutcomeFailure:
		text = fmt.Sprintf("modem reported %q", o.Token)
	case OutcomeTimeout:
		if strings.TrimSpace(o.Captured) == "" {
			text = fmt.Sprintf("no response within %s", timeout)
		} else {
			text = fmt.Sprintf("no terminal response within %s, last output %q", timeout, tailOf(o.Captured, 60))
		}
	case OutcomeTransport:
		text = fmt.Sprintf("transport failure: %v", o.Err)
	default:
		text = "unknown outcome"
	}
	if o.Truncated {
		text += " (output truncated)"
	}
	return text
}

func tailOf(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return truncationMarker + s[len(s)-n:]
}
