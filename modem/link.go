package modem

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/cellgw/at"
)

// Recorder receives transcript lines from the link. The result store
// implements it; a nil recorder discards the transcript.
type Recorder interface {
	AppendLog(line string)
}

type nopRecorder struct{}

func (nopRecorder) AppendLog(string) {}

// Link drives single command/response exchanges over a Transport.
//
// A Link is not safe for concurrent use. The dispatcher owns it outright
// and runs one exchange at a time; that ownership is what keeps the
// half-duplex line coherent.
type Link struct {
	transport Transport
	recorder  Recorder
	capture   int
	slice     time.Duration
	drain     time.Duration
}

// NewLink wires a link over transport. Transcript lines go to recorder;
// capture sizing and read pacing come from cfg.
func NewLink(transport Transport, recorder Recorder, cfg Config) *Link {
	cfg.setDefaults()
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Link{
		transport: transport,
		recorder:  recorder,
		capture:   cfg.CaptureBytes,
		slice:     cfg.ReadSlice,
		drain:     cfg.DrainWindow,
	}
}

// Execute runs one exchange: send the command line, await the prompt and
// deliver the payload when configured, then poll reads until a terminal
// token appears or the deadline elapses. Ties between tokens go to the
// one seen first in the stream, with Failure winning an exact tie.
// Timeouts are final for the attempt; retry policy belongs to the
// caller.
func (l *Link) Execute(ctx context.Context, cmd Command) Outcome {
	acc := NewAccumulator(l.capture)

	if cmd.Text != "" {
		l.recorder.AppendLog(">> " + cmd.Text)
		if _, err := l.transport.Write([]byte(cmd.Text + at.CRLF)); err != nil {
			return l.fault(acc, fmt.Errorf("write command %q: %w", cmd.Text, err))
		}
	}

	if cmd.Prompt != "" {
		promptTimeout := cmd.PromptTimeout
		if promptTimeout <= 0 {
			promptTimeout = cmd.Timeout
		}
		out := l.await(ctx, acc, promptTimeout, []string{cmd.Prompt}, nil)
		if out.Kind != OutcomeSuccess {
			return out
		}
	}

	if len(cmd.Payload) > 0 || len(cmd.PayloadSuffix) > 0 {
		body := make([]byte, 0, len(cmd.Payload)+len(cmd.PayloadSuffix))
		body = append(body, cmd.Payload...)
		body = append(body, cmd.PayloadSuffix...)
		l.recorder.AppendLog(fmt.Sprintf(">> [%d payload bytes]", len(body)))
		if _, err := l.transport.Write(body); err != nil {
			return l.fault(acc, fmt.Errorf("write payload: %w", err))
		}
	}

	return l.await(ctx, acc, cmd.Timeout, cmd.Success, cmd.Failure)
}

// Drain soaks up whatever the modem volunteered between exchanges and
// surfaces it in the transcript, split into lines and labeled so boot
// banners and stray URCs stay visible without belonging to any command.
func (l *Link) Drain() {
	var pending []byte
	for i := 0; i < 8; i++ {
		chunk, err := l.transport.ReadChunk(l.drain)
		if err != nil || len(chunk) == 0 {
			break
		}
		pending = append(pending, chunk...)
	}
	if len(pending) == 0 {
		return
	}

	scanner := bufio.NewScanner(bytes.NewReader(pending))
	scanner.Split(at.Splitter)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		label := "unsolicited"
		if at.Classify(line) == at.TypeURC {
			label = "urc"
		}
		l.recorder.AppendLog(label + ": " + line)
	}
}

// await polls reads into acc until one of the tokens matches or timeout
// elapses. The deadline is wall-clock for this attempt only.
func (l *Link) await(ctx context.Context, acc *Accumulator, timeout time.Duration, success, failure []string) Outcome {
	if out, ok := l.match(acc, success, failure); ok {
		return l.finish(out, acc)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			return l.fault(acc, fmt.Errorf("exchange cancelled: %w", err))
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return l.finish(Outcome{Kind: OutcomeTimeout}, acc)
		}
		slice := l.slice
		if slice > remaining {
			slice = remaining
		}

		chunk, err := l.transport.ReadChunk(slice)
		if err != nil {
			return l.fault(acc, fmt.Errorf("read response: %w", err))
		}
		if len(chunk) == 0 {
			continue
		}
		acc.Feed(chunk)
		l.mirror(chunk)

		if out, ok := l.match(acc, success, failure); ok {
			return l.finish(out, acc)
		}
	}
}

// match scans the accumulated text for the earliest terminal token.
// Failure tokens are scanned first so they win exact offset ties.
func (l *Link) match(acc *Accumulator, success, failure []string) (Outcome, bool) {
	best := -1
	var out Outcome
	for _, tok := range failure {
		if tok == "" {
			continue
		}
		if off, ok := acc.Find(tok); ok && (best < 0 || off < best) {
			best = off
			out = Outcome{Kind: OutcomeFailure, Token: tok}
		}
	}
	for _, tok := range success {
		if tok == "" {
			continue
		}
		if off, ok := acc.Find(tok); ok && (best < 0 || off < best) {
			best = off
			out = Outcome{Kind: OutcomeSuccess, Token: tok}
		}
	}
	if best < 0 {
		return Outcome{}, false
	}
	return out, true
}

func (l *Link) finish(out Outcome, acc *Accumulator) Outcome {
	out.Captured = acc.Contents()
	out.Truncated = acc.Truncated()
	return out
}

func (l *Link) fault(acc *Accumulator, err error) Outcome {
	return Outcome{
		Kind:      OutcomeTransport,
		Err:       err,
		Captured:  acc.Contents(),
		Truncated: acc.Truncated(),
	}
}

// mirror copies a received chunk into the transcript, one line per
// non-empty fragment.
func (l *Link) mirror(chunk []byte) {
	clean := strings.ToValidUTF8(string(chunk), "")
	for _, line := range strings.Split(clean, at.CRLF) {
		if line == "" {
			continue
		}
		l.recorder.AppendLog("<< " + line)
	}
}
