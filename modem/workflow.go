package modem

import (
	"context"
	"fmt"
	"strings"
	"time"

	"i4.energy/across/cellgw/at"
)

// WorkflowFetch identifies the only workflow the engine ships with:
// fetch one HTTP resource over the cellular socket.
const WorkflowFetch = "fetch"

// State names one protocol-level milestone of the fetch workflow.
type State int

const (
	StateCheckingSim State = iota
	StateCheckingRegistration
	StateAttaching
	StateConfiguringApn
	StateActivatingContext
	StateOpeningSocket
	StateAwaitingSendPrompt
	StateSendingPayload
	StateAwaitingReceiveNotice
	StateReadingPayload
	StateClosed
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCheckingSim:
		return "checking_sim"
	case StateCheckingRegistration:
		return "checking_registration"
	case StateAttaching:
		return "attaching"
	case StateConfiguringApn:
		return "configuring_apn"
	case StateActivatingContext:
		return "activating_context"
	case StateOpeningSocket:
		return "opening_socket"
	case StateAwaitingSendPrompt:
		return "awaiting_send_prompt"
	case StateSendingPayload:
		return "sending_payload"
	case StateAwaitingReceiveNotice:
		return "awaiting_receive_notice"
	case StateReadingPayload:
		return "reading_payload"
	case StateClosed:
		return "closed"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reporter publishes workflow progress. The result store implements it.
type Reporter interface {
	Recorder
	SetStatus(text string)
}

type nopReporter struct{ nopRecorder }

func (nopReporter) SetStatus(string) {}

// step binds a state to the command that drives it, plus the retry and
// verification shape the state needs. attempts above one makes the step
// a bounded poll: timeouts go around again, anything else is final.
type step struct {
	state    State
	command  Command
	attempts int
	verify   func(Outcome) Outcome
	fallback *recovery
	after    func(*Session)
}

// recovery is the activation special case: a read-only query that can
// prove a failed step actually succeeded.
type recovery struct {
	command   Command
	satisfied func(captured string) bool
	note      string
}

// Engine runs the fetch workflow state machine over a Link. One Engine
// serves one dispatcher; Run is never called concurrently.
type Engine struct {
	link     *Link
	config   Config
	session  *Session
	reporter Reporter

	// Observe, when set, receives one call per finished step with the
	// state name and the outcome kind.
	Observe func(state, outcome string)
}

func NewEngine(link *Link, session *Session, reporter Reporter, cfg Config) *Engine {
	cfg.setDefaults()
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Engine{
		link:     link,
		config:   cfg,
		session:  session,
		reporter: reporter,
	}
}

// Run drives the workflow from CheckingSim to a terminal state,
// publishing each transition as it happens. A nil return means
// Completed; otherwise the error mirrors the failure reason in the
// status label. The engine never rolls back protocol state it already
// applied, but every terminal path gets a best-effort socket close
// whose own failures are only logged.
func (e *Engine) Run(ctx context.Context) error {
	e.session.Reset()

	for _, st := range e.steps() {
		e.reporter.SetStatus(st.state.String())

		out := e.runStep(ctx, st)
		if out.Kind == OutcomeFailure && st.fallback != nil {
			out = e.tryFallback(ctx, st.fallback, out)
		}

		e.reporter.AppendLog(fmt.Sprintf("%s: %s", st.state, out.Describe(st.command.Timeout)))
		if e.Observe != nil {
			e.Observe(st.state.String(), out.Kind.String())
		}

		if out.Kind != OutcomeSuccess {
			reason := fmt.Sprintf("%s: %s", st.state, out.Describe(st.command.Timeout))
			e.reporter.SetStatus("failed: " + reason)
			e.cleanup(ctx, false)
			e.logSession()
			return fmt.Errorf("workflow failed: %s", reason)
		}

		if st.after != nil {
			st.after(e.session)
		}
		if err := sleepCtx(ctx, e.config.SettleDelay); err != nil {
			e.reporter.SetStatus("failed: cancelled")
			e.cleanup(ctx, false)
			e.logSession()
			return err
		}
	}

	e.cleanup(ctx, true)
	e.logSession()
	e.reporter.SetStatus(StateCompleted.String())
	return nil
}

// runStep issues the step's command up to its attempt budget. Only a
// timeout spends an attempt; every other outcome is final for the step.
func (e *Engine) runStep(ctx context.Context, st step) Outcome {
	attempts := st.attempts
	if attempts <= 0 {
		attempts = 1
	}

	var out Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, e.config.PollInterval); err != nil {
				return Outcome{Kind: OutcomeTransport, Err: err}
			}
		}
		out = e.link.Execute(ctx, st.command)
		if st.verify != nil {
			out = st.verify(out)
		}
		if out.Kind != OutcomeTimeout {
			return out
		}
	}
	return out
}

// tryFallback runs the read-only recovery query after a failed step.
// Only a clean success whose captured text satisfies the check rescues
// the step; anything else leaves the original failure in place.
func (e *Engine) tryFallback(ctx context.Context, fb *recovery, failed Outcome) Outcome {
	rec := e.link.Execute(ctx, fb.command)
	if rec.Kind == OutcomeSuccess && fb.satisfied(rec.Captured) {
		e.reporter.AppendLog(fb.note)
		return rec
	}
	return failed
}

// cleanup issues the best-effort socket close every terminal path gets.
func (e *Engine) cleanup(ctx context.Context, announce bool) {
	if announce {
		e.reporter.SetStatus(StateClosed.String())
	}
	out := e.link.Execute(ctx, Command{
		Text:    "AT+QICLOSE=0",
		Success: []string{at.OK},
		Failure: []string{at.ERROR, at.CmeError},
		Timeout: e.config.ATTimeout,
	})
	e.reporter.AppendLog(fmt.Sprintf("%s: %s", StateClosed, out.Describe(e.config.ATTimeout)))
	if e.Observe != nil {
		e.Observe(StateClosed.String(), out.Kind.String())
	}
	if out.Kind == OutcomeSuccess {
		e.session.SocketOpen = BeliefNo
	}
}

func (e *Engine) logSession() {
	e.reporter.AppendLog(fmt.Sprintf("session: context=%s socket=%s",
		e.session.ContextActive, e.session.SocketOpen))
}

// steps is the workflow table. Each entry is one named state and the
// command that drives it; order is the protocol order.
func (e *Engine) steps() []step {
	cfg := e.config
	request := buildRequest(cfg)

	return []step{
		{
			state: StateCheckingSim,
			command: Command{
				Text:    "AT+CPIN?",
				Success: []string{at.SimReady},
				Failure: []string{at.SimPin, at.ERROR, at.CmeError},
				Timeout: cfg.ATTimeout,
			},
		},
		{
			state: StateCheckingRegistration,
			command: Command{
				Text:    "AT+CREG?",
				Success: []string{at.OK},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ATTimeout,
			},
			verify: func(out Outcome) Outcome {
				if out.Kind != OutcomeSuccess {
					return out
				}
				if !at.Registered(out.Captured) {
					out.Kind = OutcomeFailure
					out.Token = "not registered"
				}
				return out
			},
		},
		{
			state: StateAttaching,
			command: Command{
				Text:    "AT+CGATT=1",
				Success: []string{at.OK},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ConnectTimeout,
			},
		},
		{
			state: StateConfiguringApn,
			command: Command{
				Text:    fmt.Sprintf(`AT+QICSGP=1,1,"%s","","",1`, cfg.APN),
				Success: []string{at.OK},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ATTimeout,
			},
		},
		{
			state: StateActivatingContext,
			command: Command{
				Text:    "AT+QIACT=1",
				Success: []string{at.OK},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ConnectTimeout,
			},
			fallback: &recovery{
				command: Command{
					Text:    "AT+QIACT?",
					Success: []string{at.OK},
					Failure: []string{at.ERROR, at.CmeError},
					Timeout: cfg.ATTimeout,
				},
				satisfied: at.ContextActive,
				note:      "context already active, continuing",
			},
			after: func(s *Session) { s.ContextActive = BeliefYes },
		},
		{
			state: StateOpeningSocket,
			command: Command{
				Text:    fmt.Sprintf(`AT+QIOPEN=1,0,"TCP","%s",%d,0,0`, cfg.TargetHost, cfg.TargetPort),
				Success: []string{at.UrcOpenResult},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ConnectTimeout,
			},
			verify: func(out Outcome) Outcome {
				if out.Kind != OutcomeSuccess {
					return out
				}
				connID, code, ok := at.ParseOpenResult(out.Captured)
				if !ok {
					out.Kind = OutcomeFailure
					out.Token = "unreadable open result"
					return out
				}
				if code != 0 {
					out.Kind = OutcomeFailure
					out.Token = fmt.Sprintf("+QIOPEN: %d,%d", connID, code)
				}
				return out
			},
			after: func(s *Session) { s.SocketOpen = BeliefYes },
		},
		{
			state: StateAwaitingSendPrompt,
			command: Command{
				Text:    "AT+QISEND=0",
				Success: []string{at.Prompt},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ATTimeout,
			},
		},
		{
			state: StateSendingPayload,
			command: Command{
				Payload:       request,
				PayloadSuffix: []byte(at.CtrlZ),
				Success:       []string{at.SendOK},
				Failure:       []string{at.SendFail, at.ERROR, at.CmeError},
				Timeout:       cfg.ConnectTimeout,
			},
		},
		{
			state: StateAwaitingReceiveNotice,
			command: Command{
				Success: []string{at.UrcRecv},
				Failure: []string{at.UrcClosed},
				Timeout: cfg.PollInterval,
			},
			attempts: cfg.PollAttempts,
		},
		{
			state: StateReadingPayload,
			command: Command{
				Text:    "AT+QIRD=0,1500",
				Success: []string{at.CRLF + at.OK + at.CRLF},
				Failure: []string{at.ERROR, at.CmeError},
				Timeout: cfg.ATTimeout,
			},
			attempts: cfg.PollAttempts,
			verify: func(out Outcome) Outcome {
				if out.Kind != OutcomeSuccess {
					return out
				}
				n, ok := at.ParseReadLength(out.Captured)
				if !ok {
					out.Kind = OutcomeFailure
					out.Token = "unreadable read response"
					return out
				}
				if n == 0 {
					out.Kind = OutcomeTimeout
					out.Token = ""
					return out
				}
				out.Token = fmt.Sprintf("+QIRD: %d", n)
				return out
			},
		},
	}
}

// buildRequest renders the fixed HTTP request the workflow pushes
// through the modem socket.
func buildRequest(cfg Config) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "GET %s HTTP/1.1\r\n", cfg.RequestPath)
	fmt.Fprintf(&b, "Host: %s\r\n", cfg.TargetHost)
	b.WriteString("Connection: close\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
