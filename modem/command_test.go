package modem_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"i4.energy/across/cellgw/modem"
)

func TestAdHoc(t *testing.T) {
	cmd := modem.AdHoc("AT+CSQ", 2*time.Second)

	if cmd.Text != "AT+CSQ" {
		t.Errorf("unexpected command text: %q", cmd.Text)
	}
	if len(cmd.Success) != 1 || cmd.Success[0] != "OK" {
		t.Errorf("unexpected success tokens: %v", cmd.Success)
	}
	for _, want := range []string{"ERROR", "+CME ERROR:", "+CMS ERROR:"} {
		found := false
		for _, tok := range cmd.Failure {
			if tok == want {
				found = true
			}
		}
		if !found {
			t.Errorf("missing failure token %q", want)
		}
	}
	if cmd.Timeout != 2*time.Second {
		t.Errorf("unexpected timeout: %v", cmd.Timeout)
	}
}

func TestOutcomeKindString(t *testing.T) {
	tests := []struct {
		kind modem.OutcomeKind
		want string
	}{
		{modem.OutcomeSuccess, "success"},
		{modem.OutcomeFailure, "failure"},
		{modem.OutcomeTimeout, "timeout"},
		{modem.OutcomeTransport, "transport_error"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("kind %d: expected %q, got %q", tt.kind, tt.want, got)
		}
	}
}

func TestOutcomeDescribe(t *testing.T) {
	timeout := 5 * time.Second

	tests := []struct {
		name    string
		outcome modem.Outcome
		want    string
	}{
		{
			name:    "success names the token",
			outcome: modem.Outcome{Kind: modem.OutcomeSuccess, Token: "OK"},
			want:    "OK",
		},
		{
			name:    "failure quotes the token",
			outcome: modem.Outcome{Kind: modem.OutcomeFailure, Token: "+CME ERROR: 30"},
			want:    `modem reported "+CME ERROR: 30"`,
		},
		{
			name:    "silent timeout",
			outcome: modem.Outcome{Kind: modem.OutcomeTimeout},
			want:    "no response within 5s",
		},
		{
			name:    "timeout with partial output",
			outcome: modem.Outcome{Kind: modem.OutcomeTimeout, Captured: "+CREG: 0,2\r\n"},
			want:    `no terminal response within 5s, last output "+CREG: 0,2"`,
		},
		{
			name:    "transport failure",
			outcome: modem.Outcome{Kind: modem.OutcomeTransport, Err: errors.New("port gone")},
			want:    "transport failure: port gone",
		},
		{
			name:    "truncated capture is called out",
			outcome: modem.Outcome{Kind: modem.OutcomeSuccess, Token: "OK", Truncated: true},
			want:    "OK (output truncated)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Describe(timeout); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestOutcomeDescribe_LongOutputKeepsTail(t *testing.T) {
	captured := strings.Repeat("x", 80) + "+CREG: 0,2"
	outcome := modem.Outcome{Kind: modem.OutcomeTimeout, Captured: captured}

	got := outcome.Describe(time.Second)
	if !strings.Contains(got, "+CREG: 0,2") {
		t.Errorf("expected tail of output preserved, got %q", got)
	}
	if !strings.Contains(got, "[...]") {
		t.Errorf("expected truncation marker in long output, got %q", got)
	}
	if strings.Contains(got, strings.Repeat("x", 70)) {
		t.Errorf("expected head of output dropped, got %q", got)
	}
}
