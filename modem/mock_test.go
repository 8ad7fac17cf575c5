package modem_test

import (
	"strconv"

	gomock "go.uber.org/mock/gomock"
	"i4.energy/across/cellgw/modem"
)

type MockSequenceBuilder struct {
	transport *modem.MockTransport
	calls     []any
}

func NewMockSequence(transport *modem.MockTransport) *MockSequenceBuilder {
	return &MockSequenceBuilder{
		transport: transport,
		calls:     []any{},
	}
}

// exchange queues one command write and the chunk the modem answers
// with.
func (b *MockSequenceBuilder) exchange(cmd, response string) *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().Write([]byte(cmd+"\r\n")).Return(len(cmd)+2, nil),
		b.transport.EXPECT().ReadChunk(gomock.Any()).Return([]byte(response), nil),
	)
	return b
}

func (b *MockSequenceBuilder) SimReady() *MockSequenceBuilder {
	return b.exchange("AT+CPIN?", "+CPIN: READY\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SimPinRequired() *MockSequenceBuilder {
	return b.exchange("AT+CPIN?", "+CPIN: SIM PIN\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Registered() *MockSequenceBuilder {
	return b.exchange("AT+CREG?", "+CREG: 0,1\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) NotRegistered() *MockSequenceBuilder {
	return b.exchange("AT+CREG?", "+CREG: 0,2\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) Attached() *MockSequenceBuilder {
	return b.exchange("AT+CGATT=1", "OK\r\n")
}

func (b *MockSequenceBuilder) ApnConfigured(apn string) *MockSequenceBuilder {
	return b.exchange(`AT+QICSGP=1,1,"`+apn+`","","",1`, "OK\r\n")
}

func (b *MockSequenceBuilder) ContextActivated() *MockSequenceBuilder {
	return b.exchange("AT+QIACT=1", "OK\r\n")
}

func (b *MockSequenceBuilder) ContextActivationFails() *MockSequenceBuilder {
	return b.exchange("AT+QIACT=1", "ERROR\r\n")
}

func (b *MockSequenceBuilder) ContextAlreadyActive() *MockSequenceBuilder {
	return b.exchange("AT+QIACT?", "+QIACT: 1,1,1,\"10.0.0.5\"\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SocketOpened(host string, port string) *MockSequenceBuilder {
	return b.exchange(`AT+QIOPEN=1,0,"TCP","`+host+`",`+port+`,0,0`, "OK\r\n\r\n+QIOPEN: 0,0\r\n")
}

// SocketOpenRejected answers the open with result code 4 (peer refused).
func (b *MockSequenceBuilder) SocketOpenRejected(host string, port string) *MockSequenceBuilder {
	return b.exchange(`AT+QIOPEN=1,0,"TCP","`+host+`",`+port+`,0,0`, "OK\r\n\r\n+QIOPEN: 0,4\r\n")
}

func (b *MockSequenceBuilder) SendPrompt() *MockSequenceBuilder {
	return b.exchange("AT+QISEND=0", "> ")
}

// PayloadAccepted queues the raw payload write (terminated by Ctrl+Z,
// not CRLF) and the SEND OK acknowledgement.
func (b *MockSequenceBuilder) PayloadAccepted(payload string) *MockSequenceBuilder {
	raw := []byte(payload + "\x1a")
	b.calls = append(b.calls,
		b.transport.EXPECT().Write(raw).Return(len(raw), nil),
		b.transport.EXPECT().ReadChunk(gomock.Any()).Return([]byte("\r\nSEND OK\r\n"), nil),
	)
	return b
}

// RecvNotice queues the unsolicited receive indication the modem emits
// once response data is buffered. No command write precedes it.
func (b *MockSequenceBuilder) RecvNotice() *MockSequenceBuilder {
	b.calls = append(b.calls,
		b.transport.EXPECT().ReadChunk(gomock.Any()).Return([]byte("+QIURC: \"recv\",0\r\n"), nil),
	)
	return b
}

func (b *MockSequenceBuilder) PayloadRead(body string) *MockSequenceBuilder {
	response := "+QIRD: " + strconv.Itoa(len(body)) + "\r\n" + body + "\r\nOK\r\n"
	return b.exchange("AT+QIRD=0,1500", response)
}

// PayloadReadEmpty answers a read with zero buffered bytes.
func (b *MockSequenceBuilder) PayloadReadEmpty() *MockSequenceBuilder {
	return b.exchange("AT+QIRD=0,1500", "+QIRD: 0\r\n\r\nOK\r\n")
}

func (b *MockSequenceBuilder) SocketClosed() *MockSequenceBuilder {
	return b.exchange("AT+QICLOSE=0", "OK\r\n")
}

func (b *MockSequenceBuilder) SocketCloseRejected() *MockSequenceBuilder {
	return b.exchange("AT+QICLOSE=0", "ERROR\r\n")
}

func (b *MockSequenceBuilder) Build() []any {
	return b.calls
}
