package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"
	SendOK     = "SEND OK"
	SendFail   = "SEND FAIL"

	// SIM states reported by AT+CPIN?
	SimReady = "+CPIN: READY"
	SimPin   = "+CPIN: SIM PIN"

	// URCs (Unsolicited Result Codes)
	UrcReady      = "RDY"
	UrcOpenResult = "+QIOPEN:"
	UrcEvent      = "+QIURC:"
	UrcRecv       = "+QIURC: \"recv\""
	UrcClosed     = "+QIURC: \"closed\""
	UrcPdpDeact   = "+QIURC: \"pdpdeact\""

	// Intermediate result prefixes
	ContextState = "+QIACT:"
	ReadLength   = "+QIRD:"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR, SEND OK
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+QIACT: ...)
	TypePrompt                     // Payload input prompt
)
