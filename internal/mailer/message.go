package mailer

// Message represents an outbound email payload. Fields are provider-agnostic
// so the dispatcher can be swapped without touching the pipeline.
type Message struct {
	From        string
	FromName    string
	To          string
	ReplyTo     string
	ReplyToName string
	Subject     string
	HTMLBody    string
	TextBody    string
}

// Dispatcher transmits a rendered message or fails with a transport error.
// The pipeline depends only on this interface; production uses the SMTP
// implementation, tests supply a double.
type Dispatcher interface {
	Send(msg *Message) error
}
