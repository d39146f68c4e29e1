package relay

import "fmt"

// Destination is the dst field of every feedback action
const Destination = "relay"

// Relay targets
const (
	TargetJabber   = "jabber"
	TargetTelegram = "tg"
	TargetMail     = "mail"
)

// IsInstant reports whether target delivers instant-message text
func IsInstant(target string) bool {
	return target == TargetJabber || target == TargetTelegram
}

// Attachment is a base64 encoded file sent by mail
type Attachment struct {
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

// Action is a feedback message handed to the relay
type Action struct {
	Destination string      `json:"dst"`
	Target      string      `json:"relayto"`
	Recipient   string      `json:"to"`
	Text        string      `json:"msg,omitempty"`
	Attachment  *Attachment `json:"html,omitempty"`
	Subject     string      `json:"subject,omitempty"`
}

// Text builds an instant-message action
func Text(target, recipient, msg string) Action {
	return Action{
		Destination: Destination,
		Target:      target,
		Recipient:   recipient,
		Text:        msg,
	}
}

// Mail builds an e-mail action carrying an attachment
func Mail(recipient, subject string, att *Attachment) Action {
	return Action{
		Destination: Destination,
		Target:      TargetMail,
		Recipient:   recipient,
		Attachment:  att,
		Subject:     subject,
	}
}

// IsEmail reports whether the action is delivered by mail
func (a Action) IsEmail() bool {
	return a.Target == TargetMail
}

func (a Action) String() string {
	if a.Attachment != nil {
		return fmt.Sprintf("%s -> %s (attachment %s)", a.Target, a.Recipient, a.Attachment.Filename)
	}
	return fmt.Sprintf("%s -> %s (%d bytes)", a.Target, a.Recipient, len(a.Text))
}
