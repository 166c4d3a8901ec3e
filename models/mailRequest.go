package models

type MailAttachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Base64Data  string `json:"base64_data"`
}

// MailRequest is consumed from EMAIL_TOPIC by the mail relay.
type MailRequest struct {
	To          []string         `json:"to"`
	Subject     string           `json:"subject"`
	Body        string           `json:"body"`
	Attachments []MailAttachment `json:"attachments,omitempty"`
}
