package mailer

// EmailJob is the message published to the mail queue and consumed by the
// email worker.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html,omitempty"`
}
