package mailer

// EmailJob is the JSON payload put on the RabbitMQ email queue. The API
// composes the subject and bodies; the worker only delivers.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text,omitempty"`
	HTML    string `json:"html,omitempty"`
}
