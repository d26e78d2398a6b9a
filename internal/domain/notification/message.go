package notification

import (
	"fmt"
	"strings"
)

// Message is the channel-neutral rendering of a job.
type Message struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

var kindLabels = map[string]string{
	"medical_examination": "Medical examination",
	"training_assignment": "Training",
	"equipment_check":     "Equipment verification",
	"legal_obligation":    "Legal obligation",
}

// Render builds the subject and body of a job. SMS and WhatsApp senders use
// only the body.
func Render(j *Job) Message {
	label := kindLabels[string(j.Ref.Kind)]
	if label == "" {
		label = "Obligation"
	}
	title := j.Title
	if title == "" {
		title = j.Ref.ID
	}

	var subject, body string
	switch j.Trigger {
	case TriggerResolved:
		subject = fmt.Sprintf("[resolved] %s: %s", label, title)
		body = fmt.Sprintf("%s \"%s\" is back in compliance.", label, title)
	case TriggerEscalated:
		subject = fmt.Sprintf("[%s] %s: %s", strings.ToUpper(j.Severity.String()), label, title)
		body = fmt.Sprintf("%s \"%s\" escalated to %s.", label, title, j.Severity)
	default:
		subject = fmt.Sprintf("[%s] %s: %s", strings.ToUpper(j.Severity.String()), label, title)
		body = fmt.Sprintf("%s \"%s\" requires attention (%s).", label, title, j.Severity)
	}
	return Message{Subject: subject, Body: body}
}

//Personal.AI order the ending
