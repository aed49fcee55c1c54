package model

import "time"

// UnknownSender is used when a message record carries no sender identity.
const UnknownSender = "Unknown Sender"

// NoTimestamp is rendered for messages whose record carries no date-time.
const NoTimestamp = "No Timestamp"

// Message is a single normalized chat message recovered from an archive.
// A zero Timestamp means the record carried no usable date-time; such
// messages sort before every timestamped one.
type Message struct {
	Sender      string
	Timestamp   time.Time
	Text        string
	Attachments []ImageAttachment
}

// HasTimestamp reports whether the message carries a real timestamp.
func (m Message) HasTimestamp() bool {
	return !m.Timestamp.IsZero()
}

// ImageAttachment is an embedded image recovered from an archive blob.
// MIMEType is derived from the leading signature bytes.
type ImageAttachment struct {
	Bytes    []byte
	MIMEType string
}

// Conversation is the merged, time-ordered transcript for one participant.
type Conversation struct {
	Participant string
	Messages    []Message
}
