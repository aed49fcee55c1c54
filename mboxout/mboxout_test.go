package mboxout

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-mbox"

	"github.com/retrochat/ichat-recover/model"
)

func sampleConversation() model.Conversation {
	return model.Conversation{
		Participant: "Alice",
		Messages: []model.Message{
			{
				Sender:    "alice@mac.com",
				Timestamp: time.Date(2009, 4, 1, 13, 2, 0, 0, time.UTC),
				Text:      "hello from alice",
			},
			{
				Sender: "Me",
				Attachments: []model.ImageAttachment{
					{Bytes: []byte{0xFF, 0xD8, 0xFF, 0x01}, MIMEType: "image/jpeg"},
				},
			},
		},
	}
}

func TestWriteRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleConversation()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	reader := mbox.NewReader(bytes.NewReader(buf.Bytes()))
	count := 0
	var raw []byte
	for {
		mr, err := reader.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextMessage() error = %v", err)
		}
		data, err := io.ReadAll(mr)
		if err != nil {
			t.Fatalf("read message: %v", err)
		}
		raw = append(raw, data...)
		count++
	}

	if count != 2 {
		t.Fatalf("exported %d messages, want 2", count)
	}
	if !strings.Contains(string(raw), "hello from alice") {
		t.Error("exported mbox missing message text")
	}
	if !strings.Contains(string(raw), "Subject: Chat with Alice") {
		t.Error("exported mbox missing subject header")
	}
	if !strings.Contains(string(raw), "attachment-1.jpg") {
		t.Error("exported mbox missing attachment filename")
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@mac.com", "alice@mac.com"},
		{"Bob Smith", "Bob_Smith@ichat.invalid"},
		{"", "unknown@ichat.invalid"},
	}
	for _, tt := range tests {
		if got := address(tt.in); got != tt.want {
			t.Errorf("address(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
