// Package mboxout exports a recovered conversation as an mbox file, one
// RFC 5322 message per chat message, so transcripts can be imported into
// a regular mail client. Attachments become MIME attachment parts.
//
// Headers are pinned per message position, but go-message generates
// random multipart boundaries, so re-exports are semantically equal
// without being byte-identical. Only the HTML transcripts carry the
// byte-level reproducibility guarantee.
package mboxout

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/emersion/go-message/mail"

	"github.com/retrochat/ichat-recover/model"
)

var addressUnsafe = regexp.MustCompile(`[^a-zA-Z0-9._%+-]`)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Export writes conv to path. The file is created or truncated.
func Export(path string, conv model.Conversation) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create mbox file: %w", err)
	}

	if err := Write(file, conv); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close mbox file: %w", err)
	}
	return nil
}

// Write serializes conv to w in mbox format, preserving message order.
func Write(w io.Writer, conv model.Conversation) error {
	mw := mbox.NewWriter(w)

	for i, msg := range conv.Messages {
		when := msg.Timestamp
		if !msg.HasTimestamp() {
			when = time.Unix(0, 0).UTC()
		}

		out, err := mw.CreateMessage(address(msg.Sender), when)
		if err != nil {
			return fmt.Errorf("mbox message %d: %w", i, err)
		}
		if err := writeMessage(out, conv.Participant, msg, when, i); err != nil {
			return fmt.Errorf("mbox message %d: %w", i, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("close mbox writer: %w", err)
	}
	return nil
}

func writeMessage(w io.Writer, participant string, msg model.Message, when time.Time, seq int) error {
	var header mail.Header
	header.SetDate(when)
	header.SetSubject("Chat with " + participant)
	header.SetAddressList("From", []*mail.Address{{Name: msg.Sender, Address: address(msg.Sender)}})
	// Stable per position so mail clients can thread re-imports.
	header.Set("Message-Id", fmt.Sprintf("<%d.%d@ichat.invalid>", when.Unix(), seq))

	mw, err := mail.CreateWriter(w, header)
	if err != nil {
		return fmt.Errorf("create message writer: %w", err)
	}

	if msg.Text != "" {
		iw, err := mw.CreateInline()
		if err != nil {
			return fmt.Errorf("create inline writer: %w", err)
		}
		var th mail.InlineHeader
		th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		part, err := iw.CreatePart(th)
		if err != nil {
			return fmt.Errorf("create text part: %w", err)
		}
		if _, err := io.WriteString(part, msg.Text); err != nil {
			return fmt.Errorf("write text part: %w", err)
		}
		if err := part.Close(); err != nil {
			return fmt.Errorf("close text part: %w", err)
		}
		if err := iw.Close(); err != nil {
			return fmt.Errorf("close inline writer: %w", err)
		}
	}

	for n, att := range msg.Attachments {
		var ah mail.AttachmentHeader
		ah.SetContentType(att.MIMEType, nil)
		ah.SetFilename(fmt.Sprintf("attachment-%d%s", n+1, extensions[att.MIMEType]))
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("create attachment %d: %w", n, err)
		}
		if _, err := aw.Write(att.Bytes); err != nil {
			return fmt.Errorf("write attachment %d: %w", n, err)
		}
		if err := aw.Close(); err != nil {
			return fmt.Errorf("close attachment %d: %w", n, err)
		}
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("close message writer: %w", err)
	}
	return nil
}

// address synthesizes a stable RFC 5322 address for a chat identity.
func address(sender string) string {
	if strings.Contains(sender, "@") {
		return sender
	}
	local := addressUnsafe.ReplaceAllString(sender, "_")
	if local == "" {
		local = "unknown"
	}
	return local + "@ichat.invalid"
}
