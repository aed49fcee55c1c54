package render

import (
	"bytes"
	"encoding/base64"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/retrochat/ichat-recover/model"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), 0x01, 0x02, 0x03)

func TestHTMLTextAndImage(t *testing.T) {
	messages := []model.Message{
		{
			Sender:      "alice@mac.com",
			Timestamp:   time.Date(2009, 4, 1, 13, 2, 5, 0, time.UTC),
			Text:        "Hi",
			Attachments: []model.ImageAttachment{{Bytes: pngBytes, MIMEType: "image/png"}},
		},
	}

	doc := string(HTML("Alice", messages))

	if !strings.Contains(doc, "<p>Hi</p>") {
		t.Error("document missing text paragraph")
	}
	if !strings.Contains(doc, "2009-04-01 01:02:05 PM") {
		t.Error("document missing formatted timestamp")
	}

	// The image data URI must decode back to the exact source bytes.
	re := regexp.MustCompile(`data:image/png;base64,([A-Za-z0-9+/=]+)`)
	m := re.FindStringSubmatch(doc)
	if m == nil {
		t.Fatal("document missing png data URI")
	}
	decoded, err := base64.StdEncoding.DecodeString(m[1])
	if err != nil {
		t.Fatalf("data URI is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, pngBytes) {
		t.Error("data URI does not round-trip the attachment bytes")
	}
}

func TestHTMLEscaping(t *testing.T) {
	messages := []model.Message{
		{Sender: "<script>alert(1)</script>", Text: "a < b & c"},
	}

	doc := string(HTML(`Alice & "Friends"`, messages))

	if strings.Contains(doc, "<script>") {
		t.Error("sender was not escaped")
	}
	if !strings.Contains(doc, "a &lt; b &amp; c") {
		t.Error("text was not escaped")
	}
	if !strings.Contains(doc, "Alice &amp; &#34;Friends&#34;") {
		t.Error("participant was not escaped")
	}
}

func TestHTMLNoTimestampSentinel(t *testing.T) {
	doc := string(HTML("Alice", []model.Message{{Sender: "alice"}}))
	if !strings.Contains(doc, model.NoTimestamp) {
		t.Errorf("document missing %q sentinel", model.NoTimestamp)
	}
}

func TestHTMLEmptyMessageStillRendered(t *testing.T) {
	messages := []model.Message{
		{Sender: "alice"},
		{Sender: "bob", Text: "hello"},
	}

	doc := string(HTML("Alice", messages))
	if got := strings.Count(doc, `<div class="message">`); got != 2 {
		t.Errorf("rendered %d message blocks, want 2", got)
	}
}

func TestHTMLOmitsEmptyTextParagraph(t *testing.T) {
	doc := string(HTML("Alice", []model.Message{{Sender: "alice"}}))
	if strings.Contains(doc, "<p></p>") {
		t.Error("empty text paragraph should be omitted entirely")
	}
}

func TestHTMLDeterministic(t *testing.T) {
	messages := []model.Message{
		{Sender: "alice", Text: "one", Timestamp: time.Date(2009, 4, 1, 13, 2, 0, 0, time.UTC)},
		{Sender: "bob", Attachments: []model.ImageAttachment{{Bytes: pngBytes, MIMEType: "image/png"}}},
	}

	first := HTML("Alice", messages)
	second := HTML("Alice", messages)
	if !bytes.Equal(first, second) {
		t.Error("rendering the same input twice produced different bytes")
	}
}
