// Package normalize turns raw archive message records into canonical
// messages. Normalize is total: every missing or misshapen field
// degrades to a default instead of failing, so a damaged record still
// contributes an (empty) message and the transcript keeps the source's
// message count and order.
package normalize

import (
	"strings"

	"github.com/retrochat/ichat-recover/model"
	"github.com/retrochat/ichat-recover/sniff"
	"github.com/retrochat/ichat-recover/tree"
)

// attachmentPlaceholder is U+FFFC, the object replacement character the
// source format inserts into message text where an attachment sits.
const attachmentPlaceholder = "\ufffc"

// Normalize extracts sender, timestamp, text, and embedded images from
// one raw record.
func Normalize(record tree.Value) model.Message {
	msg := model.Message{Sender: model.UnknownSender}

	if id, ok := record.Dig("Sender", "ID").Text(); ok {
		msg.Sender = id
	}
	if when, ok := record.Key("Time").Time(); ok {
		msg.Timestamp = when
	}

	content := record.Key("MessageText")

	text, _ := content.Key("NSString").Text()
	text = strings.ReplaceAll(text, attachmentPlaceholder, "")
	if strings.TrimSpace(text) != "" {
		msg.Text = text
	}

	for _, attr := range content.Key("NSAttributes").Elements() {
		blob, ok := attr.Dig("NSAttachment", "NSFileWrapper", "NSFileWrapperData", "NS.data").Bytes()
		if !ok || len(blob) == 0 {
			continue
		}
		if att, found := sniff.FindImage(blob); found {
			msg.Attachments = append(msg.Attachments, att)
		}
	}

	return msg
}
