// Package render serializes a participant's ordered messages into a
// single self-contained HTML document: inline CSS, inline base64 images,
// no external references.
package render

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"

	"github.com/retrochat/ichat-recover/model"
)

const timestampFormat = "2006-01-02 03:04:05 PM"

const documentHead = `<!DOCTYPE html>
<html>
<head>
<title>Chat with %[1]s</title>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif; margin: 0; padding: 20px; background-color: #f9f9f9; }
.container { max-width: 800px; margin: auto; background-color: #fff; border: 1px solid #ddd; border-radius: 8px; overflow: hidden; }
.message { padding: 10px 20px; border-bottom: 1px solid #eee; }
.message:last-child { border-bottom: none; }
.header { font-size: 0.8em; color: #555; }
.sender { font-weight: bold; }
.content { margin-top: 5px; word-wrap: break-word; }
p { white-space: pre-wrap; margin: 0.5em 0 0 0; }
p:first-child { margin-top: 0; }
p:empty { display: none; }
.content img { max-width: 400px; max-height: 400px; border-radius: 6px; margin-top: 5px; display: block; }
</style>
</head>
<body>
<div class="container">
<h1>Chat with %[1]s</h1>
`

const documentFoot = `</div>
</body>
</html>
`

// HTML renders the transcript for one participant. Messages are emitted
// in input order; a message with neither text nor attachments still
// produces an (empty) content block so the document mirrors the source's
// message count.
func HTML(participant string, messages []model.Message) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, documentHead, html.EscapeString(participant))

	for _, msg := range messages {
		timeStr := model.NoTimestamp
		if msg.HasTimestamp() {
			timeStr = msg.Timestamp.Format(timestampFormat)
		}

		buf.WriteString(`<div class="message">`)
		fmt.Fprintf(&buf, `<div class="header"><span class="sender">%s</span> - %s</div>`,
			html.EscapeString(msg.Sender), timeStr)
		buf.WriteString(`<div class="content">`)

		if msg.Text != "" {
			fmt.Fprintf(&buf, "<p>%s</p>", html.EscapeString(msg.Text))
		}
		for _, att := range msg.Attachments {
			fmt.Fprintf(&buf, `<img src="data:%s;base64,%s">`,
				att.MIMEType, base64.StdEncoding.EncodeToString(att.Bytes))
		}

		buf.WriteString("</div></div>\n")
	}

	buf.WriteString(documentFoot)
	return buf.Bytes()
}
