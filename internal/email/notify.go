package email

import (
	"fmt"
	"html"
	"log/slog"
	"time"

	"device-access-control/internal/config"
	"device-access-control/internal/storage"
)

// RequestNotifier mails the administrator when a never-before-seen device
// lands in the request ledger. Sends are best-effort: failures are logged
// and never affect the device-facing result.
type RequestNotifier struct {
	client *Client
	admin  string
}

func NewRequestNotifier(config config.SMTPConfig, admin string) *RequestNotifier {
	return &RequestNotifier{
		client: NewClient(config),
		admin:  admin,
	}
}

func (n *RequestNotifier) RequestSubmitted(req storage.AccessRequest) {
	msg := &Message{
		To:      []string{n.admin},
		Subject: fmt.Sprintf("New device authorization request: %s", req.HWID),
		HTML: fmt.Sprintf(`<html><body>
<p>A new device is awaiting review.</p>
<table>
<tr><td>HWID</td><td>%s</td></tr>
<tr><td>Hostname</td><td>%s</td></tr>
<tr><td>OS</td><td>%s</td></tr>
<tr><td>Submitted</td><td>%s</td></tr>
</table>
</body></html>`,
			html.EscapeString(req.HWID),
			html.EscapeString(req.Hostname),
			html.EscapeString(req.OS),
			req.SubmittedAt.UTC().Format(time.RFC3339),
		),
	}

	if err := n.client.Send(msg); err != nil {
		slog.Warn("Failed to send request notification", "hwid", req.HWID, "error", err)
	}
}
