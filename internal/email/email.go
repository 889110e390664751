package email

import "context"

// Sender delivers a rendered notification email. Delivery failures are the
// sender's problem; scheduling state is never rolled back over a lost email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
