package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/template"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/s2c2-dev/staffing/backend/internal/changelog"
	"github.com/s2c2-dev/staffing/backend/internal/domain"
	"github.com/s2c2-dev/staffing/backend/internal/slot"
)

// ErrMalformed marks events that can never be delivered; they should be
// dropped rather than requeued.
var ErrMalformed = errors.New("notify: malformed change event")

const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

var bodyTemplate = template.Must(template.New("change").Parse(`Hello {{.Name}},

Your schedule for {{.Day}} was changed:

  {{.Description}}

Changed at {{.When}}.
`))

type UserStore interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Notifier struct {
	users    UserStore
	sender   Sender
	from     string
	location *time.Location
}

func NewNotifier(users UserStore, sender Sender, from string, loc *time.Location) *Notifier {
	return &Notifier{
		users:    users,
		sender:   sender,
		from:     from,
		location: loc,
	}
}

// Handle emails the user directly affected by one change event. Events with
// no single recipient, or whose recipient is the author, are skipped.
func (n *Notifier) Handle(ctx context.Context, body []byte) (string, error) {
	var e domain.ChangeEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return ResultFailed, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	recipientID, ok := changelog.Recipient(e.Entry)
	if !ok {
		return ResultSkipped, nil
	}

	day, err := entryDay(e.Entry)
	if err != nil {
		return ResultFailed, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	user, err := n.users.GetUserByID(ctx, recipientID)
	if err != nil {
		return ResultFailed, err
	}
	if !user.IsActive || user.Email == "" {
		return ResultSkipped, nil
	}

	msg, err := n.message(user, day, e)
	if err != nil {
		return ResultFailed, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return ResultFailed, err
	}

	return ResultSent, nil
}

func (n *Notifier) message(user *domain.User, day slot.DayToken, e domain.ChangeEvent) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return nil, err
	}
	if err := msg.To(user.Email); err != nil {
		return nil, err
	}
	msg.Subject(fmt.Sprintf("Schedule update for %s", day.Display()))

	data := struct {
		Name        string
		Day         string
		Description string
		When        string
	}{
		Name:        user.DisplayName(),
		Day:         day.Display(),
		Description: e.Description,
		When:        e.Entry.Updated.In(n.location).Format("Mon Jan 2 3:04PM"),
	}
	if err := msg.SetBodyTextTemplate(bodyTemplate, data); err != nil {
		return nil, err
	}

	return msg, nil
}

func entryDay(e domain.LogEntry) (slot.DayToken, error) {
	if changelog.IsMeetType(e.Type) {
		p, err := changelog.ParseMeetRef(e.Ref)
		return p.Day, err
	}
	_, day, err := changelog.ParseDayRef(e.Ref)
	return day, err
}
