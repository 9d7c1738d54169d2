package audience

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/eventops/backoffice-api/internal/model"
)

// Kind is the coarse category a recipient was resolved from.
type Kind string

const (
	KindSupplier Kind = "supplier"
	KindClient   Kind = "client"
	KindAdmin    Kind = "admin"
)

// Recipient is a resolved delivery target: either a back-office account or
// an unlinked party known only by phone. The constructors are the only way
// to build one, so downstream code cannot mistake a synthetic identity for
// a real user id.
type Recipient struct {
	kind     Kind
	entityID string
	name     string
	phone    string
	user     *model.User
}

// Account builds a recipient backed by a user account. The phone may come
// from the party record rather than the account; WhatsApp delivery never
// depends on the account.
func Account(kind Kind, entityID, name, phone string, user *model.User) Recipient {
	if phone == "" && user != nil {
		phone = user.Phone
	}
	return Recipient{kind: kind, entityID: entityID, name: name, phone: phone, user: user}
}

// Unlinked builds a recipient with no user account. Push delivery is
// impossible for it; WhatsApp works from the phone alone.
func Unlinked(kind Kind, entityID, name, phone string) Recipient {
	return Recipient{kind: kind, entityID: entityID, name: name, phone: phone}
}

// Key is the stable identity stored on NotificationRecords and used by the
// dedup ledger.
func (r Recipient) Key() string {
	if r.user != nil {
		return r.user.ID.String()
	}
	return fmt.Sprintf("virtual_%s_%s", r.kind, r.entityID)
}

func (r Recipient) Kind() Kind    { return r.kind }
func (r Recipient) Name() string  { return r.name }
func (r Recipient) Phone() string { return r.phone }

// UserID returns the linked account id, if any.
func (r Recipient) UserID() *uuid.UUID {
	if r.user == nil {
		return nil
	}
	id := r.user.ID
	return &id
}

// PushSubscription returns the push target; ok is false for unlinked
// recipients and accounts that never registered one.
func (r Recipient) PushSubscription() (string, bool) {
	if r.user == nil || r.user.PushSubscriptionID == nil || *r.user.PushSubscriptionID == "" {
		return "", false
	}
	return *r.user.PushSubscriptionID, true
}

// QuietHours returns the recipient's configured nightly window; nils mean
// the system defaults apply.
func (r Recipient) QuietHours() (start, end *int) {
	if r.user == nil {
		return nil, nil
	}
	return r.user.QuietStartHour, r.user.QuietEndHour
}
