package activity

import (
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionLogin                Action = "login"
	ActionLogout               Action = "logout"
	ActionRegister             Action = "register"
	ActionInvoiceCreated       Action = "invoice_created"
	ActionInvoiceStatusChanged Action = "invoice_status_changed"
	ActionPaymentRecorded      Action = "payment_recorded"
	ActionUserStatusChanged    Action = "user_status_changed"
	ActionUserDeleted          Action = "user_deleted"
)

// Entry is one line of the append-only audit log.
type Entry struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	UserName  string
	Action    Action
	Details   string
	CreatedAt time.Time
}
