package services

import (
	"time"

	"github.com/yeremiapane/restaurant-pos/database"
)

// Event names pushed to the kitchen display after a commit.
const (
	EventKOTPunched     = "kot_punched"
	EventKOTItemDeleted = "kot_item_deleted"
	EventTableUpdate    = "table_update"
	EventBillCreated    = "bill_created"
	EventBillSettled    = "bill_settled"
)

// Notifier receives state changes once they are committed.
type Notifier interface {
	Broadcast(event string, data interface{})
}

type noopNotifier struct{}

func (noopNotifier) Broadcast(string, interface{}) {}

// timeNow is swapped in tests that need a fixed clock.
var timeNow = func() time.Time {
	return time.Now().UTC()
}

// Services bundles the POS managers around one store.
type Services struct {
	Sessions *SessionService
	Tables   *TableService
	KOTs     *KOTService
	Bills    *BillService
	Menu     *MenuService
	Users    *UserService
}

// New wires every service to store. A nil notifier disables broadcasts.
func New(store *database.Store, notifier Notifier) *Services {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	db := store.DB
	return &Services{
		Sessions: NewSessionService(db),
		Tables:   NewTableService(db),
		KOTs:     NewKOTService(db, notifier),
		Bills:    NewBillService(db, notifier),
		Menu:     NewMenuService(db),
		Users:    NewUserService(db),
	}
}

// payload is the body of small broadcast events.
type payload map[string]interface{}
