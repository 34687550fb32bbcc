package conversation

import "strconv"

// EventKind distinguishes the three inputs a chat can produce.
type EventKind int

const (
	EventCommand EventKind = iota
	EventCallback
	EventText
)

func (k EventKind) String() string {
	switch k {
	case EventCommand:
		return "command"
	case EventCallback:
		return "callback"
	case EventText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one user input. Payload holds the command text, the callback
// value, or the typed message.
type Event struct {
	Kind    EventKind
	ChatID  int64
	UserID  int64
	Payload string
}

// Choice is a labeled button. Value comes back as the payload of an EventCallback.
type Choice struct {
	Label string
	Value string
}

// Reply is what the engine wants sent back. Text is HTML.
// Columns is the number of buttons per row; zero means one.
type Reply struct {
	Text    string
	Choices []Choice
	Columns int
}

// Callback values understood by the engine besides row buttons.
const (
	CallbackNewContract   = "newcontract"
	CallbackShowContract  = "showcontract"
	CallbackAlerts        = "alerts"
	CallbackStartAlerts   = "startalerts"
	CallbackStopAlerts    = "stopalerts"
	CallbackEnd           = "end"
	CallbackNewCategory   = "new_category"
	CallbackNewType       = "new_type"
	CallbackBack          = "back"
	CallbackDelete        = "delete"
	CallbackConfirmDelete = "confirm_delete"
	CallbackAlertOn       = "alert_on"
	CallbackAlertOff      = "alert_off"
)

// Row kinds prefix the callback value of a list button, as in "ben:100".
const (
	RowCategory    = "cat"
	RowType        = "type"
	RowBeneficiary = "ben"
	RowContractor  = "ctr"
	RowPeriod      = "pay"
	RowAccount     = "acc"
	RowContract    = "con"
)

// RowValue is the callback value of the button for row id of the given kind.
func RowValue(kind string, id int) string {
	return kind + ":" + strconv.Itoa(id)
}
