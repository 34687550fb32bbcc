package conversation

import "fmt"

// State is one step of the guided dialogue.
type State int

const (
	StateIdle State = iota
	StateChoose
	StateAlertsMenu

	// Contract creation.
	StateNewCategory
	StateNewCategoryName
	StateNewType
	StateNewTypeName
	StateBeneficiary
	StateContractor
	StateFee
	StatePaymentPeriod
	StateBankAccount
	StateNoticePeriod
	StateRenewalPeriod
	StateStartDate
	StateEndDate
	StateAlertToggle

	// Contract viewing and deletion.
	StateViewCategory
	StateViewType
	StateContractList
	StateContractDetail
	StateDeleteConfirm
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateChoose:          "choose",
	StateAlertsMenu:      "alerts_menu",
	StateNewCategory:     "new_category",
	StateNewCategoryName: "new_category_name",
	StateNewType:         "new_type",
	StateNewTypeName:     "new_type_name",
	StateBeneficiary:     "beneficiary",
	StateContractor:      "contractor",
	StateFee:             "fee",
	StatePaymentPeriod:   "payment_period",
	StateBankAccount:     "bank_account",
	StateNoticePeriod:    "notice_period",
	StateRenewalPeriod:   "renewal_period",
	StateStartDate:       "start_date",
	StateEndDate:         "end_date",
	StateAlertToggle:     "alert_toggle",
	StateViewCategory:    "view_category",
	StateViewType:        "view_type",
	StateContractList:    "contract_list",
	StateContractDetail:  "contract_detail",
	StateDeleteConfirm:   "delete_confirm",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// expectsText reports whether the state waits for typed input rather than a button press.
func (s State) expectsText() bool {
	switch s {
	case StateNewCategoryName, StateNewTypeName, StateFee, StateNoticePeriod,
		StateRenewalPeriod, StateStartDate, StateEndDate:
		return true
	default:
		return false
	}
}
