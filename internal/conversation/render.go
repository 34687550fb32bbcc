package conversation

import (
	"fmt"
	"html"
	"strings"
	"time"

	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

const (
	msgNotAuthorized  = "⛔ Sorry, you are not authorized to use this bot."
	msgSomethingWrong = "⚠️ Something went wrong. Please start again with /start."
	msgGoodbye        = "👋 Alright, see you later!"
	msgUseButtons     = "Please pick one of the buttons above."
	msgTypeAnswer     = "Please type your answer."

	msgWelcome = "I keep track of your contracts. What can I do for you?"

	msgAlertsOffer     = "Do you want a daily reminder about contracts that are due for cancellation?"
	msgAlertsAlreadyOn = "🔔 Reminders are already active."
	msgAlertsStarted   = "🔔 Reminders are on. I will check your contracts every day at %02d:%02d."
	msgAlertsStopped   = "🔕 Reminders are off."
	msgAlertsWereOff   = "Reminders were not active."

	msgPickCategoryNew    = "Pick a category for the new contract:"
	msgPickCategoryView   = "These categories have contracts:"
	msgNoContractsAtAll   = "There are no contracts yet."
	msgAskCategoryName    = "What should the new category be called?"
	msgCategoryCreated    = "✅ Category <b>%s</b> saved. Which contract type do you want to add to it?"
	msgPickTypeNew        = "Which type of contract is it?"
	msgPickTypeView       = "Pick a contract type:"
	msgAskTypeName        = "What should the new contract type be called?"
	msgTypeCreated        = "✅ Contract type <b>%s</b> saved.\n\n"
	msgInvalidName        = "❌ Names must be 1 to 50 characters without control characters. Please try again."
	msgNoContractsForType = "There are no contracts of this type yet. Pick another one.\n\n"
	msgContractsFound     = "These contracts match:"

	msgAskBeneficiary   = "Who is the contract for?"
	msgAskContractor    = "Who is the provider?"
	msgAskFee           = "How much does it cost? For example <code>12.99</code>"
	msgInvalidFee       = "❌ That is not an amount. Use digits with up to two decimals, for example <code>12.99</code> or <code>12,99</code>."
	msgAskPaymentPeriod = "How often do you pay?"
	msgAskBankAccount   = "Which account is it paid from?"
	msgAskNoticePeriod  = "How many months of notice does cancelling need?"
	msgAskRenewalPeriod = "By how many months does the contract renew automatically?"
	msgInvalidMonths    = "❌ Please enter a whole number of months from %d to %d."
	msgAskStartDate     = "When does or did the contract start? For example <code>2021-12-01</code> or <code>01.12.2021</code>"
	msgAskEndDate       = "When does the contract end? For example <code>2022-12-31</code> or <code>31.12.2022</code>"
	msgInvalidDate      = "❌ I could not read that date. Use <code>YYYY-MM-DD</code> or <code>DD.MM.YYYY</code>."
	msgEndBeforeStart   = "❌ The end date cannot be before the start date (%s). Please try again."
	msgContractSaved    = "✅ Contract saved. The last day to cancel is <b>%s</b>.\n\nShould I remind you before that date?"
	msgAlertFlagOn      = "🔔 Reminder enabled for this contract. See you later!"
	msgAllSet           = "👍 All set. See you later!"

	msgNothingToPick = "⚠️ There are no %s set up yet, so I cannot record a contract. Please add some and start again with /start."

	msgConfirmDelete = "Are you sure? This cannot be undone."
	msgDeleted       = "🗑 Contract deleted. See you later!"
)

func mainMenu() Reply {
	return Reply{
		Text: msgWelcome,
		Choices: []Choice{
			{Label: "➕ New contract", Value: CallbackNewContract},
			{Label: "📄 Show contracts", Value: CallbackShowContract},
			{Label: "🔔 Reminders on/off", Value: CallbackAlerts},
		},
		Columns: 2,
	}
}

func renderDetail(d *models.ContractDetail, today time.Time) string {
	days := calendar.DaysUntil(d.NextCancellationDate, today)

	var sb strings.Builder
	sb.WriteString("📄 <b>Contract details</b>\n\n")
	fmt.Fprintf(&sb, "<b>Category:</b> %s\n", html.EscapeString(d.CategoryName))
	fmt.Fprintf(&sb, "<b>Type:</b> %s\n", html.EscapeString(d.TypeName))
	fmt.Fprintf(&sb, "<b>Fee:</b> %s %s\n", d.Fee.StringFixed(2), models.Currency)
	fmt.Fprintf(&sb, "<b>For:</b> %s\n", html.EscapeString(d.BeneficiaryName))
	fmt.Fprintf(&sb, "<b>Provider:</b> %s\n", html.EscapeString(d.ContractorName))
	fmt.Fprintf(&sb, "<b>Payment:</b> %s\n", html.EscapeString(d.PaymentPeriodName))
	fmt.Fprintf(&sb, "<b>Ends:</b> %s\n", calendar.Format(d.EndDate))
	fmt.Fprintf(&sb, "<b>Cancel by:</b> %s (%s)\n", calendar.Format(d.NextCancellationDate), daysLabel(days))
	fmt.Fprintf(&sb, "<b>Renews by:</b> %d month(s)\n", d.RenewalPeriodMonths)
	fmt.Fprintf(&sb, "<b>Account:</b> %s", html.EscapeString(d.IBAN))
	return sb.String()
}

func daysLabel(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days overdue", -days)
	case days == -1:
		return "1 day overdue"
	case days == 0:
		return "today"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// rowChoices builds one button per item and makes them the only row
// buttons sess accepts.
func rowChoices[T any](sess *Session, kind string, items []T, row func(T) (int, string)) []Choice {
	sess.offered = make(map[string]struct{}, len(items))
	out := make([]Choice, 0, len(items)+1)
	for _, item := range items {
		id, label := row(item)
		value := RowValue(kind, id)
		sess.offered[value] = struct{}{}
		out = append(out, Choice{Label: label, Value: value})
	}
	return out
}
