package conversation

import (
	"context"
	"fmt"
	"html"

	"gitlab.com/yelinaung/contract-bot/internal/calendar"
	"gitlab.com/yelinaung/contract-bot/internal/logger"
	"gitlab.com/yelinaung/contract-bot/internal/models"
)

func (e *Engine) start(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	sess.Reset()

	ok, err := e.store.IsAllowed(ctx, ev.UserID)
	if err != nil {
		return Reply{}, storageErr("check allow-list", err)
	}
	if !ok {
		return Reply{}, fmt.Errorf("%w: user %s", ErrNotAuthorized, logger.HashUserID(ev.UserID))
	}

	sess.UserID = ev.UserID
	sess.State = StateChoose
	return mainMenu(), nil
}

func (e *Engine) choose(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	switch ev.Payload {
	case CallbackNewContract:
		return e.showCategories(ctx, sess, StateNewCategory, "")
	case CallbackShowContract:
		return e.showCategories(ctx, sess, StateViewCategory, "")
	case CallbackAlerts:
		return e.alertsMenu(sess, ev), nil
	default:
		return unexpected(sess, ev)
	}
}

func (e *Engine) alertsMenu(sess *Session, ev Event) Reply {
	sess.State = StateAlertsMenu
	if e.alerts.IsActive(ev.ChatID) {
		return Reply{
			Text: msgAlertsAlreadyOn,
			Choices: []Choice{
				{Label: "🔕 Turn reminders off", Value: CallbackStopAlerts},
				{Label: "Never mind", Value: CallbackEnd},
			},
		}
	}
	return Reply{
		Text: msgAlertsOffer,
		Choices: []Choice{
			{Label: "🔔 Yes, please", Value: CallbackStartAlerts},
			{Label: "No, never mind", Value: CallbackEnd},
		},
	}
}

func (e *Engine) alertsChoice(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	switch ev.Payload {
	case CallbackStartAlerts:
		already, err := e.alerts.Activate(ctx, ev.ChatID, ev.UserID)
		if err != nil {
			return Reply{}, storageErr("activate reminders", err)
		}
		sess.finish()
		if already {
			return Reply{Text: msgAlertsAlreadyOn}, nil
		}
		return Reply{Text: fmt.Sprintf(msgAlertsStarted, e.opts.ReminderHour, e.opts.ReminderMinute)}, nil

	case CallbackStopAlerts:
		removed, err := e.alerts.Deactivate(ctx, ev.ChatID)
		if err != nil {
			return Reply{}, storageErr("deactivate reminders", err)
		}
		sess.finish()
		if !removed {
			return Reply{Text: msgAlertsWereOff}, nil
		}
		return Reply{Text: msgAlertsStopped}, nil

	case CallbackEnd:
		sess.finish()
		return Reply{Text: msgGoodbye}, nil

	default:
		return unexpected(sess, ev)
	}
}

// showCategories lists categories for the creation branch (all of them plus
// "new") or for the view branch (those with contracts plus "back").
func (e *Engine) showCategories(ctx context.Context, sess *Session, next State, prefix string) (Reply, error) {
	var (
		cats []models.Category
		err  error
	)
	if next == StateNewCategory {
		cats, err = e.store.Categories(ctx)
	} else {
		cats, err = e.store.CategoriesWithContracts(ctx)
	}
	if err != nil {
		return Reply{}, storageErr("load categories", err)
	}

	choices := rowChoices(sess, RowCategory, cats, func(c models.Category) (int, string) {
		return c.ID, c.Name
	})

	text := msgPickCategoryNew
	if next == StateNewCategory {
		choices = append(choices, Choice{Label: "➕ New category", Value: CallbackNewCategory})
	} else {
		text = msgPickCategoryView
		if len(cats) == 0 {
			text = msgNoContractsAtAll
		}
		choices = append(choices, Choice{Label: "⬅️ Back", Value: CallbackBack})
	}

	sess.State = next
	return Reply{Text: prefix + text, Choices: choices, Columns: 2}, nil
}

// showTypes lists the types of sess.CategoryID for either branch.
func (e *Engine) showTypes(ctx context.Context, sess *Session, next State, prefix string) (Reply, error) {
	types, err := e.store.Types(ctx, *sess.CategoryID)
	if err != nil {
		return Reply{}, storageErr("load contract types", err)
	}

	choices := rowChoices(sess, RowType, types, func(t models.ContractType) (int, string) {
		return t.ID, t.Name
	})

	text := msgPickTypeNew
	if next == StateNewType {
		choices = append(choices, Choice{Label: "➕ New type", Value: CallbackNewType})
	} else {
		text = msgPickTypeView
		choices = append(choices, Choice{Label: "⬅️ Back", Value: CallbackBack})
	}

	sess.State = next
	return Reply{Text: prefix + text, Choices: choices, Columns: 2}, nil
}

func (e *Engine) pickNewCategory(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Payload == CallbackNewCategory {
		sess.State = StateNewCategoryName
		return Reply{Text: msgAskCategoryName}, nil
	}
	id, err := sess.accept(RowCategory, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.CategoryID = ptr(id)
	return e.showTypes(ctx, sess, StateNewType, "")
}

func (e *Engine) nameCategory(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	name, err := ValidateName(ev.Payload)
	if err != nil {
		return Reply{Text: msgInvalidName}, err
	}
	cat, err := e.store.CreateCategory(ctx, name)
	if err != nil {
		return Reply{}, storageErr("create category", err)
	}
	sess.CategoryID = ptr(cat.ID)
	sess.State = StateNewTypeName
	return Reply{Text: fmt.Sprintf(msgCategoryCreated, html.EscapeString(cat.Name))}, nil
}

func (e *Engine) pickNewType(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Payload == CallbackNewType {
		sess.State = StateNewTypeName
		return Reply{Text: msgAskTypeName}, nil
	}
	id, err := sess.accept(RowType, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.TypeID = ptr(id)
	return e.askBeneficiary(ctx, sess, "")
}

func (e *Engine) nameType(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	name, err := ValidateName(ev.Payload)
	if err != nil {
		return Reply{Text: msgInvalidName}, err
	}
	ct, err := e.store.CreateType(ctx, *sess.CategoryID, name)
	if err != nil {
		return Reply{}, storageErr("create contract type", err)
	}
	sess.TypeID = ptr(ct.ID)
	return e.askBeneficiary(ctx, sess, fmt.Sprintf(msgTypeCreated, html.EscapeString(ct.Name)))
}

func (e *Engine) askBeneficiary(ctx context.Context, sess *Session, prefix string) (Reply, error) {
	list, err := e.store.Beneficiaries(ctx)
	if err != nil {
		return Reply{}, storageErr("load beneficiaries", err)
	}
	if len(list) == 0 {
		return nothingToPick(sess, "beneficiaries")
	}
	sess.State = StateBeneficiary
	return Reply{
		Text: prefix + msgAskBeneficiary,
		Choices: rowChoices(sess, RowBeneficiary, list, func(b models.Beneficiary) (int, string) {
			return b.ID, b.Name
		}),
	}, nil
}

func (e *Engine) pickBeneficiary(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	id, err := sess.accept(RowBeneficiary, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.BeneficiaryID = ptr(id)

	list, err := e.store.Contractors(ctx)
	if err != nil {
		return Reply{}, storageErr("load contractors", err)
	}
	if len(list) == 0 {
		return nothingToPick(sess, "providers")
	}
	sess.State = StateContractor
	return Reply{
		Text: msgAskContractor,
		Choices: rowChoices(sess, RowContractor, list, func(c models.Contractor) (int, string) {
			return c.ID, c.Name
		}),
		Columns: 2,
	}, nil
}

func (e *Engine) pickContractor(_ context.Context, sess *Session, ev Event) (Reply, error) {
	id, err := sess.accept(RowContractor, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.ContractorID = ptr(id)
	sess.State = StateFee
	return Reply{Text: msgAskFee}, nil
}

func (e *Engine) enterFee(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	fee, err := ParseFee(ev.Payload)
	if err != nil {
		return Reply{Text: msgInvalidFee}, err
	}
	sess.Fee = &fee

	list, err := e.store.PaymentPeriods(ctx)
	if err != nil {
		return Reply{}, storageErr("load payment periods", err)
	}
	if len(list) == 0 {
		return nothingToPick(sess, "payment periods")
	}
	sess.State = StatePaymentPeriod
	return Reply{
		Text: msgAskPaymentPeriod,
		Choices: rowChoices(sess, RowPeriod, list, func(p models.PaymentPeriod) (int, string) {
			return p.ID, p.Name
		}),
		Columns: 2,
	}, nil
}

func (e *Engine) pickPaymentPeriod(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	id, err := sess.accept(RowPeriod, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.PaymentPeriodID = ptr(id)

	list, err := e.store.BankAccounts(ctx)
	if err != nil {
		return Reply{}, storageErr("load bank accounts", err)
	}
	if len(list) == 0 {
		return nothingToPick(sess, "bank accounts")
	}
	sess.State = StateBankAccount
	return Reply{
		Text: msgAskBankAccount,
		Choices: rowChoices(sess, RowAccount, list, func(a models.BankAccount) (int, string) {
			return a.ID, a.IBAN
		}),
	}, nil
}

func (e *Engine) pickBankAccount(_ context.Context, sess *Session, ev Event) (Reply, error) {
	id, err := sess.accept(RowAccount, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.BankAccountID = ptr(id)
	sess.State = StateNoticePeriod
	return Reply{Text: msgAskNoticePeriod}, nil
}

func (e *Engine) enterNoticePeriod(_ context.Context, sess *Session, ev Event) (Reply, error) {
	months, err := ParseMonths(ev.Payload, 0)
	if err != nil {
		return Reply{Text: fmt.Sprintf(msgInvalidMonths, 0, MaxMonths)}, err
	}
	sess.NoticeMonths = ptr(months)
	sess.State = StateRenewalPeriod
	return Reply{Text: msgAskRenewalPeriod}, nil
}

func (e *Engine) enterRenewalPeriod(_ context.Context, sess *Session, ev Event) (Reply, error) {
	months, err := ParseMonths(ev.Payload, 1)
	if err != nil {
		return Reply{Text: fmt.Sprintf(msgInvalidMonths, 1, MaxMonths)}, err
	}
	sess.RenewalMonths = ptr(months)
	sess.State = StateStartDate
	return Reply{Text: msgAskStartDate}, nil
}

func (e *Engine) enterStartDate(_ context.Context, sess *Session, ev Event) (Reply, error) {
	start, err := calendar.ParseDate(ev.Payload)
	if err != nil {
		return Reply{Text: msgInvalidDate}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	sess.StartDate = &start
	sess.State = StateEndDate
	return Reply{Text: msgAskEndDate}, nil
}

func (e *Engine) enterEndDate(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	end, err := calendar.ParseDate(ev.Payload)
	if err != nil {
		return Reply{Text: msgInvalidDate}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if end.Before(*sess.StartDate) {
		return Reply{Text: fmt.Sprintf(msgEndBeforeStart, calendar.Format(*sess.StartDate))},
			invalidInput("end date before start", ev.Payload)
	}
	sess.EndDate = &end

	c, err := sess.Draft()
	if err != nil {
		return Reply{}, err
	}
	if err := e.store.CreateContract(ctx, c); err != nil {
		return Reply{}, storageErr("save contract", err)
	}

	logger.Log.Info().
		Int("contract_id", c.ID).
		Str("user_hash", logger.HashUserID(c.UserID)).
		Msg("Contract created")

	sess.ContractID = ptr(c.ID)
	sess.State = StateAlertToggle
	return Reply{
		Text: fmt.Sprintf(msgContractSaved, calendar.Format(c.NextCancellationDate)),
		Choices: []Choice{
			{Label: "🔔 Yes, remind me", Value: CallbackAlertOn},
			{Label: "🔕 No, thanks", Value: CallbackAlertOff},
		},
	}, nil
}

func (e *Engine) toggleAlert(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	switch ev.Payload {
	case CallbackAlertOn:
		if err := e.store.SetAlerting(ctx, *sess.ContractID, true); err != nil {
			return Reply{}, storageErr("enable contract reminder", err)
		}
		sess.finish()
		return Reply{Text: msgAlertFlagOn}, nil
	case CallbackAlertOff:
		sess.finish()
		return Reply{Text: msgAllSet}, nil
	default:
		return unexpected(sess, ev)
	}
}

func (e *Engine) pickViewCategory(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Payload == CallbackBack {
		sess.State = StateChoose
		return mainMenu(), nil
	}
	id, err := sess.accept(RowCategory, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}
	sess.CategoryID = ptr(id)
	return e.showTypes(ctx, sess, StateViewType, "")
}

func (e *Engine) pickViewType(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Payload == CallbackBack {
		return e.showCategories(ctx, sess, StateViewCategory, "")
	}
	id, err := sess.accept(RowType, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}

	list, err := e.store.ContractsByType(ctx, id)
	if err != nil {
		return Reply{}, storageErr("list contracts", err)
	}
	if len(list) == 0 {
		reply, err := e.showTypes(ctx, sess, StateViewType, msgNoContractsForType)
		if err != nil {
			return Reply{}, err
		}
		return reply, fmt.Errorf("%w: type %d", ErrNoContracts, id)
	}

	sess.TypeID = ptr(id)
	sess.State = StateContractList
	choices := rowChoices(sess, RowContract, list, func(c models.ContractSummary) (int, string) {
		return c.ID, c.TypeName + " · " + c.ContractorName
	})
	choices = append(choices, Choice{Label: "⬅️ Back", Value: CallbackBack})
	return Reply{Text: msgContractsFound, Choices: choices}, nil
}

func (e *Engine) pickContract(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	if ev.Payload == CallbackBack {
		return e.showTypes(ctx, sess, StateViewType, "")
	}
	id, err := sess.accept(RowContract, ev.Payload)
	if err != nil {
		return Reply{Text: msgUseButtons}, err
	}

	detail, err := e.store.ContractDetail(ctx, id)
	if err != nil {
		return Reply{}, storageErr("load contract", err)
	}

	sess.ContractID = ptr(id)
	sess.State = StateContractDetail
	return Reply{
		Text: renderDetail(detail, e.today()),
		Choices: []Choice{
			{Label: "👍 OK, thanks", Value: CallbackEnd},
			{Label: "🗑 Delete contract", Value: CallbackDelete},
		},
	}, nil
}

func (e *Engine) contractAction(_ context.Context, sess *Session, ev Event) (Reply, error) {
	switch ev.Payload {
	case CallbackEnd:
		sess.finish()
		return Reply{Text: msgGoodbye}, nil
	case CallbackDelete:
		sess.State = StateDeleteConfirm
		return Reply{
			Text: msgConfirmDelete,
			Choices: []Choice{
				{Label: "🗑 Yes, delete", Value: CallbackConfirmDelete},
				{Label: "No, keep it", Value: CallbackEnd},
			},
		}, nil
	default:
		return unexpected(sess, ev)
	}
}

func (e *Engine) confirmDelete(ctx context.Context, sess *Session, ev Event) (Reply, error) {
	switch ev.Payload {
	case CallbackConfirmDelete:
		id := *sess.ContractID
		if err := e.store.DeleteContract(ctx, id); err != nil {
			return Reply{}, storageErr("delete contract", err)
		}
		logger.Log.Info().
			Int("contract_id", id).
			Str("user_hash", logger.HashUserID(ev.UserID)).
			Msg("Contract deleted")
		sess.finish()
		return Reply{Text: msgDeleted}, nil
	case CallbackEnd:
		sess.finish()
		return Reply{Text: msgGoodbye}, nil
	default:
		return unexpected(sess, ev)
	}
}

// nothingToPick ends the dialogue when a lookup table is empty.
func nothingToPick(sess *Session, what string) (Reply, error) {
	logger.Log.Warn().Str("table", what).Msg("Lookup table is empty")
	sess.finish()
	return Reply{Text: fmt.Sprintf(msgNothingToPick, what)}, nil
}

func unexpected(sess *Session, ev Event) (Reply, error) {
	return Reply{Text: msgUseButtons}, fmt.Errorf("%w: %q in %s", ErrInvalidInput, ev.Payload, sess.State)
}
