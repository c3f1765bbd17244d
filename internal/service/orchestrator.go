package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/domain/charge"
	"github.com/recurpix/recurpix/internal/domain/subscriber"
	ierr "github.com/recurpix/recurpix/internal/errors"
	"github.com/recurpix/recurpix/internal/integration/telegram"
	"github.com/recurpix/recurpix/internal/logger"
	"github.com/recurpix/recurpix/internal/scheduler"
	"github.com/recurpix/recurpix/internal/types"
)

const dateLayout = "02/01/2006"

// cycleState is the billing cycle state for one subscriber. Its mutex is
// the per-subscriber serialization point: every handler for a chat id
// runs under it, so handlers for the same subscriber never interleave
// while handlers for different subscribers may.
type cycleState struct {
	mu sync.Mutex
	// paid is cleared when a cycle starts and set once a charge settles;
	// once true, no tick in the same cycle issues another charge
	paid bool
	// active is the subscriber's current charge; a re-issuance supersedes
	// it without cancelling the old one at the gateway
	active *charge.Charge
	// cycleDate is the day (YYYY-MM-DD) the current cycle started
	cycleDate string
}

// Orchestrator owns the subscriber-keyed cycle state table and wires the
// conversation flow, charge issuance, payment verification and retry
// scheduling together. Errors handling one subscriber never abort work
// for others.
type Orchestrator struct {
	cfg          *config.Configuration
	logger       *logger.Logger
	subscribers  subscriber.Repository
	conversation *ConversationService
	issuer       *ChargeIssuer
	verifier     PaymentVerifier
	presenter    *Presenter
	channel      ChatChannel
	sched        *scheduler.Scheduler
	cron         *cron.Cron

	mu     sync.Mutex
	cycles map[int64]*cycleState

	// now is injectable for tests
	now func() time.Time
}

// NewOrchestrator creates a new Orchestrator
func NewOrchestrator(
	cfg *config.Configuration,
	log *logger.Logger,
	subscribers subscriber.Repository,
	conversation *ConversationService,
	issuer *ChargeIssuer,
	verifier PaymentVerifier,
	presenter *Presenter,
	channel ChatChannel,
	sched *scheduler.Scheduler,
) *Orchestrator {
	return &Orchestrator{
		cfg:          cfg,
		logger:       log,
		subscribers:  subscribers,
		conversation: conversation,
		issuer:       issuer,
		verifier:     verifier,
		presenter:    presenter,
		channel:      channel,
		sched:        sched,
		cycles:       make(map[int64]*cycleState),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (o *Orchestrator) cycle(chatID int64) *cycleState {
	o.mu.Lock()
	defer o.mu.Unlock()

	cs, ok := o.cycles[chatID]
	if !ok {
		cs = &cycleState{}
		o.cycles[chatID] = cs
	}
	return cs
}

// RegisterCommands registers the command set with the chat channel
func (o *Orchestrator) RegisterCommands(ctx context.Context) error {
	return o.channel.SetMyCommands(ctx, []telegram.BotCommand{
		{Command: "start", Description: "Configurar cobrança recorrente"},
		{Command: "pay", Description: "Gerar uma cobrança agora"},
		{Command: "status", Description: "Ver sua configuração"},
		{Command: "cancel", Description: "Cancelar configuração"},
		{Command: "help", Description: "Ajuda"},
	})
}

// StartSweep schedules the once-daily arming sweep
func (o *Orchestrator) StartSweep() error {
	c := cron.New()
	if _, err := c.AddFunc(o.cfg.Billing.SweepSchedule, func() {
		o.DailySweep(context.Background())
	}); err != nil {
		return ierr.WithError(err).
			WithHintf("Invalid sweep schedule %q", o.cfg.Billing.SweepSchedule).
			Mark(ierr.ErrConfiguration)
	}
	c.Start()
	o.cron = c

	o.logger.Infow("daily sweep scheduled", "schedule", o.cfg.Billing.SweepSchedule)
	return nil
}

// Stop halts the sweep and every retry timer
func (o *Orchestrator) Stop() {
	if o.cron != nil {
		o.cron.Stop()
	}
	o.sched.Stop()
}

// Run drives the long-poll event loop until ctx is cancelled
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Infow("update loop started")

	var offset int64
	for {
		select {
		case <-ctx.Done():
			o.logger.Infow("update loop stopped")
			return
		default:
		}

		updates, err := o.channel.GetUpdates(ctx, offset, o.cfg.Telegram.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			o.logger.Errorw("failed to fetch updates", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			update := update
			// HandleUpdate serializes per subscriber on the cycle
			// mutex; updates for different subscribers proceed
			// independently.
			go o.HandleUpdate(ctx, &update)
		}
	}
}

// HandleUpdate routes one inbound chat event. All handlers for one
// subscriber run to completion under that subscriber's cycle mutex, so
// a command, a free-text message and a paid callback can never
// interleave for the same chat.
func (o *Orchestrator) HandleUpdate(ctx context.Context, update *telegram.Update) {
	chatID, ok := updateChatID(update)
	if !ok {
		return
	}

	cs := o.cycle(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	switch {
	case update.CallbackQuery != nil:
		o.handleCallback(ctx, cs, update.CallbackQuery)
	case strings.HasPrefix(update.Message.Text, "/"):
		o.handleCommand(ctx, update.Message)
	default:
		o.handleText(ctx, update.Message)
	}
}

func updateChatID(update *telegram.Update) (int64, bool) {
	switch {
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message != nil {
			return update.CallbackQuery.Message.Chat.ID, true
		}
		return update.CallbackQuery.From.ID, true
	case update.Message != nil:
		return update.Message.Chat.ID, true
	}
	return 0, false
}

func (o *Orchestrator) handleCommand(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID
	command := strings.TrimPrefix(strings.Fields(msg.Text)[0], "/")
	// Group chats suffix commands with the bot name.
	if at := strings.Index(command, "@"); at >= 0 {
		command = command[:at]
	}

	switch command {
	case "start":
		reply := o.conversation.Start(chatID, displayName(msg))
		o.reply(ctx, chatID, reply)
	case "cancel":
		o.handleCancel(ctx, chatID)
	case "pay":
		o.handlePay(ctx, chatID)
	case "status":
		o.handleStatus(ctx, chatID)
	default:
		o.reply(ctx, chatID, msgHelp)
	}
}

func (o *Orchestrator) handleText(ctx context.Context, msg *telegram.Message) {
	chatID := msg.Chat.ID

	result := o.conversation.HandleInput(chatID, msg.Text)
	if result.Outcome == StepIgnored {
		o.logger.Debugw("ignoring free text outside onboarding", "chat_id", chatID)
		return
	}

	o.reply(ctx, chatID, result.Reply)

	if result.Outcome != StepCompleted {
		return
	}

	sub := result.Profile
	if err := sub.Validate(o.maxAmount()); err != nil {
		o.logger.Errorw("finalized profile failed validation",
			"chat_id", chatID,
			"error", err)
		return
	}

	if err := o.subscribers.Save(ctx, sub); err != nil {
		// The in-memory store stays authoritative; billing proceeds.
		o.logger.Errorw("failed to persist subscriber profile",
			"chat_id", chatID,
			"error", err)
	}

	// A subscriber configuring on their own billing day gets the first
	// charge immediately; the daily sweep sees the armed timer and does
	// not issue a duplicate.
	if types.IsBillingDue(o.now(), sub.BillingDay) {
		o.issueAndArmLocked(ctx, o.cycle(chatID), sub)
	}
}

func (o *Orchestrator) handleCancel(ctx context.Context, chatID int64) {
	if o.conversation.Cancel(chatID) {
		o.reply(ctx, chatID, msgCancelled)
		return
	}

	// No onboarding in progress: cancel deactivates the stored profile
	// without destroying it.
	if err := o.subscribers.Deactivate(ctx, chatID); err != nil {
		if ierr.IsNotFound(err) {
			o.reply(ctx, chatID, msgNothingToDo)
			return
		}
		o.logger.Errorw("failed to deactivate subscriber",
			"chat_id", chatID,
			"error", err)
		o.reply(ctx, chatID, msgChargeIssueFailed)
		return
	}

	o.sched.Disarm(chatID)
	o.reply(ctx, chatID, "Cobrança recorrente desativada. Use /start para reativar.")
}

func (o *Orchestrator) handlePay(ctx context.Context, chatID int64) {
	sub, err := o.subscribers.Get(ctx, chatID)
	if err != nil || !sub.Active {
		o.reply(ctx, chatID, msgNoProfile)
		return
	}
	o.issueAndArmLocked(ctx, o.cycle(chatID), sub)
}

func (o *Orchestrator) handleStatus(ctx context.Context, chatID int64) {
	sub, err := o.subscribers.Get(ctx, chatID)
	if err != nil {
		o.reply(ctx, chatID, msgNoProfile)
		return
	}

	status := msgStatusActive
	if !sub.Active {
		status = msgStatusInactive
	}
	next := types.NextBillingDate(o.now(), sub.BillingDay).Format(dateLayout)
	o.reply(ctx, chatID, fmt.Sprintf(msgStatusReport, sub.Amount.StringFixed(2), sub.BillingDay, next, status))
}

// handleCallback processes a paid-button press. The caller holds cs.mu.
func (o *Orchestrator) handleCallback(ctx context.Context, cs *cycleState, cb *telegram.CallbackQuery) {
	if !strings.HasPrefix(cb.Data, chargeCallbackPrefix) {
		o.answer(ctx, cb.ID, "")
		return
	}
	gatewayChargeID := strings.TrimPrefix(cb.Data, chargeCallbackPrefix)

	chatID := cb.From.ID
	if cb.Message != nil {
		chatID = cb.Message.Chat.ID
	}

	settled, err := o.verifier.Check(ctx, gatewayChargeID)
	if err != nil || !settled {
		o.answer(ctx, cb.ID, msgCallbackNotSettled)
		return
	}

	// A settled but superseded charge id never resurrects the old charge
	// and never disarms the timer; only the active id is eligible.
	if cs.active == nil || cs.active.GatewayChargeID != gatewayChargeID {
		o.logger.Warnw("settled charge is no longer the active one",
			"chat_id", chatID,
			"gateway_charge_id", gatewayChargeID)
		o.answer(ctx, cb.ID, msgCallbackStaleCharge)
		return
	}

	if !cs.paid {
		o.markPaidLocked(ctx, cs, chatID)
	}
	o.answer(ctx, cb.ID, msgCallbackConfirmed)
}

// DailySweep arms the scheduler for every active subscriber whose billing
// day is today and who is not already armed. Runs once a day on the
// configured cron schedule.
func (o *Orchestrator) DailySweep(ctx context.Context) {
	now := o.now()
	subs, err := o.subscribers.ListActive(ctx)
	if err != nil {
		o.logger.Errorw("daily sweep failed to list subscribers", "error", err)
		return
	}

	o.logger.Infow("daily sweep started", "date", now.Format(dateLayout), "subscribers", len(subs))

	for _, sub := range subs {
		if !types.IsBillingDue(now, sub.BillingDay) {
			continue
		}
		if o.sched.Armed(sub.ChatID) {
			continue
		}

		cs := o.cycle(sub.ChatID)
		cs.mu.Lock()
		if cs.paid && cs.cycleDate == cycleDate(now) {
			cs.mu.Unlock()
			continue
		}
		o.issueAndArmLocked(ctx, cs, sub)
		cs.mu.Unlock()
	}
}

// issueAndArm starts (or restarts) the subscriber's billing cycle:
// clears the paid flag, issues a charge, and arms the retry timer. The
// timer is armed even when issuance fails so the next tick retries.
func (o *Orchestrator) issueAndArm(ctx context.Context, sub *subscriber.Subscriber) {
	cs := o.cycle(sub.ChatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	o.issueAndArmLocked(ctx, cs, sub)
}

// issueAndArmLocked is issueAndArm for callers already holding cs.mu.
func (o *Orchestrator) issueAndArmLocked(ctx context.Context, cs *cycleState, sub *subscriber.Subscriber) {
	cs.paid = false
	cs.cycleDate = cycleDate(o.now())

	ch, err := o.issuer.Issue(ctx, sub)
	if err != nil {
		// Previous active charge, if any, stays current.
		o.logger.Errorw("charge issuance failed",
			"chat_id", sub.ChatID,
			"error", err)
		o.notifyIssueFailure(ctx, sub.ChatID)
	} else {
		cs.active = ch
	}

	chatID := sub.ChatID
	o.sched.Arm(chatID, o.cfg.Billing.RetryInterval, func(tickCtx context.Context) {
		o.tick(tickCtx, chatID)
	})
}

// tick is one retry cycle: verify the active charge, and either confirm
// payment or supersede it with a fresh charge
func (o *Orchestrator) tick(ctx context.Context, chatID int64) {
	cs := o.cycle(chatID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.paid {
		o.sched.Disarm(chatID)
		return
	}
	if !o.sched.Armed(chatID) {
		// Disarmed while this tick was in flight.
		return
	}

	sub, err := o.subscribers.Get(ctx, chatID)
	if err != nil || !sub.Active {
		o.logger.Infow("disarming timer for missing or inactive subscriber", "chat_id", chatID)
		o.sched.Disarm(chatID)
		return
	}

	// An expired charge is not worth a gateway round trip; it goes
	// straight to re-issuance.
	if cs.active != nil && !cs.active.Expired(o.now()) {
		settled, err := o.verifier.Check(ctx, cs.active.GatewayChargeID)
		if err != nil {
			// Treated as not settled; the retry continues.
			o.logger.Errorw("tick verification failed",
				"chat_id", chatID,
				"gateway_charge_id", cs.active.GatewayChargeID,
				"error", err)
		}
		if settled {
			o.markPaidLocked(ctx, cs, chatID)
			return
		}
	}

	// Re-check liveness after the gateway round trip so a charge is never
	// issued after confirmed payment.
	if cs.paid || !o.sched.Armed(chatID) {
		return
	}

	ch, err := o.issuer.Issue(ctx, sub)
	if err != nil {
		o.logger.Errorw("tick re-issuance failed",
			"chat_id", chatID,
			"error", err)
		o.notifyIssueFailure(ctx, chatID)
		return
	}

	if cs.active != nil {
		o.logger.Infow("charge superseded",
			"chat_id", chatID,
			"old_gateway_charge_id", cs.active.GatewayChargeID,
			"new_gateway_charge_id", ch.GatewayChargeID)
	}
	cs.active = ch
}

// markPaidLocked finishes the cycle. The caller holds cs.mu.
func (o *Orchestrator) markPaidLocked(ctx context.Context, cs *cycleState, chatID int64) {
	cs.paid = true
	if cs.active != nil {
		cs.active.Status = types.ChargeStatusPaid
	}
	o.sched.Disarm(chatID)

	if err := o.presenter.PresentText(ctx, chatID, msgPaymentConfirmed, nil); err != nil {
		o.logger.Errorw("failed to send payment confirmation",
			"chat_id", chatID,
			"error", err)
	}

	o.logger.Infow("payment confirmed", "chat_id", chatID)
}

// notifyIssueFailure sends the generic retry-later notice. It goes out
// as a plain message so a still-valid previous charge presentation is
// not destroyed.
func (o *Orchestrator) notifyIssueFailure(ctx context.Context, chatID int64) {
	if _, err := o.channel.SendMessage(ctx, chatID, msgChargeIssueFailed, nil); err != nil {
		o.logger.Errorw("failed to notify issuance failure",
			"chat_id", chatID,
			"error", err)
	}
}

func (o *Orchestrator) reply(ctx context.Context, chatID int64, text string) {
	if _, err := o.channel.SendMessage(ctx, chatID, text, nil); err != nil {
		o.logger.Errorw("failed to send reply",
			"chat_id", chatID,
			"error", err)
	}
}

func (o *Orchestrator) answer(ctx context.Context, callbackID, text string) {
	if err := o.channel.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		o.logger.Errorw("failed to answer callback", "error", err)
	}
}

func (o *Orchestrator) maxAmount() decimal.Decimal {
	return decimal.NewFromInt(o.cfg.Billing.MaxAmount)
}

func cycleDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func displayName(msg *telegram.Message) string {
	if msg.From == nil {
		return msg.Chat.FirstName
	}
	if msg.From.FirstName != "" {
		return msg.From.FirstName
	}
	return msg.From.Username
}
