package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
	"github.com/gratefultolord/badge_approval_bot/internal/dedup"
)

// Submitter packages a finished wizard into an approval request and returns
// the backend request id.
type Submitter interface {
	Submit(ctx context.Context, sub approval.Submission) (string, error)
}

// StatusFetcher reads the live status of a request for the menu's status
// lookup branch.
type StatusFetcher interface {
	GetRequest(ctx context.Context, requestID string) (*approval.Request, error)
}

// RewardLookup resolves the reward assigned to a user, empty when none.
type RewardLookup interface {
	Lookup(ctx context.Context, userID int64) (string, error)
}

type BotService struct {
	sender     Sender
	fetcher    MediaFetcher
	sessions   *Sessions
	dedupStore dedup.Store
	submitter  Submitter
	statuses   StatusFetcher
	rewards    RewardLookup
	logger     zerolog.Logger
}

func New(
	sender Sender,
	fetcher MediaFetcher,
	sessions *Sessions,
	dedupStore dedup.Store,
	submitter Submitter,
	statuses StatusFetcher,
	rewards RewardLookup,
	logger zerolog.Logger,
) *BotService {
	return &BotService{
		sender:     sender,
		fetcher:    fetcher,
		sessions:   sessions,
		dedupStore: dedupStore,
		submitter:  submitter,
		statuses:   statuses,
		rewards:    rewards,
		logger:     logger.With().Str("component", "bot").Logger(),
	}
}

// Run consumes the update channel until it is closed. Each update is handled
// in its own goroutine; the session store serializes turns per user.
func (b *BotService) Run(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		go b.HandleUpdate(update)
	}
}

// HandleUpdate drives one conversation turn. Malformed updates are dropped
// without touching any session.
func (b *BotService) HandleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.Chat == nil {
		b.logger.Debug().Msg("dropping update without message")
		return
	}

	chatID := update.Message.Chat.ID
	text := NormalizeText(update.Message.Text)

	b.sessions.Do(chatID, func(state *UserState) {
		b.handleTurn(chatID, state, update.Message, text)
	})
}

func (b *BotService) handleTurn(chatID int64, state *UserState, message *tgbotapi.Message, text string) {
	// Hard gate: while a decision is outstanding, every inbound event gets
	// the same answer and nothing else happens. Restart included.
	if state.Step == StepAwaitingDecision {
		b.send(chatID, Msg(state.Language, msgUnderReview), nil)
		return
	}

	if text == "/start" {
		*state = UserState{Step: StepLangSelect}
		b.send(chatID, Msg(state.Language, msgChooseLang), langKeyboard())
		return
	}

	if state.Step == "" {
		state.Step = StepLangSelect
		b.send(chatID, Msg(state.Language, msgChooseLang), langKeyboard())
		return
	}

	switch state.Step {
	case StepLangSelect:
		b.handleLangSelect(chatID, state, text)
	case StepMenu:
		b.handleMenu(chatID, state, text)
	case StepReady:
		b.handleReady(chatID, state, text)
	case StepWaitIdentity:
		b.handleIdentity(chatID, state, text)
	case StepWaitBadge:
		b.handleBadge(chatID, state, text)
	case StepWaitEvidence:
		b.handleEvidence(chatID, state, message, text)
	default:
		b.logger.Warn().Str("step", state.Step).Int64("chat_id", chatID).Msg("unknown step, restarting session")
		*state = UserState{Step: StepLangSelect}
		b.send(chatID, Msg(state.Language, msgChooseLang), langKeyboard())
	}
}

func (b *BotService) handleLangSelect(chatID int64, state *UserState, text string) {
	switch text {
	case btnLangRU:
		state.Language = LangRU
	case btnLangEN:
		state.Language = LangEN
	default:
		b.send(chatID, Msg(state.Language, msgChooseLang), langKeyboard())
		return
	}

	state.Step = StepMenu
	b.send(chatID, Msg(state.Language, msgMenu), MenuKeyboard(state.Language))
}

func (b *BotService) handleMenu(chatID int64, state *UserState, text string) {
	lang := state.Language

	switch text {
	case Msg(lang, btnNewRequest):
		state.Step = StepReady
		b.send(chatID, Msg(lang, msgReady), beginKeyboard(lang))

	case Msg(lang, btnReward):
		reward, err := b.rewards.Lookup(context.Background(), chatID)
		if err != nil {
			b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("reward lookup failed")
			b.send(chatID, Msg(lang, msgTryLater), MenuKeyboard(lang))
			return
		}

		if reward == "" {
			b.send(chatID, Msg(lang, msgRewardNone), MenuKeyboard(lang))
			return
		}

		b.send(chatID, fmt.Sprintf(Msg(lang, msgRewardFound), reward), MenuKeyboard(lang))

	case Msg(lang, btnStatus):
		if state.LastRequestID == "" {
			b.send(chatID, Msg(lang, msgNoActiveRequest), MenuKeyboard(lang))
			return
		}

		req, err := b.statuses.GetRequest(context.Background(), state.LastRequestID)
		if err != nil {
			b.logger.Error().Err(err).Str("request_id", state.LastRequestID).Msg("status lookup failed")
			b.send(chatID, Msg(lang, msgTryLater), MenuKeyboard(lang))
			return
		}

		b.send(chatID, fmt.Sprintf(Msg(lang, msgStatusReport), StatusName(lang, req.Status)), MenuKeyboard(lang))

	default:
		b.send(chatID, Msg(lang, msgUseKeyboard), MenuKeyboard(lang))
	}
}

func (b *BotService) handleReady(chatID int64, state *UserState, text string) {
	if text != Msg(state.Language, btnBegin) {
		b.send(chatID, Msg(state.Language, msgReady), beginKeyboard(state.Language))
		return
	}

	state.Step = StepWaitIdentity
	b.send(chatID, Msg(state.Language, msgAskFIO), nil)
}

func (b *BotService) handleIdentity(chatID int64, state *UserState, text string) {
	if text == "" {
		b.send(chatID, Msg(state.Language, msgAskFIO), nil)
		return
	}

	state.FIO = text
	state.Step = StepWaitBadge
	b.send(chatID, Msg(state.Language, msgAskBadge), nil)
}

func (b *BotService) handleBadge(chatID int64, state *UserState, text string) {
	if !IsValidBadgeNumber(text) {
		b.send(chatID, Msg(state.Language, msgBadBadge), nil)
		return
	}

	state.BadgeNumber = text
	state.Step = StepWaitEvidence
	b.send(chatID, fmt.Sprintf(Msg(state.Language, msgAskPhoto), 1, EvidenceRequired), nil)
}

func (b *BotService) handleEvidence(chatID int64, state *UserState, message *tgbotapi.Message, text string) {
	lang := state.Language

	if text == Msg(lang, btnDone) {
		// Finishing with the wrong count is a re-prompt, not an error.
		if len(state.Evidence) != EvidenceRequired {
			b.send(chatID, fmt.Sprintf(Msg(lang, msgNeedMore), len(state.Evidence), EvidenceRequired), nil)
			return
		}

		b.submit(chatID, state)
		return
	}

	if len(message.Photo) == 0 {
		b.repromptEvidence(chatID, state)
		return
	}

	if len(state.Evidence) >= EvidenceRequired {
		b.send(chatID, Msg(lang, msgEnough), doneKeyboard(lang))
		return
	}

	// Telegram sends several sizes of the same photo; the last is largest.
	fileID := message.Photo[len(message.Photo)-1].FileID

	data, err := b.fetcher.Fetch(fileID)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("evidence download failed")
		b.send(chatID, Msg(lang, msgTryLater), nil)
		return
	}

	fingerprint := dedup.Fingerprint(data)

	exists, err := b.dedupStore.Exists(context.Background(), fingerprint)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("fingerprint check failed")
		b.send(chatID, Msg(lang, msgTryLater), nil)
		return
	}

	if exists {
		b.send(chatID, Msg(lang, msgDupPhoto), nil)
		return
	}

	if err := b.dedupStore.Record(context.Background(), fingerprint); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("fingerprint record failed")
		b.send(chatID, Msg(lang, msgTryLater), nil)
		return
	}

	state.Evidence = append(state.Evidence, data)

	if len(state.Evidence) == EvidenceRequired {
		b.send(chatID, Msg(lang, msgEnough), doneKeyboard(lang))
		return
	}

	b.send(chatID, fmt.Sprintf(Msg(lang, msgAskPhoto), len(state.Evidence)+1, EvidenceRequired), nil)
}

// submit hands the collected wizard fields to the approval backend. On
// failure the session stays in wait_evidence with evidence intact, so the
// user can retry; the state transition happens only after the backend
// confirmed the request.
func (b *BotService) submit(chatID int64, state *UserState) {
	lang := state.Language

	sub := approval.Submission{
		UserID:      chatID,
		FIO:         state.FIO,
		BadgeNumber: state.BadgeNumber,
		Language:    lang,
		Evidence:    state.Evidence,
	}

	requestID, err := b.submitter.Submit(context.Background(), sub)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("submission failed")
		b.send(chatID, Msg(lang, msgSubmitFailed), doneKeyboard(lang))
		return
	}

	state.Step = StepAwaitingDecision
	state.ActiveRequestID = requestID
	state.LastRequestID = requestID
	state.SubmittedAt = time.Now()
	state.SLANotified = false
	state.Evidence = nil

	b.send(chatID, Msg(lang, msgSubmitted), nil)
}

func (b *BotService) repromptEvidence(chatID int64, state *UserState) {
	lang := state.Language

	if len(state.Evidence) == EvidenceRequired {
		b.send(chatID, Msg(lang, msgEnough), doneKeyboard(lang))
		return
	}

	b.send(chatID, fmt.Sprintf(Msg(lang, msgAskPhoto), len(state.Evidence)+1, EvidenceRequired), nil)
}

func (b *BotService) send(chatID int64, text string, keyboard [][]string) {
	if err := b.sender.Send(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

func langKeyboard() [][]string {
	return [][]string{{btnLangRU, btnLangEN}}
}

// MenuKeyboard is the main-menu reply keyboard; the reconciliation worker
// also attaches it when it returns a user to the menu.
func MenuKeyboard(lang string) [][]string {
	return [][]string{
		{Msg(lang, btnNewRequest)},
		{Msg(lang, btnReward), Msg(lang, btnStatus)},
	}
}

func beginKeyboard(lang string) [][]string {
	return [][]string{{Msg(lang, btnBegin)}}
}

func doneKeyboard(lang string) [][]string {
	return [][]string{{Msg(lang, btnDone)}}
}
