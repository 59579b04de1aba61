package bot

import (
	"fmt"

	"github.com/gratefultolord/badge_approval_bot/internal/approval"
)

const (
	LangRU = "ru"
	LangEN = "en"
)

const (
	msgChooseLang      = "choose_lang"
	msgMenu            = "menu"
	msgReady           = "ready"
	msgAskFIO          = "ask_fio"
	msgAskBadge        = "ask_badge"
	msgBadBadge        = "bad_badge"
	msgAskPhoto        = "ask_photo"
	msgDupPhoto        = "dup_photo"
	msgNeedMore        = "need_more"
	msgEnough          = "enough"
	msgSubmitted       = "submitted"
	msgSubmitFailed    = "submit_failed"
	msgUnderReview     = "under_review"
	msgApproved        = "approved"
	msgRejected        = "rejected"
	msgChanges         = "changes"
	msgNoReason        = "no_reason"
	msgSLANotice       = "sla_notice"
	msgStatusReport    = "status_report"
	msgNoActiveRequest = "no_active_request"
	msgRewardFound     = "reward_found"
	msgRewardNone      = "reward_none"
	msgUseKeyboard     = "use_keyboard"
	msgTryLater        = "try_later"
)

const (
	btnLangRU     = "Русский"
	btnLangEN     = "English"
	btnNewRequest = "btn_new_request"
	btnReward     = "btn_reward"
	btnStatus     = "btn_status"
	btnBegin      = "btn_begin"
	btnDone       = "btn_done"
)

var catalog = map[string]map[string]string{
	LangRU: {
		msgChooseLang:      "Выберите язык / Choose your language",
		msgMenu:            "Главное меню. Выберите действие:",
		msgReady:           "Для подачи заявки понадобятся ФИО, номер пропуска (5 цифр) и 3 фотографии. Нажмите «Начать», когда будете готовы.",
		msgAskFIO:          "Укажите Ваши фамилию, имя и отчество",
		msgAskBadge:        "Укажите номер пропуска (ровно 5 цифр)",
		msgBadBadge:        "Неверный формат. Номер пропуска состоит ровно из 5 цифр, например 12345",
		msgAskPhoto:        "Отправьте фотографию (%d из %d)",
		msgDupPhoto:        "Эта фотография уже использовалась ранее. Пожалуйста, отправьте другую",
		msgNeedMore:        "Пока загружено %d из %d фотографий. Отправьте оставшиеся",
		msgEnough:          "Все фотографии получены. Нажмите «Готово» для отправки заявки",
		msgSubmitted:       "Спасибо! Ваша заявка отправлена на рассмотрение. Мы сообщим о решении",
		msgSubmitFailed:    "Не удалось отправить заявку. Ваши данные сохранены — попробуйте нажать «Готово» ещё раз чуть позже",
		msgUnderReview:     "Ваша заявка находится на рассмотрении. Пожалуйста, дождитесь решения",
		msgApproved:        "Ваша заявка одобрена! Добро пожаловать",
		msgRejected:        "К сожалению, Ваша заявка отклонена. Причина: %s",
		msgChanges:         "По Вашей заявке запрошены изменения. Комментарий: %s",
		msgNoReason:        "причина не указана",
		msgSLANotice:       "Рассмотрение Вашей заявки занимает больше времени, чем обычно. Мы не забыли про Вас",
		msgStatusReport:    "Текущий статус Вашей заявки: %s",
		msgNoActiveRequest: "У Вас нет активной заявки",
		msgRewardFound:     "Ваше вознаграждение: %s",
		msgRewardNone:      "Вознаграждение пока не назначено",
		msgUseKeyboard:     "Пожалуйста, выберите один из вариантов на клавиатуре",
		msgTryLater:        "Произошла ошибка. Попробуйте ещё раз чуть позже",
		btnNewRequest:      "Подать заявку",
		btnReward:          "Моё вознаграждение",
		btnStatus:          "Статус заявки",
		btnBegin:           "Начать",
		btnDone:            "Готово",
	},
	LangEN: {
		msgChooseLang:      "Выберите язык / Choose your language",
		msgMenu:            "Main menu. Choose an action:",
		msgReady:           "To submit a request you will need your full name, a 5-digit badge number and 3 photos. Press \"Begin\" when ready.",
		msgAskFIO:          "Please enter your full name",
		msgAskBadge:        "Please enter your badge number (exactly 5 digits)",
		msgBadBadge:        "Invalid format. The badge number is exactly 5 digits, e.g. 12345",
		msgAskPhoto:        "Please send a photo (%d of %d)",
		msgDupPhoto:        "This photo has already been used before. Please send a different one",
		msgNeedMore:        "You have uploaded %d of %d photos so far. Please send the rest",
		msgEnough:          "All photos received. Press \"Done\" to submit the request",
		msgSubmitted:       "Thank you! Your request has been submitted for review. We will notify you of the decision",
		msgSubmitFailed:    "Could not submit your request. Your data is intact — please press \"Done\" again in a moment",
		msgUnderReview:     "Your request is under review. Please wait for the decision",
		msgApproved:        "Your request has been approved! Welcome",
		msgRejected:        "Unfortunately, your request was rejected. Reason: %s",
		msgChanges:         "Changes were requested for your request. Comment: %s",
		msgNoReason:        "no reason given",
		msgSLANotice:       "Reviewing your request is taking longer than usual. We have not forgotten about you",
		msgStatusReport:    "Current status of your request: %s",
		msgNoActiveRequest: "You have no active request",
		msgRewardFound:     "Your reward: %s",
		msgRewardNone:      "No reward has been assigned yet",
		msgUseKeyboard:     "Please choose one of the keyboard options",
		msgTryLater:        "Something went wrong. Please try again in a moment",
		btnNewRequest:      "New request",
		btnReward:          "My reward",
		btnStatus:          "Request status",
		btnBegin:           "Begin",
		btnDone:            "Done",
	},
}

var statusNames = map[string]map[approval.Status]string{
	LangRU: {
		approval.StatusPending:          "на рассмотрении",
		approval.StatusApproved:         "одобрена",
		approval.StatusRejected:         "отклонена",
		approval.StatusChangesRequested: "требуются изменения",
	},
	LangEN: {
		approval.StatusPending:          "pending",
		approval.StatusApproved:         "approved",
		approval.StatusRejected:         "rejected",
		approval.StatusChangesRequested: "changes requested",
	},
}

// Msg resolves a catalog string for the given language, falling back to
// Russian for sessions that have not picked a language yet.
func Msg(lang, key string) string {
	if m, ok := catalog[lang]; ok {
		if text, ok := m[key]; ok {
			return text
		}
	}

	return catalog[LangRU][key]
}

// StatusName localizes a backend status for the menu's status lookup.
func StatusName(lang string, status approval.Status) string {
	if m, ok := statusNames[lang]; ok {
		if name, ok := m[status]; ok {
			return name
		}
	}

	return string(status)
}

// SLANotice is the one-time "taking longer than usual" text.
func SLANotice(lang string) string {
	return Msg(lang, msgSLANotice)
}

// DecisionMessage builds the notification text for a terminal decision.
// Rejections and change requests interpolate the latest reviewer comment.
func DecisionMessage(lang string, status approval.Status, comment *string) string {
	reason := Msg(lang, msgNoReason)
	if comment != nil && *comment != "" {
		reason = *comment
	}

	switch status {
	case approval.StatusApproved:
		return Msg(lang, msgApproved)
	case approval.StatusRejected:
		return fmt.Sprintf(Msg(lang, msgRejected), reason)
	case approval.StatusChangesRequested:
		return fmt.Sprintf(Msg(lang, msgChanges), reason)
	}

	return Msg(lang, msgUnderReview)
}
