package bot

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/prostranstvo/internal/generator"
	"github.com/terraincognita07/prostranstvo/internal/i18n"
	"github.com/terraincognita07/prostranstvo/internal/models"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/tarot"
	"go.uber.org/zap"
)

type Entitlements interface {
	GetOrCreateUser(ctx context.Context, userID int64) (models.User, error)
	Check(ctx context.Context, userID int64, quota services.Quota) (models.User, error)
	Require(ctx context.Context, userID int64, feature services.Feature) (models.User, error)
	ToggleNotification(ctx context.Context, userID int64, kind models.NotificationKind) (models.User, error)
	EnableNotification(ctx context.Context, userID int64, kind models.NotificationKind) (models.User, error)
	DisableNotifications(ctx context.Context, userID int64) (models.User, error)
}

type DailyEnergy interface {
	Deliver(ctx context.Context, userID int64) (string, error)
}

type Readings interface {
	BotReading(ctx context.Context, userID int64, question string, spread tarot.Spread) (services.Reading, error)
	OwnDeckReading(ctx context.Context, userID int64, question string, cards []string, spread tarot.Spread) (services.Reading, error)
	Deepen(ctx context.Context, userID int64, prior string) (string, error)
}

type Diary interface {
	Save(ctx context.Context, userID int64, content string, entryType models.EntryType) (models.DiaryEntry, error)
	View(ctx context.Context, userID int64) (services.DiaryView, error)
	Count(ctx context.Context, userID int64) (int, error)
	Themes(ctx context.Context, userID int64) ([]services.Theme, error)
	Patterns(ctx context.Context, userID int64) (services.Patterns, error)
}

type Dependencies struct {
	Entitlements Entitlements
	DailyEnergy  DailyEnergy
	Readings     Readings
	Diary        Diary
	Sessions     *SessionStore
	Texts        *i18n.Manager
	Location     *time.Location
	Logger       *zap.Logger
	Metrics      *observability.Collector
}

type Router struct {
	entitlements Entitlements
	energy       DailyEnergy
	readings     Readings
	diary        Diary
	sessions     *SessionStore
	texts        *i18n.Manager
	location     *time.Location
	logger       *zap.Logger
	metrics      *observability.Collector
	menu         map[string]ActionKind
}

func NewRouter(deps Dependencies) *Router {
	if deps.Sessions == nil {
		deps.Sessions = NewSessionStore()
	}
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	router := &Router{
		entitlements: deps.Entitlements,
		energy:       deps.DailyEnergy,
		readings:     deps.Readings,
		diary:        deps.Diary,
		sessions:     deps.Sessions,
		texts:        deps.Texts,
		location:     deps.Location,
		logger:       deps.Logger,
		metrics:      deps.Metrics,
		menu:         make(map[string]ActionKind),
	}
	for _, row := range mainMenuLayout {
		for _, item := range row {
			router.menu[deps.Texts.Translate(deps.Texts.DefaultLanguage(), item.key)] = item.action
		}
	}
	return router
}

func (router *Router) Sessions() *SessionStore {
	return router.sessions
}

// MainMenu returns the reply keyboard labels in display order.
func (router *Router) MainMenu(language string) [][]string {
	rows := make([][]string, 0, len(mainMenuLayout))
	for _, row := range mainMenuLayout {
		labels := make([]string, 0, len(row))
		for _, item := range row {
			labels = append(labels, router.texts.Translate(language, item.key))
		}
		rows = append(rows, labels)
	}
	return rows
}

// Handle processes one event and returns every reply it produced.
func (router *Router) Handle(ctx context.Context, event Event) []Reply {
	replies := make([]Reply, 0, 2)
	router.HandleStream(ctx, event, func(reply Reply) {
		replies = append(replies, reply)
	})
	return replies
}

// HandleStream processes one event, passing replies to emit as soon as they
// are ready so progress messages reach the user before slow work finishes.
func (router *Router) HandleStream(ctx context.Context, event Event, emit func(Reply)) {
	action := Decode(event, router.menu)
	router.metrics.ObserveUpdate(event.Kind.String())

	conv := &conversation{
		router:   router,
		ctx:      ctx,
		event:    event,
		key:      event.SessionKey(),
		language: router.texts.NormalizeLanguage(event.Language),
		emit:     emit,
	}
	router.logger.Debug("handling action",
		zap.Int64("user_id", event.UserID),
		zap.String("action", action.Kind.String()),
	)
	conv.dispatch(action)
}

type conversation struct {
	router   *Router
	ctx      context.Context
	event    Event
	key      SessionKey
	language string
	emit     func(Reply)
}

func (conv *conversation) dispatch(action Action) {
	switch action.Kind {
	case ActionStart:
		conv.start()
	case ActionCancel:
		conv.cancel()
	case ActionHowItWorks:
		conv.say(conv.t("how_it_works.text"))
	case ActionDailyEnergy:
		conv.dailyEnergy()
	case ActionTarotMenu:
		conv.tarotMenu()
	case ActionTarotBot:
		conv.tarotBotStart()
	case ActionTarotOwn:
		conv.tarotOwnStart()
	case ActionTarotCount:
		conv.tarotCount(action.Count)
	case ActionOwnLayout:
		conv.ownLayout(action.Count)
	case ActionDiaryMenu:
		conv.diaryMenu()
	case ActionDiaryNew:
		conv.diaryNew()
	case ActionDiaryView:
		conv.diaryView()
	case ActionDiaryThemes:
		conv.diaryThemes()
	case ActionDiaryPatterns:
		conv.diaryPatterns()
	case ActionSaveDailyEnergy:
		conv.saveDailyEnergy()
	case ActionSaveTarot:
		conv.saveTarot()
	case ActionNotificationsMenu:
		conv.notificationsMenu()
	case ActionToggleNotification:
		conv.toggleNotification(action.Notification)
	case ActionDisableNotifications:
		conv.disableNotifications()
	case ActionNotifyDaily:
		conv.notifyDaily()
	case ActionSubscriptionMenu:
		conv.subscriptionMenu()
	case ActionSubscribe:
		conv.subscribe(action.Tier)
	case ActionCancelSubscription:
		conv.say(conv.t("subscription.cancel"))
	case ActionUpgradeNeeded:
		conv.upgrade(services.ErrPaidTierRequired)
	case ActionUpgradePremium:
		conv.upgrade(services.ErrPremiumTierRequired)
	case ActionDeepen:
		conv.deepen(action.Target)
	case ActionText:
		conv.text(action.Text)
	case ActionFallback:
		conv.fallback()
	default:
		conv.fallback()
	}
}

func (conv *conversation) t(key string) string {
	return conv.router.texts.Translate(conv.language, key)
}

func (conv *conversation) tf(key string, args ...any) string {
	return conv.router.texts.Translatef(conv.language, key, args...)
}

func (conv *conversation) send(reply Reply) {
	conv.emit(reply)
}

func (conv *conversation) say(text string) {
	conv.emit(Reply{Text: text})
}

func (conv *conversation) sayWithMenu(text string) {
	conv.emit(Reply{Text: text, MainMenu: true})
}

func (conv *conversation) alert(text string) {
	conv.emit(Reply{Text: text, Alert: true})
}

func (conv *conversation) fallback() {
	conv.sayWithMenu(conv.t("fallback.choose"))
}

func (conv *conversation) button(key string, data string) Button {
	return Button{Text: conv.t(key), Data: data}
}

// fail turns a service error into the user-facing reply for it.
func (conv *conversation) fail(operation string, err error) {
	switch {
	case errors.Is(err, services.ErrQuotaExhausted):
		conv.fallback()
	case errors.Is(err, services.ErrPremiumTierRequired), errors.Is(err, services.ErrPaidTierRequired):
		conv.upgrade(err)
	case errors.Is(err, generator.ErrGenerationFailed):
		conv.router.logger.Warn("generation failed", zap.String("operation", operation), zap.Error(err))
		conv.sayWithMenu(conv.t("error.generation"))
	default:
		conv.router.logger.Error("request failed",
			zap.String("operation", operation),
			zap.Int64("user_id", conv.event.UserID),
			zap.Error(err),
		)
		conv.sayWithMenu(conv.t("error.storage"))
	}
}

func (conv *conversation) upgrade(reason error) {
	key := "upgrade.paid"
	if errors.Is(reason, services.ErrPremiumTierRequired) {
		key = "upgrade.premium"
	}
	conv.send(Reply{
		Text:    conv.t(key),
		Buttons: [][]Button{{conv.button("button.view_plans", ButtonSubscription)}},
	})
}

func (conv *conversation) start() {
	if _, err := conv.router.entitlements.GetOrCreateUser(conv.ctx, conv.event.UserID); err != nil {
		conv.fail("start", err)
		return
	}
	conv.router.sessions.Cancel(conv.key)

	conv.send(Reply{
		Text: conv.t("start.welcome"),
		Buttons: [][]Button{
			{conv.button("menu.daily_energy", ButtonDailyEnergy)},
			{conv.button("menu.tarot", ButtonTarot)},
			{conv.button("menu.diary", ButtonDiary)},
			{conv.button("button.how_it_works", ButtonHowItWorks)},
		},
	})
	conv.sayWithMenu(conv.t("start.choose_action"))
}

func (conv *conversation) cancel() {
	conv.router.sessions.Cancel(conv.key)
	conv.sayWithMenu(conv.t("cancel.done"))
}

// text routes free text to the active dialog step. Text outside a dialog or
// during generation falls through to the default menu reply.
func (conv *conversation) text(text string) {
	dialog := conv.router.sessions.Get(conv.key).Dialog
	switch dialog.Step {
	case StepTarotQuestion:
		conv.tarotQuestion(dialog, text)
	case StepTarotCardCount:
		conv.tarotCountText(dialog, text)
	case StepOwnDeckLayout:
		conv.ownLayoutText(dialog, text)
	case StepOwnDeckQuestion:
		conv.ownQuestion(dialog, text)
	case StepOwnDeckCards:
		conv.ownCards(dialog, text)
	case StepDiaryContent:
		conv.diaryContent(dialog, text)
	case StepIdle, StepTarotDrawing, StepOwnDeckInterpreting:
		conv.fallback()
	default:
		conv.fallback()
	}
}

type menuItem struct {
	key    string
	action ActionKind
}

var mainMenuLayout = [][]menuItem{
	{{key: "menu.daily_energy", action: ActionDailyEnergy}, {key: "menu.tarot", action: ActionTarotMenu}},
	{{key: "menu.diary", action: ActionDiaryMenu}, {key: "menu.notifications", action: ActionNotificationsMenu}},
	{{key: "menu.subscription", action: ActionSubscriptionMenu}},
}

func formatDate(value time.Time, location *time.Location) string {
	return models.DateOf(value, location).String()
}
