package bot

import (
	"context"
	"fmt"
	"strconv"

	log "github.com/sirupsen/logrus"

	"progressbot/bot/common"
	"progressbot/events"
	"progressbot/service"

	"github.com/bwmarrin/discordgo"
)

// Config holds bot configuration
type Config struct {
	Token           string
	DefaultPageSize int
}

type Bot struct {
	config          Config
	session         *discordgo.Session
	reportService   service.ReportService
	rankService     service.RankService
	evalService     service.EvaluationService
	settingsService service.GuildSettingsService
	eventBus        *events.Bus
}

func New(config Config, reportService service.ReportService, rankService service.RankService, evalService service.EvaluationService, settingsService service.GuildSettingsService, eventBus *events.Bus) (*Bot, error) {
	dg, err := discordgo.New("Bot " + config.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	bot := &Bot{
		config:          config,
		session:         dg,
		reportService:   reportService,
		rankService:     rankService,
		evalService:     evalService,
		settingsService: settingsService,
		eventBus:        eventBus,
	}

	// Register slash command handlers
	dg.AddHandler(bot.handleCommands)

	// Open websocket connection
	if err := dg.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	// Register slash commands with Discord
	if err := bot.registerCommands(); err != nil {
		dg.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	// Announce promotions once they commit
	eventBus.Subscribe(events.EventTypeRankPromotion, func(ctx context.Context, event events.Event) {
		promotion, ok := event.(events.RankPromotionEvent)
		if !ok {
			return
		}
		bot.handlePromotion(ctx, promotion)
	})

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

// handlePromotion posts a committed promotion to the guild's announcement
// channel when one is configured. Role membership is never touched; the
// ledger alone tracks the current rank.
func (b *Bot) handlePromotion(ctx context.Context, promotion events.RankPromotionEvent) {
	settings, err := b.settingsService.GetOrCreateSettings(ctx, promotion.GuildID)
	if err != nil {
		log.Errorf("Failed to load settings for promotion announcement: %v", err)
		return
	}
	if settings.AnnouncementChannelID == nil {
		return
	}

	channelID := strconv.FormatInt(*settings.AnnouncementChannelID, 10)
	message := fmt.Sprintf("🎉 %s reached the rank **%s** (%s words)!",
		common.GetUserMention(promotion.UserID),
		promotion.NewRank.Ref.Display(),
		common.FormatWordCount(promotion.NewRank.MinimumWordCount))

	if _, err := b.session.ChannelMessageSend(channelID, message); err != nil {
		log.Errorf("Failed to send promotion announcement: %v", err)
	}
}
