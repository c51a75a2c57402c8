package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"progressbot/bot/common"
	"progressbot/models"
	"progressbot/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (b *Bot) handleReportCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.ApplicationCommandData().Options[0].Name {
	case "submit":
		b.handleReportSubmit(s, i)
	case "list":
		b.handleReportList(s, i)
	case "total":
		b.handleReportTotal(s, i)
	}
}

// interactionScope parses the guild and invoking user IDs of an interaction.
func interactionScope(i *discordgo.InteractionCreate) (guildID, userID int64, err error) {
	guildID, err = common.ParseUserID(i.GuildID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse guild ID %q: %w", i.GuildID, err)
	}
	userID, err = common.ParseUserID(i.Member.User.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to parse user ID %q: %w", i.Member.User.ID, err)
	}
	return guildID, userID, nil
}

func (b *Bot) handleReportSubmit(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var expression string
	var note *string
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "words":
			expression = opt.StringValue()
		case "note":
			value := opt.StringValue()
			if value != "" {
				note = &value
			}
		}
	}

	report, err := b.reportService.Submit(ctx, guildID, userID, expression, note)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFormat):
			common.RespondWithError(s, i,
				"That doesn't look like a word count. Use a total like `12000` or a change like `+500` or `-200`.")
		case errors.Is(err, service.ErrSequenceExhausted):
			common.RespondWithError(s, i,
				"This server's report history is full. No further reports can be recorded.")
		default:
			log.Errorf("Failed to submit report for user %d: %v", userID, err)
			common.RespondWithError(s, i, "Unable to record the report. Please try again.")
		}
		return
	}

	entry, err := b.reportService.GetLedgerEntry(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to load ledger entry after submit: %v", err)
		common.RespondWithError(s, i, "Unable to record the report. Please try again.")
		return
	}

	message := fmt.Sprintf("Report #%d recorded. %s now has **%s words** (peak **%s**).",
		report.ReportID,
		common.GetDisplayNameInt64(s, i.GuildID, userID),
		common.FormatWordCount(entry.CurrentWordCount),
		common.FormatWordCount(entry.MaxWordCount))

	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.Errorf("Error responding to report submit: %v", err)
	}
}

func (b *Bot) handleReportList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	filter := service.ReportFilter{Limit: b.config.DefaultPageSize}
	for _, opt := range i.ApplicationCommandData().Options[0].Options {
		switch opt.Name {
		case "user":
			target := opt.UserValue(s)
			if target != nil {
				targetID, err := common.ParseUserID(target.ID)
				if err != nil {
					common.RespondWithError(s, i, "Invalid user.")
					return
				}
				filter.UserID = &targetID
			}
		case "limit":
			if value := int(opt.IntValue()); value > 0 {
				filter.Limit = value
			}
		}
	}

	reports, err := b.reportService.List(ctx, guildID, filter)
	if err != nil {
		log.Errorf("Failed to list reports for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to list reports. Please try again.")
		return
	}

	if len(reports) == 0 {
		common.RespondWithError(s, i, "No reports found.")
		return
	}

	var lines []string
	for _, report := range reports {
		line := fmt.Sprintf("`#%d` %s — **%s words** %s",
			report.ReportID,
			common.GetUserMention(report.UserID),
			common.FormatWordCount(report.TotalWordCount),
			common.FormatDiscordTimestamp(report.CreatedAt, "R"))
		if report.Note != nil {
			line += fmt.Sprintf(" — *%s*", *report.Note)
		}
		lines = append(lines, line)
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Recent reports",
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
	}

	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to report list: %v", err)
	}
}

func (b *Bot) handleReportTotal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, userID, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	options := i.ApplicationCommandData().Options[0].Options
	if len(options) > 0 && options[0].Name == "user" {
		target := options[0].UserValue(s)
		if target != nil {
			userID, err = common.ParseUserID(target.ID)
			if err != nil {
				common.RespondWithError(s, i, "Invalid user.")
				return
			}
		}
	}

	entry, err := b.reportService.GetLedgerEntry(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to get ledger entry for user %d: %v", userID, err)
		common.RespondWithError(s, i, "Unable to look up the total. Please try again.")
		return
	}

	displayName := common.GetDisplayNameInt64(s, i.GuildID, userID)
	if entry == nil {
		common.RespondWithError(s, i, fmt.Sprintf("%s has not submitted any reports yet.", displayName))
		return
	}

	message := fmt.Sprintf("%s has **%s words** (peak **%s**)%s",
		displayName,
		common.FormatWordCount(entry.CurrentWordCount),
		common.FormatWordCount(entry.MaxWordCount),
		formatHeldRank(entry.CurrentRank))

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: message,
		},
	})
	if err != nil {
		log.Errorf("Error responding to report total: %v", err)
	}
}

func formatHeldRank(ref *models.RankRef) string {
	if ref == nil {
		return "."
	}
	return fmt.Sprintf(", currently ranked %s.", ref.Display())
}
