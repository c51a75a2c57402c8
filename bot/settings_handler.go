package bot

import (
	"context"
	"fmt"

	"progressbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

func (b *Bot) handleSettingsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to change settings.")
		return
	}

	switch i.ApplicationCommandData().Options[0].Name {
	case "channel":
		b.handleAnnouncementChannel(s, i)
	case "reminderrole":
		b.handleReminderRole(s, i)
	}
}

func (b *Bot) handleAnnouncementChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var channelID *int64
	options := i.ApplicationCommandData().Options[0].Options
	if len(options) > 0 && options[0].Name == "channel" {
		channel := options[0].ChannelValue(s)
		if channel != nil {
			parsed, err := common.ParseUserID(channel.ID)
			if err != nil {
				common.RespondWithError(s, i, "Invalid channel.")
				return
			}
			channelID = &parsed
		}
	}

	if err := b.settingsService.UpdateAnnouncementChannel(ctx, guildID, channelID); err != nil {
		log.Errorf("Failed to update announcement channel for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to update settings. Please try again.")
		return
	}

	var message string
	if channelID != nil {
		message = fmt.Sprintf("Promotion announcements will be posted in <#%d>.", *channelID)
	} else {
		message = "Promotion announcements disabled."
	}

	if err := common.RespondWithSuccess(s, i, message, true); err != nil {
		log.Errorf("Error responding to settings channel: %v", err)
	}
}

func (b *Bot) handleReminderRole(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var roleID *int64
	options := i.ApplicationCommandData().Options[0].Options
	if len(options) > 0 && options[0].Name == "role" {
		role := options[0].RoleValue(s, "")
		if role != nil && role.ID != "" {
			parsed, err := common.ParseUserID(role.ID)
			if err != nil {
				common.RespondWithError(s, i, "Invalid role.")
				return
			}
			roleID = &parsed
		}
	}

	if err := b.settingsService.UpdateReminderRole(ctx, guildID, roleID); err != nil {
		log.Errorf("Failed to update reminder role for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to update settings. Please try again.")
		return
	}

	var message string
	if roleID != nil {
		message = fmt.Sprintf("Report reminders will ping <@&%d>.", *roleID)
	} else {
		message = "Report reminders disabled."
	}

	if err := common.RespondWithSuccess(s, i, message, true); err != nil {
		log.Errorf("Error responding to settings reminderrole: %v", err)
	}
}
