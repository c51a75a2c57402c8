package bot

import (
	"context"
	"fmt"
	"strings"

	"progressbot/bot/common"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// handleEvaluate runs rank evaluation for one user or the whole guild. The
// guild-wide run can take a while, so the response is deferred.
func (b *Bot) handleEvaluate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	var targetID *int64
	options := i.ApplicationCommandData().Options
	if len(options) > 0 && options[0].Name == "user" {
		target := options[0].UserValue(s)
		if target != nil {
			parsed, err := common.ParseUserID(target.ID)
			if err != nil {
				common.RespondWithError(s, i, "Invalid user.")
				return
			}
			targetID = &parsed
		}
	}

	if err := common.DeferResponse(s, i, false); err != nil {
		log.Errorf("Error deferring evaluate response: %v", err)
		return
	}

	if targetID != nil {
		b.evaluateSingleUser(ctx, s, i, guildID, *targetID)
		return
	}

	b.evaluateWholeGuild(ctx, s, i, guildID)
}

func (b *Bot) evaluateSingleUser(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID, userID int64) {
	standing, err := b.evalService.EvaluateUser(ctx, guildID, userID)
	if err != nil {
		log.Errorf("Failed to evaluate user %d: %v", userID, err)
		common.FollowUpWithError(s, i, "Unable to evaluate. Please try again.")
		return
	}

	displayName := common.GetDisplayNameInt64(s, i.GuildID, userID)

	if standing.Entry == nil {
		common.FollowUpWithError(s, i, fmt.Sprintf("%s has not submitted any reports yet.", displayName))
		return
	}

	var description string
	switch {
	case standing.Promoted:
		description = fmt.Sprintf("%s was promoted to %s!",
			common.GetUserMention(userID), standing.Current.Ref.Display())
	case standing.Current != nil:
		description = fmt.Sprintf("%s already holds the correct rank: %s.",
			displayName, standing.Current.Ref.Display())
	case standing.Dangling != nil:
		description = fmt.Sprintf("%s holds %s, which is no longer in the rank table.",
			displayName, standing.Dangling.Display())
	default:
		description = fmt.Sprintf("%s has not reached any rank yet.", displayName)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Evaluation result",
		Description: fmt.Sprintf("%s\nPeak word count: **%s**",
			description, common.FormatWordCount(standing.Entry.MaxWordCount)),
		Color: 0x5865F2,
	}

	if _, err := common.FollowUpWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to evaluate: %v", err)
	}
}

func (b *Bot) evaluateWholeGuild(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, guildID int64) {
	promotions, err := b.evalService.EvaluateGuild(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to evaluate guild %d: %v", guildID, err)
		common.FollowUpWithError(s, i, "Unable to evaluate. Please try again.")
		return
	}

	if len(promotions) == 0 {
		embed := &discordgo.MessageEmbed{
			Title:       "Evaluation result",
			Description: "Everyone already holds the correct rank.",
			Color:       0x5865F2,
		}
		if _, err := common.FollowUpWithEmbed(s, i, embed, false); err != nil {
			log.Errorf("Error responding to evaluate: %v", err)
		}
		return
	}

	var lines []string
	for _, promotion := range promotions {
		lines = append(lines, fmt.Sprintf("%s → %s",
			common.GetUserMention(promotion.UserID), promotion.NewRank.Ref.Display()))
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Promotions (%d)", len(promotions)),
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
	}

	if _, err := common.FollowUpWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to evaluate: %v", err)
	}
}
