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

func (b *Bot) handleRankCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	subcommand := i.ApplicationCommandData().Options[0].Name

	// Listing is open to everyone; mutations need admin.
	if subcommand != "list" && !common.IsUserAdmin(s, i.GuildID, i.Member.User.ID) {
		common.RespondWithError(s, i, "You need administrator permissions to manage ranks.")
		return
	}

	switch subcommand {
	case "set", "setname":
		b.handleRankDefine(s, i)
	case "remove":
		b.handleRankRemove(s, i)
	case "clear":
		b.handleRankClear(s, i)
	case "list":
		b.handleRankList(s, i)
	}
}

// rankRefFromOptions builds a RankRef from a subcommand's role/name options.
func rankRefFromOptions(s *discordgo.Session, options []*discordgo.ApplicationCommandInteractionDataOption) (models.RankRef, int64, error) {
	var ref models.RankRef
	var threshold int64
	var haveRef bool

	for _, opt := range options {
		switch opt.Name {
		case "role":
			role := opt.RoleValue(s, "")
			if role == nil {
				return models.RankRef{}, 0, fmt.Errorf("invalid role")
			}
			roleID, err := common.ParseUserID(role.ID)
			if err != nil {
				return models.RankRef{}, 0, fmt.Errorf("failed to parse role ID: %w", err)
			}
			if haveRef {
				return models.RankRef{}, 0, fmt.Errorf("give either a role or a name, not both")
			}
			ref = models.RoleRef(roleID)
			haveRef = true
		case "name":
			if haveRef {
				return models.RankRef{}, 0, fmt.Errorf("give either a role or a name, not both")
			}
			ref = models.LabelRef(opt.StringValue())
			haveRef = true
		case "words":
			threshold = opt.IntValue()
		}
	}

	if !haveRef {
		return models.RankRef{}, 0, fmt.Errorf("a role or a name is required")
	}

	return ref, threshold, nil
}

func (b *Bot) handleRankDefine(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	ref, threshold, err := rankRefFromOptions(s, i.ApplicationCommandData().Options[0].Options)
	if err != nil {
		common.RespondWithError(s, i, err.Error())
		return
	}

	rank, err := b.rankService.DefineRank(ctx, guildID, ref, threshold)
	if err != nil {
		if errors.Is(err, service.ErrInvalidThreshold) {
			common.RespondWithError(s, i,
				"Invalid threshold: it must be a non-negative word count no other rank uses.")
			return
		}
		log.Errorf("Failed to define rank for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to save the rank. Please try again.")
		return
	}

	message := fmt.Sprintf("Rank %s set at **%s words**.",
		rank.Ref.Display(), common.FormatWordCount(rank.MinimumWordCount))
	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.Errorf("Error responding to rank define: %v", err)
	}
}

func (b *Bot) handleRankRemove(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	ref, _, err := rankRefFromOptions(s, i.ApplicationCommandData().Options[0].Options)
	if err != nil {
		common.RespondWithError(s, i, err.Error())
		return
	}

	if err := b.rankService.RemoveRank(ctx, guildID, ref); err != nil {
		if errors.Is(err, service.ErrRankNotFound) {
			common.RespondWithError(s, i, fmt.Sprintf("No rank %s exists.", ref.Display()))
			return
		}
		log.Errorf("Failed to remove rank for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to remove the rank. Please try again.")
		return
	}

	message := fmt.Sprintf("Rank %s removed.", ref.Display())
	if err := common.RespondWithSuccess(s, i, message, false); err != nil {
		log.Errorf("Error responding to rank remove: %v", err)
	}
}

func (b *Bot) handleRankClear(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	if err := b.rankService.ClearRanks(ctx, guildID); err != nil {
		log.Errorf("Failed to clear ranks for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to clear the rank table. Please try again.")
		return
	}

	if err := common.RespondWithSuccess(s, i, "Rank table cleared.", false); err != nil {
		log.Errorf("Error responding to rank clear: %v", err)
	}
}

func (b *Bot) handleRankList(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	guildID, _, err := interactionScope(i)
	if err != nil {
		log.Errorf("Failed to parse interaction scope: %v", err)
		common.RespondWithError(s, i, "Unable to process request. Please try again.")
		return
	}

	ranks, err := b.rankService.ListRanks(ctx, guildID)
	if err != nil {
		log.Errorf("Failed to list ranks for guild %d: %v", guildID, err)
		common.RespondWithError(s, i, "Unable to list ranks. Please try again.")
		return
	}

	if len(ranks) == 0 {
		common.RespondWithError(s, i, "No ranks are configured. Use `/rank set` or `/rank setname` to add one.")
		return
	}

	var lines []string
	for _, rank := range ranks {
		lines = append(lines, fmt.Sprintf("%s — **%s words**",
			rank.Ref.Display(), common.FormatWordCount(rank.MinimumWordCount)))
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Rank table",
		Description: strings.Join(lines, "\n"),
		Color:       0x5865F2,
	}

	if err := common.RespondWithEmbed(s, i, embed, false); err != nil {
		log.Errorf("Error responding to rank list: %v", err)
	}
}
