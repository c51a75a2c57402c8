package service

import (
	"context"
	"fmt"

	"progressbot/models"
)

// guildSettingsService implements the GuildSettingsService interface
type guildSettingsService struct {
	uowFactory UnitOfWorkFactory
}

// NewGuildSettingsService creates a new guild settings service
func NewGuildSettingsService(uowFactory UnitOfWorkFactory) GuildSettingsService {
	return &guildSettingsService{
		uowFactory: uowFactory,
	}
}

// GetOrCreateSettings retrieves guild settings or creates default ones if not found
func (s *guildSettingsService) GetOrCreateSettings(ctx context.Context, guildID int64) (*models.GuildSettings, error) {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.GuildSettingsRepository().GetOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return settings, nil
}

// UpdateAnnouncementChannel updates the promotion announcement channel for a guild
func (s *guildSettingsService) UpdateAnnouncementChannel(ctx context.Context, guildID int64, channelID *int64) error {
	return s.updateSettings(ctx, guildID, func(settings *models.GuildSettings) {
		settings.AnnouncementChannelID = channelID
	})
}

// UpdateReminderRole updates the reminder role for a guild
func (s *guildSettingsService) UpdateReminderRole(ctx context.Context, guildID int64, roleID *int64) error {
	return s.updateSettings(ctx, guildID, func(settings *models.GuildSettings) {
		settings.ReminderRoleID = roleID
	})
}

func (s *guildSettingsService) updateSettings(ctx context.Context, guildID int64, apply func(*models.GuildSettings)) error {
	uow := s.uowFactory.CreateForGuild(guildID)
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settings, err := uow.GuildSettingsRepository().GetOrCreate(ctx)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	apply(settings)

	if err := uow.GuildSettingsRepository().Update(ctx, settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
