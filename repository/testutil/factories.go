package testutil

import (
	"progressbot/models"
)

// CreateTestRank creates a label-backed rank definition with default values
func CreateTestRank(guildID int64, label string, threshold int64) *models.Rank {
	return &models.Rank{
		GuildID:          guildID,
		Ref:              models.LabelRef(label),
		MinimumWordCount: threshold,
	}
}

// CreateTestRoleRank creates a role-backed rank definition
func CreateTestRoleRank(guildID, roleID, threshold int64) *models.Rank {
	return &models.Rank{
		GuildID:          guildID,
		Ref:              models.RoleRef(roleID),
		MinimumWordCount: threshold,
	}
}

// CreateTestReport creates a report record with default values
func CreateTestReport(guildID int64, reportID int32, userID, total int64) *models.Report {
	return &models.Report{
		GuildID:        guildID,
		ReportID:       reportID,
		UserID:         userID,
		TotalWordCount: total,
	}
}

// CreateTestReportWithNote creates a report record carrying a note
func CreateTestReportWithNote(guildID int64, reportID int32, userID, total int64, note string) *models.Report {
	report := CreateTestReport(guildID, reportID, userID, total)
	report.Note = &note
	return report
}
