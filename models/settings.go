package models

import (
	"strings"
	"time"

	"github.com/mmdatafocus/roastery_backend/utils"
)

const SettingsId = "default"

// Settings is the single business settings row.
type Settings struct {
	ID                  string     `gorm:"size:36;primary_key" json:"id"`
	BusinessName        string     `gorm:"size:150;not null" json:"business_name"`
	Currency            string     `gorm:"size:10;not null" json:"currency"`
	Timezone            string     `gorm:"size:64;not null" json:"timezone"`
	WeeklyReportWeekday int        `gorm:"not null" json:"weekly_report_weekday"` // time.Weekday
	WeeklyReportHour    int        `gorm:"not null" json:"weekly_report_hour"`
	ReportRecipients    string     `gorm:"type:text" json:"report_recipients"` // comma separated
	LastWeeklyReportAt  *time.Time `json:"last_weekly_report_at"`
	UpdatedAt           time.Time  `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Settings) TableName() string { return "settings" }

func (s Settings) GetId() string { return s.ID }

func DefaultSettings() Settings {
	return Settings{
		ID:                  SettingsId,
		BusinessName:        "Roastery",
		Currency:            "MMK",
		Timezone:            "Asia/Yangon",
		WeeklyReportWeekday: int(time.Monday),
		WeeklyReportHour:    8,
	}
}

func (s Settings) Recipients() []string {
	var out []string
	for _, r := range strings.Split(s.ReportRecipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return utils.UniqueSlice(out)
}

func (s Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type UpdateSettings struct {
	BusinessName        string `json:"business_name" validate:"required,max=150"`
	Currency            string `json:"currency" validate:"required,max=10"`
	Timezone            string `json:"timezone" validate:"required"`
	WeeklyReportWeekday int    `json:"weekly_report_weekday" validate:"gte=0,lte=6"`
	WeeklyReportHour    int    `json:"weekly_report_hour" validate:"gte=0,lte=23"`
	ReportRecipients    string `json:"report_recipients"`
}
