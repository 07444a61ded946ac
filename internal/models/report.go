package models

import "time"

// Report reasons
const (
	ReportSpam          = "spam"
	ReportInappropriate = "inappropriate"
	ReportQuote         = "quote"
)

// Report is a user's report on a post. One per (reporter, post).
type Report struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	ReporterID uint      `json:"reporter_id" gorm:"not null;index;uniqueIndex:idx_report_reporter_post,priority:1"`
	PostID     uint      `json:"post_id" gorm:"not null;index;uniqueIndex:idx_report_reporter_post,priority:2"`
	Reason     string    `json:"reason" gorm:"size:20;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateReportRequest struct {
	Reason string `json:"reason" validate:"required,oneof=spam inappropriate quote"`
}
