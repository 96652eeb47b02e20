package models

import (
	"time"

	"gorm.io/gorm"
)

// Role identifies which side of the classroom a user is on. Identity is the
// (name, role) pair: the same name may exist once as a teacher and once as a
// student.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
)

// PollStatus is the lifecycle state of a poll. Polls are created ACTIVE and
// end COMPLETED; there is no way back.
type PollStatus string

const (
	PollStatusActive    PollStatus = "ACTIVE"
	PollStatusCompleted PollStatus = "COMPLETED"
)

// User represents a named participant. There is no login; the first request
// carrying a new (name, role) pair creates the record.
type User struct {
	gorm.Model
	Name string `gorm:"size:64;not null;uniqueIndex:idx_users_name_role" json:"name"`
	Role Role   `gorm:"size:16;not null;uniqueIndex:idx_users_name_role" json:"role"`
}

// Poll represents one question with its ordered options.
type Poll struct {
	gorm.Model
	Question    string       `gorm:"not null" json:"question"`
	Description string       `gorm:"type:text" json:"description"`
	Status      PollStatus   `gorm:"size:16;not null;default:ACTIVE;index" json:"status"`
	CreatedByID uint         `gorm:"index" json:"created_by_id"`
	CreatedBy   *User        `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	EndsAt      *time.Time   `json:"ends_at,omitempty"`
	Options     []PollOption `gorm:"foreignKey:PollID" json:"options"`
}

// PollOption is one selectable answer within a poll. Options are immutable
// once created and keep a stable display order, unique per poll.
type PollOption struct {
	gorm.Model
	PollID uint   `gorm:"not null;index;uniqueIndex:idx_options_poll_order" json:"poll_id"`
	Text   string `gorm:"not null" json:"text"`
	Order  int    `gorm:"column:display_order;not null;default:0;uniqueIndex:idx_options_poll_order" json:"order"`
}

// Vote is the immutable fact that one student chose one option in one poll.
// The unique index on (poll_id, user_id) is what enforces one vote per
// student per poll: concurrent duplicates are rejected by the store, not by a
// prior read.
type Vote struct {
	ID          uint        `gorm:"primarykey" json:"id"`
	PollID      uint        `gorm:"not null;index;uniqueIndex:idx_votes_poll_user" json:"poll_id"`
	OptionID    uint        `gorm:"not null;index" json:"option_id"`
	UserID      uint        `gorm:"not null;uniqueIndex:idx_votes_poll_user" json:"user_id"`
	SubmittedAt time.Time   `gorm:"autoCreateTime" json:"submitted_at"`
	User        *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Option      *PollOption `gorm:"foreignKey:OptionID" json:"option,omitempty"`
}

// PollSummary is the poll header attached to live results.
type PollSummary struct {
	ID         uint       `json:"id"`
	Question   string     `json:"question"`
	Status     PollStatus `json:"status"`
	TotalVotes int64      `json:"total_votes"`
}

// OptionResult is the tally for a single option. Percentage is rounded
// half-up and always 0 when the poll has no votes.
type OptionResult struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	Votes      int64  `json:"votes"`
	Percentage int    `json:"percentage"`
}

// LiveResults is the on-demand tally for a poll, options in stored order.
type LiveResults struct {
	Poll    PollSummary    `json:"poll"`
	Results []OptionResult `json:"results"`
}
