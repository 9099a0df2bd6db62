package persistence

import (
	"time"
)

// SessionModel represents the planner_sessions table
type SessionModel struct {
	ID           string     `gorm:"column:id;primaryKey;not null"`
	Strategy     string     `gorm:"column:strategy;not null"`
	Race         string     `gorm:"column:race;not null"`
	Status       string     `gorm:"column:status;not null"`
	Ticks        int        `gorm:"column:ticks;not null;default:0"`
	AbortedTicks int        `gorm:"column:aborted_ticks;not null;default:0"`
	LastFrame    int        `gorm:"column:last_frame;not null;default:0"`
	LastAbort    string     `gorm:"column:last_abort;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	StoppedAt    *time.Time `gorm:"column:stopped_at"`
}

func (SessionModel) TableName() string {
	return "planner_sessions"
}

// ActionModel represents the dispatched_actions table
type ActionModel struct {
	ID           string     `gorm:"column:id;primaryKey;not null"`
	SessionID    string     `gorm:"column:session_id;not null;index:idx_actions_session_status"`
	BuildType    string     `gorm:"column:build_type;not null"`
	PosX         int        `gorm:"column:pos_x;not null;default:0"`
	PosY         int        `gorm:"column:pos_y;not null;default:0"`
	Priority     int        `gorm:"column:priority;not null"`
	Status       string     `gorm:"column:status;not null;index:idx_actions_session_status"`
	Handle       string     `gorm:"column:handle"`
	PlannedFrame int        `gorm:"column:planned_frame;not null"`
	FailReason   string     `gorm:"column:fail_reason;type:text"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null"`
	StartedAt    *time.Time `gorm:"column:started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
}

func (ActionModel) TableName() string {
	return "dispatched_actions"
}

// TickModel represents the plan_ticks table
type TickModel struct {
	ID            int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID     string    `gorm:"column:session_id;not null;index"`
	Frame         int       `gorm:"column:frame;not null"`
	PlanLength    int       `gorm:"column:plan_length;not null"`
	Dispatched    int       `gorm:"column:dispatched;not null;default:0"`
	Cancelled     int       `gorm:"column:cancelled;not null;default:0"`
	Reprioritized int       `gorm:"column:reprioritized;not null;default:0"`
	MaxGasWorkers int       `gorm:"column:max_gas_workers;not null;default:0"`
	Aborted       bool      `gorm:"column:aborted;not null;default:false"`
	DurationMicro int64     `gorm:"column:duration_us;not null"`
	RecordedAt    time.Time `gorm:"column:recorded_at;not null"`
}

func (TickModel) TableName() string {
	return "plan_ticks"
}

// PlannerLogModel represents the planner_logs table
type PlannerLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID string    `gorm:"column:session_id;not null;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON as text
}

func (PlannerLogModel) TableName() string {
	return "planner_logs"
}
