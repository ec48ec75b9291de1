// Package audit is algex's GORM-modeled invocation log: one row per Solve
// call, one per Substitute call, each keyed by a public ULID alongside an
// internal uuid primary key. Nothing in the engine itself
// (internal/solver, internal/substitute) depends on this package — it is
// a pure CLI-side observer, wired in exactly where cmd/algex chooses to
// record.
package audit

import (
	"time"

	"gorm.io/datatypes"
)

// SolveRecord is one audit row for a completed (or failed) Solve
// invocation: a request snapshot plus its outcome.
type SolveRecord struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	PublicID string `gorm:"type:varchar(26);uniqueIndex"`

	TemplateJSON datatypes.JSON `gorm:"type:jsonb"`
	DataJSON     datatypes.JSON `gorm:"type:jsonb"`
	StoreDSN     string         `gorm:"type:varchar(255)"`

	Status       string `gorm:"type:varchar(20);not null"`
	ErrorCode    string `gorm:"type:varchar(40)"`
	ErrorMessage string `gorm:"type:text"`

	RowsProduced int `gorm:"default:0"`

	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt time.Time
}

// SubstituteRecord is one audit row for a completed (or failed) Substitute
// invocation.
type SubstituteRecord struct {
	ID       string `gorm:"primaryKey;type:varchar(36)"`
	PublicID string `gorm:"type:varchar(26);uniqueIndex"`

	TemplateJSON    datatypes.JSON `gorm:"type:jsonb"`
	KnownValuesJSON datatypes.JSON `gorm:"type:jsonb"`
	SourceKind      string         `gorm:"type:varchar(20);not null"` // single, sequence, store

	Status       string `gorm:"type:varchar(20);not null"`
	ErrorCode    string `gorm:"type:varchar(40)"`
	ErrorMessage string `gorm:"type:text"`

	DocumentsProduced int `gorm:"default:0"`

	StartedAt  time.Time `gorm:"autoCreateTime"`
	FinishedAt time.Time
}

func (SolveRecord) TableName() string      { return "solve_records" }
func (SubstituteRecord) TableName() string { return "substitute_records" }
