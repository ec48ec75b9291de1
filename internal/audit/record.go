package audit

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// newID mints the internal primary key (a uuid) and the public-facing
// identifier (a monotonic ULID).
func newID() (id, publicID string) {
	return uuid.NewString(), ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// RecordSolve writes one SolveRecord summarizing a completed (solveErr ==
// nil) or failed Solve invocation. db may be nil, in which case RecordSolve
// is a no-op — auditing is opt-in via --audit (internal/config.Config.AuditDSN).
func RecordSolve(db *gorm.DB, tmpl, data any, storeDSN string, started time.Time, rowsProduced int, solveErr error) error {
	if db == nil {
		return nil
	}
	id, publicID := newID()
	rec := &SolveRecord{
		ID:           id,
		PublicID:     publicID,
		TemplateJSON: mustJSON(tmpl),
		DataJSON:     mustJSON(data),
		StoreDSN:     storeDSN,
		Status:       statusOf(solveErr),
		RowsProduced: rowsProduced,
		StartedAt:    started,
		FinishedAt:   time.Now(),
	}
	if solveErr != nil {
		rec.ErrorMessage = solveErr.Error()
		rec.ErrorCode = errorCode(solveErr)
	}
	return db.Create(rec).Error
}

// RecordSubstitute writes one SubstituteRecord summarizing a completed or
// failed Substitute invocation.
func RecordSubstitute(db *gorm.DB, tmpl any, known map[string]any, sourceKind string, started time.Time, documentsProduced int, subErr error) error {
	if db == nil {
		return nil
	}
	id, publicID := newID()
	rec := &SubstituteRecord{
		ID:                id,
		PublicID:          publicID,
		TemplateJSON:      mustJSON(tmpl),
		KnownValuesJSON:   mustJSON(known),
		SourceKind:        sourceKind,
		Status:            statusOf(subErr),
		DocumentsProduced: documentsProduced,
		StartedAt:         started,
		FinishedAt:        time.Now(),
	}
	if subErr != nil {
		rec.ErrorMessage = subErr.Error()
		rec.ErrorCode = errorCode(subErr)
	}
	return db.Create(rec).Error
}

func statusOf(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

// errorCode is the machine code for the audit row. It does not import
// internal/model and does not inspect the error: every non-nil error is
// recorded as ERR_CLI, whatever its kind. The audit log is a diagnostic
// aid, not the source of truth for error handling.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	return "ERR_CLI"
}

func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
