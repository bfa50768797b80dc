package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/ports"
	"github.com/Caiolinooo/PontoFlow-sub001/modules/access/domain/types"
	"github.com/Caiolinooo/PontoFlow-sub001/pkg/uuidv7"
)

// ErrAuditWriteFailed is reported through the trail's error reporter when
// the sink is unavailable. It never blocks the underlying action.
var ErrAuditWriteFailed = errors.New("access: audit write failed")

type AuditTrail struct {
	sink   ports.AuditLogger
	report func(error)
}

func NewAuditTrail(sink ports.AuditLogger, report func(error)) AuditTrail {
	if report == nil {
		report = func(err error) { log.Printf("%v", err) }
	}
	return AuditTrail{sink: sink, report: report}
}

// Record appends the record best-effort, filling in id and timestamp when
// the caller left them empty. A sink failure goes to the error reporter
// and is otherwise swallowed.
func (t AuditTrail) Record(ctx context.Context, rec types.AuditRecord) {
	if t.sink == nil {
		return
	}
	if rec.ID == "" {
		id, err := uuidv7.NewString()
		if err != nil {
			t.report(fmt.Errorf("%w: %v", ErrAuditWriteFailed, err))
			return
		}
		rec.ID = id
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}
	if err := t.sink.Append(ctx, rec); err != nil {
		t.report(fmt.Errorf("%w: %v", ErrAuditWriteFailed, err))
	}
}
