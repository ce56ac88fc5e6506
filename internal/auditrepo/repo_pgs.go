// Package auditrepo manages repository layer of the append-only audit log.
//
// Only an insert exists here; updating or deleting audit entries is not an
// operation this system exposes.
package auditrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
)

// RepoPGS facilitates audit log repository layer logic.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns audit log RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

const appendQuery = `
INSERT INTO
    audit_logs (id, action, details)
VALUES
    ($1, $2, $3)
RETURNING id, action, details, created_at
`

// Append writes one audit entry. When called on a transaction handle the
// entry commits or rolls back together with the action it describes.
func (r *RepoPGS) Append(ctx context.Context, action, details string) (domain.AuditLogEntry, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, appendQuery, uuid.NewString(), action, details)

	var e domain.AuditLogEntry

	err := row.Scan(
		&e.ID,
		&e.Action,
		&e.Details,
		&e.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Send()
		return e, err
	}

	return e, nil
}
