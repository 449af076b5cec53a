package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres error classes this schema can raise: the unique indexes on
// idempotency_key, payment_intent_id, and event_id, the stock and quantity
// check constraints, and the cart/order line foreign keys.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// PGDump carries the postgres fields worth logging for those violations.
type PGDump struct {
	Code       string `json:"code,omitempty"`
	Kind       string `json:"kind,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
	Message    string `json:"message,omitempty"`
}

// ErrorDump is the structured form logged alongside error responses.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	PG         *PGDump  `json:"pg,omitempty"`
}

func pgKind(code string) string {
	switch code {
	case pgUniqueViolation:
		return "unique_violation"
	case pgForeignKeyViolation:
		return "foreign_key_violation"
	case pgCheckViolation:
		return "check_violation"
	default:
		return ""
	}
}

// Dump flattens an error chain for logging, surfacing postgres constraint
// details when a driver error sits in the chain.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PG = &PGDump{
			Code:       pgxErr.Code,
			Kind:       pgKind(pgxErr.Code),
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
			Message:    pgxErr.Message,
		}
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PG = &PGDump{
			Code:       string(pqErr.Code),
			Kind:       pgKind(string(pqErr.Code)),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
			Message:    pqErr.Message,
		}
		return d
	}

	return d
}
