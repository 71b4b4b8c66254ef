package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"roomres/infras/otel"
	"roomres/infras/postgres"
	"roomres/internal/domains/reservation/model"
	"roomres/shared/constant"
	gDto "roomres/shared/dto"
	"roomres/shared/logger"
	"roomres/shared/timezone"
	gRepo "roomres/shared/repository"
)

type Reservation interface {
	CreateBooked(ctx context.Context, res model.Reservation) (model.Reservation, error)
	ExistsOverlapping(ctx context.Context, roomNumber int, startDate, endDate string) (bool, error)
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Reservation, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Reservation, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	UpdateStatus(ctx context.Context, id int64, version int64, next model.Status) error
	CancelPendingBankTransfers(ctx context.Context, startFrom string) (int64, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Reservation]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Reservation {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Reservation](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

const overlapQuery = `SELECT EXISTS(
	SELECT 1 FROM reservations
	WHERE room_number = $1
	  AND status <> 'CANCELLED'
	  AND start_date < $3
	  AND end_date > $2
)`

// ExistsOverlapping reports whether any non-cancelled reservation occupies the
// room for a range intersecting [startDate, endDate). Back-to-back stays where
// one ends the day the other starts do not overlap.
func (r *repositoryImpl) ExistsOverlapping(ctx context.Context, roomNumber int, startDate, endDate string) (bool, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.ExistsOverlapping")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, overlapQuery)

	var exists bool

	err := r.db.Read.GetContext(ctx, &exists, overlapQuery, roomNumber, startDate, endDate)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return false, fmt.Errorf("failed to check overlapping reservation: %w", err)
	}

	return exists, nil
}

const insertQuery = `INSERT INTO reservations (
	room_number, customer_name, start_date, end_date, room_segment,
	payment_mode, payment_reference, total_amount, status, version,
	created_at, modified_at
) VALUES (
	:room_number, :customer_name, :start_date, :end_date, :room_segment,
	:payment_mode, :payment_reference, :total_amount, :status, :version,
	:created_at, :modified_at
) RETURNING id`

// CreateBooked re-checks room availability and inserts the reservation in one
// serializable transaction, so two concurrent requests for the same room and
// overlapping dates cannot both succeed. The reservations_no_overlap exclusion
// constraint backstops the check; both paths surface as ErrRoomOccupied.
func (r *repositoryImpl) CreateBooked(ctx context.Context, res model.Reservation) (model.Reservation, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.CreateBooked")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, insertQuery)

	tx, err := r.db.Write.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var occupied bool

	err = tx.GetContext(ctx, &occupied, overlapQuery,
		res.RoomNumber,
		res.StartDate.Format(constant.DateOnlyFormat),
		res.EndDate.Format(constant.DateOnlyFormat),
	)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to check overlapping reservation: %w", err)
	}

	if occupied {
		return res, ErrRoomOccupied
	}

	stmt, err := tx.PrepareNamedContext(ctx, insertQuery)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to prepare insert reservation: %w", err)
	}
	defer stmt.Close()

	err = stmt.GetContext(ctx, &res.ID, res)
	if err != nil {
		if isBookingConflict(err) {
			return res, ErrRoomOccupied
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to insert reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isBookingConflict(err) {
			return res, ErrRoomOccupied
		}

		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return res, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return res, nil
}

const updateStatusQuery = `UPDATE reservations
SET status = :status, version = version + 1, modified_at = :modified_at
WHERE id = :id AND version = :version AND status = 'PENDING_PAYMENT'`

// UpdateStatus moves a pending reservation to a terminal status, guarded by
// the version read alongside it. Zero rows affected means the row changed or
// already left PENDING_PAYMENT; the caller gets ErrVersionConflict and must
// re-read before retrying.
func (r *repositoryImpl) UpdateStatus(ctx context.Context, id int64, version int64, next model.Status) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.UpdateStatus")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, updateStatusQuery)

	result, err := r.db.Write.NamedExecContext(ctx, updateStatusQuery, map[string]any{
		"id":          id,
		"version":     version,
		"status":      next,
		"modified_at": timezone.Now(),
	})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected == 0 {
		return ErrVersionConflict
	}

	return nil
}

const cancelPendingQuery = `UPDATE reservations
SET status = 'CANCELLED', version = version + 1, modified_at = :modified_at
WHERE payment_mode = 'BANK_TRANSFER'
  AND status = 'PENDING_PAYMENT'
  AND start_date >= :start_from`

// CancelPendingBankTransfers cancels every unpaid bank-transfer reservation
// starting on or after startFrom in a single conditional update, so sweeps
// running concurrently with settlements never cancel a paid reservation.
func (r *repositoryImpl) CancelPendingBankTransfers(ctx context.Context, startFrom string) (int64, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".reservation.CancelPendingBankTransfers")
	defer scope.End()

	scope.SetAttribute(constant.OtelQueryAttributeKey, cancelPendingQuery)

	result, err := r.db.Write.NamedExecContext(ctx, cancelPendingQuery, map[string]any{
		"modified_at": timezone.Now(),
		"start_from":  startFrom,
	})
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to cancel pending bank transfer reservations: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected, nil
}

func isBookingConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeExclusionViolation ||
			string(pqErr.Code) == constant.PqErrorCodeSerializationFail
	}

	return false
}
