package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"maitred/internal/models"
)

// terminalStatusArgs builds the NOT IN (...) placeholders and args for the
// statuses that no longer hold tables.
func terminalStatusArgs() (string, []any) {
	terminal := []string{
		models.StatusCompleted, models.StatusNoShow,
		models.StatusCancelledByUser, models.StatusCancelledByRestaurant,
		models.StatusDeclinedByRestaurant, models.StatusAutoDeclined,
		models.StatusAcceptanceFailed,
	}
	args := make([]any, len(terminal))
	for i, s := range terminal {
		args[i] = s
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(terminal)), ", "), args
}

// CreateBookingWithTables inserts the booking, its table links and the initial
// status-history row in one transaction. The availability check runs inside
// the same transaction, so a conflicting concurrent create cannot slip in and
// a failed table link can never leave an orphaned booking row.
func (db *DB) CreateBookingWithTables(ctx context.Context, booking *models.Booking, tableIDs []int64) error {
	if len(tableIDs) == 0 {
		return ErrNoTables
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflict, err := findTableConflict(ctx, tx, booking.RestaurantID, tableIDs, booking.StartAt, booking.EndAt(), 0)
	if err != nil {
		return err
	}
	if conflict != 0 {
		return ErrNotAvailable
	}

	now := time.Now().UTC()
	queryInsert := `INSERT INTO bookings (
				ref, restaurant_id, profile_id, guest_name, guest_phone,
				start_at, party_size, turn_time, status, offer_code, notes,
				version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.Ref,
		booking.RestaurantID,
		nullableID(booking.ProfileID),
		booking.GuestName,
		booking.GuestPhone,
		booking.StartAt.UTC().Format(timeLayout),
		booking.PartySize,
		booking.TurnTimeMinutes,
		booking.Status,
		booking.OfferCode,
		booking.Notes,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}

	for _, tableID := range tableIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_tables (booking_id, table_id) VALUES (?, ?)`, id, tableID); err != nil {
			return fmt.Errorf("link table %d: %w", tableID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO booking_status_history (booking_id, from_status, to_status, changed_by, created_at)
		 VALUES (?, '', ?, ?, ?)`, id, booking.Status, "system", now); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	booking.ID = id
	booking.TableIDs = append([]int64(nil), tableIDs...)
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// findTableConflict returns the id of a blocking booking that holds any of the
// requested tables with an overlapping [start, end) interval, or 0. Candidate
// rows are narrowed by SQL to the surrounding day and checked in Go, since the
// occupancy end depends on each row's own turn time.
func findTableConflict(ctx context.Context, tx *sql.Tx, restaurantID int64, tableIDs []int64, start, end time.Time, excludeBookingID int64) (int64, error) {
	if len(tableIDs) == 0 {
		return 0, nil
	}

	tablePlaceholders := strings.TrimSuffix(strings.Repeat("?, ", len(tableIDs)), ", ")
	statusPlaceholders, statusArgs := terminalStatusArgs()

	query := fmt.Sprintf(`SELECT DISTINCT b.id, b.start_at, b.turn_time
		FROM bookings b
		JOIN booking_tables bt ON bt.booking_id = b.id
		WHERE b.restaurant_id = ?
		  AND bt.table_id IN (%s)
		  AND b.status NOT IN (%s)
		  AND b.start_at < ?
		  AND b.start_at > ?
		  AND b.id != ?`, tablePlaceholders, statusPlaceholders)

	args := []any{restaurantID}
	for _, id := range tableIDs {
		args = append(args, id)
	}
	args = append(args, statusArgs...)
	// A candidate can only overlap if it starts before our end and not more
	// than a day before our start (turn times are far below 24h).
	args = append(args,
		end.UTC().Format(timeLayout),
		start.UTC().Add(-24*time.Hour).Format(timeLayout),
		excludeBookingID,
	)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var otherStart time.Time
		var turnTime int
		if err := rows.Scan(&id, &otherStart, &turnTime); err != nil {
			return 0, fmt.Errorf("scan conflict: %w", err)
		}
		otherEnd := otherStart.Add(time.Duration(turnTime) * time.Minute)
		if otherStart.Before(end) && otherEnd.After(start) {
			return id, nil
		}
	}
	return 0, rows.Err()
}

const bookingColumns = `id, ref, restaurant_id, COALESCE(profile_id, 0), guest_name, guest_phone,
	start_at, party_size, turn_time, status, offer_code, notes, version, created_at, updated_at`

// scanBooking reads one bookings row. DATETIME columns come back from the
// driver as time.Time, never as the stored text.
func scanBooking(scanner interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	err := scanner.Scan(
		&b.ID, &b.Ref, &b.RestaurantID, &b.ProfileID, &b.GuestName, &b.GuestPhone,
		&b.StartAt, &b.PartySize, &b.TurnTimeMinutes, &b.Status, &b.OfferCode, &b.Notes,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.StartAt = b.StartAt.UTC()
	return b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if err := db.loadTableIDs(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) GetBookingByRef(ctx context.Context, ref string) (*models.Booking, error) {
	row := db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE ref = ?`, ref)
	booking, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by ref: %w", err)
	}
	if err := db.loadTableIDs(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (db *DB) loadTableIDs(ctx context.Context, booking *models.Booking) error {
	rows, err := db.QueryContext(ctx,
		`SELECT table_id FROM booking_tables WHERE booking_id = ? ORDER BY table_id`, booking.ID)
	if err != nil {
		return fmt.Errorf("load booking tables: %w", err)
	}
	defer rows.Close()

	booking.TableIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan booking table: %w", err)
		}
		booking.TableIDs = append(booking.TableIDs, id)
	}
	return rows.Err()
}

// UpdateBookingStatusWithVersion moves the booking to a new status, guarded by
// the dining state machine and the optimistic version. The current status is
// read, validated and updated inside one transaction; the history row lands in
// the same transaction.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, toStatus, changedBy string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var current string
	var profileID sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT status, profile_id FROM bookings WHERE id = ?`, id).Scan(&current, &profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read booking status: %w", err)
	}

	if !models.CanTransition(current, toStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, toStatus)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		toStatus, now, id, fromVersion)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO booking_status_history (booking_id, from_status, to_status, changed_by, created_at)
		 VALUES (?, ?, ?, ?, ?)`, id, current, toStatus, changedBy, now); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}

	if toStatus == models.StatusCompleted && profileID.Valid {
		if _, err := tx.ExecContext(ctx,
			`UPDATE profiles SET visit_count = visit_count + 1, updated_at = ? WHERE id = ?`,
			now, profileID.Int64); err != nil {
			return fmt.Errorf("bump visit count: %w", err)
		}
	}

	return tx.Commit()
}

// ReassignTablesWithVersion replaces the booking's table set after re-checking
// availability, all inside one transaction.
func (db *DB) ReassignTablesWithVersion(ctx context.Context, id, fromVersion int64, tableIDs []int64) error {
	if len(tableIDs) == 0 {
		return ErrNoTables
	}

	booking, err := db.GetBooking(ctx, id)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	conflict, err := findTableConflict(ctx, tx, booking.RestaurantID, tableIDs, booking.StartAt, booking.EndAt(), id)
	if err != nil {
		return err
	}
	if conflict != 0 {
		return ErrNotAvailable
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE bookings SET version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		time.Now().UTC(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("bump booking version: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_tables WHERE booking_id = ?`, id); err != nil {
		return fmt.Errorf("clear booking tables: %w", err)
	}
	for _, tableID := range tableIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO booking_tables (booking_id, table_id) VALUES (?, ?)`, id, tableID); err != nil {
			return fmt.Errorf("link table %d: %w", tableID, err)
		}
	}

	return tx.Commit()
}

// GetBookingsByDateRange returns bookings starting within [start, end),
// ordered by start time, with table links populated.
func (db *DB) GetBookingsByDateRange(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE restaurant_id = ? AND start_at >= ? AND start_at < ?
	          ORDER BY start_at, id`
	rows, err := db.QueryContext(ctx, query, restaurantID,
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("query bookings by range: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	byID := make(map[int64]*models.Booking)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
		byID[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(bookings)), ", ")
	args := make([]any, 0, len(bookings))
	for _, b := range bookings {
		args = append(args, b.ID)
	}
	linkRows, err := db.QueryContext(ctx,
		fmt.Sprintf(`SELECT booking_id, table_id FROM booking_tables WHERE booking_id IN (%s) ORDER BY table_id`, placeholders),
		args...)
	if err != nil {
		return nil, fmt.Errorf("query booking tables: %w", err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var bookingID, tableID int64
		if err := linkRows.Scan(&bookingID, &tableID); err != nil {
			return nil, fmt.Errorf("scan booking table: %w", err)
		}
		if b, ok := byID[bookingID]; ok {
			b.TableIDs = append(b.TableIDs, tableID)
		}
	}
	return bookings, linkRows.Err()
}

// GetBlockingBookings returns non-terminal bookings whose occupancy interval
// may overlap [start, end). Candidates reach back a full day before the
// window to catch holders that start earlier and run into it; turn times
// stay far below 24h.
func (db *DB) GetBlockingBookings(ctx context.Context, restaurantID int64, start, end time.Time) ([]*models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, restaurantID, start.Add(-24*time.Hour), end)
	if err != nil {
		return nil, err
	}

	var blocking []*models.Booking
	for _, b := range bookings {
		if models.IsBlocking(b.Status) && b.EndAt().After(start) {
			blocking = append(blocking, b)
		}
	}
	return blocking, nil
}

// SearchBookings matches guest name, phone or booking ref.
func (db *DB) SearchBookings(ctx context.Context, restaurantID int64, term string, limit int) ([]*models.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE restaurant_id = ? AND (guest_name LIKE ? OR guest_phone LIKE ? OR ref LIKE ?)
	          ORDER BY start_at DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, restaurantID, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetDailyBookings groups a range's bookings by their start date.
func (db *DB) GetDailyBookings(ctx context.Context, restaurantID int64, start, end time.Time) (map[string][]*models.Booking, error) {
	bookings, err := db.GetBookingsByDateRange(ctx, restaurantID, start, end)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Booking)
	for _, b := range bookings {
		key := b.StartAt.Format("2006-01-02")
		daily[key] = append(daily[key], b)
	}
	return daily, nil
}

// GetStatusHistory returns a booking's transitions, oldest first.
func (db *DB) GetStatusHistory(ctx context.Context, bookingID int64) ([]models.StatusChange, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, booking_id, from_status, to_status, changed_by, created_at
		 FROM booking_status_history WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var history []models.StatusChange
	for rows.Next() {
		var c models.StatusChange
		if err := rows.Scan(&c.ID, &c.BookingID, &c.FromStatus, &c.ToStatus, &c.ChangedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		history = append(history, c)
	}
	return history, rows.Err()
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
