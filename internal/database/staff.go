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

const staffColumns = `id, restaurant_id, profile_id, chat_id, role, permissions, is_active, created_at, updated_at`

func scanStaff(scanner interface{ Scan(...any) error }) (*models.StaffMember, error) {
	m := &models.StaffMember{}
	var perms string
	err := scanner.Scan(&m.ID, &m.RestaurantID, &m.ProfileID, &m.ChatID, &m.Role,
		&perms, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if perms != "" {
		m.Permissions = strings.Split(perms, ",")
	}
	return m, nil
}

func (db *DB) CreateStaff(ctx context.Context, member *models.StaffMember) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO restaurant_staff (restaurant_id, profile_id, chat_id, role, permissions, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		member.RestaurantID, member.ProfileID, member.ChatID, member.Role,
		strings.Join(member.Permissions, ","), member.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("create staff member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	member.ID = id
	member.CreatedAt = now
	member.UpdatedAt = now
	return nil
}

func (db *DB) GetStaff(ctx context.Context, id int64) (*models.StaffMember, error) {
	row := db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM restaurant_staff WHERE id = ?`, id)
	member, err := scanStaff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff member: %w", err)
	}
	return member, nil
}

// GetStaffByProfile resolves a profile's membership at one restaurant.
func (db *DB) GetStaffByProfile(ctx context.Context, restaurantID, profileID int64) (*models.StaffMember, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+staffColumns+` FROM restaurant_staff WHERE restaurant_id = ? AND profile_id = ?`,
		restaurantID, profileID)
	member, err := scanStaff(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get staff by profile: %w", err)
	}
	return member, nil
}

func (db *DB) GetStaffByRestaurant(ctx context.Context, restaurantID int64) ([]*models.StaffMember, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM restaurant_staff WHERE restaurant_id = ? ORDER BY role, id`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	var members []*models.StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetActiveStaffWithChat returns active members that can receive Telegram
// alerts for a restaurant.
func (db *DB) GetActiveStaffWithChat(ctx context.Context, restaurantID int64) ([]*models.StaffMember, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+staffColumns+` FROM restaurant_staff
		 WHERE restaurant_id = ? AND is_active = 1 AND chat_id != 0`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("query notifiable staff: %w", err)
	}
	defer rows.Close()

	var members []*models.StaffMember
	for rows.Next() {
		m, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (db *DB) UpdateStaff(ctx context.Context, member *models.StaffMember) error {
	result, err := db.ExecContext(ctx,
		`UPDATE restaurant_staff SET chat_id = ?, role = ?, permissions = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		member.ChatID, member.Role, strings.Join(member.Permissions, ","),
		member.IsActive, time.Now().UTC(), member.ID)
	if err != nil {
		return fmt.Errorf("update staff member: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateStaff revokes access while keeping the row for history.
func (db *DB) DeactivateStaff(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE restaurant_staff SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate staff member: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
