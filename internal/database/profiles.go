package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"maitred/internal/models"
)

const profileColumns = `id, name, phone, email, notes, visit_count, created_at, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*models.Profile, error) {
	p := &models.Profile{}
	err := scanner.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.Notes,
		&p.VisitCount, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (db *DB) CreateProfile(ctx context.Context, profile *models.Profile) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO profiles (name, phone, email, notes, visit_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.Name, profile.Phone, profile.Email, profile.Notes, profile.VisitCount, now, now)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	profile.ID = id
	profile.CreatedAt = now
	profile.UpdatedAt = now
	return nil
}

func (db *DB) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// GetProfileByPhone matches on the exact stored phone string.
func (db *DB) GetProfileByPhone(ctx context.Context, phone string) (*models.Profile, error) {
	row := db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE phone = ?`, phone)
	profile, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by phone: %w", err)
	}
	return profile, nil
}

func (db *DB) SearchProfiles(ctx context.Context, term string, limit int) ([]*models.Profile, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + term + "%"
	rows, err := db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE name LIKE ? OR phone LIKE ? OR email LIKE ?
		 ORDER BY visit_count DESC, name LIMIT ?`,
		pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (db *DB) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	result, err := db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, phone = ?, email = ?, notes = ?, updated_at = ? WHERE id = ?`,
		profile.Name, profile.Phone, profile.Email, profile.Notes, time.Now().UTC(), profile.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertVIPGrant creates or refreshes a profile's VIP grant at a restaurant.
func (db *DB) UpsertVIPGrant(ctx context.Context, grant *models.VIPGrant) error {
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx,
		`INSERT INTO vip_grants (profile_id, restaurant_id, extra_window_days, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(profile_id, restaurant_id) DO UPDATE SET
		   extra_window_days = excluded.extra_window_days,
		   expires_at = excluded.expires_at,
		   updated_at = excluded.updated_at`,
		grant.ProfileID, grant.RestaurantID, grant.ExtraWindowDays,
		grant.ExpiresAt.UTC().Format(timeLayout), now, now)
	if err != nil {
		return fmt.Errorf("upsert vip grant: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		grant.ID = id
	}
	return nil
}

// GetVIPGrant returns the grant for a profile at a restaurant, expired or not.
func (db *DB) GetVIPGrant(ctx context.Context, profileID, restaurantID int64) (*models.VIPGrant, error) {
	g := &models.VIPGrant{}
	err := db.QueryRowContext(ctx,
		`SELECT id, profile_id, restaurant_id, extra_window_days, expires_at, created_at, updated_at
		 FROM vip_grants WHERE profile_id = ? AND restaurant_id = ?`,
		profileID, restaurantID).Scan(
		&g.ID, &g.ProfileID, &g.RestaurantID, &g.ExtraWindowDays, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vip grant: %w", err)
	}
	g.ExpiresAt = g.ExpiresAt.UTC()
	return g, nil
}

// RevokeVIPGrant deletes the grant outright.
func (db *DB) RevokeVIPGrant(ctx context.Context, profileID, restaurantID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM vip_grants WHERE profile_id = ? AND restaurant_id = ?`, profileID, restaurantID)
	if err != nil {
		return fmt.Errorf("revoke vip grant: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
