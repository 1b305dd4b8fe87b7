package database

import (
	"context"
	"fmt"

	"maitred/internal/models"
)

// SetNotificationPreference records a staff member's opt-in or opt-out for
// one event type.
func (db *DB) SetNotificationPreference(ctx context.Context, staffID int64, eventType string, enabled bool) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO notification_preferences (staff_id, event_type, enabled)
		 VALUES (?, ?, ?)
		 ON CONFLICT(staff_id, event_type) DO UPDATE SET enabled = excluded.enabled`,
		staffID, eventType, enabled)
	if err != nil {
		return fmt.Errorf("set notification preference: %w", err)
	}
	return nil
}

// GetNotificationPreferences returns a staff member's stored preferences.
// Event types without a row fall back to the default in WantsNotification.
func (db *DB) GetNotificationPreferences(ctx context.Context, staffID int64) ([]models.NotificationPreference, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, staff_id, event_type, enabled FROM notification_preferences WHERE staff_id = ?`,
		staffID)
	if err != nil {
		return nil, fmt.Errorf("query notification preferences: %w", err)
	}
	defer rows.Close()

	var prefs []models.NotificationPreference
	for rows.Next() {
		var p models.NotificationPreference
		if err := rows.Scan(&p.ID, &p.StaffID, &p.EventType, &p.Enabled); err != nil {
			return nil, fmt.Errorf("scan notification preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// WantsNotification resolves one staff member's preference for one event
// type. Missing rows default to enabled.
func (db *DB) WantsNotification(ctx context.Context, staffID int64, eventType string) (bool, error) {
	prefs, err := db.GetNotificationPreferences(ctx, staffID)
	if err != nil {
		return false, err
	}
	for _, p := range prefs {
		if p.EventType == eventType {
			return p.Enabled, nil
		}
	}
	return true, nil
}
