package models

import "time"

// Staff roles.
const (
	RoleManager = "manager"
	RoleHost    = "host"
	RoleServer  = "server"
)

// Staff permissions checked by the service layer on mutating operations.
const (
	PermManageBookings = "manage:bookings"
	PermManageTables   = "manage:tables"
	PermManageMenu     = "manage:menu"
	PermManageStaff    = "manage:staff"
	PermManageVIP      = "manage:vip"
)

// StaffMember links a guest profile to a restaurant with a role and an
// explicit permission list. An empty permission list means the role default.
type StaffMember struct {
	ID           int64    `json:"id"`
	RestaurantID int64    `json:"restaurant_id"`
	ProfileID    int64    `json:"profile_id"`
	// ChatID is the Telegram chat used for staff alerts, 0 when unset.
	ChatID      int64     `json:"chat_id,omitempty"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var rolePermissions = map[string][]string{
	RoleManager: {PermManageBookings, PermManageTables, PermManageMenu, PermManageStaff, PermManageVIP},
	RoleHost:    {PermManageBookings, PermManageTables},
	RoleServer:  {PermManageBookings},
}

// HasPermission reports whether the member holds the permission, either
// explicitly or through their role default.
func (m *StaffMember) HasPermission(perm string) bool {
	if !m.IsActive {
		return false
	}
	perms := m.Permissions
	if len(perms) == 0 {
		perms = rolePermissions[m.Role]
	}
	for _, p := range perms {
		if p == perm {
			return true
		}
	}
	return false
}
