package user

import (
	"context"
	"time"

	"github.com/frahmantamala/employee-directory/internal"
)

// Profile is what a signed-in user sees about themselves. Role is empty when
// no role has been granted yet; EmployeeID is nil for accounts that were only
// registered.
type Profile struct {
	ID         int64         `json:"id"`
	Username   string        `json:"username"`
	Email      *string       `json:"email"`
	Phone      *string       `json:"phone"`
	Role       internal.Role `json:"role"`
	EmployeeID *int64        `json:"employeeId"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ProfileRow is the joined user/employee row read by the repository.
type ProfileRow struct {
	ID         int64     `db:"id"`
	Username   string    `db:"username"`
	Email      *string   `db:"email"`
	Phone      *string   `db:"phone"`
	EmployeeID *int64    `db:"employee_id"`
	CreatedAt  time.Time `db:"created_at"`
}

type RepositoryAPI interface {
	// GetProfile returns nil, nil for an unknown user.
	GetProfile(ctx context.Context, userID int64) (*ProfileRow, error)
}

type RoleResolver interface {
	ResolveRole(ctx context.Context, userID int64) (internal.Role, error)
}

func FromRow(row *ProfileRow, role internal.Role) *Profile {
	return &Profile{
		ID:         row.ID,
		Username:   row.Username,
		Email:      row.Email,
		Phone:      row.Phone,
		Role:       role,
		EmployeeID: row.EmployeeID,
		CreatedAt:  row.CreatedAt,
	}
}
