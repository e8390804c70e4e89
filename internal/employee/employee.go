package employee

import (
	"strings"
	"time"
	"unicode"

	employeeDatamodel "github.com/frahmantamala/employee-directory/internal/core/datamodel/employee"
	"github.com/mozillazg/go-pinyin"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Employee is an employee row joined with its backing user.
type Employee struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Gender    *string   `db:"gender" json:"gender"`
	Birthday  *string   `db:"birthday" json:"birthday"`
	HireDate  *string   `db:"hire_date" json:"hire_date"`
	Position  *string   `db:"position" json:"position"`
	Salary    *float64  `db:"salary" json:"salary"`
	Photo     *string   `db:"photo" json:"photo"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	Username  string    `db:"username" json:"username"`
	Email     *string   `db:"email" json:"email"`
}

func (e *Employee) IsActive() bool {
	return e.Status == StatusActive
}

// DeriveUsername strips all whitespace from name and lowercases it. With
// romanize set, Han characters are first replaced by their toneless pinyin.
func DeriveUsername(name string, romanize bool) string {
	compact := strings.Join(strings.Fields(name), "")
	if romanize {
		compact = romanizeHan(compact)
	}
	return strings.ToLower(compact)
}

func romanizeHan(s string) string {
	var b strings.Builder
	for _, r := range s {
		if !unicode.Is(unicode.Han, r) {
			b.WriteRune(r)
			continue
		}
		syllables := pinyin.LazyConvert(string(r), nil)
		if len(syllables) == 0 {
			b.WriteRune(r)
			continue
		}
		b.WriteString(strings.Join(syllables, ""))
	}
	return b.String()
}

// ToDataModel builds the row inserted for a new employee. The user id is
// filled in once the backing user exists.
func (dto *CreateEmployeeDTO) ToDataModel() *employeeDatamodel.Employee {
	return &employeeDatamodel.Employee{
		Name:     strings.TrimSpace(dto.Name),
		Gender:   dto.Gender,
		Birthday: dto.Birthday,
		HireDate: dto.HireDate,
		Position: dto.Position,
		Salary:   dto.Salary,
		Status:   StatusActive,
	}
}
