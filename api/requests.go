package api

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	auth "github.com/goliatone/go-ems-auth"
)

// DateLayout is the wire format of birth dates
const DateLayout = "2006-01-02"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type CreateUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	EmployeeID int64  `json:"employeeId"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Role, validation.Required, validation.By(validRole)),
		validation.Field(&r.EmployeeID, validation.Required, validation.Min(int64(1))),
	)
}

type ForgotPasswordRequest struct {
	SecurityKey string `json:"securityKey"`
	NewPassword string `json:"newPassword"`
}

func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SecurityKey, validation.Required),
		validation.Field(&r.NewPassword, validation.Required),
	)
}

// EmployeeRequest is the body of employee create and update calls. Role
// only applies on create.
type EmployeeRequest struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Designation string  `json:"designation"`
	Salary      float64 `json:"salary"`
	BirthDate   string  `json:"birthDate"`
	Role        string  `json:"role,omitempty"`
}

func (r EmployeeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Designation, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Salary, validation.Min(0.0)),
		validation.Field(&r.BirthDate, validation.Required, validation.Date(DateLayout)),
		validation.Field(&r.Role, validation.By(validRole)),
	)
}

// Input converts the request, which must have passed Validate
func (r EmployeeRequest) Input() (auth.EmployeeInput, error) {
	birth, err := time.Parse(DateLayout, r.BirthDate)
	if err != nil {
		return auth.EmployeeInput{}, err
	}
	return auth.EmployeeInput{
		Name:        r.Name,
		Email:       r.Email,
		Designation: r.Designation,
		Salary:      r.Salary,
		BirthDate:   birth,
		Role:        r.Role,
	}, nil
}

// EmployeeResponse is the wire form of an employee
type EmployeeResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Designation string  `json:"designation"`
	Salary      float64 `json:"salary"`
	BirthDate   string  `json:"birthDate"`
}

func employeeResponse(e *auth.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:          e.ID,
		Name:        e.Name,
		Email:       e.Email,
		Designation: e.Designation,
		Salary:      e.Salary,
		BirthDate:   e.BirthDate.Format(DateLayout),
	}
}

// ExperienceRequest is the body of experience create and update calls.
// EmployeeID names the owner and is matched on update.
type ExperienceRequest struct {
	EmployeeID int64  `json:"employeeId"`
	TechStack  string `json:"techStack"`
	Company    string `json:"company"`
	Years      int    `json:"years"`
}

func (r ExperienceRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EmployeeID, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.TechStack, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Company, validation.Length(0, 100)),
		validation.Field(&r.Years, validation.Required.Error("must be greater than zero"), validation.Min(1)),
	)
}

func (r ExperienceRequest) Input() auth.ExperienceInput {
	return auth.ExperienceInput{
		TechStack: r.TechStack,
		Company:   r.Company,
		Years:     r.Years,
	}
}

// ExperienceResponse is the wire form of a work history entry
type ExperienceResponse struct {
	ID         int64  `json:"id"`
	EmployeeID int64  `json:"employeeId"`
	TechStack  string `json:"techStack"`
	Company    string `json:"company"`
	Years      int    `json:"years"`
}

func experienceResponses(records []*auth.Experience) []ExperienceResponse {
	out := make([]ExperienceResponse, 0, len(records))
	for _, record := range records {
		out = append(out, experienceResponse(record))
	}
	return out
}

func experienceResponse(e *auth.Experience) ExperienceResponse {
	return ExperienceResponse{
		ID:         e.ID,
		EmployeeID: e.EmployeeID,
		TechStack:  e.TechStack,
		Company:    e.Company,
		Years:      e.Years,
	}
}

func validRole(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, ok := auth.ParseRole(s); !ok {
		return errors.New("must be ADMIN or USER")
	}
	return nil
}
