package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

// ExperienceInput carries the editable fields of a work history entry
type ExperienceInput struct {
	TechStack string
	Company   string
	Years     int
}

// ExperienceService manages the work history of employees. Entries are
// always addressed through the employee they belong to.
type ExperienceService struct {
	repo   RepositoryManager
	logger *slog.Logger
}

// NewExperienceService returns a service over the repositories of repo
func NewExperienceService(repo RepositoryManager) *ExperienceService {
	return &ExperienceService{
		repo:   repo,
		logger: componentLogger("experience"),
	}
}

func (s *ExperienceService) WithLogger(logger *slog.Logger) *ExperienceService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Add records a new entry for an existing employee
func (s *ExperienceService) Add(ctx context.Context, employeeID int64, in ExperienceInput) (*Experience, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var created *Experience
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := s.repo.Employees().GetByIDTx(ctx, tx, employeeID); err != nil {
			return err
		}

		var err error
		created, err = s.repo.Experiences().CreateTx(ctx, tx, &Experience{
			EmployeeID: employeeID,
			TechStack:  strings.TrimSpace(in.TechStack),
			Company:    strings.TrimSpace(in.Company),
			Years:      in.Years,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("experience added", "employee_id", employeeID, "experience_id", created.ID)
	return created, nil
}

// Update rewrites an entry. An entry owned by a different employee is
// reported as not found.
func (s *ExperienceService) Update(ctx context.Context, employeeID, experienceID int64, in ExperienceInput) (*Experience, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var updated *Experience
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.owned(ctx, tx, employeeID, experienceID)
		if err != nil {
			return err
		}

		existing.TechStack = strings.TrimSpace(in.TechStack)
		existing.Company = strings.TrimSpace(in.Company)
		existing.Years = in.Years

		updated, err = s.repo.Experiences().UpdateTx(ctx, tx, existing)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an entry of the given employee
func (s *ExperienceService) Delete(ctx context.Context, employeeID, experienceID int64) error {
	err := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := s.owned(ctx, tx, employeeID, experienceID)
		if err != nil {
			return err
		}
		return s.repo.Experiences().DeleteTx(ctx, tx, existing)
	})
	if err != nil {
		return err
	}

	s.logger.Info("experience deleted", "employee_id", employeeID, "experience_id", experienceID)
	return nil
}

// ForEmployee lists the entries of one employee ordered by id
func (s *ExperienceService) ForEmployee(ctx context.Context, employeeID int64) ([]*Experience, error) {
	return s.repo.Experiences().List(ctx, ExperienceFilter{EmployeeID: &employeeID})
}

// SummaryForEmployee totals the years of one employee per tech stack
func (s *ExperienceService) SummaryForEmployee(ctx context.Context, employeeID int64) ([]ExperienceSummary, error) {
	return s.repo.Experiences().Summary(ctx, employeeID)
}

// ForPrincipal lists the entries of the employee linked to p
func (s *ExperienceService) ForPrincipal(ctx context.Context, p Principal) ([]*Experience, error) {
	employeeID, err := linkedEmployee(p)
	if err != nil {
		return nil, err
	}
	return s.ForEmployee(ctx, employeeID)
}

// SummaryForPrincipal totals the years of the employee linked to p
func (s *ExperienceService) SummaryForPrincipal(ctx context.Context, p Principal) ([]ExperienceSummary, error) {
	employeeID, err := linkedEmployee(p)
	if err != nil {
		return nil, err
	}
	return s.SummaryForEmployee(ctx, employeeID)
}

// Filter lists entries across employees. SortBy defaults to id and must
// name a sortable field, SortDir is asc unless it reads desc.
func (s *ExperienceService) Filter(ctx context.Context, filter ExperienceFilter) ([]*Experience, error) {
	if filter.SortBy == "" {
		filter.SortBy = "id"
	}
	if _, ok := experienceSortColumns[filter.SortBy]; !ok {
		return nil, oops.Code("INVALID_SORT_FIELD").
			With("sort_by", filter.SortBy).
			Wrapf(ErrInvalidFormat, "can not sort experience by %q", filter.SortBy)
	}
	return s.repo.Experiences().List(ctx, filter)
}

// All lists every entry ordered by id
func (s *ExperienceService) All(ctx context.Context) ([]*Experience, error) {
	return s.repo.Experiences().List(ctx, ExperienceFilter{})
}

func (s *ExperienceService) owned(ctx context.Context, tx bun.IDB, employeeID, experienceID int64) (*Experience, error) {
	existing, err := s.repo.Experiences().GetByIDTx(ctx, tx, experienceID)
	if err != nil {
		return nil, err
	}
	if existing.EmployeeID != employeeID {
		return nil, oops.Code("EXPERIENCE_NOT_OWNED").
			With("experience_id", experienceID).
			With("employee_id", employeeID).
			Wrapf(ErrRecordNotFound, "experience does not belong to this employee")
	}
	return existing, nil
}

func (in ExperienceInput) validate() error {
	if strings.TrimSpace(in.TechStack) == "" {
		return oops.Code("TECH_STACK_REQUIRED").
			Wrapf(ErrInvalidFormat, "tech stack is required")
	}
	if in.Years <= 0 {
		return oops.Code("INVALID_YEARS").
			With("years", in.Years).
			Wrapf(ErrInvalidFormat, "years must be greater than zero")
	}
	return nil
}

func linkedEmployee(p Principal) (int64, error) {
	if p.EmployeeID == nil {
		return 0, oops.Code("NO_LINKED_RECORD").
			With("username", p.Subject).
			Wrap(ErrNoLinkedRecord)
	}
	return *p.EmployeeID, nil
}
