package auth

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	"github.com/uptrace/bun"
)

// experienceSortColumns maps the sortable JSON fields to their columns
var experienceSortColumns = map[string]string{
	"id":         "id",
	"employeeId": "employee_id",
	"techStack":  "tech_stack",
	"company":    "company",
	"years":      "years",
	"createdAt":  "created_at",
}

type experiences struct {
	db *bun.DB
}

var _ Experiences = (*experiences)(nil)

// NewExperiencesRepository returns a bun backed work history store
func NewExperiencesRepository(db *bun.DB) Experiences {
	return &experiences{db: db}
}

func (x *experiences) GetByID(ctx context.Context, id int64) (*Experience, error) {
	return x.GetByIDTx(ctx, x.db, id)
}

func (x *experiences) GetByIDTx(ctx context.Context, tx bun.IDB, id int64) (*Experience, error) {
	record := &Experience{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if IsNoRows(err) {
			return nil, oops.Code("EXPERIENCE_NOT_FOUND").
				With("id", id).
				Wrapf(ErrRecordNotFound, "experience not found: %d", id)
		}
		return nil, oops.Code("EXPERIENCE_LOOKUP_FAILED").
			With("id", id).
			Wrapf(err, "failed to retrieve experience")
	}
	return record, nil
}

// List returns the entries matching filter. An unknown SortBy falls back
// to id, ties are broken by id.
func (x *experiences) List(ctx context.Context, filter ExperienceFilter) ([]*Experience, error) {
	records := []*Experience{}
	q := x.db.NewSelect().Model(&records)

	if filter.EmployeeID != nil {
		q = q.Where("?TableAlias.employee_id = ?", *filter.EmployeeID)
	}
	if filter.TechStack != "" {
		q = q.Where("lower(?TableAlias.tech_stack) = lower(?)", filter.TechStack)
	}
	if filter.MinYears != nil {
		q = q.Where("?TableAlias.years >= ?", *filter.MinYears)
	}

	column, ok := experienceSortColumns[filter.SortBy]
	if !ok {
		column = "id"
	}
	dir := "ASC"
	if strings.EqualFold(filter.SortDir, "desc") {
		dir = "DESC"
	}
	q = q.Order(column+" "+dir, "id ASC")

	if err := q.Scan(ctx); err != nil && !IsNoRows(err) {
		return nil, oops.Code("EXPERIENCE_LIST_FAILED").
			Wrapf(err, "failed to list experiences")
	}
	return records, nil
}

// Summary sums the years of an employee's entries per tech stack
func (x *experiences) Summary(ctx context.Context, employeeID int64) ([]ExperienceSummary, error) {
	out := []ExperienceSummary{}
	err := x.db.NewSelect().
		Model((*Experience)(nil)).
		ColumnExpr("tech_stack").
		ColumnExpr("SUM(years) AS total_years").
		Where("employee_id = ?", employeeID).
		Group("tech_stack").
		Order("tech_stack ASC").
		Scan(ctx, &out)
	if err != nil && !IsNoRows(err) {
		return nil, oops.Code("EXPERIENCE_SUMMARY_FAILED").
			With("employee_id", employeeID).
			Wrapf(err, "failed to summarize experience")
	}
	return out, nil
}

func (x *experiences) Create(ctx context.Context, record *Experience) (*Experience, error) {
	return x.CreateTx(ctx, x.db, record)
}

func (x *experiences) CreateTx(ctx context.Context, tx bun.IDB, record *Experience) (*Experience, error) {
	if record == nil {
		return nil, oops.Code("EXPERIENCE_REQUIRED").Errorf("experience must not be nil")
	}

	now := time.Now()
	record.ID = 0
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	record.UpdatedAt = record.CreatedAt

	if _, err := tx.NewInsert().
		Model(record).
		Returning("id").
		Exec(ctx); err != nil {
		return nil, oops.Code("EXPERIENCE_CREATE_FAILED").
			With("employee_id", record.EmployeeID).
			Wrapf(err, "failed to create experience")
	}
	return record, nil
}

func (x *experiences) Update(ctx context.Context, record *Experience) (*Experience, error) {
	return x.UpdateTx(ctx, x.db, record)
}

// UpdateTx rewrites tech stack, company and years. The owning employee
// never changes.
func (x *experiences) UpdateTx(ctx context.Context, tx bun.IDB, record *Experience) (*Experience, error) {
	if record == nil {
		return nil, oops.Code("EXPERIENCE_REQUIRED").Errorf("experience must not be nil")
	}

	now := time.Now()
	record.UpdatedAt = &now

	res, err := tx.NewUpdate().
		Model(record).
		Column("tech_stack", "company", "years", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, oops.Code("EXPERIENCE_UPDATE_FAILED").
			With("id", record.ID).
			Wrapf(err, "failed to update experience")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, oops.Code("EXPERIENCE_NOT_FOUND").
			With("id", record.ID).
			Wrap(ErrRecordNotFound)
	}

	return x.GetByIDTx(ctx, tx, record.ID)
}

func (x *experiences) DeleteTx(ctx context.Context, tx bun.IDB, record *Experience) error {
	if record == nil {
		return nil
	}

	if _, err := tx.NewDelete().
		Model((*Experience)(nil)).
		Where("id = ?", record.ID).
		Exec(ctx); err != nil {
		return oops.Code("EXPERIENCE_DELETE_FAILED").
			With("id", record.ID).
			Wrapf(err, "failed to delete experience")
	}
	return nil
}

// DeleteByEmployeeTx removes every entry of an employee and reports how
// many were removed
func (x *experiences) DeleteByEmployeeTx(ctx context.Context, tx bun.IDB, employeeID int64) (int64, error) {
	res, err := tx.NewDelete().
		Model((*Experience)(nil)).
		Where("employee_id = ?", employeeID).
		Exec(ctx)
	if err != nil {
		return 0, oops.Code("EXPERIENCE_DELETE_FAILED").
			With("employee_id", employeeID).
			Wrapf(err, "failed to delete employee experience")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
