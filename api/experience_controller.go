package api

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/middleware/jwtware"
)

type ExperienceControllerRoutes struct {
	Experience      string
	Entry           string
	Mine            string
	MineSummary     string
	Employee        string
	EmployeeSummary string
	Filter          string
}

// ExperienceController serves the work history of employees. Writes are
// admin only, the /me routes resolve the employee from the caller's token.
type ExperienceController struct {
	Logger     *slog.Logger
	Experience *auth.ExperienceService
	Routes     *ExperienceControllerRoutes
}

func NewExperienceController(service *auth.ExperienceService) *ExperienceController {
	return &ExperienceController{
		Logger:     slog.Default().With("component", "experience_controller"),
		Experience: service,
		Routes: &ExperienceControllerRoutes{
			Experience:      "/api/experience",
			Entry:           "/api/experience/:id",
			Mine:            "/api/experience/me",
			MineSummary:     "/api/experience/summary/me",
			Employee:        "/api/experience/employee/:employeeId",
			EmployeeSummary: "/api/experience/employee/summary/:employeeId",
			Filter:          "/api/experience/filter",
		},
	}
}

func (xc *ExperienceController) Register(app fiber.Router) {
	anyRole := jwtware.RequireRoles(auth.RoleAdmin, auth.RoleUser)
	adminOnly := jwtware.RequireRoles(auth.RoleAdmin)

	app.Get(xc.Routes.Mine, anyRole, xc.Mine)
	app.Get(xc.Routes.MineSummary, anyRole, xc.MineSummary)
	app.Get(xc.Routes.Filter, anyRole, xc.Filter)

	app.Get(xc.Routes.EmployeeSummary, adminOnly, xc.EmployeeSummary)
	app.Get(xc.Routes.Employee, adminOnly, xc.Employee)
	app.Get(xc.Routes.Experience, adminOnly, xc.All)
	app.Post(xc.Routes.Experience, adminOnly, xc.Create)
	app.Put(xc.Routes.Entry, adminOnly, xc.Update)
	app.Delete(xc.Routes.Entry, adminOnly, xc.Delete)
}

// Mine lists the entries of the authenticated caller
func (xc *ExperienceController) Mine(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	records, err := xc.Experience.ForPrincipal(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(experienceResponses(records))
}

// MineSummary totals the caller's years per tech stack
func (xc *ExperienceController) MineSummary(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	summary, err := xc.Experience.SummaryForPrincipal(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (xc *ExperienceController) Employee(c *fiber.Ctx) error {
	employeeID, err := paramID(c, "employeeId")
	if err != nil {
		return err
	}

	records, err := xc.Experience.ForEmployee(c.UserContext(), employeeID)
	if err != nil {
		return err
	}
	return c.JSON(experienceResponses(records))
}

func (xc *ExperienceController) EmployeeSummary(c *fiber.Ctx) error {
	employeeID, err := paramID(c, "employeeId")
	if err != nil {
		return err
	}

	summary, err := xc.Experience.SummaryForEmployee(c.UserContext(), employeeID)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// Filter accepts employeeId, techStack, minYears, sortBy and sortDir
func (xc *ExperienceController) Filter(c *fiber.Ctx) error {
	employeeID, err := queryInt(c, "employeeId")
	if err != nil {
		return err
	}
	minYears, err := queryInt(c, "minYears")
	if err != nil {
		return err
	}

	filter := auth.ExperienceFilter{
		TechStack: c.Query("techStack"),
		SortBy:    c.Query("sortBy", "id"),
		SortDir:   c.Query("sortDir", "asc"),
	}
	if employeeID != nil {
		id := int64(*employeeID)
		filter.EmployeeID = &id
	}
	filter.MinYears = minYears

	records, err := xc.Experience.Filter(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(experienceResponses(records))
}

func (xc *ExperienceController) All(c *fiber.Ctx) error {
	records, err := xc.Experience.All(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(experienceResponses(records))
}

func (xc *ExperienceController) Create(c *fiber.Ctx) error {
	var req ExperienceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	record, err := xc.Experience.Add(c.UserContext(), req.EmployeeID, req.Input())
	if err != nil {
		return err
	}
	return c.JSON(experienceResponse(record))
}

func (xc *ExperienceController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req ExperienceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	record, err := xc.Experience.Update(c.UserContext(), req.EmployeeID, id, req.Input())
	if err != nil {
		return err
	}
	return c.JSON(experienceResponse(record))
}

// Delete takes the owning employee from the employeeId query parameter
func (xc *ExperienceController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	employeeID, err := queryInt(c, "employeeId")
	if err != nil {
		return err
	}
	if employeeID == nil {
		return oops.Code("EMPLOYEE_ID_REQUIRED").
			Wrapf(auth.ErrInvalidFormat, "employeeId query parameter is required")
	}

	if err := xc.Experience.Delete(c.UserContext(), int64(*employeeID), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// queryInt reads an optional integer query parameter
func queryInt(c *fiber.Ctx, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, oops.Code("INVALID_QUERY").
			With(name, raw).
			Wrapf(auth.ErrInvalidFormat, "%s must be an integer", name)
	}
	return &n, nil
}
