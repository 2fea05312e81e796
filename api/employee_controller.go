package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/middleware/jwtware"
)

type EmployeeControllerRoutes struct {
	Employees string
	Employee  string
	Profile   string
	Stats     string
}

// EmployeeController serves employee records, the caller's profile and
// the public statistics
type EmployeeController struct {
	Logger    *slog.Logger
	Lifecycle *auth.AccountLifecycle
	Routes    *EmployeeControllerRoutes
}

func NewEmployeeController(lifecycle *auth.AccountLifecycle) *EmployeeController {
	return &EmployeeController{
		Logger:    slog.Default().With("component", "employee_controller"),
		Lifecycle: lifecycle,
		Routes: &EmployeeControllerRoutes{
			Employees: "/api/employees",
			Employee:  "/api/employees/:id",
			Profile:   "/api/profile/me",
			Stats:     "/public/stats",
		},
	}
}

func (ec *EmployeeController) Register(app fiber.Router) {
	anyRole := jwtware.RequireRoles(auth.RoleAdmin, auth.RoleUser)
	adminOnly := jwtware.RequireRoles(auth.RoleAdmin)

	app.Get(ec.Routes.Employees, anyRole, ec.List)
	app.Get(ec.Routes.Employee, anyRole, ec.Get)
	app.Post(ec.Routes.Employees, adminOnly, ec.Create)
	app.Put(ec.Routes.Employee, adminOnly, ec.Update)
	app.Delete(ec.Routes.Employee, adminOnly, ec.Delete)

	app.Get(ec.Routes.Profile, anyRole, ec.Profile)
	app.Get(ec.Routes.Stats, ec.Stats)
}

func (ec *EmployeeController) List(c *fiber.Ctx) error {
	records, err := ec.Lifecycle.Employees(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]EmployeeResponse, 0, len(records))
	for _, record := range records {
		out = append(out, employeeResponse(record))
	}
	return c.JSON(out)
}

func (ec *EmployeeController) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	record, err := ec.Lifecycle.Employee(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(employeeResponse(record))
}

func (ec *EmployeeController) Create(c *fiber.Ctx) error {
	var req EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	in, err := req.Input()
	if err != nil {
		return err
	}

	record, err := ec.Lifecycle.OnboardEmployee(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(employeeResponse(record))
}

func (ec *EmployeeController) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req EmployeeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	in, err := req.Input()
	if err != nil {
		return err
	}

	record, err := ec.Lifecycle.UpdateEmployee(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(employeeResponse(record))
}

func (ec *EmployeeController) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := ec.Lifecycle.DeleteEmployee(c.UserContext(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Profile returns the employee record of the authenticated caller
func (ec *EmployeeController) Profile(c *fiber.Ctx) error {
	p, ok := auth.PrincipalFromContext(c.UserContext())
	if !ok {
		return fiber.ErrUnauthorized
	}

	record, err := ec.Lifecycle.Profile(c.UserContext(), p)
	if err != nil {
		return err
	}
	return c.JSON(employeeResponse(record))
}

func (ec *EmployeeController) Stats(c *fiber.Ctx) error {
	stats, err := ec.Lifecycle.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
