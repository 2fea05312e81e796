package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/oops"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/middleware/jwtware"
)

type AuthControllerRoutes struct {
	AdminLogin       string
	UserLogin        string
	CreateUser       string
	ForgotPassword   string
	ResetCredentials string
}

// AuthController serves login and credential management
type AuthController struct {
	Logger    *slog.Logger
	Lifecycle *auth.AccountLifecycle
	Routes    *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func WithAuthLogger(logger *slog.Logger) AuthControllerOption {
	return func(ac *AuthController) *AuthController {
		ac.Logger = logger
		return ac
	}
}

func NewAuthController(lifecycle *auth.AccountLifecycle, opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:    slog.Default().With("component", "auth_controller"),
		Lifecycle: lifecycle,
		Routes: &AuthControllerRoutes{
			AdminLogin:       "/auth/admin/login",
			UserLogin:        "/auth/user/login",
			CreateUser:       "/auth/create-user",
			ForgotPassword:   "/auth/forgot-password",
			ResetCredentials: "/auth/reset-credentials/:employeeId",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

// Register mounts the controller routes on app
func (ac *AuthController) Register(app fiber.Router) {
	app.Post(ac.Routes.AdminLogin, ac.LoginHandler(auth.RoleAdmin))
	app.Post(ac.Routes.UserLogin, ac.LoginHandler(auth.RoleUser))
	app.Post(ac.Routes.CreateUser, jwtware.RequireRoles(auth.RoleAdmin), ac.CreateUser)
	app.Post(ac.Routes.ForgotPassword, ac.ForgotPassword)
	app.Post(ac.Routes.ResetCredentials, jwtware.RequireRoles(auth.RoleAdmin), ac.ResetCredentials)
}

// LoginHandler returns the login endpoint of the portal for role
func (ac *AuthController) LoginHandler(role auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req LoginRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		res, err := ac.Lifecycle.Login(c.UserContext(), req.Username, req.Password, role)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

func (ac *AuthController) CreateUser(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if _, err := ac.Lifecycle.CreateAccount(c.UserContext(), auth.CreateAccountInput{
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
		EmployeeID: req.EmployeeID,
	}); err != nil {
		return err
	}

	return c.SendString("User created successfully")
}

func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := ac.Lifecycle.ResetViaSecurityKey(c.UserContext(), req.SecurityKey, req.NewPassword); err != nil {
		return err
	}

	return c.SendString("Password updated successfully")
}

func (ac *AuthController) ResetCredentials(c *fiber.Ctx) error {
	id, err := paramID(c, "employeeId")
	if err != nil {
		return err
	}

	if err := ac.Lifecycle.AdminResetCredentials(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendString("Credentials reset to default")
}

type validatable interface {
	Validate() error
}

func parseBody(c *fiber.Ctx, req validatable) error {
	if err := c.BodyParser(req); err != nil {
		return oops.Code("MALFORMED_BODY").Wrap(ErrMalformedBody)
	}
	return req.Validate()
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, oops.Code("INVALID_ID").
			With(name, c.Params(name)).
			Wrapf(auth.ErrInvalidFormat, "%s must be a positive integer", name)
	}
	return int64(id), nil
}
