package jwtware_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	auth "github.com/goliatone/go-ems-auth"
	"github.com/goliatone/go-ems-auth/middleware/jwtware"
)

func TestGuards(t *testing.T) {
	codec := newCodec(t, time.Now)
	adminToken := "Bearer " + issue(t, codec, "admin", auth.RoleAdmin)
	userToken := "Bearer " + issue(t, codec, "john", auth.RoleUser)

	app := fiber.New()
	app.Use(jwtware.New(jwtware.Config{Decoder: codec}))
	ok := func(c *fiber.Ctx) error { return c.SendString("ok") }
	app.Get("/admin", jwtware.RequireRoles(auth.RoleAdmin), ok)
	app.Get("/shared", jwtware.RequireRoles(auth.RoleAdmin, auth.RoleUser), ok)
	app.Get("/me", jwtware.RequireAuthenticated(), ok)

	tests := []struct {
		name          string
		path          string
		authorization string
		wantStatus    int
	}{
		{name: "anonymous on admin route", path: "/admin", wantStatus: fiber.StatusUnauthorized},
		{name: "user on admin route", path: "/admin", authorization: userToken, wantStatus: fiber.StatusForbidden},
		{name: "admin on admin route", path: "/admin", authorization: adminToken, wantStatus: fiber.StatusOK},
		{name: "anonymous on shared route", path: "/shared", wantStatus: fiber.StatusUnauthorized},
		{name: "user on shared route", path: "/shared", authorization: userToken, wantStatus: fiber.StatusOK},
		{name: "admin on shared route", path: "/shared", authorization: adminToken, wantStatus: fiber.StatusOK},
		{name: "anonymous on authenticated route", path: "/me", wantStatus: fiber.StatusUnauthorized},
		{name: "user on authenticated route", path: "/me", authorization: userToken, wantStatus: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := doRequest(t, app, tt.path, tt.authorization)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
