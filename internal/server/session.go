package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fora/internal/models"
	"fora/internal/social"
	"fora/internal/store"
)

type sessionApi struct {
	session *store.Session
	social  social.Service
}

func registerSessionAPI(g *echo.Group, session *store.Session, svc social.Service) {
	api := sessionApi{session: session, social: svc}

	sg := g.Group("/session")
	sg.GET("", api.state)
	sg.POST("/login", api.login)
	sg.POST("/logout", api.logout)
	sg.GET("/user", api.user)
	sg.PUT("/user", api.updateUser)
	sg.POST("/dark-mode", api.toggleDarkMode)
	sg.PUT("/tab", api.selectTab)
}

func (api *sessionApi) state(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.session.State())
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data models.User
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to User")
	}
	usr, err := api.session.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	api.social.SetMe(usr.ID)
	return ctx.JSON(http.StatusOK, usr)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if err := api.session.Logout(ctx.Request().Context()); err != nil {
		return err
	}
	api.social.SetMe(social.DefaultMe)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) user(ctx echo.Context) error {
	usr, ok := api.session.User()
	if !ok {
		return store.ErrNotLoggedIn
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *sessionApi) updateUser(ctx echo.Context) error {
	var data models.User
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to User")
	}
	usr, err := api.session.UpdateUser(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *sessionApi) toggleDarkMode(ctx echo.Context) error {
	dark, err := api.session.ToggleDarkMode(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"darkMode": dark})
}

type tabRequest struct {
	Tab store.Tab `json:"tab"`
}

func (api *sessionApi) selectTab(ctx echo.Context) error {
	var data tabRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to tabRequest")
	}
	if err := api.session.SelectTab(data.Tab); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.session.State())
}
