// internal/dashboard/roster.go
package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tamzrod/uniform-watch/internal/roster"
)

type rosterAPI struct {
	svc *roster.Service
}

func registerRosterAPI(g *echo.Group, auth echo.MiddlewareFunc, svc *roster.Service) {
	students := g.Group("/students", auth)
	if svc == nil {
		unavailable := func(echo.Context) error { return errRosterMissing }
		students.GET("", unavailable)
		students.POST("", unavailable)
		students.GET("/:id", unavailable)
		students.DELETE("/:id", unavailable)
		return
	}

	api := rosterAPI{svc: svc}
	students.GET("", api.list)
	students.POST("", api.add)
	students.GET("/:id", api.get)
	students.DELETE("/:id", api.delete)
}

func (api rosterAPI) list(ctx echo.Context) error {
	list, err := api.svc.List(ctx.Request().Context(), ctx.QueryParam("class"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api rosterAPI) add(ctx echo.Context) error {
	var in roster.NewStudent
	if err := ctx.Bind(&in); err != nil {
		return err
	}
	st, err := api.svc.Add(ctx.Request().Context(), in)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api rosterAPI) get(ctx echo.Context) error {
	st, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api rosterAPI) delete(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
