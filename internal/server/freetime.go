package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fora/internal/freetime"
	"fora/internal/models"
)

func registerFreeTimeAPI(g *echo.Group) {
	g.POST("/freetime/mutual", mutualFreeTime)
	g.GET("/freetime/samples", sampleCalendars)
}

type mutualRequest struct {
	Users           []freetime.Calendar `json:"users" validate:"required,min=1,dive"`
	MinBlockMinutes int                 `json:"minBlockMinutes" validate:"min=0"`
	TentativeIsFree bool                `json:"tentativeIsFree"`
}

func mutualFreeTime(ctx echo.Context) error {
	var data mutualRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to mutualRequest")
	}
	if err := models.Validate.Struct(data); err != nil {
		return err
	}
	blocks, err := freetime.Mutual(data.Users, freetime.Options{
		MinBlock:        time.Duration(data.MinBlockMinutes) * time.Minute,
		TentativeIsFree: data.TentativeIsFree,
	})
	if err != nil {
		return models.NewValidationError(err)
	}
	return ctx.JSON(http.StatusOK, blocks)
}

func sampleCalendars(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, freetime.SampleCalendars())
}
