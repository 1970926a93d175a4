package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"fora/internal/models"
	"fora/internal/social"
)

type socialApi struct {
	svc social.Service
}

func registerSocialAPI(g *echo.Group, svc social.Service) {
	api := socialApi{svc: svc}

	g.GET("/me/status", api.status)
	g.PUT("/me/status", api.setStatus)
	g.GET("/profiles/:id", api.profile)

	fg := g.Group("/friends")
	fg.GET("", api.friends)
	fg.DELETE("/:id", api.removeFriend)
	fg.GET("/suggestions", api.suggestions)
	fg.GET("/requests", api.pendingRequests)
	fg.POST("/requests", api.sendRequest)
	fg.POST("/requests/:from/accept", api.acceptRequest)
	fg.POST("/requests/:from/decline", api.declineRequest)

	cg := g.Group("/chats")
	cg.GET("", api.chats)
	cg.POST("", api.openChat)
	cg.POST("/group", api.createGroupChat)
	cg.GET("/:id/messages", api.messages)
	cg.POST("/:id/messages", api.sendMessage)
	cg.GET("/:id/stream", api.stream)

	gg := g.Group("/groups")
	gg.GET("", api.groupCalendars)
	gg.POST("", api.createGroupCalendar)
	gg.POST("/join", api.joinGroupCalendar)
	gg.GET("/:id/events", api.groupEvents)
}

// Friends

func (api *socialApi) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": api.svc.Status(ctx.Request().Context())})
}

type statusRequest struct {
	Status models.PresenceStatus `json:"status"`
}

func (api *socialApi) setStatus(ctx echo.Context) error {
	var data statusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to statusRequest")
	}
	if err := api.svc.SetStatus(ctx.Request().Context(), data.Status); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": data.Status})
}

func (api *socialApi) profile(ctx echo.Context) error {
	p, err := api.svc.FetchProfile(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *socialApi) friends(ctx echo.Context) error {
	friends, err := api.svc.Friends(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, friends)
}

func (api *socialApi) removeFriend(ctx echo.Context) error {
	if err := api.svc.RemoveFriend(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *socialApi) suggestions(ctx echo.Context) error {
	filter, err := social.ParseSuggestionFilter(ctx.QueryParam("filter"))
	if err != nil {
		return badRequest(err)
	}
	out, err := api.svc.Suggestions(ctx.Request().Context(), ctx.QueryParam("q"), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *socialApi) pendingRequests(ctx echo.Context) error {
	reqs, err := api.svc.PendingRequests(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reqs)
}

type friendRequest struct {
	To string `json:"to" validate:"required"`
}

func (api *socialApi) sendRequest(ctx echo.Context) error {
	var data friendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to friendRequest")
	}
	if err := models.Validate.Struct(data); err != nil {
		return err
	}
	req, err := api.svc.SendFriendRequest(ctx.Request().Context(), api.svc.Me(), data.To)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, req)
}

func (api *socialApi) acceptRequest(ctx echo.Context) error {
	p, err := api.svc.AcceptRequest(ctx.Request().Context(), ctx.Param("from"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *socialApi) declineRequest(ctx echo.Context) error {
	if err := api.svc.DeclineRequest(ctx.Request().Context(), ctx.Param("from")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Chats

func (api *socialApi) chats(ctx echo.Context) error {
	chats, err := api.svc.Chats(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chats)
}

type openChatRequest struct {
	With string `json:"with" validate:"required"`
}

func (api *socialApi) openChat(ctx echo.Context) error {
	var data openChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to openChatRequest")
	}
	if err := models.Validate.Struct(data); err != nil {
		return err
	}
	chat, err := api.svc.OpenChat(ctx.Request().Context(), data.With)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chat)
}

type groupChatRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

func (api *socialApi) createGroupChat(ctx echo.Context) error {
	var data groupChatRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to groupChatRequest")
	}
	chat, err := api.svc.CreateGroupChat(ctx.Request().Context(), data.Name, data.Members)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, chat)
}

func (api *socialApi) messages(ctx echo.Context) error {
	msgs, err := api.svc.Messages(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *socialApi) sendMessage(ctx echo.Context) error {
	var data models.Message
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Message")
	}
	data.ChatID = ctx.Param("id")
	msg, err := api.svc.SendMessage(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// stream pushes new messages of a chat as server-sent events until the client goes away.
func (api *socialApi) stream(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	msgs, err := api.svc.SubscribeToMessages(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	for msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return errors.Wrap(err, "encoding message")
		}
		if _, err := fmt.Fprintf(res, "event: message\ndata: %s\n\n", data); err != nil {
			return nil
		}
		res.Flush()
	}
	return nil
}

// Group calendars

func (api *socialApi) groupCalendars(ctx echo.Context) error {
	cals, err := api.svc.GroupCalendars(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cals)
}

type groupCalendarRequest struct {
	Name string `json:"name"`
}

func (api *socialApi) createGroupCalendar(ctx echo.Context) error {
	var data groupCalendarRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to groupCalendarRequest")
	}
	cal, err := api.svc.CreateGroupCalendar(ctx.Request().Context(), data.Name)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cal)
}

type joinRequest struct {
	Code string `json:"code" validate:"required"`
}

func (api *socialApi) joinGroupCalendar(ctx echo.Context) error {
	var data joinRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to joinRequest")
	}
	if err := models.Validate.Struct(data); err != nil {
		return err
	}
	cal, err := api.svc.JoinGroupCalendar(ctx.Request().Context(), data.Code)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cal)
}

func (api *socialApi) groupEvents(ctx echo.Context) error {
	events, err := api.svc.GroupEvents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, events)
}
