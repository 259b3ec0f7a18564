package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/present/rest/middleware"
	"github.com/kindredapp/kindred-go/internal/present/rest/presenter"
	"github.com/kindredapp/kindred-go/internal/service"
	"github.com/kindredapp/kindred-go/internal/usecase"
)

type Handler struct {
	people        *usecase.PeopleUsecase
	relationships *usecase.RelationshipUsecase
	updates       *usecase.UpdateUsecase
	moderation    *usecase.ModerationUsecase
	signal        *service.SignalService
}

func NewHandler(
	people *usecase.PeopleUsecase,
	relationships *usecase.RelationshipUsecase,
	updates *usecase.UpdateUsecase,
	moderation *usecase.ModerationUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		people:        people,
		relationships: relationships,
		updates:       updates,
		moderation:    moderation,
		signal:        signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, auth *middleware.AuthMiddleware) {
	e.GET("/api/v1/people", h.handleListPeople)
	e.POST("/api/v1/people", h.handleCreatePerson, auth.IdentifyRequester)
	e.GET("/api/v1/people/:id", h.handleGetPerson)
	e.PUT("/api/v1/people/:id", h.handleUpdatePerson, auth.IdentifyRequester)
	e.DELETE("/api/v1/people/:id", h.handleHidePerson, auth.IdentifyRequester)
	e.GET("/api/v1/relationships", h.handleListRelationships)
	e.POST("/api/v1/relationships", h.handleCreateRelationship, auth.IdentifyRequester)
	e.DELETE("/api/v1/relationships/:id", h.handleDeleteRelationship, auth.IdentifyRequester)
	e.POST("/api/v1/updates", h.handleCreateUpdate, auth.IdentifyRequester)
	e.GET("/api/v1/updates", h.handleListUpdates)
	e.POST("/api/v1/blocks", h.handleCreateBlock, auth.IdentifyRequester)
	e.GET("/api/v1/blocks", h.handleListBlocks, auth.IdentifyRequester)
	e.POST("/api/v1/invitations", h.handleCreateInvitation, auth.IdentifyRequester)
	e.GET("/api/v1/invitations/:token", h.handleResolveInvitation)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleListPeople(c echo.Context) error {
	ctx := c.Request().Context()

	people, err := h.people.List(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, people)
}

func (h *Handler) handleCreatePerson(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req kindred.Person
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.people.Create(ctx, usecase.CreatePersonInput{
		Person: domain.Person{
			Name:      req.Name,
			BirthDate: req.BirthDate,
			DeathDate: req.DeathDate,
			Gender:    (*string)(req.Gender),
			PhotoURL:  req.PhotoURL,
			Biography: req.Biography,
			Phone:     req.Phone,
			AccountID: req.AccountID,
		},
		CreatedBy: requester,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, created)
}

func (h *Handler) handleGetPerson(c echo.Context) error {
	ctx := c.Request().Context()

	person, err := h.people.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, person)
}

func (h *Handler) handleUpdatePerson(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := middleware.RequesterID(ctx); !ok {
		return presenter.Unauthorized(c)
	}

	var req kindred.Person
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	updated, err := h.people.Update(ctx, domain.Person{
		ID:        c.Param("id"),
		Name:      req.Name,
		BirthDate: req.BirthDate,
		DeathDate: req.DeathDate,
		Gender:    (*string)(req.Gender),
		PhotoURL:  req.PhotoURL,
		Biography: req.Biography,
		Phone:     req.Phone,
		AccountID: req.AccountID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, updated)
}

func (h *Handler) handleHidePerson(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := middleware.RequesterID(ctx); !ok {
		return presenter.Unauthorized(c)
	}

	err := h.people.Hide(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleListRelationships(c echo.Context) error {
	ctx := c.Request().Context()

	edges, err := h.relationships.List(ctx)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	dtos := make([]kindred.Edge, len(edges))
	for i, edge := range edges {
		dtos[i] = edgeToWire(edge)
	}
	return presenter.OK(c, dtos)
}

func (h *Handler) handleCreateRelationship(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req kindred.Edge
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.relationships.Create(ctx, domain.Edge{
		Type:        string(req.Type),
		PersonOneID: req.PersonOneID.Value,
		PersonTwoID: req.PersonTwoID.Value,
		CreatedBy:   requester,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, edgeToWire(created))
}

func (h *Handler) handleDeleteRelationship(c echo.Context) error {
	ctx := c.Request().Context()

	if _, ok := middleware.RequesterID(ctx); !ok {
		return presenter.Unauthorized(c)
	}

	err := h.relationships.Delete(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "relationship not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleCreateUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req kindred.Update
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	tagged := make([]string, len(req.TaggedIDs))
	for i, id := range req.TaggedIDs {
		tagged[i] = id.Value
	}

	created, err := h.updates.Create(ctx, domain.Update{
		AuthorID:  requester,
		WallID:    req.WallID.Value,
		PhotoURL:  req.PhotoURL,
		Caption:   req.Caption,
		TaggedIDs: tagged,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "wall person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, updateToWire(created))
}

func (h *Handler) handleListUpdates(c echo.Context) error {
	ctx := c.Request().Context()

	wallID := c.QueryParam("wall")
	if wallID == "" {
		return presenter.BadRequestMessage(c, "wall parameter is required")
	}

	updates, err := h.updates.ListByWall(ctx, wallID)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	dtos := make([]kindred.Update, len(updates))
	for i, update := range updates {
		dtos[i] = updateToWire(update)
	}
	return presenter.OK(c, dtos)
}

func (h *Handler) handleCreateBlock(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req kindred.BlockRecord
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.moderation.Block(ctx, domain.Block{
		BlockerID: requester,
		BlockedID: req.BlockedID.Value,
		Reason:    req.Reason,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, blockToWire(created))
}

func (h *Handler) handleListBlocks(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	blocks, err := h.moderation.ListBlocks(ctx, requester)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	dtos := make([]kindred.BlockRecord, len(blocks))
	for i, block := range blocks {
		dtos[i] = blockToWire(block)
	}
	return presenter.OK(c, dtos)
}

type invitationRequest struct {
	PersonID string `json:"personId"`
}

func (h *Handler) handleCreateInvitation(c echo.Context) error {
	ctx := c.Request().Context()

	requester, ok := middleware.RequesterID(ctx)
	if !ok {
		return presenter.Unauthorized(c)
	}

	var req invitationRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	created, err := h.moderation.Invite(ctx, req.PersonID, requester)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.BadRequest(c, err)
		}
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "person not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.Created(c, invitationToWire(created))
}

func (h *Handler) handleResolveInvitation(c echo.Context) error {
	ctx := c.Request().Context()

	invitation, err := h.moderation.ResolveInvitation(ctx, c.Param("token"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return presenter.NotFound(c, "invitation not found")
		}
		return presenter.InternalError(c, err)
	}
	return presenter.OK(c, invitationToWire(invitation))
}

func edgeToWire(e domain.Edge) kindred.Edge {
	return kindred.Edge{
		ID:          e.ID,
		Type:        kindred.EdgeType(e.Type),
		PersonOneID: kindred.PersonID{Value: e.PersonOneID},
		PersonTwoID: kindred.PersonID{Value: e.PersonTwoID},
		CreatedBy:   e.CreatedBy,
	}
}

func updateToWire(u domain.Update) kindred.Update {
	tagged := make([]kindred.PersonID, len(u.TaggedIDs))
	for i, id := range u.TaggedIDs {
		tagged[i] = kindred.PersonID{Value: id}
	}
	return kindred.Update{
		ID:        u.ID,
		AuthorID:  kindred.PersonID{Value: u.AuthorID},
		WallID:    kindred.PersonID{Value: u.WallID},
		PhotoURL:  u.PhotoURL,
		Caption:   u.Caption,
		TaggedIDs: tagged,
		CreatedAt: u.CreatedAt,
	}
}

func blockToWire(b domain.Block) kindred.BlockRecord {
	return kindred.BlockRecord{
		ID:        b.ID,
		BlockerID: kindred.PersonID{Value: b.BlockerID},
		BlockedID: kindred.PersonID{Value: b.BlockedID},
		Reason:    b.Reason,
		CreatedAt: b.CreatedAt,
	}
}

func invitationToWire(i domain.Invitation) kindred.InvitationLink {
	return kindred.InvitationLink{
		ID:        i.ID,
		PersonID:  kindred.PersonID{Value: i.PersonID},
		Token:     i.Token,
		CreatedBy: i.CreatedBy,
		ExpiresAt: i.ExpiresAt,
		CreatedAt: i.CreatedAt,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan kindred.Event)

	go h.signal.Listen(ctx, output)

	quit := make(chan struct{})

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				quit <- struct{}{}
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
