package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	kindred "github.com/kindredapp/kindred-go"
	"github.com/kindredapp/kindred-go/internal/domain"
	"github.com/kindredapp/kindred-go/internal/present/rest/middleware"
	"github.com/kindredapp/kindred-go/internal/usecase"
)

// --- mocks ---

type mockPersonRepo struct {
	people map[string]domain.Person
}

func newMockPersonRepo(people ...domain.Person) *mockPersonRepo {
	m := &mockPersonRepo{people: map[string]domain.Person{}}
	for _, p := range people {
		m.people[p.ID] = p
	}
	return m
}

func (m *mockPersonRepo) Create(ctx context.Context, person domain.Person) (domain.Person, error) {
	person.ID = fmt.Sprintf("p%d", len(m.people)+1)
	person.Version = 1
	m.people[person.ID] = person
	return person, nil
}

func (m *mockPersonRepo) Update(ctx context.Context, person domain.Person) (domain.Person, error) {
	current, ok := m.people[person.ID]
	if !ok {
		return domain.Person{}, domain.NotFoundError{Resource: "person " + person.ID}
	}
	person.Version = current.Version + 1
	m.people[person.ID] = person
	return person, nil
}

func (m *mockPersonRepo) Get(ctx context.Context, id string) (domain.Person, error) {
	person, ok := m.people[id]
	if !ok || person.Hidden {
		return domain.Person{}, domain.NotFoundError{Resource: id}
	}
	return person, nil
}

func (m *mockPersonRepo) List(ctx context.Context) ([]domain.Person, error) {
	var out []domain.Person
	for _, p := range m.people {
		if !p.Hidden {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockPersonRepo) Hide(ctx context.Context, id string) error {
	person, ok := m.people[id]
	if !ok {
		return domain.NotFoundError{Resource: id}
	}
	person.Hidden = true
	m.people[id] = person
	return nil
}

type mockEdgeRepo struct {
	edges []domain.Edge
}

func (m *mockEdgeRepo) Create(ctx context.Context, edge domain.Edge) (domain.Edge, error) {
	edge.ID = fmt.Sprintf("e%d", len(m.edges)+1)
	m.edges = append(m.edges, edge)
	return edge, nil
}

func (m *mockEdgeRepo) List(ctx context.Context) ([]domain.Edge, error) {
	return m.edges, nil
}

func (m *mockEdgeRepo) Delete(ctx context.Context, id string) error {
	for i, e := range m.edges {
		if e.ID == id {
			m.edges = append(m.edges[:i], m.edges[i+1:]...)
			return nil
		}
	}
	return domain.NotFoundError{Resource: id}
}

type mockUpdateRepo struct {
	updates []domain.Update
}

func (m *mockUpdateRepo) Create(ctx context.Context, update domain.Update) (domain.Update, error) {
	update.ID = fmt.Sprintf("u%d", len(m.updates)+1)
	m.updates = append(m.updates, update)
	return update, nil
}

func (m *mockUpdateRepo) ListByWall(ctx context.Context, wallID string) ([]domain.Update, error) {
	var out []domain.Update
	for _, u := range m.updates {
		if u.WallID == wallID {
			out = append(out, u)
		}
	}
	return out, nil
}

type mockModerationRepo struct {
	blocks      []domain.Block
	invitations []domain.Invitation
}

func (m *mockModerationRepo) CreateBlock(ctx context.Context, block domain.Block) (domain.Block, error) {
	block.ID = fmt.Sprintf("b%d", len(m.blocks)+1)
	m.blocks = append(m.blocks, block)
	return block, nil
}

func (m *mockModerationRepo) ListBlocks(ctx context.Context, blockerID string) ([]domain.Block, error) {
	var out []domain.Block
	for _, b := range m.blocks {
		if b.BlockerID == blockerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockModerationRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) (domain.Invitation, error) {
	inv.ID = fmt.Sprintf("i%d", len(m.invitations)+1)
	inv.Token = "token-" + inv.PersonID
	inv.ExpiresAt = time.Now().Add(14 * 24 * time.Hour)
	m.invitations = append(m.invitations, inv)
	return inv, nil
}

func (m *mockModerationRepo) GetInvitationByToken(ctx context.Context, token string) (domain.Invitation, error) {
	for _, inv := range m.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return domain.Invitation{}, domain.NotFoundError{Resource: "invitation"}
}

type mockSignal struct {
	events []kindred.Event
}

func (m *mockSignal) Publish(ctx context.Context, event kindred.Event) error {
	m.events = append(m.events, event)
	return nil
}

type mockVerifier struct{}

func (m *mockVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "session-alice" {
		return "alice", nil
	}
	return "", domain.ErrUnauthorized
}

// --- fixture ---

type fixture struct {
	e       *echo.Echo
	people  *mockPersonRepo
	edges   *mockEdgeRepo
	updates *mockUpdateRepo
	mod     *mockModerationRepo
	signal  *mockSignal
}

func newFixture(people ...domain.Person) *fixture {
	f := &fixture{
		people:  newMockPersonRepo(people...),
		edges:   &mockEdgeRepo{},
		updates: &mockUpdateRepo{},
		mod:     &mockModerationRepo{},
		signal:  &mockSignal{},
	}

	peopleUC := usecase.NewPeopleUsecase(f.people, f.edges, f.signal)
	relationshipUC := usecase.NewRelationshipUsecase(f.edges, f.people, f.signal)
	updateUC := usecase.NewUpdateUsecase(f.updates, f.people)
	moderationUC := usecase.NewModerationUsecase(f.mod, f.people)

	h := NewHandler(peopleUC, relationshipUC, updateUC, moderationUC, nil)

	f.e = echo.New()
	h.RegisterRoutes(f.e, middleware.NewAuthMiddleware(&mockVerifier{}))
	return f
}

func (f *fixture) request(method, path string, payload any, token string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

func person(id, name string) domain.Person {
	return domain.Person{ID: id, Name: name, Version: 1}
}

// --- tests ---

func TestCreateRelationship(t *testing.T) {
	f := newFixture(person("p1", "Ama"), person("p2", "Kofi"))

	res := f.request(http.MethodPost, "/api/v1/relationships", kindred.Edge{
		Type:        kindred.EdgeParent,
		PersonOneID: kindred.PersonID{Value: "p1"},
		PersonTwoID: kindred.PersonID{Value: "p2"},
	}, "session-alice")

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}

	var created kindred.Edge
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned edge id")
	}
	if created.CreatedBy != "alice" {
		t.Fatalf("expected createdBy alice got %q", created.CreatedBy)
	}
	if len(f.edges.edges) != 1 {
		t.Fatalf("expected 1 stored edge got %d", len(f.edges.edges))
	}
}

func TestCreateRelationshipUnauthorized(t *testing.T) {
	f := newFixture(person("p1", "Ama"), person("p2", "Kofi"))

	res := f.request(http.MethodPost, "/api/v1/relationships", kindred.Edge{
		Type:        kindred.EdgeParent,
		PersonOneID: kindred.PersonID{Value: "p1"},
		PersonTwoID: kindred.PersonID{Value: "p2"},
	}, "")

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
	if len(f.edges.edges) != 0 {
		t.Fatalf("expected no stored edges")
	}
}

func TestCreateRelationshipRejectsSelfLink(t *testing.T) {
	f := newFixture(person("p1", "Ama"))

	res := f.request(http.MethodPost, "/api/v1/relationships", kindred.Edge{
		Type:        kindred.EdgeSpouse,
		PersonOneID: kindred.PersonID{Value: "p1"},
		PersonTwoID: kindred.PersonID{Value: "p1"},
	}, "session-alice")

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestCreateRelationshipUnknownEndpoint(t *testing.T) {
	f := newFixture(person("p1", "Ama"))

	res := f.request(http.MethodPost, "/api/v1/relationships", kindred.Edge{
		Type:        kindred.EdgeSpouse,
		PersonOneID: kindred.PersonID{Value: "p1"},
		PersonTwoID: kindred.PersonID{Value: "ghost"},
	}, "session-alice")

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestListPeopleComposesAdjacency(t *testing.T) {
	f := newFixture(person("p1", "Ama"), person("p2", "Kofi"))

	res := f.request(http.MethodPost, "/api/v1/relationships", kindred.Edge{
		Type:        kindred.EdgeParent,
		PersonOneID: kindred.PersonID{Value: "p1"},
		PersonTwoID: kindred.PersonID{Value: "p2"},
	}, "session-alice")
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", res.Code)
	}

	res = f.request(http.MethodGet, "/api/v1/people", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var people []kindred.Person
	if err := json.Unmarshal(res.Body.Bytes(), &people); err != nil {
		t.Fatal(err)
	}

	byID := map[string]kindred.Person{}
	for _, p := range people {
		byID[p.ID.Value] = p
	}
	if len(byID["p1"].ChildIDs) != 1 || byID["p1"].ChildIDs[0].Value != "p2" {
		t.Fatalf("expected p1 to list p2 as child, got %v", byID["p1"].ChildIDs)
	}
	if len(byID["p2"].ParentIDs) != 1 || byID["p2"].ParentIDs[0].Value != "p1" {
		t.Fatalf("expected p2 to list p1 as parent, got %v", byID["p2"].ParentIDs)
	}
}

func TestGetPersonNotFound(t *testing.T) {
	f := newFixture()

	res := f.request(http.MethodGet, "/api/v1/people/ghost", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", res.Code)
	}
}

func TestCreatePersonRequiresName(t *testing.T) {
	f := newFixture()

	res := f.request(http.MethodPost, "/api/v1/people", kindred.Person{}, "session-alice")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestHidePerson(t *testing.T) {
	f := newFixture(person("p1", "Ama"))

	res := f.request(http.MethodDelete, "/api/v1/people/p1", nil, "session-alice")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	res = f.request(http.MethodGet, "/api/v1/people/p1", nil, "")
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected hidden person to read as 404, got %d", res.Code)
	}
}

func TestListUpdatesRequiresWall(t *testing.T) {
	f := newFixture()

	res := f.request(http.MethodGet, "/api/v1/updates", nil, "")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestCreateUpdateSetsAuthor(t *testing.T) {
	f := newFixture(person("p1", "Ama"))

	res := f.request(http.MethodPost, "/api/v1/updates", kindred.Update{
		WallID:   kindred.PersonID{Value: "p1"},
		PhotoURL: "https://example.com/reunion.jpg",
		Caption:  "family reunion",
	}, "session-alice")

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}

	var created kindred.Update
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.AuthorID.Value != "alice" {
		t.Fatalf("expected author alice got %q", created.AuthorID.Value)
	}
}

func TestCreateInvitationForPlaceholder(t *testing.T) {
	f := newFixture(person("p1", "Great Grandma Efua"))

	res := f.request(http.MethodPost, "/api/v1/invitations", invitationRequest{PersonID: "p1"}, "session-alice")
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}

	var created kindred.InvitationLink
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Token == "" {
		t.Fatalf("expected invitation token")
	}

	res = f.request(http.MethodGet, "/api/v1/invitations/"+created.Token, nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
}

func TestCreateInvitationRejectsLinkedProfile(t *testing.T) {
	account := "acct-1"
	linked := person("p1", "Ama")
	linked.AccountID = &account
	f := newFixture(linked)

	res := f.request(http.MethodPost, "/api/v1/invitations", invitationRequest{PersonID: "p1"}, "session-alice")
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestBlockAndList(t *testing.T) {
	f := newFixture(person("p1", "Ama"))

	res := f.request(http.MethodPost, "/api/v1/blocks", kindred.BlockRecord{
		BlockedID: kindred.PersonID{Value: "p1"},
	}, "session-alice")
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", res.Code, res.Body.String())
	}

	res = f.request(http.MethodGet, "/api/v1/blocks", nil, "session-alice")
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var blocks []kindred.BlockRecord
	if err := json.Unmarshal(res.Body.Bytes(), &blocks); err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].BlockedID.Value != "p1" {
		t.Fatalf("expected one block of p1, got %v", blocks)
	}
}
