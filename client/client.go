// Package client is the HTTP adapter for the hosted kindred backend. It
// implements the store's Remote boundary and does the field mapping between
// wire rows (plain string ids) and the client types (tagged PersonIDs).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	kindred "github.com/kindredapp/kindred-go"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	client  *http.Client
	cache   *cache.Cache
	baseURL string
	token   string
}

// New builds a client for the backend at baseURL. token is the bearer
// session used to attribute writes; reads work without one.
func New(baseURL, token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: defaultTimeout},
		cache:   cache.New(5*time.Minute, 10*time.Minute),
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}
	return nil
}

// --- wire shapes ---

type personDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	BirthDate  *string  `json:"birthDate,omitempty"`
	DeathDate  *string  `json:"deathDate,omitempty"`
	Gender     *string  `json:"gender,omitempty"`
	PhotoURL   *string  `json:"photoUrl,omitempty"`
	Biography  *string  `json:"biography,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	ParentIDs  []string `json:"parentIds"`
	SpouseIDs  []string `json:"spouseIds"`
	ChildIDs   []string `json:"childIds"`
	SiblingIDs []string `json:"siblingIds"`
	AccountID  *string  `json:"accountId,omitempty"`
	Hidden     bool     `json:"hidden,omitempty"`
	Version    int64    `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type edgeDTO struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	PersonOneID string `json:"personOneId"`
	PersonTwoID string `json:"personTwoId"`
	CreatedBy   string `json:"createdBy,omitempty"`
}

func toWireIDs(ids []kindred.PersonID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id.Temporary {
			// temporary ids never leave the client
			continue
		}
		out = append(out, id.Value)
	}
	return out
}

func fromWireIDs(ids []string) []kindred.PersonID {
	out := make([]kindred.PersonID, len(ids))
	for i, id := range ids {
		out[i] = kindred.ConfirmedID(id)
	}
	return out
}

func toDTO(p kindred.Person) personDTO {
	var gender *string
	if p.Gender != nil {
		g := string(*p.Gender)
		gender = &g
	}
	dto := personDTO{
		Name:       p.Name,
		BirthDate:  p.BirthDate,
		DeathDate:  p.DeathDate,
		Gender:     gender,
		PhotoURL:   p.PhotoURL,
		Biography:  p.Biography,
		Phone:      p.Phone,
		ParentIDs:  toWireIDs(p.ParentIDs),
		SpouseIDs:  toWireIDs(p.SpouseIDs),
		ChildIDs:   toWireIDs(p.ChildIDs),
		SiblingIDs: toWireIDs(p.SiblingIDs),
		AccountID:  p.AccountID,
		Hidden:     p.Hidden,
		Version:    p.Version,
	}
	if !p.ID.Temporary {
		dto.ID = p.ID.Value
	}
	return dto
}

func fromDTO(dto personDTO) kindred.Person {
	var gender *kindred.Gender
	if dto.Gender != nil {
		g := kindred.Gender(*dto.Gender)
		gender = &g
	}
	return kindred.Person{
		ID:         kindred.ConfirmedID(dto.ID),
		Name:       dto.Name,
		BirthDate:  dto.BirthDate,
		DeathDate:  dto.DeathDate,
		Gender:     gender,
		PhotoURL:   dto.PhotoURL,
		Biography:  dto.Biography,
		Phone:      dto.Phone,
		ParentIDs:  fromWireIDs(dto.ParentIDs),
		SpouseIDs:  fromWireIDs(dto.SpouseIDs),
		ChildIDs:   fromWireIDs(dto.ChildIDs),
		SiblingIDs: fromWireIDs(dto.SiblingIDs),
		AccountID:  dto.AccountID,
		Hidden:     dto.Hidden,
		Version:    dto.Version,
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
	}
}

// --- store.Remote ---

func (c *Client) FetchPeople(ctx context.Context) ([]kindred.Person, error) {
	var dtos []personDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/people", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to fetch people: %v", err)
	}
	people := make([]kindred.Person, len(dtos))
	for i, dto := range dtos {
		people[i] = fromDTO(dto)
	}
	return people, nil
}

func (c *Client) FetchEdges(ctx context.Context) ([]kindred.Edge, error) {
	var dtos []edgeDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/relationships", nil, &dtos); err != nil {
		return nil, fmt.Errorf("failed to fetch relationships: %v", err)
	}
	edges := make([]kindred.Edge, len(dtos))
	for i, dto := range dtos {
		edges[i] = kindred.Edge{
			ID:          dto.ID,
			Type:        kindred.EdgeType(dto.Type),
			PersonOneID: kindred.ConfirmedID(dto.PersonOneID),
			PersonTwoID: kindred.ConfirmedID(dto.PersonTwoID),
			CreatedBy:   dto.CreatedBy,
		}
	}
	return edges, nil
}

func (c *Client) CreatePerson(ctx context.Context, actorID string, person kindred.Person) (kindred.Person, error) {
	var created personDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/people", toDTO(person), &created); err != nil {
		return kindred.Person{}, fmt.Errorf("failed to create person: %v", err)
	}
	return fromDTO(created), nil
}

func (c *Client) UpdatePerson(ctx context.Context, actorID string, person kindred.Person) (kindred.Person, error) {
	if person.ID.Temporary {
		return kindred.Person{}, fmt.Errorf("cannot update a person with a temporary id")
	}
	var updated personDTO
	if err := c.do(ctx, http.MethodPut, "/api/v1/people/"+person.ID.Value, toDTO(person), &updated); err != nil {
		return kindred.Person{}, fmt.Errorf("failed to update person: %v", err)
	}
	c.cache.Delete("person:" + person.ID.Value)
	return fromDTO(updated), nil
}

func (c *Client) CreateEdge(ctx context.Context, actorID string, edge kindred.Edge) (string, error) {
	req := edgeDTO{
		Type:        string(edge.Type),
		PersonOneID: edge.PersonOneID.Value,
		PersonTwoID: edge.PersonTwoID.Value,
	}
	var created edgeDTO
	if err := c.do(ctx, http.MethodPost, "/api/v1/relationships", req, &created); err != nil {
		return "", fmt.Errorf("failed to create relationship: %v", err)
	}
	return created.ID, nil
}

func (c *Client) DeleteEdge(ctx context.Context, edgeID string, actorID string) error {
	if err := c.do(ctx, http.MethodDelete, "/api/v1/relationships/"+edgeID, nil, nil); err != nil {
		return fmt.Errorf("failed to delete relationship: %v", err)
	}
	return nil
}

// GetPerson fetches one person, served from the read cache when warm.
func (c *Client) GetPerson(ctx context.Context, id kindred.PersonID) (kindred.Person, error) {
	cacheKey := "person:" + id.Value
	if x, found := c.cache.Get(cacheKey); found {
		return x.(kindred.Person), nil
	}

	var dto personDTO
	if err := c.do(ctx, http.MethodGet, "/api/v1/people/"+id.Value, nil, &dto); err != nil {
		return kindred.Person{}, fmt.Errorf("failed to get person: %v", err)
	}

	person := fromDTO(dto)
	c.cache.Set(cacheKey, person, cache.DefaultExpiration)
	return person, nil
}

// --- wall updates, moderation, invitations (opaque pass-through) ---

func (c *Client) CreateUpdate(ctx context.Context, update kindred.Update) (kindred.Update, error) {
	var created kindred.Update
	if err := c.do(ctx, http.MethodPost, "/api/v1/updates", update, &created); err != nil {
		return kindred.Update{}, fmt.Errorf("failed to create update: %v", err)
	}
	return created, nil
}

func (c *Client) ListUpdates(ctx context.Context, wallID kindred.PersonID) ([]kindred.Update, error) {
	var updates []kindred.Update
	if err := c.do(ctx, http.MethodGet, "/api/v1/updates?wall="+wallID.Value, nil, &updates); err != nil {
		return nil, fmt.Errorf("failed to list updates: %v", err)
	}
	return updates, nil
}

func (c *Client) CreateBlock(ctx context.Context, block kindred.BlockRecord) (kindred.BlockRecord, error) {
	var created kindred.BlockRecord
	if err := c.do(ctx, http.MethodPost, "/api/v1/blocks", block, &created); err != nil {
		return kindred.BlockRecord{}, fmt.Errorf("failed to create block: %v", err)
	}
	return created, nil
}

// ListBlockedIDs resolves the hidden-person set for the acting account.
func (c *Client) ListBlockedIDs(ctx context.Context) ([]kindred.PersonID, error) {
	var blocks []kindred.BlockRecord
	if err := c.do(ctx, http.MethodGet, "/api/v1/blocks", nil, &blocks); err != nil {
		return nil, fmt.Errorf("failed to list blocks: %v", err)
	}
	ids := make([]kindred.PersonID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	return ids, nil
}

func (c *Client) CreateInvitation(ctx context.Context, personID kindred.PersonID) (kindred.InvitationLink, error) {
	body := map[string]string{"personId": personID.Value}
	var created kindred.InvitationLink
	if err := c.do(ctx, http.MethodPost, "/api/v1/invitations", body, &created); err != nil {
		return kindred.InvitationLink{}, fmt.Errorf("failed to create invitation: %v", err)
	}
	return created, nil
}
