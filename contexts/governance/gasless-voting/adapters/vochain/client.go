// Package vochain binds the account, census, election and ballot ports to
// the voting backend's JSON HTTP APIs.
package vochain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"daoboard/contexts/governance/gasless-voting/domain/entities"
	domainerrors "daoboard/contexts/governance/gasless-voting/domain/errors"
	"daoboard/contexts/governance/gasless-voting/ports"
)

// Client talks to the voting backend (accounts, elections, ballots) and the
// census indexer. It is stateful the same way the backend's own SDK client
// is: SetElectionID binds the target election for subsequent vote
// submissions.
type Client struct {
	apiURL    string
	censusURL string
	// accountAddress identifies the organization's voting account on the
	// backend; the backend derives it from the organization's signing key.
	accountAddress string

	httpClient *http.Client
	logger     *slog.Logger

	mu            sync.Mutex
	boundElection string
}

type Config struct {
	APIURL         string
	CensusURL      string
	AccountAddress string
	Timeout        time.Duration
	Logger         *slog.Logger
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		apiURL:         strings.TrimRight(cfg.APIURL, "/"),
		censusURL:      strings.TrimRight(cfg.CensusURL, "/"),
		accountAddress: strings.TrimSpace(cfg.AccountAddress),
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		logger:         cfg.Logger,
	}
}

type accountPayload struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

func (p accountPayload) toEntity() entities.Account {
	return entities.Account{Address: p.Address, Balance: p.Balance}
}

func (c *Client) FetchAccountInfo(ctx context.Context) (entities.Account, error) {
	var payload accountPayload
	err := c.doJSON(ctx, http.MethodGet, c.apiURL+"/accounts/"+c.accountAddress, nil, &payload)
	if err != nil {
		if isNotFound(err) {
			return entities.Account{}, domainerrors.ErrAccountNotFound
		}
		return entities.Account{}, err
	}
	return payload.toEntity(), nil
}

func (c *Client) CreateAccount(ctx context.Context) (entities.Account, error) {
	var payload accountPayload
	body := map[string]string{"address": c.accountAddress}
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/accounts", body, &payload); err != nil {
		return entities.Account{}, err
	}
	return payload.toEntity(), nil
}

func (c *Client) CollectFaucetTokens(ctx context.Context) (entities.Account, error) {
	var payload accountPayload
	err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/faucet/"+c.accountAddress, nil, &payload)
	if err != nil {
		return entities.Account{}, err
	}
	return payload.toEntity(), nil
}

func (c *Client) GetToken(ctx context.Context, address string) (entities.CensusToken, error) {
	var payload struct {
		Address         string `json:"address"`
		DefaultStrategy uint64 `json:"defaultStrategy"`
		Status          struct {
			Synced bool `json:"synced"`
		} `json:"status"`
	}
	url := c.censusURL + "/tokens/" + strings.TrimSpace(address)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &payload); err != nil {
		return entities.CensusToken{}, err
	}
	return entities.CensusToken{
		Address:         payload.Address,
		DefaultStrategy: payload.DefaultStrategy,
		Synced:          payload.Status.Synced,
	}, nil
}

func (c *Client) CreateCensus(ctx context.Context, strategy uint64) (entities.Census, error) {
	var payload struct {
		MerkleRoot string `json:"merkleRoot"`
		URI        string `json:"uri"`
		Size       uint64 `json:"size"`
		Weight     string `json:"weight"`
		Anonymous  bool   `json:"anonymous"`
	}
	body := map[string]uint64{"strategyId": strategy}
	if err := c.doJSON(ctx, http.MethodPost, c.censusURL+"/censuses", body, &payload); err != nil {
		return entities.Census{}, err
	}
	return entities.Census{
		MerkleRoot: payload.MerkleRoot,
		URI:        payload.URI,
		Size:       payload.Size,
		Weight:     payload.Weight,
		Anonymous:  payload.Anonymous,
	}, nil
}

func (c *Client) CalculateElectionCost(ctx context.Context, spec entities.ElectionSpec) (uint64, error) {
	var payload struct {
		Cost uint64 `json:"cost"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/elections/cost", electionPayload(spec), &payload); err != nil {
		return 0, err
	}
	return payload.Cost, nil
}

func (c *Client) CreateElection(ctx context.Context, spec entities.ElectionSpec) (string, error) {
	var payload struct {
		ElectionID string `json:"electionId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.apiURL+"/elections", electionPayload(spec), &payload); err != nil {
		return "", err
	}
	return payload.ElectionID, nil
}

func (c *Client) SetElectionID(_ context.Context, electionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.boundElection = strings.TrimSpace(electionID)
	return nil
}

func (c *Client) SubmitVote(ctx context.Context, ballot entities.Ballot) (string, error) {
	c.mu.Lock()
	electionID := c.boundElection
	c.mu.Unlock()
	if electionID == "" {
		return "", domainerrors.ErrNoElectionBound
	}

	var payload struct {
		VoteID string `json:"voteId"`
	}
	body := map[string]any{"choices": ballot.Choices}
	url := c.apiURL + "/elections/" + electionID + "/votes"
	if err := c.doJSON(ctx, http.MethodPost, url, body, &payload); err != nil {
		return "", err
	}
	return payload.VoteID, nil
}

func (c *Client) HasAlreadyVoted(ctx context.Context, electionID string) (bool, error) {
	url := c.apiURL + "/elections/" + strings.TrimSpace(electionID) + "/votes/" + c.accountAddress
	err := c.doJSON(ctx, http.MethodGet, url, nil, &struct{}{})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// electionPayload flattens the spec into the wire shape the backend expects.
func electionPayload(spec entities.ElectionSpec) map[string]any {
	questions := make([]map[string]any, 0, len(spec.Questions))
	for _, question := range spec.Questions {
		choices := make([]map[string]any, 0, len(question.Choices))
		for _, choice := range question.Choices {
			choices = append(choices, map[string]any{
				"title": choice.Title,
				"value": choice.Value,
			})
		}
		questions = append(questions, map[string]any{
			"title":       question.Title,
			"description": question.Description,
			"choices":     choices,
		})
	}
	payload := map[string]any{
		"title":       spec.Title,
		"description": spec.Description,
		"endDate":     spec.EndDate.UTC().Format(time.RFC3339),
		"census": map[string]any{
			"merkleRoot": spec.Census.MerkleRoot,
			"uri":        spec.Census.URI,
			"size":       spec.Census.Size,
			"weight":     spec.Census.Weight,
			"anonymous":  spec.Census.Anonymous,
		},
		"maxCensusSize": spec.Census.Size,
		"questions":     questions,
	}
	if !spec.StartDate.IsZero() {
		payload["startDate"] = spec.StartDate.UTC().Format(time.RFC3339)
	}
	return payload
}

// apiError is the backend's error body, carried so callers can classify
// responses with errors.As.
type apiError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("voting backend: %s (%d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("voting backend: status %d", e.StatusCode)
}

func isNotFound(err error) bool {
	var backendErr *apiError
	if !errors.As(err, &backendErr) {
		return false
	}
	return backendErr.StatusCode == http.StatusNotFound || backendErr.Code == "account_not_found"
}

func (c *Client) doJSON(ctx context.Context, method string, url string, in any, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		backendErr := &apiError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(backendErr)
		c.logger.Warn("voting backend request failed",
			"event", "gasless_backend_request_failed",
			"module", "governance/gasless-voting",
			"layer", "adapter",
			"method", method,
			"url", url,
			"status", resp.StatusCode,
			"code", backendErr.Code,
		)
		return backendErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ ports.AccountService = (*Client)(nil)
var _ ports.CensusService = (*Client)(nil)
var _ ports.ElectionService = (*Client)(nil)
var _ ports.BallotService = (*Client)(nil)
