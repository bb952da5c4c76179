package generationService

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"perfectTipsBot/config"
	"perfectTipsBot/models"
	"perfectTipsBot/models/external"
)

var ErrOracleResponse = errors.New("oracle returned no usable prediction")

// Oracle produces the prediction content. The engine treats it as a black box.
type Oracle interface {
	Predict(ctx context.Context, req PredictionRequest) (external.Oracle_Prediction, error)
}

// PredictionRequest is everything gathered about a match before asking the oracle.
type PredictionRequest struct {
	Match         models.Match
	Odds          models.MarketOdds
	HeadToHead    []models.MatchResult
	Standings     []models.Standing
	RecentResults []models.MatchResult
}

// ChatOracle calls an OpenAI compatible chat-completions endpoint and asks for
// a JSON object {prediction, confidence, analysis}.
type ChatOracle struct {
	url         string
	apiKey      string
	model       string
	temperature float64
	client      *http.Client
}

func NewChatOracle(cfg config.OracleConfig, client *http.Client) *ChatOracle {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &ChatOracle{
		url:         cfg.URL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      client,
	}
}

const systemPrompt = `You are a football analyst. Pick exactly one market for the match.
Allowed prediction codes: "1", "X", "2", "1X", "X2", "12", "Over N.5", "Under N.5", "Goal", "No Goal",
"<1|X|2|1X|X2|12> + Over N.5", "<...> + Under N.5", "Corners Over N.5", "Corners Under N.5",
"Cards Over N.5", "Cards Under N.5". Only use lines that appear in the odds provided.
Answer with a JSON object: {"prediction": string, "confidence": integer 0-100, "analysis": string}.`

func (o *ChatOracle) Predict(ctx context.Context, req PredictionRequest) (external.Oracle_Prediction, error) {
	var prediction external.Oracle_Prediction

	body := external.Oracle_Request{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []external.Oracle_Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(req)},
		},
		ResponseFormat: &struct {
			Type string `json:"type"`
		}{Type: "json_object"},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return prediction, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url, bytes.NewReader(payload))
	if err != nil {
		return prediction, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return prediction, fmt.Errorf("oracle request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return prediction, fmt.Errorf("oracle read: %w", err)
	}

	var completion external.Oracle_Response
	if err := json.Unmarshal(raw, &completion); err != nil {
		return prediction, fmt.Errorf("oracle status %d: %w", resp.StatusCode, err)
	}
	if completion.Error != nil {
		return prediction, fmt.Errorf("%w: %s", ErrOracleResponse, completion.Error.Message)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return prediction, fmt.Errorf("%w: status %d", ErrOracleResponse, resp.StatusCode)
	}
	if len(completion.Choices) == 0 {
		return prediction, fmt.Errorf("%w: no choices", ErrOracleResponse)
	}

	content := stripCodeFence(completion.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &prediction); err != nil {
		return prediction, fmt.Errorf("%w: %v", ErrOracleResponse, err)
	}
	if strings.TrimSpace(prediction.Prediction) == "" {
		return prediction, fmt.Errorf("%w: empty prediction", ErrOracleResponse)
	}
	return prediction, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// BuildPrompt renders the match context as plain text for the oracle.
func BuildPrompt(req PredictionRequest) string {
	var b strings.Builder
	m := req.Match
	fmt.Fprintf(&b, "Match: %s v %s (%s), kickoff %s\n", m.HomeTeam, m.AwayTeam, m.League, m.KickOff.UTC().Format(time.RFC3339))

	for _, s := range req.Standings {
		if s.Team == m.HomeTeam || s.Team == m.AwayTeam {
			fmt.Fprintf(&b, "Table: %d. %s %d pts in %d, goals %d-%d, form %s\n",
				s.Rank, s.Team, s.Points, s.Played, s.GoalsFor, s.GoalsAgainst, s.Form)
		}
	}

	if len(req.HeadToHead) > 0 {
		b.WriteString("Head to head:\n")
		for _, r := range req.HeadToHead {
			if r.GoalsHome == nil || r.GoalsAway == nil {
				continue
			}
			fmt.Fprintf(&b, "- %s %s %d-%d %s\n", r.KickOff.Format(time.DateOnly), r.HomeTeam, *r.GoalsHome, *r.GoalsAway, r.AwayTeam)
		}
	}

	recent := 0
	for _, r := range req.RecentResults {
		if r.GoalsHome == nil || r.GoalsAway == nil {
			continue
		}
		if r.HomeTeam != m.HomeTeam && r.AwayTeam != m.HomeTeam && r.HomeTeam != m.AwayTeam && r.AwayTeam != m.AwayTeam {
			continue
		}
		if recent == 0 {
			b.WriteString("Recent results:\n")
		}
		recent++
		fmt.Fprintf(&b, "- %s %d-%d %s\n", r.HomeTeam, *r.GoalsHome, *r.GoalsAway, r.AwayTeam)
	}

	b.WriteString("Odds (" + req.Odds.Bookmaker + "):\n")
	for _, market := range []struct {
		name   string
		values []models.OddValue
	}{
		{"1X2", req.Odds.MatchWinner},
		{"Double chance", req.Odds.DoubleChance},
		{"Goals over/under", req.Odds.OverUnder},
		{"Both teams score", req.Odds.BothTeamsScore},
		{"Corners over/under", req.Odds.CornersOverUnder},
		{"Cards over/under", req.Odds.CardsOverUnder},
	} {
		if len(market.values) == 0 {
			continue
		}
		parts := make([]string, 0, len(market.values))
		for _, v := range market.values {
			parts = append(parts, fmt.Sprintf("%s @ %.2f", v.Label, v.Odd))
		}
		fmt.Fprintf(&b, "- %s: %s\n", market.name, strings.Join(parts, ", "))
	}
	return b.String()
}
