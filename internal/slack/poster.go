package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/counsel/internal/extractor"
	"github.com/MikeSquared-Agency/counsel/internal/session"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster posts session digests to a counselors' Slack channel.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger.With("component", "slack"),
	}
}

// PostSessionDigest posts a short review of a processed session.
// Returns the message timestamp (ts).
func (p *Poster) PostSessionDigest(ctx context.Context, s *session.Summary, takeaways extractor.Takeaways, emailSent bool) (string, error) {
	text := formatDigest(s, takeaways, emailSent)

	ts, err := p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": fmt.Sprintf("Session `%s`", s.SessionID),
					},
				},
			},
		},
	})
	if err != nil {
		return "", err
	}

	p.logger.Info("posted session digest to slack", "ts", ts, "session_id", s.SessionID)
	return ts, nil
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatDigest(s *session.Summary, takeaways extractor.Takeaways, emailSent bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Session:* %s (%s)\n", s.StudentName, s.Date.Format("January 02, 2006"))

	for _, c := range []session.Category{session.CategoryCareerGoal, session.CategoryActionItem} {
		items := takeaways.Items(c)
		label := categoryLabel(c)
		if takeaways.Outcome(c).Status == extractor.Empty {
			fmt.Fprintf(&sb, "*%s:* _none extracted_\n", label)
			continue
		}
		fmt.Fprintf(&sb, "*%s: %d*\n", label, len(items))
		for i, item := range items {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, item)
		}
	}

	if emailSent {
		sb.WriteString("\n:email: Follow-up email sent")
	} else {
		sb.WriteString("\n:memo: Follow-up email not sent")
	}

	return sb.String()
}

func categoryLabel(c session.Category) string {
	switch c {
	case session.CategoryCareerGoal:
		return "Career goals"
	case session.CategoryActionItem:
		return "Action items"
	default:
		return string(c)
	}
}
