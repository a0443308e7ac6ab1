package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandoncintron/power-projects-sub000/internal/metrics"
	"github.com/brandoncintron/power-projects-sub000/internal/models"
	"github.com/brandoncintron/power-projects-sub000/internal/store"
)

// WebhookService verifies GitHub webhook deliveries and normalizes their
// payloads into activity records. Each delivery carries a unique
// X-GitHub-Delivery id which becomes the dedup key for the activity.
type WebhookService struct {
	store      *store.Store
	activities *ActivityService
	metrics    metrics.Recorder
}

// NewWebhookService creates a new webhook service
func NewWebhookService(s *store.Store, activities *ActivityService, recorder metrics.Recorder) *WebhookService {
	if recorder == nil {
		recorder = metrics.NewNoopMetrics()
	}
	return &WebhookService{
		store:      s,
		activities: activities,
		metrics:    recorder,
	}
}

// VerifySignature checks the X-Hub-Signature-256 header against the raw
// request body using the connection's shared secret.
func (s *WebhookService) VerifySignature(secret string, body []byte, signature string) error {
	const prefix = "sha256="
	if !strings.HasPrefix(signature, prefix) {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.TrimPrefix(signature, prefix))) {
		return ErrInvalidSignature
	}
	return nil
}

// Process verifies a delivery for the project's repository connection,
// normalizes it, and records the resulting activity. Duplicate deliveries
// are acknowledged without producing a new record.
func (s *WebhookService) Process(projectID, eventName, deliveryID, signature string, body []byte) (*models.Activity, error) {
	conn, err := s.store.GetRepositoryConnection(projectID)
	if err != nil {
		return nil, err
	}

	if err := s.VerifySignature(conn.WebhookSecret, body, signature); err != nil {
		s.metrics.RecordWebhookDelivery(eventName, false)
		return nil, err
	}

	input, err := s.Normalize(projectID, eventName, deliveryID, body)
	if err != nil {
		s.metrics.RecordWebhookDelivery(eventName, false)
		return nil, err
	}

	activity, err := s.activities.Record(*input)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEvent) {
			s.metrics.RecordWebhookDelivery(eventName, true)
			return nil, err
		}
		s.metrics.RecordWebhookDelivery(eventName, false)
		return nil, err
	}
	s.metrics.RecordWebhookDelivery(eventName, true)

	now := time.Now().UTC()
	conn.LastDeliveryAt = &now
	if updateErr := s.store.UpdateRepositoryConnection(conn); updateErr != nil {
		// delivery already recorded, stale timestamp is tolerable
		return activity, nil
	}
	return activity, nil
}

type webhookSender struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
}

type pushPayload struct {
	Ref     string `json:"ref"`
	Compare string `json:"compare"`
	Commits []struct {
		Message string `json:"message"`
	} `json:"commits"`
	Repository struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
	} `json:"repository"`
	Sender webhookSender `json:"sender"`
}

type pullRequestPayload struct {
	Action      string `json:"action"`
	Number      int    `json:"number"`
	PullRequest struct {
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		Merged  bool   `json:"merged"`
		Head    struct {
			Ref string `json:"ref"`
		} `json:"head"`
	} `json:"pull_request"`
	Sender webhookSender `json:"sender"`
}

type issuesPayload struct {
	Action string `json:"action"`
	Issue  struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
	} `json:"issue"`
	Sender webhookSender `json:"sender"`
}

type issueCommentPayload struct {
	Action string `json:"action"`
	Issue  struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
	} `json:"issue"`
	Comment struct {
		HTMLURL string `json:"html_url"`
		Body    string `json:"body"`
	} `json:"comment"`
	Sender webhookSender `json:"sender"`
}

type starPayload struct {
	Action     string `json:"action"`
	Repository struct {
		FullName string `json:"full_name"`
		HTMLURL  string `json:"html_url"`
	} `json:"repository"`
	Sender webhookSender `json:"sender"`
}

// Normalize maps a raw GitHub event payload to an activity input.
// Unsupported event names return ErrUnsupportedEvent so the caller can
// acknowledge the delivery without recording anything.
func (s *WebhookService) Normalize(projectID, eventName, deliveryID string, body []byte) (*ActivityInput, error) {
	input := &ActivityInput{
		ProjectID:     projectID,
		GithubEventID: deliveryID,
		Timestamp:     time.Now().UTC(),
	}

	switch eventName {
	case "push":
		var p pushPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse push payload: %w", err)
		}
		input.EventType = models.EventPush
		input.ActorUsername = p.Sender.Login
		input.ActorAvatarURL = p.Sender.AvatarURL
		input.Branch = strings.TrimPrefix(p.Ref, "refs/heads/")
		input.TargetURL = p.Compare
		if n := len(p.Commits); n == 1 {
			input.Summary = fmt.Sprintf("pushed 1 commit to %s", input.Branch)
		} else {
			input.Summary = fmt.Sprintf("pushed %d commits to %s", n, input.Branch)
		}

	case "pull_request":
		var p pullRequestPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse pull_request payload: %w", err)
		}
		input.EventType = models.EventPullRequest
		input.ActorUsername = p.Sender.Login
		input.ActorAvatarURL = p.Sender.AvatarURL
		input.TargetURL = p.PullRequest.HTMLURL
		input.Branch = p.PullRequest.Head.Ref
		action := p.Action
		if action == "closed" && p.PullRequest.Merged {
			action = "merged"
		}
		input.Summary = fmt.Sprintf("%s pull request #%d: %s", action, p.Number, p.PullRequest.Title)

	case "issues":
		var p issuesPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse issues payload: %w", err)
		}
		input.EventType = models.EventIssue
		input.ActorUsername = p.Sender.Login
		input.ActorAvatarURL = p.Sender.AvatarURL
		input.TargetURL = p.Issue.HTMLURL
		input.Summary = fmt.Sprintf("%s issue #%d: %s", p.Action, p.Issue.Number, p.Issue.Title)

	case "issue_comment":
		var p issueCommentPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse issue_comment payload: %w", err)
		}
		input.EventType = models.EventComment
		input.ActorUsername = p.Sender.Login
		input.ActorAvatarURL = p.Sender.AvatarURL
		input.TargetURL = p.Comment.HTMLURL
		input.Summary = fmt.Sprintf("commented on issue #%d: %s", p.Issue.Number, p.Issue.Title)

	case "star":
		var p starPayload
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse star payload: %w", err)
		}
		if p.Action != "created" {
			return nil, ErrUnsupportedEvent
		}
		input.EventType = models.EventStar
		input.ActorUsername = p.Sender.Login
		input.ActorAvatarURL = p.Sender.AvatarURL
		input.TargetURL = p.Repository.HTMLURL
		input.Summary = fmt.Sprintf("starred %s", p.Repository.FullName)

	default:
		return nil, ErrUnsupportedEvent
	}

	return input, nil
}
