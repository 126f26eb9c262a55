package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Platform talks to the chat platform's REST API. It implements
// Dispatcher over plain HTTP so the bot core stays transport-agnostic.
type Platform struct {
	baseURL       string
	token         string
	publicChannel string
	client        *http.Client
	log           *zap.Logger
}

// NewPlatform creates a Platform dispatcher. publicChannel is the handle
// of the community-wide announcement channel.
func NewPlatform(baseURL, token, publicChannel string, log *zap.Logger) *Platform {
	return &Platform{
		baseURL:       baseURL,
		token:         token,
		publicChannel: publicChannel,
		client:        &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

type createChannelRequest struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Secret bool   `json:"secret"`
}

type createChannelResponse struct {
	ID string `json:"id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type setAccessRequest struct {
	Allowed bool `json:"allowed"`
}

// CreateResources provisions a text channel named after the label and a
// companion voice channel.
func (p *Platform) CreateResources(ctx context.Context, label string, secret bool) (string, string, error) {
	var discussion createChannelResponse
	err := p.do(ctx, http.MethodPost, "/channels", createChannelRequest{Name: label, Kind: "text", Secret: secret}, &discussion)
	if err != nil {
		return "", "", fmt.Errorf("create discussion channel: %w", err)
	}

	var live createChannelResponse
	err = p.do(ctx, http.MethodPost, "/channels", createChannelRequest{Name: label + "-voice", Kind: "voice", Secret: secret}, &live)
	if err != nil {
		// Leave the discussion channel standing; the expiry sweep
		// cleans up whatever handles the group ends up holding.
		p.log.Warn("voice channel creation failed", zap.String("label", label), zap.Error(err))
		return discussion.ID, "", fmt.Errorf("create live channel: %w", err)
	}

	return discussion.ID, live.ID, nil
}

// DestroyResources deletes both channels. Each deletion is attempted
// even if the other fails.
func (p *Platform) DestroyResources(ctx context.Context, discussion, live string) error {
	var firstErr error
	for _, handle := range []string{discussion, live} {
		if handle == "" {
			continue
		}
		if err := p.do(ctx, http.MethodDelete, "/channels/"+url.PathEscape(handle), nil, nil); err != nil {
			p.log.Warn("channel deletion failed", zap.String("handle", handle), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Announce posts a message to the resolved destination.
func (p *Platform) Announce(ctx context.Context, aud Audience, text string) error {
	var path string
	switch aud.Kind {
	case AudiencePublicChannel:
		path = "/channels/" + url.PathEscape(p.publicChannel) + "/messages"
	case AudienceGroupChannel:
		path = "/channels/" + url.PathEscape(aud.Target) + "/messages"
	case AudienceDirectMessage:
		path = "/users/" + url.PathEscape(aud.Target) + "/messages"
	default:
		return fmt.Errorf("unknown audience kind: %s", aud.Kind)
	}
	return p.do(ctx, http.MethodPost, path, sendMessageRequest{Content: text}, nil)
}

// SetMemberAccess grants or revokes a user's access to a channel.
func (p *Platform) SetMemberAccess(ctx context.Context, handle, userID string, allowed bool) error {
	path := "/channels/" + url.PathEscape(handle) + "/permissions/" + url.PathEscape(userID)
	return p.do(ctx, http.MethodPut, path, setAccessRequest{Allowed: allowed}, nil)
}

func (p *Platform) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bot "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}
