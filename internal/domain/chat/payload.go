package chat

import (
	"database/sql"
	"net/url"
	"strings"

	studio_errors "uniform-studio/pkg/errors"
)

// Payload is the body of a message being sent: either TextPayload or ImagePayload.
type Payload interface {
	Kind() string
	Validate() error
	apply(m *Message)
}

const (
	KindText  = "text"
	KindImage = "image"
)

type TextPayload struct {
	Text string
}

func (TextPayload) Kind() string { return KindText }

func (p TextPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return studio_errors.ErrInvalidInput
	}
	return nil
}

func (p TextPayload) apply(m *Message) {
	m.Text = sql.NullString{String: p.Text, Valid: true}
}

type ImagePayload struct {
	ImageURL string
}

func (ImagePayload) Kind() string { return KindImage }

func (p ImagePayload) Validate() error {
	u, err := url.Parse(strings.TrimSpace(p.ImageURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return studio_errors.ErrInvalidInput
	}
	return nil
}

func (p ImagePayload) apply(m *Message) {
	m.ImageURL = sql.NullString{String: strings.TrimSpace(p.ImageURL), Valid: true}
}

// Apply copies the payload body onto m.
func Apply(p Payload, m *Message) {
	p.apply(m)
}
