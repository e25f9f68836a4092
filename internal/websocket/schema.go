package websocket

import (
	"time"

	"github.com/stemsi/marksheet-backend/internal/marks"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionView Action = "view"
	ActionPing Action = "ping"
)

// Request is any client message. Search, Sort and Dir are only read for "view".
type Request struct {
	Action Action `json:"action"`
	Search string `json:"search"`
	Sort   string `json:"sort"`
	Dir    string `json:"dir"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse replaces the client's whole marksheet state.
type SnapshotResponse struct {
	Event    Event           `json:"event"`
	Students []model.Student `json:"students"`
	Subjects []model.Subject `json:"subjects"`
	Query    marks.ViewQuery `json:"query"`
	At       time.Time       `json:"at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
