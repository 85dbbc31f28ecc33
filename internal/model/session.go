package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Session status values. Cancelled sessions stay in the catalog so
// historical reports keep their denominator.
const (
	SessionScheduled = "scheduled"
	SessionCancelled = "cancelled"
	SessionFinished  = "finished"
)

// Session represents one screening of a movie in a room at a given
// time. It is the root entity of the revenue report: the report walks
// Session → Room, Session → Movie and Session → Tickets → Payments.
//
// Fields:
//  ID               – primary key identifier.
//  MovieID          – movie being screened.
//  RoomID           – room hosting the screening.
//  StartTime        – when the screening begins.
//  ExhibitionType   – projection format (2D, 3D, IMAX, ...).
//  AudioLanguage    – spoken language of the screening.
//  SubtitleLanguage – subtitle language, empty when none.
//  Status           – scheduled, cancelled or finished.
//  BasePrice        – reference ticket price before type discounts.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Session struct {
	ID               uint64          `json:"id"`                // sessions.id
	MovieID          uint64          `json:"movie_id"`          // sessions.movie_id
	RoomID           uint64          `json:"room_id"`           // sessions.room_id
	StartTime        time.Time       `json:"start_time"`        // sessions.start_time
	ExhibitionType   string          `json:"exhibition_type"`   // sessions.exhibition_type
	AudioLanguage    string          `json:"audio_language"`    // sessions.audio_language
	SubtitleLanguage string          `json:"subtitle_language"` // sessions.subtitle_language
	Status           string          `json:"status"`            // sessions.status
	BasePrice        decimal.Decimal `json:"base_price"`        // sessions.base_price
	CreatedAt        time.Time       `json:"created_at"`        // sessions.created_at
	UpdatedAt        time.Time       `json:"updated_at"`        // sessions.updated_at
}

// EntityID implements store.Record.
func (s *Session) EntityID() uint64 { return s.ID }

var _ store.Record = (*Session)(nil)
