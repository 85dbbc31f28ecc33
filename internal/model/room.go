package model

import (
	"time"

	"github.com/Jaum1981/cinema-analytics-api/internal/store"
)

// Room represents a screening room. Capacity drives the occupancy rate
// in the revenue report, so it must be positive.
type Room struct {
	ID          uint64    `json:"id"`           // rooms.id
	Name        string    `json:"name"`         // rooms.name
	Capacity    uint32    `json:"capacity"`     // rooms.capacity
	ScreenType  string    `json:"screen_type"`  // rooms.screen_type
	AudioSystem string    `json:"audio_system"` // rooms.audio_system
	Accessible  bool      `json:"accessible"`   // rooms.accessible
	CreatedAt   time.Time `json:"created_at"`   // rooms.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // rooms.updated_at
}

// EntityID implements store.Record.
func (r *Room) EntityID() uint64 { return r.ID }

var _ store.Record = (*Room)(nil)
