package domain

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

// EventType identifies a lifecycle notification
type EventType string

const (
	EventGameCreated    EventType = "game_created"
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerWithdrew EventType = "player_withdrew"
	EventGameStarted    EventType = "game_started"
	EventGameEnded      EventType = "game_ended"
	EventGameCancelled  EventType = "game_cancelled"
)

// GameEvent is emitted exactly once per successful mutating operation,
// never on a failed or aborted one.
type GameEvent struct {
	EventID     string    `json:"event_id"`
	Type        EventType `json:"type"`
	GameID      int64     `json:"game_id"`
	Player      int64     `json:"player,omitempty"`
	Stake       int64     `json:"stake,omitempty"`
	TotalStaked int64     `json:"total_staked"`
	Winner      int64     `json:"winner,omitempty"`
	Draw        bool      `json:"draw,omitempty"`
	Time        time.Time `json:"time"`
}

var (
	node *snowflake.Node
	once sync.Once
)

func initSnowflake() {
	var err error
	// TODO: take the node ID from config once the engine runs multi-instance
	node, err = snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
}

// NewEventID generates a unique snowflake id for events and payout orders
func NewEventID() string {
	once.Do(initSnowflake)
	return node.Generate().String()
}

// NewGameEvent creates an event for the given game
func NewGameEvent(eventType EventType, g *Game) *GameEvent {
	return &GameEvent{
		EventID:     NewEventID(),
		Type:        eventType,
		GameID:      g.ID,
		Stake:       g.Stake,
		TotalStaked: g.TotalStaked,
		Time:        time.Now(),
	}
}
