package intake

import (
	"fmt"

	"saave-bot/internal/quote"
)

type Step string

const (
	StepLot             Step = "lote"
	StepPrincipalRoom   Step = "habitacion_principal"
	StepAdditionalRooms Step = "habitaciones_adicionales"
	StepRoomBed         Step = "tipo_cama"
	StepRoomBath        Step = "bano_propio"
	StepExtraSpaces     Step = "espacios_adicionales"
	StepName            Step = "nombre"
	StepPhone           Step = "telefono"
	StepEmail           Step = "correo"
	StepDone            Step = "completado"
)

// Session is the per-chat progress through the catalog. It is serialised as
// JSON into the session store between messages.
type Session struct {
	Step            Step            `json:"step"`
	Room            int             `json:"room,omitempty"`
	AdditionalRooms int             `json:"additional_rooms"`
	Responses       quote.Responses `json:"responses"`
	Contact         quote.Contact   `json:"contact"`
	QuoteID         string          `json:"quote_id,omitempty"`
}

func NewSession() *Session {
	return &Session{Step: StepLot}
}

func (s *Session) Done() bool {
	return s.Step == StepDone
}

// setRoomCount resizes the per-room answers, keeping what was already given.
func (s *Session) setRoomCount(n int) {
	s.AdditionalRooms = n
	if len(s.Responses.Rooms) > n {
		s.Responses.Rooms = s.Responses.Rooms[:n]
		return
	}
	for len(s.Responses.Rooms) < n {
		s.Responses.Rooms = append(s.Responses.Rooms, quote.RoomAnswer{})
	}
}

func (s *Session) currentRoom() (*quote.RoomAnswer, error) {
	if s.Room < 1 || s.Room > len(s.Responses.Rooms) {
		return nil, fmt.Errorf("room %d out of range (%d rooms)", s.Room, len(s.Responses.Rooms))
	}
	return &s.Responses.Rooms[s.Room-1], nil
}
