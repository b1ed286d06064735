package quote

import (
	"fmt"
	"strconv"
	"strings"
)

// Question identifiers.
const (
	QuestionLot             = "lote"
	QuestionPrincipalRoom   = "habitacion_principal"
	QuestionAdditionalRooms = "habitaciones_adicionales"
	QuestionRoomBed         = "tipo_cama"
	QuestionRoomBath        = "bano_propio"
	QuestionExtraSpaces     = "espacios_adicionales"

	// NoExtraSpace is the "none" option of the extra spaces question.
	NoExtraSpace = "ninguno"

	BathYes = "si"
	BathNo  = "no"
)

// Option is one selectable answer. Numeric answers (room counts) keep their
// decimal form in Value.
type Option struct {
	Letter string  `json:"letra"`
	Text   string  `json:"text"`
	Value  string  `json:"value"`
	Area   float64 `json:"area,omitempty"`
}

// ShortText drops the parenthesised size hint, "Estudio (14 m²)" -> "Estudio".
func (o Option) ShortText() string {
	if i := strings.Index(o.Text, " ("); i > 0 {
		return o.Text[:i]
	}
	return o.Text
}

// Question is a catalog entry. Per-room questions carry a %d placeholder in
// Text that Prompt fills with the room number.
type Question struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	PerRoom     bool     `json:"per_room,omitempty"`
	MultiSelect bool     `json:"multi_select,omitempty"`
	Options     []Option `json:"options"`
}

func (q Question) Prompt(room int) string {
	if q.PerRoom {
		return fmt.Sprintf(q.Text, room)
	}
	return q.Text
}

func (q Question) Option(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// OptionByLetter matches a letter case-insensitively.
func (q Question) OptionByLetter(letter string) (Option, bool) {
	letter = strings.TrimSpace(letter)
	for _, o := range q.Options {
		if strings.EqualFold(o.Letter, letter) {
			return o, true
		}
	}
	return Option{}, false
}

// Catalog is the ordered question set. It is read-only after construction.
type Catalog struct {
	Main  []Question `json:"main"`
	Room  []Question `json:"room"`
	Extra Question   `json:"extra"`
}

func (c *Catalog) Question(id string) (Question, bool) {
	for _, q := range c.Main {
		if q.ID == id {
			return q, true
		}
	}
	for _, q := range c.Room {
		if q.ID == id {
			return q, true
		}
	}
	if c.Extra.ID == id {
		return c.Extra, true
	}
	return Question{}, false
}

// MaxAdditionalRooms is the largest room count the catalog offers.
func (c *Catalog) MaxAdditionalRooms() int {
	q, _ := c.Question(QuestionAdditionalRooms)
	largest := 0
	for _, o := range q.Options {
		if n, err := strconv.Atoi(o.Value); err == nil && n > largest {
			largest = n
		}
	}
	return largest
}

// Validate checks that option letters and values are unique per question.
func (c *Catalog) Validate() error {
	all := append(append(append([]Question{}, c.Main...), c.Room...), c.Extra)
	for _, q := range all {
		letters := make(map[string]bool, len(q.Options))
		values := make(map[string]bool, len(q.Options))
		for _, o := range q.Options {
			l := strings.ToUpper(o.Letter)
			if letters[l] {
				return fmt.Errorf("question %s: duplicate letter %s", q.ID, o.Letter)
			}
			if values[o.Value] {
				return fmt.Errorf("question %s: duplicate value %s", q.ID, o.Value)
			}
			if o.Area < 0 {
				return fmt.Errorf("question %s: negative area for %s", q.ID, o.Value)
			}
			letters[l] = true
			values[o.Value] = true
		}
	}
	return nil
}

func DefaultCatalog() *Catalog {
	return &Catalog{
		Main: []Question{
			{
				ID:   QuestionLot,
				Text: "¿Tiene lote?",
				Options: []Option{
					{Letter: "A", Text: "Sí", Value: "si"},
					{Letter: "B", Text: "No, estamos en proceso de compra", Value: "no_proceso"},
				},
			},
			{
				ID:   QuestionPrincipalRoom,
				Text: "Habitación principal - ¿Qué tipo de cama le gustaría?",
				Options: []Option{
					{Letter: "A", Text: "Sencilla (99x191 cm) - Habitación 4.5x3 = 13.5 m²", Value: "sencilla", Area: 13.5},
					{Letter: "B", Text: "Doble (137x191 cm) - Habitación 4.5x3.5 = 15.75 m²", Value: "doble", Area: 15.75},
					{Letter: "C", Text: "Queen (152x203 cm) - Habitación 4.5x4 = 18 m²", Value: "queen", Area: 18},
					{Letter: "D", Text: "King (193x203 cm) - Habitación 4.5x5.5 = 24.75 m²", Value: "king", Area: 24.75},
					{Letter: "E", Text: "California King (183x213 cm) - Habitación 4.5x6 = 27 m²", Value: "california_king", Area: 27},
					{Letter: "F", Text: "Habitación 4.5x6.5 = 29.25 m²", Value: "f", Area: 29.25},
					{Letter: "G", Text: "Habitación 4.5x7 = 31.5 m²", Value: "g", Area: 31.5},
				},
			},
			{
				ID:   QuestionAdditionalRooms,
				Text: "Además de la habitación principal, ¿cuántas habitaciones adicionales desea?",
				Options: []Option{
					{Letter: "A", Text: "0", Value: "0"},
					{Letter: "B", Text: "1", Value: "1"},
					{Letter: "C", Text: "2", Value: "2"},
					{Letter: "D", Text: "3", Value: "3"},
				},
			},
		},
		Room: []Question{
			{
				ID:      QuestionRoomBed,
				Text:    "Habitación %d - ¿Qué tipo de cama le gustaría?",
				PerRoom: true,
				Options: []Option{
					{Letter: "A", Text: "Sencilla (99x191 cm) - Habitación 4.5x3 = 13.5 m²", Value: "sencilla", Area: 13.5},
					{Letter: "B", Text: "Doble (137x191 cm) - Habitación 4.5x3.5 = 15.75 m²", Value: "doble", Area: 15.75},
					{Letter: "C", Text: "Queen (152x203 cm) - Habitación 4.5x4 = 18 m²", Value: "queen", Area: 18},
				},
			},
			{
				ID:      QuestionRoomBath,
				Text:    "Habitación %d - ¿Tiene baño propio?",
				PerRoom: true,
				Options: []Option{
					{Letter: "A", Text: "Sí (+ 3.5 m²)", Value: BathYes, Area: 3.5},
					{Letter: "B", Text: "No", Value: BathNo},
				},
			},
		},
		Extra: Question{
			ID:          QuestionExtraSpaces,
			Text:        "¿Desea agregar espacios adicionales? Puede elegir varias letras separadas por coma.",
			MultiSelect: true,
			Options: []Option{
				{Letter: "A", Text: "Estudio (14 m²)", Value: "estudio", Area: 14},
				{Letter: "B", Text: "Sala de TV (14 m²)", Value: "sala_tv", Area: 14},
				{Letter: "C", Text: "Habitación de servicio + baño (18 m²)", Value: "hab_servicio", Area: 18},
				{Letter: "D", Text: "Depósito pequeño (9 m²)", Value: "deposito_pequeno", Area: 9},
				{Letter: "E", Text: "Depósito mediano (9 m²)", Value: "deposito_mediano", Area: 9},
				{Letter: "F", Text: "Depósito grande (16 m²)", Value: "deposito_grande", Area: 16},
				{Letter: "G", Text: "Sauna (16 m²)", Value: "sauna", Area: 16},
				{Letter: "H", Text: "Turco (24 m²)", Value: "turco", Area: 24},
				{Letter: "I", Text: "Piscina pequeña (16 m²)", Value: "piscina_pequena", Area: 16},
				{Letter: "J", Text: "Piscina mediana (24 m²)", Value: "piscina_mediana", Area: 24},
				{Letter: "K", Text: "Piscina grande (32 m²)", Value: "piscina_grande", Area: 32},
				{Letter: "L", Text: "Baño social exterior (4 m²)", Value: "bano_social_ext", Area: 4},
				{Letter: "M", Text: "Ninguno", Value: NoExtraSpace},
			},
		},
	}
}
