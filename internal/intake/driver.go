package intake

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"saave-bot/internal/quote"
)

// Answer errors carry the text shown back to the user.
var (
	ErrUnknownOption = errors.New("❌ Opción no válida. Responda con la letra de una de las opciones.")
	ErrInvalidName   = errors.New("❌ Por favor ingrese su nombre completo.")
	ErrInvalidPhone  = errors.New("❌ Número de teléfono no válido. Ingrese entre 7 y 15 dígitos, por ejemplo 3001234567.")
	ErrInvalidEmail  = errors.New("❌ Correo electrónico no válido. Ejemplo: nombre@dominio.com")
	ErrFinished      = errors.New("la cotización ya fue generada, envíe /start para comenzar de nuevo")
)

// BackCommand moves the conversation one question back.
const BackCommand = "⬅️ Atrás"

// Prompt is what the driver asks next. Options is empty for free-text steps.
type Prompt struct {
	Step        Step
	Room        int
	Text        string
	Options     []quote.Option
	MultiSelect bool
	CanGoBack   bool
	Done        bool
}

// Render returns the question followed by one "A. text" line per option.
func (p Prompt) Render() string {
	if len(p.Options) == 0 {
		return p.Text
	}
	var sb strings.Builder
	sb.WriteString(p.Text)
	sb.WriteString("\n")
	for _, o := range p.Options {
		sb.WriteString(fmt.Sprintf("\n%s. %s", o.Letter, o.Text))
	}
	return sb.String()
}

// Driver walks a Session through the catalog: main questions, the two
// per-room questions for every additional bedroom, the extra spaces and the
// contact details. It never touches storage.
type Driver struct {
	catalog *quote.Catalog
}

func NewDriver(catalog *quote.Catalog) *Driver {
	return &Driver{catalog: catalog}
}

// Current returns the prompt for the session's pending step.
func (d *Driver) Current(s *Session) Prompt {
	p := Prompt{Step: s.Step, Room: s.Room, CanGoBack: s.Step != StepLot && s.Step != StepDone}
	switch s.Step {
	case StepName:
		p.Text = "👤 ¿Cuál es su nombre completo?"
	case StepPhone:
		p.Text = "📱 ¿Cuál es su número de teléfono?"
	case StepEmail:
		p.Text = "📧 ¿Cuál es su correo electrónico?"
	case StepDone:
		p.Text = "✅ Cotización completa."
		p.Done = true
	default:
		q, ok := d.catalog.Question(string(s.Step))
		if !ok {
			p.Text = string(s.Step)
			return p
		}
		p.Text = q.Prompt(s.Room)
		p.Options = q.Options
		p.MultiSelect = q.MultiSelect
	}
	return p
}

// Advance applies one user message to the session. On a rejected answer the
// session is left unchanged and the error describes the problem.
func (d *Driver) Advance(s *Session, input string) (Prompt, error) {
	input = strings.TrimSpace(input)
	if s.Step == StepDone {
		return d.Current(s), ErrFinished
	}
	if isBack(input) {
		d.back(s)
		return d.Current(s), nil
	}

	switch s.Step {
	case StepLot, StepPrincipalRoom:
		opt, err := d.choose(string(s.Step), input)
		if err != nil {
			return d.Current(s), err
		}
		if s.Step == StepLot {
			s.Responses.Lot = opt.Value
			s.Step = StepPrincipalRoom
		} else {
			s.Responses.PrincipalBed = opt.Value
			s.Step = StepAdditionalRooms
		}

	case StepAdditionalRooms:
		opt, err := d.choose(quote.QuestionAdditionalRooms, input)
		if err != nil {
			return d.Current(s), err
		}
		n, err := strconv.Atoi(opt.Value)
		if err != nil || n < 0 {
			return d.Current(s), ErrUnknownOption
		}
		s.setRoomCount(n)
		if n > 0 {
			s.Step, s.Room = StepRoomBed, 1
		} else {
			s.Step, s.Room = StepExtraSpaces, 0
		}

	case StepRoomBed:
		opt, err := d.choose(quote.QuestionRoomBed, input)
		if err != nil {
			return d.Current(s), err
		}
		room, err := s.currentRoom()
		if err != nil {
			return d.Current(s), err
		}
		room.Bed = opt.Value
		s.Step = StepRoomBath

	case StepRoomBath:
		opt, err := d.choose(quote.QuestionRoomBath, input)
		if err != nil {
			return d.Current(s), err
		}
		room, err := s.currentRoom()
		if err != nil {
			return d.Current(s), err
		}
		room.Bath = opt.Value
		if s.Room < s.AdditionalRooms {
			s.Step, s.Room = StepRoomBed, s.Room+1
		} else {
			s.Step, s.Room = StepExtraSpaces, 0
		}

	case StepExtraSpaces:
		values, err := d.chooseMany(input)
		if err != nil {
			return d.Current(s), err
		}
		s.Responses.ExtraSpaces = values
		s.Step = StepName

	case StepName:
		if !IsValidName(input) {
			return d.Current(s), ErrInvalidName
		}
		s.Contact.Name = input
		s.Step = StepPhone

	case StepPhone:
		if !IsValidPhone(input) {
			return d.Current(s), ErrInvalidPhone
		}
		s.Contact.Phone = NormalizePhone(input)
		s.Step = StepEmail

	case StepEmail:
		if !IsValidEmail(input) {
			return d.Current(s), ErrInvalidEmail
		}
		s.Contact.Email = input
		s.Step = StepDone

	default:
		return d.Current(s), fmt.Errorf("unknown step %q", s.Step)
	}

	return d.Current(s), nil
}

func (d *Driver) back(s *Session) {
	switch s.Step {
	case StepPrincipalRoom:
		s.Step = StepLot
	case StepAdditionalRooms:
		s.Step = StepPrincipalRoom
	case StepRoomBed:
		if s.Room > 1 {
			s.Step, s.Room = StepRoomBath, s.Room-1
		} else {
			s.Step, s.Room = StepAdditionalRooms, 0
		}
	case StepRoomBath:
		s.Step = StepRoomBed
	case StepExtraSpaces:
		if s.AdditionalRooms > 0 {
			s.Step, s.Room = StepRoomBath, s.AdditionalRooms
		} else {
			s.Step = StepAdditionalRooms
		}
	case StepName:
		s.Step = StepExtraSpaces
	case StepPhone:
		s.Step = StepName
	case StepEmail:
		s.Step = StepPhone
	}
}

// choose accepts a letter ("b"), a button label ("B. Doble ...") or the
// option text itself.
func (d *Driver) choose(questionID, input string) (quote.Option, error) {
	q, ok := d.catalog.Question(questionID)
	if !ok {
		return quote.Option{}, fmt.Errorf("question %s not in catalog", questionID)
	}
	if opt, ok := matchOption(q, input); ok {
		return opt, nil
	}
	return quote.Option{}, ErrUnknownOption
}

// chooseMany parses the extra spaces answer. Letters may be separated by
// commas or spaces; "none" alone clears the selection and is dropped when
// combined with real spaces.
func (d *Driver) chooseMany(input string) ([]string, error) {
	q := d.catalog.Extra
	if opt, ok := matchOption(q, input); ok {
		if opt.Value == quote.NoExtraSpace {
			return []string{}, nil
		}
		return []string{opt.Value}, nil
	}

	tokens := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t'
	})
	if len(tokens) == 0 {
		return nil, ErrUnknownOption
	}
	seen := make(map[string]bool, len(tokens))
	values := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		opt, ok := q.OptionByLetter(strings.TrimRight(tok, ".)"))
		if !ok {
			return nil, ErrUnknownOption
		}
		if opt.Value == quote.NoExtraSpace || seen[opt.Value] {
			continue
		}
		seen[opt.Value] = true
		values = append(values, opt.Value)
	}
	return values, nil
}

func matchOption(q quote.Question, input string) (quote.Option, bool) {
	if input == "" {
		return quote.Option{}, false
	}
	if opt, ok := q.OptionByLetter(strings.TrimRight(input, ".)")); ok {
		return opt, true
	}
	for _, o := range q.Options {
		if input == ButtonLabel(o) || strings.EqualFold(input, o.Text) {
			return o, true
		}
	}
	return quote.Option{}, false
}

// ButtonLabel is the keyboard text for an option.
func ButtonLabel(o quote.Option) string {
	return o.Letter + ". " + o.Text
}

func isBack(input string) bool {
	if input == BackCommand {
		return true
	}
	switch strings.ToLower(input) {
	case "atrás", "atras", "/atras", "volver":
		return true
	}
	return false
}
