package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saave-bot/internal/quote"
)

func feed(t *testing.T, d *Driver, s *Session, inputs ...string) Prompt {
	t.Helper()
	var p Prompt
	for _, in := range inputs {
		var err error
		p, err = d.Advance(s, in)
		require.NoError(t, err, "input %q at step %s", in, s.Step)
	}
	return p
}

func TestDriverFullConversation(t *testing.T) {
	catalog := quote.DefaultCatalog()
	d := NewDriver(catalog)
	s := NewSession()

	p := d.Current(s)
	assert.Equal(t, StepLot, p.Step)
	assert.False(t, p.CanGoBack)
	assert.Len(t, p.Options, 2)

	p = feed(t, d, s, "A", "C", "B")
	assert.Equal(t, StepRoomBed, p.Step)
	assert.Equal(t, "Habitación 1 - ¿Qué tipo de cama le gustaría?", p.Text)

	p = feed(t, d, s, "a", "A")
	assert.Equal(t, StepExtraSpaces, p.Step)
	assert.True(t, p.MultiSelect)

	p = feed(t, d, s, "A, H", "Laura Gómez", "300 123 4567", "laura@example.com")
	assert.True(t, p.Done)
	assert.True(t, s.Done())

	assert.Equal(t, quote.Responses{
		Lot:          "si",
		PrincipalBed: "queen",
		Rooms:        []quote.RoomAnswer{{Bed: "sencilla", Bath: quote.BathYes}},
		ExtraSpaces:  []string{"estudio", "turco"},
	}, s.Responses)
	assert.Equal(t, 1, s.AdditionalRooms)
	assert.Equal(t, quote.Contact{Name: "Laura Gómez", Phone: "+573001234567", Email: "laura@example.com"}, s.Contact)

	q, err := quote.NewQuoter(quote.DesignScheme(), catalog)
	require.NoError(t, err)
	rec, err := q.Quote(s.Contact, s.Responses, s.AdditionalRooms)
	require.NoError(t, err)
	assert.InDelta(t, 53.5+18+17+14+24, rec.Area.Total, 1e-9)
}

func TestDriverAcceptsButtonLabelsAndText(t *testing.T) {
	catalog := quote.DefaultCatalog()
	d := NewDriver(catalog)
	s := NewSession()

	lot, _ := catalog.Question(quote.QuestionLot)
	feed(t, d, s, ButtonLabel(lot.Options[1]), "doble (137x191 cm) - habitación 4.5x3.5 = 15.75 m²", "0")

	assert.Equal(t, "no_proceso", s.Responses.Lot)
	assert.Equal(t, "doble", s.Responses.PrincipalBed)
	assert.Equal(t, StepExtraSpaces, s.Step)
	assert.Empty(t, s.Responses.Rooms)
}

func TestDriverRejectsUnknownOption(t *testing.T) {
	d := NewDriver(quote.DefaultCatalog())
	s := NewSession()

	p, err := d.Advance(s, "Z")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Equal(t, StepLot, p.Step)
	assert.Equal(t, StepLot, s.Step)
	assert.Empty(t, s.Responses.Lot)

	_, err = d.Advance(s, "")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestDriverExtraSpaces(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
		err   error
	}{
		{name: "single letter", input: "b", want: []string{"sala_tv"}},
		{name: "comma separated", input: "A,B", want: []string{"estudio", "sala_tv"}},
		{name: "space separated with duplicates", input: "a b A", want: []string{"estudio", "sala_tv"}},
		{name: "none", input: "M", want: []string{}},
		{name: "none by text", input: "ninguno", want: []string{}},
		{name: "none mixed with spaces", input: "M, G", want: []string{"sauna"}},
		{name: "unknown letter", input: "A, Z", err: ErrUnknownOption},
		{name: "only separators", input: ", ;", err: ErrUnknownOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDriver(quote.DefaultCatalog())
			s := NewSession()
			feed(t, d, s, "A", "A", "A")

			_, err := d.Advance(s, tt.input)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				assert.Equal(t, StepExtraSpaces, s.Step)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Responses.ExtraSpaces)
			assert.Equal(t, StepName, s.Step)
		})
	}
}

func TestDriverBackNavigation(t *testing.T) {
	d := NewDriver(quote.DefaultCatalog())
	s := NewSession()
	feed(t, d, s, "A", "A", "C", "A", "B", "B", "A")

	assert.Equal(t, StepExtraSpaces, s.Step)

	p := feed(t, d, s, BackCommand)
	assert.Equal(t, StepRoomBath, p.Step)
	assert.Equal(t, 2, p.Room)

	p = feed(t, d, s, "atrás", "Atras")
	assert.Equal(t, StepRoomBath, p.Step)
	assert.Equal(t, 1, p.Room)

	// re-answering overwrites and continues forward
	p = feed(t, d, s, "A")
	assert.Equal(t, StepRoomBed, p.Step)
	assert.Equal(t, 2, p.Room)
	assert.Equal(t, quote.BathYes, s.Responses.Rooms[0].Bath)

	p = feed(t, d, s, BackCommand, BackCommand, BackCommand)
	assert.Equal(t, StepAdditionalRooms, p.Step)

	// fewer rooms drops the surplus answers
	p = feed(t, d, s, "B")
	assert.Equal(t, StepRoomBed, p.Step)
	assert.Len(t, s.Responses.Rooms, 1)
	assert.Equal(t, "sencilla", s.Responses.Rooms[0].Bed)

	s = NewSession()
	p = feed(t, d, s, BackCommand)
	assert.Equal(t, StepLot, p.Step)
}

func TestDriverContactValidation(t *testing.T) {
	d := NewDriver(quote.DefaultCatalog())
	s := NewSession()
	feed(t, d, s, "A", "A", "A", "M")

	_, err := d.Advance(s, "J")
	assert.ErrorIs(t, err, ErrInvalidName)

	feed(t, d, s, "Juan Pérez")

	_, err = d.Advance(s, "12-34")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = d.Advance(s, "1111111")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Equal(t, StepPhone, s.Step)

	feed(t, d, s, "+57 (604) 444-1234")
	assert.Equal(t, "+576044441234", s.Contact.Phone)

	_, err = d.Advance(s, "juan@")
	assert.ErrorIs(t, err, ErrInvalidEmail)

	p := feed(t, d, s, "juan@obra.co")
	assert.True(t, p.Done)

	_, err = d.Advance(s, "otra cosa")
	assert.ErrorIs(t, err, ErrFinished)
}

func TestPromptRender(t *testing.T) {
	d := NewDriver(quote.DefaultCatalog())
	p := d.Current(NewSession())

	assert.Equal(t, "¿Tiene lote?\n\nA. Sí\nB. No, estamos en proceso de compra", p.Render())

	s := &Session{Step: StepName}
	assert.Equal(t, "👤 ¿Cuál es su nombre completo?", d.Current(s).Render())
}
