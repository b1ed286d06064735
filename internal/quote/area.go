package quote

import "fmt"

// RoomAnswer holds the two answers given for one additional bedroom.
type RoomAnswer struct {
	Bed  string `json:"bed"`
	Bath string `json:"bath"`
}

// Responses is the typed answer set collected by the intake driver.
// Rooms is indexed by position: Rooms[0] is additional room 1.
type Responses struct {
	Lot          string       `json:"lot,omitempty"`
	PrincipalBed string       `json:"principal_bed,omitempty"`
	Rooms        []RoomAnswer `json:"rooms,omitempty"`
	ExtraSpaces  []string     `json:"extra_spaces,omitempty"`
}

type NamedArea struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Area  float64 `json:"area"`
}

type RoomArea struct {
	Index    int     `json:"index"`
	Bed      string  `json:"bed"`
	BedArea  float64 `json:"bed_area"`
	BathArea float64 `json:"bath_area"`
	Area     float64 `json:"area"`
}

// AreaBreakdown is the itemised buildable area. Total always equals the sum
// of the base areas, the principal room, the additional rooms and the extra
// spaces.
type AreaBreakdown struct {
	BaseAreas       []NamedArea `json:"base_areas"`
	PrincipalBed    string      `json:"principal_bed"`
	PrincipalRoom   float64     `json:"principal_room"`
	AdditionalRooms []RoomArea  `json:"additional_rooms"`
	ExtraSpaces     []NamedArea `json:"extra_spaces"`
	Total           float64     `json:"total"`
}

func (a AreaBreakdown) BaseTotal() float64 {
	var t float64
	for _, b := range a.BaseAreas {
		t += b.Area
	}
	return t
}

func (a AreaBreakdown) AdditionalTotal() float64 {
	var t float64
	for _, r := range a.AdditionalRooms {
		t += r.Area
	}
	return t
}

func (a AreaBreakdown) ExtraTotal() float64 {
	var t float64
	for _, e := range a.ExtraSpaces {
		t += e.Area
	}
	return t
}

// ComputeAreaBreakdown turns the answers into an itemised area. Every room up
// to additionalRooms must have both its bed and bathroom answers.
func ComputeAreaBreakdown(catalog *Catalog, base []BaseArea, r Responses, additionalRooms int) (AreaBreakdown, error) {
	if additionalRooms < 0 {
		return AreaBreakdown{}, invalid(QuestionAdditionalRooms, "negative room count %d", additionalRooms)
	}

	principalQ, ok := catalog.Question(QuestionPrincipalRoom)
	if !ok {
		return AreaBreakdown{}, fmt.Errorf("catalog has no %s question", QuestionPrincipalRoom)
	}
	bedQ, ok := catalog.Question(QuestionRoomBed)
	if !ok {
		return AreaBreakdown{}, fmt.Errorf("catalog has no %s question", QuestionRoomBed)
	}
	bathQ, ok := catalog.Question(QuestionRoomBath)
	if !ok {
		return AreaBreakdown{}, fmt.Errorf("catalog has no %s question", QuestionRoomBath)
	}

	if r.PrincipalBed == "" {
		return AreaBreakdown{}, invalid(QuestionPrincipalRoom, "missing answer")
	}
	principal, ok := principalQ.Option(r.PrincipalBed)
	if !ok {
		return AreaBreakdown{}, invalid(QuestionPrincipalRoom, "unknown option %q", r.PrincipalBed)
	}

	if additionalRooms > len(r.Rooms) {
		return AreaBreakdown{}, invalid(fmt.Sprintf("habitacion_%d_cama", len(r.Rooms)+1), "missing answer")
	}

	out := AreaBreakdown{
		BaseAreas:       make([]NamedArea, 0, len(base)),
		PrincipalBed:    principal.Value,
		PrincipalRoom:   principal.Area,
		AdditionalRooms: make([]RoomArea, 0, additionalRooms),
		ExtraSpaces:     []NamedArea{},
	}
	for _, b := range base {
		out.BaseAreas = append(out.BaseAreas, NamedArea{Key: b.Key, Label: b.Label, Area: b.Area})
	}

	for i := 1; i <= additionalRooms; i++ {
		bedField := fmt.Sprintf("habitacion_%d_cama", i)
		bathField := fmt.Sprintf("habitacion_%d_bano", i)
		if i > len(r.Rooms) {
			return AreaBreakdown{}, invalid(bedField, "missing answer")
		}
		ans := r.Rooms[i-1]
		if ans.Bed == "" {
			return AreaBreakdown{}, invalid(bedField, "missing answer")
		}
		bed, ok := bedQ.Option(ans.Bed)
		if !ok {
			return AreaBreakdown{}, invalid(bedField, "unknown option %q", ans.Bed)
		}
		if ans.Bath == "" {
			return AreaBreakdown{}, invalid(bathField, "missing answer")
		}
		bath, ok := bathQ.Option(ans.Bath)
		if !ok {
			return AreaBreakdown{}, invalid(bathField, "unknown option %q", ans.Bath)
		}
		out.AdditionalRooms = append(out.AdditionalRooms, RoomArea{
			Index:    i,
			Bed:      bed.Value,
			BedArea:  bed.Area,
			BathArea: bath.Area,
			Area:     bed.Area + bath.Area,
		})
	}

	seen := make(map[string]bool, len(r.ExtraSpaces))
	for _, v := range r.ExtraSpaces {
		if v == NoExtraSpace || seen[v] {
			continue
		}
		opt, ok := catalog.Extra.Option(v)
		if !ok {
			return AreaBreakdown{}, invalid(QuestionExtraSpaces, "unknown option %q", v)
		}
		seen[v] = true
		out.ExtraSpaces = append(out.ExtraSpaces, NamedArea{Key: opt.Value, Label: opt.ShortText(), Area: opt.Area})
	}

	out.Total = out.BaseTotal() + out.PrincipalRoom + out.AdditionalTotal() + out.ExtraTotal()
	return out, nil
}
