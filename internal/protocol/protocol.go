// Package protocol implements the JSON encodings of game entities spoken on
// the lobby wire: cards, announcements, actions, contracts and declarations.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/maikel/doppelkopf/engine"
)

// ErrParse marks a malformed inbound frame. The session recovers by
// dropping the frame.
var ErrParse = errors.New("protocol: parse error")

var suitNames = [4]string{"diamonds", "hearts", "spades", "clubs"}
var faceNames = [6]string{"nine", "jack", "queen", "king", "ten", "ace"}
var partyNames = [2]string{"contra", "re"}
var soloNames = [6]string{"jack", "queen", "diamonds", "hearts", "spades", "clubs"}

func lookup(names []string, s string) (int, bool) {
	for i, name := range names {
		if name == s {
			return i, true
		}
	}
	return 0, false
}

// Card is the wire form of a card. Inbound cards may omit Player and then
// decode with owner 0; EncodeCard always sets it.
type Card struct {
	Color  string `json:"color"`
	Face   string `json:"face"`
	Player *int   `json:"player,omitempty"`
}

// EncodeCard converts an engine card to its wire form, including the owner.
func EncodeCard(c engine.Card) Card {
	player := int(c.Player())
	return Card{
		Color:  suitNames[c.Suit()],
		Face:   faceNames[c.Face()],
		Player: &player,
	}
}

// DecodeCard converts a wire card back to the engine representation.
func DecodeCard(c Card) (engine.Card, error) {
	suit, ok := lookup(suitNames[:], c.Color)
	if !ok {
		return 0, fmt.Errorf("%w: unknown color %q", ErrParse, c.Color)
	}
	face, ok := lookup(faceNames[:], c.Face)
	if !ok {
		return 0, fmt.Errorf("%w: unknown face %q", ErrParse, c.Face)
	}
	card := engine.NewCard(engine.Suit(suit), engine.Face(face))
	if c.Player != nil {
		if *c.Player < 0 || *c.Player >= engine.NumPlayers {
			return 0, fmt.Errorf("%w: player %d out of range", ErrParse, *c.Player)
		}
		card = card.WithPlayer(engine.Player(*c.Player))
	}
	return card, nil
}

// Announcement is the wire form of a bid.
type Announcement struct {
	Party  string `json:"party"`
	Player int    `json:"player"`
}

// EncodeAnnouncement converts an engine announcement to its wire form.
func EncodeAnnouncement(a engine.Announcement) Announcement {
	return Announcement{Party: partyNames[a.Party()], Player: int(a.Player())}
}

// DecodeAnnouncement converts a wire announcement back.
func DecodeAnnouncement(a Announcement) (engine.Announcement, error) {
	party, ok := lookup(partyNames[:], a.Party)
	if !ok {
		return 0, fmt.Errorf("%w: unknown party %q", ErrParse, a.Party)
	}
	if a.Player < 0 || a.Player >= engine.NumPlayers {
		return 0, fmt.Errorf("%w: player %d out of range", ErrParse, a.Player)
	}
	return engine.NewAnnouncement(engine.Party(party), engine.Player(a.Player)), nil
}

// EncodeAction marshals either action variant.
func EncodeAction(a engine.Action) (json.RawMessage, error) {
	if c, ok := a.AsCard(); ok {
		return json.Marshal(EncodeCard(c))
	}
	if bid, ok := a.AsAnnouncement(); ok {
		return json.Marshal(EncodeAnnouncement(bid))
	}
	return nil, fmt.Errorf("%w: empty action", ErrParse)
}

// DecodeAction discriminates the wire shape by its fields: color and face
// identify a card, party and player an announcement.
func DecodeAction(raw json.RawMessage) (engine.Action, error) {
	var probe struct {
		Color  *string `json:"color"`
		Face   *string `json:"face"`
		Party  *string `json:"party"`
		Player *int    `json:"player"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return engine.NoAction, fmt.Errorf("%w: %v", ErrParse, err)
	}
	switch {
	case probe.Color != nil && probe.Face != nil:
		var card Card
		if err := json.Unmarshal(raw, &card); err != nil {
			return engine.NoAction, fmt.Errorf("%w: %v", ErrParse, err)
		}
		c, err := DecodeCard(card)
		if err != nil {
			return engine.NoAction, err
		}
		return engine.CardAction(c), nil
	case probe.Party != nil && probe.Player != nil:
		var bid Announcement
		if err := json.Unmarshal(raw, &bid); err != nil {
			return engine.NoAction, fmt.Errorf("%w: %v", ErrParse, err)
		}
		a, err := DecodeAnnouncement(bid)
		if err != nil {
			return engine.NoAction, err
		}
		return engine.AnnouncementAction(a), nil
	}
	return engine.NoAction, fmt.Errorf("%w: action shape not recognized", ErrParse)
}

// Rules is the wire form of a contract.
type Rules struct {
	Name       string  `json:"name"`
	Bride      *int    `json:"bride,omitempty"`
	SoloPlayer *int    `json:"solo_player,omitempty"`
	SoloType   *string `json:"solo_type,omitempty"`
}

// EncodeRules converts a contract variant to its wire form.
func EncodeRules(c engine.Contract) (Rules, error) {
	switch rules := c.(type) {
	case engine.Normal:
		return Rules{Name: "normal"}, nil
	case engine.Marriage:
		bride := int(rules.Bride)
		return Rules{Name: "marriage", Bride: &bride}, nil
	case engine.Solo:
		player := int(rules.Player)
		soloType := soloNames[rules.Type]
		return Rules{Name: "solo", SoloPlayer: &player, SoloType: &soloType}, nil
	}
	return Rules{}, fmt.Errorf("%w: unknown contract %T", ErrParse, c)
}

// DecodeRules converts a wire contract back to its engine variant.
func DecodeRules(r Rules) (engine.Contract, error) {
	switch r.Name {
	case "normal":
		return engine.Normal{}, nil
	case "marriage":
		if r.Bride == nil {
			return nil, fmt.Errorf("%w: marriage without bride", ErrParse)
		}
		return engine.Marriage{Bride: engine.Player(*r.Bride)}, nil
	case "solo":
		if r.SoloPlayer == nil || r.SoloType == nil {
			return nil, fmt.Errorf("%w: incomplete solo rules", ErrParse)
		}
		soloType, ok := lookup(soloNames[:], *r.SoloType)
		if !ok {
			return nil, fmt.Errorf("%w: unknown solo type %q", ErrParse, *r.SoloType)
		}
		return engine.Solo{
			Player: engine.Player(*r.SoloPlayer),
			Type:   engine.SoloType(soloType),
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown rules name %q", ErrParse, r.Name)
}

// EncodeHealthiness converts the declaration choice to its wire string.
func EncodeHealthiness(h engine.Healthiness) string {
	if h == engine.Healthy {
		return "healthy"
	}
	return "reservation"
}

// DecodeHealthiness parses the declaration choice.
func DecodeHealthiness(s string) (engine.Healthiness, error) {
	switch s {
	case "healthy":
		return engine.Healthy, nil
	case "reservation":
		return engine.Reservation, nil
	}
	return 0, fmt.Errorf("%w: unknown healthiness %q", ErrParse, s)
}

// DeclaredContract is the wire form of a healthy/reservation declaration.
type DeclaredContract struct {
	Health string `json:"health"`
	Player int    `json:"player"`
}

// EncodeDeclaredContract converts a declaration to its wire form.
func EncodeDeclaredContract(d engine.DeclaredContract) DeclaredContract {
	return DeclaredContract{
		Health: EncodeHealthiness(d.Health),
		Player: int(d.Player),
	}
}

// SpecializedContract is the wire form of a concrete contract choice.
type SpecializedContract struct {
	Rules  Rules `json:"rules"`
	Player int   `json:"player"`
}

// EncodeSpecializedContract converts a contract choice to its wire form.
func EncodeSpecializedContract(s engine.SpecializedContract) (SpecializedContract, error) {
	rules, err := EncodeRules(s.Rules)
	if err != nil {
		return SpecializedContract{}, err
	}
	return SpecializedContract{Rules: rules, Player: int(s.Player)}, nil
}

// DecodeHand parses the 12-card initial hand from the lobby state view.
func DecodeHand(raw json.RawMessage) ([]engine.Card, error) {
	var cards []Card
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(cards) != engine.HandSize {
		return nil, fmt.Errorf("%w: hand of size %d", ErrParse, len(cards))
	}
	hand := make([]engine.Card, 0, engine.HandSize)
	for _, c := range cards {
		decoded, err := DecodeCard(c)
		if err != nil {
			return nil, err
		}
		hand = append(hand, decoded)
	}
	return hand, nil
}
