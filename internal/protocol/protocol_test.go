package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maikel/doppelkopf/engine"
)

func TestCardRoundTrip(t *testing.T) {
	c := engine.NewOwnedCard(engine.Hearts, engine.Ten, 2)
	wire := EncodeCard(c)
	assert.Equal(t, "hearts", wire.Color)
	assert.Equal(t, "ten", wire.Face)
	require.NotNil(t, wire.Player)
	assert.Equal(t, 2, *wire.Player)

	decoded, err := DecodeCard(wire)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)
}

func TestCardWithoutPlayer(t *testing.T) {
	decoded, err := DecodeCard(Card{Color: "clubs", Face: "queen"})
	require.NoError(t, err)
	assert.True(t, decoded.SameCard(engine.ClubsQueen))
	assert.Equal(t, engine.Player(0), decoded.Player())
}

func TestCardParseErrors(t *testing.T) {
	_, err := DecodeCard(Card{Color: "stars", Face: "nine"})
	assert.ErrorIs(t, err, ErrParse)
	_, err = DecodeCard(Card{Color: "clubs", Face: "eight"})
	assert.ErrorIs(t, err, ErrParse)
	bad := 7
	_, err = DecodeCard(Card{Color: "clubs", Face: "nine", Player: &bad})
	assert.ErrorIs(t, err, ErrParse)
}

func TestAnnouncementRoundTrip(t *testing.T) {
	a := engine.NewAnnouncement(engine.Re, 3)
	wire := EncodeAnnouncement(a)
	assert.Equal(t, Announcement{Party: "re", Player: 3}, wire)
	decoded, err := DecodeAnnouncement(wire)
	require.NoError(t, err)
	assert.Equal(t, a, decoded)
}

func TestActionDiscrimination(t *testing.T) {
	cardAction := engine.CardAction(engine.NewOwnedCard(engine.Spades, engine.Ace, 1))
	raw, err := EncodeAction(cardAction)
	require.NoError(t, err)
	decoded, err := DecodeAction(raw)
	require.NoError(t, err)
	assert.Equal(t, cardAction, decoded)

	bidAction := engine.AnnouncementAction(engine.NewAnnouncement(engine.Contra, 2))
	raw, err = EncodeAction(bidAction)
	require.NoError(t, err)
	decoded, err = DecodeAction(raw)
	require.NoError(t, err)
	assert.Equal(t, bidAction, decoded)

	_, err = DecodeAction(json.RawMessage(`{"frob":1}`))
	assert.ErrorIs(t, err, ErrParse)
	_, err = DecodeAction(json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrParse)
}

func TestRulesRoundTrip(t *testing.T) {
	cases := []engine.Contract{
		engine.Normal{},
		engine.Marriage{Bride: 2},
		engine.Solo{Player: 1, Type: engine.SoloQueen},
		engine.Solo{Player: 3, Type: engine.SoloClubs},
	}
	for _, contract := range cases {
		wire, err := EncodeRules(contract)
		require.NoError(t, err)
		decoded, err := DecodeRules(wire)
		require.NoError(t, err)
		assert.Equal(t, contract, decoded)
	}
}

func TestRulesWireShape(t *testing.T) {
	wire, err := EncodeRules(engine.Solo{Player: 1, Type: engine.SoloDiamonds})
	require.NoError(t, err)
	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"solo","solo_player":1,"solo_type":"diamonds"}`, string(data))

	wire, err = EncodeRules(engine.Normal{})
	require.NoError(t, err)
	data, err = json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"normal"}`, string(data))
}

func TestRulesParseErrors(t *testing.T) {
	_, err := DecodeRules(Rules{Name: "grand"})
	assert.ErrorIs(t, err, ErrParse)
	_, err = DecodeRules(Rules{Name: "marriage"})
	assert.ErrorIs(t, err, ErrParse)
	_, err = DecodeRules(Rules{Name: "solo"})
	assert.ErrorIs(t, err, ErrParse)
}

func TestHealthinessRoundTrip(t *testing.T) {
	assert.Equal(t, "healthy", EncodeHealthiness(engine.Healthy))
	assert.Equal(t, "reservation", EncodeHealthiness(engine.Reservation))
	h, err := DecodeHealthiness("healthy")
	require.NoError(t, err)
	assert.Equal(t, engine.Healthy, h)
	_, err = DecodeHealthiness("sick")
	assert.ErrorIs(t, err, ErrParse)
}

func TestDeclaredContractEncoding(t *testing.T) {
	wire := EncodeDeclaredContract(engine.DeclaredContract{Player: 1, Health: engine.Reservation})
	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"health":"reservation","player":1}`, string(data))
}

func TestSpecializedContractEncoding(t *testing.T) {
	wire, err := EncodeSpecializedContract(engine.SpecializedContract{
		Player: 2,
		Rules:  engine.Marriage{Bride: 2},
	})
	require.NoError(t, err)
	data, err := json.Marshal(wire)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rules":{"name":"marriage","bride":2},"player":2}`, string(data))
}

func TestDecodeHand(t *testing.T) {
	cards := make([]Card, 0, engine.HandSize)
	for i := 0; i < engine.HandSize; i++ {
		cards = append(cards, EncodeCard(engine.CardAt(i)))
	}
	raw, err := json.Marshal(cards)
	require.NoError(t, err)
	hand, err := DecodeHand(raw)
	require.NoError(t, err)
	require.Len(t, hand, engine.HandSize)
	for i, c := range hand {
		assert.True(t, c.SameCard(engine.CardAt(i)))
	}

	short, err := json.Marshal(cards[:5])
	require.NoError(t, err)
	_, err = DecodeHand(short)
	assert.ErrorIs(t, err, ErrParse)
}
