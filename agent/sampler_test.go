package agent

import (
	"math/rand/v2"
	"testing"

	"github.com/maikel/doppelkopf/engine"
)

func card(suit engine.Suit, face engine.Face, p engine.Player) engine.Card {
	return engine.NewOwnedCard(suit, face, p)
}

// testHand is the reference hand used by the deterministic sampler
// scenarios: both club queens, both diamond queens, and assorted fill.
func testHand() []engine.Card {
	return []engine.Card{
		card(engine.Clubs, engine.Queen, 0), card(engine.Clubs, engine.Queen, 0),
		card(engine.Diamonds, engine.Queen, 0), card(engine.Diamonds, engine.Queen, 0),
		card(engine.Hearts, engine.Jack, 0), card(engine.Clubs, engine.Ten, 0),
		card(engine.Spades, engine.Ace, 0), card(engine.Spades, engine.King, 0),
		card(engine.Spades, engine.King, 0), card(engine.Spades, engine.Nine, 0),
		card(engine.Hearts, engine.Nine, 0), card(engine.Hearts, engine.Nine, 0),
	}
}

func checkValidAssignment(t *testing.T, hands [engine.NumPlayers][engine.HandSize]engine.Card) {
	t.Helper()
	var counts [engine.NumDistinct]int
	for p := engine.Player(0); p < engine.NumPlayers; p++ {
		for _, c := range hands[p] {
			if c.Player() != p {
				t.Fatalf("card %v in hand %d has owner %d", c, p, c.Player())
			}
			counts[c.Index()]++
		}
	}
	for index, n := range counts {
		if n != 2 {
			t.Fatalf("card %v appears %d times, want 2", engine.CardAt(index), n)
		}
	}
}

func TestAssignRandomlyAtGameStart(t *testing.T) {
	for p := engine.Player(0); p < engine.NumPlayers; p++ {
		hand := make([]engine.Card, 0, engine.HandSize)
		for _, c := range testHand() {
			hand = append(hand, c.WithPlayer(p))
		}
		sampler := NewSampler(engine.Normal{}, hand, nil)
		rng := rand.New(rand.NewPCG(2019, 2019))
		hands := sampler.AssignRandomly(rng)
		checkValidAssignment(t, hands)
		for _, c := range hand {
			if !engine.ContainsCard(hands[p][:], c) {
				t.Fatalf("own card %v missing from assignment", c)
			}
		}
	}
}

func TestAssignRandomlyAfterOnePlayedCard(t *testing.T) {
	history := []engine.Action{
		engine.CardAction(card(engine.Spades, engine.Nine, 0)),
	}
	sampler := NewSampler(engine.Normal{}, testHand(), history)
	rng := rand.New(rand.NewPCG(2019, 2019))
	for i := 0; i < 100; i++ {
		checkValidAssignment(t, sampler.AssignRandomly(rng))
	}
}

func TestAssignRandomlyAfterFirstTrick(t *testing.T) {
	history := []engine.Action{
		engine.CardAction(card(engine.Spades, engine.Ace, 0)),
		engine.CardAction(card(engine.Spades, engine.Ace, 1)),
		engine.CardAction(card(engine.Diamonds, engine.Ace, 2)),
		engine.CardAction(card(engine.Spades, engine.Nine, 3)),
	}
	sampler := NewSampler(engine.Normal{}, testHand(), history)
	rng := rand.New(rand.NewPCG(2019, 2019))
	rules := engine.Normal{}
	for i := 0; i < 100; i++ {
		hands := sampler.AssignRandomly(rng)
		checkValidAssignment(t, hands)
		if !engine.ContainsCard(hands[1][:], engine.NewCard(engine.Spades, engine.Ace)) {
			t.Fatal("player 1 must hold the spades ace they played")
		}
		if !engine.ContainsCard(hands[2][:], engine.NewCard(engine.Diamonds, engine.Ace)) {
			t.Fatal("player 2 must hold the diamonds ace they played")
		}
		if !engine.ContainsCard(hands[3][:], engine.NewCard(engine.Spades, engine.Nine)) {
			t.Fatal("player 3 must hold the spades nine they played")
		}
		// Player 2 discarded on a spades lead: no further non-trump spades.
		for _, c := range hands[2] {
			if c.SameCard(card(engine.Diamonds, engine.Ace, 2)) {
				continue
			}
			if !rules.IsTrump(c) && c.Suit() == engine.Spades {
				t.Fatalf("player 2 must be void in spades, holds %v", c)
			}
		}
	}
}

func TestTrumpDiscardClearsTrumpCandidates(t *testing.T) {
	// Player 2 throws a plain club on a trump lead: their residual hand
	// must contain no trump.
	hand := []engine.Card{
		card(engine.Spades, engine.Ace, 0), card(engine.Spades, engine.King, 0),
		card(engine.Spades, engine.Nine, 0), card(engine.Spades, engine.Ten, 0),
		card(engine.Hearts, engine.Nine, 0), card(engine.Hearts, engine.King, 0),
		card(engine.Hearts, engine.Ace, 0), card(engine.Clubs, engine.Nine, 0),
		card(engine.Clubs, engine.King, 0), card(engine.Clubs, engine.Ace, 0),
		card(engine.Spades, engine.Queen, 0), card(engine.Hearts, engine.Queen, 0),
	}
	history := []engine.Action{
		engine.CardAction(card(engine.Diamonds, engine.Nine, 1)),
		engine.CardAction(card(engine.Clubs, engine.Ten, 2)),
	}
	sampler := NewSampler(engine.Normal{}, hand, history)
	rng := rand.New(rand.NewPCG(7, 7))
	rules := engine.Normal{}
	for i := 0; i < 50; i++ {
		hands := sampler.AssignRandomly(rng)
		checkValidAssignment(t, hands)
		trumps := 0
		for _, c := range hands[2] {
			if rules.IsTrump(c) {
				trumps++
			}
		}
		if trumps != 0 {
			t.Fatalf("player 2 revealed a trump void but was dealt %d trumps", trumps)
		}
	}
}

func TestReAnnouncementForcesClubsQueen(t *testing.T) {
	// My hand holds no clubs queen; player 3 announces re and must receive
	// at least one in every draw.
	hand := []engine.Card{
		card(engine.Spades, engine.Ace, 0), card(engine.Spades, engine.King, 0),
		card(engine.Spades, engine.Nine, 0), card(engine.Spades, engine.Ten, 0),
		card(engine.Hearts, engine.Nine, 0), card(engine.Hearts, engine.King, 0),
		card(engine.Hearts, engine.Ace, 0), card(engine.Clubs, engine.Nine, 0),
		card(engine.Clubs, engine.King, 0), card(engine.Clubs, engine.Ace, 0),
		card(engine.Diamonds, engine.Nine, 0), card(engine.Diamonds, engine.King, 0),
	}
	history := []engine.Action{
		engine.AnnouncementAction(engine.NewAnnouncement(engine.Re, 3)),
	}
	sampler := NewSampler(engine.Normal{}, hand, history)
	rng := rand.New(rand.NewPCG(11, 11))
	for i := 0; i < 100; i++ {
		hands := sampler.AssignRandomly(rng)
		checkValidAssignment(t, hands)
		if !engine.ContainsCard(hands[3][:], engine.ClubsQueen) {
			t.Fatal("player 3 announced re and must hold a clubs queen")
		}
	}
}

func TestContraAnnouncementExcludesClubsQueen(t *testing.T) {
	hand := []engine.Card{
		card(engine.Spades, engine.Ace, 0), card(engine.Spades, engine.King, 0),
		card(engine.Spades, engine.Nine, 0), card(engine.Spades, engine.Ten, 0),
		card(engine.Hearts, engine.Nine, 0), card(engine.Hearts, engine.King, 0),
		card(engine.Hearts, engine.Ace, 0), card(engine.Clubs, engine.Nine, 0),
		card(engine.Clubs, engine.King, 0), card(engine.Clubs, engine.Ace, 0),
		card(engine.Diamonds, engine.Nine, 0), card(engine.Diamonds, engine.King, 0),
	}
	history := []engine.Action{
		engine.AnnouncementAction(engine.NewAnnouncement(engine.Contra, 1)),
	}
	sampler := NewSampler(engine.Normal{}, hand, history)
	rng := rand.New(rand.NewPCG(13, 13))
	hands := sampler.AssignRandomly(rng)
	checkValidAssignment(t, hands)
	if engine.ContainsCard(hands[1][:], engine.ClubsQueen) {
		t.Fatal("player 1 announced contra and cannot hold a clubs queen")
	}
}

func TestSamplerValueCopyYieldsFreshDraws(t *testing.T) {
	sampler := NewSampler(engine.Normal{}, testHand(), nil)
	rng := rand.New(rand.NewPCG(2019, 2019))
	first := sampler.AssignRandomly(rng)
	distinct := false
	for i := 0; i < 10 && !distinct; i++ {
		next := sampler.AssignRandomly(rng)
		checkValidAssignment(t, next)
		if next != first {
			distinct = true
		}
	}
	if !distinct {
		t.Fatal("repeated draws from one base state never differed")
	}
}
