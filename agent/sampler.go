// Package agent implements the decision core: consistent determinization of
// hidden hands and information-set Monte Carlo tree search over them.
package agent

import (
	"math/bits"
	"math/rand/v2"

	"github.com/maikel/doppelkopf/engine"
)

// Sampler tracks, for every distinct card, which players are known to hold a
// copy and which players may still hold one, given the public history of a
// deal. It is a flat value type: copying it with = yields an independent
// base state from which fresh determinizations can be drawn.
type Sampler struct {
	rules engine.Contract

	// holders lists players already known to hold a copy of each card.
	holders   [engine.NumDistinct][2]engine.Player
	holderLen [engine.NumDistinct]uint8
	// candidates is a 4-bit mask per card of players still permitted to
	// hold a copy.
	candidates [engine.NumDistinct]uint8
	// remaining is the multiset of card copies not yet assigned.
	remaining    [engine.DeckSize]engine.Card
	remainingLen uint8
	// needQueen holds players whose Re announcement implies a clubs queen
	// that has not been assigned to them yet.
	needQueen    [2]engine.Player
	needQueenLen uint8

	// open trick while streaming observations
	trickLead engine.Card
	trickLen  uint8
}

// NewSampler streams hand and every observed action into a sampler state.
// The residual hand cards are assigned to their owner, so only the
// opponents' unknown cards remain in the deck.
func NewSampler(rules engine.Contract, hand []engine.Card, history []engine.Action) Sampler {
	s := Sampler{rules: rules}
	for i := range s.candidates {
		s.candidates[i] = 0x0F
	}
	for n := 0; n < engine.DeckSize; n++ {
		s.remaining[n] = engine.CardAt(n % engine.NumDistinct)
	}
	s.remainingLen = engine.DeckSize

	residual := make([]engine.Card, len(hand))
	copy(residual, hand)
	for _, a := range history {
		residual = s.observe(a, residual)
	}
	for _, c := range residual {
		s.assign(c.Player(), c)
	}
	return s
}

// observe feeds one public action into the state and removes played own
// cards from the residual hand.
func (s *Sampler) observe(a engine.Action, residual []engine.Card) []engine.Card {
	if c, ok := a.AsCard(); ok {
		p := c.Player()
		s.assign(p, c)
		if s.trickLen > 0 {
			s.applySuitInference(p, c)
		} else {
			s.trickLead = c
		}
		s.trickLen++
		if s.trickLen == 4 {
			s.trickLen = 0
		}
		for i, held := range residual {
			if held.Player() == p && held.SameCard(c) {
				residual[i] = residual[len(residual)-1]
				residual = residual[:len(residual)-1]
				break
			}
		}
		return residual
	}
	if bid, ok := a.AsAnnouncement(); ok {
		cq := engine.ClubsQueen.Index()
		p := bid.Player()
		if bid.Party() == engine.Re {
			if s.needQueenLen < 2 && s.candidates[cq]&playerBit(p) != 0 &&
				!s.isHolder(cq, p) && !s.needsQueen(p) {
				s.needQueen[s.needQueenLen] = p
				s.needQueenLen++
			}
		} else {
			s.candidates[cq] &^= playerBit(p)
		}
	}
	return residual
}

// applySuitInference clears candidate bits implied by a failure to follow:
// discarding non-trump on a trump lead rules out every trump; discarding
// off-suit or trumping a non-trump lead rules out the led suit.
func (s *Sampler) applySuitInference(p engine.Player, c engine.Card) {
	leadTrump := s.rules.IsTrump(s.trickLead)
	switch {
	case leadTrump && !s.rules.IsTrump(c):
		for i := range s.candidates {
			if s.rules.IsTrump(engine.CardAt(i)) {
				s.candidates[i] &^= playerBit(p)
			}
		}
	case !leadTrump && (s.rules.IsTrump(c) || c.Suit() != s.trickLead.Suit()):
		suit := s.trickLead.Suit()
		for f := engine.Nine; f <= engine.Ace; f++ {
			led := engine.NewCard(suit, f)
			if !s.rules.IsTrump(led) {
				s.candidates[led.Index()] &^= playerBit(p)
			}
		}
	}
}

func playerBit(p engine.Player) uint8 { return 1 << p }

func (s *Sampler) isHolder(index int, p engine.Player) bool {
	for _, h := range s.holders[index][:s.holderLen[index]] {
		if h == p {
			return true
		}
	}
	return false
}

func (s *Sampler) needsQueen(p engine.Player) bool {
	for _, q := range s.needQueen[:s.needQueenLen] {
		if q == p {
			return true
		}
	}
	return false
}

// remainingSlots returns how many of p's 12 hand slots are still unassigned.
func (s *Sampler) remainingSlots(p engine.Player) int {
	n := engine.HandSize
	for i := range s.holders {
		for _, h := range s.holders[i][:s.holderLen[i]] {
			if h == p {
				n--
			}
		}
	}
	return n
}

// assign records p as holder of one copy of c, removes that copy from the
// deck and propagates the bookkeeping consequences.
func (s *Sampler) assign(p engine.Player, c engine.Card) {
	index := c.Index()
	for i := int(s.remainingLen) - 1; i >= 0; i-- {
		if s.remaining[i].SameCard(c) {
			s.remaining[i] = s.remaining[s.remainingLen-1]
			s.remainingLen--
			break
		}
	}
	slots := s.remainingSlots(p)
	s.holders[index][s.holderLen[index]] = p
	s.holderLen[index]++
	if s.holderLen[index] == 2 {
		s.candidates[index] = 0
	}
	if slots == 1 {
		// p's hand is full now; no further card can go there.
		for i := range s.candidates {
			s.candidates[i] &^= playerBit(p)
		}
	}
	if c.SameCard(engine.ClubsQueen) {
		for i, q := range s.needQueen[:s.needQueenLen] {
			if q == p {
				s.needQueen[i] = s.needQueen[s.needQueenLen-1]
				s.needQueenLen--
				break
			}
		}
	}
}

// assignUniqueCardCandidate assigns a copy of a card that only one player
// may still hold.
func (s *Sampler) assignUniqueCardCandidate() bool {
	for index, mask := range s.candidates {
		if bits.OnesCount8(mask) == 1 {
			p := engine.Player(bits.TrailingZeros8(mask))
			s.assign(p, engine.CardAt(index))
			return true
		}
	}
	return false
}

// assignUniqueCandidateCards fills a player's hand entirely when their open
// slot count equals the number of copies they may still receive.
func (s *Sampler) assignUniqueCandidateCards() bool {
	for p := engine.Player(0); p < engine.NumPlayers; p++ {
		slots := s.remainingSlots(p)
		if slots == 0 {
			continue
		}
		var possible [engine.DeckSize]engine.Card
		n := 0
		for _, c := range s.remaining[:s.remainingLen] {
			if s.candidates[c.Index()]&playerBit(p) != 0 {
				possible[n] = c
				n++
			}
		}
		if n == slots {
			for _, c := range possible[:n] {
				s.assign(p, c)
			}
			return true
		}
	}
	return false
}

// assignRequiredClubsQueen honors a pending Re announcement. A pending
// entry with no queen copy left cannot be satisfied and is dropped.
func (s *Sampler) assignRequiredClubsQueen() bool {
	if s.needQueenLen == 0 {
		return false
	}
	if s.holderLen[engine.ClubsQueen.Index()] == 2 {
		s.needQueenLen = 0
		return false
	}
	s.assign(s.needQueen[0], engine.ClubsQueen)
	return true
}

// AssignRandomly draws one complete assignment of all remaining cards.
// The value receiver keeps the streamed base state intact, so repeated
// calls yield independent determinizations.
func (s Sampler) AssignRandomly(rng *rand.Rand) [engine.NumPlayers][engine.HandSize]engine.Card {
	for s.remainingLen > 0 {
		if s.assignUniqueCardCandidate() ||
			s.assignUniqueCandidateCards() ||
			s.assignRequiredClubsQueen() {
			continue
		}
		last := s.remaining[s.remainingLen-1]
		mask := s.candidates[last.Index()]
		var candidates [engine.NumPlayers]engine.Player
		n := 0
		for p := engine.Player(0); p < engine.NumPlayers; p++ {
			if mask&playerBit(p) != 0 {
				candidates[n] = p
				n++
			}
		}
		s.assign(candidates[rng.IntN(n)], last)
	}
	return s.makeAssignment()
}

// makeAssignment materializes the four hands from the holder tables.
func (s *Sampler) makeAssignment() [engine.NumPlayers][engine.HandSize]engine.Card {
	var hands [engine.NumPlayers][engine.HandSize]engine.Card
	var lens [engine.NumPlayers]uint8
	for index := range s.holders {
		for _, p := range s.holders[index][:s.holderLen[index]] {
			hands[p][lens[p]] = engine.CardAt(index).WithPlayer(p)
			lens[p]++
		}
	}
	return hands
}
