package engine

// SoloType selects the trump definition of a solo contract.
type SoloType uint8

const (
	SoloJack SoloType = iota
	SoloQueen
	SoloDiamonds
	SoloHearts
	SoloSpades
	SoloClubs
)

// Contract describes one ruleset for a deal. The three variants (Normal,
// Marriage, Solo) differ in trump membership, party assignment and scoring
// details; all behavior is dispatched through this interface.
type Contract interface {
	// IsTrump reports whether c counts as trump under this contract.
	IsTrump(c Card) bool
	// TrumpOrder returns the rank of c within trump, 1 being the weakest
	// trump, or 0 when c is not trump.
	TrumpOrder(c Card) int
	// FindWinner returns the index of the winning card of a complete trick.
	// played counts the card actions of the deal including this trick.
	FindWinner(trick []Card, played int) int
	// ObservedParty derives the party of a player from public information
	// only: announcements, played club queens, contract roles.
	ObservedParty(p Player, history []Action) Party
	// LegalActions enumerates the moves available to the holder of hand.
	LegalActions(hand []Card, trick *Trick, history []Action) LegalActions
	// ComputeScoreState walks a deal history into eyes, bids and bonuses.
	ComputeScoreState(history []Action) ScoreState
	// Ordinal orders contracts for the specialization auction:
	// normal < marriage < solo-jack < solo-queen < color solos.
	Ordinal() int
	// Leader returns the player who leads the first trick, given the seat
	// that would lead by dealer rotation.
	Leader(first Player) Player
}

// LegalActions separates the optional announcement from the card moves so
// rollout code can restrict itself to cards.
type LegalActions struct {
	Bid      Announcement
	HasBid   bool
	Cards    [MaxLegalMoves]Card
	NumCards uint8
}

// CardMoves returns the playable cards.
func (l *LegalActions) CardMoves() []Card { return l.Cards[:l.NumCards] }

// ---------------------------------------------------------------------------
// Trump-order tables
// ---------------------------------------------------------------------------

func makeNormalTrumpOrder() [NumDistinct]int {
	var order [NumDistinct]int
	counter := 1
	for _, c := range []Card{
		NewCard(Diamonds, Nine), NewCard(Diamonds, King),
		NewCard(Diamonds, Ten), NewCard(Diamonds, Ace),
		NewCard(Diamonds, Jack), NewCard(Hearts, Jack),
		NewCard(Spades, Jack), NewCard(Clubs, Jack),
		NewCard(Diamonds, Queen), NewCard(Hearts, Queen),
		NewCard(Spades, Queen), NewCard(Clubs, Queen),
		NewCard(Hearts, Ten),
	} {
		order[c.Index()] = counter
		counter++
	}
	return order
}

func makeSoloTrumpOrder(t SoloType) [NumDistinct]int {
	var order [NumDistinct]int
	counter := 1
	set := func(suit Suit, face Face) {
		order[CardIndex(suit, face)] = counter
		counter++
	}
	colorTrumps := func(suit Suit) {
		set(suit, Nine)
		set(suit, King)
		set(suit, Ten)
		set(suit, Ace)
		set(Diamonds, Jack)
		set(Hearts, Jack)
		set(Spades, Jack)
		set(Clubs, Jack)
		set(Diamonds, Queen)
		set(Hearts, Queen)
		set(Spades, Queen)
		set(Clubs, Queen)
		set(Hearts, Ten)
	}
	switch t {
	case SoloJack:
		set(Diamonds, Jack)
		set(Hearts, Jack)
		set(Spades, Jack)
		set(Clubs, Jack)
	case SoloQueen:
		set(Diamonds, Queen)
		set(Hearts, Queen)
		set(Spades, Queen)
		set(Clubs, Queen)
	case SoloDiamonds:
		colorTrumps(Diamonds)
	case SoloHearts:
		colorTrumps(Hearts)
	case SoloSpades:
		colorTrumps(Spades)
	case SoloClubs:
		colorTrumps(Clubs)
	}
	return order
}

var normalTrumpOrder = makeNormalTrumpOrder()

var soloTrumpOrders = [6][NumDistinct]int{
	makeSoloTrumpOrder(SoloJack),
	makeSoloTrumpOrder(SoloQueen),
	makeSoloTrumpOrder(SoloDiamonds),
	makeSoloTrumpOrder(SoloHearts),
	makeSoloTrumpOrder(SoloSpades),
	makeSoloTrumpOrder(SoloClubs),
}

// maxTrick returns the index of the strongest card of the trick under the
// given trump order. Within trump the higher order wins; outside trump only
// cards following the led suit compete and ties keep the earlier card.
func maxTrick(order *[NumDistinct]int, trick []Card) int {
	best := 0
	for i := 1; i < len(trick); i++ {
		lhs, rhs := trick[best], trick[i]
		lo, ro := order[lhs.Index()], order[rhs.Index()]
		switch {
		case lo > 0:
			if ro > lo {
				best = i
			}
		case ro > 0:
			best = i
		case lhs.Suit() == rhs.Suit() && rhs.Eyes() > lhs.Eyes():
			best = i
		}
	}
	return best
}

// ---------------------------------------------------------------------------
// Normal contract
// ---------------------------------------------------------------------------

// Normal is the default contract: club queens define the Re party.
type Normal struct{}

func (Normal) TrumpOrder(c Card) int { return normalTrumpOrder[c.Index()] }
func (Normal) IsTrump(c Card) bool   { return normalTrumpOrder[c.Index()] != 0 }
func (Normal) Ordinal() int          { return 0 }

func (Normal) Leader(first Player) Player { return first }

// secondHeartsTenLimit bounds the deal segment in which a second hearts ten
// overrules the first within one trick.
const secondHeartsTenLimit = 36

func (n Normal) FindWinner(trick []Card, played int) int {
	best := maxTrick(&normalTrumpOrder, trick)
	heartsTen := NewCard(Hearts, Ten)
	if played <= secondHeartsTenLimit && trick[best].SameCard(heartsTen) {
		for i := best + 1; i < len(trick); i++ {
			if trick[i].SameCard(heartsTen) {
				return i
			}
		}
	}
	return best
}

// InitialParty returns the party defined by clubs-queen ownership of a dealt
// hand.
func InitialParty(hand []Card) Party {
	if ContainsCard(hand, ClubsQueen) {
		return Re
	}
	return Contra
}

func (Normal) ObservedParty(p Player, history []Action) Party {
	for _, a := range history {
		if bid, ok := a.AsAnnouncement(); ok && bid.Player() == p {
			return bid.Party()
		}
		if c, ok := a.AsCard(); ok && c.Player() == p && c.SameCard(ClubsQueen) {
			return Re
		}
	}
	return Contra
}

func (n Normal) LegalActions(hand []Card, trick *Trick, history []Action) LegalActions {
	player := hand[0].Player()
	initial := InitialHand(player, hand, history)
	party := InitialParty(initial[:])
	return legalActions(n, party, hand, trick, history)
}

func (n Normal) ComputeScoreState(history []Action) ScoreState {
	return computeScoreState(n, history, true)
}

// ---------------------------------------------------------------------------
// Marriage contract
// ---------------------------------------------------------------------------

// Marriage is declared by a player holding both club queens. Trump and trick
// rules follow the normal contract; the bride's partner is the first
// non-bride player to win a trick with a non-trump lead among the first
// three tricks. Without such a winner the bride plays a silent solo.
type Marriage struct {
	Bride Player
}

func (Marriage) TrumpOrder(c Card) int { return Normal{}.TrumpOrder(c) }
func (Marriage) IsTrump(c Card) bool   { return Normal{}.IsTrump(c) }
func (Marriage) Ordinal() int          { return 1 }

func (Marriage) Leader(first Player) Player { return first }

func (Marriage) FindWinner(trick []Card, played int) int {
	return Normal{}.FindWinner(trick, played)
}

func (m Marriage) ObservedParty(p Player, history []Action) Party {
	if p == m.Bride {
		return Re
	}
	var trick Trick
	played := 0
	tricks := 0
	for _, a := range history {
		if tricks >= 3 {
			break
		}
		c, ok := a.AsCard()
		if !ok {
			continue
		}
		played++
		leadTrump := m.IsTrump(c)
		if !trick.Empty() {
			leadTrump = m.IsTrump(trick.Lead())
		}
		winner := AdvanceTrick(m, &trick, c, played)
		if trick.Empty() {
			if winner != m.Bride && !leadTrump {
				if winner == p {
					return Re
				}
				return Contra
			}
			tricks++
		}
	}
	return Contra
}

func (m Marriage) LegalActions(hand []Card, trick *Trick, history []Action) LegalActions {
	return Normal{}.LegalActions(hand, trick, history)
}

func (m Marriage) ComputeScoreState(history []Action) ScoreState {
	return computeScoreState(m, history, true)
}

// ---------------------------------------------------------------------------
// Solo contracts
// ---------------------------------------------------------------------------

// Solo puts one player alone on Re with a modified trump definition.
type Solo struct {
	Player Player
	Type   SoloType
}

func (s Solo) TrumpOrder(c Card) int { return soloTrumpOrders[s.Type][c.Index()] }
func (s Solo) IsTrump(c Card) bool   { return s.TrumpOrder(c) != 0 }
func (s Solo) Ordinal() int          { return 2 + int(s.Type) }

func (s Solo) Leader(Player) Player { return s.Player }

func (s Solo) FindWinner(trick []Card, played int) int {
	return maxTrick(&soloTrumpOrders[s.Type], trick)
}

func (s Solo) ObservedParty(p Player, history []Action) Party {
	if p == s.Player {
		return Re
	}
	return Contra
}

func (s Solo) LegalActions(hand []Card, trick *Trick, history []Action) LegalActions {
	player := hand[0].Player()
	party := s.ObservedParty(player, history)
	return legalActions(s, party, hand, trick, history)
}

func (s Solo) ComputeScoreState(history []Action) ScoreState {
	return computeScoreState(s, history, false)
}
