package engine

// Trick is the buffer of up to four cards in the current round.
type Trick struct {
	Cards [4]Card
	Len   uint8
}

// Lead returns the first card of the trick.
func (t *Trick) Lead() Card { return t.Cards[0] }

// Empty reports whether no card has been played to the trick yet.
func (t *Trick) Empty() bool { return t.Len == 0 }

func (t *Trick) push(c Card) {
	t.Cards[t.Len] = c
	t.Len++
}

// Eyes returns the summed eye value of the trick.
func (t *Trick) Eyes() int {
	eyes := 0
	for _, c := range t.Cards[:t.Len] {
		eyes += c.Eyes()
	}
	return eyes
}

// HandSet holds the four current hands. A flat value type, copied with =.
type HandSet struct {
	Cards [NumPlayers][HandSize]Card
	Len   [NumPlayers]uint8
}

// NewHandSet builds a hand set from four dealt hands, tagging each card with
// its owner.
func NewHandSet(hands [NumPlayers][HandSize]Card) HandSet {
	var hs HandSet
	for p := range hands {
		for i, c := range hands[p] {
			hs.Cards[p][i] = c.WithPlayer(Player(p))
		}
		hs.Len[p] = HandSize
	}
	return hs
}

// Hand returns a view of player p's remaining cards.
func (hs *HandSet) Hand(p Player) []Card { return hs.Cards[p][:hs.Len[p]] }

// Remove deletes one copy of c from p's hand via swap-remove. It reports
// whether a copy was found.
func (hs *HandSet) Remove(p Player, c Card) bool {
	hand := hs.Cards[p][:hs.Len[p]]
	for i, held := range hand {
		if held.SameCard(c) {
			hand[i] = hand[len(hand)-1]
			hs.Len[p]--
			return true
		}
	}
	return false
}

// Exhausted reports whether every hand is empty.
func (hs *HandSet) Exhausted() bool {
	return hs.Len[0] == 0 && hs.Len[1] == 0 && hs.Len[2] == 0 && hs.Len[3] == 0
}

// InitialState is a concrete deal: the leading player and all four hands.
// Determinizations produce one of these per search tree.
type InitialState struct {
	Player Player
	Hands  [NumPlayers][HandSize]Card
}

// RunningState is the mid-deal view used by rollouts: whose turn it is, the
// remaining hands and the open trick.
type RunningState struct {
	Player Player
	Hands  HandSet
	Trick  Trick
}

// NewRunningState replays history from an initial deal.
func NewRunningState(rules Contract, initial InitialState, history *History) RunningState {
	st := RunningState{Player: initial.Player, Hands: NewHandSet(initial.Hands)}
	played := 0
	for _, a := range history.Slice() {
		if a.IsCard() {
			played++
		}
		st.Apply(rules, a, played)
	}
	return st
}

// AdvanceTrick pushes c onto the trick. On the fourth card the trick is
// resolved and cleared. Returns the player to act next; played must count
// card actions including c.
func AdvanceTrick(rules Contract, t *Trick, c Card, played int) Player {
	t.push(c)
	if t.Len < 4 {
		return NextPlayer(c.Player())
	}
	winner := t.Cards[rules.FindWinner(t.Cards[:], played)].Player()
	t.Len = 0
	return winner
}

// Apply advances the state by one action. A card play removes the card from
// the acting hand and advances the trick; an announcement leaves the turn
// with the announcer. played must count card actions including a.
func (st *RunningState) Apply(rules Contract, a Action, played int) {
	st.Player = a.Player()
	if c, ok := a.AsCard(); ok {
		st.Hands.Remove(c.Player(), c)
		st.Player = AdvanceTrick(rules, &st.Trick, c, played)
	}
}

// InitialHand reconstructs a player's dealt hand from their remaining cards
// plus every card they already played.
func InitialHand(p Player, hand []Card, history []Action) [HandSize]Card {
	var initial [HandSize]Card
	n := copy(initial[:], hand)
	for _, a := range history {
		if c, ok := a.AsCard(); ok && c.Player() == p {
			initial[n] = c
			n++
		}
	}
	return initial
}

// ContainsCard reports whether cards holds at least one copy of c.
func ContainsCard(cards []Card, c Card) bool {
	for _, held := range cards {
		if held.SameCard(c) {
			return true
		}
	}
	return false
}

// CountCard returns the number of copies of c among cards.
func CountCard(cards []Card, c Card) int {
	n := 0
	for _, held := range cards {
		if held.SameCard(c) {
			n++
		}
	}
	return n
}
