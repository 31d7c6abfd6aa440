package engine

// ScoreState accumulates everything needed to settle a deal: the party of
// every seat, eyes and announcement counts per party, bonus points and the
// minimum eyes each party needs to win.
type ScoreState struct {
	PlayerParty [NumPlayers]Party
	Eyes        [2]int
	Bids        [2]int
	BonusPoints [2]int
	MinPoints   [2]int
}

// PartyOf returns the party of seat p.
func (s *ScoreState) PartyOf(p Player) Party { return s.PlayerParty[p] }

// PlayerEyes returns the eyes credited to seat p, which are the eyes of
// their party.
func (s *ScoreState) PlayerEyes(p Player) int { return s.Eyes[s.PlayerParty[p]] }

// computeScoreState walks a deal history, resolving tricks and applying
// announcements. Bonus points (Doppelkopf, Fuchs, Charlie) only count in
// normal and marriage contracts.
func computeScoreState(rules Contract, history []Action, withBonuses bool) ScoreState {
	state := ScoreState{MinPoints: [2]int{121, 121}}
	for p := Player(0); p < NumPlayers; p++ {
		state.PlayerParty[p] = rules.ObservedParty(p, history)
	}
	var trick Trick
	played := 0
	for _, a := range history {
		if c, ok := a.AsCard(); ok {
			played++
			trick.push(c)
			if trick.Len < 4 {
				continue
			}
			winner := trick.Cards[rules.FindWinner(trick.Cards[:], played)].Player()
			winnerParty := state.PlayerParty[winner]
			eyes := trick.Eyes()
			state.Eyes[winnerParty] += eyes
			if withBonuses {
				// Doppelkopf: a single trick worth 40 or more eyes.
				if eyes >= 40 {
					state.BonusPoints[winnerParty]++
				}
				// Fuchs: capturing an opposing diamonds ace.
				// Charlie: capturing an opposing clubs jack in the last trick.
				for _, tc := range trick.Cards {
					ownerParty := state.PlayerParty[tc.Player()]
					if tc.SameCard(NewCard(Diamonds, Ace)) && ownerParty != winnerParty {
						state.BonusPoints[winnerParty]++
						break
					}
				}
				if played == DeckSize {
					for _, tc := range trick.Cards {
						ownerParty := state.PlayerParty[tc.Player()]
						if tc.SameCard(NewCard(Clubs, Jack)) && ownerParty != winnerParty {
							state.BonusPoints[winnerParty]++
							break
						}
					}
				}
			}
			trick.Len = 0
			continue
		}
		if bid, ok := a.AsAnnouncement(); ok {
			party := bid.Party()
			state.Bids[party]++
			nBids := state.Bids[party]
			state.MinPoints[party] = 121 + 30*(nBids-1)
			opponent := party.Opponent()
			if state.Bids[opponent] == 0 {
				state.MinPoints[opponent] = 120 - 30*(nBids-1)
			}
		}
	}
	return state
}

// Scores settles the deal into per-player tournament points. The losing
// side's points mirror the winner's, bonus points are applied as a signed
// difference, and a lone Re player has their score tripled.
func (s *ScoreState) Scores() [NumPlayers]int {
	var scores [NumPlayers]int
	winBonus := [2]int{Contra: 2, Re: 1}
	for _, party := range []Party{Contra, Re} {
		if s.Eyes[party] < s.MinPoints[party] {
			continue
		}
		diff := s.Eyes[party] - s.MinPoints[party]
		points := 2*max(0, s.Bids[party]-1) + winBonus[party] + diff/30
		if s.Bids[Contra] > 0 {
			points *= 2
		}
		if s.Bids[Re] > 0 {
			points *= 2
		}
		for p := Player(0); p < NumPlayers; p++ {
			if s.PlayerParty[p] == party {
				scores[p] = points
			} else {
				scores[p] = -points
			}
		}
	}
	bonusDiff := s.BonusPoints[Re] - s.BonusPoints[Contra]
	for p := Player(0); p < NumPlayers; p++ {
		if s.PlayerParty[p] == Re {
			scores[p] += bonusDiff
		} else {
			scores[p] -= bonusDiff
		}
	}
	numRe := 0
	for _, party := range s.PlayerParty {
		if party == Re {
			numRe++
		}
	}
	if numRe == 1 {
		for p := Player(0); p < NumPlayers; p++ {
			if s.PlayerParty[p] == Re {
				scores[p] *= 3
			}
		}
	}
	return scores
}
