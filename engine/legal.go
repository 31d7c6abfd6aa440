package engine

// A party announces at most five times per deal, and an announcement is only
// permitted while the announcer still holds more than 10 - (prior
// announcements by that party) cards.
const maxAnnouncements = 5

func countBids(history []Action, party Party) int {
	n := 0
	for _, a := range history {
		if bid, ok := a.AsAnnouncement(); ok && bid.Party() == party {
			n++
		}
	}
	return n
}

// legalActions is the shared suit-following oracle. The acting player's
// party is supplied by the contract variants.
func legalActions(rules Contract, party Party, hand []Card, trick *Trick, history []Action) LegalActions {
	var legal LegalActions
	player := hand[0].Player()
	nBids := countBids(history, party)
	if nBids < maxAnnouncements && len(hand) > 10-nBids {
		legal.Bid = NewAnnouncement(party, player)
		legal.HasBid = true
	}
	if trick.Empty() {
		legal.NumCards = uint8(copy(legal.Cards[:], hand))
		return legal
	}
	lead := trick.Lead()
	if rules.IsTrump(lead) {
		for _, c := range hand {
			if rules.IsTrump(c) {
				legal.Cards[legal.NumCards] = c
				legal.NumCards++
			}
		}
	} else {
		for _, c := range hand {
			if !rules.IsTrump(c) && c.Suit() == lead.Suit() {
				legal.Cards[legal.NumCards] = c
				legal.NumCards++
			}
		}
	}
	if legal.NumCards == 0 {
		legal.NumCards = uint8(copy(legal.Cards[:], hand))
	}
	return legal
}
