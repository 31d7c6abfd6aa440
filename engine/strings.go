package engine

import "fmt"

func (s Suit) String() string {
	return [...]string{"diamonds", "hearts", "spades", "clubs"}[s]
}

func (f Face) String() string {
	return [...]string{"nine", "jack", "queen", "king", "ten", "ace"}[f]
}

func (p Party) String() string {
	if p == Re {
		return "re"
	}
	return "contra"
}

func (c Card) String() string {
	return fmt.Sprintf("card(%s, %s)", c.Suit(), c.Face())
}

func (a Announcement) String() string {
	return fmt.Sprintf("announcement(%s)", a.Party())
}

func (a Action) String() string {
	if c, ok := a.AsCard(); ok {
		return c.String()
	}
	if bid, ok := a.AsAnnouncement(); ok {
		return bid.String()
	}
	return "action(none)"
}
