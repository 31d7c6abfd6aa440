package engine

import "fmt"

// Phase enumerates the lifecycle of a deal.
type Phase uint8

const (
	PhaseDeclareContracts Phase = iota
	PhaseSpecializeContracts
	PhaseRunning
	PhaseScore
)

// Healthiness is a player's initial choice: accept normal play or open a
// special contract.
type Healthiness uint8

const (
	Healthy Healthiness = iota
	Reservation
)

// DeclaredContract is a player's healthy/reservation choice.
type DeclaredContract struct {
	Player Player
	Health Healthiness
}

// SpecializedContract is a reserving player's concrete contract choice.
type SpecializedContract struct {
	Player Player
	Rules  Contract
}

// Game advances a single table through its deals:
// declare contracts → specialize contracts → running → score.
type Game struct {
	// FirstPlayer is the dealer seat. It leads non-solo deals and rotates
	// between deals.
	FirstPlayer Player
	Phase       Phase
	// Next is the seat expected to act in the declare and specialize phases.
	Next Player

	initialHands [NumPlayers][HandSize]Card
	declarations [NumPlayers]Healthiness
	hasDeclared  [NumPlayers]bool
	contracts    [NumPlayers]Contract

	// Rules and State are valid while running.
	Rules   Contract
	State   RunningState
	History History

	// Eyes and FinalScores are valid in the score phase.
	Eyes        [NumPlayers]int
	FinalScores [NumPlayers]int
}

// NewGame starts a table with the given dealer and dealt hands.
func NewGame(first Player, hands [NumPlayers][HandSize]Card) *Game {
	g := &Game{FirstPlayer: first}
	g.resetDeal(hands)
	return g
}

func (g *Game) resetDeal(hands [NumPlayers][HandSize]Card) {
	for p := range hands {
		for i, c := range hands[p] {
			g.initialHands[p][i] = c.WithPlayer(Player(p))
		}
	}
	g.Phase = PhaseDeclareContracts
	g.Next = g.FirstPlayer
	g.hasDeclared = [NumPlayers]bool{}
	g.contracts = [NumPlayers]Contract{}
	g.Rules = nil
	g.History = History{}
	g.State = RunningState{}
	g.Eyes = [NumPlayers]int{}
	g.FinalScores = [NumPlayers]int{}
}

// InitialHandOf returns the dealt hand of seat p.
func (g *Game) InitialHandOf(p Player) [HandSize]Card { return g.initialHands[p] }

// ChooseDeclared records a healthy/reservation choice. Choices are collected
// in seat order starting from the dealer; when every player declared healthy
// the deal skips directly to running under normal rules.
func (g *Game) ChooseDeclared(contract DeclaredContract) error {
	if g.Phase != PhaseDeclareContracts {
		return fmt.Errorf("%w: choose declared in phase %d", ErrInvalidState, g.Phase)
	}
	if contract.Player != g.Next {
		return &NotNextPlayerError{Player: contract.Player}
	}
	g.declarations[contract.Player] = contract.Health
	g.hasDeclared[contract.Player] = true
	g.Next = NextPlayer(contract.Player)
	if !g.hasDeclared[g.Next] {
		return nil
	}
	allHealthy := true
	for p := Player(0); p < NumPlayers; p++ {
		if g.declarations[p] == Healthy {
			g.contracts[p] = Normal{}
		} else {
			allHealthy = false
		}
	}
	if allHealthy {
		g.startRunning(Normal{})
		return nil
	}
	g.Phase = PhaseSpecializeContracts
	g.Next = g.nextReserver(g.Next)
	return nil
}

// nextReserver scans seats from p for one that still owes a contract choice.
func (g *Game) nextReserver(p Player) Player {
	for g.contracts[p] != nil {
		p = NextPlayer(p)
	}
	return p
}

// ChooseSpecialized records a reserver's concrete contract. When the last
// choice arrives, the contract with the highest ordinal wins; ties prefer
// the lowest seat. A winning solo is led by the soloist and does not rotate
// the dealer.
func (g *Game) ChooseSpecialized(contract SpecializedContract) error {
	if g.Phase != PhaseSpecializeContracts {
		return fmt.Errorf("%w: choose specialized in phase %d", ErrInvalidState, g.Phase)
	}
	if contract.Player != g.Next {
		return &NotNextPlayerError{Player: contract.Player}
	}
	if contract.Rules == nil {
		return fmt.Errorf("%w: specialized contract without rules", ErrInvalidState)
	}
	g.contracts[contract.Player] = contract.Rules
	for p := Player(0); p < NumPlayers; p++ {
		if g.contracts[p] == nil {
			g.Next = g.nextReserver(NextPlayer(contract.Player))
			return nil
		}
	}
	winner := g.contracts[0]
	for p := Player(1); p < NumPlayers; p++ {
		if g.contracts[p].Ordinal() > winner.Ordinal() {
			winner = g.contracts[p]
		}
	}
	g.startRunning(winner)
	return nil
}

func (g *Game) startRunning(rules Contract) {
	g.Rules = rules
	g.Phase = PhaseRunning
	g.State = RunningState{
		Player: rules.Leader(g.FirstPlayer),
		Hands:  NewHandSet(g.initialHands),
	}
	if _, solo := rules.(Solo); !solo {
		g.FirstPlayer = NextPlayer(g.FirstPlayer)
	}
}

// Play applies one action of the running deal. After the 48th card the deal
// is scored and the machine enters the score phase.
func (g *Game) Play(a Action) error {
	if g.Phase != PhaseRunning {
		return fmt.Errorf("%w: play in phase %d", ErrInvalidState, g.Phase)
	}
	if a.Player() != g.State.Player {
		return &NotNextPlayerError{Player: a.Player()}
	}
	if c, ok := a.AsCard(); ok && !ContainsCard(g.State.Hands.Hand(c.Player()), c) {
		return fmt.Errorf("%w: player %d does not hold the played card", ErrInvalidState, c.Player())
	}
	g.History.Append(a)
	g.State.Apply(g.Rules, a, g.History.NumCards())
	if !g.State.Hands.Exhausted() {
		return nil
	}
	state := g.Rules.ComputeScoreState(g.History.Slice())
	for p := Player(0); p < NumPlayers; p++ {
		g.Eyes[p] = state.PlayerEyes(p)
	}
	g.FinalScores = state.Scores()
	g.Phase = PhaseScore
	return nil
}

// NextDeal returns the machine to the declare phase with fresh hands.
func (g *Game) NextDeal(hands [NumPlayers][HandSize]Card) error {
	if g.Phase != PhaseScore {
		return fmt.Errorf("%w: next deal in phase %d", ErrInvalidState, g.Phase)
	}
	g.resetDeal(hands)
	return nil
}
