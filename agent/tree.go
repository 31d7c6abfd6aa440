package agent

import (
	"math"
	"math/rand/v2"

	"github.com/maikel/doppelkopf/engine"
)

// childList is the fixed-capacity child index set of one node. A node gains
// at most one child per legal card move.
type childList struct {
	ids [engine.MaxLegalMoves]int32
	n   uint8
}

// Tree is a UCT search tree stored as a struct-of-arrays arena indexed by
// int32. Node 0 is a synthetic root labeled with NoAction; back edges
// (parents) and forward edges (children) coexist without ownership
// ambiguity, and the selection path stays cache-local.
type Tree struct {
	c       float64
	initial engine.InitialState
	past    engine.History

	actions  []engine.Action
	parents  []int32
	children []childList
	visits   []int32
	eyes     [][engine.NumPlayers]float64
	scores   [][engine.NumPlayers]float64
}

// NewTree allocates an arena with room for maxRollouts+1 nodes; the arena
// grows beyond that on demand.
func NewTree(c float64, maxRollouts int) *Tree {
	t := &Tree{
		c:        c,
		actions:  make([]engine.Action, 0, maxRollouts+1),
		parents:  make([]int32, 0, maxRollouts+1),
		children: make([]childList, 0, maxRollouts+1),
		visits:   make([]int32, 0, maxRollouts+1),
		eyes:     make([][engine.NumPlayers]float64, 0, maxRollouts+1),
		scores:   make([][engine.NumPlayers]float64, 0, maxRollouts+1),
	}
	t.seedRoot()
	return t
}

func (t *Tree) seedRoot() {
	t.appendNode(NoParent, engine.NoAction)
}

// NoParent marks the root's parent slot; the root backs onto itself.
const NoParent = int32(0)

func (t *Tree) appendNode(parent int32, a engine.Action) int32 {
	id := int32(len(t.actions))
	t.actions = append(t.actions, a)
	t.parents = append(t.parents, parent)
	t.children = append(t.children, childList{})
	t.visits = append(t.visits, 0)
	t.eyes = append(t.eyes, [engine.NumPlayers]float64{})
	t.scores = append(t.scores, [engine.NumPlayers]float64{})
	return id
}

// Reset empties the arena and stores the determinization and history prefix
// that every rollout replays.
func (t *Tree) Reset(initial engine.InitialState, past []engine.Action) {
	t.initial = initial
	t.past = engine.NewHistory(past)
	t.actions = t.actions[:0]
	t.parents = t.parents[:0]
	t.children = t.children[:0]
	t.visits = t.visits[:0]
	t.eyes = t.eyes[:0]
	t.scores = t.scores[:0]
	t.seedRoot()
}

// Observers

// Size returns the number of arena nodes including the root.
func (t *Tree) Size() int { return len(t.actions) }

// Visits returns the visit count of node n.
func (t *Tree) Visits(n int32) int { return int(t.visits[n]) }

// ActionAt returns the action labeling node n.
func (t *Tree) ActionAt(n int32) engine.Action { return t.actions[n] }

// Parent returns the parent index of node n.
func (t *Tree) Parent(n int32) int32 { return t.parents[n] }

// ChildrenOf returns a view of node n's child indices.
func (t *Tree) ChildrenOf(n int32) []int32 {
	c := &t.children[n]
	return c.ids[:c.n]
}

// RootChildren returns the root's child indices.
func (t *Tree) RootChildren() []int32 { return t.ChildrenOf(0) }

// EyesAt returns the per-player cumulative eyes of node n.
func (t *Tree) EyesAt(n int32) [engine.NumPlayers]float64 { return t.eyes[n] }

// ScoresAt returns the per-player cumulative scores of node n.
func (t *Tree) ScoresAt(n int32) [engine.NumPlayers]float64 { return t.scores[n] }

// ExpectedEyes returns the average eyes of player p at node n.
func (t *Tree) ExpectedEyes(n int32, p engine.Player) float64 {
	return t.eyes[n][p] / float64(t.visits[n])
}

// ExpectedScore returns the average score of player p at node n.
func (t *Tree) ExpectedScore(n int32, p engine.Player) float64 {
	return t.scores[n][p] / float64(t.visits[n])
}

// RolloutOnce performs one select / expand / simulate / backpropagate cycle.
func (t *Tree) RolloutOnce(rng *rand.Rand, rules engine.Contract) {
	history := t.past
	state := engine.NewRunningState(rules, t.initial, &history)

	// Select: descend along UCB1-maximal children, applying their actions.
	selected := int32(0)
	for t.children[selected].n > 0 {
		selected = t.selectChild(selected)
		a := t.actions[selected]
		history.Append(a)
		state.Apply(rules, a, history.NumCards())
	}

	// Expand: one child per legal card move; announcements stay out of the
	// tree to keep branching bounded.
	if state.Hands.Len[state.Player] > 0 {
		legal := rules.LegalActions(state.Hands.Hand(state.Player), &state.Trick, history.Slice())
		for _, c := range legal.CardMoves() {
			child := t.appendNode(selected, engine.CardAction(c))
			list := &t.children[selected]
			list.ids[list.n] = child
			list.n++
		}
	}

	// Simulate: uniformly random legal card moves until the deal ends.
	for state.Hands.Len[state.Player] > 0 {
		legal := rules.LegalActions(state.Hands.Hand(state.Player), &state.Trick, history.Slice())
		c := legal.Cards[rng.IntN(int(legal.NumCards))]
		a := engine.CardAction(c)
		history.Append(a)
		state.Apply(rules, a, history.NumCards())
	}

	// Backpropagate the terminal scores along the realized path.
	scoreState := rules.ComputeScoreState(history.Slice())
	scores := scoreState.Scores()
	var eyes [engine.NumPlayers]float64
	var points [engine.NumPlayers]float64
	for p := engine.Player(0); p < engine.NumPlayers; p++ {
		eyes[p] = float64(scoreState.PlayerEyes(p))
		points[p] = float64(scores[p])
	}
	node := selected
	for {
		t.visits[node]++
		for p := 0; p < engine.NumPlayers; p++ {
			t.eyes[node][p] += eyes[p]
			t.scores[node][p] += points[p]
		}
		if node == 0 {
			return
		}
		node = t.parents[node]
	}
}

// selectChild picks the UCB1-maximal child of node. Unvisited children are
// treated as infinitely attractive. The exploitation term is the composite
// reward of the player whose action labels the child: normalized expected
// eyes plus expected tournament score.
func (t *Tree) selectChild(node int32) int32 {
	list := &t.children[node]
	logN := math.Log(float64(t.visits[node]))
	best := list.ids[0]
	bestScore := math.Inf(-1)
	for _, child := range list.ids[:list.n] {
		if t.visits[child] == 0 {
			return child
		}
		p := t.actions[child].Player()
		visits := float64(t.visits[child])
		q := t.eyes[child][p]/visits/engine.TotalEyes + t.scores[child][p]/visits
		score := q + t.c*math.Sqrt(logN/visits)
		if score > bestScore {
			best = child
			bestScore = score
		}
	}
	return best
}
