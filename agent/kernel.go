package agent

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"

	"github.com/maikel/doppelkopf/engine"
)

// Executor runs kernel work off the caller's loop. A single-worker pool is
// sufficient; kernels post exactly one task per computation.
type Executor interface {
	Post(task func())
}

// ErrComputationAlreadyRunning is returned when a kernel is started while a
// previous computation has not finished.
var ErrComputationAlreadyRunning = errors.New("agent: computation is already running")

// ErrComputationAborted is delivered to the completion callback when a
// kernel observes cancellation between rollout batches.
var ErrComputationAborted = errors.New("agent: computation has been aborted")

// Defaults for kernel configuration.
const (
	DefaultActionTrees      = 100
	DefaultActionRollouts   = 10000
	DefaultContractTrees    = 100
	DefaultContractRollouts = 5000
	DefaultBatchSize        = 100
	DefaultExplorationC     = 4.0
)

// KernelOptions configures one kernel: the number of determinizations, the
// rollouts per determinization, the cancellation granularity and the UCB1
// exploration constant.
type KernelOptions struct {
	NTrees       int
	NRollouts    int
	BatchSize    int
	ExplorationC float64
}

func (o KernelOptions) withDefaults(trees, rollouts int) KernelOptions {
	if o.NTrees <= 0 {
		o.NTrees = trees
	}
	if o.NRollouts <= 0 {
		o.NRollouts = rollouts
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.ExplorationC <= 0 {
		o.ExplorationC = DefaultExplorationC
	}
	return o
}

// Stats aggregates per-root-child statistics across determinizations,
// keyed by action.
type Stats struct {
	Actions []engine.Action
	Visits  []int64
	Eyes    [][engine.NumPlayers]float64
	Scores  [][engine.NumPlayers]float64
}

func (s *Stats) indexOf(a engine.Action) int {
	for i, known := range s.Actions {
		if known == a {
			return i
		}
	}
	s.Actions = append(s.Actions, a)
	s.Visits = append(s.Visits, 0)
	s.Eyes = append(s.Eyes, [engine.NumPlayers]float64{})
	s.Scores = append(s.Scores, [engine.NumPlayers]float64{})
	return len(s.Actions) - 1
}

func (s *Stats) add(t *Tree) {
	for _, child := range t.RootChildren() {
		i := s.indexOf(t.ActionAt(child))
		s.Visits[i] += int64(t.Visits(child))
		eyes := t.EyesAt(child)
		scores := t.ScoresAt(child)
		for p := 0; p < engine.NumPlayers; p++ {
			s.Eyes[i][p] += eyes[p]
			s.Scores[i][p] += scores[p]
		}
	}
}

// Best returns the index of the most visited action, or -1 when empty.
func (s *Stats) Best() int {
	best := -1
	for i, v := range s.Visits {
		if best < 0 || v > s.Visits[best] {
			best = i
		}
	}
	return best
}

// ExpectedEyes returns the average eyes of player p under action i.
func (s *Stats) ExpectedEyes(i int, p engine.Player) float64 {
	return s.Eyes[i][p] / float64(s.Visits[i])
}

// ExpectedScore returns the average tournament score of player p under
// action i.
func (s *Stats) ExpectedScore(i int, p engine.Player) float64 {
	return s.Scores[i][p] / float64(s.Visits[i])
}

// runTrees drives n_trees determinizations of n_rollouts each over the
// given tree, checking the running flag between batches, and merges the
// per-root-child statistics into stats.
func runTrees(tree *Tree, running *atomic.Bool, opts KernelOptions, rng *rand.Rand,
	rules engine.Contract, initialPlayer engine.Player, sampler *Sampler,
	history []engine.Action, stats *Stats) error {
	for i := 0; i < opts.NTrees; i++ {
		initial := engine.InitialState{
			Player: initialPlayer,
			Hands:  sampler.AssignRandomly(rng),
		}
		tree.Reset(initial, history)
		for done := 0; done < opts.NRollouts; {
			if !running.Load() {
				return ErrComputationAborted
			}
			n := min(opts.BatchSize, opts.NRollouts-done)
			for j := 0; j < n; j++ {
				tree.RolloutOnce(rng, rules)
			}
			done += n
		}
		stats.add(tree)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Action kernel
// ---------------------------------------------------------------------------

// ActionKernel decides the next move of a running deal. At most one
// computation is outstanding per kernel; the flag is manipulated with
// compare-and-swap so a second start fails fast and cancellation is
// observed between rollout batches.
type ActionKernel struct {
	tree    *Tree
	opts    KernelOptions
	rng     *rand.Rand
	running atomic.Bool
}

// NewActionKernel creates an action kernel with its own rollout RNG.
func NewActionKernel(opts KernelOptions, seed uint64) *ActionKernel {
	opts = opts.withDefaults(DefaultActionTrees, DefaultActionRollouts)
	return &ActionKernel{
		tree: NewTree(opts.ExplorationC, opts.NRollouts),
		opts: opts,
		rng:  rand.New(rand.NewPCG(seed, seed)),
	}
}

// AsyncRollout posts one search task to the executor and returns
// immediately. onDone receives either the aggregated statistics or
// ErrComputationAborted; the chosen action is the most visited one.
func (k *ActionKernel) AsyncRollout(executor Executor, rules engine.Contract,
	initialPlayer engine.Player, hand []engine.Card, history []engine.Action,
	onDone func(error, *Stats)) error {
	if !k.running.CompareAndSwap(false, true) {
		return ErrComputationAlreadyRunning
	}
	handCopy := append([]engine.Card(nil), hand...)
	past := append([]engine.Action(nil), history...)
	executor.Post(func() {
		sampler := NewSampler(rules, handCopy, past)
		stats := &Stats{}
		err := runTrees(k.tree, &k.running, k.opts, k.rng, rules, initialPlayer,
			&sampler, past, stats)
		onDone(err, stats)
		k.running.Store(false)
	})
	return nil
}

// IsRunning reports whether a computation is outstanding.
func (k *ActionKernel) IsRunning() bool { return k.running.Load() }

// Cancel requests cooperative cancellation. It reports whether a running
// computation was signalled; the worker aborts within one rollout batch.
func (k *ActionKernel) Cancel() bool { return k.running.CompareAndSwap(true, false) }

// ---------------------------------------------------------------------------
// Contract kernel
// ---------------------------------------------------------------------------

// ContractKernel decides which contract to declare for an initial hand. It
// evaluates every candidate contract with the same determinization × rollout
// procedure and publishes the best ruleset for the later specialize step.
type ContractKernel struct {
	tree    *Tree
	opts    KernelOptions
	rng     *rand.Rand
	running atomic.Bool

	mu   sync.Mutex
	best engine.Contract
}

// NewContractKernel creates a contract kernel with its own rollout RNG.
func NewContractKernel(opts KernelOptions, seed uint64) *ContractKernel {
	opts = opts.withDefaults(DefaultContractTrees, DefaultContractRollouts)
	return &ContractKernel{
		tree: NewTree(opts.ExplorationC, opts.NRollouts),
		opts: opts,
		rng:  rand.New(rand.NewPCG(seed, seed)),
	}
}

// candidateContracts lists the contracts a player may declare with the
// given hand. Marriage requires both club queens.
func candidateContracts(self engine.Player, hand []engine.Card) []engine.Contract {
	candidates := []engine.Contract{engine.Normal{}}
	if engine.CountCard(hand, engine.ClubsQueen) == 2 {
		candidates = append(candidates, engine.Marriage{Bride: self})
	}
	for t := engine.SoloJack; t <= engine.SoloClubs; t++ {
		candidates = append(candidates, engine.Solo{Player: self, Type: t})
	}
	return candidates
}

// AsyncRollout evaluates every candidate contract from an empty history and
// reports the declared contract: healthy when normal play maximizes the
// expected tournament score, reservation otherwise.
func (k *ContractKernel) AsyncRollout(executor Executor, initialPlayer engine.Player,
	hand []engine.Card, onDone func(error, engine.DeclaredContract)) error {
	if !k.running.CompareAndSwap(false, true) {
		return ErrComputationAlreadyRunning
	}
	handCopy := append([]engine.Card(nil), hand...)
	executor.Post(func() {
		self := handCopy[0].Player()
		var best engine.Contract
		bestScore := 0.0
		var err error
		for _, rules := range candidateContracts(self, handCopy) {
			sampler := NewSampler(rules, handCopy, nil)
			stats := &Stats{}
			err = runTrees(k.tree, &k.running, k.opts, k.rng, rules,
				rules.Leader(initialPlayer), &sampler, nil, stats)
			if err != nil {
				break
			}
			i := stats.Best()
			if i < 0 {
				continue
			}
			score := stats.ExpectedScore(i, self)
			if best == nil || score > bestScore {
				best = rules
				bestScore = score
			}
		}
		if err == nil {
			k.mu.Lock()
			k.best = best
			k.mu.Unlock()
		}
		declared := engine.DeclaredContract{Player: self, Health: declarationFor(best)}
		onDone(err, declared)
		k.running.Store(false)
	})
	return nil
}

// declarationFor maps the winning ruleset onto the declaration wire value.
func declarationFor(best engine.Contract) engine.Healthiness {
	if _, ok := best.(engine.Normal); ok {
		return engine.Healthy
	}
	return engine.Reservation
}

// BestRules returns the published contract of the last finished
// computation.
func (k *ContractKernel) BestRules() (engine.Contract, bool) {
	if k.running.Load() {
		return nil, false
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.best == nil {
		return nil, false
	}
	return k.best, true
}

// IsRunning reports whether a computation is outstanding.
func (k *ContractKernel) IsRunning() bool { return k.running.Load() }

// Cancel requests cooperative cancellation. The worker aborts within one
// rollout batch.
func (k *ContractKernel) Cancel() bool { return k.running.CompareAndSwap(true, false) }
