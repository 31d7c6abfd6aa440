package agent

import (
	"errors"
	"testing"
	"time"

	"github.com/maikel/doppelkopf/engine"
)

// goExecutor runs every task on its own goroutine.
type goExecutor struct{}

func (goExecutor) Post(task func()) { go task() }

// manualExecutor collects tasks for explicit execution.
type manualExecutor struct {
	tasks []func()
}

func (m *manualExecutor) Post(task func()) { m.tasks = append(m.tasks, task) }

func (m *manualExecutor) runAll() {
	for _, task := range m.tasks {
		task()
	}
	m.tasks = nil
}

func smallOptions() KernelOptions {
	return KernelOptions{NTrees: 2, NRollouts: 40, BatchSize: 10, ExplorationC: DefaultExplorationC}
}

func TestActionKernelFindsMove(t *testing.T) {
	kernel := NewActionKernel(smallOptions(), 42)
	done := make(chan *Stats, 1)
	err := kernel.AsyncRollout(goExecutor{}, engine.Normal{}, 0, testHand(), nil,
		func(err error, stats *Stats) {
			if err != nil {
				t.Errorf("rollout error: %v", err)
			}
			done <- stats
		})
	if err != nil {
		t.Fatalf("async rollout: %v", err)
	}
	select {
	case stats := <-done:
		best := stats.Best()
		if best < 0 {
			t.Fatal("no action aggregated")
		}
		if !stats.Actions[best].IsCard() {
			t.Fatalf("best action %v is not a card", stats.Actions[best])
		}
		var total int64
		for _, v := range stats.Visits {
			total += v
		}
		// Every rollout after the expanding first one visits exactly one
		// root child.
		want := int64(smallOptions().NTrees * (smallOptions().NRollouts - 1))
		if total != want {
			t.Fatalf("aggregated visits = %d, want %d", total, want)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("kernel did not complete")
	}
	if kernel.IsRunning() {
		t.Fatal("kernel still marked running after completion")
	}
}

func TestActionKernelRejectsConcurrentStart(t *testing.T) {
	kernel := NewActionKernel(smallOptions(), 1)
	executor := &manualExecutor{}
	onDone := func(error, *Stats) {}
	if err := kernel.AsyncRollout(executor, engine.Normal{}, 0, testHand(), nil, onDone); err != nil {
		t.Fatalf("first start: %v", err)
	}
	err := kernel.AsyncRollout(executor, engine.Normal{}, 0, testHand(), nil, onDone)
	if !errors.Is(err, ErrComputationAlreadyRunning) {
		t.Fatalf("second start: %v, want ErrComputationAlreadyRunning", err)
	}
	executor.runAll()
	if kernel.IsRunning() {
		t.Fatal("kernel still running after the task finished")
	}
}

func TestActionKernelCancellation(t *testing.T) {
	opts := KernelOptions{NTrees: 1000, NRollouts: 100000, BatchSize: 50}
	kernel := NewActionKernel(opts, 7)
	done := make(chan error, 1)
	started := make(chan struct{})
	executor := &manualExecutor{}
	if err := kernel.AsyncRollout(executor, engine.Normal{}, 0, testHand(), nil,
		func(err error, stats *Stats) { done <- err }); err != nil {
		t.Fatalf("async rollout: %v", err)
	}
	go func() {
		close(started)
		executor.runAll()
	}()
	<-started
	if !kernel.Cancel() {
		t.Fatal("cancel found no running computation")
	}
	select {
	case err := <-done:
		if !errors.Is(err, ErrComputationAborted) {
			t.Fatalf("completion error = %v, want ErrComputationAborted", err)
		}
	case <-time.After(30 * time.Second):
		t.Fatal("cancellation was not observed")
	}
}

func TestCandidateContractsRequireBothQueensForMarriage(t *testing.T) {
	withQueens := candidateContracts(0, testHand())
	foundMarriage := false
	for _, c := range withQueens {
		if _, ok := c.(engine.Marriage); ok {
			foundMarriage = true
		}
	}
	if !foundMarriage {
		t.Fatal("two club queens must offer a marriage")
	}
	// normal + marriage + six solos
	if len(withQueens) != 8 {
		t.Fatalf("%d candidates, want 8", len(withQueens))
	}

	plain := []engine.Card{
		card(engine.Spades, engine.Ace, 0), card(engine.Spades, engine.King, 0),
		card(engine.Spades, engine.Nine, 0), card(engine.Spades, engine.Ten, 0),
		card(engine.Hearts, engine.Nine, 0), card(engine.Hearts, engine.King, 0),
		card(engine.Hearts, engine.Ace, 0), card(engine.Clubs, engine.Nine, 0),
		card(engine.Clubs, engine.King, 0), card(engine.Clubs, engine.Ace, 0),
		card(engine.Diamonds, engine.Nine, 0), card(engine.Diamonds, engine.King, 0),
	}
	withoutQueens := candidateContracts(0, plain)
	for _, c := range withoutQueens {
		if _, ok := c.(engine.Marriage); ok {
			t.Fatal("marriage offered without both club queens")
		}
	}
	if len(withoutQueens) != 7 {
		t.Fatalf("%d candidates, want 7", len(withoutQueens))
	}
}

func TestContractKernelDeclares(t *testing.T) {
	opts := KernelOptions{NTrees: 1, NRollouts: 20, BatchSize: 10}
	kernel := NewContractKernel(opts, 3)
	done := make(chan engine.DeclaredContract, 1)
	err := kernel.AsyncRollout(goExecutor{}, 0, testHand(),
		func(err error, declared engine.DeclaredContract) {
			if err != nil {
				t.Errorf("rollout error: %v", err)
			}
			done <- declared
		})
	if err != nil {
		t.Fatalf("async rollout: %v", err)
	}
	select {
	case declared := <-done:
		if declared.Player != 0 {
			t.Fatalf("declared player = %d, want 0", declared.Player)
		}
		best, ok := kernel.BestRules()
		if !ok || best == nil {
			t.Fatal("no published contract after completion")
		}
		wantHealth := declarationFor(best)
		if declared.Health != wantHealth {
			t.Fatalf("declared health %d does not match published rules %T", declared.Health, best)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("contract kernel did not complete")
	}
}
