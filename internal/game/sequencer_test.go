package game_test

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pebbles/internal/bot"
	"github.com/lox/pebbles/internal/game"
	"github.com/lox/pebbles/internal/randutil"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newSequencer wires a Sequencer to the real move engine with a scripted
// random source. Odd first draws put the Program first.
func newSequencer(draws ...uint32) (*game.Sequencer, *randutil.Sequence) {
	rng := randutil.NewSequence(draws...)
	logger := quietLogger()
	return game.NewSequencer(game.NewStore(), bot.NewEngine(rng, logger), rng, logger), rng
}

func winnerOf(t *testing.T, s game.State) game.Player {
	t.Helper()
	require.NotNil(t, s.Winner, "expected a winner")
	return *s.Winner
}

func TestReferenceScenario(t *testing.T) {
	// Program first, Easy takes 2; after the User takes 2 Easy takes 3;
	// the restart puts the User first.
	seq, _ := newSequencer(1, 1, 2, 0)

	events, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewCounterTurnEvent(2)}, events)

	state, err := seq.State()
	require.NoError(t, err)
	assert.Equal(t, uint32(10), state.PebblesCount)
	assert.Equal(t, uint32(3), state.MaxPebblesPerTurn)
	assert.Equal(t, uint32(8), state.PebblesRemaining)
	assert.Equal(t, game.Easy, state.Difficulty)
	assert.Equal(t, game.Program, state.FirstPlayer)
	assert.Nil(t, state.Winner)

	events, err = seq.Turn(2)
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewCounterTurnEvent(3)}, events)

	state, err = seq.State()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), state.PebblesRemaining)

	events, err = seq.GiveUp()
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewWonEvent(game.Program)}, events)

	state, err = seq.State()
	require.NoError(t, err)
	assert.Equal(t, game.Program, winnerOf(t, state))

	events, err = seq.Restart(game.Config{PebblesCount: 15, MaxPebblesPerTurn: 4, Difficulty: game.Hard})
	require.NoError(t, err)
	assert.Empty(t, events)

	state, err = seq.State()
	require.NoError(t, err)
	assert.Equal(t, uint32(15), state.PebblesCount)
	assert.Equal(t, uint32(4), state.MaxPebblesPerTurn)
	assert.Equal(t, uint32(15), state.PebblesRemaining)
	assert.Equal(t, game.Hard, state.Difficulty)
	assert.Equal(t, game.User, state.FirstPlayer)
	assert.Nil(t, state.Winner)
}

func TestInitialize(t *testing.T) {
	t.Run("user first leaves the full pool", func(t *testing.T) {
		seq, rng := newSequencer(0)

		events, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
		require.NoError(t, err)
		assert.Empty(t, events)
		assert.Equal(t, 1, rng.Drawn())

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), state.PebblesRemaining)
		assert.Equal(t, game.User, state.FirstPlayer)
	})

	t.Run("only the low bit picks the first player", func(t *testing.T) {
		seq, _ := newSequencer(0xfffffffe)

		_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, game.User, state.FirstPlayer)
	})

	t.Run("program first moves before returning", func(t *testing.T) {
		seq, _ := newSequencer(1)

		events, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)
		assert.Equal(t, []game.Event{game.NewCounterTurnEvent(1)}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(9), state.PebblesRemaining)
		assert.Nil(t, state.Winner)
	})

	t.Run("program leaves one pebble from a small pool", func(t *testing.T) {
		seq, _ := newSequencer(1)

		events, err := seq.Initialize(game.Config{PebblesCount: 3, MaxPebblesPerTurn: 5, Difficulty: game.Hard})
		require.NoError(t, err)
		assert.Equal(t, []game.Event{game.NewCounterTurnEvent(2)}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(1), state.PebblesRemaining)
		assert.Nil(t, state.Winner)
	})

	t.Run("program can win a single pebble outright", func(t *testing.T) {
		seq, _ := newSequencer(1)

		events, err := seq.Initialize(game.Config{PebblesCount: 1, MaxPebblesPerTurn: 5, Difficulty: game.Hard})
		require.NoError(t, err)
		assert.Equal(t, []game.Event{
			game.NewCounterTurnEvent(1),
			game.NewWonEvent(game.Program),
		}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Zero(t, state.PebblesRemaining)
		assert.Equal(t, game.Program, winnerOf(t, state))
		assert.Equal(t, game.Concluded, state.Status())
	})

	t.Run("rejects zero counts without drawing", func(t *testing.T) {
		for _, cfg := range []game.Config{
			{PebblesCount: 0, MaxPebblesPerTurn: 3},
			{PebblesCount: 10, MaxPebblesPerTurn: 0},
		} {
			seq, rng := newSequencer(1)

			_, err := seq.Initialize(cfg)
			assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
			assert.Equal(t, 0, rng.Drawn())

			_, err = seq.State()
			assert.ErrorIs(t, err, game.ErrNotInitialized)
		}
	})

	t.Run("second initialize is rejected", func(t *testing.T) {
		seq, _ := newSequencer(0)

		_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3})
		require.NoError(t, err)

		_, err = seq.Initialize(game.Config{PebblesCount: 20, MaxPebblesPerTurn: 5})
		assert.ErrorIs(t, err, game.ErrAlreadyInitialized)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), state.PebblesCount)
	})
}

func TestOperationsBeforeInitialize(t *testing.T) {
	seq, _ := newSequencer()

	_, err := seq.Turn(1)
	assert.ErrorIs(t, err, game.ErrNotInitialized)

	_, err = seq.GiveUp()
	assert.ErrorIs(t, err, game.ErrNotInitialized)

	_, err = seq.Restart(game.Config{PebblesCount: 5, MaxPebblesPerTurn: 2})
	assert.ErrorIs(t, err, game.ErrNotInitialized)

	_, err = seq.State()
	assert.ErrorIs(t, err, game.ErrNotInitialized)
}

func TestTurn(t *testing.T) {
	t.Run("rejects out of range moves without mutating", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)

		for _, n := range []uint32{0, 4, 100} {
			_, err := seq.Turn(n)
			assert.ErrorIs(t, err, game.ErrInvalidMove, "turn %d", n)
		}

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), state.PebblesRemaining)
	})

	t.Run("taking the max from a max-sized pool wins", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 4, MaxPebblesPerTurn: 4, Difficulty: game.Hard})
		require.NoError(t, err)

		events, err := seq.Turn(4)
		require.NoError(t, err)
		assert.Equal(t, []game.Event{game.NewWonEvent(game.User)}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Zero(t, state.PebblesRemaining)
		assert.Equal(t, game.User, winnerOf(t, state))
	})

	t.Run("over-taking a small pool saturates at zero", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 2, MaxPebblesPerTurn: 5, Difficulty: game.Easy})
		require.NoError(t, err)

		events, err := seq.Turn(5)
		require.NoError(t, err)
		assert.Equal(t, []game.Event{game.NewWonEvent(game.User)}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Zero(t, state.PebblesRemaining)
	})

	t.Run("program reply that empties the pool wins in order", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 4, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)

		events, err := seq.Turn(3)
		require.NoError(t, err)
		assert.Equal(t, []game.Event{
			game.NewCounterTurnEvent(1),
			game.NewWonEvent(game.Program),
		}, events)
	})

	t.Run("reduces the pool by the move and the reply", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 20, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)

		events, err := seq.Turn(2)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, game.EventTypeCounterTurn, events[0].Type)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(18)-events[0].Pebbles, state.PebblesRemaining)
		assert.Equal(t, uint32(1), state.PebblesRemaining%4)
	})
}

func TestConcludedGameKeepsItsWinner(t *testing.T) {
	seq, _ := newSequencer(0)
	_, err := seq.Initialize(game.Config{PebblesCount: 3, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)

	_, err = seq.Turn(3)
	require.NoError(t, err)

	_, err = seq.Turn(1)
	assert.ErrorIs(t, err, game.ErrGameOver)

	_, err = seq.GiveUp()
	assert.ErrorIs(t, err, game.ErrGameOver)

	state, err := seq.State()
	require.NoError(t, err)
	assert.Equal(t, game.User, winnerOf(t, state))

	_, err = seq.Restart(game.Config{PebblesCount: 7, MaxPebblesPerTurn: 2, Difficulty: game.Easy})
	require.NoError(t, err)

	state, err = seq.State()
	require.NoError(t, err)
	assert.Nil(t, state.Winner)
	assert.Equal(t, game.InProgress, state.Status())
}

func TestRestart(t *testing.T) {
	t.Run("validates like initialize", func(t *testing.T) {
		seq, rng := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
		require.NoError(t, err)

		_, err = seq.Restart(game.Config{PebblesCount: 0, MaxPebblesPerTurn: 3})
		assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
		_, err = seq.Restart(game.Config{PebblesCount: 5, MaxPebblesPerTurn: 0})
		assert.ErrorIs(t, err, game.ErrInvalidConfiguration)
		assert.Equal(t, 1, rng.Drawn())

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), state.PebblesCount)
	})

	t.Run("program first replies immediately", func(t *testing.T) {
		seq, _ := newSequencer(0, 1)
		_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
		require.NoError(t, err)

		events, err := seq.Restart(game.Config{PebblesCount: 14, MaxPebblesPerTurn: 4, Difficulty: game.Hard})
		require.NoError(t, err)
		assert.Equal(t, []game.Event{game.NewCounterTurnEvent(3)}, events)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, game.Program, state.FirstPlayer)
		assert.Equal(t, uint32(11), state.PebblesRemaining)
	})

	t.Run("allowed mid-game", func(t *testing.T) {
		seq, _ := newSequencer(0)
		_, err := seq.Initialize(game.Config{PebblesCount: 20, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
		require.NoError(t, err)
		_, err = seq.Turn(1)
		require.NoError(t, err)

		_, err = seq.Restart(game.Config{PebblesCount: 9, MaxPebblesPerTurn: 2, Difficulty: game.Easy})
		require.NoError(t, err)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(9), state.PebblesRemaining)
		assert.Equal(t, game.Easy, state.Difficulty)
	})
}

func TestHandleDispatchesActions(t *testing.T) {
	seq, _ := newSequencer(0)
	_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)

	events, err := seq.Handle(game.Turn(1))
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewCounterTurnEvent(1)}, events)

	events, err = seq.Handle(game.GiveUp())
	require.NoError(t, err)
	assert.Equal(t, []game.Event{game.NewWonEvent(game.Program)}, events)

	_, err = seq.Handle(game.Restart(game.Config{PebblesCount: 6, MaxPebblesPerTurn: 2, Difficulty: game.Easy}))
	require.NoError(t, err)

	_, err = seq.Handle(game.Action{Kind: game.ActionKind(42)})
	assert.Error(t, err)
}

type failingEngine struct{}

func (failingEngine) Move(game.State) (uint32, error) {
	return 0, errors.New("engine offline")
}

type greedyEngine struct{}

func (greedyEngine) Move(s game.State) (uint32, error) {
	return s.MaxPebblesPerTurn + 1, nil
}

func TestEngineFailureLeavesStateUntouched(t *testing.T) {
	rng := randutil.NewSequence(0)
	store := game.NewStore()
	logger := quietLogger()

	store.Replace(game.State{PebblesCount: 10, MaxPebblesPerTurn: 3, PebblesRemaining: 10, Difficulty: game.Hard})

	for _, engine := range []game.MoveEngine{failingEngine{}, greedyEngine{}} {
		seq := game.NewSequencer(store, engine, rng, logger)

		_, err := seq.Turn(2)
		require.Error(t, err)

		state, err := seq.State()
		require.NoError(t, err)
		assert.Equal(t, uint32(10), state.PebblesRemaining)
		assert.Nil(t, state.Winner)
	}
}

func TestInitializeWithFailingEngineStoresNothing(t *testing.T) {
	rng := randutil.NewSequence(1)
	seq := game.NewSequencer(game.NewStore(), failingEngine{}, rng, quietLogger())

	_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3})
	require.Error(t, err)

	_, err = seq.State()
	assert.ErrorIs(t, err, game.ErrNotInitialized)
}

func TestHardProgramFollowsResidueStrategy(t *testing.T) {
	logger := quietLogger()

	for seed := int64(1); seed <= 200; seed++ {
		rng := randutil.New(seed)
		seq := game.NewSequencer(game.NewStore(), bot.NewEngine(rng, logger), rng, logger)
		user := bot.NewRandBot(rng, logger)

		cfg := game.Config{
			PebblesCount:      rng.Uint32N(40) + 1,
			MaxPebblesPerTurn: rng.Uint32N(5) + 1,
			Difficulty:        game.Hard,
		}
		events, err := seq.Initialize(cfg)
		require.NoError(t, err)

		state, err := seq.State()
		require.NoError(t, err)
		if state.FirstPlayer == game.Program {
			require.NotEmpty(t, events)
			want := max(bot.WinningMove(cfg.PebblesCount, cfg.MaxPebblesPerTurn), 1)
			assert.Equal(t, want, events[0].Pebbles, "seed %d: opening take", seed)
		}
		previous := state.PebblesRemaining

		for !state.Concluded() {
			take, err := user.Choose(state.PebblesRemaining, state.MaxPebblesPerTurn)
			require.NoError(t, err)
			afterUser := state.PebblesRemaining - min(take, state.PebblesRemaining)

			events, err := seq.Turn(take)
			require.NoError(t, err)

			if afterUser > 0 {
				require.NotEmpty(t, events, "seed %d", seed)
				require.Equal(t, game.EventTypeCounterTurn, events[0].Type)
				residue := bot.WinningMove(afterUser, state.MaxPebblesPerTurn)
				assert.Equal(t, max(residue, 1), events[0].Pebbles, "seed %d: reply to %d", seed, afterUser)
				if residue != 0 {
					assert.Equal(t, uint32(1), (afterUser-events[0].Pebbles)%(state.MaxPebblesPerTurn+1))
				}
			}

			state, err = seq.State()
			require.NoError(t, err)
			require.LessOrEqual(t, state.PebblesRemaining, previous, "seed %d: pool grew", seed)
			require.LessOrEqual(t, state.PebblesRemaining, state.PebblesCount)
			previous = state.PebblesRemaining
		}

		assert.Zero(t, state.PebblesRemaining, "seed %d", seed)
		assert.NotNil(t, state.Winner, "seed %d", seed)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	seq, _ := newSequencer(1, 1)
	_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Easy})
	require.NoError(t, err)

	check := func() {
		t.Helper()
		state, err := seq.State()
		require.NoError(t, err)

		data, err := json.Marshal(state)
		require.NoError(t, err)

		var decoded game.State
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, state, decoded)
	}

	check()

	_, err = seq.GiveUp()
	require.NoError(t, err)
	check()
}

func TestSnapshotJSONShape(t *testing.T) {
	seq, _ := newSequencer(0)
	_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)

	state, err := seq.State()
	require.NoError(t, err)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"pebbles_count": 10,
		"max_pebbles_per_turn": 3,
		"pebbles_remaining": 10,
		"difficulty": "hard",
		"first_player": "user",
		"winner": null
	}`, string(data))
}

func TestSnapshotIsACopy(t *testing.T) {
	seq, _ := newSequencer(0)
	_, err := seq.Initialize(game.Config{PebblesCount: 10, MaxPebblesPerTurn: 3, Difficulty: game.Hard})
	require.NoError(t, err)
	_, err = seq.GiveUp()
	require.NoError(t, err)

	state, err := seq.State()
	require.NoError(t, err)
	*state.Winner = game.User
	state.PebblesRemaining = 1

	again, err := seq.State()
	require.NoError(t, err)
	assert.Equal(t, game.Program, winnerOf(t, again))
	assert.Equal(t, uint32(10), again.PebblesRemaining)
}
