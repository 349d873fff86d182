package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/hashia/internal/core"
)

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func turnN(i int) core.Turn {
	role := core.RoleUser
	if i%2 == 1 {
		role = core.RoleModel
	}
	return core.NewTextTurn(role, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second))
}

func TestStore_GetUnknownUser(t *testing.T) {
	s := NewStore(core.MaxTurns)

	sess := s.Get("nobody")
	assert.Equal(t, "nobody", sess.UserID)
	assert.Empty(t, sess.Turns)
	assert.False(t, s.Has("nobody"), "get must not create a session")
}

func TestStore_AppendKeepsMostRecent(t *testing.T) {
	s := NewStore(core.MaxTurns)

	for i := 0; i < 95; i++ {
		s.Append("u1", turnN(i))

		turns := s.Get("u1").Turns
		require.LessOrEqual(t, len(turns), core.MaxTurns)

		want := i + 1
		if want > core.MaxTurns {
			want = core.MaxTurns
		}
		require.Len(t, turns, want)

		first := i + 1 - want
		for j, turn := range turns {
			assert.Equal(t, fmt.Sprintf("msg-%d", first+j), turn.Text())
		}
	}
}

func TestStore_AppendPairTrims(t *testing.T) {
	s := NewStore(3)
	s.Append("u1", turnN(0), turnN(1))
	s.Append("u1", turnN(2), turnN(3))

	turns := s.Get("u1").Turns
	require.Len(t, turns, 3)
	assert.Equal(t, "msg-1", turns[0].Text())
	assert.Equal(t, "msg-3", turns[2].Text())
}

func TestStore_TimestampsNonDecreasing(t *testing.T) {
	s := NewStore(core.MaxTurns)
	s.Append("u1", core.NewTextTurn(core.RoleUser, "late", base.Add(time.Minute)))
	s.Append("u1", core.NewTextTurn(core.RoleModel, "early", base))

	turns := s.Get("u1").Turns
	require.Len(t, turns, 2)
	assert.False(t, turns[1].Timestamp.Before(turns[0].Timestamp))
}

func TestStore_ClearRemovesSession(t *testing.T) {
	s := NewStore(core.MaxTurns)
	for i := 0; i < 5; i++ {
		s.Append("u1", turnN(i))
	}
	s.Append("u2", turnN(0))

	s.Clear("u1")

	assert.False(t, s.Has("u1"))
	assert.Empty(t, s.Get("u1").Turns)
	assert.True(t, s.Has("u2"))
	assert.Equal(t, 1, s.Len())

	s.Clear("missing")
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore(core.MaxTurns)
	s.Append("u1", core.Turn{
		Role:      core.RoleUser,
		Parts:     []core.Part{core.ImagePart(core.InlineImage{MIMEType: "image/png", Data: "AAAA"}), core.TextPart("look")},
		Timestamp: base,
	})

	got := s.Get("u1")
	got.Turns[0].Parts[0].Image.Data = "mutated"
	got.Turns[0].Parts[1].Text = "mutated"

	again := s.Get("u1")
	assert.Equal(t, "AAAA", again.Turns[0].Parts[0].Image.Data)
	assert.Equal(t, "look", again.Turns[0].Parts[1].Text)
}

func TestStore_Snapshot(t *testing.T) {
	s := NewStore(core.MaxTurns)
	assert.Empty(t, s.Snapshot())

	s.Append("u1", turnN(0), turnN(1))
	s.Append("u2", turnN(0))

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Len(t, snap["u1"], 2)

	snap["u1"][0].Parts[0].Text = "mutated"
	assert.Equal(t, "msg-0", s.Get("u1").Turns[0].Text())
}

func TestStore_ConcurrentUsers(t *testing.T) {
	s := NewStore(core.MaxTurns)

	var wg sync.WaitGroup
	for u := 0; u < 8; u++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				unlock := s.Lock(user)
				s.Append(user, turnN(2*i), turnN(2*i+1))
				unlock()
			}
		}(fmt.Sprintf("user-%d", u))
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
	for user, turns := range s.Snapshot() {
		require.Len(t, turns, core.MaxTurns, user)
		assert.Equal(t, "msg-60", turns[0].Text(), user)
		assert.Equal(t, "msg-99", turns[len(turns)-1].Text(), user)
	}
}
