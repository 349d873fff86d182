package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/fake"
	"github.com/sandevgo/hashia/internal/session"
)

type fixture struct {
	store     *session.Store
	searcher  *fake.Searcher
	messenger *fake.Messenger
	router    *Router
}

func newFixture() *fixture {
	f := &fixture{
		store:     session.NewStore(core.MaxTurns),
		searcher:  &fake.Searcher{},
		messenger: &fake.Messenger{},
	}
	f.router = New(NewCommands(f.store, f.searcher, f.messenger, nil))
	return f
}

func TestRouter_Commands(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args []string
		want string
	}{
		{name: "get started", cmd: core.CmdGetStarted, want: Greeting},
		{name: "pinterest postback", cmd: core.CmdPinterest, want: PinterestPrompt},
		{name: "unknown payload", cmd: "SOMETHING_ELSE", want: DefaultReply},
		{name: "empty payload", cmd: "", want: DefaultReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			assert.Equal(t, tt.want, f.router.Execute(context.Background(), "u1", tt.cmd, tt.args))
			assert.Empty(t, f.searcher.Queries)
			assert.Empty(t, f.messenger.Calls())
		})
	}
}

func TestRouter_ListCommands(t *testing.T) {
	f := newFixture()

	names := make([]string, 0)
	for _, c := range f.router.ListCommands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{core.CmdGetStarted, core.CmdClearHistory, core.CmdPinterest}, names)
}

type failingCommand struct{}

func (failingCommand) Name() string { return "BROKEN" }

func (failingCommand) Execute(ctx context.Context, userID string, args []string) (string, error) {
	return "", errors.New("broken")
}

func TestRouter_CommandError(t *testing.T) {
	r := New([]core.Command{failingCommand{}})
	assert.Equal(t, ErrorReply, r.Execute(context.Background(), "u1", "BROKEN", nil))
}

func TestClearHistory(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.store.Append("u1", core.NewTextTurn(core.RoleUser, "x", time.Now()))
	}
	f.store.Append("u2", core.NewTextTurn(core.RoleUser, "y", time.Now()))

	reply := f.router.Execute(context.Background(), "u1", core.CmdClearHistory, nil)

	assert.Equal(t, ClearedReply, reply)
	assert.False(t, f.store.Has("u1"))
	assert.Empty(t, f.store.Get("u1").Turns)
	assert.True(t, f.store.Has("u2"))
}

func TestPinterest_Search(t *testing.T) {
	f := newFixture()
	f.searcher.URLs = []string{"a", "b", "a", "c"}

	reply := f.router.Execute(context.Background(), "u1", core.CmdPinterest, []string{"cats"})

	assert.Empty(t, reply)
	assert.Equal(t, []string{"cats"}, f.searcher.Queries)
	assert.Equal(t, []fake.Call{
		{Kind: "text", RecipientID: "u1", Text: PleaseWaitReply},
		{Kind: "images", RecipientID: "u1", URLs: []string{"a", "b", "c"}},
	}, f.messenger.Calls())
	assert.False(t, f.store.Has("u1"), "search does not touch the history")
}

func TestPinterest_JoinsQuery(t *testing.T) {
	f := newFixture()
	f.searcher.URLs = []string{"a"}

	f.router.Execute(context.Background(), "u1", core.CmdPinterest, []string{"cute", "red", "pandas"})

	assert.Equal(t, []string{"cute red pandas"}, f.searcher.Queries)
}

func TestPinterest_Failures(t *testing.T) {
	tests := []struct {
		name      string
		urls      []string
		searchErr error
		fail      map[string]error
		want      string
	}{
		{name: "no results", urls: nil, want: NoImagesReply},
		{name: "search error", searchErr: fake.ErrFake, want: SearchFailReply},
		{name: "notice fails", urls: []string{"a"}, fail: map[string]error{"text": fake.ErrFake}, want: SearchFailReply},
		{name: "images fail", urls: []string{"a"}, fail: map[string]error{"images": fake.ErrFake}, want: SearchFailReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.searcher.URLs = tt.urls
			f.searcher.Err = tt.searchErr
			f.messenger.Fail = tt.fail

			reply := f.router.Execute(context.Background(), "u1", core.CmdPinterest, []string{"cats"})
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestDedupeURLs(t *testing.T) {
	many := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		many = append(many, string(rune('a'+i)))
	}

	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "empty", input: nil, want: []string{}},
		{name: "keeps first occurrence", input: []string{"a", "b", "a", "c"}, want: []string{"a", "b", "c"}},
		{name: "all duplicates", input: []string{"x", "x", "x"}, want: []string{"x"}},
		{name: "cap", input: many, want: many[:MaxSearchResults]},
		{name: "cap after dedupe", input: append([]string{"a", "a", "a"}, many[1:12]...), want: many[:MaxSearchResults]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dedupeURLs(tt.input, MaxSearchResults)
			assert.Equal(t, tt.want, got)
			require.LessOrEqual(t, len(got), MaxSearchResults)
		})
	}
}
