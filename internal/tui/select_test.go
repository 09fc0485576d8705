package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bserrors "github.com/lepinkainen/bookshelf/internal/errors"
	"github.com/lepinkainen/bookshelf/internal/openlibrary"
)

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func testCandidates() []openlibrary.Candidate {
	return []openlibrary.Candidate{
		{Title: strPtr("War and Peace"), Author: "Leo Tolstoy", PublishYear: intPtr(1867), Key: strPtr("/works/OL1W")},
		{Title: strPtr("Anna Karenina"), Author: "Leo Tolstoy", Key: strPtr("/works/OL2W")},
	}
}

func newTestModel() *model {
	items := make([]candidateItem, 0, 2)
	for _, c := range testCandidates() {
		items = append(items, candidateItem{Candidate: c})
	}
	return newModel("tolstoy", items)
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelEnterSelectsHighlighted(t *testing.T) {
	m := newTestModel()

	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	assert.Equal(t, ActionSelected, m.result.Action)
	require.NotNil(t, m.result.Selection)
	assert.Equal(t, "Anna Karenina", *m.result.Selection.Title)
}

func TestModelSkipAndStopKeys(t *testing.T) {
	testCases := []struct {
		name string
		msg  tea.KeyMsg
		want SelectionAction
	}{
		{name: "s skips", msg: keyRunes("s"), want: ActionSkipped},
		{name: "esc skips", msg: tea.KeyMsg{Type: tea.KeyEsc}, want: ActionSkipped},
		{name: "q stops", msg: keyRunes("q"), want: ActionStopped},
		{name: "ctrl+c stops", msg: tea.KeyMsg{Type: tea.KeyCtrlC}, want: ActionStopped},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestModel()
			_, cmd := m.Update(tc.msg)
			require.NotNil(t, cmd)
			assert.Equal(t, tc.want, m.result.Action)
			assert.Nil(t, m.result.Selection)
		})
	}
}

func TestModelViewShowsQuery(t *testing.T) {
	m := newTestModel()
	view := m.View()

	assert.Contains(t, view, "Results for: tolstoy")
	assert.Contains(t, view, "WAR AND PEACE (1867)")
}

func TestCandidateItemFallbacks(t *testing.T) {
	item := candidateItem{Candidate: openlibrary.Candidate{Author: openlibrary.DefaultAuthor}}

	assert.Equal(t, "UNTITLED (n/a)", item.Title())
	assert.Equal(t, openlibrary.DefaultAuthor, item.Description())
	assert.Equal(t, "no key", item.key())
}

func stubProgram(t *testing.T, keys ...tea.Msg) {
	t.Helper()

	orig := runProgram
	t.Cleanup(func() { runProgram = orig })
	runProgram = func(m tea.Model) (tea.Model, error) {
		for _, k := range keys {
			m, _ = m.Update(k)
		}
		return m, nil
	}
}

func TestSelectCandidates(t *testing.T) {
	t.Run("enter", func(t *testing.T) {
		stubProgram(t, tea.KeyMsg{Type: tea.KeyEnter})

		selected, err := SelectCandidates("tolstoy", testCandidates())
		require.NoError(t, err)
		require.Len(t, selected, 1)
		assert.Equal(t, "War and Peace", *selected[0].Title)
	})

	t.Run("skip", func(t *testing.T) {
		stubProgram(t, keyRunes("s"))

		selected, err := SelectCandidates("tolstoy", testCandidates())
		require.NoError(t, err)
		assert.Empty(t, selected)
	})

	t.Run("stop", func(t *testing.T) {
		stubProgram(t, keyRunes("q"))

		_, err := SelectCandidates("tolstoy", testCandidates())
		require.Error(t, err)
		assert.True(t, bserrors.IsStopProcessingError(err))
	})

	t.Run("program error", func(t *testing.T) {
		orig := runProgram
		t.Cleanup(func() { runProgram = orig })
		runProgram = func(tea.Model) (tea.Model, error) { return nil, errors.New("no tty") }

		_, err := SelectCandidates("tolstoy", testCandidates())
		require.Error(t, err)
		assert.False(t, bserrors.IsStopProcessingError(err))
	})
}

func TestSelectEmptySkips(t *testing.T) {
	result, err := Select("nothing", nil)
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Войн...", truncate("Война и мир", 7))
	assert.Equal(t, "a b", truncate("a   b", 0))
}
