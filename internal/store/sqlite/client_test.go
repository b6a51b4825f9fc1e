package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/internal/scenario"
	"phoenix/internal/session"
	"phoenix/internal/store"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close(ctx) })
	require.NoError(t, c.EnsureSchema(ctx))
	return c
}

func fireScenes() []scenario.Scene {
	return []scenario.Scene{
		{ID: "#1-1", Title: "Alarm", Content: "Smoke fills the hallway.", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Run", Next: scenario.ToScene("#1-2")},
			{AnswerID: "B", Answer: "Crawl low", Next: scenario.ToScene("#1-2"), Points: scenario.Points{Speed: 5, Accuracy: 10}},
		}},
		{ID: "#1-2", Title: "Stairs", Content: "The elevator is closed; take the stairs.", Options: []scenario.Choice{
			{AnswerID: "A", Answer: "Review", Next: scenario.ReviewNext()},
		}},
	}
}

func TestNew_JournalMode(t *testing.T) {
	ctx := context.Background()

	mem := newTestClient(t)
	assert.NotContains(t, mem.pragmas(), "PRAGMA journal_mode = WAL")

	file, err := New(ctx, "sqlite://"+filepath.Join(t.TempDir(), "phoenix.db"))
	require.NoError(t, err)
	t.Cleanup(func() { file.Close(ctx) })

	var mode string
	require.NoError(t, file.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	_, err = New(ctx, "postgres://localhost/phoenix")
	assert.Error(t, err)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.EnsureSchema(context.Background()))
}

func TestScenarioRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.GetScenario(ctx, "FIRE_001")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	in := store.ScenarioInput{Code: "FIRE_001", Name: "화재 대응", SourceFile: "scenarios/fire.json", SourceHash: "abc", Scenes: fireScenes()}
	require.NoError(t, c.UpsertScenario(ctx, in))

	got, err := c.GetScenario(ctx, "FIRE_001")
	require.NoError(t, err)
	assert.Equal(t, "화재 대응", got.Name)
	require.Len(t, got.Scenes, 2)
	assert.Equal(t, scenario.NextReview, got.Scenes[1].Options[0].Next.Kind)
	assert.Equal(t, 10.0, got.Scenes[0].Options[1].Points.Accuracy)
	assert.False(t, got.LastIngested.IsZero())

	in.Name = "화재"
	in.Scenes = in.Scenes[:1]
	require.NoError(t, c.UpsertScenario(ctx, in))

	list, err := c.ListScenarios(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "화재", list[0].Name)
	assert.Equal(t, 1, list[0].SceneCount)
	assert.Equal(t, 2, list[0].OptionCount)
}

func TestHashesAndStaleRemoval(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "A", Name: "a", SourceFile: "a.json", SourceHash: "h1", Scenes: fireScenes()}))
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "B", Name: "b", SourceFile: "b.json", SourceHash: "h2", Scenes: fireScenes()}))
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "REMOTE", Name: "r", Scenes: fireScenes()}))

	hashes, err := c.GetScenarioHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a.json": "h1", "b.json": "h2"}, hashes)

	removed, err := c.RemoveStaleScenarios(ctx, []string{"a.json"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = c.GetScenario(ctx, "B")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = c.GetScenario(ctx, "REMOTE")
	assert.NoError(t, err)

	results, err := c.SearchScenes(ctx, "smoke", "")
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, "B", r.ScenarioCode)
	}
}

func TestSearchScenes(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "FIRE_001", Name: "fire", Scenes: fireScenes()}))
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "FIRE_002", Name: "fire", Scenes: fireScenes()[:1]}))

	results, err := c.SearchScenes(ctx, "stairs", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "#1-2", results[0].SceneID)
	assert.Contains(t, results[0].Snippet, "**stairs**")

	results, err = c.SearchScenes(ctx, "smoke", "FIRE_002")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "FIRE_002", results[0].ScenarioCode)

	_, err = c.SearchScenes(ctx, "  ", "")
	assert.Error(t, err)
}

func TestSearchScenes_MatchesAnswers(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "FIRE_001", Name: "fire", Scenes: fireScenes()}))

	results, err := c.SearchScenes(ctx, "Crawl", "FIRE_001")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "#1-1", results[0].SceneID)
	assert.Contains(t, results[0].Snippet, "**Crawl**")
}

func TestSearchScenes_PunctuatedTerms(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "FIRE_001", Name: "fire", Scenes: fireScenes()}))

	for _, query := range []string{"119-call", "#1-1", "smoke -", "OR", `"unclosed`} {
		t.Run(query, func(t *testing.T) {
			_, err := c.SearchScenes(ctx, query, "")
			if query == "OR" {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}

	results, err := c.SearchScenes(ctx, "hallway -stairs", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "#1-1", results[0].SceneID)
}

func TestSessionKV(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, c.Put(ctx, "k", []byte(`{"EXP":1}`)))
	require.NoError(t, c.Put(ctx, "k", []byte(`{"EXP":2}`)))
	value, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"EXP":2}`, string(value))

	h := session.New(c, session.WithKey("k"))
	snap, ok := h.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, snap.EXP)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestRunSQL(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)
	require.NoError(t, c.UpsertScenario(ctx, store.ScenarioInput{Code: "FIRE_001", Name: "fire", Scenes: fireScenes()}))

	rows, err := c.RunSQL(ctx, "SELECT code, scene_count FROM scenarios WHERE code = ?", map[string]any{"1": "FIRE_001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "FIRE_001", rows[0]["code"])
	assert.EqualValues(t, 2, rows[0]["scene_count"])

	_, err = c.RunSQL(ctx, "SELECT * FROM missing", nil)
	assert.Error(t, err)
}

func TestParseDSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"sqlite://:memory:", ":memory:"},
		{"sqlite:///var/lib/phoenix.db", "/var/lib/phoenix.db"},
		{"sqlite://./phoenix.db", "./phoenix.db"},
		{"sqlite://phoenix.db", "./phoenix.db"},
		{"sqlite://my%20data.db?_pragma=foreign_keys(1)", "./my data.db?_pragma=foreign_keys(1)"},
	}
	for _, tc := range cases {
		got, err := parseDSN(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := parseDSN("postgres://localhost")
	assert.Error(t, err)
	_, err = parseDSN("sqlite://")
	assert.Error(t, err)
}

func TestSplitStatements(t *testing.T) {
	ddl := `
	CREATE TABLE a (id INTEGER);
	-- comment;
	CREATE TRIGGER t AFTER INSERT ON a BEGIN
		INSERT INTO b VALUES (new.id);
		INSERT INTO c VALUES (new.id);
	END;
	CREATE INDEX i ON a (id);
	`
	stmts := splitStatements(ddl)
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[1], "INSERT INTO c")
}
