package recipe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"recipechat/internal/models"
	"recipechat/internal/recipes"
	"recipechat/internal/redis"
	"recipechat/internal/worker"
)

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeGenerator) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type cachedReply struct {
	reply string
	ttl   time.Duration
}

type memoryCache struct {
	mu   sync.Mutex
	data map[string]cachedReply
}

func newMemoryCache() *memoryCache { return &memoryCache{data: make(map[string]cachedReply)} }

func (c *memoryCache) Lookup(_ context.Context, key string) (string, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", 0, redis.ErrCacheMiss
	}
	return v.reply, v.ttl, nil
}

func (c *memoryCache) Store(_ context.Context, key, reply string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = cachedReply{reply: reply, ttl: ttl}
	return nil
}

type busyRunner struct{}

func (busyRunner) Do(context.Context, string, worker.Task) (string, error) {
	return "", worker.ErrDispatcherBusy
}

func testIndex() *recipes.Index {
	return recipes.NewIndex([]models.Recipe{
		{ID: 1, Cuisine: "greek", Ingredients: []string{"romaine lettuce", "black olives", "feta cheese crumbles"}},
		{ID: 2, Cuisine: "spanish", Ingredients: []string{"eggs", "onion", "olive oil", "potato"}},
	})
}

func TestChatEmptyQuery(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := NewService(testIndex(), gen, Options{})

	got, err := svc.Chat(context.Background(), "c", "   ")
	require.NoError(t, err)
	assert.Equal(t, ReplyEmptyQuery, got)
	assert.Zero(t, gen.calls())
}

func TestChatCannedReplies(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	svc := NewService(testIndex(), gen, Options{})

	cases := map[string]string{
		"Hello":          ReplyGreeting,
		"  good morning": ReplyGreeting,
		"How are you?":   ReplyWellbeing,
		"thank you":      ReplyFarewell,
	}
	for query, want := range cases {
		got, err := svc.Chat(context.Background(), "c", query)
		require.NoError(t, err)
		assert.Equal(t, want, got, query)
	}
	assert.Zero(t, gen.calls())
}

func TestChatIngredientsUsesMatchedCuisine(t *testing.T) {
	gen := &fakeGenerator{reply: "Make a tortilla española."}
	svc := NewService(testIndex(), gen, Options{})

	got, err := svc.Chat(context.Background(), "c", "Eggs, Onion, Potato")
	require.NoError(t, err)
	assert.Equal(t, "Make a tortilla española.", got)
	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.prompts[0], "these ingredients: eggs, onion, potato.")
	assert.Contains(t, gen.prompts[0], "inspiration from spanish cuisine")
}

func TestChatIngredientsFallbackWhenModelDown(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection refused")}
	svc := NewService(testIndex(), gen, Options{})

	got, err := svc.Chat(context.Background(), "c", "eggs, onion, potato")
	require.NoError(t, err)
	assert.Equal(t, "(Local LLM unavailable) Try a simple spanish dish using your ingredients: eggs, onion, potato. "+
		"Suggested ingredients from match: eggs, onion, olive oil, potato. "+
		"Basic idea: Cook the ingredients together with spices for a quick meal.", got)
}

func TestChatIngredientsWithoutMatch(t *testing.T) {
	svc := NewService(recipes.NewIndex(nil), &fakeGenerator{}, Options{})

	got, err := svc.Chat(context.Background(), "c", "egg, onion")
	require.NoError(t, err)
	assert.Equal(t, ReplyNoMatch, got)
}

func TestChatGeneralQuery(t *testing.T) {
	gen := &fakeGenerator{reply: "Basil loves tomatoes."}
	svc := NewService(testIndex(), gen, Options{})

	got, err := svc.Chat(context.Background(), "c", "What herb goes with tomato?")
	require.NoError(t, err)
	assert.Equal(t, "Basil loves tomatoes.", got)
	assert.Equal(t, []string{"Respond to this query: What herb goes with tomato?"}, gen.prompts)

	gen.err = errors.New("down")
	got, err = svc.Chat(context.Background(), "c", "What is umami")
	require.NoError(t, err)
	assert.Equal(t, ReplyChatDown, got)
}

func TestChatMemoizesReplies(t *testing.T) {
	gen := &fakeGenerator{reply: "Cached answer."}
	cache := newMemoryCache()
	svc := NewService(testIndex(), gen, Options{Cache: cache, CacheTTL: time.Minute})

	for i := 0; i < 3; i++ {
		got, err := svc.Chat(context.Background(), "c", "tell me about paella")
		require.NoError(t, err)
		assert.Equal(t, "Cached answer.", got)
	}
	assert.Equal(t, 1, gen.calls())
}

func TestCacheHitLogsRemainingTTL(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	gen := &fakeGenerator{reply: "Cached answer."}
	svc := NewService(testIndex(), gen, Options{Cache: newMemoryCache(), CacheTTL: 90 * time.Second, Logger: zap.New(core)})

	for i := 0; i < 2; i++ {
		_, err := svc.Chat(context.Background(), "c", "tell me about paella")
		require.NoError(t, err)
	}

	hits := logs.FilterMessage("reply cache hit").All()
	require.Len(t, hits, 1)
	fields := hits[0].ContextMap()
	assert.Equal(t, "chat", fields["kind"])
	assert.Equal(t, 90*time.Second, fields["expires_in"])
}

func TestChatDoesNotCacheFallbacks(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("down")}
	cache := newMemoryCache()
	svc := NewService(testIndex(), gen, Options{Cache: cache})

	_, err := svc.Chat(context.Background(), "c", "tell me about paella")
	require.NoError(t, err)
	assert.Empty(t, cache.data)
}

func TestChatBusyDispatcherSurfaces(t *testing.T) {
	svc := NewService(testIndex(), &fakeGenerator{reply: "x"}, Options{Runner: busyRunner{}})

	_, err := svc.Chat(context.Background(), "c", "tell me about paella")
	assert.ErrorIs(t, err, worker.ErrDispatcherBusy)

	_, err = svc.Suggest(context.Background(), "c", "eggs, onion")
	assert.ErrorIs(t, err, worker.ErrDispatcherBusy)
}

func TestChatRunsOnDispatcher(t *testing.T) {
	d := worker.NewDispatcher(worker.DispatcherConfig{MaxWorkers: 2, QueueSize: 4})
	t.Cleanup(d.Close)
	gen := &fakeGenerator{reply: "From a worker."}
	svc := NewService(testIndex(), gen, Options{Runner: d, Timeout: time.Second})

	got, err := svc.Chat(context.Background(), "10.0.0.1", "tell me about paella")
	require.NoError(t, err)
	assert.Equal(t, "From a worker.", got)
}

func TestSuggest(t *testing.T) {
	gen := &fakeGenerator{reply: "Spanish omelette."}
	svc := NewService(testIndex(), gen, Options{})

	got, err := svc.Suggest(context.Background(), "c", "Eggs, Onion")
	require.NoError(t, err)
	assert.Equal(t, "spanish", got.BestCuisine)
	assert.Equal(t, []string{"eggs", "onion", "olive oil", "potato"}, got.MatchedIngredients)
	assert.Greater(t, got.SimilarityScore, 0.0)
	assert.Equal(t, "Spanish omelette.", got.LLMRecipe)
}

func TestSuggestFallbackAndErrors(t *testing.T) {
	svc := NewService(testIndex(), &fakeGenerator{err: errors.New("down")}, Options{})

	got, err := svc.Suggest(context.Background(), "c", "eggs, onion")
	require.NoError(t, err)
	assert.Equal(t, "(Local LLM unavailable) Suggested cuisine: spanish.", got.LLMRecipe)

	_, err = svc.Suggest(context.Background(), "c", "  ")
	assert.ErrorIs(t, err, ErrEmptyIngredients)

	_, err = NewService(nil, &fakeGenerator{}, Options{}).Suggest(context.Background(), "c", "eggs")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestCacheKeySeparatesKinds(t *testing.T) {
	a := cacheKey("chat", "x")
	b := cacheKey("recipe", "x")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "chat:"))
}
