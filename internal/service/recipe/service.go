// Package recipe answers chat queries: ingredient lists are matched against the
// dataset and expanded by the language model, small talk gets canned replies.
package recipe

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"recipechat/internal/models"
	"recipechat/internal/recipes"
	"recipechat/internal/redis"
	"recipechat/internal/worker"
)

const (
	ReplyEmptyQuery = "Please provide a query."
	ReplyNoMatch    = "Sorry, I couldn't find a recipe with those ingredients. Try something else!"
	ReplyGreeting   = "Hello! How can I help you today? Try entering some ingredients for recipe suggestions!"
	ReplyWellbeing  = "I'm doing great, thanks! Ready to suggest some recipes. What ingredients do you have?"
	ReplyFarewell   = "Goodbye! Come back anytime for more recipe ideas."
	ReplyChatDown   = "I'm sorry, I can't chat right now. Try asking for recipes with ingredients like 'egg, onion'!"
)

var (
	ErrEmptyIngredients = errors.New("please provide ingredients")
	ErrNoMatch          = errors.New("no similar recipe found")
)

var (
	greetings = set("hi", "hello", "hey", "greetings", "good morning", "good afternoon", "good evening")
	wellbeing = set("how are you", "how are you?", "how's it going")
	farewells = set("bye", "goodbye", "see you", "thanks", "thank you")
)

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Cache memoizes model replies. Lookup also reports how long the reply has left.
// *redis.Cache implements it.
type Cache interface {
	Lookup(ctx context.Context, key string) (string, time.Duration, error)
	Store(ctx context.Context, key, reply string, ttl time.Duration) error
}

// Runner schedules model calls. *worker.Dispatcher implements it.
type Runner interface {
	Do(ctx context.Context, key string, task worker.Task) (string, error)
}

type Options struct {
	Runner   Runner
	Cache    Cache
	CacheTTL time.Duration
	Timeout  time.Duration // per model call, zero means none
	Logger   *zap.Logger
}

type Service struct {
	index    *recipes.Index
	llm      Generator
	runner   Runner
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration
	logger   *zap.Logger
}

func NewService(index *recipes.Index, llm Generator, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if index == nil {
		index = recipes.NewIndex(nil)
	}
	return &Service{
		index:    index,
		llm:      llm,
		runner:   opts.Runner,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Recipes reports the dataset size.
func (s *Service) Recipes() int { return s.index.Len() }

// Chat answers one query from client. Model failures degrade to fixed replies; only
// scheduling failures (worker.ErrDispatcherBusy, worker.ErrDispatcherClosed) and
// context errors are returned.
func (s *Service) Chat(ctx context.Context, client, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return ReplyEmptyQuery, nil
	}

	if recipes.IsIngredientsQuery(query) {
		ingredients := strings.ToLower(query)
		best, _, ok := s.index.BestMatch(ingredients)
		if !ok {
			return ReplyNoMatch, nil
		}
		reply, err := s.generate(ctx, client, "recipe", recipePrompt(ingredients, best.Cuisine))
		if err != nil {
			if fatal(err) {
				return "", err
			}
			return fmt.Sprintf("(Local LLM unavailable) Try a simple %s dish using your ingredients: %s. "+
				"Suggested ingredients from match: %s. Basic idea: Cook the ingredients together with spices for a quick meal.",
				best.Cuisine, ingredients, strings.Join(best.Ingredients, ", ")), nil
		}
		return reply, nil
	}

	lower := strings.ToLower(query)
	if _, ok := greetings[lower]; ok {
		return ReplyGreeting, nil
	}
	if _, ok := wellbeing[lower]; ok {
		return ReplyWellbeing, nil
	}
	if _, ok := farewells[lower]; ok {
		return ReplyFarewell, nil
	}

	reply, err := s.generate(ctx, client, "chat", "Respond to this query: "+query)
	if err != nil {
		if fatal(err) {
			return "", err
		}
		return ReplyChatDown, nil
	}
	return reply, nil
}

// Suggest matches an ingredient list and describes a dish in the matched cuisine.
func (s *Service) Suggest(ctx context.Context, client, ingredients string) (*models.Suggestion, error) {
	ingredients = strings.ToLower(ingredients)
	if strings.TrimSpace(ingredients) == "" {
		return nil, ErrEmptyIngredients
	}
	best, score, ok := s.index.BestMatch(ingredients)
	if !ok {
		return nil, ErrNoMatch
	}

	text, err := s.generate(ctx, client, "recipe", recipePrompt(ingredients, best.Cuisine))
	if err != nil {
		if fatal(err) {
			return nil, err
		}
		text = fmt.Sprintf("(Local LLM unavailable) Suggested cuisine: %s.", best.Cuisine)
	}
	return &models.Suggestion{
		BestCuisine:        best.Cuisine,
		MatchedIngredients: best.Ingredients,
		SimilarityScore:    score,
		LLMRecipe:          text,
	}, nil
}

func recipePrompt(ingredients, cuisine string) string {
	return fmt.Sprintf("Suggest a recipe using these ingredients: %s.\n"+
		"You can take inspiration from %s cuisine.\n"+
		"Give a short cooking description.", ingredients, cuisine)
}

func fatal(err error) bool {
	return errors.Is(err, worker.ErrDispatcherBusy) ||
		errors.Is(err, worker.ErrDispatcherClosed) ||
		errors.Is(err, context.Canceled)
}

func cacheKey(kind, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return kind + ":" + hex.EncodeToString(sum[:])
}

// generate runs the prompt on the model, consulting the reply cache first.
func (s *Service) generate(ctx context.Context, client, kind, prompt string) (string, error) {
	if s.llm == nil {
		return "", errors.New("no language model configured")
	}

	key := cacheKey(kind, prompt)
	if s.cache != nil {
		if cached, ttl, err := s.cache.Lookup(ctx, key); err == nil {
			s.logger.Debug("reply cache hit", zap.String("kind", kind), zap.Duration("expires_in", ttl))
			return cached, nil
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("reply cache read failed", zap.Error(err))
		}
	}

	task := func(ctx context.Context) (string, error) {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		return s.llm.Generate(ctx, prompt)
	}

	var (
		reply string
		err   error
	)
	if s.runner != nil {
		reply, err = s.runner.Do(ctx, client, task)
	} else {
		reply, err = task(ctx)
	}
	if err != nil {
		s.logger.Warn("model call failed", zap.String("kind", kind), zap.String("client", client), zap.Error(err))
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Store(ctx, key, reply, s.cacheTTL); err != nil {
			s.logger.Warn("reply cache write failed", zap.Error(err))
		}
	}
	return reply, nil
}
