package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/FoadGhasemi/CodeSpark/internal/domain"
)

// Catalog reads the quiz bank on every call so edits apply without a restart.
type Catalog struct {
	docs *documents
	name string

	mu  sync.Mutex
	rnd *rand.Rand
}

func newCatalog(docs *documents, name string, rnd *rand.Rand) *Catalog {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Catalog{docs: docs, name: name, rnd: rnd}
}

// Questions returns the current quiz bank.
func (c *Catalog) Questions(ctx context.Context) []domain.Question {
	return loadDocument[[]domain.Question](ctx, c.docs, c.name)
}

// PickRandom draws uniformly from the whole bank, premium questions included.
func (c *Catalog) PickRandom(ctx context.Context) (domain.Question, error) {
	return c.pick(c.Questions(ctx))
}

// FindByID looks a question up by id in the current bank.
func (c *Catalog) FindByID(ctx context.Context, id string) (domain.Question, error) {
	return findQuestion(c.Questions(ctx), id)
}

func (c *Catalog) pick(questions []domain.Question) (domain.Question, error) {
	if len(questions) == 0 {
		return domain.Question{}, domain.ErrCatalogEmpty
	}
	c.mu.Lock()
	i := c.rnd.Intn(len(questions))
	c.mu.Unlock()
	return questions[i], nil
}

func findQuestion(questions []domain.Question, id string) (domain.Question, error) {
	for i := range questions {
		if string(questions[i].ID) == id {
			return questions[i], nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}
