package store

import (
	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/types"
)

// Store aggregates the per-table repositories into a single dependency the
// rest of the application injects, matching the teacher's one-repository-
// per-table layout but without a DI container (spec §9: "pass interfaces
// into components rather than importing globals").
type Store struct {
	db *gorm.DB

	Issues          *Repo[types.Issue]
	Forum           *Repo[types.ForumPost]
	Docs            *Repo[types.Doc]
	QAs             *Repo[types.QA]
	Keywords        *Repo[types.Keyword]
	Synonyms        *Repo[types.Synonym]
	Batches         *Repo[types.BatchProcess]
	ApiKeys         *Repo[types.ApiKey]
	Sessions        *Repo[types.ChatSession]
	SessionEntities *Repo[types.ChatSessionEntity]
}

// New builds a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{
		db:              db,
		Issues:          NewRepo[types.Issue](db),
		Forum:           NewRepo[types.ForumPost](db),
		Docs:            NewRepo[types.Doc](db),
		QAs:             NewRepo[types.QA](db),
		Keywords:        NewRepo[types.Keyword](db),
		Synonyms:        NewRepo[types.Synonym](db),
		Batches:         NewRepo[types.BatchProcess](db),
		ApiKeys:         NewRepo[types.ApiKey](db),
		Sessions:        NewRepo[types.ChatSession](db),
		SessionEntities: NewRepo[types.ChatSessionEntity](db),
	}
}

// DB exposes the underlying *gorm.DB for cross-table transactions and the
// C8 similarity_union raw SQL queries.
func (s *Store) DB() *gorm.DB { return s.db }
