// Package keyword implements the C5 Keyword/Synonym Service: curation of a
// domain vocabulary and the relevance-filter algorithm of spec §4.5.
package keyword

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/openhive/retrieval-engine/internal/errors"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Relevant is one selected keyword with the definition/category needed to
// render the injection block.
type Relevant struct {
	Keyword    string
	Definition string
	Category   string
}

// Service is the C5 Keyword/Synonym Service. It is safe for concurrent use.
type Service struct {
	db *gorm.DB
}

// New constructs a Service backed by db.
func New(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Relevant implements the §4.5 relevance algorithm: lowercase the text, then
// select every active keyword that matches by substring, generated plural,
// or a synonym's substring/plural match.
func (s *Service) Relevant(ctx context.Context, text string) ([]Relevant, error) {
	lower := strings.ToLower(text)

	var keywords []types.Keyword
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Find(&keywords).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "keyword: list active", err)
	}

	var synonyms []types.Synonym
	if err := s.db.WithContext(ctx).Find(&synonyms).Error; err != nil {
		return nil, errors.Wrap(errors.KindTransient, "keyword: list synonyms", err)
	}
	synonymsByKeyword := make(map[string][]types.Synonym, len(synonyms))
	for _, syn := range synonyms {
		k := strings.ToLower(syn.SynonymOf)
		synonymsByKeyword[k] = append(synonymsByKeyword[k], syn)
	}

	selected := make(map[string]Relevant)
	var order []string
	for _, kw := range keywords {
		matched := matchesText(lower, kw.Keyword)
		if !matched {
			for _, syn := range synonymsByKeyword[strings.ToLower(kw.Keyword)] {
				if matchesText(lower, syn.Word) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		category := ""
		if kw.Category != nil {
			category = *kw.Category
		}
		if _, exists := selected[kw.Keyword]; !exists {
			order = append(order, kw.Keyword)
		}
		selected[kw.Keyword] = Relevant{Keyword: kw.Keyword, Definition: kw.Definition, Category: category}
	}

	out := make([]Relevant, 0, len(order))
	for _, k := range order {
		out = append(out, selected[k])
	}
	return out, nil
}

// matchesText reports whether term, or its generated plural, is a substring
// of lowerText (spec §4.5 step 2: "ending 'y' -> 'ies'; otherwise append 's'
// when not already ending 's'").
func matchesText(lowerText, term string) bool {
	lowerTerm := strings.ToLower(term)
	if strings.Contains(lowerText, lowerTerm) {
		return true
	}
	return strings.Contains(lowerText, pluralOf(lowerTerm))
}

func pluralOf(lowerTerm string) string {
	if strings.HasSuffix(lowerTerm, "s") {
		return lowerTerm
	}
	if strings.HasSuffix(lowerTerm, "y") && len(lowerTerm) > 1 {
		return lowerTerm[:len(lowerTerm)-1] + "ies"
	}
	return lowerTerm + "s"
}

// InjectionBlock renders the relevance result as the single idempotent
// prompt-injection block described in spec §4.5. It implements
// llm.KeywordInjector.
func (s *Service) InjectionBlock(text string) string {
	if strings.Contains(text, injectionMarker) {
		return "" // already injected; idempotent per spec §8
	}
	relevant, err := s.Relevant(context.Background(), text)
	if err != nil || len(relevant) == 0 {
		return ""
	}
	return RenderInjectionBlock(relevant)
}

const injectionMarker = "### Relevant Specialized Terminology"

// RenderInjectionBlock formats relevant keywords grouped by category, with
// a trailing usage instruction, per spec §4.5.
func RenderInjectionBlock(relevant []Relevant) string {
	byCategory := make(map[string][]Relevant)
	var categories []string
	for _, r := range relevant {
		cat := r.Category
		if cat == "" {
			cat = "General"
		}
		if _, ok := byCategory[cat]; !ok {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], r)
	}
	sort.Strings(categories)

	var b strings.Builder
	b.WriteString(injectionMarker + "\n")
	for _, cat := range categories {
		b.WriteString(fmt.Sprintf("**%s**\n", cat))
		for _, r := range byCategory[cat] {
			b.WriteString(fmt.Sprintf("- %s: %s\n", r.Keyword, r.Definition))
		}
	}
	b.WriteString("Use the above definitions where relevant to answer accurately.\n")
	return b.String()
}

// MergeDefinitions merges two definitions of the same LLM-extracted
// keyword via an LLM call, per spec §4.7's conflict-merge policy
// ("merge definitions by calling C4 with a merge prompt").
func MergeDefinitions(ctx context.Context, gw types.LLMGateway, existing, incoming string) (string, error) {
	messages := []types.ChatMessage{
		{Role: "system", Content: "Merge the two definitions of the same term into one concise definition. Respond with the merged definition text only, no preamble."},
		{Role: "user", Content: fmt.Sprintf("Definition A: %s\n\nDefinition B: %s", existing, incoming)},
	}
	merged, err := gw.Call(ctx, messages, "fast")
	if err != nil {
		return "", errors.Wrap(errors.KindTransient, "keyword: merge definitions", err)
	}
	return strings.TrimSpace(merged), nil
}

// CRUD operations (§4.5 "add/update/toggle/delete/list with uniqueness on keyword")

// Create inserts a new keyword, surfacing a uniqueness violation as a
// KindIntegrity error so callers can log-and-skip rather than abort (§3).
func (s *Service) Create(ctx context.Context, kw *types.Keyword) error {
	if err := s.db.WithContext(ctx).Create(kw).Error; err != nil {
		return errors.Wrap(errors.KindIntegrity, "keyword: create", err)
	}
	return nil
}

// Update overwrites definition/category for an existing keyword by name.
func (s *Service) Update(ctx context.Context, keyword, definition string, category *string) error {
	res := s.db.WithContext(ctx).Model(&types.Keyword{}).
		Where("keyword = ?", keyword).
		Updates(map[string]interface{}{"definition": definition, "category": category})
	if res.Error != nil {
		return errors.Wrap(errors.KindTransient, "keyword: update", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.KindValidation, fmt.Sprintf("keyword %q not found", keyword))
	}
	return nil
}

// Toggle flips is_active for keyword.
func (s *Service) Toggle(ctx context.Context, keyword string, active bool) error {
	return s.db.WithContext(ctx).Model(&types.Keyword{}).
		Where("keyword = ?", keyword).
		Update("is_active", active).Error
}

// Delete removes keyword and any synonyms pointing at it.
func (s *Service) Delete(ctx context.Context, keyword string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("synonym_of = ?", keyword).Delete(&types.Synonym{}).Error; err != nil {
			return err
		}
		return tx.WithContext(ctx).Where("keyword = ?", keyword).Delete(&types.Keyword{}).Error
	})
}

// List returns all keywords ordered by name.
func (s *Service) List(ctx context.Context) ([]types.Keyword, error) {
	var out []types.Keyword
	err := s.db.WithContext(ctx).Order("keyword").Find(&out).Error
	return out, err
}

// AddSynonym inserts a new synonym pointing at an existing keyword.
func (s *Service) AddSynonym(ctx context.Context, syn *types.Synonym) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&types.Keyword{}).Where("keyword = ?", syn.SynonymOf).Count(&count).Error; err != nil {
		return errors.Wrap(errors.KindTransient, "keyword: lookup synonym target", err)
	}
	if count == 0 {
		return errors.New(errors.KindValidation, fmt.Sprintf("synonym_of keyword %q does not exist", syn.SynonymOf))
	}
	if err := s.db.WithContext(ctx).Create(syn).Error; err != nil {
		return errors.Wrap(errors.KindIntegrity, "keyword: add synonym", err)
	}
	return nil
}

// DeleteSynonym removes a synonym by id.
func (s *Service) DeleteSynonym(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&types.Synonym{}, id).Error
}

// ListSynonyms returns all synonyms for a keyword.
func (s *Service) ListSynonyms(ctx context.Context, keyword string) ([]types.Synonym, error) {
	var out []types.Synonym
	err := s.db.WithContext(ctx).Where("synonym_of = ?", keyword).Find(&out).Error
	return out, err
}
