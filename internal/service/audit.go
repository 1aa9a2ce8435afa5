package service

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jask/cuentas/internal/database/repository"
)

// DefaultDuplicateThreshold is the normalised edit distance under which
// two names are reported as likely duplicates.
const DefaultDuplicateThreshold = 0.2

// DuplicatePair is two same-kind records whose names collide or nearly do.
type DuplicatePair struct {
	Kind       EntityKind `json:"kind"`
	AID        string     `json:"a_id"`
	AName      string     `json:"a_name"`
	BID        string     `json:"b_id"`
	BName      string     `json:"b_name"`
	Exact      bool       `json:"exact"`
	Similarity float64    `json:"similarity"`
}

// DuplicateAuditor finds accounts, partners and projects that concurrent
// imports may have created twice. It only reports; it never merges.
type DuplicateAuditor struct {
	DB        repository.DBTX
	Threshold float64
}

type named struct {
	id, name string
}

func (a *DuplicateAuditor) Audit(ctx context.Context, actor Actor) ([]DuplicatePair, error) {
	if err := actor.check(); err != nil {
		return nil, err
	}
	threshold := a.Threshold
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	accounts, err := repository.NewAccountRepo(a.DB).List(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %w", ErrPersistence, err)
	}
	partners, err := repository.NewPartnerRepo(a.DB).List(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: list partners: %w", ErrPersistence, err)
	}
	projects, err := repository.NewProjectRepo(a.DB).List(ctx, actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: list projects: %w", ErrPersistence, err)
	}

	var out []DuplicatePair
	out = append(out, pairs(KindAccount, mapNames(accounts, func(x repository.Account) named { return named{x.ID, x.Name} }), threshold)...)
	out = append(out, pairs(KindPartner, mapNames(partners, func(x repository.Partner) named { return named{x.ID, x.Name} }), threshold)...)
	out = append(out, pairs(KindProject, mapNames(projects, func(x repository.Project) named { return named{x.ID, x.Name} }), threshold)...)
	return out, nil
}

func mapNames[T any](items []T, f func(T) named) []named {
	out := make([]named, len(items))
	for i, it := range items {
		out[i] = f(it)
	}
	return out
}

func pairs(kind EntityKind, items []named, threshold float64) []DuplicatePair {
	var out []DuplicatePair
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			a, b := items[i], items[j]
			sim := nameSimilarity(a.name, b.name)
			exact := repository.NameKey(a.name) == repository.NameKey(b.name)
			if !exact && 1-sim >= threshold {
				continue
			}
			out = append(out, DuplicatePair{
				Kind:       kind,
				AID:        a.id,
				AName:      a.name,
				BID:        b.id,
				BName:      b.name,
				Exact:      exact,
				Similarity: sim,
			})
		}
	}
	return out
}

// nameSimilarity is 1 minus the edit distance between the name keys over
// the longer key's length.
func nameSimilarity(a, b string) float64 {
	ka, kb := repository.NameKey(a), repository.NameKey(b)
	longest := max(utf8.RuneCountInString(ka), utf8.RuneCountInString(kb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(ka, kb))/float64(longest)
}
