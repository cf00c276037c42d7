// internal/app/projection/join.go
package projection

import "github.com/chaosempire/chaospanel/internal/domain/models"

// JoinedAuthor finds the account a report is attributed to. It returns nil
// for anonymous reports, reports without an author, and orphaned reports
// whose author is not in accounts.
func JoinedAuthor(r models.Report, accounts []models.Account) *models.Account {
	if !r.HasAuthor() {
		return nil
	}
	for i := range accounts {
		if accounts[i].ID == r.AuthorID {
			a := accounts[i]
			return &a
		}
	}
	return nil
}

// Index maps account ids to accounts. It is built once per snapshot so
// projection joins in linear time.
type Index map[string]models.Account

// NewIndex indexes accounts by id. The first account wins on duplicate ids,
// matching JoinedAuthor.
func NewIndex(accounts []models.Account) Index {
	ix := make(Index, len(accounts))
	for _, a := range accounts {
		if _, dup := ix[a.ID]; !dup {
			ix[a.ID] = a
		}
	}
	return ix
}

// Author resolves r's author through the index, with JoinedAuthor's
// semantics.
func (ix Index) Author(r models.Report) *models.Account {
	if !r.HasAuthor() {
		return nil
	}
	a, ok := ix[r.AuthorID]
	if !ok {
		return nil
	}
	return &a
}

// Has reports whether id names an indexed account.
func (ix Index) Has(id string) bool {
	_, ok := ix[id]
	return ok
}
