package storage

import "catalog-scraper/models"

// Merge combines a prior catalog with freshly produced listings, keyed by id.
// Prior entries keep their position; a fresh entry with the same id replaces
// the prior one in place; fresh entries with new ids follow in their own order.
// Prior entries not re-observed are kept unchanged.
func Merge(prior, fresh []*models.Listing) []*models.Listing {
	index := make(map[string]int, len(prior)+len(fresh))
	out := make([]*models.Listing, 0, len(prior)+len(fresh))

	put := func(l *models.Listing) {
		if i, ok := index[l.ID]; ok {
			out[i] = l
			return
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}

	for _, l := range prior {
		put(l)
	}
	for _, l := range fresh {
		put(l)
	}
	return out
}
