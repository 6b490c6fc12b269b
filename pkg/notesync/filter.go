/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package notesync

import (
	"sort"
	"strings"

	"github.com/notesync/notesync/pkg/models"
)

// Filters
const (
	FilterMine      = "mine"
	FilterNotMine   = "not-mine"
	FilterTag       = "tag"
	FilterFavorites = "favorites"
	FilterShared    = "shared"
)

// Sort orders
const (
	SortNewToOld       = "new-to-old"
	SortOldToNew       = "old-to-new"
	SortFavoritesFirst = "favorites-first"
	SortAToZ           = "a-z"
)

// FilterParams selects and orders notes for display
type FilterParams struct {
	// Query is matched case-insensitively against the title and the content,
	// or against the tags with FilterTag
	Query    string
	FilterBy string
	SortBy   string
	// UserID is the user the notes are displayed to
	UserID string
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}

func matchesTag(n models.Note, q string) bool {
	for _, t := range n.Tags {
		if contains(t, q) {
			return true
		}
	}

	return false
}

// FilterNotes returns the notes matching the parameters in the requested
// order. The input is left untouched.
func FilterNotes(notes []models.Note, p FilterParams) []models.Note {
	q := strings.ToLower(strings.TrimSpace(p.Query))

	ret := []models.Note{}
	for _, n := range notes {
		if q != "" {
			if p.FilterBy == FilterTag {
				if !matchesTag(n, q) {
					continue
				}
			} else if !contains(n.Title, q) && !contains(n.Content, q) {
				continue
			}
		}

		switch p.FilterBy {
		case FilterMine:
			if n.OwnerID != p.UserID {
				continue
			}
		case FilterNotMine:
			if n.OwnerID == p.UserID {
				continue
			}
		case FilterFavorites:
			if !n.IsFavorite {
				continue
			}
		case FilterShared:
			if !n.IsSharedWith(p.UserID) || n.OwnerID == p.UserID {
				continue
			}
		}

		ret = append(ret, n.Clone())
	}

	switch p.SortBy {
	case SortNewToOld:
		sort.SliceStable(ret, func(i, j int) bool {
			return ret[i].CreatedAt.After(ret[j].CreatedAt)
		})
	case SortOldToNew:
		sort.SliceStable(ret, func(i, j int) bool {
			return ret[i].CreatedAt.Before(ret[j].CreatedAt)
		})
	case SortFavoritesFirst:
		sort.SliceStable(ret, func(i, j int) bool {
			return ret[i].IsFavorite && !ret[j].IsFavorite
		})
	case SortAToZ:
		sort.SliceStable(ret, func(i, j int) bool {
			return strings.ToLower(ret[i].Title) < strings.ToLower(ret[j].Title)
		})
	}

	return ret
}
