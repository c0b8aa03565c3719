package content

import "sort"

// PostsPerPage is the blog index page size.
const PostsPerPage = 9

// RelatedPosts returns up to n posts sharing current's category, excluding
// current itself, in the order given.
func RelatedPosts(current BlogPost, posts []BlogPost, n int) []BlogPost {
	var related []BlogPost
	for _, p := range posts {
		if len(related) == n {
			break
		}
		if p.ID == current.ID || p.Slug == current.Slug {
			continue
		}
		if p.Category == current.Category {
			related = append(related, p)
		}
	}
	return related
}

// RelatedServices returns up to n services other than id.
func RelatedServices(id string, services []Service, n int) []Service {
	var related []Service
	for _, s := range services {
		if len(related) == n {
			break
		}
		if s.ID != id {
			related = append(related, s)
		}
	}
	return related
}

// Categories returns the sorted set of categories used by posts.
func Categories(posts []BlogPost) []string {
	set := make(map[string]struct{})
	for _, p := range posts {
		if p.Category != "" {
			set[p.Category] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// FilterByCategory keeps posts in category. An empty category keeps all.
func FilterByCategory(posts []BlogPost, category string) []BlogPost {
	if category == "" || category == "all" {
		return posts
	}
	var out []BlogPost
	for _, p := range posts {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Page is one page of a list.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.TotalPages }
func (p Page[T]) Prev() int     { return p.Number - 1 }
func (p Page[T]) Next() int     { return p.Number + 1 }

// Paginate returns page number (1-based, clamped to range) of items.
func Paginate[T any](items []T, number, size int) Page[T] {
	if size <= 0 {
		size = len(items)
	}
	total := 1
	if size > 0 && len(items) > 0 {
		total = (len(items) + size - 1) / size
	}
	number = max(1, min(number, total))
	start := (number - 1) * size
	end := min(start+size, len(items))
	return Page[T]{Items: items[start:end], Number: number, TotalPages: total}
}
