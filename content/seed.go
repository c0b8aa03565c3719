package content

import (
	"context"
	"fmt"
	"time"

	"github.com/mevoq/site/backend"
)

// SeedResult counts the records Seed inserted per collection.
type SeedResult map[backend.Collection]int

// Seed writes the sample testimonials, services and team into whichever of
// those collections are empty. Collections with data are left alone.
func Seed(ctx context.Context, store backend.Store, now time.Time) (SeedResult, error) {
	res := SeedResult{}

	var testimonials []Testimonial
	if err := store.Select(ctx, backend.From(backend.Testimonials).Take(1), &testimonials); err != nil {
		return res, fmt.Errorf("seed testimonials: %w", err)
	}
	if len(testimonials) == 0 {
		for _, t := range SampleTestimonials() {
			if err := store.Insert(ctx, backend.Testimonials, t); err != nil {
				return res, fmt.Errorf("seed testimonial %s: %w", t.ID, err)
			}
			res[backend.Testimonials]++
		}
	}

	var services []Service
	if err := store.Select(ctx, backend.From(backend.Services).Take(1), &services); err != nil {
		return res, fmt.Errorf("seed services: %w", err)
	}
	if len(services) == 0 {
		for i, s := range SampleServices() {
			// Stagger creation times so oldest-first order matches sample order.
			s.CreatedAt = now.UTC().Add(time.Duration(i) * time.Second)
			if err := store.Insert(ctx, backend.Services, s); err != nil {
				return res, fmt.Errorf("seed service %s: %w", s.ID, err)
			}
			res[backend.Services]++
		}
	}

	var team []TeamMember
	if err := store.Select(ctx, backend.From(backend.Team).Take(1), &team); err != nil {
		return res, fmt.Errorf("seed team: %w", err)
	}
	if len(team) == 0 {
		for _, m := range SampleTeam() {
			if err := store.Insert(ctx, backend.Team, m); err != nil {
				return res, fmt.Errorf("seed team member %s: %w", m.ID, err)
			}
			res[backend.Team]++
		}
	}
	return res, nil
}
