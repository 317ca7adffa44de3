package catalog

import (
	"context"
	"sync"
	"time"
)

// SampleProducts returns the two-tee sample drop shown when the backend has
// nothing for the current month. Both are stamped with now's month and year.
func SampleProducts(now time.Time) []Product {
	month, year := int(now.Month()), now.Year()
	return []Product{
		{
			ID:           "sample-1",
			Slug:         "noir-basic",
			Title:        "NOIR BASIC TEE",
			Description:  "Matte black heavyweight cotton with tonal logo embroidery.",
			Price:        NewPrice(38),
			Colors:       []string{"Black"},
			ImageURL:     "https://images.unsplash.com/photo-1541099649105-f69ad21f3246?q=80&w=1200&auto=format&fit=crop",
			ReleaseMonth: month,
			ReleaseYear:  year,
		},
		{
			ID:           "sample-2",
			Slug:         "ultraviolet-arc",
			Title:        "ULTRAVIOLET ARC",
			Description:  "Vibrant purple arc-print tee with soft-hand feel.",
			Price:        NewPrice(42),
			Colors:       []string{"Purple"},
			ImageURL:     "https://images.unsplash.com/photo-1516387938699-a93567ec168e?q=80&w=1200&auto=format&fit=crop",
			ReleaseMonth: month,
			ReleaseYear:  year,
		},
	}
}

// StaticService serves canned collections for development and tests.
type StaticService struct {
	mu sync.Mutex

	CurrentItems []Product
	ArchiveItems []Product
	CurrentErr   error
	ArchiveErr   error
	SubscribeErr error
	SeedErr      error
	// Result is returned by Subscribe; defaults to {"status":"ok"}.
	Result *SubscribeResult

	submissions []Submission
	seeds       int
}

// NewStaticService returns a StaticService with an empty archive and the
// sample drop as the current collection.
func NewStaticService() *StaticService {
	return &StaticService{
		CurrentItems: SampleProducts(time.Now()),
		ArchiveItems: []Product{},
	}
}

// Current returns the configured current items or error.
func (s *StaticService) Current(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CurrentErr != nil {
		return nil, s.CurrentErr
	}
	return append([]Product(nil), s.CurrentItems...), nil
}

// Archive returns the configured archive items or error.
func (s *StaticService) Archive(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ArchiveErr != nil {
		return nil, s.ArchiveErr
	}
	return append([]Product(nil), s.ArchiveItems...), nil
}

// Subscribe records valid submissions and returns the configured result.
func (s *StaticService) Subscribe(ctx context.Context, sub Submission) (SubscribeResult, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		return SubscribeResult{}, err
	}
	s.mu.Lock()
	s.submissions = append(s.submissions, sub)
	s.mu.Unlock()
	if s.SubscribeErr != nil {
		return SubscribeResult{}, s.SubscribeErr
	}
	if s.Result != nil {
		return *s.Result, nil
	}
	return SubscribeResult{Status: "ok"}, nil
}

// Seed counts calls; when the seed succeeds and the current list is empty it
// installs the sample drop, mimicking the backend.
func (s *StaticService) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeds++
	if s.SeedErr != nil {
		return s.SeedErr
	}
	if len(s.CurrentItems) == 0 {
		s.CurrentItems = SampleProducts(time.Now())
	}
	return nil
}

// Submissions returns the submissions that reached the service.
func (s *StaticService) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Seeds returns how many times Seed was called.
func (s *StaticService) Seeds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeds
}
