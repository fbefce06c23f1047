// Package discovery turns listing and search parameters into a query plan:
// filter, relevance ranking, sampling and pagination. Plans render to
// parameterised PostgreSQL and never touch the database themselves.
package discovery

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrInvalidOwner is returned when an owner filter is not a valid identifier.
	ErrInvalidOwner = errors.New("invalid ownerId format")

	// ErrInvalidSort is returned for a sort field outside the allowed set.
	ErrInvalidSort = errors.New("unsupported sort field")

	// ErrInvalidSeed is returned for an oversized sampling seed.
	ErrInvalidSeed = errors.New("invalid sampling seed")
)

const maxSeedLength = 64

// Options are the service-wide knobs for plan building.
type Options struct {
	// SampleFactor times the page size is the sample drawn for non-search
	// video listings.
	SampleFactor int
	MaxPageSize  int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{SampleFactor: 10, MaxPageSize: 100}
}

// VideoQuery is the raw listing request for videos.
type VideoQuery struct {
	SearchTerm string
	OwnerID    string
	SortBy     string
	SortType   string
	Seed       string
	Page       int
	PageSize   int
}

// CommentQuery is the raw listing request for the comments of one video.
type CommentQuery struct {
	VideoID    uuid.UUID
	SearchTerm string
	SortBy     string
	SortType   string
	Page       int
	PageSize   int
}

// Sort is a whitelisted column and direction.
type Sort struct {
	Column string
	Desc   bool
}

func (s Sort) sql() string {
	if s.Desc {
		return s.Column + " DESC"
	}
	return s.Column + " ASC"
}

// Window is a clamped page request.
type Window struct {
	Page     int
	PageSize int
}

// Offset is the number of rows skipped before the window.
func (w Window) Offset() int {
	return (w.Page - 1) * w.PageSize
}

var videoSortColumns = map[string]string{
	"createdat":  "created_at",
	"created_at": "created_at",
	"updatedat":  "updated_at",
	"updated_at": "updated_at",
	"views":      "views",
	"title":      "title",
	"duration":   "duration",
}

var commentSortColumns = map[string]string{
	"createdat":  "created_at",
	"created_at": "created_at",
	"updatedat":  "updated_at",
	"updated_at": "updated_at",
}

// VideoPlan is a validated video listing.
type VideoPlan struct {
	Search  string
	OwnerID *uuid.UUID
	Sort    Sort
	Window  Window
	// SampleSize is zero for search listings, which are ranked instead.
	SampleSize int
	// SampleOffset is the number of seed-ordered rows before the sample that
	// holds Window. It is always a multiple of SampleSize.
	SampleOffset int
	Seed         string
}

// Searching reports whether the plan ranks by relevance.
func (p *VideoPlan) Searching() bool {
	return p.Search != ""
}

// OffsetInSample is the window offset within the sample. Samples are whole
// pages long, so a window never spans two samples.
func (p *VideoPlan) OffsetInSample() int {
	return p.Window.Offset() - p.SampleOffset
}

// CommentPlan is a validated comment listing.
type CommentPlan struct {
	VideoID uuid.UUID
	Search  string
	Sort    Sort
	Window  Window
}

// newSeed is swapped in tests.
var newSeed = func() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// BuildVideoPlan validates q and resolves it into a plan. Non-search listings
// order the filtered set by a seeded hash and cut it into consecutive samples
// of SampleFactor pages; each sample is sorted by the requested field. A
// listing without a seed gets a fresh one, which callers hand back to clients
// so that later pages keep the same order.
func BuildVideoPlan(q VideoQuery, opts Options) (*VideoPlan, error) {
	opts = normalize(opts)

	sort, err := resolveSort(q.SortBy, q.SortType, videoSortColumns)
	if err != nil {
		return nil, err
	}

	plan := &VideoPlan{
		Search: strings.TrimSpace(q.SearchTerm),
		Sort:   sort,
		Window: clampWindow(q.Page, q.PageSize, opts.MaxPageSize),
	}

	if owner := strings.TrimSpace(q.OwnerID); owner != "" && owner != "null" {
		id, err := uuid.Parse(owner)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
		}
		plan.OwnerID = &id
	}

	if !plan.Searching() {
		seed := strings.TrimSpace(q.Seed)
		if len(seed) > maxSeedLength {
			return nil, fmt.Errorf("%w: longer than %d characters", ErrInvalidSeed, maxSeedLength)
		}
		if seed == "" {
			seed = newSeed()
		}
		plan.Seed = seed
		plan.SampleSize = plan.Window.PageSize * opts.SampleFactor
		plan.SampleOffset = plan.Window.Offset() / plan.SampleSize * plan.SampleSize
	}

	return plan, nil
}

// BuildCommentPlan validates q and resolves it into a plan.
func BuildCommentPlan(q CommentQuery, opts Options) (*CommentPlan, error) {
	opts = normalize(opts)

	sort, err := resolveSort(q.SortBy, q.SortType, commentSortColumns)
	if err != nil {
		return nil, err
	}

	return &CommentPlan{
		VideoID: q.VideoID,
		Search:  strings.TrimSpace(q.SearchTerm),
		Sort:    sort,
		Window:  clampWindow(q.Page, q.PageSize, opts.MaxPageSize),
	}, nil
}

func normalize(opts Options) Options {
	def := DefaultOptions()
	if opts.SampleFactor < 1 {
		opts.SampleFactor = def.SampleFactor
	}
	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = def.MaxPageSize
	}
	return opts
}

// resolveSort maps an API sort field onto a column. An empty field sorts by
// creation time; any direction other than "asc" sorts descending.
func resolveSort(field, direction string, columns map[string]string) (Sort, error) {
	key := strings.ToLower(strings.TrimSpace(field))
	if key == "" {
		key = "createdat"
	}

	column, ok := columns[key]
	if !ok {
		return Sort{}, fmt.Errorf("%w: %q", ErrInvalidSort, field)
	}

	return Sort{
		Column: column,
		Desc:   !strings.EqualFold(strings.TrimSpace(direction), "asc"),
	}, nil
}

func clampWindow(page, pageSize, maxPageSize int) Window {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return Window{Page: page, PageSize: pageSize}
}
