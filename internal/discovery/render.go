package discovery

import (
	"fmt"
	"strings"
)

// Relevance tiers, highest wins.
const (
	TierNone        = 0
	TierDescription = 1
	TierPartial     = 2
	TierExact       = 3
)

// VideoColumns is the column list every video listing returns, in scan order.
// Rendered selects append a trailing relevance column.
const VideoColumns = "id, title, description, video_url, thumbnail_url, duration, views, owner_id, is_published, created_at, updated_at"

// CommentColumns is the column list every comment listing returns, in scan order.
const CommentColumns = "id, content, video_id, owner_id, created_at, updated_at"

type binder struct {
	args []any
}

func (b *binder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// escapeLike makes a user term safe for use inside an ILIKE pattern.
func escapeLike(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(term)
}

func containsPattern(term string) string {
	return "%" + escapeLike(term) + "%"
}

// videoFilter renders the WHERE clause shared by the page and count queries.
func (p *VideoPlan) videoFilter(b *binder) (where string, pattern string) {
	var conds []string

	if p.Searching() {
		pattern = b.bind(containsPattern(p.Search))
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", pattern, pattern))
	}
	if p.OwnerID != nil {
		conds = append(conds, "owner_id = "+b.bind(*p.OwnerID))
	}

	if len(conds) == 0 {
		return "", pattern
	}
	return " WHERE " + strings.Join(conds, " AND "), pattern
}

// SelectSQL renders the page query. Search listings rank by relevance tier
// before the requested sort; other listings sort the seeded sample holding
// the window.
func (p *VideoPlan) SelectSQL() (string, []any) {
	b := &binder{}
	where, pattern := p.videoFilter(b)

	if p.Searching() {
		exact := b.bind(p.Search)
		query := fmt.Sprintf(
			"SELECT %s, CASE WHEN lower(title) = lower(%s) THEN %d WHEN title ILIKE %s THEN %d WHEN description ILIKE %s THEN %d ELSE %d END AS relevance FROM videos%s ORDER BY relevance DESC, %s, id ASC",
			VideoColumns, exact, TierExact, pattern, TierPartial, pattern, TierDescription, TierNone, where, p.Sort.sql(),
		)
		query += fmt.Sprintf(" LIMIT %s OFFSET %s", b.bind(p.Window.PageSize), b.bind(p.Window.Offset()))
		return query, b.args
	}

	seed := b.bind(p.Seed)
	sample := b.bind(p.SampleSize)
	sampleOffset := b.bind(p.SampleOffset)
	query := fmt.Sprintf(
		"SELECT %s, %d AS relevance FROM (SELECT %s FROM videos%s ORDER BY md5(id::text || %s), id ASC LIMIT %s OFFSET %s) AS sample ORDER BY %s, id ASC",
		VideoColumns, TierNone, VideoColumns, where, seed, sample, sampleOffset, p.Sort.sql(),
	)
	query += fmt.Sprintf(" LIMIT %s OFFSET %s", b.bind(p.Window.PageSize), b.bind(p.OffsetInSample()))
	return query, b.args
}

// CountSQL renders the total-count query: the filter alone, with no ranking
// or sampling.
func (p *VideoPlan) CountSQL() (string, []any) {
	b := &binder{}
	where, _ := p.videoFilter(b)
	return "SELECT count(*) FROM videos" + where, b.args
}

func (p *CommentPlan) commentFilter(b *binder) string {
	where := " WHERE video_id = " + b.bind(p.VideoID)
	if p.Search != "" {
		where += " AND content ILIKE " + b.bind(containsPattern(p.Search))
	}
	return where
}

// SelectSQL renders the comment page query.
func (p *CommentPlan) SelectSQL() (string, []any) {
	b := &binder{}
	where := p.commentFilter(b)
	query := fmt.Sprintf("SELECT %s FROM comments%s ORDER BY %s, id ASC LIMIT %s OFFSET %s",
		CommentColumns, where, p.Sort.sql(), b.bind(p.Window.PageSize), b.bind(p.Window.Offset()))
	return query, b.args
}

// CountSQL renders the comment count query.
func (p *CommentPlan) CountSQL() (string, []any) {
	b := &binder{}
	return "SELECT count(*) FROM comments" + p.commentFilter(b), b.args
}
