package wikiapi

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// SearchHit is one search result row.
type SearchHit struct {
	PageID       int64  `json:"pageid"`
	Title        string `json:"title"`
	TitleSnippet string `json:"titlesnippet"`
}

// SearchCursor pages through search results using the API's continuation
// protocol. Offset is the continuation offset used for the next batch fetch;
// it is exported so callers paginating interactively can rewind or skip
// between calls to Next (see Seek).
type SearchCursor struct {
	client  *Client
	keyword string
	limit   int

	Offset int

	hits []SearchHit
	pos  int
	done bool
}

// Search runs a full-text title search, returning the total hit count and a
// cursor over the results. limit is the batch size per API call.
func (c *Client) Search(ctx context.Context, keyword string, limit int) (*SearchCursor, int, error) {
	if limit <= 0 {
		limit = 10
	}
	cursor := &SearchCursor{client: c, keyword: keyword, limit: limit}
	total, err := cursor.fetch(ctx, true)
	if err != nil {
		return nil, 0, err
	}
	return cursor, total, nil
}

// Next yields the next search hit, fetching the next batch through the
// continuation offset when the current one is drained. ok is false once the
// result set is exhausted.
func (s *SearchCursor) Next(ctx context.Context) (SearchHit, bool, error) {
	for s.pos >= len(s.hits) {
		if s.done {
			return SearchHit{}, false, nil
		}
		if _, err := s.fetch(ctx, false); err != nil {
			return SearchHit{}, false, err
		}
	}

	hit := s.hits[s.pos]
	s.pos++
	return hit, true, nil
}

// Seek moves the cursor to an absolute result offset. The next call to Next
// fetches from there.
func (s *SearchCursor) Seek(offset int) {
	s.Offset = offset
	s.hits = nil
	s.pos = 0
	s.done = false
}

// fetch loads one batch at the current Offset. It returns the total hit
// count reported by the API.
func (s *SearchCursor) fetch(ctx context.Context, first bool) (int, error) {
	query := url.Values{
		"list":     {"search"},
		"srsearch": {s.keyword},
		"srlimit":  {strconv.Itoa(s.limit)},
		"srprop":   {"titlesnippet"},
	}
	if !first || s.Offset > 0 {
		query.Set("sroffset", strconv.Itoa(s.Offset))
	}

	resp, err := s.client.call(ctx, query)
	if err != nil {
		return 0, err
	}

	s.hits = resp.Query.Search
	s.pos = 0

	if raw, ok := resp.Continue["sroffset"]; ok {
		var next int
		if err := json.Unmarshal(raw, &next); err == nil {
			s.Offset = next
		}
	} else {
		s.done = true
	}
	if len(s.hits) == 0 {
		s.done = true
	}

	return resp.Query.SearchInfo.TotalHits, nil
}
