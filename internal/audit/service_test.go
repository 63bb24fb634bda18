package audit

import (
	"context"
	"testing"
)

type stubTimelineRepo struct {
	rows       []Row
	lastLimit  int
	lastOffset int
}

func (s *stubTimelineRepo) Window(_ context.Context, _ Filters, limit, offset int) ([]Row, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func makeRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{ID: int64(i + 1), Action: "user.update", Entity: "user"}
	}
	return rows
}

func TestTimelineDefaultPaging(t *testing.T) {
	repo := &stubTimelineRepo{rows: makeRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 20 {
		t.Fatalf("rows = %d, want default page size 20", len(result.Rows))
	}
	if !result.Paging.HasNext || result.Paging.NextPage != 2 {
		t.Errorf("paging = %+v, want next page 2", result.Paging)
	}
	if result.Paging.PrevPage != 0 {
		t.Errorf("first page should have no prev page")
	}
	if repo.lastLimit != 21 {
		t.Errorf("limit = %d, want pageSize+1 probe", repo.lastLimit)
	}
}

func TestTimelineSecondPage(t *testing.T) {
	repo := &stubTimelineRepo{rows: makeRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{Page: 2})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(result.Rows))
	}
	if result.Paging.HasNext {
		t.Errorf("last page should not report a next page")
	}
	if result.Paging.PrevPage != 1 {
		t.Errorf("prev page = %d, want 1", result.Paging.PrevPage)
	}
	if repo.lastOffset != 20 {
		t.Errorf("offset = %d, want 20", repo.lastOffset)
	}
}

func TestTimelinePageSizeCapped(t *testing.T) {
	repo := &stubTimelineRepo{rows: makeRows(80)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{PageSize: 500})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 50 {
		t.Fatalf("rows = %d, want cap of 50", len(result.Rows))
	}
	if result.Paging.PageSize != 50 {
		t.Errorf("page size = %d, want 50", result.Paging.PageSize)
	}
}

func TestTimelineEmptyWindow(t *testing.T) {
	svc := NewService(&stubTimelineRepo{})

	result, err := svc.Timeline(context.Background(), Filters{Page: 3})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(result.Rows))
	}
	if result.Paging.HasNext {
		t.Errorf("empty window must not report a next page")
	}
}
