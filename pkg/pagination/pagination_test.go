package pagination

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total, perPage, want int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := TotalPages(tt.total, tt.perPage); got != tt.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tt.total, tt.perPage, got, tt.want)
		}
	}
}

func TestPaginateConcatenationReproducesInput(t *testing.T) {
	for _, n := range []int{0, 1, 7, 10, 23} {
		for _, perPage := range []int{1, 3, 10, 50} {
			items := seq(n)
			var got []int
			pages := TotalPages(n, perPage)
			for p := 1; p <= pages; p++ {
				page, err := Paginate(items, p, perPage)
				if err != nil {
					t.Fatalf("n=%d perPage=%d page=%d: %v", n, perPage, p, err)
				}
				got = append(got, page.Items...)
			}
			if n == 0 {
				got = []int{}
			}
			if diff := cmp.Diff(items, got); diff != "" {
				t.Errorf("n=%d perPage=%d mismatch (-want +got):\n%s", n, perPage, diff)
			}
		}
	}
}

func TestPaginateMetadata(t *testing.T) {
	page, err := Paginate(seq(25), 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	want := Page[int]{
		Items:       []int{21, 22, 23, 24, 25},
		CurrentPage: 3,
		TotalPages:  3,
		TotalItems:  25,
		PerPage:     10,
		HasPrev:     true,
		HasNext:     false,
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestPaginateEmptyFirstPage(t *testing.T) {
	page, err := Paginate([]string{}, 1, 20)
	if err != nil {
		t.Fatalf("page 1 of empty set should be valid: %v", err)
	}
	if len(page.Items) != 0 || page.TotalPages != 0 || page.HasNext || page.HasPrev {
		t.Errorf("unexpected empty page: %+v", page)
	}
}

func TestPaginateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name          string
		n, page, size int
		want          error
	}{
		{"page zero", 10, 0, 5, ErrPageOutOfRange},
		{"past last page", 10, 3, 5, ErrPageOutOfRange},
		{"page 2 of empty", 0, 2, 5, ErrPageOutOfRange},
		{"zero perPage", 10, 1, 0, ErrInvalidPerPage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Paginate(seq(tt.n), tt.page, tt.size)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPaginateIsStable(t *testing.T) {
	items := seq(17)
	a, _ := Paginate(items, 2, 5)
	b, _ := Paginate(items, 2, 5)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated pagination differs:\n%s", diff)
	}

	a.Items = append(a.Items, 99)
	if items[10] != 11 {
		t.Errorf("append through page leaked into source slice")
	}
}
