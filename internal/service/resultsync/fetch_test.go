package resultsync

import (
	"context"
	"errors"
	"testing"

	"f1-penca/internal/provider/ergast"
	appErr "f1-penca/pkg/errors"

	. "github.com/smartystreets/goconvey/convey"
)

type pagedFetcher struct {
	total   int
	offsets []int
}

func (f *pagedFetcher) FetchPage(_ context.Context, _ ergast.Category, _ int, limit, offset int) (*ergast.Page, error) {
	f.offsets = append(f.offsets, offset)
	if offset >= f.total {
		return &ergast.Page{Total: f.total, Limit: limit, Offset: offset}, nil
	}
	return &ergast.Page{
		Total:  f.total,
		Limit:  limit,
		Offset: offset,
		Races:  []ergast.Race{{Round: "1", RaceName: "page"}},
	}, nil
}

func TestFetchAllPaginatesUntilTotal(t *testing.T) {
	Convey("Given a provider reporting 237 rows", t, func() {
		f := &pagedFetcher{total: 237}

		Convey("When every page is fetched with page size 100", func() {
			races, err := fetchAll(context.Background(), f, ergast.CategoryRace, 2024, 100)

			Convey("Then exactly three pages are requested and concatenated", func() {
				So(err, ShouldBeNil)
				So(f.offsets, ShouldResemble, []int{0, 100, 200})
				So(len(races), ShouldEqual, 3)
			})
		})
	})
}

func TestFetchAllSinglePage(t *testing.T) {
	Convey("Given a provider whose total fits in one page", t, func() {
		f := &pagedFetcher{total: 100}

		Convey("When fetching", func() {
			_, err := fetchAll(context.Background(), f, ergast.CategorySprint, 2024, 100)

			Convey("Then no second page is requested", func() {
				So(err, ShouldBeNil)
				So(f.offsets, ShouldResemble, []int{0})
			})
		})
	})
}

func TestFetchAllEmptyFirstPage(t *testing.T) {
	Convey("Given a provider with no rows for the season", t, func() {
		f := &pagedFetcher{total: 0}

		Convey("When fetching", func() {
			races, err := fetchAll(context.Background(), f, ergast.CategoryQualifying, 2024, 100)

			Convey("Then the category fails with ErrNoResults", func() {
				So(races, ShouldBeNil)
				So(errors.Is(err, appErr.ErrNoResults), ShouldBeTrue)
				So(f.offsets, ShouldResemble, []int{0})
			})
		})
	})
}

func TestQualifyingTimePrefersLatestSession(t *testing.T) {
	Convey("Given qualifying entries with partial sessions", t, func() {
		full := ergast.Result{Q1: "1:30.1", Q2: "1:29.8", Q3: "1:29.5"}
		q2Only := ergast.Result{Q1: "1:30.9", Q2: "1:30.2"}
		none := ergast.Result{}

		Convey("Then Q3 wins over Q2 over Q1, else absent", func() {
			So(*qualifyingTime(full), ShouldEqual, "1:29.5")
			So(*qualifyingTime(q2Only), ShouldEqual, "1:30.2")
			So(qualifyingTime(none), ShouldBeNil)
		})
	})
}

func TestParsePoints(t *testing.T) {
	Convey("Given provider point strings", t, func() {
		Convey("Then they parse as integers", func() {
			p, err := parsePoints("25")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 25)

			p, err = parsePoints("12.5")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 12)

			p, err = parsePoints("")
			So(err, ShouldBeNil)
			So(p, ShouldEqual, 0)

			_, err = parsePoints("n/a")
			So(errors.Is(err, appErr.ErrProviderFailure), ShouldBeTrue)
		})
	})
}
