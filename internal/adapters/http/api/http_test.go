package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/levelcard/internal/domain/levels"
	"github.com/okian/levelcard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

type fakeStats struct{}

func (fakeStats) GetStats() map[string]any {
	return map[string]any{"workers": 4, "running": true}
}

type fakeRanks struct {
	xp    map[string]uint64
	rank  int64
	err   error
	calls int
}

func (f *fakeRanks) XP(_ context.Context, guild, user string) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.xp[guild+"/"+user], nil
}

func (f *fakeRanks) Rank(_ context.Context, _ string, _ uint64) (int64, error) {
	f.calls++
	return f.rank, nil
}

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(method, path, http.NoBody))
	return w
}

func TestServer(t *testing.T) {
	Convey("Given a registered server", t, func() {
		ranks := &fakeRanks{xp: map[string]uint64{"g1/u1": 3255}, rank: 3}
		mux := http.NewServeMux()
		NewServer(fakeStats{}, ranks).Register(context.Background(), mux)

		Convey("GET /healthz exposes metrics", func() {
			w := serve(mux, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("GET /stats returns the provider's map", func() {
			w := serve(mux, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")

			var got map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got["workers"], ShouldEqual, float64(4))
			So(got["running"], ShouldBeTrue)
		})

		Convey("POST /stats is not routed", func() {
			So(serve(mux, http.MethodPost, "/stats").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("GET /levels/{xp} resolves the curve", func() {
			w := serve(mux, http.MethodGet, "/levels/3255")
			So(w.Code, ShouldEqual, http.StatusOK)

			var got LevelSummary
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got, ShouldResemble, NewLevelSummary(levels.NewInfo(3255)))
			So(got.CurrentThreshold, ShouldBeLessThanOrEqualTo, got.XP)
			So(got.NextThreshold, ShouldBeGreaterThan, got.XP)
		})

		Convey("GET /levels/0 is level zero", func() {
			var got LevelSummary
			w := serve(mux, http.MethodGet, "/levels/0")
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Level, ShouldEqual, 0)
			So(got.Progress, ShouldEqual, 0)
		})

		Convey("GET /levels with a bad xp is rejected", func() {
			for _, p := range []string{"/levels/", "/levels/-1", "/levels/abc", "/levels/1/2"} {
				w := serve(mux, http.MethodGet, p)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var e errorResponse
				So(json.Unmarshal(w.Body.Bytes(), &e), ShouldBeNil)
				So(e.Code, ShouldEqual, "bad_request")
			}
		})

		Convey("GET /rank/{guild}/{user} reports rank and level", func() {
			w := serve(mux, http.MethodGet, "/rank/g1/u1")
			So(w.Code, ShouldEqual, http.StatusOK)

			var got RankSummary
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Guild, ShouldEqual, "g1")
			So(got.User, ShouldEqual, "u1")
			So(got.Rank, ShouldEqual, 3)
			So(got.Level, ShouldEqual, levels.NewInfo(3255).Level())
		})

		Convey("An unranked member has rank zero without a rank query", func() {
			w := serve(mux, http.MethodGet, "/rank/g1/nobody")
			So(w.Code, ShouldEqual, http.StatusOK)

			var got RankSummary
			So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
			So(got.Rank, ShouldEqual, 0)
			So(got.XP, ShouldEqual, 0)
			So(ranks.calls, ShouldEqual, 0)
		})

		Convey("A malformed rank path is rejected", func() {
			for _, p := range []string{"/rank/", "/rank/g1", "/rank/g1/", "/rank/g1/u1/x"} {
				So(serve(mux, http.MethodGet, p).Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("A store failure is a server error", func() {
			ranks.err = errors.New("connection refused")
			w := serve(mux, http.MethodGet, "/rank/g1/u1")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
			So(w.Body.String(), ShouldContainSubstring, "connection refused")
		})
	})

	Convey("Given a server without a rank store", t, func() {
		mux := http.NewServeMux()
		NewServer(fakeStats{}, nil).Register(context.Background(), mux)

		Convey("GET /rank answers 503", func() {
			w := serve(mux, http.MethodGet, "/rank/g1/u1")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(w.Body.String(), ShouldContainSubstring, ErrUnavailable.Error())
		})
	})
}

func TestErrorType(t *testing.T) {
	Convey("Status codes map to error types", t, func() {
		So(getErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
		So(getErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(getErrorType(http.StatusTooManyRequests), ShouldEqual, "rate_limit")
		So(getErrorType(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(getErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
	})
}
