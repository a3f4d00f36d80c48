package api_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/okian/eventmap/internal/adapters/http/api"
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/impact"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/internal/domain/validate"
	"github.com/okian/eventmap/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDeps struct {
	upload     types.Upload
	uploadErr  error
	gotKey     string
	gotEvents  []model.Event
	view       types.ClusterView
	clusterErr error
	gotParams  cluster.Params
	gotQuery   types.RecommendQuery
	recommend  recommend.Result
	metrics    impact.Metrics
	impactErr  error
	entry      types.Entry
	top        []types.Entry
	gotLimit   int
	summary    impact.Summary
	stats      types.Stats
}

func (m *mockDeps) ReplaceEventsWithKey(_ context.Context, key string, events []model.Event) (types.Upload, error) {
	m.gotKey, m.gotEvents = key, events
	return m.upload, m.uploadErr
}

func (m *mockDeps) Events(context.Context) (types.EventSet, error) {
	return types.EventSet{Version: 3, Events: []model.Event{{ID: "a"}}}, nil
}

func (m *mockDeps) Clusters(_ context.Context, zoom float64) (types.ClusterView, error) {
	if m.clusterErr != nil {
		return types.ClusterView{}, m.clusterErr
	}
	v := m.view
	v.Zoom = zoom
	return v, nil
}

func (m *mockDeps) ClusterAdhoc(_ context.Context, events []model.Event, p cluster.Params) (cluster.Result, error) {
	m.gotParams = p
	if err := p.Validate(); err != nil {
		return cluster.Result{}, err
	}
	return cluster.Events(events, p)
}

func (m *mockDeps) Recommend(_ context.Context, q types.RecommendQuery) (recommend.Result, error) {
	m.gotQuery = q
	if err := validate.Profile(&q.Profile); err != nil {
		return recommend.Result{}, err
	}
	return m.recommend, nil
}

func (m *mockDeps) EstimateImpact(_ context.Context, ev model.Event) (impact.Metrics, error) {
	return impact.New().Estimate(&ev), nil
}

func (m *mockDeps) Impact(_ context.Context, id string) (impact.Metrics, error) {
	if m.impactErr != nil {
		return impact.Metrics{}, m.impactErr
	}
	out := m.metrics
	out.EventID = id
	return out, nil
}

func (m *mockDeps) ImpactRank(context.Context, string) (types.Entry, error) { return m.entry, nil }

func (m *mockDeps) ImpactTop(_ context.Context, n int) ([]types.Entry, error) {
	m.gotLimit = n
	return m.top, nil
}

func (m *mockDeps) ImpactSummary(context.Context) (impact.Summary, error) { return m.summary, nil }

func (m *mockDeps) Stats() types.Stats { return m.stats }

func pair() types.ClusterView {
	res, err := cluster.Events([]model.Event{
		{ID: "a", Location: model.Coordinate{Lat: 52.52, Lng: 13.405}, Category: model.CategoryEnvironment},
		{ID: "b", Location: model.Coordinate{Lat: 52.525, Lng: 13.405}, Category: model.CategoryEnvironment},
		{ID: "c", Location: model.Coordinate{Lat: 48.1351, Lng: 11.582}},
	}, cluster.Params{EpsKm: 2, MinPts: 2})
	if err != nil {
		panic(err)
	}
	return types.ClusterView{Version: 2, Band: cluster.BandStreet, Cached: true, Result: res}
}

func serve(deps api.Dependencies, method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	api.NewServer(deps, api.WithLogger(logger.Nop())).Router().ServeHTTP(w, req)
	return w
}

func decodeBody(w *httptest.ResponseRecorder) map[string]any {
	var m map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &m), ShouldBeNil)
	return m
}

func TestEventsRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{upload: types.Upload{Version: 4, Accepted: 1, Scheduled: true, JobID: "job"}}

		Convey("When events are uploaded with an idempotency key", func() {
			w := serve(deps, http.MethodPut, "/events", `{"events":[{"id":"a","location":{"lat":1,"lng":2}}]}`,
				api.IdempotencyHeader, "k-1")

			Convey("Then the snapshot is replaced and 202 returned", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.gotKey, ShouldEqual, "k-1")
				So(len(deps.gotEvents), ShouldEqual, 1)
				So(deps.gotEvents[0].Location.Lng, ShouldEqual, 2)
				So(decodeBody(w)["version"], ShouldEqual, 4)
			})
		})

		Convey("When the upload is a duplicate", func() {
			deps.upload.Duplicate = true
			w := serve(deps, http.MethodPut, "/events", `{"events":[]}`)

			Convey("Then 200 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the body is not JSON", func() {
			w := serve(deps, http.MethodPut, "/events", `{`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeBody(w)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the snapshot is too large", func() {
			deps.uploadErr = fmt.Errorf("%w: 11 exceeds 10", types.ErrTooManyEvents)
			w := serve(deps, http.MethodPut, "/events", `{"events":[]}`)

			Convey("Then 413 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusRequestEntityTooLarge)
			})
		})

		Convey("When the service is not running", func() {
			deps.uploadErr = types.ErrNotStarted
			w := serve(deps, http.MethodPut, "/events", `{"events":[]}`)

			Convey("Then 503 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When the events are listed", func() {
			w := serve(deps, http.MethodGet, "/events", "")

			Convey("Then the snapshot is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["version"], ShouldEqual, 3)
			})
		})

		Convey("When an unsupported method is used", func() {
			w := serve(deps, http.MethodDelete, "/events", "")

			Convey("Then 405 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestClusterRoutes(t *testing.T) {
	Convey("Given an API server with a cached clustering", t, func() {
		deps := &mockDeps{view: pair()}

		Convey("When clusters are requested for a zoom", func() {
			w := serve(deps, http.MethodGet, "/clusters?zoom=13", "")

			Convey("Then clusters carry their marker style", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["band"], ShouldEqual, "street")
				So(body["zoom"], ShouldEqual, 13)
				So(body["cached"], ShouldEqual, true)
				clusters := body["clusters"].([]any)
				So(len(clusters), ShouldEqual, 1)
				c := clusters[0].(map[string]any)
				So(c["member_ids"], ShouldResemble, []any{"a", "b"})
				style := c["style"].(map[string]any)
				So(style["size"], ShouldEqual, string(cluster.SizeSmall))
				So(style["color"], ShouldEqual, cluster.Color(model.CategoryEnvironment))
				So(len(body["unclustered"].([]any)), ShouldEqual, 1)
			})
		})

		Convey("When the zoom is missing or malformed", func() {
			So(serve(deps, http.MethodGet, "/clusters", "").Code, ShouldEqual, http.StatusBadRequest)
			So(serve(deps, http.MethodGet, "/clusters?zoom=far", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the service rejects the zoom", func() {
			deps.clusterErr = fmt.Errorf("%w: -1", types.ErrInvalidZoom)
			w := serve(deps, http.MethodGet, "/clusters?zoom=-1", "")

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When GeoJSON is requested", func() {
			w := serve(deps, http.MethodGet, "/clusters.geojson?zoom=13", "")

			Convey("Then a feature collection of clusters and noise is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/geo+json")
				So(w.Header().Get("X-Snapshot-Version"), ShouldEqual, "2")
				body := decodeBody(w)
				So(body["type"], ShouldEqual, "FeatureCollection")
				So(len(body["features"].([]any)), ShouldEqual, 2)
			})
		})

		Convey("When ad hoc events are clustered with explicit params", func() {
			w := serve(deps, http.MethodPost, "/clusters",
				`{"eps_km":5,"min_pts":2,"events":[{"id":"a","location":{"lat":52.52,"lng":13.405}},{"id":"b","location":{"lat":52.525,"lng":13.405}}]}`)

			Convey("Then the pair forms a cluster", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotParams, ShouldResemble, cluster.Params{EpsKm: 5, MinPts: 2})
				So(len(decodeBody(w)["clusters"].([]any)), ShouldEqual, 1)
			})
		})

		Convey("When ad hoc events are clustered by zoom", func() {
			w := serve(deps, http.MethodPost, "/clusters", `{"zoom":9,"events":[]}`)

			Convey("Then the zoom policy picks the params", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotParams, ShouldResemble, cluster.ParamsForZoom(9))
			})
		})

		Convey("When neither zoom nor params are given", func() {
			w := serve(deps, http.MethodPost, "/clusters", `{"events":[]}`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When params fail validation", func() {
			w := serve(deps, http.MethodPost, "/clusters", `{"eps_km":-1,"min_pts":2,"events":[]}`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestRecommendationRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{recommend: recommend.Result{
			Items:      []recommend.ScoredEvent{{Event: model.Event{ID: "a"}, Score: 90, Reasons: []string{"Free to attend"}}},
			Considered: 4,
		}}

		Convey("When recommendations are requested", func() {
			w := serve(deps, http.MethodPost, "/recommendations",
				`{"profile":{"location":{"lat":1,"lng":1},"max_distance_km":10},"top_n":3,"threshold":20}`)

			Convey("Then the query is forwarded and the ranking returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotQuery.TopN, ShouldEqual, 3)
				So(*deps.gotQuery.Threshold, ShouldEqual, 20)
				So(deps.gotQuery.Profile.MaxDistanceKm, ShouldEqual, 10)
				body := decodeBody(w)
				So(body["considered"], ShouldEqual, 4)
				So(len(body["items"].([]any)), ShouldEqual, 1)
			})
		})

		Convey("When defaults are left out", func() {
			w := serve(deps, http.MethodPost, "/recommendations",
				`{"profile":{"location":{"lat":1,"lng":1},"max_distance_km":10}}`)

			Convey("Then the server defaults apply", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotQuery.TopN, ShouldEqual, 0)
				So(deps.gotQuery.Threshold, ShouldBeNil)
			})
		})

		Convey("When the profile is invalid", func() {
			w := serve(deps, http.MethodPost, "/recommendations",
				`{"profile":{"location":{"lat":100,"lng":1},"max_distance_km":10}}`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestImpactRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{
			metrics: impact.Metrics{OverallScore: 64, Band: "High"},
			entry:   types.Entry{Rank: 2, EventID: "a", Score: 64, Band: "High"},
			top:     []types.Entry{{Rank: 1, EventID: "b", Score: 90}, {Rank: 2, EventID: "a", Score: 64}},
			summary: impact.Summary{Events: 2, VolunteerHours: 12},
		}

		Convey("When one event's impact is requested", func() {
			w := serve(deps, http.MethodGet, "/impact/a", "")

			Convey("Then metrics and rank are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["event_id"], ShouldEqual, "a")
				So(body["band"], ShouldEqual, "High")
				So(body["rank"], ShouldEqual, 2)
			})
		})

		Convey("When the event is unknown", func() {
			deps.impactErr = fmt.Errorf("%w: zz", types.ErrEventNotFound)
			w := serve(deps, http.MethodGet, "/impact/zz", "")

			Convey("Then 404 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeBody(w)["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the leaderboard is requested", func() {
			w := serve(deps, http.MethodGet, "/impact/leaderboard?limit=2", "")

			Convey("Then entries are returned in rank order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 2)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldResemble, deps.top)
			})

			Convey("Then a missing limit uses the default", func() {
				So(serve(deps, http.MethodGet, "/impact/leaderboard", "").Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 10)
			})

			Convey("Then a bad limit is rejected", func() {
				So(serve(deps, http.MethodGet, "/impact/leaderboard?limit=0", "").Code, ShouldEqual, http.StatusBadRequest)
				So(serve(deps, http.MethodGet, "/impact/leaderboard?limit=x", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the summary is requested", func() {
			w := serve(deps, http.MethodGet, "/impact/summary", "")

			Convey("Then totals are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decodeBody(w)["volunteer_hours"], ShouldEqual, 12)
			})
		})

		Convey("When an ad hoc event is estimated", func() {
			w := serve(deps, http.MethodPost, "/impact",
				`{"event":{"id":"x","location":{"lat":1,"lng":1},"category":"environment","duration_hours":2,"capacity":10,"current_registrations":5}}`)

			Convey("Then its metrics are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["event_id"], ShouldEqual, "x")
				So(body["volunteer_hours"], ShouldEqual, 10)
			})
		})

		Convey("When the ad hoc event has a bad coordinate", func() {
			w := serve(deps, http.MethodPost, "/impact", `{"event":{"id":"x","location":{"lat":1,"lng":500}}}`)

			Convey("Then 400 is returned", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given an API server", t, func() {
		deps := &mockDeps{stats: types.Stats{SnapshotVersion: 7, WorkerCount: 2}}

		Convey("When stats are requested", func() {
			w := serve(deps, http.MethodGet, "/stats", "")

			Convey("Then the service stats are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decodeBody(w)
				So(body["snapshot_version"], ShouldEqual, 7)
				So(body["worker_count"], ShouldEqual, 2)
			})
		})

		Convey("When the health endpoint is scraped", func() {
			w := serve(deps, http.MethodGet, "/healthz", "")

			Convey("Then it answers with the metrics exposition", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When a route does not exist", func() {
			So(serve(deps, http.MethodGet, "/nope", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestErrors(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")

		Convey("Then kinds and causes are both visible to errors.Is", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		})

		Convey("Then Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
			So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
		})

		Convey("Then NewKind carries only the kind", func() {
			err := api.NewKind("api.op", api.ErrNotFound)
			So(errors.Is(err, api.ErrNotFound), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: not found")
		})
	})
}
