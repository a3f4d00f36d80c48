package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/internal/domain/validate"
)

type styledCluster struct {
	cluster.Cluster
	Style cluster.Style `json:"style"`
}

// clustersResponse is the body of GET and POST /clusters.
type clustersResponse struct {
	Version     uint64               `json:"version,omitempty"`
	Zoom        *float64             `json:"zoom,omitempty"`
	Band        cluster.Band         `json:"band,omitempty"`
	Cached      bool                 `json:"cached"`
	Params      cluster.Params       `json:"params"`
	Clusters    []styledCluster      `json:"clusters"`
	Unclustered []model.Event        `json:"unclustered"`
	Diagnostics validate.Diagnostics `json:"diagnostics,omitempty"`
}

func newClustersResponse(res *cluster.Result) clustersResponse {
	out := clustersResponse{
		Params:      res.Params,
		Clusters:    make([]styledCluster, len(res.Clusters)),
		Unclustered: res.Unclustered,
		Diagnostics: res.Diagnostics,
	}
	for i := range res.Clusters {
		out.Clusters[i] = styledCluster{Cluster: res.Clusters[i], Style: cluster.StyleFor(&res.Clusters[i])}
	}
	return out
}

func fromView(v *types.ClusterView) clustersResponse {
	out := newClustersResponse(&v.Result)
	out.Version = v.Version
	out.Zoom = &v.Zoom
	out.Band = v.Band
	out.Cached = v.Cached
	return out
}

// clusterRequest mirrors the OpenAPI schema for POST /clusters. Either zoom
// or both eps_km and min_pts must be set.
type clusterRequest struct {
	Events []model.Event `json:"events"`
	Zoom   *float64      `json:"zoom,omitempty" validate:"omitempty,gte=0"`
	EpsKm  *float64      `json:"eps_km,omitempty" validate:"omitempty,gt=0"`
	MinPts *int          `json:"min_pts,omitempty" validate:"omitempty,gte=1"`
}

func (c *clusterRequest) params() (cluster.Params, error) {
	switch {
	case c.EpsKm != nil && c.MinPts != nil:
		return cluster.Params{EpsKm: *c.EpsKm, MinPts: *c.MinPts}, nil
	case c.Zoom != nil:
		return cluster.ParamsForZoom(*c.Zoom), nil
	default:
		return cluster.Params{}, errors.New("set zoom or both eps_km and min_pts")
	}
}

func zoomParam(r *http.Request, op string) (float64, error) {
	raw := r.URL.Query().Get("zoom")
	if raw == "" {
		return 0, NewKind(op, ErrBadRequest)
	}
	zoom, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, WrapKind(op, ErrBadRequest, err)
	}
	return zoom, nil
}

// handleGetClusters handles GET /clusters?zoom=Z.
func (s *Server) handleGetClusters(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clusters"
	zoom, err := zoomParam(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.deps.Clusters(r.Context(), zoom)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, fromView(&view))
}

// handleGetClustersGeoJSON handles GET /clusters.geojson?zoom=Z.
func (s *Server) handleGetClustersGeoJSON(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_clusters_geojson"
	zoom, err := zoomParam(r, op)
	if err != nil {
		writeError(w, err)
		return
	}
	view, err := s.deps.Clusters(r.Context(), zoom)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	b, err := cluster.FeatureCollection(&view.Result).MarshalJSON()
	if err != nil {
		writeError(w, WrapKind(op, ErrInternal, err))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Snapshot-Version", strconv.FormatUint(view.Version, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// handlePostClusters handles POST /clusters for caller-supplied events.
func (s *Server) handlePostClusters(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_clusters"
	var req clusterRequest
	if err := s.decode(w, r, op, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := req.params()
	if err != nil {
		writeError(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	res, err := s.deps.ClusterAdhoc(r.Context(), req.Events, p)
	if err != nil {
		writeError(w, Wrap(op, err))
		return
	}
	out := newClustersResponse(&res)
	out.Zoom = req.Zoom
	writeJSON(w, http.StatusOK, out)
}
