package collections

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/collectdesk/collectdesk/internal/shared"
	"github.com/collectdesk/collectdesk/internal/upstream"
)

func newAuthedSession(t *testing.T) *shared.Session {
	t.Helper()
	sm := shared.NewSessionManager(nil, "collectdesk_session", "test-secret", time.Hour, false)
	sess, err := sm.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetIdentity(shared.Identity{Partner: "acme", Actor: "ops"})
	sess.Set(shared.SessionKeyToken, "tok")
	return sess
}

func newHandlerRouter(client ListClient) (chi.Router, *ViewRegistry) {
	registry := NewViewRegistry(client, testLogger())
	h := NewHandler(testLogger(), registry, nil)
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r, registry
}

func doRequest(r chi.Router, sess *shared.Session, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresSession(t *testing.T) {
	r, _ := newHandlerRouter(&fakeListClient{})
	rec := doRequest(r, nil, http.MethodGet, "/", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListReturnsPageAndApplied(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{{
		Data:  []upstream.Collection{{ID: "c-1", CustomerName: "Ram"}},
		Total: 47,
	}}}
	r, _ := newHandlerRouter(client)
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Records, 1)
	require.Equal(t, 5, resp.Pagination.TotalPages)
	require.Equal(t, ApprovalPendingOnly, resp.Applied.Approved)

	// Applied criteria are mirrored into the session for restarts.
	require.NotEmpty(t, sess.Get("filters:approvals"))

	// The default queue only requests pending records.
	require.Equal(t, "false", client.calls[0].Get("approved"))
	require.Equal(t, "acme", client.calls[0].Get("partner"))
}

func TestListClampsRequestedPage(t *testing.T) {
	client := &fakeListClient{responses: []*upstream.ListResponse{
		{Data: []upstream.Collection{{ID: "c-1"}}, Total: 47},
		{Data: []upstream.Collection{{ID: "c-2"}}, Total: 47},
	}}
	r, _ := newHandlerRouter(client)
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, sess, http.MethodGet, "/?page=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5", client.calls[1].Get("page"))

	rec = doRequest(r, sess, http.MethodGet, "/?page=zero", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFilterLifecycleOverHTTP(t *testing.T) {
	r, _ := newHandlerRouter(&fakeListClient{})
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodPut, "/filter", `{"customerName":"ram","startDate":"2026-01-01","endDate":"2026-01-31"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp filterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ram", resp.Draft.CustomerName)
	require.Equal(t, "", resp.Applied.CustomerName)

	rec = doRequest(r, sess, http.MethodPost, "/filter/apply", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "ram", resp.Applied.CustomerName)
	require.Equal(t, 1, resp.Applied.Page)

	rec = doRequest(r, sess, http.MethodPost, "/filter/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "", resp.Applied.CustomerName)
	require.Equal(t, ApprovalPendingOnly, resp.Applied.Approved)
}

func TestUpdateDraftRejectsBadDates(t *testing.T) {
	r, _ := newHandlerRouter(&fakeListClient{})
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodPut, "/filter", `{"startDate":"31-01-2026"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(r, sess, http.MethodPut, "/filter", `{"startDate":"2026-02-10","endDate":"2026-02-01"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiscardDropsDraftEdits(t *testing.T) {
	r, _ := newHandlerRouter(&fakeListClient{})
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodPut, "/filter", `{"customerName":"abandoned"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, sess, http.MethodPost, "/filter/discard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp filterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "", resp.Draft.CustomerName)
}

func TestParseSurface(t *testing.T) {
	require.Equal(t, SurfaceListing, ParseSurface("listing"))
	require.Equal(t, SurfaceApprovals, ParseSurface("approvals"))
	require.Equal(t, SurfaceApprovals, ParseSurface(""))
	require.Equal(t, SurfaceApprovals, ParseSurface("bogus"))
}

func TestSurfacesKeepIndependentFilters(t *testing.T) {
	r, _ := newHandlerRouter(&fakeListClient{})
	sess := newAuthedSession(t)

	rec := doRequest(r, sess, http.MethodPut, "/filter?surface=listing", `{"customerName":"ram"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(r, sess, http.MethodPost, "/filter/apply?surface=listing", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, sess, http.MethodGet, "/filter", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp filterResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "", resp.Applied.CustomerName)
	require.Equal(t, ApprovalPendingOnly, resp.Applied.Approved)
}
