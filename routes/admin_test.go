package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	count    int
	countErr error

	mu      sync.Mutex
	runs    int
	release chan struct{}
}

func (f *fakeAdmin) Count(context.Context) (int, error) {
	return f.count, f.countErr
}

func (f *fakeAdmin) Reindex(context.Context) (*ingest.Result, error) {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	if f.release != nil {
		<-f.release
	}
	return &ingest.Result{RunID: "r1", Indexed: 2}, nil
}

func (f *fakeAdmin) runCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runs
}

type fakeEnqueuer struct {
	taskID string
	err    error
	reason string
}

func (f *fakeEnqueuer) EnqueueReindex(_ context.Context, reason, _ string) (string, error) {
	f.reason = reason
	return f.taskID, f.err
}

var adminCfg = &config.Config{VectorStore: "sqlite", VectorCollection: "erp_docs"}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestIndexStats(t *testing.T) {
	r := gin.New()
	SetupAdminRoutes(r, adminCfg, &fakeAdmin{count: 42}, nil)

	w := serve(r, http.MethodGet, "/admin/index/stats")

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.IndexStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 42, stats.Documents)
	assert.Equal(t, "sqlite", stats.Store)
	assert.Equal(t, "erp_docs", stats.Collection)
}

func TestIndexStats_StoreDown(t *testing.T) {
	r := gin.New()
	SetupAdminRoutes(r, adminCfg, &fakeAdmin{countErr: errors.New("closed")}, nil)

	w := serve(r, http.MethodGet, "/admin/index/stats")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReindex_Enqueued(t *testing.T) {
	enq := &fakeEnqueuer{taskID: "task-1"}
	r := gin.New()
	SetupAdminRoutes(r, adminCfg, &fakeAdmin{}, enq)

	w := serve(r, http.MethodPost, "/admin/reindex")

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.JSONEq(t, `{"status": "queued", "task_id": "task-1"}`, w.Body.String())
	assert.Equal(t, "admin", enq.reason)

	enq.taskID = ""
	w = serve(r, http.MethodPost, "/admin/reindex")
	assert.JSONEq(t, `{"status": "already_queued"}`, w.Body.String())

	enq.err = errors.New("redis down")
	w = serve(r, http.MethodPost, "/admin/reindex")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReindex_InProcessOneAtATime(t *testing.T) {
	admin := &fakeAdmin{release: make(chan struct{})}
	r := gin.New()
	SetupAdminRoutes(r, adminCfg, admin, nil)

	w := serve(r, http.MethodPost, "/admin/reindex")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Eventually(t, func() bool { return admin.runCount() == 1 }, time.Second, 5*time.Millisecond)

	w = serve(r, http.MethodPost, "/admin/reindex")
	assert.Equal(t, http.StatusConflict, w.Code)

	close(admin.release)
	assert.Eventually(t, func() bool {
		return serve(r, http.MethodPost, "/admin/reindex").Code == http.StatusAccepted
	}, time.Second, 5*time.Millisecond)
}
