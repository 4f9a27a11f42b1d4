// internal/gateway/gateway.go
//
// Package gateway owns every exchange with the spreadsheet-backed web
// endpoint: snapshot reads, fire-and-forget submission writes, and
// branch password registration. The process works from its in-memory
// snapshot at all times; the remote is only ever a best-effort sync
// target.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"smartstore-assistant/internal/common/config"
	"smartstore-assistant/internal/common/database"
	"smartstore-assistant/internal/common/errors"
	"smartstore-assistant/internal/common/httpx"
	"smartstore-assistant/internal/common/logger"
	"smartstore-assistant/internal/common/metrics"
	"smartstore-assistant/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// contentType matches what the Apps Script endpoint accepts without a
// CORS preflight. The body is still JSON.
const contentType = "text/plain;charset=utf-8"

type Gateway struct {
	endpoint string
	timeout  time.Duration
	client   *httpx.Client
	cache    *snapshotCache
	schema   *gojsonschema.Schema
	log      logger.Logger

	mu   sync.RWMutex
	snap models.Snapshot

	refreshMu sync.Mutex
	refresh   *time.Timer
}

// New builds the gateway. redisClient may be nil, in which case snapshot
// caching is disabled and restarts begin from an empty snapshot.
func New(sheetCfg config.SheetConfig, syncCfg config.SyncConfig, redisClient *database.RedisClient, log logger.Logger) (*Gateway, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(snapshotSchema))
	if err != nil {
		return nil, fmt.Errorf("compile snapshot schema: %w", err)
	}
	return &Gateway{
		endpoint: sheetCfg.Endpoint,
		timeout:  sheetCfg.Timeout(),
		client:   httpx.NewClient(sheetCfg.Timeout()),
		cache:    newSnapshotCache(redisClient, syncCfg.CacheTTLDuration()),
		schema:   schema,
		log:      log.WithFields(map[string]interface{}{"component": "gateway"}),
	}, nil
}

// Snapshot returns the current in-memory snapshot. Callers treat the
// contained slices as read-only.
func (g *Gateway) Snapshot() models.Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.snap
}

// FetchSnapshot pulls the remote snapshot and merges it into the
// in-memory one. Keys absent from the response leave the corresponding
// local data unchanged; any failure keeps the previous snapshot entirely.
// When the process has no snapshot yet and a cache is configured, a
// failed fetch falls back to the last cached snapshot.
func (g *Gateway) FetchSnapshot(ctx context.Context) error {
	timer := time.Now()
	body, err := g.get(ctx)
	metrics.RemoteCallDuration.WithLabelValues("fetch_snapshot").Observe(time.Since(timer).Seconds())
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		g.log.WithError(err).Warn("snapshot fetch failed, keeping previous data", nil)
		g.restoreFromCache(ctx)
		return errors.NewSnapshotFetchError(err)
	}

	payload, err := g.decodeSnapshot(body)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("invalid").Inc()
		g.log.WithError(err).Warn("snapshot response rejected, keeping previous data", nil)
		g.restoreFromCache(ctx)
		return errors.NewSnapshotFetchError(err)
	}

	g.merge(payload)
	metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()

	if g.cache != nil {
		if err := g.cache.Save(ctx, g.Snapshot()); err != nil {
			g.log.WithError(err).Warn("snapshot cache write failed", nil)
		}
	}

	g.mu.RLock()
	fields := map[string]interface{}{
		"branches":     len(g.snap.Branches),
		"salespersons": len(g.snap.Salespersons),
		"history":      len(g.snap.History),
	}
	g.mu.RUnlock()
	g.log.Info("snapshot refreshed", fields)
	return nil
}

// SubmitRecord posts one application record. The caller has already
// persisted the record locally; a remote failure is reported but changes
// nothing about the submission.
func (g *Gateway) SubmitRecord(ctx context.Context, r models.ApplicationRecord, isNewSalesperson bool) error {
	payload := submitPayload{
		BranchName:       r.BranchName,
		BranchRep:        r.BranchRep,
		SalesPassword:    r.SalesPassword,
		BranchPhone:      r.BranchPhone,
		BusinessName:     r.BusinessName,
		RepName:          r.RepName,
		PhoneNumber:      r.PhoneNumber,
		Address:          r.Address,
		StoreID:          r.StoreID,
		StorePW:          r.StorePW,
		Date:             r.Date,
		IsNewSalesperson: isNewSalesperson,
	}
	if err := g.post(ctx, "submit_record", payload); err != nil {
		metrics.SubmissionsTotal.WithLabelValues("remote_error").Inc()
		return errors.NewRemoteCallError("submit record", err)
	}
	metrics.SubmissionsTotal.WithLabelValues("sent").Inc()
	return nil
}

// RegisterBranchPassword posts a branch password registration. It does
// not touch the in-memory snapshot; the new password becomes visible on
// the next refresh.
func (g *Gateway) RegisterBranchPassword(ctx context.Context, branchName, password string) error {
	payload := registerPayload{
		Type:       "registerBranchPassword",
		BranchName: branchName,
		Password:   password,
	}
	if err := g.post(ctx, "register_branch_password", payload); err != nil {
		return errors.NewRemoteCallError("register branch password", err)
	}
	g.log.Info("branch password registration sent", map[string]interface{}{"branch": branchName})
	return nil
}

// ScheduleRefresh runs FetchSnapshot once after the given delay,
// replacing any refresh still pending. The delay gives the sheet time to
// materialize a just-posted row before it is read back.
func (g *Gateway) ScheduleRefresh(delay time.Duration) {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()

	if g.refresh != nil {
		g.refresh.Stop()
	}
	g.refresh = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
		defer cancel()
		// Errors are already logged and counted inside FetchSnapshot.
		_ = g.FetchSnapshot(ctx)
	})
}

// Close stops any pending scheduled refresh.
func (g *Gateway) Close() {
	g.refreshMu.Lock()
	defer g.refreshMu.Unlock()
	if g.refresh != nil {
		g.refresh.Stop()
		g.refresh = nil
	}
}

func (g *Gateway) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (g *Gateway) post(ctx context.Context, operation string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	timer := time.Now()
	resp, err := g.client.Do(req)
	metrics.RemoteCallDuration.WithLabelValues(operation).Observe(time.Since(timer).Seconds())
	if err != nil {
		return fmt.Errorf("call endpoint: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *Gateway) decodeSnapshot(body []byte) (snapshotPayload, error) {
	result, err := g.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return snapshotPayload{}, fmt.Errorf("validate snapshot: %w", err)
	}
	if !result.Valid() {
		return snapshotPayload{}, fmt.Errorf("snapshot shape invalid: %s", result.Errors()[0].String())
	}

	var payload snapshotPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return snapshotPayload{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return payload, nil
}

func (g *Gateway) merge(payload snapshotPayload) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if payload.Branches != nil {
		g.snap.Branches = *payload.Branches
	}
	if payload.Salespersons != nil {
		roster := make([]models.Salesperson, 0, len(*payload.Salespersons))
		for _, w := range *payload.Salespersons {
			roster = append(roster, w.toModel())
		}
		g.snap.Salespersons = roster
	}
	if payload.History != nil {
		history := make([]models.ApplicationRecord, 0, len(*payload.History))
		for _, w := range *payload.History {
			history = append(history, w.toModel())
		}
		g.snap.History = history
	}
	if payload.BranchAuth != nil {
		auth := make([]models.BranchAuth, 0, len(*payload.BranchAuth))
		for _, w := range *payload.BranchAuth {
			auth = append(auth, w.toModel())
		}
		g.snap.BranchAuth = auth
	}
}

// restoreFromCache fills an empty in-memory snapshot from the cache after
// a failed fetch. A non-empty snapshot is never overwritten by the cache.
func (g *Gateway) restoreFromCache(ctx context.Context) {
	if g.cache == nil {
		return
	}
	g.mu.RLock()
	empty := len(g.snap.Branches) == 0 && len(g.snap.Salespersons) == 0 &&
		len(g.snap.History) == 0 && len(g.snap.BranchAuth) == 0
	g.mu.RUnlock()
	if !empty {
		return
	}

	snap, ok, err := g.cache.Load(ctx)
	if err != nil {
		g.log.WithError(err).Warn("snapshot cache read failed", nil)
		return
	}
	if !ok {
		return
	}
	g.mu.Lock()
	g.snap = snap
	g.mu.Unlock()
	metrics.SnapshotRefreshes.WithLabelValues("cache_restore").Inc()
	g.log.Info("snapshot restored from cache", nil)
}
