package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SyncItem is one truck's merged values sent to the fleet API.
type SyncItem struct {
	TruckID string         `json:"truck_id"`
	Number  string         `json:"number"`
	Values  map[string]any `json:"values"`
}

// Syncer pushes merged values to a remote service.
type Syncer interface {
	Sync(ctx context.Context, items []SyncItem) error
}

// BuildSyncBatch joins store with the roster. Stored numbers that are no
// longer on the roster have no remote id and are left out.
func BuildSyncBatch(kind ImportKind, store *Store, roster []RosterEntry) []SyncItem {
	items := make([]SyncItem, 0, store.Len())
	for _, e := range roster {
		p, ok := store.Get(e.Number)
		if !ok || e.ID == "" {
			continue
		}
		values := kind.Merge.Values(p)
		if len(values) == 0 {
			continue
		}
		items = append(items, SyncItem{TruckID: e.ID, Number: e.Number, Values: values})
	}
	return items
}

// SyncBestEffort runs one sync and turns any failure into a warning string.
// An empty string means the sync succeeded or there was nothing to send.
func SyncBestEffort(ctx context.Context, syncer Syncer, items []SyncItem) string {
	if syncer == nil || len(items) == 0 {
		return ""
	}
	if err := syncer.Sync(ctx, items); err != nil {
		log.Printf("sync: %v", err)
		return err.Error()
	}
	return ""
}

// SyncStatus tracks a background sync started by an import session.
type SyncStatus struct {
	done    chan struct{}
	warning string
}

func startSync(ctx context.Context, syncer Syncer, items []SyncItem, timeout time.Duration) *SyncStatus {
	st := &SyncStatus{done: make(chan struct{})}
	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(st.done)
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		st.warning = SyncBestEffort(ctx, syncer, items)
	}()
	return st
}

// Wait blocks until the sync finished and returns its warning, if any.
// A nil status means no sync was started.
func (s *SyncStatus) Wait() string {
	if s == nil {
		return ""
	}
	<-s.done
	return s.warning
}

// Done reports whether the sync has finished without blocking.
func (s *SyncStatus) Done() bool {
	if s == nil {
		return true
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// HTTPSyncer PATCHes each truck at {BaseURL}/trucks/{id} with its values
// as a JSON body. Requests run concurrently up to Concurrency; every failure
// is collected into a *SyncError and nothing is retried.
type HTTPSyncer struct {
	BaseURL     string
	Token       string
	Concurrency int
	Client      *http.Client
}

func (h *HTTPSyncer) Sync(ctx context.Context, items []SyncItem) error {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := h.Concurrency
	if limit < 1 {
		limit = 1
	}

	var (
		mu       sync.Mutex
		failures []string
	)
	var g errgroup.Group
	g.SetLimit(limit)
	for _, item := range items {
		g.Go(func() error {
			if err := h.patchTruck(ctx, client, item); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Sprintf("truck %s: %v", item.Number, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return &SyncError{Failures: failures}
	}
	return nil
}

func (h *HTTPSyncer) patchTruck(ctx context.Context, client *http.Client, item SyncItem) error {
	body, err := json.Marshal(item.Values)
	if err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	endpoint := strings.TrimRight(h.BaseURL, "/") + "/trucks/" + url.PathEscape(item.TruckID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if text := strings.TrimSpace(string(msg)); text != "" {
			return fmt.Errorf("%s: %s", resp.Status, text)
		}
		return fmt.Errorf("%s", resp.Status)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
