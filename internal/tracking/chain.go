// Package tracking records custody events as a chain of content-addressed
// snapshots.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/content"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/metadata"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
	"github.com/Yuvraj-Singh-HIT/VeriChain/pkg/logger"
	"github.com/Yuvraj-Singh-HIT/VeriChain/prometheus"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// DefaultRecentLimit bounds the global event listing.
const DefaultRecentLimit = 100

var ErrProductNotFound = errors.New("tracking: product not found")

// Events is the persistence the chain needs.
type Events interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	AppendEvent(ctx context.Context, ev *model.TrackingEvent, upd model.ProductUpdate) (string, error)
	ListEvents(ctx context.Context, productID string) ([]model.TrackingEvent, error)
	RecentEvents(ctx context.Context, limit int) ([]model.TrackingEvent, error)
}

// Snapshots stores event snapshots.
type Snapshots interface {
	Put(ctx context.Context, data []byte) (content.PutResult, error)
}

// Input is a custody event to record.
type Input struct {
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
	Actor     string `json:"actor"`
	Role      string `json:"role"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
	TxHash    string `json:"tx_hash"`
}

// Recorded is the outcome of Chain.Record.
type Recorded struct {
	EventID           string
	PreviousContentID string
	NewContentID      string
	MetadataHash      string
	ContentMode       content.Mode
	// Forked is set when another writer moved the chain head between this
	// writer's read and its commit.
	Forked bool
}

// Fork is a content id with more than one successor event.
type Fork struct {
	ContentID  string   `json:"content_id"`
	Successors []string `json:"successor_event_ids"`
}

// Chain appends custody events to per-product snapshot chains. Writers are
// not serialized; forks are detected, logged and counted.
type Chain struct {
	events    Events
	snapshots Snapshots
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewChain creates a Chain. A nil publisher disables publishing.
func NewChain(events Events, snapshots Snapshots, publisher Publisher, logger *zap.Logger) *Chain {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Chain{
		events:    events,
		snapshots: snapshots,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Record stores a snapshot for the event, chained to the product's current
// head, and commits the event together with the product update.
func (c *Chain) Record(ctx context.Context, in Input) (*Recorded, error) {
	log := logger.FromCtx(ctx, c.logger)

	product, err := c.events.GetProduct(ctx, in.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load product: %w", err)
	}

	at := c.now()
	previous := product.CurrentContentID()
	snap := metadata.EventSnapshot(product.ID, product.SerialNumber, product.BatchID,
		in.Action, in.Actor, in.Role, in.Location, in.Notes, previous, at)

	raw, hash, err := metadata.Hash(snap)
	if err != nil {
		return nil, fmt.Errorf("canonicalize snapshot: %w", err)
	}
	stored, err := c.snapshots.Put(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	var prev *string
	if previous != "" {
		prev = &previous
	}
	ev := &model.TrackingEvent{
		ProductID:         product.ID,
		Action:            in.Action,
		Actor:             in.Actor,
		Role:              in.Role,
		Location:          in.Location,
		Notes:             in.Notes,
		TxHash:            in.TxHash,
		Timestamp:         at,
		PreviousContentID: prev,
		NewContentID:      stored.ID,
		MetadataHash:      hash,
		ContentMode:       string(stored.Mode),
		Snapshot:          datatypes.JSON(raw),
	}

	replaced, err := c.events.AppendEvent(ctx, ev, model.ProductUpdate{
		Status:          in.Action,
		CurrentLocation: in.Location,
		LastUpdated:     at,
		LatestContentID: stored.ID,
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	rec := &Recorded{
		EventID:           ev.ID,
		PreviousContentID: previous,
		NewContentID:      stored.ID,
		MetadataHash:      hash,
		ContentMode:       stored.Mode,
		Forked:            replaced != previous,
	}
	if rec.Forked {
		prometheus.RecordChainFork()
		log.Warn("Custody chain forked",
			zap.String("product_id", product.ID),
			zap.String("event_id", ev.ID),
			zap.String("previous_cid", previous),
			zap.String("replaced_cid", replaced))
	}
	prometheus.RecordProductOperation("tracking_event")

	if err := c.publisher.Publish(ctx, *ev); err != nil {
		log.Warn("Failed to publish tracking event", zap.String("event_id", ev.ID), zap.Error(err))
	}
	return rec, nil
}

// History returns a product's events ascending by timestamp.
func (c *Chain) History(ctx context.Context, productID string) ([]model.TrackingEvent, error) {
	if _, err := c.events.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return c.events.ListEvents(ctx, productID)
}

// Recent returns the latest events across all products, most recent first.
// A non-positive limit means DefaultRecentLimit.
func (c *Chain) Recent(ctx context.Context, limit int) ([]model.TrackingEvent, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return c.events.RecentEvents(ctx, limit)
}

// Forks lists the content ids of a product that more than one event chained
// from, in chain order.
func (c *Chain) Forks(ctx context.Context, productID string) ([]Fork, error) {
	events, err := c.History(ctx, productID)
	if err != nil {
		return nil, err
	}

	successors := make(map[string][]string)
	var order []string
	for _, ev := range events {
		if ev.PreviousContentID == nil {
			continue
		}
		prev := *ev.PreviousContentID
		if _, seen := successors[prev]; !seen {
			order = append(order, prev)
		}
		successors[prev] = append(successors[prev], ev.ID)
	}

	forks := []Fork{}
	for _, cid := range order {
		if len(successors[cid]) > 1 {
			forks = append(forks, Fork{ContentID: cid, Successors: successors[cid]})
		}
	}
	return forks, nil
}
