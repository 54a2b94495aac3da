package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/model"
	"github.com/Yuvraj-Singh-HIT/VeriChain/internal/repository"
)

// StatsWindow is the period that change figures compare against the one
// before it.
const StatsWindow = 7 * 24 * time.Hour

// DistributorStats summarizes shipping activity.
type DistributorStats struct {
	Shipments             int64  `json:"shipments"`
	ProductsHandled       int64  `json:"products_handled"`
	AvgTransitTime        string `json:"avg_transit_time"`
	Locations             int64  `json:"locations"`
	ShipmentsChange       string `json:"shipments_change"`
	ProductsHandledChange string `json:"products_handled_change"`
	AvgTransitTimeChange  string `json:"avg_transit_time_change"`
	LocationsChange       string `json:"locations_change"`
}

// RetailerStats summarizes retail activity.
type RetailerStats struct {
	InStock              int64  `json:"in_stock"`
	SoldToday            int64  `json:"sold_today"`
	StoreLocations       int64  `json:"store_locations"`
	Customers            string `json:"customers"`
	InStockChange        string `json:"in_stock_change"`
	SoldTodayChange      string `json:"sold_today_change"`
	StoreLocationsChange string `json:"store_locations_change"`
	CustomersChange      string `json:"customers_change"`
}

// StatsService derives dashboard figures from stored products and events.
type StatsService struct {
	products repository.ProductRepository
	events   repository.TrackingRepository
	now      func() time.Time
}

func NewStatsService(products repository.ProductRepository, events repository.TrackingRepository) *StatsService {
	return &StatsService{
		products: products,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// window splits time into the current and previous StatsWindow.
type window struct {
	prevStart, curStart, end time.Time
}

func (s *StatsService) window() window {
	end := s.now()
	return window{
		prevStart: end.Add(-2 * StatsWindow),
		curStart:  end.Add(-StatsWindow),
		end:       end,
	}
}

// Distributor computes distributor stats.
func (s *StatsService) Distributor(ctx context.Context) (*DistributorStats, error) {
	w := s.window()
	shipped := repository.EventFilter{Action: model.ActionShipped}
	cur := repository.EventFilter{Action: model.ActionShipped, Since: w.curStart, Until: w.end}
	prev := repository.EventFilter{Action: model.ActionShipped, Since: w.prevStart, Until: w.curStart}

	var (
		st   DistributorStats
		errs counter
	)
	st.Shipments = errs.count(s.events.CountEvents(ctx, shipped))
	st.ProductsHandled = errs.count(s.events.CountDistinct(ctx, repository.FieldProductID, shipped))
	st.Locations = errs.count(s.events.CountDistinct(ctx, repository.FieldLocation, repository.EventFilter{}))

	st.ShipmentsChange = percentChange(
		float64(errs.count(s.events.CountEvents(ctx, cur))),
		float64(errs.count(s.events.CountEvents(ctx, prev))))
	st.ProductsHandledChange = percentChange(
		float64(errs.count(s.events.CountDistinct(ctx, repository.FieldProductID, cur))),
		float64(errs.count(s.events.CountDistinct(ctx, repository.FieldProductID, prev))))
	st.LocationsChange = signedDelta(
		errs.count(s.events.CountDistinct(ctx, repository.FieldLocation, repository.EventFilter{Until: w.end})) -
			errs.count(s.events.CountDistinct(ctx, repository.FieldLocation, repository.EventFilter{Until: w.curStart})))
	if errs.err != nil {
		return nil, fmt.Errorf("distributor stats: %w", errs.err)
	}

	events, err := s.events.ListEventsByAction(ctx, model.ActionShipped, model.ActionReceived)
	if err != nil {
		return nil, fmt.Errorf("distributor stats: %w", err)
	}
	legs := transitLegs(events)
	st.AvgTransitTime = formatDays(averageTransit(legs, time.Time{}, time.Time{}))
	st.AvgTransitTimeChange = percentChange(
		averageTransit(legs, w.curStart, w.end).Hours(),
		averageTransit(legs, w.prevStart, w.curStart).Hours())
	return &st, nil
}

// Retailer computes retailer stats.
func (s *StatsService) Retailer(ctx context.Context) (*RetailerStats, error) {
	w := s.window()
	now := w.end
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	received := func(since, until time.Time) repository.EventFilter {
		return repository.EventFilter{Action: model.ActionReceived, Since: since, Until: until}
	}
	sold := func(since, until time.Time) repository.EventFilter {
		return repository.EventFilter{Action: model.ActionSold, Since: since, Until: until}
	}

	var (
		st   RetailerStats
		errs counter
	)
	inStock, err := s.products.CountProductsByStatus(ctx, model.ActionReceived)
	st.InStock = errs.count(inStock, err)
	st.SoldToday = errs.count(s.events.CountEvents(ctx, sold(today, time.Time{})))
	st.StoreLocations = errs.count(s.events.CountDistinct(ctx, repository.FieldLocation, received(time.Time{}, time.Time{})))
	st.Customers = compactCount(errs.count(s.events.CountDistinct(ctx, repository.FieldActor, sold(time.Time{}, time.Time{}))))

	st.InStockChange = percentChange(
		float64(errs.count(s.events.CountEvents(ctx, received(w.curStart, w.end)))),
		float64(errs.count(s.events.CountEvents(ctx, received(w.prevStart, w.curStart)))))
	st.SoldTodayChange = percentChange(
		float64(st.SoldToday),
		float64(errs.count(s.events.CountEvents(ctx, sold(yesterday, today)))))
	st.StoreLocationsChange = signedDelta(
		st.StoreLocations -
			errs.count(s.events.CountDistinct(ctx, repository.FieldLocation, received(time.Time{}, w.curStart))))
	st.CustomersChange = percentChange(
		float64(errs.count(s.events.CountDistinct(ctx, repository.FieldActor, sold(w.curStart, w.end)))),
		float64(errs.count(s.events.CountDistinct(ctx, repository.FieldActor, sold(w.prevStart, w.curStart)))))
	if errs.err != nil {
		return nil, fmt.Errorf("retailer stats: %w", errs.err)
	}
	return &st, nil
}

// counter keeps the first error of a sequence of count queries.
type counter struct{ err error }

func (c *counter) count(n int64, err error) int64 {
	if err != nil && c.err == nil {
		c.err = err
	}
	return n
}

// leg is one shipped to received transit of a product.
type leg struct {
	arrived  time.Time
	duration time.Duration
}

// transitLegs pairs every received event with the latest earlier shipped
// event of the same product. events must be ascending by timestamp.
func transitLegs(events []model.TrackingEvent) []leg {
	shippedAt := make(map[string]time.Time)
	var legs []leg
	for _, ev := range events {
		switch ev.Action {
		case model.ActionShipped:
			shippedAt[ev.ProductID] = ev.Timestamp
		case model.ActionReceived:
			start, ok := shippedAt[ev.ProductID]
			if !ok {
				continue
			}
			legs = append(legs, leg{arrived: ev.Timestamp, duration: ev.Timestamp.Sub(start)})
			delete(shippedAt, ev.ProductID)
		}
	}
	return legs
}

// averageTransit averages legs that arrived in [since, until). Zero bounds
// are open.
func averageTransit(legs []leg, since, until time.Time) time.Duration {
	var total time.Duration
	n := 0
	for _, l := range legs {
		if (!since.IsZero() && l.arrived.Before(since)) || (!until.IsZero() && !l.arrived.Before(until)) {
			continue
		}
		total += l.duration
		n++
	}
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}

func formatDays(d time.Duration) string {
	return fmt.Sprintf("%.1f days", d.Hours()/24)
}

func percentChange(cur, prev float64) string {
	if prev == 0 {
		if cur == 0 {
			return "0%"
		}
		return "+100%"
	}
	pct := math.Round((cur - prev) / prev * 100)
	switch {
	case pct == 0:
		return "0%"
	case pct > 0:
		return fmt.Sprintf("+%.0f%%", pct)
	default:
		return fmt.Sprintf("%.0f%%", pct)
	}
}

func signedDelta(n int64) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

func compactCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
