// File: /services/planner_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fuelroute-api/models"
	"fuelroute-api/utils"
)

// Minimum query length before a search is issued; shorter input only clears
// the suggestion list.
const minQueryLength = 3

var (
	ErrVehicleNotFound    = errors.New("vehicle not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidSearchField = errors.New("search field must be origin or destination")
	ErrInvalidPrice       = errors.New("fuel price must not be negative")
)

// SearchField names one of the two independent search inputs.
type SearchField string

const (
	FieldOrigin      SearchField = "origin"
	FieldDestination SearchField = "destination"
)

func ParseSearchField(s string) (SearchField, error) {
	switch SearchField(s) {
	case FieldOrigin:
		return FieldOrigin, nil
	case FieldDestination:
		return FieldDestination, nil
	default:
		return "", ErrInvalidSearchField
	}
}

// VehicleStore is the remote document store holding vehicle profiles.
type VehicleStore interface {
	ListByUser(userID string) ([]models.Vehicle, error)
	Upsert(vehicle *models.Vehicle) error
	Delete(userID, vehicleID string) error
}

// PreferenceStore is the local durable key-value storage: vehicle list
// fallback, selected vehicle id, last fuel price.
type PreferenceStore interface {
	SaveVehicleList(ctx context.Context, userID string, vehicles []models.Vehicle) error
	LoadVehicleList(ctx context.Context, userID string) ([]models.Vehicle, error)
	SaveSelectedVehicle(ctx context.Context, userID, vehicleID string) error
	LoadSelectedVehicle(ctx context.Context, userID string) (string, error)
	SaveFuelPrice(ctx context.Context, userID string, price models.FuelPriceData) error
	LoadFuelPrice(ctx context.Context, userID string) (*models.FuelPriceData, error)
}

// PlannerOptions tunes the reactive behavior of planner sessions.
type PlannerOptions struct {
	Debounce      time.Duration
	SearchTimeout time.Duration
	RouteTimeout  time.Duration
}

func (o *PlannerOptions) withDefaults() {
	if o.Debounce <= 0 {
		o.Debounce = 400 * time.Millisecond
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = 8 * time.Second
	}
	if o.RouteTimeout <= 0 {
		o.RouteTimeout = 12 * time.Second
	}
}

// PlannerService owns one trip-planning session per user and the shared
// collaborators the sessions work against.
type PlannerService struct {
	store    VehicleStore
	prefs    PreferenceStore
	geocoder Geocoder
	router   RouteProvider
	prices   PriceProvider
	opts     PlannerOptions

	mu       sync.Mutex
	sessions map[string]*PlannerSession
}

func NewPlannerService(store VehicleStore, prefs PreferenceStore, geocoder Geocoder, router RouteProvider, prices PriceProvider, opts PlannerOptions) *PlannerService {
	opts.withDefaults()
	return &PlannerService{
		store:    store,
		prefs:    prefs,
		geocoder: geocoder,
		router:   router,
		prices:   prices,
		opts:     opts,
		sessions: make(map[string]*PlannerSession),
	}
}

// Session returns the user's planner session, creating and loading it on
// first access.
func (s *PlannerService) Session(ctx context.Context, userID string) *PlannerSession {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newPlannerSession(s, userID)
		s.sessions[userID] = sess
	}
	s.mu.Unlock()

	sess.loadOnce.Do(func() { sess.load(ctx) })
	return sess
}

// Sessions snapshots the live sessions, for the background price refresher.
func (s *PlannerService) Sessions() []*PlannerSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make([]*PlannerSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	return sessions
}

// Close tears down every session, cancelling outstanding work.
func (s *PlannerService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		sess.close()
	}
	s.sessions = make(map[string]*PlannerSession)
}

// searchState tracks one debounced search input. seq increases on every
// query change or point selection; a search result carrying an older seq is
// stale and discarded.
type searchState struct {
	query       string
	suggestions []models.LocationPoint
	timer       *time.Timer
	seq         uint64
}

// PlannerSession is the in-memory application state for one user: vehicle
// list and selection, trip endpoints, debounced searches, route, fuel price
// and the derived estimate. All mutation happens under mu in response to a
// completed event, and every change is written through to the preference
// store on its own channel.
type PlannerSession struct {
	svc      *PlannerService
	userID   string
	loadOnce sync.Once

	mu          sync.Mutex
	vehicles    []models.Vehicle
	selectedID  string
	origin      *models.LocationPoint
	destination *models.LocationPoint
	searches    map[SearchField]*searchState
	route       *models.RouteResult
	routeErr    string
	routing     bool
	routeSeq    uint64
	routeCancel context.CancelFunc
	price       *models.FuelPriceData
	priceSeq    uint64
	locating    bool
	mapView     MapView
	snapshots   *SnapshotMapView
}

func newPlannerSession(svc *PlannerService, userID string) *PlannerSession {
	snapshots := NewSnapshotMapView()
	return &PlannerSession{
		svc:    svc,
		userID: userID,
		searches: map[SearchField]*searchState{
			FieldOrigin:      {},
			FieldDestination: {},
		},
		mapView:   snapshots,
		snapshots: snapshots,
	}
}

// load hydrates the session: remote vehicle list with local fallback,
// persisted selection if still valid, and the fuel price (persisted manual
// value wins, otherwise an automatic refresh is triggered).
func (p *PlannerSession) load(ctx context.Context) {
	vehicles, err := p.svc.store.ListByUser(p.userID)
	if err != nil || len(vehicles) == 0 {
		if err != nil {
			log.WithError(err).WithField("user_id", p.userID).Warn("vehicle store unavailable, using local copy")
		}
		local, lerr := p.svc.prefs.LoadVehicleList(ctx, p.userID)
		if lerr != nil {
			log.WithError(lerr).WithField("user_id", p.userID).Warn("failed to load local vehicle list")
		} else if len(local) > 0 {
			vehicles = local
		}
	}

	storedID, err := p.svc.prefs.LoadSelectedVehicle(ctx, p.userID)
	if err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("failed to load selected vehicle")
	}

	price, err := p.svc.prefs.LoadFuelPrice(ctx, p.userID)
	if err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("failed to load persisted fuel price")
		price = nil
	}

	p.mu.Lock()
	p.vehicles = vehicles
	p.selectedID = ""
	if storedID != "" && p.findVehicleLocked(storedID) != nil {
		p.selectedID = storedID
	} else if len(vehicles) > 0 {
		p.selectedID = vehicles[0].ID
	}
	if price != nil && price.Source == models.PriceSourceManual {
		p.price = price
	}
	needsRefresh := p.price == nil
	p.mu.Unlock()

	if needsRefresh {
		go p.refreshPrice(context.Background())
	}
}

func (p *PlannerSession) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.routeCancel != nil {
		p.routeCancel()
		p.routeCancel = nil
	}
	for _, st := range p.searches {
		if st.timer != nil {
			st.timer.Stop()
			st.timer = nil
		}
		st.seq++
	}
	p.routeSeq++
	p.priceSeq++
}

// --- Vehicle facet ---

func (p *PlannerSession) Vehicles() []models.Vehicle {
	p.mu.Lock()
	defer p.mu.Unlock()

	vehicles := make([]models.Vehicle, len(p.vehicles))
	copy(vehicles, p.vehicles)
	return vehicles
}

func (p *PlannerSession) SelectedVehicle() *models.Vehicle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedVehicleLocked()
}

func (p *PlannerSession) selectedVehicleLocked() *models.Vehicle {
	if p.selectedID == "" {
		return nil
	}
	if v := p.findVehicleLocked(p.selectedID); v != nil {
		copied := *v
		return &copied
	}
	return nil
}

func (p *PlannerSession) findVehicleLocked(id string) *models.Vehicle {
	for i := range p.vehicles {
		if p.vehicles[i].ID == id {
			return &p.vehicles[i]
		}
	}
	return nil
}

// SaveVehicle upserts the profile remote-first: in-memory state only
// changes after the store accepted the write, so a failure leaves the
// session consistent without rollback.
func (p *PlannerSession) SaveVehicle(ctx context.Context, vehicle models.Vehicle) (models.Vehicle, error) {
	if vehicle.ID == "" {
		vehicle.ID = uuid.New().String()
	}
	vehicle.UserID = p.userID

	if err := p.svc.store.Upsert(&vehicle); err != nil {
		return models.Vehicle{}, err
	}

	p.mu.Lock()
	if existing := p.findVehicleLocked(vehicle.ID); existing != nil {
		*existing = vehicle
	} else {
		p.vehicles = append(p.vehicles, vehicle)
	}
	if p.selectedID == "" {
		p.selectedID = vehicle.ID
		p.persistSelectionLocked(ctx)
	}
	p.persistVehiclesLocked(ctx)
	p.mu.Unlock()

	return vehicle, nil
}

// DeleteVehicle removes the profile from the store and the session. When
// the deleted vehicle was selected, the selection becomes none.
func (p *PlannerSession) DeleteVehicle(ctx context.Context, vehicleID string) error {
	if err := p.svc.store.Delete(p.userID, vehicleID); err != nil {
		return err
	}

	p.mu.Lock()
	for i := range p.vehicles {
		if p.vehicles[i].ID == vehicleID {
			p.vehicles = append(p.vehicles[:i], p.vehicles[i+1:]...)
			break
		}
	}
	if p.selectedID == vehicleID {
		p.selectedID = ""
		p.persistSelectionLocked(ctx)
	}
	p.persistVehiclesLocked(ctx)
	p.mu.Unlock()

	return nil
}

func (p *PlannerSession) SelectVehicle(ctx context.Context, vehicleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.findVehicleLocked(vehicleID) == nil {
		return ErrVehicleNotFound
	}
	p.selectedID = vehicleID
	p.persistSelectionLocked(ctx)
	return nil
}

// --- Search facet ---

// SetSearchQuery records a keystroke on one of the search inputs. The
// actual remote search only fires after the debounce window elapses without
// another keystroke; queries shorter than three characters, and the query
// that exactly matches the already-selected point's label, never search.
func (p *PlannerSession) SetSearchQuery(field SearchField, query string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.searches[field]
	if !ok {
		return ErrInvalidSearchField
	}

	st.query = query
	st.seq++
	seq := st.seq
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	if len(strings.TrimSpace(query)) < minQueryLength {
		st.suggestions = nil
		return nil
	}
	if sel := p.pointLocked(field); sel != nil && sel.Label == query {
		// Right after a selection the input holds the chosen label;
		// searching again would immediately re-open the dropdown.
		st.suggestions = nil
		return nil
	}

	st.timer = time.AfterFunc(p.svc.opts.Debounce, func() {
		p.runSearch(field, query, seq)
	})
	return nil
}

func (p *PlannerSession) runSearch(field SearchField, query string, seq uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), p.svc.opts.SearchTimeout)
	defer cancel()

	results := p.svc.geocoder.Search(ctx, query)

	p.mu.Lock()
	defer p.mu.Unlock()

	st := p.searches[field]
	if seq != st.seq {
		// A newer query (or a selection) superseded this search.
		return
	}
	st.suggestions = results
}

func (p *PlannerSession) Suggestions(field SearchField) []models.LocationPoint {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.searches[field]
	if !ok {
		return nil
	}
	suggestions := make([]models.LocationPoint, len(st.suggestions))
	copy(suggestions, st.suggestions)
	return suggestions
}

// --- Trip facet ---

func (p *PlannerSession) pointLocked(field SearchField) *models.LocationPoint {
	if field == FieldOrigin {
		return p.origin
	}
	return p.destination
}

// SetPoint selects a point for one trip end. Suggestions close, the input
// adopts the point's label, and when both ends are set a route computation
// starts.
func (p *PlannerSession) SetPoint(field SearchField, point models.LocationPoint) error {
	if !utils.IsValidLatitude(point.Latitude) || !utils.IsValidLongitude(point.Longitude) {
		return ErrInvalidCoordinates
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.searches[field]
	if !ok {
		return ErrInvalidSearchField
	}

	if field == FieldOrigin {
		p.origin = &point
	} else {
		p.destination = &point
	}

	st.query = point.Label
	st.suggestions = nil
	st.seq++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	p.recomputeRouteLocked()
	return nil
}

// ClearPoint unsets one trip end and invalidates the current route.
func (p *PlannerSession) ClearPoint(field SearchField) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.searches[field]
	if !ok {
		return ErrInvalidSearchField
	}

	if field == FieldOrigin {
		p.origin = nil
	} else {
		p.destination = nil
	}
	st.query = ""
	st.suggestions = nil
	st.seq++
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}

	p.recomputeRouteLocked()
	return nil
}

// UseDeviceLocation resolves the device's coordinates into the trip origin.
// Reverse geocoding cannot fail hard: the label degrades to coordinate text.
func (p *PlannerSession) UseDeviceLocation(ctx context.Context, lat, lon float64) (models.LocationPoint, error) {
	if !utils.IsValidLatitude(lat) || !utils.IsValidLongitude(lon) {
		return models.LocationPoint{}, ErrInvalidCoordinates
	}

	p.mu.Lock()
	p.locating = true
	p.mu.Unlock()

	label := p.svc.geocoder.ReverseGeocode(ctx, lat, lon)
	point := models.LocationPoint{Latitude: lat, Longitude: lon, Label: label}

	p.mu.Lock()
	p.locating = false
	p.mu.Unlock()

	if err := p.SetPoint(FieldOrigin, point); err != nil {
		return models.LocationPoint{}, err
	}
	return point, nil
}

// recomputeRouteLocked invalidates whatever route state exists and, when
// both endpoints are present, starts a fresh computation. The previous
// in-flight request is cancelled and its eventual completion discarded via
// the sequence number.
func (p *PlannerSession) recomputeRouteLocked() {
	if p.routeCancel != nil {
		p.routeCancel()
		p.routeCancel = nil
	}
	p.routeSeq++
	p.route = nil
	p.routeErr = ""
	p.routing = false
	p.updateMapLocked()

	if p.origin == nil || p.destination == nil {
		return
	}

	seq := p.routeSeq
	origin, destination := *p.origin, *p.destination
	ctx, cancel := context.WithTimeout(context.Background(), p.svc.opts.RouteTimeout)
	p.routeCancel = cancel
	p.routing = true

	go func() {
		route, err := p.svc.router.ComputeRoute(ctx, origin, destination)
		cancel()

		p.mu.Lock()
		defer p.mu.Unlock()

		if seq != p.routeSeq {
			return
		}
		p.routing = false
		p.routeCancel = nil
		if err != nil {
			p.route = nil
			p.routeErr = err.Error()
			log.WithError(err).WithField("user_id", p.userID).Warn("route computation failed")
		} else {
			p.route = route
			p.routeErr = ""
		}
		p.updateMapLocked()
	}()
}

func (p *PlannerSession) updateMapLocked() {
	p.mapView.SetMarkers(p.origin, p.destination)
	if p.route != nil {
		p.mapView.SetRoute(p.route.Geometry)
	} else {
		p.mapView.SetRoute(nil)
	}

	var points []models.LocationPoint
	if p.origin != nil {
		points = append(points, *p.origin)
	}
	if p.destination != nil {
		points = append(points, *p.destination)
	}
	p.mapView.FitBounds(points)
}

// --- Fuel price facet ---

func (p *PlannerSession) Price() *models.FuelPriceData {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.price == nil {
		return nil
	}
	copied := *p.price
	return &copied
}

// RefreshPrice fetches a fresh automatic price, replacing whatever was set.
func (p *PlannerSession) RefreshPrice(ctx context.Context) (*models.FuelPriceData, error) {
	return p.refreshPrice(ctx)
}

func (p *PlannerSession) refreshPrice(ctx context.Context) (*models.FuelPriceData, error) {
	p.mu.Lock()
	p.priceSeq++
	seq := p.priceSeq
	p.mu.Unlock()

	value, err := p.svc.prices.FetchPrice(ctx)
	if err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("fuel price fetch failed")
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.priceSeq {
		// A manual edit or newer refresh won while we were fetching.
		return p.price, nil
	}
	p.price = &models.FuelPriceData{
		PricePerLiter: value,
		UpdatedAt:     time.Now(),
		Source:        models.PriceSourceAuto,
	}
	p.persistPriceLocked(ctx)
	copied := *p.price
	return &copied, nil
}

// RefreshAutoPrice refreshes only when the current price is automatic; a
// manual override is never clobbered by the background job.
func (p *PlannerSession) RefreshAutoPrice(ctx context.Context) {
	p.mu.Lock()
	manual := p.price != nil && p.price.Source == models.PriceSourceManual
	p.mu.Unlock()

	if manual {
		return
	}
	_, _ = p.refreshPrice(ctx)
}

// SetManualPrice applies a user-entered price per liter.
func (p *PlannerSession) SetManualPrice(ctx context.Context, pricePerLiter float64) (*models.FuelPriceData, error) {
	if pricePerLiter < 0 {
		return nil, ErrInvalidPrice
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.priceSeq++
	p.price = &models.FuelPriceData{
		PricePerLiter: pricePerLiter,
		UpdatedAt:     time.Now(),
		Source:        models.PriceSourceManual,
	}
	p.persistPriceLocked(ctx)
	copied := *p.price
	return &copied, nil
}

// --- Derived state ---

// TripSnapshot is the full trip facet as the client renders it.
type TripSnapshot struct {
	Origin            *models.LocationPoint   `json:"origin"`
	Destination       *models.LocationPoint   `json:"destination"`
	Route             *models.RouteResult     `json:"route"`
	Routing           bool                    `json:"routing"`
	RouteError        string                  `json:"route_error,omitempty"`
	Locating          bool                    `json:"locating"`
	SelectedVehicleID string                  `json:"selected_vehicle_id,omitempty"`
	FuelPrice         *models.FuelPriceData   `json:"fuel_price"`
	Estimate          *models.TripCalculation `json:"estimate"`
}

func (p *PlannerSession) Snapshot() TripSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := TripSnapshot{
		Origin:            p.origin,
		Destination:       p.destination,
		Route:             p.route,
		Routing:           p.routing,
		RouteError:        p.routeErr,
		Locating:          p.locating,
		SelectedVehicleID: p.selectedID,
	}
	if p.price != nil {
		copied := *p.price
		snap.FuelPrice = &copied
	}
	snap.Estimate = p.estimateLocked()
	return snap
}

// Estimate recomputes the trip calculation from the current route, selected
// vehicle and fuel price. Nil whenever any input is missing.
func (p *PlannerSession) Estimate() *models.TripCalculation {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.estimateLocked()
}

func (p *PlannerSession) estimateLocked() *models.TripCalculation {
	estimate, err := EstimateTrip(p.selectedVehicleLocked(), p.route, p.price)
	if err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("trip estimate failed")
		return nil
	}
	return estimate
}

func (p *PlannerSession) MapSnapshot() MapSnapshot {
	return p.snapshots.Snapshot()
}

// --- Write-through persistence ---

func (p *PlannerSession) persistVehiclesLocked(ctx context.Context) {
	if err := p.svc.prefs.SaveVehicleList(ctx, p.userID, p.vehicles); err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("failed to persist vehicle list")
	}
}

func (p *PlannerSession) persistSelectionLocked(ctx context.Context) {
	if err := p.svc.prefs.SaveSelectedVehicle(ctx, p.userID, p.selectedID); err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("failed to persist vehicle selection")
	}
}

func (p *PlannerSession) persistPriceLocked(ctx context.Context) {
	if p.price == nil {
		return
	}
	if err := p.svc.prefs.SaveFuelPrice(ctx, p.userID, *p.price); err != nil {
		log.WithError(err).WithField("user_id", p.userID).Warn("failed to persist fuel price")
	}
}
