// File: /services/planner_service_test.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelroute-api/models"
)

func TestMain(m *testing.M) {
	// Discard logs during tests to keep output clean
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// fakeGeocoder implements Geocoder. Searches can be gated per query to
// simulate slow responses.
type fakeGeocoder struct {
	mu      sync.Mutex
	calls   []string
	results map[string][]models.LocationPoint
	gates   map[string]chan struct{}
	started chan string
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		results: make(map[string][]models.LocationPoint),
		gates:   make(map[string]chan struct{}),
	}
}

func (g *fakeGeocoder) Search(ctx context.Context, query string) []models.LocationPoint {
	g.mu.Lock()
	g.calls = append(g.calls, query)
	gate := g.gates[query]
	results := g.results[query]
	started := g.started
	g.mu.Unlock()

	if started != nil {
		started <- query
	}
	if gate != nil {
		<-gate
	}
	return results
}

func (g *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}

func (g *fakeGeocoder) callLog() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	calls := make([]string, len(g.calls))
	copy(calls, g.calls)
	return calls
}

// fakeRouter implements RouteProvider with per-destination distances and
// optional gates.
type fakeRouter struct {
	mu             sync.Mutex
	calls          int
	err            error
	distanceByDest map[string]float64
	gates          map[string]chan struct{}
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		distanceByDest: make(map[string]float64),
		gates:          make(map[string]chan struct{}),
	}
}

func (r *fakeRouter) ComputeRoute(ctx context.Context, origin, destination models.LocationPoint) (*models.RouteResult, error) {
	r.mu.Lock()
	r.calls++
	gate := r.gates[destination.Label]
	err := r.err
	distance, ok := r.distanceByDest[destination.Label]
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		distance = 100
	}
	return &models.RouteResult{
		DistanceKm:  distance,
		DurationMin: distance * 0.9,
		Geometry:    json.RawMessage(`{"type":"LineString","coordinates":[]}`),
	}, nil
}

func (r *fakeRouter) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRouter) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// fakeVehicleStore implements VehicleStore in memory.
type fakeVehicleStore struct {
	mu       sync.Mutex
	vehicles []models.Vehicle
	listErr  error
}

func (s *fakeVehicleStore) ListByUser(userID string) ([]models.Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []models.Vehicle
	for _, v := range s.vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *fakeVehicleStore) Upsert(vehicle *models.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.vehicles {
		if s.vehicles[i].ID == vehicle.ID {
			s.vehicles[i] = *vehicle
			return nil
		}
	}
	s.vehicles = append(s.vehicles, *vehicle)
	return nil
}

func (s *fakeVehicleStore) Delete(userID, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.vehicles {
		if s.vehicles[i].ID == vehicleID && s.vehicles[i].UserID == userID {
			s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

// fakePrefs implements PreferenceStore in memory.
type fakePrefs struct {
	mu       sync.Mutex
	lists    map[string][]models.Vehicle
	selected map[string]string
	prices   map[string]models.FuelPriceData
}

func newFakePrefs() *fakePrefs {
	return &fakePrefs{
		lists:    make(map[string][]models.Vehicle),
		selected: make(map[string]string),
		prices:   make(map[string]models.FuelPriceData),
	}
}

func (f *fakePrefs) SaveVehicleList(ctx context.Context, userID string, vehicles []models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := make([]models.Vehicle, len(vehicles))
	copy(copied, vehicles)
	f.lists[userID] = copied
	return nil
}

func (f *fakePrefs) LoadVehicleList(ctx context.Context, userID string) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists[userID], nil
}

func (f *fakePrefs) SaveSelectedVehicle(ctx context.Context, userID, vehicleID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected[userID] = vehicleID
	return nil
}

func (f *fakePrefs) LoadSelectedVehicle(ctx context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected[userID], nil
}

func (f *fakePrefs) SaveFuelPrice(ctx context.Context, userID string, price models.FuelPriceData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[userID] = price
	return nil
}

func (f *fakePrefs) LoadFuelPrice(ctx context.Context, userID string) (*models.FuelPriceData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if price, ok := f.prices[userID]; ok {
		return &price, nil
	}
	return nil, nil
}

// fakePrices implements PriceProvider with a fixed value.
type fakePrices struct {
	mu    sync.Mutex
	value float64
	calls int
}

func (p *fakePrices) FetchPrice(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.value, nil
}

func (p *fakePrices) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type plannerFixture struct {
	geocoder *fakeGeocoder
	router   *fakeRouter
	store    *fakeVehicleStore
	prefs    *fakePrefs
	prices   *fakePrices
	planner  *PlannerService
}

func newPlannerFixture() *plannerFixture {
	f := &plannerFixture{
		geocoder: newFakeGeocoder(),
		router:   newFakeRouter(),
		store:    &fakeVehicleStore{},
		prefs:    newFakePrefs(),
		prices:   &fakePrices{value: 1.55},
	}
	f.planner = NewPlannerService(f.store, f.prefs, f.geocoder, f.router, f.prices, PlannerOptions{
		Debounce:      50 * time.Millisecond,
		SearchTimeout: time.Second,
		RouteTimeout:  time.Second,
	})
	return f
}

func (f *plannerFixture) session(t *testing.T) *PlannerSession {
	t.Helper()
	t.Cleanup(f.planner.Close)
	return f.planner.Session(context.Background(), "user-1")
}

func madrid() models.LocationPoint {
	return models.LocationPoint{Latitude: 40.4168, Longitude: -3.7038, Label: "Madrid, Spain"}
}

func barcelona() models.LocationPoint {
	return models.LocationPoint{Latitude: 41.3874, Longitude: 2.1686, Label: "Barcelona, Spain"}
}

func TestPlanner_DebouncedSearchFiresOnceForFinalQuery(t *testing.T) {
	f := newPlannerFixture()
	f.geocoder.results["Madrid"] = []models.LocationPoint{madrid()}
	session := f.session(t)

	for _, q := range []string{"Ma", "Mad", "Madr", "Madrid"} {
		require.NoError(t, session.SetSearchQuery(FieldOrigin, q))
	}

	require.Eventually(t, func() bool {
		return len(session.Suggestions(FieldOrigin)) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"Madrid"}, f.geocoder.callLog())
}

func TestPlanner_ShortQueryClearsSuggestionsWithoutSearching(t *testing.T) {
	f := newPlannerFixture()
	f.geocoder.results["Madrid"] = []models.LocationPoint{madrid()}
	session := f.session(t)

	require.NoError(t, session.SetSearchQuery(FieldOrigin, "Madrid"))
	require.Eventually(t, func() bool {
		return len(session.Suggestions(FieldOrigin)) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, session.SetSearchQuery(FieldOrigin, "Ma"))
	assert.Empty(t, session.Suggestions(FieldOrigin))

	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, []string{"Madrid"}, f.geocoder.callLog(), "short query must not reach the geocoder")
}

func TestPlanner_SelectedLabelSuppressesSearch(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))

	// Typing back the exact label of the selected point must not re-open
	// the dropdown.
	require.NoError(t, session.SetSearchQuery(FieldOrigin, "Madrid, Spain"))
	time.Sleep(120 * time.Millisecond)

	assert.Empty(t, session.Suggestions(FieldOrigin))
	assert.Empty(t, f.geocoder.callLog())
}

func TestPlanner_StaleSearchResultDiscarded(t *testing.T) {
	f := newPlannerFixture()
	f.geocoder.results["Madrid"] = []models.LocationPoint{madrid()}
	f.geocoder.results["Barcelona"] = []models.LocationPoint{barcelona()}
	madridGate := make(chan struct{})
	f.geocoder.gates["Madrid"] = madridGate
	f.geocoder.started = make(chan string, 4)
	session := f.session(t)

	require.NoError(t, session.SetSearchQuery(FieldOrigin, "Madrid"))
	require.Equal(t, "Madrid", <-f.geocoder.started)

	// A newer query goes out while Madrid is still in flight.
	require.NoError(t, session.SetSearchQuery(FieldOrigin, "Barcelona"))
	require.Equal(t, "Barcelona", <-f.geocoder.started)

	require.Eventually(t, func() bool {
		s := session.Suggestions(FieldOrigin)
		return len(s) == 1 && s[0].Label == "Barcelona, Spain"
	}, time.Second, 10*time.Millisecond)

	// The slow Madrid response must be dropped, not applied.
	close(madridGate)
	time.Sleep(50 * time.Millisecond)

	suggestions := session.Suggestions(FieldOrigin)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Barcelona, Spain", suggestions[0].Label)
}

func TestPlanner_RouteComputedWhenBothPointsSet(t *testing.T) {
	f := newPlannerFixture()
	f.router.distanceByDest["Barcelona, Spain"] = 620
	session := f.session(t)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))
	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, f.router.callCount(), "one endpoint must not trigger routing")

	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.Route != nil && !snap.Routing
	}, time.Second, 10*time.Millisecond)

	snap := session.Snapshot()
	assert.InDelta(t, 620, snap.Route.DistanceKm, 1e-9)
	assert.Empty(t, snap.RouteError)

	// The map view follows the trip facet.
	mapSnap := session.MapSnapshot()
	require.NotNil(t, mapSnap.Origin)
	require.NotNil(t, mapSnap.Destination)
	assert.NotNil(t, mapSnap.Route)
	require.NotNil(t, mapSnap.Bounds)
	assert.InDelta(t, 40.4168, mapSnap.Bounds.MinLat, 1e-9)
	assert.InDelta(t, 41.3874, mapSnap.Bounds.MaxLat, 1e-9)
}

func TestPlanner_RouteFailureSetsErrorAndClearsRoute(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))
	require.Eventually(t, func() bool {
		return session.Snapshot().Route != nil
	}, time.Second, 10*time.Millisecond)

	f.router.setErr(errors.New("no route found between the selected points"))
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return !snap.Routing && snap.RouteError != ""
	}, time.Second, 10*time.Millisecond)

	snap := session.Snapshot()
	assert.Nil(t, snap.Route, "previous route must be cleared on failure")
	assert.NotEmpty(t, snap.RouteError)

	// Recovery: the next successful computation clears the error.
	f.router.setErr(nil)
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))
	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.Route != nil && snap.RouteError == ""
	}, time.Second, 10*time.Millisecond)
}

func TestPlanner_StaleRouteResultDiscarded(t *testing.T) {
	f := newPlannerFixture()
	slowGate := make(chan struct{})
	f.router.gates["Barcelona, Spain"] = slowGate
	f.router.distanceByDest["Barcelona, Spain"] = 620
	f.router.distanceByDest["Valencia, Spain"] = 360
	session := f.session(t)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))

	// Supersede the in-flight Barcelona request.
	valencia := models.LocationPoint{Latitude: 39.4699, Longitude: -0.3763, Label: "Valencia, Spain"}
	require.NoError(t, session.SetPoint(FieldDestination, valencia))

	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.Route != nil && !snap.Routing
	}, time.Second, 10*time.Millisecond)

	close(slowGate)
	time.Sleep(50 * time.Millisecond)

	snap := session.Snapshot()
	require.NotNil(t, snap.Route)
	assert.InDelta(t, 360, snap.Route.DistanceKm, 1e-9, "stale Barcelona route must not overwrite Valencia's")
	assert.Empty(t, snap.RouteError)
}

func TestPlanner_ClearPointInvalidatesRoute(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))
	require.Eventually(t, func() bool {
		return session.Snapshot().Route != nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, session.ClearPoint(FieldDestination))

	snap := session.Snapshot()
	assert.Nil(t, snap.Route)
	assert.Nil(t, snap.Destination)
	assert.False(t, snap.Routing)
}

func TestPlanner_VehicleLifecycle(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	first, err := session.SaveVehicle(context.Background(), models.Vehicle{
		Name:             "Test Car",
		FuelType:         models.FuelDiesel,
		ConsumptionValue: 6,
		ConsumptionUnit:  models.LitersPer100Km,
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	// First vehicle becomes the selection.
	selected := session.SelectedVehicle()
	require.NotNil(t, selected)
	assert.Equal(t, first.ID, selected.ID)

	second, err := session.SaveVehicle(context.Background(), models.Vehicle{
		Name:             "Van",
		FuelType:         models.FuelGasoline,
		ConsumptionValue: 9.5,
		ConsumptionUnit:  models.LitersPer100Km,
	})
	require.NoError(t, err)
	require.NoError(t, session.SelectVehicle(context.Background(), second.ID))

	// Write-through: the durable copies follow every mutation.
	assert.Len(t, f.prefs.lists["user-1"], 2)
	assert.Equal(t, second.ID, f.prefs.selected["user-1"])

	// Deleting the selected vehicle leaves no selection.
	require.NoError(t, session.DeleteVehicle(context.Background(), second.ID))
	assert.Nil(t, session.SelectedVehicle())
	assert.Len(t, session.Vehicles(), 1)
	assert.Empty(t, f.prefs.selected["user-1"])

	remote, err := f.store.ListByUser("user-1")
	require.NoError(t, err)
	assert.Len(t, remote, 1, "deletion must reach the remote store")
}

func TestPlanner_SelectUnknownVehicleFails(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	assert.ErrorIs(t, session.SelectVehicle(context.Background(), "missing"), ErrVehicleNotFound)
}

func TestPlanner_LoadFallsBackToLocalListWhenStoreFails(t *testing.T) {
	f := newPlannerFixture()
	f.store.listErr = errors.New("store unreachable")

	cached := []models.Vehicle{
		{ID: "v1", UserID: "user-1", Name: "Old Car", FuelType: models.FuelDiesel, ConsumptionValue: 7, ConsumptionUnit: models.LitersPer100Km},
		{ID: "v2", UserID: "user-1", Name: "New Car", FuelType: models.FuelGasoline, ConsumptionValue: 5, ConsumptionUnit: models.LitersPer100Km},
	}
	require.NoError(t, f.prefs.SaveVehicleList(context.Background(), "user-1", cached))
	require.NoError(t, f.prefs.SaveSelectedVehicle(context.Background(), "user-1", "v2"))

	session := f.session(t)

	assert.Len(t, session.Vehicles(), 2)
	selected := session.SelectedVehicle()
	require.NotNil(t, selected)
	assert.Equal(t, "v2", selected.ID)
}

func TestPlanner_StaleSelectionFallsBackToFirstVehicle(t *testing.T) {
	f := newPlannerFixture()
	f.store.vehicles = []models.Vehicle{
		{ID: "v1", UserID: "user-1", Name: "Car", FuelType: models.FuelDiesel, ConsumptionValue: 6, ConsumptionUnit: models.LitersPer100Km},
	}
	require.NoError(t, f.prefs.SaveSelectedVehicle(context.Background(), "user-1", "gone"))

	session := f.session(t)

	selected := session.SelectedVehicle()
	require.NotNil(t, selected)
	assert.Equal(t, "v1", selected.ID)
}

func TestPlanner_PersistedManualPriceAdoptedWithoutFetch(t *testing.T) {
	f := newPlannerFixture()
	require.NoError(t, f.prefs.SaveFuelPrice(context.Background(), "user-1", models.FuelPriceData{
		PricePerLiter: 1.72,
		UpdatedAt:     time.Now(),
		Source:        models.PriceSourceManual,
	}))

	session := f.session(t)

	price := session.Price()
	require.NotNil(t, price)
	assert.Equal(t, models.PriceSourceManual, price.Source)
	assert.InDelta(t, 1.72, price.PricePerLiter, 1e-9)
	assert.Zero(t, f.prices.callCount(), "a persisted manual price suppresses the automatic fetch")
}

func TestPlanner_AutoPriceFetchedOnLoad(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	require.Eventually(t, func() bool {
		price := session.Price()
		return price != nil && price.Source == models.PriceSourceAuto
	}, time.Second, 10*time.Millisecond)

	assert.InDelta(t, 1.55, session.Price().PricePerLiter, 1e-9)
}

func TestPlanner_ManualPriceBlocksBackgroundRefresh(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	// Let the load-time automatic fetch settle first.
	require.Eventually(t, func() bool {
		return session.Price() != nil
	}, time.Second, 10*time.Millisecond)

	_, err := session.SetManualPrice(context.Background(), 1.80)
	require.NoError(t, err)

	calls := f.prices.callCount()
	session.RefreshAutoPrice(context.Background())

	price := session.Price()
	require.NotNil(t, price)
	assert.Equal(t, models.PriceSourceManual, price.Source)
	assert.InDelta(t, 1.80, price.PricePerLiter, 1e-9)
	assert.Equal(t, calls, f.prices.callCount())

	// An explicit refresh does override the manual price.
	refreshed, err := session.RefreshPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PriceSourceAuto, refreshed.Source)
}

func TestPlanner_EstimateAbsentUntilAllInputsPresent(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	_, err := session.SetManualPrice(context.Background(), 1.60)
	require.NoError(t, err)
	assert.Nil(t, session.Estimate(), "no vehicle and no route means no estimate")

	_, err = session.SaveVehicle(context.Background(), models.Vehicle{
		Name:             "Test Car",
		FuelType:         models.FuelDiesel,
		ConsumptionValue: 6,
		ConsumptionUnit:  models.LitersPer100Km,
	})
	require.NoError(t, err)
	assert.Nil(t, session.Estimate(), "no route means no estimate")
}

func TestPlanner_EstimateScenario(t *testing.T) {
	f := newPlannerFixture()
	f.router.distanceByDest["Barcelona, Spain"] = 100
	session := f.session(t)

	_, err := session.SetManualPrice(context.Background(), 1.60)
	require.NoError(t, err)
	_, err = session.SaveVehicle(context.Background(), models.Vehicle{
		Name:             "Test Car",
		FuelType:         models.FuelDiesel,
		ConsumptionValue: 6,
		ConsumptionUnit:  models.LitersPer100Km,
	})
	require.NoError(t, err)

	require.NoError(t, session.SetPoint(FieldOrigin, madrid()))
	require.NoError(t, session.SetPoint(FieldDestination, barcelona()))

	require.Eventually(t, func() bool {
		return session.Estimate() != nil
	}, time.Second, 10*time.Millisecond)

	estimate := session.Estimate()
	assert.InDelta(t, 6.0, estimate.LitersNeeded, 1e-9)
	assert.InDelta(t, 9.60, estimate.TotalCost, 1e-9)
	assert.InDelta(t, 9.60, estimate.CostPer100Km, 1e-9)
}

func TestPlanner_UseDeviceLocationSetsOrigin(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	point, err := session.UseDeviceLocation(context.Background(), 40.4168, -3.7038)
	require.NoError(t, err)
	assert.Equal(t, "40.41680, -3.70380", point.Label)

	snap := session.Snapshot()
	require.NotNil(t, snap.Origin)
	assert.InDelta(t, 40.4168, snap.Origin.Latitude, 1e-9)
	assert.False(t, snap.Locating)
}

func TestPlanner_UseDeviceLocationRejectsBadCoordinates(t *testing.T) {
	f := newPlannerFixture()
	session := f.session(t)

	_, err := session.UseDeviceLocation(context.Background(), 120, 0)
	assert.ErrorIs(t, err, ErrInvalidCoordinates)
}
