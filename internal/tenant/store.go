package tenant

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/nerrad567/homesync-core/internal/alert"
)

// DefaultHistoryCapacity is the per-series reading limit used when none is given.
const DefaultHistoryCapacity = 250

// Store owns the mutable state of every provisioned tenant.
// All methods are safe for concurrent use.
type Store struct {
	tenants  map[string]*tenantState // fixed after New
	ids      []string
	capacity int
	clock    func() time.Time
}

type tenantState struct {
	id string

	// commitMu orders fan-out; see Commit.
	commitMu sync.Mutex

	devMu   sync.RWMutex
	devices map[string]*Device

	series map[string]*Series // fixed after New

	limitMu sync.RWMutex
	limits  map[string]alert.Limit

	alertMu sync.RWMutex
	alerts  map[string]alert.Alert
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for device timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New builds a Store from seed. capacity is the history length of every
// series; values below 1 fall back to DefaultHistoryCapacity.
func New(seed Seed, capacity int, opts ...Option) (*Store, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	if capacity < 1 {
		capacity = DefaultHistoryCapacity
	}

	s := &Store{
		tenants:  make(map[string]*tenantState, len(seed.Tenants)),
		capacity: capacity,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, ts := range seed.Tenants {
		t := &tenantState{
			id:      ts.ID,
			devices: make(map[string]*Device, len(ts.Devices)),
			series:  make(map[string]*Series, len(ts.Sensors)),
			limits:  make(map[string]alert.Limit, len(ts.Limits)),
			alerts:  make(map[string]alert.Alert),
		}
		for _, sensor := range ts.Sensors {
			t.series[sensor.Name] = newSeries(sensor.Name, sensor.Unit, capacity)
		}
		for _, ds := range ts.Devices {
			d, err := buildDevice(ds.ID, ds.fields())
			if err != nil {
				return nil, fmt.Errorf("%w: tenant %q: %w", ErrInvalidSeed, ts.ID, err)
			}
			d.LastUpdated = s.stamp(0)
			t.devices[d.ID] = d
		}
		for name, limit := range ts.Limits {
			t.limits[name] = limit.Clone()
		}
		s.tenants[ts.ID] = t
		s.ids = append(s.ids, ts.ID)
	}
	slices.Sort(s.ids)

	return s, nil
}

// stamp returns the current time in milliseconds, forced strictly past prev.
func (s *Store) stamp(prev int64) int64 {
	now := s.clock().UnixMilli()
	if now <= prev {
		return prev + 1
	}
	return now
}

func (s *Store) tenant(id string) (*tenantState, error) {
	t, ok := s.tenants[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTenantNotFound, id)
	}
	return t, nil
}

// Commit runs fn while holding the tenant's commit lock. Mutations whose
// results are broadcast, and snapshots sent to joining connections, run
// inside Commit so connections receive events in the order the store
// applied them. fn must not call Commit for the same tenant.
func (s *Store) Commit(tenantID string, fn func() error) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}

	t.commitMu.Lock()
	defer t.commitMu.Unlock()
	return fn()
}

// HistoryCapacity returns the per-series reading limit.
func (s *Store) HistoryCapacity() int {
	return s.capacity
}

// Tenants returns the provisioned tenant IDs in sorted order.
func (s *Store) Tenants() []string {
	return slices.Clone(s.ids)
}

// HasTenant reports whether id was provisioned.
func (s *Store) HasTenant(id string) bool {
	_, ok := s.tenants[id]
	return ok
}

// =============================================================================
// Devices
// =============================================================================

// Devices returns copies of every device of the tenant keyed by ID.
func (s *Store) Devices(tenantID string) (map[string]*Device, error) {
	return s.filterDevices(tenantID, func(*Device) bool { return true })
}

// DevicesByType returns the tenant's devices of type dt. The map is empty,
// not an error, when the tenant has none.
func (s *Store) DevicesByType(tenantID string, dt DeviceType) (map[string]*Device, error) {
	return s.filterDevices(tenantID, func(d *Device) bool { return d.Type == dt })
}

func (s *Store) filterDevices(tenantID string, keep func(*Device) bool) (map[string]*Device, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	t.devMu.RLock()
	defer t.devMu.RUnlock()

	out := make(map[string]*Device)
	for id, d := range t.devices {
		if keep(d) {
			out[id] = d.DeepCopy()
		}
	}
	return out, nil
}

// Device returns a copy of one device.
func (s *Store) Device(tenantID, deviceID string) (*Device, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	t.devMu.RLock()
	defer t.devMu.RUnlock()

	d, ok := t.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, tenantID, deviceID)
	}
	return d.DeepCopy(), nil
}

// UpdateDevice merges fields into the device and stamps a fresh LastUpdated.
// The id key is ignored. A type or lastUpdated differing from the current
// value is rejected with ErrInvalidDevice.
func (s *Store) UpdateDevice(tenantID, deviceID string, fields map[string]any) (*Device, error) {
	return s.mutateDevice(tenantID, deviceID, func(d *Device) (*Device, error) {
		return applyPatch(d, fields)
	})
}

// ToggleDevice flips the device between the two states of its type.
func (s *Store) ToggleDevice(tenantID, deviceID string) (*Device, error) {
	return s.mutateDevice(tenantID, deviceID, func(d *Device) (*Device, error) {
		next := d.DeepCopy()
		next.State = d.Type.NextState(d.State)
		return next, nil
	})
}

// mutateDevice runs fn against the current device under the tenant's device
// lock and installs the result. Readers never see a half-applied change.
func (s *Store) mutateDevice(tenantID, deviceID string, fn func(*Device) (*Device, error)) (*Device, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	t.devMu.Lock()
	defer t.devMu.Unlock()

	current, ok := t.devices[deviceID]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, tenantID, deviceID)
	}

	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.Type = current.Type
	next.LastUpdated = s.stamp(current.LastUpdated)
	t.devices[deviceID] = next

	return next.DeepCopy(), nil
}

// CreateDevice adds a device. fields must carry a known type and a name.
func (s *Store) CreateDevice(tenantID, deviceID string, fields map[string]any) (*Device, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	d, err := buildDevice(deviceID, fields)
	if err != nil {
		return nil, err
	}

	t.devMu.Lock()
	defer t.devMu.Unlock()

	if _, exists := t.devices[d.ID]; exists {
		return nil, fmt.Errorf("%w: %s/%s", ErrDeviceExists, tenantID, d.ID)
	}
	d.LastUpdated = s.stamp(0)
	t.devices[d.ID] = d

	return d.DeepCopy(), nil
}

// DeleteDevice removes a device.
func (s *Store) DeleteDevice(tenantID, deviceID string) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}

	t.devMu.Lock()
	defer t.devMu.Unlock()

	if _, ok := t.devices[deviceID]; !ok {
		return fmt.Errorf("%w: %s/%s", ErrDeviceNotFound, tenantID, deviceID)
	}
	delete(t.devices, deviceID)
	return nil
}

// =============================================================================
// Sensor series
// =============================================================================

// SensorInfo summarises one series.
type SensorInfo struct {
	Name   string   `json:"name"`
	Unit   string   `json:"unit"`
	Count  int      `json:"count"`
	Latest *Reading `json:"latest,omitempty"`
}

// SensorNames returns the tenant's series names in sorted order.
func (s *Store) SensorNames(tenantID string) ([]string, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	names := slices.Collect(maps.Keys(t.series))
	slices.Sort(names)
	return names, nil
}

// Sensors returns a summary of every series of the tenant, sorted by name.
func (s *Store) Sensors(tenantID string) ([]SensorInfo, error) {
	names, err := s.SensorNames(tenantID)
	if err != nil {
		return nil, err
	}
	t := s.tenants[tenantID]

	out := make([]SensorInfo, 0, len(names))
	for _, name := range names {
		series := t.series[name]
		info := SensorInfo{Name: name, Unit: series.unit, Count: series.Len()}
		if r, ok := series.Latest(); ok {
			info.Latest = &r
		}
		out = append(out, info)
	}
	return out, nil
}

// History returns the readings of one series, oldest first.
func (s *Store) History(tenantID, sensor string) ([]Reading, error) {
	series, err := s.series(tenantID, sensor)
	if err != nil {
		return nil, err
	}
	return series.Snapshot(), nil
}

// AppendReading stores r in the named series. It reports false, storing
// nothing, when the tenant or series is unknown.
func (s *Store) AppendReading(tenantID, sensor string, r Reading) bool {
	series, err := s.series(tenantID, sensor)
	if err != nil {
		return false
	}
	series.Append(r)
	return true
}

// HasSeries reports whether the tenant has the named series.
func (s *Store) HasSeries(tenantID, sensor string) bool {
	_, err := s.series(tenantID, sensor)
	return err == nil
}

// SeriesUnit returns the provisioned unit of a series.
func (s *Store) SeriesUnit(tenantID, sensor string) (string, bool) {
	series, err := s.series(tenantID, sensor)
	if err != nil {
		return "", false
	}
	return series.unit, true
}

func (s *Store) series(tenantID, sensor string) (*Series, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}
	series, ok := t.series[sensor]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrSeriesNotFound, tenantID, sensor)
	}
	return series, nil
}

// =============================================================================
// Limits
// =============================================================================

// Limits returns every configured limit of the tenant keyed by series.
func (s *Store) Limits(tenantID string) (map[string]alert.Limit, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	t.limitMu.RLock()
	defer t.limitMu.RUnlock()

	out := make(map[string]alert.Limit, len(t.limits))
	for name, l := range t.limits {
		out[name] = l.Clone()
	}
	return out, nil
}

// Limit returns the limit of one series.
func (s *Store) Limit(tenantID, sensor string) (alert.Limit, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return alert.Limit{}, err
	}

	t.limitMu.RLock()
	defer t.limitMu.RUnlock()

	l, ok := t.limits[sensor]
	if !ok {
		return alert.Limit{}, fmt.Errorf("%w: %s/%s", ErrLimitNotFound, tenantID, sensor)
	}
	return l.Clone(), nil
}

// PutLimit merges patch into the series limit. A series without a limit
// starts from {Enabled: true}. The series must exist.
func (s *Store) PutLimit(tenantID, sensor string, patch alert.LimitPatch) (alert.Limit, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return alert.Limit{}, err
	}
	if _, ok := t.series[sensor]; !ok {
		return alert.Limit{}, fmt.Errorf("%w: %s/%s", ErrSeriesNotFound, tenantID, sensor)
	}
	if err := patch.Validate(); err != nil {
		return alert.Limit{}, err
	}

	t.limitMu.Lock()
	defer t.limitMu.Unlock()

	var current *alert.Limit
	if l, ok := t.limits[sensor]; ok {
		current = &l
	}
	next := patch.Apply(current)
	t.limits[sensor] = next

	return next.Clone(), nil
}

// =============================================================================
// Active alerts
// =============================================================================

// ActiveAlerts returns the alerts currently raised for the tenant keyed by series.
func (s *Store) ActiveAlerts(tenantID string) (map[string]alert.Alert, error) {
	t, err := s.tenant(tenantID)
	if err != nil {
		return nil, err
	}

	t.alertMu.RLock()
	defer t.alertMu.RUnlock()

	return maps.Clone(t.alerts), nil
}

// SetAlert records a as the active alert for the series, replacing any
// previous one.
func (s *Store) SetAlert(tenantID, sensor string, a alert.Alert) error {
	t, err := s.tenant(tenantID)
	if err != nil {
		return err
	}

	t.alertMu.Lock()
	t.alerts[sensor] = a
	t.alertMu.Unlock()
	return nil
}

// ClearAlert removes the active alert for the series and reports whether
// one was present.
func (s *Store) ClearAlert(tenantID, sensor string) bool {
	t, ok := s.tenants[tenantID]
	if !ok {
		return false
	}

	t.alertMu.Lock()
	defer t.alertMu.Unlock()

	if _, active := t.alerts[sensor]; !active {
		return false
	}
	delete(t.alerts, sensor)
	return true
}
