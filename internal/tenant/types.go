package tenant

import (
	"encoding/json"
	"maps"
	"slices"
)

// DeviceType is the immutable kind tag of a device.
type DeviceType string

const (
	TypeLight      DeviceType = "light"
	TypeThermostat DeviceType = "thermostat"
	TypeLock       DeviceType = "lock"
	TypeDoor       DeviceType = "door"
	TypeFan        DeviceType = "fan"
	TypePlug       DeviceType = "plug"
	TypeCamera     DeviceType = "camera"
	TypeSprinkler  DeviceType = "sprinkler"
	TypePurifier   DeviceType = "purifier"
)

// State values.
const (
	StateOn       = "on"
	StateOff      = "off"
	StateLocked   = "locked"
	StateUnlocked = "unlocked"
	StateOpen     = "open"
	StateClosed   = "closed"
)

// attrKind is the value shape a known attribute must have.
type attrKind int

const (
	attrNumber attrKind = iota
	attrPercent
	attrString
	attrBool
)

// stateCycle is the pair a device toggles between. Toggle moves to second
// when the device is in first, and to first from anything else.
type stateCycle struct {
	first, second string
	initial       string
}

type typeSpec struct {
	cycle stateCycle
	attrs map[string]attrKind
}

var (
	onOff       = stateCycle{first: StateOn, second: StateOff, initial: StateOff}
	lockedCycle = stateCycle{first: StateLocked, second: StateUnlocked, initial: StateLocked}
	openClosed  = stateCycle{first: StateOpen, second: StateClosed, initial: StateClosed}
)

var typeSpecs = map[DeviceType]typeSpec{
	TypeLight:      {cycle: onOff, attrs: map[string]attrKind{"brightness": attrPercent, "color": attrString}},
	TypeThermostat: {cycle: onOff, attrs: map[string]attrKind{"targetTemp": attrNumber, "mode": attrString}},
	TypeLock:       {cycle: lockedCycle},
	TypeDoor:       {cycle: openClosed},
	TypeFan:        {cycle: onOff, attrs: map[string]attrKind{"speed": attrNumber}},
	TypePlug:       {cycle: onOff, attrs: map[string]attrKind{"powerUsage": attrNumber}},
	TypeCamera:     {cycle: onOff, attrs: map[string]attrKind{"recording": attrBool, "motionDetection": attrBool}},
	TypeSprinkler:  {cycle: onOff, attrs: map[string]attrKind{"zone": attrNumber, "duration": attrNumber}},
	TypePurifier:   {cycle: onOff, attrs: map[string]attrKind{"mode": attrString}},
}

// DeviceTypes returns every known type in a stable order.
func DeviceTypes() []DeviceType {
	types := slices.Collect(maps.Keys(typeSpecs))
	slices.Sort(types)
	return types
}

// Valid reports whether t is a known device type.
func (t DeviceType) Valid() bool {
	_, ok := typeSpecs[t]
	return ok
}

// States returns the two states a device of this type can be in.
func (t DeviceType) States() [2]string {
	c := typeSpecs[t].cycle
	return [2]string{c.first, c.second}
}

// InitialState is the state a device starts in when created without one.
func (t DeviceType) InitialState() string {
	return typeSpecs[t].cycle.initial
}

// ValidState reports whether state is one of the type's two states.
func (t DeviceType) ValidState(state string) bool {
	c := typeSpecs[t].cycle
	return state != "" && (state == c.first || state == c.second)
}

// NextState returns the state a toggle moves to from current.
func (t DeviceType) NextState(current string) string {
	c := typeSpecs[t].cycle
	if current == c.first {
		return c.second
	}
	return c.first
}

// Reserved keys that can never be stored as attributes.
const (
	fieldID          = "id"
	fieldType        = "type"
	fieldName        = "name"
	fieldState       = "state"
	fieldLastUpdated = "lastUpdated"
)

// Device is a controllable device owned by one tenant.
//
// Attributes hold the type-specific fields (brightness, targetTemp, ...).
// On the wire they are flattened next to the fixed fields.
type Device struct {
	ID          string
	Type        DeviceType
	Name        string
	State       string
	Attributes  map[string]any
	LastUpdated int64 // Unix milliseconds
}

// DeepCopy returns a copy that shares no maps with d.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Attributes = deepCopyMap(d.Attributes)
	return &cp
}

// MarshalJSON flattens attributes next to the fixed fields.
func (d Device) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Attributes)+5)
	for k, v := range d.Attributes {
		out[k] = v
	}
	out[fieldID] = d.ID
	out[fieldType] = d.Type
	out[fieldName] = d.Name
	out[fieldState] = d.State
	out[fieldLastUpdated] = d.LastUpdated
	return json.Marshal(out)
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cp := make([]any, len(val))
		for i, item := range val {
			cp[i] = deepCopyValue(item)
		}
		return cp
	default:
		return v
	}
}
