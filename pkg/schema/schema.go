package schema

// Kind is the Prometheus metric type of an exposed metric.
type Kind int

const (
	// Gauge is a value that can go up and down.
	Gauge Kind = iota
	// Counter is a value that only increases within a round.
	Counter
)

// String returns the lower-case type name used on TYPE lines.
func (k Kind) String() string {
	switch k {
	case Counter:
		return "counter"
	case Gauge:
		return "gauge"
	default:
		return "untyped"
	}
}

// MetricDefinition maps one upstream field to one exposed metric.
type MetricDefinition struct {
	// UpstreamField is the field name in the Turf API user object.
	UpstreamField string

	// ExposedName is the metric name without the namespace prefix.
	ExposedName string

	// Kind is the metric type.
	Kind Kind

	// Help is the HELP line text.
	Help string

	// Collection marks fields whose upstream value is an array. The
	// normalizer stores the element count instead of the value.
	Collection bool
}

// Registry is the ordered, immutable set of tracked metrics.
type Registry struct {
	defs     []MetricDefinition
	byField  map[string]int
	byExpose map[string]int
}

// New builds a registry from definitions. Order is preserved and determines
// exposition order. Later duplicates of an upstream field or exposed name
// are ignored.
func New(defs []MetricDefinition) *Registry {
	r := &Registry{
		defs:     make([]MetricDefinition, 0, len(defs)),
		byField:  make(map[string]int, len(defs)),
		byExpose: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if _, dup := r.byField[d.UpstreamField]; dup {
			continue
		}
		if _, dup := r.byExpose[d.ExposedName]; dup {
			continue
		}
		r.byField[d.UpstreamField] = len(r.defs)
		r.byExpose[d.ExposedName] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r
}

// Default returns the Turf user metric vocabulary.
func Default() *Registry {
	return New(turfUserMetrics)
}

var turfUserMetrics = []MetricDefinition{
	{UpstreamField: "zones", ExposedName: "zones_owned", Kind: Gauge, Help: "Number of zones owned", Collection: true},
	{UpstreamField: "pointsPerHour", ExposedName: "points_per_hour", Kind: Gauge, Help: "Number of points received per hour"},
	{UpstreamField: "points", ExposedName: "points", Kind: Gauge, Help: "Number of points received in this round"},
	{UpstreamField: "blocktime", ExposedName: "blocktime", Kind: Counter, Help: "The users blocktime"},
	{UpstreamField: "taken", ExposedName: "taken", Kind: Counter, Help: "Number of zones taken"},
	{UpstreamField: "totalPoints", ExposedName: "total_points", Kind: Counter, Help: "The users total points"},
	{UpstreamField: "rank", ExposedName: "rank", Kind: Counter, Help: "The users rank"},
	{UpstreamField: "place", ExposedName: "place", Kind: Gauge, Help: "The users place"},
	{UpstreamField: "uniqueZonesTaken", ExposedName: "unique_zones_taken", Kind: Counter, Help: "Number of unique zones the user has taken"},
	{UpstreamField: "medals", ExposedName: "medals_taken", Kind: Counter, Help: "Number of medals the user has taken", Collection: true},
}

// Lookup returns the definition tracking an upstream field.
func (r *Registry) Lookup(upstreamField string) (MetricDefinition, bool) {
	i, ok := r.byField[upstreamField]
	if !ok {
		return MetricDefinition{}, false
	}
	return r.defs[i], true
}

// IsExposed reports whether name is the exposed name of a tracked metric.
func (r *Registry) IsExposed(name string) bool {
	_, ok := r.byExpose[name]
	return ok
}

// Definitions returns a copy of all definitions in exposition order.
func (r *Registry) Definitions() []MetricDefinition {
	out := make([]MetricDefinition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Len returns the number of tracked metrics.
func (r *Registry) Len() int {
	return len(r.defs)
}
