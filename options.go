package repperiods

import (
	"fmt"
	"strings"

	"github.com/yyyoichi/repperiods/internal/distance"
	"go.uber.org/zap"
)

type Option func(*Finder) error

// Method selects the clustering algorithm.
type Method int

const (
	// KMeans represents every cluster by the mean of its periods.
	KMeans Method = iota
	// KMedoids represents every cluster by one of its actual periods.
	KMedoids
)

func (m Method) String() string {
	switch m {
	case KMeans:
		return "kmeans"
	case KMedoids:
		return "kmedoids"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps "kmeans" or "kmedoids" to a Method.
func ParseMethod(s string) (Method, error) {
	for _, m := range []Method{KMeans, KMedoids} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, invalidArgumentf("method %q not supported", s)
}

// Distance selects the semimetric periods are compared with.
type Distance int

const (
	SqEuclidean Distance = iota
	Euclidean
	Cityblock
	Chebyshev
	Cosine
)

var distanceNames = map[Distance]string{
	SqEuclidean: "sqeuclidean",
	Euclidean:   "euclidean",
	Cityblock:   "cityblock",
	Chebyshev:   "chebyshev",
	Cosine:      "cosine",
}

func (d Distance) String() string {
	if s, ok := distanceNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Distance(%d)", int(d))
}

// ParseDistance maps a distance name such as "sqeuclidean" to a Distance.
func ParseDistance(s string) (Distance, error) {
	for d, name := range distanceNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return 0, invalidArgumentf("distance %q not supported", s)
}

func (d Distance) semiMetric() (distance.SemiMetric, error) {
	switch d {
	case SqEuclidean:
		return distance.SqEuclidean{}, nil
	case Euclidean:
		return distance.Euclidean{}, nil
	case Cityblock:
		return distance.Cityblock{}, nil
	case Chebyshev:
		return distance.Chebyshev{}, nil
	case Cosine:
		return distance.Cosine{}, nil
	}
	return nil, invalidArgumentf("distance %v not supported", d)
}

// WithMethod selects the clustering algorithm. The default is KMeans.
func WithMethod(m Method) Option {
	return func(f *Finder) error {
		if m != KMeans && m != KMedoids {
			return invalidArgumentf("method %v not supported", m)
		}
		f.method = m
		return nil
	}
}

// WithDistance selects the semimetric used for assigning periods to clusters.
// The default is SqEuclidean.
func WithDistance(d Distance) Option {
	return func(f *Finder) error {
		if _, err := d.semiMetric(); err != nil {
			return err
		}
		f.distance = d
		return nil
	}
}

// WithDropIncompletePeriod controls a last period shorter than the others.
// When drop is true (the default) it is left out of clustering and its
// duration is spread over the complete periods. Otherwise it becomes a
// representative period of its own, taking the last representative slot.
func WithDropIncompletePeriod(drop bool) Option {
	return func(f *Finder) error {
		f.dropIncomplete = drop
		return nil
	}
}

// WithMaxIterations bounds the iterations of a single clustering run.
func WithMaxIterations(n int) Option {
	return func(f *Finder) error {
		if n < 1 {
			return invalidArgumentf("max iterations %d must be positive", n)
		}
		f.config.MaxIterations = n
		return nil
	}
}

// WithTolerance sets the relative cost change below which k-means stops.
func WithTolerance(tol float64) Option {
	return func(f *Finder) error {
		if !(tol > 0) {
			return invalidArgumentf("tolerance %v must be positive", tol)
		}
		f.config.Tolerance = tol
		return nil
	}
}

// WithRestarts runs n independently seeded clusterings and keeps the best.
func WithRestarts(n int) Option {
	return func(f *Finder) error {
		if n < 1 {
			return invalidArgumentf("restarts %d must be positive", n)
		}
		f.config.Restarts = n
		return nil
	}
}

// WithSeed makes the clustering reproducible for a given seed. Every value,
// zero included, is used as is; without it clustering.DefaultSeed applies.
func WithSeed(seed uint64) Option {
	return func(f *Finder) error {
		f.config.Seed = seed
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(f *Finder) error {
		if l != nil {
			f.logger = l
		}
		return nil
	}
}
