package harvest

import "regexp"

// Options configures a harvest run.
type Options struct {
	// Workers is the number of concurrent directory processors.
	Workers int

	// MaxErrors is the maximum number of errors before aborting.
	// Zero means unlimited.
	MaxErrors int

	// ExcludePatterns are regular expressions for paths to skip.
	ExcludePatterns []*regexp.Regexp

	// BatchSize is the number of records to batch before flushing to DB.
	BatchSize int

	// FlushIntervalMs is the maximum time between flushes in milliseconds.
	FlushIntervalMs int
}

// DefaultOptions returns sensible defaults for harvesting.
func DefaultOptions() *Options {
	opts := &Options{
		Workers:         4,
		MaxErrors:       0,
		ExcludePatterns: nil,
		BatchSize:       5000,
		FlushIntervalMs: 1000,
	}
	// Version-control litter is never part of a component's fileset
	opts.AddExcludePattern(`/\.git(/|$)`)
	return opts
}

// WithWorkers sets the number of workers.
func (o *Options) WithWorkers(n int) *Options {
	o.Workers = n
	return o
}

// WithMaxErrors sets the maximum error count.
func (o *Options) WithMaxErrors(n int) *Options {
	o.MaxErrors = n
	return o
}

// AddExcludePattern adds a pattern to exclude.
func (o *Options) AddExcludePattern(pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	o.ExcludePatterns = append(o.ExcludePatterns, re)
	return nil
}

// ShouldExclude checks if a path matches any exclude pattern.
func (o *Options) ShouldExclude(path string) bool {
	for _, re := range o.ExcludePatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
