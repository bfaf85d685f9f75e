package layout

// Default grid spacing in pixels. A column leaves room for the widest node
// plus a gutter; a row leaves room for the tallest Start node.
const (
	DefaultColumnWidth = 300.0
	DefaultRowHeight   = 160.0
	DefaultFaultOffset = 1.0
)

// Options controls how grid positions are converted to pixels and where
// fault targets and unreachable nodes go.
type Options struct {
	ColumnWidth    float64 `json:"column_width" toml:"column_width" yaml:"column_width"`
	RowHeight      float64 `json:"row_height" toml:"row_height" yaml:"row_height"`
	OriginX        float64 `json:"origin_x" toml:"origin_x" yaml:"origin_x"`
	OriginY        float64 `json:"origin_y" toml:"origin_y" yaml:"origin_y"`
	FaultOffset    float64 `json:"fault_offset" toml:"fault_offset" yaml:"fault_offset"`       // columns between a node and its first fault lane
	FallbackColumn float64 `json:"fallback_column" toml:"fallback_column" yaml:"fallback_column"` // column for nodes unreachable from Start
}

// Option configures a layout run.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{
		ColumnWidth: DefaultColumnWidth,
		RowHeight:   DefaultRowHeight,
		FaultOffset: DefaultFaultOffset,
	}
}

// WithSpacing sets the pixel size of one grid column and one grid row.
func WithSpacing(column, row float64) Option {
	return func(o *Options) {
		if column > 0 {
			o.ColumnWidth = column
		}
		if row > 0 {
			o.RowHeight = row
		}
	}
}

// WithOrigin sets the pixel position of the Start node's center.
func WithOrigin(x, y float64) Option {
	return func(o *Options) { o.OriginX, o.OriginY = x, y }
}

// WithFaultOffset sets the lateral distance, in columns, between a node and
// its first fault lane. Further lanes are spaced by the same amount.
func WithFaultOffset(columns float64) Option {
	return func(o *Options) {
		if columns > 0 {
			o.FaultOffset = columns
		}
	}
}

// WithFallbackColumn sets the column orphaned nodes are stacked in.
func WithFallbackColumn(column float64) Option {
	return func(o *Options) { o.FallbackColumn = column }
}

// WithOptions replaces all options at once, keeping defaults for unset
// spacing fields.
func WithOptions(opts Options) Option {
	return func(o *Options) {
		def := DefaultOptions()
		*o = opts
		if o.ColumnWidth <= 0 {
			o.ColumnWidth = def.ColumnWidth
		}
		if o.RowHeight <= 0 {
			o.RowHeight = def.RowHeight
		}
		if o.FaultOffset <= 0 {
			o.FaultOffset = def.FaultOffset
		}
	}
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
