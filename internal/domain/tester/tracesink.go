package tester

import "github.com/engine-core/engine/internal/domain/evalsurface"

// scopedSink collects trace lines, honoring a TraceLevel and an optional
// asset-name filter. NONE drops every line; ASSET_ONLY and ALL both
// record lines (the distinction between them is the asset filter: a
// caller selects ASSET_ONLY together with a non-empty AssetFilter to
// scope traces to particular assets, and ALL to see everything).
type scopedSink struct {
	level  evalsurface.TraceLevel
	filter map[string]struct{}
	lines  []evalsurface.TraceLine
}

func newScopedSink(level evalsurface.TraceLevel, filter map[string]struct{}) *scopedSink {
	return &scopedSink{level: level, filter: filter}
}

func (s *scopedSink) Trace(asset, line string) {
	if s.level == evalsurface.TraceNone {
		return
	}
	if s.filter != nil {
		if _, ok := s.filter[asset]; !ok {
			return
		}
	}
	s.lines = append(s.lines, evalsurface.TraceLine{Asset: asset, Line: line})
}
