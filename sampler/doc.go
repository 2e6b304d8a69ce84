// Package sampler turns rays into sightlines: ordered sample points along
// the ray, each tagged with the cell that owns it.
//
// Two modes are supported:
//
//   - Uniform: n evenly spaced points over [0, length], endpoints exact.
//   - CellAware: points at every cell entry and exit returned by the index,
//     optionally refined so that no two consecutive points are further
//     apart than MaxSpacing.
//
// Example:
//
//	s, _ := sampler.New(tree, func(o *sampler.Options) { o.MaxSpacing = 0.1 })
//	sl, err := s.CellAware(ray, sampler.Metadata{SourcePath: "snap.cells"})
//	for i := range sl.Len() {
//		fmt.Println(sl.T[i], sl.Cells[i])
//	}
package sampler
