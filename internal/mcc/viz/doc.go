// Package viz renders debugging views of point hierarchies: PNG axis
// projections via gonum/plot and a standalone HTML scatter report via
// go-echarts. Nothing here is used by the geometry core; it exists so a
// hierarchy can be eyeballed after a build without the training side.
package viz
