// Package modelnet reads point cloud text files in the resampled
// ModelNet layout: one point per line, three or six float components
// (xyz, optionally followed by a normal), separated by commas or
// whitespace. It also provides the unit sphere normalization applied
// before a cloud enters the geometry pipeline.
package modelnet
