// Package config loads runtime options for the routing runtime. Options
// come from an optional HCL file (fnmesh.hcl) layered under environment
// variables; everything has a usable default so a bare deployment needs no
// file at all.
package config
