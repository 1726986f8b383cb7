// Package records holds the normalized shapes both cluster backends return:
// list rows parsed from kubectl tables or projected from API objects, the
// kubectl-style AGE rendering, and the canonical detail projection.
package records
