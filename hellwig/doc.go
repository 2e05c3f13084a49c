// Package hellwig selects regression predictors with Hellwig's method of
// integral information capacity.
//
// Every non-empty subset of the candidates is scored as
//
//	H = Σ_j r0_j² / (1 + Σ_{l≠j} |r_jl|)
//
// where r0_j is the correlation of candidate j with the target and r_jl the
// correlation between two members of the subset. Subsets whose members
// correlate well with the target but weakly with each other score highest.
// The search is exhaustive, so the candidate count is capped at
// MaxPredictors.
package hellwig
