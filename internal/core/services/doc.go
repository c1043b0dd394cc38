// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The gathering pipeline is:
//
//	Registry -> Coordinator -> Guard -> SourceAdapter
//	                 |
//	                 +-> IntelligenceCache
//
// IntelligenceService runs the coordinator and hands its outcomes to the
// ViabilityEvaluator and ConfidenceAggregator. The Warmer re-gathers
// tracked businesses in the background to keep the cache warm.
package services
