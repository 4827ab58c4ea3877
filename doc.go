// Package etfx provides the types and the computations needed to explore and
// compare exchange-traded funds (ETFs).
//
// The core functionalities include:
//   - ETF Records: the canonical form of what the remote ETF service returns
//     (search results, ETF details, portfolio comparisons).
//   - Holdings Normalization: turning heterogeneous holding records into
//     identity-keyed holdings, dropping "Other" catch-all buckets.
//   - Intersection Analysis: finding the holdings shared by two or more
//     selected ETFs and the dollars that would end up in each of them if $100
//     were invested in every ETF.
//   - Tool State: the per-tool selections (comparator, intersection analyzer,
//     portfolio builder) persisted in a key-value Store.
//
// Network access lives in the client package, persistence backends in the
// store package, and presentation in the renderer, cmd and server packages.
package etfx
