// Package riblt implements Rateless Invertible Bloom Lookup Tables, a set reconciliation
// scheme in which the Encoder produces an unbounded stream of coded symbols from its set
// of symbols, and the Decoder, which holds another set, recovers the symmetric difference
// between the two sets after receiving a number of coded symbols that is proportional to
// the size of the difference and not to the size of the sets.
//
// Each symbol is mapped to a pseudo-random, strictly increasing sequence of coded symbol
// indices derived from its hash. Every symbol participates in the coded symbol 0, and
// the probability of a symbol being mapped to a coded symbol decreases as the index of
// the coded symbol grows.
//
// The package does not define a wire format or a transport. See package ribltsync for
// reconciliation over a stream.
//
// See https://arxiv.org/abs/2402.02668 for the description of the scheme.
package riblt
