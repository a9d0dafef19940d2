// Package container implements loader.Container for the standard library
// and Boost containers, laid out as the MSVC toolchain does, and for user
// defined arrays and linked lists.
//
// Every container offers both enumeration paths. ForEachElement yields one
// expression per element; MemoryRegions yields runs of consecutive elements
// by reading the container's bookkeeping fields at offsets computed once,
// when the loader is built. The two must agree on order for the same
// instance:
//
//   - arrays and vectors yield one region
//   - std::deque yields one region per block, honoring wrap-around
//   - std::list yields one region per node
//   - std::set yields one region per node, in order
//   - boost::circular_buffer yields up to two regions split at the wrap
package container
