// Package workload parses and validates the block capacities and process
// sizes fed to the allocator. It also generates random block layouts when a
// caller asks for a block count that does not match the sizes it supplied.
package workload
