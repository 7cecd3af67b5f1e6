// Command slabdemo exercises the slab allocator from the command line:
// it builds a slab.Context from flags/config, runs one of a few
// demonstration workloads against it, and prints a final report.
package main

func main() {
	Execute()
}
