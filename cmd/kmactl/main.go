// Command kmactl replays allocation traces against the buddy allocator and reports
// page utilization.
package main

func main() {
	execute()
}
